// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later
package walk

import (
	"sync/atomic"

	"github.com/kraklabs/treewalk/pkg/arena"
)

// TopTreeResult is what one call to RunTopTree reports back to the
// orchestrator (spec.md §4.5).
type TopTreeResult struct {
	Overflowed     bool
	LastSucceeded  int // start-1 if nothing completed this pass
	Nexport        int64
	NexportPerTask []int // summed across every thread's slice, indexed by task up to the highest task exported to
}

// topTreeChunk picks the monotonic-dynamic chunk size: max(1, min(100,
// remaining/(4*nThreads))), halving as the work set empties out
// (spec.md §4.5, §5).
func topTreeChunk(remaining, nThreads int) int {
	c := remaining / (4 * nThreads)
	if c > 100 {
		c = 100
	}
	if c < 1 {
		c = 1
	}
	return c
}

// RunTopTree walks the replicated top-tree for every particle in
// queue[start:], populating table via each thread's LocalState, using the
// hand-rolled monotonic-dynamic scheduler of spec.md §4.5: threads race an
// atomic cursor for increasing chunks of queue, in order, so that a global
// lastSucceeded minimum is always safe to resume from.
func RunTopTree[Q any, R any](run *Run[Q, R], w *Walker[Q, R], queue []int, start int, states []*LocalState) TopTreeResult {
	n := len(queue)
	var cursor int64 = int64(start)
	var overflowed int32
	lastSucceeded := make([]int, len(states))
	for i := range lastSucceeded {
		lastSucceeded[i] = start - 1
	}

	done := make(chan int, len(states))
	for ti, lv := range states {
		go func(ti int, lv *LocalState) {
			defer func() { done <- ti }()
			for {
				if atomic.LoadInt32(&overflowed) != 0 {
					return
				}
				remaining := n - int(atomic.LoadInt64(&cursor))
				if remaining <= 0 {
					return
				}
				chunk := topTreeChunk(remaining, len(states))
				base := atomic.AddInt64(&cursor, int64(chunk)) - int64(chunk)
				end := int(base) + chunk
				if end > n {
					end = n
				}
				for i := int(base); i < end; i++ {
					if atomic.LoadInt32(&overflowed) != 0 {
						return
					}
					target := queue[i]
					var q Query[Q]
					var res Result[R]
					var overflow bool
					var walkErr error
					// The query/result pair for this target is scoped to the
					// thread's bump arena for its lifetime (spec.md §9
					// "Scoped stack scratch"); the Go values themselves live
					// on the stack as usual, the reservation below just
					// accounts for the bytes a manual-memory implementation
					// would have carved out of scratch.
					lv.Arena.Scope(func(a *arena.Arena) {
						a.Alloc(int(run.Config.QueryElemSize + run.Config.ResultElemSize))
						q.Pos = run.Particles.Get(target).Pos
						q.NodeList = [NodeListLength]int32{-1, -1}
						run.Kernel.Fill(target, &q, run)
						iter := InitIter[Q, R](run.Kernel, &q, &res, lv)
						lv.NThisParticleExport = 0
						overflow, walkErr = w.VisitWithList(lv, run.Tree.Root(), target, &q, &res, iter)
					})
					if walkErr != nil {
						// A FatalInvariant inside the top-tree walk aborts
						// the whole job; there is no recoverable path here.
						panic(walkErr)
					}
					if overflow {
						lv.RollbackCurrentTarget()
						atomic.StoreInt32(&overflowed, 1)
						return
					}
					lastSucceeded[ti] = i
				}
			}
		}(ti, lv)
	}
	for range states {
		<-done
	}

	globalLast := start - 1
	first := true
	for _, ls := range lastSucceeded {
		if first || ls < globalLast {
			globalLast = ls
			first = false
		}
	}

	var nexportSum int64
	var perTask []int
	for _, lv := range states {
		nexportSum += int64(lv.Nexport)
		for _, e := range lv.Table.Slice(lv.Offset, lv.Nexport) {
			for len(perTask) <= e.Task {
				perTask = append(perTask, 0)
			}
			perTask[e.Task]++
		}
	}

	return TopTreeResult{
		Overflowed:     overflowed != 0,
		LastSucceeded:  globalLast,
		Nexport:        nexportSum,
		NexportPerTask: perTask,
	}
}
