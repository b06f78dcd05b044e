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
	"time"
)

// wantFunc type-asserts the optional HasWork capability off a kernel; when
// the kernel does not implement it, it reports false with a nil func and the
// caller takes everything (spec.md §6, "optional").
func wantFunc[Q any, R any](run *Run[Q, R]) (func(i int) bool, bool) {
	wf, ok := run.Kernel.(WorkFilter[Q, R])
	if !ok {
		return nil, false
	}
	return func(i int) bool { return wf.HasWork(i, run) }, true
}

// Execute runs one full ev_begin..ev_finish pass over active (spec.md §4.8):
// build the queue, size the export table, preprocess, then drive the
// TopTree/Exchange/Secondary/Reduce cycle until every rank reports a pass
// without overflow. Primary runs once, during the first cycle, overlapped
// with that cycle's exchange; postprocess runs after the last cycle.
func Execute[Q any, R any](run *Run[Q, R], active []int) error {
	want, hasFilter := wantFunc(run)
	queue := BuildQueue(active, run.Config.NThreads, func(i int) bool {
		if run.Particles.Get(i).IsGarbage {
			return false
		}
		if hasFilter {
			return want(i)
		}
		return true
	}, false)

	bunch, err := SizeBunch(BunchSizeParams{
		FreeArena:          run.Config.ArenaBytes,
		ImportBufferBoost:  atomic.LoadInt64(&run.Config.ImportBufferBoost),
		QueryElemSize:      run.Config.QueryElemSize,
		ResultElemSize:     run.Config.ResultElemSize,
		HeadroomConstBytes: run.Config.HeadroomConstBytes,
	})
	if err != nil {
		return err
	}
	run.table = NewDataIndexTable(bunch)
	defer func() { run.table = nil }() // ev_finish: the table does not outlive one Execute call

	run.Stats.PreprocessTime = 0
	if pp, ok := run.Kernel.(PrePostProcessor[Q, R]); ok {
		t0 := time.Now()
		done := make(chan struct{}, run.Config.NThreads)
		chunk := len(queue)/run.Config.NThreads + 1
		for t := 0; t < run.Config.NThreads; t++ {
			go func(t int) {
				defer func() { done <- struct{}{} }()
				start, end := clampRange(t*chunk, chunk, len(queue))
				for i := start; i < end; i++ {
					pp.Preprocess(queue[i], run)
				}
			}(t)
		}
		for t := 0; t < run.Config.NThreads; t++ {
			<-done
		}
		run.Stats.PreprocessTime = time.Since(t0)
	}

	walker := &Walker[Q, R]{
		Tree:      run.Tree,
		Particles: run.Particles,
		TopLeaves: run.Tree.TopLeaves(),
		Kernel:    run.Kernel,
		BoxSize:   run.Config.BoxSize,
	}

	workSetStart := 0
	primaryDone := false

	for {
		exportStates := newExportStates(run.table, run.Config.NThreads, run.Particles.Len(), int(run.Config.ScratchBytesPerThread))
		tt0 := time.Now()
		ttResult := RunTopTree[Q, R](run, walker, queue, workSetStart, exportStates)
		run.Stats.TopTreeTime += time.Since(tt0)
		t0 := time.Now()

		entries := CollectEntries(exportStates)
		groups := GroupByTask(run, entries)
		qHandle, err := PostQueries[Q](run.Cluster, groups)
		if err != nil {
			return err
		}

		// PrimaryPhase runs at most once per Execute call, overlapped with
		// the first query exchange's wait (spec.md §4.5, §5 "overlap local
		// computation with the pending exchange").
		var primaryErr error
		var primaryStates []*LocalState
		primaryDoneCh := make(chan struct{})
		if !primaryDone {
			primaryStates = newPlainStates(Primary, run.Config.NThreads, run.Particles.Len(), int(run.Config.ScratchBytesPerThread))
			go func() {
				defer close(primaryDoneCh)
				p0 := time.Now()
				primaryErr = RunPrimary[Q, R](run, walker, queue, primaryStates)
				run.Stats.PrimaryTime += time.Since(p0)
			}()
		} else {
			close(primaryDoneCh)
		}

		imported, err := WaitQueries[Q](qHandle)
		if err != nil {
			return err
		}
		s0 := time.Now()
		secResults, err := RunSecondary[Q, R](run, walker, imported.Queries, run.Config.NThreads)
		run.Stats.SecondaryTime += time.Since(s0)
		if err != nil {
			return err
		}
		perPeer := SplitResultsByPeer(secResults, imported.PerPeerCount)
		rHandle, err := PostResults[R](run.Cluster, perPeer)
		if err != nil {
			return err
		}
		perTaskResults, err := WaitResults[R](rHandle)
		if err != nil {
			return err
		}
		r0 := time.Now()
		ReduceGhostResults(run, groups, perTaskResults)
		run.Stats.ReduceTime += time.Since(r0)

		<-primaryDoneCh
		if primaryErr != nil {
			return primaryErr
		}
		if !primaryDone {
			for _, lv := range primaryStates {
				run.Stats.mergeThread(lv, true)
			}
			primaryDone = true
		}

		for _, lv := range exportStates {
			run.Stats.mergeThread(lv, false)
		}
		run.Stats.NexportSum += ttResult.Nexport
		run.Stats.ExchangeTime += time.Since(t0)

		localDone := int64(0)
		if !ttResult.Overflowed {
			localDone = 1
			workSetStart = len(queue)
		} else {
			workSetStart = ttResult.LastSucceeded + 1
			run.Stats.OverflowRetries++
		}

		ndone := run.Cluster.AllReduceSum(localDone)
		if ndone >= int64(run.Cluster.NTask()) {
			break
		}
	}

	if pp, ok := run.Kernel.(PrePostProcessor[Q, R]); ok {
		t0 := time.Now()
		done := make(chan struct{}, run.Config.NThreads)
		chunk := len(queue)/run.Config.NThreads + 1
		for t := 0; t < run.Config.NThreads; t++ {
			go func(t int) {
				defer func() { done <- struct{}{} }()
				start, end := clampRange(t*chunk, chunk, len(queue))
				for i := start; i < end; i++ {
					pp.Postprocess(queue[i], run)
				}
			}(t)
		}
		for t := 0; t < run.Config.NThreads; t++ {
			<-done
		}
		run.Stats.PostprocessTime = time.Since(t0)
	}

	run.Stats.Niteration++
	return nil
}

func clampRange(start, chunk, n int) (int, int) {
	end := start + chunk
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	return start, end
}
