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

import "sync/atomic"

// RunPrimary implements spec.md §4.5's PrimaryPhase: walk the full local
// tree for every active particle with mode Primary, invoking Fill, the
// visitor, then Reduce. Standard dynamic scheduling (one item at a time off
// a shared atomic cursor); it can never overflow since it never exports.
func RunPrimary[Q any, R any](run *Run[Q, R], w *Walker[Q, R], queue []int, states []*LocalState) error {
	var cursor int64
	n := int64(len(queue))
	errs := make(chan error, len(states))

	done := make(chan struct{}, len(states))
	for _, lv := range states {
		go func(lv *LocalState) {
			defer func() { done <- struct{}{} }()
			for {
				i := atomic.AddInt64(&cursor, 1) - 1
				if i >= n {
					return
				}
				target := queue[i]
				var q Query[Q]
				var res Result[R]
				q.Pos = run.Particles.Get(target).Pos
				q.NodeList = [NodeListLength]int32{-1, -1}
				run.Kernel.Fill(target, &q, run)
				iter := InitIter[Q, R](run.Kernel, &q, &res, lv)
				before := lv.Interactions
				if _, err := w.VisitWithList(lv, run.Tree.Root(), target, &q, &res, iter); err != nil {
					errs <- err
					return
				}
				if delta := lv.Interactions - before; delta > lv.MaxInteractions {
					lv.MaxInteractions = delta
				}
				run.Kernel.Reduce(target, &res, Primary, run)
			}
		}(lv)
	}
	for range states {
		<-done
	}
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}
