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

import "github.com/kraklabs/treewalk/internal/errs"

// RunSecondary implements spec.md §4.7: for each imported query, zero-init
// a result, walk in Ghosts mode starting from each NodeList[k] >= 0, never
// exporting. Scheduling is a static parallel-for over imports (spec.md §5).
func RunSecondary[Q any, R any](run *Run[Q, R], w *Walker[Q, R], queries []Query[Q], nThreads int) ([]Result[R], error) {
	n := len(queries)
	results := make([]Result[R], n)
	if n == 0 {
		return results, nil
	}
	if nThreads < 1 {
		nThreads = 1
	}

	chunk := n/nThreads + 1
	errCh := make(chan error, nThreads)
	done := make(chan struct{}, nThreads)

	for t := 0; t < nThreads; t++ {
		go func(t int) {
			defer func() { done <- struct{}{} }()
			lv := &LocalState{Mode: Ghosts, Ngblist: make([]int, run.Particles.Len())}
			start := t * chunk
			end := start + chunk
			if start > n {
				start = n
			}
			if end > n {
				end = n
			}
			for j := start; j < end; j++ {
				q := &queries[j]
				res := &results[j]
				iter := InitIter[Q, R](run.Kernel, q, res, lv)
				for k := 0; k < NodeListLength; k++ {
					startNode := int(q.NodeList[k])
					if startNode < 0 {
						continue
					}
					if overflow, err := w.VisitWithList(lv, startNode, -1, q, res, iter); err != nil {
						errCh <- err
						return
					} else if overflow {
						errCh <- errs.Invariant("treewalk: secondary phase reported overflow, which never exports")
						return
					}
				}
			}
		}(t)
	}
	for t := 0; t < nThreads; t++ {
		<-done
	}
	select {
	case err := <-errCh:
		return nil, err
	default:
		return results, nil
	}
}
