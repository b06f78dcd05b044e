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

// BuildQueue implements spec.md §4.4. want(i) combines the user's haswork
// filter with the garbage check; noFilterPossible lets a caller that knows
// its active set is already garbage-free and unfiltered skip the scan
// entirely and adopt active verbatim (zero-copy).
//
// When a scan is required, each of nThreads workers claims a contiguous
// static range of active (schedule(static, size/NThread+1) in the
// original), filters into its own slice of a scratch array, and a final
// single-threaded prefix-sum compaction packs the surviving slices into one
// dense queue that preserves the input order (spec.md §8 property 1).
func BuildQueue(active []int, nThreads int, want func(i int) bool, noFilterPossible bool) []int {
	if noFilterPossible {
		return active
	}
	if nThreads < 1 {
		nThreads = 1
	}

	n := len(active)
	chunk := n/nThreads + 1
	survivors := make([][]int, nThreads)

	// "Parallel" here is a fan-out over goroutines with disjoint output
	// slices, mirroring the OpenMP static schedule the source uses; no
	// shared mutable state, so no synchronization is needed beyond the
	// join itself.
	done := make(chan int, nThreads)
	for t := 0; t < nThreads; t++ {
		go func(t int) {
			start := t * chunk
			end := start + chunk
			if start > n {
				start = n
			}
			if end > n {
				end = n
			}
			var local []int
			for i := start; i < end; i++ {
				if want(active[i]) {
					local = append(local, active[i])
				}
			}
			survivors[t] = local
			done <- t
		}(t)
	}
	for t := 0; t < nThreads; t++ {
		<-done
	}

	total := 0
	for _, s := range survivors {
		total += len(s)
	}
	queue := make([]int, 0, total)
	for _, s := range survivors {
		queue = append(queue, s...)
	}
	return queue
}
