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

// ReduceGhostResults folds every returned result into its originating
// target particle, in the exact order of the original export entries
// (spec.md §4.6, §5 "Ordering guarantees"): group g was the query group
// this process sent to task g.Task, and results is what task g.Task handed
// back for it, index-aligned.
func ReduceGhostResults[Q any, R any](run *Run[Q, R], groups []ExportGroup[Q], perTaskResults [][]Result[R]) {
	for t, g := range groups {
		rs := perTaskResults[t]
		for i, e := range g.Entries {
			if i >= len(rs) {
				break // defensive: a short reply never happens in a correct run
			}
			run.Kernel.Reduce(e.Index, &rs[i], Ghosts, run)
		}
	}
}
