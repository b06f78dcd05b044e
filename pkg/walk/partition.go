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

import "github.com/kraklabs/treewalk/pkg/arena"

// partitionBunch splits a DataIndexTable of the given total size into
// nThreads equal contiguous windows, the last absorbing the remainder
// (spec.md §4.3 "Slicing").
func partitionBunch(total, nThreads int) []int {
	base := total / nThreads
	sizes := make([]int, nThreads)
	for i := range sizes {
		sizes[i] = base
	}
	sizes[nThreads-1] += total - base*nThreads
	return sizes
}

// newExportStates builds one LocalState per thread in TopTree mode, each
// owning a disjoint window of table and its own neighbour buffer and
// scratch arena.
func newExportStates(table *DataIndexTable, nThreads, ngblistCap int, scratchPerThread int) []*LocalState {
	sizes := partitionBunch(table.Len(), nThreads)
	states := make([]*LocalState, nThreads)
	offset := 0
	for i, sz := range sizes {
		states[i] = NewLocalState(TopTree, table, offset, sz, ngblistCap, arena.New(scratchPerThread))
		offset += sz
	}
	return states
}

// newPlainStates builds one LocalState per thread with no export table
// (Primary mode never exports).
func newPlainStates(mode Mode, nThreads, ngblistCap int, scratchPerThread int) []*LocalState {
	states := make([]*LocalState, nThreads)
	for i := range states {
		states[i] = NewLocalState(mode, nil, 0, 0, ngblistCap, arena.New(scratchPerThread))
	}
	return states
}
