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

// LocalState is the per-thread scratch state spec.md §3 describes: a mode,
// a view into the shared DataIndexTable, a private neighbour buffer slice,
// and thread-private counters merged at join (spec.md §5, no locking
// because every thread's writes are disjoint).
type LocalState struct {
	Mode Mode

	Table    *DataIndexTable
	Offset   int // this thread's window start in Table
	Capacity int // this thread's window size (localbunch)
	Nexport  int // entries written so far, relative to Offset

	NThisParticleExport int // entries written for the target currently in flight

	lastCoalesceKey uint64 // xxhash of the most recently appended entry's (task, index)
	haveCoalesceKey bool

	Ngblist  []int // NumParticles-sized, partitioned per thread by the caller
	NgblistN int

	Arena *arena.Arena

	Interactions    int64
	MinInteractions int64
	MaxInteractions int64
}

// NewLocalState builds a thread's scratch state. ngblistCap is normally
// ParticleTable.Len() — the worst case every local particle is a candidate.
func NewLocalState(mode Mode, table *DataIndexTable, offset, capacity, ngblistCap int, scratch *arena.Arena) *LocalState {
	return &LocalState{
		Mode:     mode,
		Table:    table,
		Offset:   offset,
		Capacity: capacity,
		Ngblist:  make([]int, ngblistCap),
		Arena:    scratch,
	}
}
