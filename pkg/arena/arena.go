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
// Package arena implements the hierarchical bump allocator the engine uses
// for every scratch buffer, standing in for the simulator's mymalloc/myfree
// (spec.md §3, §5 "Memory discipline"). Allocation is strict LIFO: the last
// block acquired must be the first one released. This package never talks
// to the OS allocator per request — it carves out of one backing slice so
// that repeated per-particle scoped allocations (query/result records, see
// spec.md §9 "Scoped stack scratch") don't pay heap-allocation cost.
package arena

import "fmt"

// Arena is a single contiguous scratch region with a bump (stack) pointer.
// Not safe for concurrent use — callers that need per-thread scratch should
// construct one Arena per thread (see walk.LocalState).
type Arena struct {
	buf    []byte
	offset int
	marks  []int // pushed by Mark, popped by Release; enforces LIFO discipline
}

// New allocates the backing store once, up front, for size bytes of scratch.
func New(size int) *Arena {
	return &Arena{buf: make([]byte, size)}
}

// Free returns the number of unused bytes remaining.
func (a *Arena) Free() int {
	return len(a.buf) - a.offset
}

// Cap returns the total backing capacity.
func (a *Arena) Cap() int {
	return len(a.buf)
}

// Alloc carves n bytes off the top of the arena. It panics on exhaustion —
// callers must size the arena (or the BunchSize derived from it) so this
// never happens in normal operation; running out here is a FatalConfig
// condition, not a recoverable one.
func (a *Arena) Alloc(n int) []byte {
	if a.offset+n > len(a.buf) {
		panic(fmt.Sprintf("arena: out of scratch memory: want %d, have %d free of %d", n, a.Free(), len(a.buf)))
	}
	b := a.buf[a.offset : a.offset+n : a.offset+n]
	a.offset += n
	return b
}

// Mark records the current offset so a later Release can roll back to it.
// Mark/Release pairs must nest like a stack — this is the "allocated in
// orchestrator order, freed in reverse" discipline of spec.md §5.
func (a *Arena) Mark() int {
	a.marks = append(a.marks, a.offset)
	return a.offset
}

// Release rolls the arena back to the most recent Mark. Calling Release
// without a matching Mark, or out of order, is a programmer error and
// panics — the LIFO contract is not recoverable.
func (a *Arena) Release() {
	if len(a.marks) == 0 {
		panic("arena: Release without matching Mark")
	}
	n := len(a.marks) - 1
	a.offset = a.marks[n]
	a.marks = a.marks[:n]
}

// Scope acquires a Mark, runs fn, and Releases on return — the "scoped
// acquisition from a per-thread bump allocator with automatic release on
// scope exit" of spec.md §9.
func (a *Arena) Scope(fn func(a *Arena)) {
	a.Mark()
	defer a.Release()
	fn(a)
}
