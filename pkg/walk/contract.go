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
// Package walk implements the engine itself: a two-level (top-tree then
// local-tree) spatial traversal with node culling, a per-thread export
// buffer with bounded memory and overflow-resumable scheduling, a sparse
// all-to-all exchange of query/result payloads overlapped with local
// computation, and an outer convergence loop over variable smoothing
// length. See SPEC_FULL.md for the full component breakdown.
package walk

import "github.com/kraklabs/treewalk/pkg/spatial"

// Mode is the three walking contexts a LocalState can be in.
type Mode int

const (
	// Primary walks the full local tree for local particles.
	Primary Mode = iota
	// TopTree walks only the replicated top-tree, to discover remote work.
	TopTree
	// Ghosts walks the local tree on behalf of an imported (remote) query;
	// it never exports.
	Ghosts
)

func (m Mode) String() string {
	switch m {
	case Primary:
		return "primary"
	case TopTree:
		return "toptree"
	case Ghosts:
		return "ghosts"
	default:
		return "unknown"
	}
}

// NodeListLength is fixed at compile time (spec.md §3 invariant 3); callers
// that need a different value must fork the engine, not reconfigure it.
const NodeListLength = 2

// Query is the per-particle query record: position and up to two top-level
// start-nodes for a remote ghost walk, plus a kernel-declared payload. Q is
// concrete at the kernel layer and opaque to everything above it in this
// package — the Go-native equivalent of spec.md §9's "existential type"
// guidance, without resorting to raw byte slices and unsafe casts.
type Query[Q any] struct {
	Pos      spatial.Vec3
	NodeList [NodeListLength]int32 // -1 is the terminator
	Payload  Q
}

// Result is the per-query result record, zero-initialised by the caller
// before a walk and folded into the target particle by Kernel.Reduce.
type Result[R any] struct {
	Payload R
}

// Iterator carries the per-neighbour-candidate state ngbiter reads and
// writes: Hsml/Mask/Symmetric are set by the Other==-1 initialisation call
// and may be mutated by the kernel mid-walk (see VisitNoList); Other, R, R2
// and Dist are filled in for each accepted neighbour.
type Iterator struct {
	Hsml      float64
	Mask      uint32
	Symmetric bool
	Other     int // -1 during initialisation
	R         float64
	R2        float64
	Dist      spatial.Vec3
}

// Kernel bundles the user-supplied pairwise interaction callbacks
// (spec.md §6). Fill and Reduce close over a concrete *Run[Q,R] so kernels
// can reach engine-owned state (particle table, tree, stats) without the
// engine exposing mutable internals.
type Kernel[Q any, R any] interface {
	// Fill populates kernel-specific fields in the query; Pos and NodeList
	// are already set by the caller.
	Fill(target int, q *Query[Q], run *Run[Q, R])
	// Reduce folds a result into particle target. Called once per target in
	// Primary mode and once per export entry in Ghosts mode.
	Reduce(target int, res *Result[R], mode Mode, run *Run[Q, R])
	// NgbIter is called once with iter.Other == -1 to initialise Hsml, Mask
	// and Symmetric, then once per accepted neighbour.
	NgbIter(q *Query[Q], res *Result[R], iter *Iterator, lv *LocalState)
}

// WorkFilter is an optional Kernel capability: HasWork filters the active
// set before it is queued (spec.md §6, "optional").
type WorkFilter[Q any, R any] interface {
	HasWork(i int, run *Run[Q, R]) bool
}

// PrePostProcessor is an optional Kernel capability run once per queue
// entry, in parallel, before/after the exchange loop.
type PrePostProcessor[Q any, R any] interface {
	Preprocess(i int, run *Run[Q, R])
	Postprocess(i int, run *Run[Q, R])
}
