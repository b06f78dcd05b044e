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
// Package spatial defines the external data model the tree-walk engine
// queries but never builds: particles, tree nodes and the top-leaf
// ownership table. Building the tree and assigning top-leaves to processes
// is domain decomposition's job, out of scope here (spec.md §1).
package spatial

// ChildType classifies a TreeNode's children.
type ChildType int

const (
	// Internal nodes still need descending into.
	Internal ChildType = iota
	// Particle nodes are leaves holding local particle indices.
	Particle
	// Pseudo nodes are top-leaves owned by another process.
	Pseudo
)

// Vec3 is a plain 3-vector; the engine never constructs one except via
// Sub/periodic helpers, to keep distance math centralized.
type Vec3 [3]float64

// Particle is the external particle record. Position, Hsml and the
// garbage/type tags are read by the engine; nothing here is engine-owned.
type Particle struct {
	Pos       Vec3
	Hsml      float64
	Type      int8
	IsGarbage bool
	ID        int64
}

// Node is one entry of the tree arena. Siblings and children are indices
// into the same arena, never pointers — the arena is owned by the tree
// builder, which lives outside this package.
type Node struct {
	Centre           Vec3
	Len              float64 // full side length; Keep halves it to get the node's reach
	TypeMask         uint32  // bitmask of particle types contained
	Hmax             float64
	ChildType        ChildType
	Sibling          int
	FirstChild       int
	TopLevel         bool
	InternalTopLevel bool
	// Suns holds local particle indices for a Particle leaf (Suns[0:Noccupied])
	// or, for a Pseudo node, Suns[0] is its index into Tree.TopLeaves().
	Suns      []int
	Noccupied int
}

// TopLeaf maps a pseudo-node's top-leaf index to its owning process and the
// node index on that process's local tree where a ghost walk should start.
type TopLeaf struct {
	OwnerTask int
	LocalNode int
}

// Tree is the read-only spatial tree the engine walks. It is built and
// owned entirely outside this module; the engine only ever indexes into it.
type Tree interface {
	// Root returns the index of the local tree's root node.
	Root() int
	// NodeAt returns the node at index no. The engine only calls it with
	// no >= 0: a negative index ends a walk, and pseudo-nodes are ordinary
	// non-negative indices (see LastNode).
	NodeAt(no int) *Node
	// LastNode is the first index at/after which node indices address
	// pseudo-nodes. The engine does not call it; it resolves a pseudo-node's
	// top-leaf through Node.Suns[0].
	LastNode() int
	// TopLeaves returns the global top-leaf ownership table.
	TopLeaves() []TopLeaf
	// BoxSize returns the periodic box size L (0 disables periodic wrap).
	BoxSize() float64
}

// ParticleTable is the flat, external particle array.
type ParticleTable interface {
	Len() int
	Get(i int) *Particle
}

// FACT1 is (sqrt(3)-1)/2: multiplied by a cube's full side length, it gives
// the radius of the cube's minimal enclosing sphere minus its half-width
// (spec.md §4.1).
const FACT1 = 0.36602540378443865 // (sqrt(3)-1)/2

// NearestImage returns the periodic nearest-image signed displacement of d
// given box size L. L<=0 means non-periodic (d is returned unchanged).
func NearestImage(d, boxSize float64) float64 {
	if boxSize <= 0 {
		return d
	}
	half := boxSize / 2
	for d > half {
		d -= boxSize
	}
	for d < -half {
		d += boxSize
	}
	return d
}
