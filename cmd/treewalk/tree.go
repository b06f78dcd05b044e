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
package main

import (
	"math/rand"

	"github.com/kraklabs/treewalk/pkg/spatial"
)

// demoParticles is a flat, randomly-seeded particle table standing in for a
// real simulation snapshot (building and loading particle data is outside
// this engine's scope, spec.md §1).
type demoParticles struct {
	particles []spatial.Particle
}

func newDemoParticles(n int, boxSize float64, seed int64) *demoParticles {
	r := rand.New(rand.NewSource(seed))
	extent := boxSize
	if extent <= 0 {
		extent = 1.0
	}
	ps := make([]spatial.Particle, n)
	for i := range ps {
		ps[i] = spatial.Particle{
			Pos:  spatial.Vec3{r.Float64() * extent, r.Float64() * extent, r.Float64() * extent},
			Hsml: extent / 20,
			Type: 0,
			ID:   int64(i),
		}
	}
	return &demoParticles{particles: ps}
}

func (p *demoParticles) Len() int                      { return len(p.particles) }
func (p *demoParticles) Get(i int) *spatial.Particle    { return &p.particles[i] }
func (p *demoParticles) SetHsml(i int, h float64)       { p.particles[i].Hsml = h }

// demoTree is the minimal Tree fixture the cluster demo walks: one root, one
// particle leaf holding every local particle, and one sibling Pseudo node per
// peer rank. Building a real spatial tree (octree/kd-tree with top-level
// domain decomposition) is explicitly out of scope (spec.md §1); this is
// demo scaffolding only, sized so the engine's culling, export and exchange
// machinery all get exercised against something concrete.
type demoTree struct {
	nodes     []spatial.Node
	topLeaves []spatial.TopLeaf
	boxSize   float64
}

const (
	demoRootNode = 0
	demoLeafNode = 1
	demoLastNode = 2 // node indices >= this address pseudo-nodes
)

// newDemoTree builds the fixture for one rank: nParticles local particles
// under the leaf node, one Pseudo sibling per other rank in [0,ntask).
func newDemoTree(nParticles, ntask, rank int, boxSize float64) *demoTree {
	extent := boxSize
	if extent <= 0 {
		extent = 1.0
	}
	centre := spatial.Vec3{extent / 2, extent / 2, extent / 2}

	suns := make([]int, nParticles)
	for i := range suns {
		suns[i] = i
	}

	// TypeMask: 1 on every node since newDemoParticles only ever creates
	// Type 0 particles and the demo kernel only ever requests mask bit 0
	// (descend's tree-mask/iter-mask superset check, spec.md §4.2).
	nodes := make([]spatial.Node, demoLastNode)
	nodes[demoRootNode] = spatial.Node{
		Centre: centre, Len: extent, TypeMask: 1, ChildType: spatial.Internal,
		FirstChild: demoLeafNode, Sibling: -1, TopLevel: true, InternalTopLevel: true,
	}
	nodes[demoLeafNode] = spatial.Node{
		Centre: centre, Len: extent, TypeMask: 1, ChildType: spatial.Particle,
		Suns: suns, Noccupied: nParticles, FirstChild: -1, Sibling: -1,
		// InternalTopLevel is false here: this leaf is the local partition's
		// top-level boundary, not an internal top-tree branch, so descend
		// advances past it via Sibling to reach any Pseudo siblings rather
		// than falling through to FirstChild (-1).
		TopLevel: true, InternalTopLevel: false,
	}

	topLeaves := make([]spatial.TopLeaf, ntask)
	prevSibling := demoLeafNode
	for t := 0; t < ntask; t++ {
		topLeaves[t] = spatial.TopLeaf{OwnerTask: t, LocalNode: demoLeafNode}
		if t == rank {
			continue // no pseudo-node for this rank's own partition
		}
		idx := len(nodes)
		nodes = append(nodes, spatial.Node{
			Centre: centre, Len: extent, TypeMask: 1, ChildType: spatial.Pseudo,
			Suns: []int{t}, FirstChild: -1, Sibling: -1,
			TopLevel: true, InternalTopLevel: true,
		})
		nodes[prevSibling].Sibling = idx
		prevSibling = idx
	}

	nodes[demoRootNode].FirstChild = demoLeafNode
	return &demoTree{nodes: nodes, topLeaves: topLeaves, boxSize: boxSize}
}

func (t *demoTree) Root() int                      { return demoRootNode }
func (t *demoTree) NodeAt(no int) *spatial.Node     { return &t.nodes[no] }
func (t *demoTree) LastNode() int                   { return demoLastNode }
func (t *demoTree) TopLeaves() []spatial.TopLeaf    { return t.topLeaves }
func (t *demoTree) BoxSize() float64                { return t.boxSize }
