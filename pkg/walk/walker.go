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

import (
	"math"

	"github.com/kraklabs/treewalk/internal/errs"
	"github.com/kraklabs/treewalk/pkg/spatial"
)

// InitIter invokes the kernel once with Other == -1 so it can set Hsml,
// Mask and Symmetric before a walk begins (spec.md §4.2).
func InitIter[Q any, R any](kernel Kernel[Q, R], q *Query[Q], res *Result[R], lv *LocalState) *Iterator {
	iter := &Iterator{Other: -1}
	kernel.NgbIter(q, res, iter, lv)
	return iter
}

// descend is the shared traversal loop of spec.md §4.2. onParticleLeaf is
// invoked for every PARTICLE-type node reached in Primary/Ghosts mode; it
// is never called in TopTree mode, where the loop instead pushes
// pseudo-nodes to the ExportBuffer itself. target is only meaningful in
// TopTree mode, where it names the export entries' owning particle.
func descend(tree spatial.Tree, topLeaves []spatial.TopLeaf, boxSize float64, lv *LocalState, startNode, target int, pos spatial.Vec3, iter *Iterator, onParticleLeaf func(node *spatial.Node)) (overflow bool, err error) {
	no := startNode
	for no >= 0 {
		node := tree.NodeAt(no)

		// The tree-mask must be a superset of the iter-mask (spec.md §4.2):
		// checked once, at the node a walk enters on, since a narrower mask
		// further down the tree is ordinary pruning, not a built-tree defect.
		if no == startNode && iter.Mask&^node.TypeMask != 0 {
			return false, errs.Invariant("treewalk: tree mask %#x at node %d does not cover requested iter mask %#x", node.TypeMask, no, iter.Mask)
		}

		if lv.Mode == Ghosts && node.TopLevel && no != startNode {
			break
		}

		if !Keep(pos, iter.Hsml, iter.Symmetric, node, boxSize) {
			no = node.Sibling
			continue
		}

		switch lv.Mode {
		case TopTree:
			switch node.ChildType {
			case spatial.Pseudo:
				res, perr := Push(lv, target, topLeaves, node.Suns[0])
				if perr != nil {
					return false, perr
				}
				if res == PushOverflow {
					return true, nil
				}
				no = node.Sibling
				continue
			default:
				if node.TopLevel && !node.InternalTopLevel {
					no = node.Sibling
					continue
				}
			}
		default:
			switch node.ChildType {
			case spatial.Particle:
				onParticleLeaf(node)
				no = node.Sibling
				continue
			case spatial.Pseudo:
				if lv.Mode == Ghosts {
					return false, errs.Invariant("treewalk: pseudo-node encountered in Ghosts walk")
				}
				no = node.Sibling
				continue
			}
		}

		no = node.FirstChild
	}
	return false, nil
}

// Walker bundles the spatial collaborators and kernel needed to drive
// VisitWithList/VisitNoList over a concrete query/result pair.
type Walker[Q any, R any] struct {
	Tree      spatial.Tree
	Particles spatial.ParticleTable
	TopLeaves []spatial.TopLeaf
	Kernel    Kernel[Q, R]
	BoxSize   float64
}

// acceptCandidate reports whether particle idx passes the garbage and
// type-mask filters shared by both visitor flavours (spec.md §3 invariant
// 7, §4.2 "the tree-mask must be a superset of the iter-mask").
func (w *Walker[Q, R]) acceptCandidate(idx int, mask uint32) (*spatial.Particle, bool) {
	p := w.Particles.Get(idx)
	if p.IsGarbage {
		return nil, false
	}
	if mask&(1<<uint(p.Type)) == 0 {
		return nil, false
	}
	return p, true
}

func (w *Walker[Q, R]) threshold(iter *Iterator, neighbour *spatial.Particle) float64 {
	if iter.Symmetric {
		return math.Max(iter.Hsml, neighbour.Hsml)
	}
	return iter.Hsml
}

// VisitWithList descends from startNode collecting accepted candidates into
// lv.Ngblist, then evaluates exact distance and invokes NgbIter once per
// accepted neighbour (spec.md §4.2 "visit_ngbiter").
func (w *Walker[Q, R]) VisitWithList(lv *LocalState, startNode, target int, q *Query[Q], res *Result[R], iter *Iterator) (overflow bool, err error) {
	lv.NgblistN = 0

	overflow, err = descend(w.Tree, w.TopLeaves, w.BoxSize, lv, startNode, target, q.Pos, iter, func(node *spatial.Node) {
		for i := 0; i < node.Noccupied; i++ {
			idx := node.Suns[i]
			if _, ok := w.acceptCandidate(idx, iter.Mask); !ok {
				continue
			}
			if lv.NgblistN < len(lv.Ngblist) {
				lv.Ngblist[lv.NgblistN] = idx
				lv.NgblistN++
			}
		}
	})
	if err != nil || overflow {
		return overflow, err
	}

	for i := 0; i < lv.NgblistN; i++ {
		idx := lv.Ngblist[i]
		p := w.Particles.Get(idx)
		accept, dist, r2 := exactDistance(q.Pos, p.Pos, w.threshold(iter, p), w.BoxSize)
		if !accept {
			continue
		}
		iter.Other = idx
		iter.Dist = dist
		iter.R2 = r2
		iter.R = math.Sqrt(r2)
		w.Kernel.NgbIter(q, res, iter, lv)
		lv.Interactions++
	}
	return false, nil
}

// VisitNoList descends from startNode and invokes NgbIter immediately per
// accepted candidate (spec.md §4.2 "visit_nolist_ngbiter") — used when the
// kernel mutates iter.Hsml mid-walk, since descend re-reads iter.Hsml on
// every loop iteration.
func (w *Walker[Q, R]) VisitNoList(lv *LocalState, startNode, target int, q *Query[Q], res *Result[R], iter *Iterator) (overflow bool, err error) {
	return descend(w.Tree, w.TopLeaves, w.BoxSize, lv, startNode, target, q.Pos, iter, func(node *spatial.Node) {
		for i := 0; i < node.Noccupied; i++ {
			idx := node.Suns[i]
			p, ok := w.acceptCandidate(idx, iter.Mask)
			if !ok {
				continue
			}
			accept, dist, r2 := exactDistance(q.Pos, p.Pos, w.threshold(iter, p), w.BoxSize)
			if !accept {
				continue
			}
			iter.Other = idx
			iter.Dist = dist
			iter.R2 = r2
			iter.R = math.Sqrt(r2)
			w.Kernel.NgbIter(q, res, iter, lv)
			lv.Interactions++
		}
	})
}
