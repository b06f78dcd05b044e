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
	"sync"

	"github.com/kraklabs/treewalk/pkg/walk"
)

// densityPayload is the kernel-specific query payload: the querying
// particle's current trial smoothing length, carried by value so a Ghosts
// walk on a remote rank (which has no entry for the originating particle in
// its own particle table) can still initialise iter.Hsml correctly.
type densityPayload struct {
	Hsml float64
}

// densityResult accumulates one particle's neighbour count for one walk.
type densityResult struct {
	Count int
}

// densityKernel implements walk.Kernel plus walk.SmoothingKernel: a minimal
// stand-in for MP-Gadget's density.c, counting neighbours within a trial
// smoothing length and driving that length toward TargetNeighbours via
// NarrowDown (SPEC_FULL.md §4.9, §4.12).
type densityKernel struct {
	particles *demoParticles
	target    int

	mu    sync.Mutex
	hsml  []float64
	count []int
}

func newDensityKernel(p *demoParticles, target int) *densityKernel {
	hsml := make([]float64, p.Len())
	for i := range hsml {
		hsml[i] = p.Get(i).Hsml
	}
	return &densityKernel{
		particles: p,
		target:    target,
		hsml:      hsml,
		count:     make([]int, p.Len()),
	}
}

func (k *densityKernel) Fill(target int, q *walk.Query[densityPayload], run *walk.Run[densityPayload, densityResult]) {
	k.mu.Lock()
	q.Payload.Hsml = k.hsml[target]
	k.mu.Unlock()
}

func (k *densityKernel) Reduce(target int, res *walk.Result[densityResult], mode walk.Mode, run *walk.Run[densityPayload, densityResult]) {
	k.mu.Lock()
	k.count[target] += res.Payload.Count
	k.mu.Unlock()
}

func (k *densityKernel) NgbIter(q *walk.Query[densityPayload], res *walk.Result[densityResult], iter *walk.Iterator, lv *walk.LocalState) {
	if iter.Other == -1 {
		iter.Hsml = q.Payload.Hsml
		iter.Mask = 1
		iter.Symmetric = false
		return
	}
	res.Payload.Count++
}

func (k *densityKernel) TrialHsml(i int) float64 {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.hsml[i]
}

func (k *densityKernel) NeighbourCount(i int, run *walk.Run[densityPayload, densityResult]) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	n := k.count[i]
	k.count[i] = 0
	return n
}

func (k *densityKernel) SetTrialHsml(i int, hsml float64) {
	k.mu.Lock()
	k.hsml[i] = hsml
	k.particles.SetHsml(i, hsml)
	k.mu.Unlock()
}

func (k *densityKernel) TargetNeighbours() int { return k.target }
