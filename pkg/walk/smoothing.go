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
	"fmt"

	"github.com/kraklabs/treewalk/internal/errs"
)

// SmoothingKernel is the Kernel capability the outer SmoothingLengthLoop
// needs on top of the base Kernel interface: after one Execute pass, report
// each active particle's trial hsml and the neighbour count it produced, and
// accept the next trial hsml NarrowDown proposes (spec.md §4.9).
type SmoothingKernel[Q any, R any] interface {
	Kernel[Q, R]
	TrialHsml(i int) float64
	NeighbourCount(i int, run *Run[Q, R]) int
	SetTrialHsml(i int, hsml float64)
	TargetNeighbours() int
}

// SmoothingLengthLoop drives Execute repeatedly over a shrinking redo list
// until every particle's neighbour count matches TargetNeighbours (spec.md
// §4.9): particles that converge drop out of the redo list; the ones left
// get a new trial hsml from NarrowDown and go around again. MaxIter bounds
// the number of outer passes; exceeding it without an empty redo list is a
// FatalInvariant (ErrConvergence).
func SmoothingLengthLoop[Q any, R any](run *Run[Q, R], kernel SmoothingKernel[Q, R], active []int) error {
	brackets := make(map[int]*Bracket, len(active))
	walked := active
	target := kernel.TargetNeighbours()

	// Execute is a collective operation (every rank's inner loop calls
	// Cluster.AllReduceSum the same number of times), so every rank must
	// keep calling it in lockstep here even once its own redo list is
	// empty — only the cluster-wide total decides when to stop.
	for iter := 0; ; iter++ {
		if iter >= run.Config.MaxIter {
			return fmt.Errorf("%w: %w", errs.Invariant("treewalk: smoothing length loop did not converge within %d iterations (%d particles outstanding)", run.Config.MaxIter, len(walked)), errs.ErrConvergence)
		}

		if err := Execute[Q, R](run, walked); err != nil {
			return err
		}

		redo, err := nextRedo(run, kernel, brackets, walked, target)
		if err != nil {
			return err
		}
		walked = redo

		if run.Cluster.AllReduceSum(int64(len(walked))) == 0 {
			break
		}
	}
	return nil
}

// nextRedo evaluates every particle just walked and returns the ones that
// have not converged yet, each with a fresh trial hsml applied via
// kernel.SetTrialHsml (spec.md §4.12's NarrowDown drives the proposal).
func nextRedo[Q any, R any](run *Run[Q, R], kernel SmoothingKernel[Q, R], brackets map[int]*Bracket, walked []int, target int) ([]int, error) {
	out := walked[:0]
	for _, i := range walked {
		n := kernel.NeighbourCount(i, run)
		b, ok := brackets[i]
		if !ok {
			b = &Bracket{}
			brackets[i] = b
		}
		next, done, err := NarrowDown(b, kernel.TrialHsml(i), n, target, run.Config.MaxIter)
		if err != nil {
			return nil, err
		}
		if done {
			delete(brackets, i)
			continue
		}
		kernel.SetTrialHsml(i, next)
		out = append(out, i)
	}
	return out, nil
}
