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
	"math"

	"github.com/kraklabs/treewalk/internal/errs"
)

// Bracket tracks the tightest two-sided bisection bracket NarrowDown has
// observed for one particle's smoothing-length search (spec.md §4.9, §4.12).
// LeftValid/RightValid start false; a bracket only closes once one trial has
// undershot target and another has overshot it.
type Bracket struct {
	Left, Right           float64
	LeftValid, RightValid bool
	Iterations            int
}

// growthClamp bounds how far one step may move the trial radius, in either
// direction (spec.md §4.12, generalising the source's "clamp growth to <=4x"
// to a symmetric [0.25, 4] band).
const (
	minGrowth = 0.25
	maxGrowth = 4.0
)

// NarrowDown proposes the next trial smoothing length for one particle given
// the neighbour count its last trial produced (spec.md §4.12). maxIter bounds
// the number of trials per particle; exceeding it is a FatalInvariant
// (ErrConvergence) the same way MAXITER is in the original.
func NarrowDown(b *Bracket, trial float64, numNgb, target, maxIter int) (next float64, done bool, err error) {
	b.Iterations++
	if b.Iterations > maxIter {
		return 0, false, fmt.Errorf("%w: %w", errs.Invariant("treewalk: smoothing length search for target neighbour count %d exceeded %d iterations", target, maxIter), errs.ErrConvergence)
	}

	if numNgb == target {
		return trial, true, nil
	}

	if numNgb < target {
		b.Left, b.LeftValid = trial, true
	} else {
		b.Right, b.RightValid = trial, true
	}

	if b.LeftValid && b.RightValid {
		// Bisection in r^3: neighbour count in a uniform medium scales with
		// volume, so splitting the bracket's volume in half converges faster
		// than splitting the radius.
		v := (cube(b.Left) + cube(b.Right)) / 2
		next = math.Cbrt(v)
		if next < b.Left {
			next = b.Left
		}
		if next > b.Right {
			next = b.Right
		}
		return next, false, nil
	}

	// One-sided: extrapolate via dN/dV, treating N as proportional to r^3.
	var growth float64
	if numNgb <= 0 {
		growth = maxGrowth
	} else {
		growth = math.Cbrt(float64(target) / float64(numNgb))
	}
	if growth > maxGrowth {
		growth = maxGrowth
	}
	if growth < minGrowth {
		growth = minGrowth
	}
	return trial * growth, false, nil
}

func cube(x float64) float64 { return x * x * x }
