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

	"github.com/kraklabs/treewalk/pkg/spatial"
)

// Keep implements the node culler (spec.md §4.1): decide whether node's
// bounding region can possibly contain a neighbour of a query at pos with
// the given smoothing length. It is branch-predictable and side-effect-free
// by construction — no allocation, no map lookups, a fixed number of
// comparisons regardless of outcome.
func Keep(pos spatial.Vec3, hsml float64, symmetric bool, node *spatial.Node, boxSize float64) bool {
	var d float64
	if symmetric {
		d = math.Max(node.Hmax, hsml) + node.Len/2
	} else {
		d = hsml + node.Len/2
	}

	var r2 float64
	for k := 0; k < 3; k++ {
		delta := spatial.NearestImage(node.Centre[k]-pos[k], boxSize)
		if math.Abs(delta) > d {
			return false
		}
		r2 += delta * delta
	}

	d += spatial.FACT1 * node.Len
	return r2 <= d*d
}

// exactDistance computes the exact periodic squared distance between pos
// and other, short-circuiting on the first axis that exceeds threshold.
// threshold is iter.Hsml for a non-symmetric query, or max(iter.Hsml,
// neighbourHsml) for a symmetric one (spec.md §4.2, §8 S6).
func exactDistance(pos, other spatial.Vec3, threshold, boxSize float64) (accept bool, dist spatial.Vec3, r2 float64) {
	for k := 0; k < 3; k++ {
		delta := spatial.NearestImage(other[k]-pos[k], boxSize)
		if math.Abs(delta) > threshold {
			return false, dist, 0
		}
		dist[k] = delta
		r2 += delta * delta
	}
	if r2 > threshold*threshold {
		return false, dist, 0
	}
	return true, dist, r2
}
