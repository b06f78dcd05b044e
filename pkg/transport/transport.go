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
// Package transport defines the messaging substrate the engine treats as an
// external collaborator (spec.md §1): collective barriers, non-blocking
// point-to-point send/receive and sparse all-to-all-v, and all-reduce. The
// engine (pkg/walk) only ever depends on the Cluster interface; this
// package also ships localcluster, a goroutine stand-in built on a
// mutex/condition-variable rendezvous, good enough
// to drive the full collective protocol of spec.md §6 within one OS
// process, for tests and the CLI demo.
package transport

// Exchange is the handle returned by a posted sparse all-to-all-v. Posting
// receives before sends (spec.md §4.6 step 4) is the caller's job; Wait
// blocks until this rank's receives have completed and returns, for each
// peer task in rank order, the bytes received from it (nil if Import_count
// for that peer was zero).
type Exchange interface {
	Wait() [][]byte
}

// Cluster is the SPMD messaging substrate. One Cluster value is bound to
// exactly one simulated rank; NTask() is the same on every rank in a run.
type Cluster interface {
	// Rank returns this process's rank in [0, NTask).
	Rank() int
	// NTask returns the total number of ranks.
	NTask() int
	// Barrier blocks until every rank has called Barrier.
	Barrier()
	// AllToAll exchanges one int per peer: send[j] is what this rank tells
	// peer j; the result's [j] is what peer j told this rank. Used for the
	// Export_count/Import_count exchange of spec.md §4.6 step 2.
	AllToAll(send []int) []int
	// AllReduceSum sums v across every rank and returns the total on every
	// rank — used for the Ndone check of spec.md §4.8.
	AllReduceSum(v int64) int64
	// PostSparseAllToAllV posts a non-blocking sparse exchange tagged tag:
	// send[j] is the payload for peer j (nil/empty means nothing to send to
	// j, and must be paired with a zero Import_count so the peer does not
	// wait on it — "sparse" per spec.md §6). Callers may do other work
	// between posting and calling Wait; whether the post itself returns
	// before the exchange completes depends on the implementation.
	PostSparseAllToAllV(tag int, send [][]byte) Exchange
}
