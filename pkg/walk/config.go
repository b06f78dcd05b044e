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
	"sync/atomic"

	"github.com/kraklabs/treewalk/internal/errs"
)

// Config holds the tunables of spec.md §6: the configuration surface
// (ImportBufferBoost, MaxIter) plus the sizes the engine refuses to start
// without (query/result element sizes, used only for the alignment check
// and the BunchSize headroom calculation — Go structs are self-aligning,
// so QueryElemSize/ResultElemSize are advisory bookkeeping here rather than
// a manual packing requirement).
type Config struct {
	// NThreads is the shared-memory worker-pool width for this process.
	NThreads int

	// ImportBufferBoost trades memory for imbalance tolerance; set once at
	// program init and broadcast from rank 0 (spec.md §6). A running
	// ParamWatcher updates this field with atomic.StoreInt64 between outer
	// iterations; Execute always reads it with atomic.LoadInt64 (see
	// SetImportBufferBoost below), so config reload never races ev_begin.
	ImportBufferBoost int64

	// MaxIter caps the outer SmoothingLengthLoop (spec.md §4.9, §7).
	MaxIter int

	// BoxSize is the periodic box length L; 0 disables periodic wrap.
	BoxSize float64

	// QueryElemSize and ResultElemSize are the caller's declared record
	// sizes, in bytes, for the alignment check and BunchSize headroom.
	QueryElemSize  int64
	ResultElemSize int64

	// HeadroomConstBytes is the per-entry constant headroom reserved for
	// imports (spec.md §4.3 default: 40KiB).
	HeadroomConstBytes int64

	// ArenaBytes is the memory ev_begin has available to size the shared
	// DataIndexTable from (spec.md §4.3 "Sizing" takes FreeArena as an
	// input; this engine has no single process-wide bump allocator the way
	// the tree build does, so the caller declares the budget explicitly).
	ArenaBytes int64

	// ScratchBytesPerThread sizes each LocalState's private bump arena
	// (spec.md §9 "Scoped stack scratch for per-call query/result records").
	ScratchBytesPerThread int64
}

// DefaultHeadroomConstBytes is spec.md §4.3's "40 KiB per entry" default.
const DefaultHeadroomConstBytes = 40 * 1024

// Validate enforces spec.md §6's alignment requirement and §3 invariant 3.
func (c Config) Validate() error {
	if c.QueryElemSize%8 != 0 {
		return errs.Config("query record size %d is not a multiple of 8", c.QueryElemSize)
	}
	if c.ResultElemSize%8 != 0 {
		return errs.Config("result record size %d is not a multiple of 8", c.ResultElemSize)
	}
	if NodeListLength != 2 {
		return errs.Config("NodeListLength must be 2, got %d", NodeListLength)
	}
	if c.NThreads < 1 {
		return errs.Config("NThreads must be >= 1, got %d", c.NThreads)
	}
	if c.ArenaBytes <= 0 {
		return errs.Config("ArenaBytes must be > 0, got %d", c.ArenaBytes)
	}
	if c.ScratchBytesPerThread <= 0 {
		return errs.Config("ScratchBytesPerThread must be > 0, got %d", c.ScratchBytesPerThread)
	}
	return nil
}

// SetImportBufferBoost atomically updates a live Run's ImportBufferBoost
// (SPEC_FULL.md §4.10 ParamWatcher); safe to call concurrently with Execute.
func (r *Run[Q, R]) SetImportBufferBoost(v int64) {
	atomic.StoreInt64(&r.Config.ImportBufferBoost, v)
}
