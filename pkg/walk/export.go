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
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/kraklabs/treewalk/internal/errs"
	"github.com/kraklabs/treewalk/pkg/spatial"
)

// Entry is one export-table record: the remote task to send to, the local
// target particle, and the up to two top-level nodes that task should walk
// in ghost mode (spec.md §3).
type Entry struct {
	Task     int
	Index    int
	NodeList [NodeListLength]int32
}

// DataIndexTable is the global bounded table backing every thread's export
// slice. It is sized once per outer run (ev_begin) and released at
// ev_finish (spec.md §3 "Lifecycles"); writes are disjoint per thread so no
// locking is needed (spec.md §5).
type DataIndexTable struct {
	entries []Entry
}

// NewDataIndexTable allocates a table with room for bunchSize entries.
func NewDataIndexTable(bunchSize int) *DataIndexTable {
	return &DataIndexTable{entries: make([]Entry, bunchSize)}
}

// Len returns the table's total capacity in entries.
func (t *DataIndexTable) Len() int { return len(t.entries) }

// Slice returns the n entries starting at offset: one thread's contiguous
// window (spec.md §4.3 "Slicing"). The window bounds are chosen by the
// caller; Slice itself does no partitioning.
func (t *DataIndexTable) Slice(offset, n int) []Entry {
	return t.entries[offset : offset+n]
}

// PushResult is the outcome of an ExportBuffer.Push call.
type PushResult int

const (
	PushOK PushResult = iota
	PushCoalesced
	PushOverflow
)

// Push resolves the (task, remote node) pair for pseudoNo via topLeaves and
// appends or coalesces an export entry into lv's thread-local slice
// (spec.md §4.3). Calling Push while lv.Mode == Ghosts is a programmer
// error — imported queries never re-export (invariant 4).
func Push(lv *LocalState, target int, topLeaves []spatial.TopLeaf, pseudoNo int) (PushResult, error) {
	if lv.Mode == Ghosts {
		return PushOverflow, errs.Invariant("treewalk: export attempted from Ghosts mode")
	}

	leaf := topLeaves[pseudoNo]
	task := leaf.OwnerTask
	key := exportKey(task, target)

	if lv.Nexport > 0 && lv.haveCoalesceKey && lv.lastCoalesceKey == key {
		prev := &lv.Table.entries[lv.Offset+lv.Nexport-1]
		if prev.Task == task && prev.Index == target && prev.NodeList[1] == -1 {
			prev.NodeList[1] = int32(leaf.LocalNode)
			return PushCoalesced, nil
		}
	}

	if lv.Nexport >= lv.Capacity {
		return PushOverflow, nil
	}

	lv.Table.entries[lv.Offset+lv.Nexport] = Entry{
		Task:     task,
		Index:    target,
		NodeList: [NodeListLength]int32{int32(leaf.LocalNode), -1},
	}
	lv.Nexport++
	lv.NThisParticleExport++
	lv.lastCoalesceKey = key
	lv.haveCoalesceKey = true
	return PushOK, nil
}

// exportKey fingerprints a (task, target) export key with xxhash so Push's
// coalescing check can short-circuit on a single uint64 compare before
// falling back to the exact field-by-field match — the hash never replaces
// that comparison, only gates it, so a collision can cost a missed coalesce
// but never a wrong one.
func exportKey(task, target int) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], uint64(task))
	binary.LittleEndian.PutUint64(buf[8:16], uint64(target))
	return xxhash.Sum64(buf[:])
}

// RollbackCurrentTarget undoes the partial export of the target currently
// in flight on lv after an overflow break (spec.md §4.5 step 2): the last
// NThisParticleExport entries in lv's slice are forgotten. Only *complete*
// export lists are ever honoured; partial ones are always rolled back
// before the table is read by Exchange.
func (lv *LocalState) RollbackCurrentTarget() {
	lv.Nexport -= lv.NThisParticleExport
	lv.NThisParticleExport = 0
	lv.haveCoalesceKey = false
}

// BunchSizeParams are the inputs to SizeBunch (spec.md §4.3 "Sizing").
type BunchSizeParams struct {
	FreeArena          int64
	ImportBufferBoost  int64
	QueryElemSize      int64
	ResultElemSize     int64
	HeadroomConstBytes int64 // 40KiB per entry in spec.md; overridable for tests
}

const maxBunchBytes = 3 << 30 // ~3GiB; some messaging implementations misbehave near 4GiB

// SizeBunch computes BunchSize: floor(FreeArena/(sizeofEntry +
// ImportBufferBoost*(QueryElemSize+ResultElemSize) + HeadroomConstBytes)),
// clamped so BunchSize*QueryElemSize <= ~3GiB. Returns a FatalConfig error
// if the result would be below 100 entries (spec.md §4.3, §7).
func SizeBunch(p BunchSizeParams) (int, error) {
	headroomPerEntry := p.ImportBufferBoost*(p.QueryElemSize+p.ResultElemSize) + p.HeadroomConstBytes
	bytesPerEntry := int64(sizeofEntry) + headroomPerEntry
	if bytesPerEntry <= 0 {
		return 0, errs.Config("treewalk: non-positive per-entry export cost")
	}

	available := p.FreeArena
	if available <= 0 {
		return 0, errs.Config("treewalk: no free arena for export table")
	}

	bunch := available / bytesPerEntry
	if p.QueryElemSize > 0 {
		if cap := maxBunchBytes / p.QueryElemSize; cap < bunch {
			bunch = cap
		}
	}
	if bunch < 100 {
		return 0, errs.Config("treewalk: export table sizing below 100 entries (got %d)", bunch)
	}
	return int(bunch), nil
}

// sizeofEntry approximates the wire cost of one Entry: an int task, an int
// index, and NodeListLength int32 slots.
const sizeofEntry = 8 + 8 + NodeListLength*4
