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
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/kraklabs/treewalk/pkg/transport"
)

// Exchange protocol tags (spec.md §6): distinct tags let a sparse
// all-to-all-v for queries and one for results run without colliding.
const (
	TagQueries = 101922
	TagResults = 101923
)

// ExportGroup is one task's slice of the local export table (spec.md §4.6
// step 1, "scanning every thread's export slice in order") together with
// the already-Fill()ed queries built from it, index-aligned.
type ExportGroup[Q any] struct {
	Task    int
	Entries []Entry
	Queries []Query[Q]
}

// CollectEntries concatenates every thread's valid (non-capacity) export
// entries in thread order — the canonical ordering invariant 1 and
// invariant 2 of spec.md §3/§5 both depend on.
func CollectEntries(states []*LocalState) []Entry {
	var out []Entry
	for _, lv := range states {
		out = append(out, lv.Table.Slice(lv.Offset, lv.Nexport)...)
	}
	return out
}

// GroupByTask buckets entries by destination task, preserving each task's
// internal relative order, and fills a Query for every entry via Kernel.Fill
// (spec.md §4.6 step 3).
func GroupByTask[Q any, R any](run *Run[Q, R], entries []Entry) []ExportGroup[Q] {
	ntask := run.Cluster.NTask()
	counts := make([]int, ntask)
	for _, e := range entries {
		counts[e.Task]++
	}
	groups := make([]ExportGroup[Q], ntask)
	for t := range groups {
		groups[t] = ExportGroup[Q]{Task: t, Entries: make([]Entry, 0, counts[t]), Queries: make([]Query[Q], 0, counts[t])}
	}
	for _, e := range entries {
		var q Query[Q]
		q.Pos = run.Particles.Get(e.Index).Pos
		q.NodeList = e.NodeList
		run.Kernel.Fill(e.Index, &q, run)
		g := &groups[e.Task]
		g.Entries = append(g.Entries, e)
		g.Queries = append(g.Queries, q)
	}
	return groups
}

func marshal[T any](v T) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, fmt.Errorf("treewalk: marshal exchange payload: %w", err)
	}
	return buf.Bytes(), nil
}

func unmarshal[T any](data []byte) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return v, fmt.Errorf("treewalk: unmarshal exchange payload: %w", err)
	}
	return v, nil
}

// PostQueries marshals each task's query group and posts the sparse
// non-blocking all-to-all-v (spec.md §4.6 step 4: receives are posted
// before sends inside the Cluster implementation).
func PostQueries[Q any](cluster transport.Cluster, groups []ExportGroup[Q]) (transport.Exchange, error) {
	send := make([][]byte, len(groups))
	for t, g := range groups {
		if len(g.Queries) == 0 {
			continue
		}
		b, err := marshal(g.Queries)
		if err != nil {
			return nil, err
		}
		send[t] = b
	}
	return cluster.PostSparseAllToAllV(TagQueries, send), nil
}

// ImportedQueries is the result of waiting on a posted query exchange:
// Queries is the flat Nimport-sized array (concatenated in peer-rank
// order, spec.md §4.6 step 3's Export_offset analogue on the import side),
// and PerPeerCount records how many came from each peer so the matching
// result exchange can be split back the same way.
type ImportedQueries[Q any] struct {
	Queries      []Query[Q]
	PerPeerCount []int
}

// WaitQueries blocks on handle and decodes each peer's payload.
func WaitQueries[Q any](handle transport.Exchange) (ImportedQueries[Q], error) {
	recv := handle.Wait()
	out := ImportedQueries[Q]{PerPeerCount: make([]int, len(recv))}
	for j, payload := range recv {
		qs, err := unmarshal[[]Query[Q]](payload)
		if err != nil {
			return out, err
		}
		out.PerPeerCount[j] = len(qs)
		out.Queries = append(out.Queries, qs...)
	}
	return out, nil
}

// SplitResultsByPeer slices a flat Nimport-sized result array back into
// per-peer chunks using the counts WaitQueries recorded, so PostResults can
// send each peer exactly what it asked for, in the order it asked.
func SplitResultsByPeer[R any](results []Result[R], perPeerCount []int) [][]Result[R] {
	out := make([][]Result[R], len(perPeerCount))
	offset := 0
	for j, n := range perPeerCount {
		out[j] = results[offset : offset+n]
		offset += n
	}
	return out
}

// PostResults sends each peer's slice of results back (spec.md §4.6
// "Result exchange is the mirror"): the importer becomes the sender now,
// the original exporter becomes the receiver.
func PostResults[R any](cluster transport.Cluster, perPeer [][]Result[R]) (transport.Exchange, error) {
	send := make([][]byte, len(perPeer))
	for j, rs := range perPeer {
		if len(rs) == 0 {
			continue
		}
		b, err := marshal(rs)
		if err != nil {
			return nil, err
		}
		send[j] = b
	}
	return cluster.PostSparseAllToAllV(TagResults, send), nil
}

// WaitResults blocks on handle and decodes, per task, the results that task
// sent back. The caller zips groups[t].Entries with the returned slice[t]
// to call Reduce — "send-side offsets index result receipts", spec.md §9:
// the grouping this process used to send queries to task t is exactly the
// grouping that indexes the results task t hands back.
func WaitResults[R any](handle transport.Exchange) ([][]Result[R], error) {
	recv := handle.Wait()
	out := make([][]Result[R], len(recv))
	for t, payload := range recv {
		rs, err := unmarshal[[]Result[R]](payload)
		if err != nil {
			return nil, err
		}
		out[t] = rs
	}
	return out, nil
}
