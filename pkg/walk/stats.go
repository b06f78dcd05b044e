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

import "time"

// Stats is the engine statistics snapshot the Prometheus exporter (4.11)
// reads, grounded in the original's global Ninteractions/Nexport_sum
// counters (spec.md §5) that the distilled spec names but never types.
type Stats struct {
	Niteration int64

	Ninteractions   int64
	MinInteractions int64
	MaxInteractions int64
	NexportSum      int64
	OverflowRetries int64

	PreprocessTime  time.Duration
	TopTreeTime     time.Duration
	PrimaryTime     time.Duration
	ExchangeTime    time.Duration
	SecondaryTime   time.Duration
	ReduceTime      time.Duration
	PostprocessTime time.Duration
}

// mergeThread folds one thread's LocalState counters into the stats. The
// min/max comparison intentionally mirrors an ambiguity in the system this
// engine is modeled on (see DESIGN.md): the primary-phase merge path
// compares the running minimum against the *thread's peak per-target
// interaction count* (lv.MaxInteractions, updated in RunPrimary), not its
// total. Left as-is pending upstream clarification (spec.md §9);
// quirkyMinMerge is only passed true for the primary-phase merge, since
// that is the only phase where lv.MaxInteractions is populated.
func (s *Stats) mergeThread(lv *LocalState, quirkyMinMerge bool) {
	s.Ninteractions += lv.Interactions
	if lv.Interactions > s.MaxInteractions {
		s.MaxInteractions = lv.Interactions
	}
	if quirkyMinMerge {
		if s.MinInteractions == 0 || lv.MaxInteractions < s.MinInteractions {
			s.MinInteractions = lv.MaxInteractions
		}
		return
	}
	if s.MinInteractions == 0 || lv.Interactions < s.MinInteractions {
		s.MinInteractions = lv.Interactions
	}
}
