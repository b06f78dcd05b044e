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
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kraklabs/treewalk/internal/ui"
)

const paramWatchDebounce = 500 * time.Millisecond

// watchImportBufferBoost follows the teacher's debounced fsnotify loop
// (cmd/cie/watch.go's runWatchAndReindex), but watches a single scalar
// parameter file instead of a whole repository tree (SPEC_FULL.md §4.10
// ParamWatcher): whenever path changes, its integer contents are
// atomically swapped into every rank's live ImportBufferBoost.
func watchImportBufferBoost(path string, ranks []*clusterRank, stop <-chan struct{}) {
	if path == "" {
		return
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		ui.Warningf("param watch: fsnotify unavailable: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		ui.Warningf("param watch: cannot watch %s: %v", path, err)
		return
	}

	var debounceTimer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-stop:
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(paramWatchDebounce)
			timerCh = debounceTimer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			ui.Warningf("param watch: %v", err)
		case <-timerCh:
			timerCh = nil
			boost, err := readImportBufferBoost(path)
			if err != nil {
				ui.Warningf("param watch: %v", err)
				continue
			}
			for _, r := range ranks {
				r.run.SetImportBufferBoost(boost)
			}
		}
	}
}

func readImportBufferBoost(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	v, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return v, nil
}
