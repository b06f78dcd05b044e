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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/treewalk/internal/ui"
)

// runStatusCommand prints the resolved demo topology without running
// anything, mirroring cmd/cie/status.go's colored summary layout.
func runStatusCommand(args []string, configPath string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := LoadDemoConfig(configPath)
	if err != nil {
		ui.Errorf("%v", err)
		return 1
	}

	ui.Header("Treewalk Cluster Topology")
	fmt.Printf("%s           %s\n", ui.Label("Ranks:"), ui.CountText(int64(cfg.NTask)))
	fmt.Printf("%s  %s\n", ui.Label("Threads/rank:"), ui.CountText(int64(cfg.NThreads)))
	fmt.Printf("%s       %s\n", ui.Label("Particles:"), ui.CountText(int64(cfg.NParticles)))
	fmt.Printf("%s  %s\n", ui.Label("Target neighbours:"), ui.CountText(int64(cfg.TargetNeighbours)))
	fmt.Printf("%s         %s\n", ui.Label("Max iter:"), ui.CountText(int64(cfg.MaxIter)))
	fmt.Printf("%s %s\n", ui.Label("Import buffer boost:"), ui.CountText(cfg.ImportBufferBoost))

	if cfg.NTask < 2 {
		ui.Warning("ntask=1: the exchange path is exercised trivially (no peers to export to).")
	}
	return 0
}
