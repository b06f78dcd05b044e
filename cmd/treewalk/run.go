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
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/schollz/progressbar/v3"

	"github.com/kraklabs/treewalk/internal/ui"
	"github.com/kraklabs/treewalk/pkg/transport"
	"github.com/kraklabs/treewalk/pkg/walk"
)

// clusterRank bundles one simulated rank's engine, kernel and particle data
// so the parameter watcher can reach into a live demo run.
type clusterRank struct {
	rank    int
	run     *walk.Run[densityPayload, densityResult]
	kernel  *densityKernel
	active  []int
	metrics *walk.MetricsRegistry
}

// runDemo builds an NTask-rank localcluster (SPEC_FULL.md §5 "Demo cluster
// topology"), seeds each rank with its own slice of synthetic particles, and
// drives SmoothingLengthLoop to convergence on every rank concurrently,
// rendering a progressbar the way cmd/cie/index.go reports pipeline phases.
func runDemo(cfg *DemoConfig, paramFile string, quiet bool) (*DemoResult, error) {
	fabric := transport.NewLocalFabric(cfg.NTask)
	ranks := make([]*clusterRank, cfg.NTask)

	nPerRank := cfg.NParticles / cfg.NTask
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	for t := 0; t < cfg.NTask; t++ {
		particles := newDemoParticles(nPerRank, cfg.BoxSize, int64(t+1))
		tree := newDemoTree(nPerRank, cfg.NTask, t, cfg.BoxSize)
		kernel := newDensityKernel(particles, cfg.TargetNeighbours)
		cluster := transport.Rank(fabric, t)

		walkCfg := walk.Config{
			NThreads:              cfg.NThreads,
			ImportBufferBoost:     cfg.ImportBufferBoost,
			MaxIter:               cfg.MaxIter,
			BoxSize:               cfg.BoxSize,
			QueryElemSize:         32,
			ResultElemSize:        8,
			HeadroomConstBytes:    walk.DefaultHeadroomConstBytes,
			ArenaBytes:            cfg.ArenaMiB << 20,
			ScratchBytesPerThread: cfg.ScratchKiBThread << 10,
		}

		run, err := walk.New[densityPayload, densityResult](tree, particles, cluster, kernel, walkCfg, logger.With("rank", t))
		if err != nil {
			return nil, fmt.Errorf("treewalk: rank %d: %w", t, err)
		}

		active := make([]int, nPerRank)
		for i := range active {
			active[i] = i
		}

		ranks[t] = &clusterRank{
			rank: t, run: run, kernel: kernel, active: active,
			metrics: walk.NewMetricsRegistry(fmt.Sprintf("treewalk_rank%d", t)),
		}
	}

	stop := make(chan struct{})
	if paramFile != "" {
		go watchImportBufferBoost(paramFile, ranks, stop)
		defer close(stop)
	}

	var bar *progressbar.ProgressBar
	if !quiet {
		bar = progressbar.NewOptions(cfg.NTask,
			progressbar.OptionSetDescription("converging smoothing lengths"),
			progressbar.OptionShowCount(),
		)
	}

	var wg sync.WaitGroup
	errs := make([]error, cfg.NTask)
	start := time.Now()
	for t, r := range ranks {
		wg.Add(1)
		go func(t int, r *clusterRank) {
			defer wg.Done()
			errs[t] = walk.SmoothingLengthLoop[densityPayload, densityResult](r.run, r.kernel, r.active)
			if bar != nil {
				_ = bar.Add(1)
			}
		}(t, r)
	}
	wg.Wait()
	elapsed := time.Since(start)

	for t, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("treewalk: rank %d: %w", t, err)
		}
	}

	result := &DemoResult{Elapsed: elapsed}
	for _, r := range ranks {
		result.Niteration += r.run.Stats.Niteration
		result.Ninteractions += r.run.Stats.Ninteractions
		result.NexportSum += r.run.Stats.NexportSum
		result.OverflowRetries += r.run.Stats.OverflowRetries
		r.metrics.Observe(r.run.Stats)
		result.Gatherers = append(result.Gatherers, r.metrics.Registry)
	}
	return result, nil
}

// DemoResult summarises one cluster demo run for the run and serve commands.
// Gatherers holds every rank's private prometheus.Registry (each
// MetricsRegistry owns its own so per-rank collectors with the same names
// don't collide) — serve.go fans a single /metrics scrape out across all of
// them via prometheus.Gatherers.
type DemoResult struct {
	Elapsed         time.Duration
	Niteration      int64
	Ninteractions   int64
	NexportSum      int64
	OverflowRetries int64
	Gatherers       prometheus.Gatherers
}

func printDemoResult(r *DemoResult) {
	ui.Header("Treewalk demo run complete")
	fmt.Printf("%s  %s\n", ui.Label("Elapsed:"), r.Elapsed)
	fmt.Printf("%s    %s\n", ui.Label("Iterations:"), ui.CountText(r.Niteration))
	fmt.Printf("%s %s\n", ui.Label("Interactions:"), ui.CountText(r.Ninteractions))
	fmt.Printf("%s   %s\n", ui.Label("Exports:"), ui.CountText(r.NexportSum))
	fmt.Printf("%s  %s\n", ui.Label("Overflows:"), ui.CountText(r.OverflowRetries))
}
