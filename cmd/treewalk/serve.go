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
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/treewalk/internal/ui"
)

// runServeCommand runs the demo once and then serves its final metrics
// snapshot over HTTP until interrupted, mirroring cmd/cie/serve.go's
// promhttp wiring.
func runServeCommand(args []string, configPath string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":9109", "HTTP address to serve /metrics on")
	params := fs.String("params", "", "Path to a hot-reloadable ImportBufferBoost parameter file")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := LoadDemoConfig(configPath)
	if err != nil {
		ui.Errorf("%v", err)
		return 1
	}

	result, err := runDemo(cfg, *params, false)
	if err != nil {
		ui.Errorf("%v", err)
		return 1
	}
	printDemoResult(result)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(result.Gatherers, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: *addr, Handler: mux}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	go func() {
		ui.Info(fmt.Sprintf("serving metrics on %s/metrics", *addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ui.Errorf("serve: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Shutdown(shutdownCtx)
	return 0
}
