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
// Package main implements the treewalk CLI: a demo driver for the
// distributed shared-memory-parallel tree-walk engine in pkg/walk, running
// an in-process localcluster stand-in for the real MPI transport.
//
// Usage:
//
//	treewalk [--config path] run [--params path] [--quiet]        Run the cluster demo to convergence
//	treewalk [--config path] status                               Show the configured topology
//	treewalk [--config path] serve [--addr host:port] [--params path]  Expose demo metrics over HTTP
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/treewalk/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to demo config YAML (default: .treewalk/demo.yaml)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
	)
	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `treewalk - distributed tree-walk engine demo

Usage:
  treewalk <command> [options]

Commands:
  run       Run the cluster demo to smoothing-length convergence
  status    Show the configured cluster topology
  serve     Expose demo metrics over HTTP (Prometheus)

Global Options:
  -c, --config      Path to demo config YAML
  --no-color        Disable color output (respects NO_COLOR env var)
  -V, --version     Show version and exit
`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("treewalk version %s (%s)\n", version, commit)
		os.Exit(0)
	}
	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}
	ui.InitColors(*noColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command, cmdArgs := args[0], args[1:]
	switch command {
	case "run":
		os.Exit(runRunCommand(cmdArgs, *configPath))
	case "status":
		os.Exit(runStatusCommand(cmdArgs, *configPath))
	case "serve":
		os.Exit(runServeCommand(cmdArgs, *configPath))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}

func runRunCommand(args []string, configPath string) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	params := fs.String("params", "", "Path to a hot-reloadable ImportBufferBoost parameter file")
	quiet := fs.Bool("quiet", false, "Suppress the progress bar")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	cfg, err := LoadDemoConfig(configPath)
	if err != nil {
		ui.Errorf("%v", err)
		return 1
	}
	if cfg.NTask < 1 || cfg.NThreads < 1 {
		ui.Errorf("treewalk: ntask and nthreads must be >= 1")
		return 1
	}

	result, err := runDemo(cfg, *params, *quiet)
	if err != nil {
		ui.Errorf("%v", err)
		return 1
	}
	printDemoResult(result)
	return 0
}
