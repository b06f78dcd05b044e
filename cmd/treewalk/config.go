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
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigDir  = ".treewalk"
	defaultConfigFile = "demo.yaml"
	configVersion     = "1"
)

// DemoConfig is the on-disk configuration for the cluster demo (SPEC_FULL.md
// Configuration: a YAML file holding the engine tunables plus the cluster
// topology the demo harness needs that a real Run's Config does not own).
type DemoConfig struct {
	Version string `yaml:"version"`

	NTask             int     `yaml:"ntask"`
	NThreads          int     `yaml:"nthreads"`
	NParticles        int     `yaml:"nparticles"`
	BoxSize           float64 `yaml:"box_size"`
	TargetNeighbours  int     `yaml:"target_neighbours"`
	MaxIter           int     `yaml:"max_iter"`
	ImportBufferBoost int64   `yaml:"import_buffer_boost"`
	ArenaMiB          int64   `yaml:"arena_mib"`
	ScratchKiBThread  int64   `yaml:"scratch_kib_per_thread"`
	MetricsAddr       string  `yaml:"metrics_addr,omitempty"`
}

// DefaultDemoConfig returns sensible defaults for a laptop-scale run.
func DefaultDemoConfig() *DemoConfig {
	return &DemoConfig{
		Version:           configVersion,
		NTask:             4,
		NThreads:          4,
		NParticles:        20000,
		BoxSize:           0, // non-periodic by default
		TargetNeighbours:  32,
		MaxIter:           20,
		ImportBufferBoost: 2,
		ArenaMiB:          64,
		ScratchKiBThread:  256,
	}
}

// LoadDemoConfig reads path (the default config file when path is empty),
// and returns DefaultDemoConfig when that file does not exist.
func LoadDemoConfig(path string) (*DemoConfig, error) {
	if path == "" {
		path = defaultConfigDir + "/" + defaultConfigFile
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultDemoConfig(), nil
		}
		return nil, fmt.Errorf("treewalk: read config %s: %w", path, err)
	}
	cfg := DefaultDemoConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("treewalk: parse config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveDemoConfig writes cfg to path as YAML, creating parent directories.
func SaveDemoConfig(cfg *DemoConfig, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("treewalk: encode config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("treewalk: create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("treewalk: write config %s: %w", path, err)
	}
	return nil
}
