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
	"log/slog"

	"github.com/kraklabs/treewalk/internal/errs"
	"github.com/kraklabs/treewalk/pkg/spatial"
	"github.com/kraklabs/treewalk/pkg/transport"
)

// Run is the single engine object whose lifetime spans ev_begin..ev_finish
// (spec.md §9 "Global mutable state"): it owns the tree/particle
// collaborators, the cluster handle, the kernel, the config, and the
// running Stats. One Run is built per logical treewalk kind (e.g. one for
// density, one for hydro force) and reused across outer iterations.
type Run[Q any, R any] struct {
	Tree      spatial.Tree
	Particles spatial.ParticleTable
	Cluster   transport.Cluster
	Kernel    Kernel[Q, R]
	Config    Config
	Stats     Stats
	Logger    *slog.Logger

	table *DataIndexTable
}

// New builds a Run after validating the config (spec.md §6 alignment
// check, §7 FatalConfig).
func New[Q any, R any](tree spatial.Tree, particles spatial.ParticleTable, cluster transport.Cluster, kernel Kernel[Q, R], cfg Config, logger *slog.Logger) (*Run[Q, R], error) {
	if tree == nil {
		return nil, errs.Config("treewalk: missing tree")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Run[Q, R]{
		Tree:      tree,
		Particles: particles,
		Cluster:   cluster,
		Kernel:    kernel,
		Config:    cfg,
		Logger:    logger,
	}, nil
}
