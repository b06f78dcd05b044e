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
// Package errs defines the error taxonomy of spec.md §7: FatalConfig and
// FatalInvariant abort the job, Overflow is the one recoverable condition.
// Each kind is a sentinel wrapped with context via fmt.Errorf("...: %w", ...)
// at the call site, the way the corpus's internal/errors package is used
// from cmd/cie/*.go.
package errs

import (
	"errors"
	"fmt"
)

// Sentinels for errors.Is. Wrap these, never return them bare, so a
// diagnostic always carries the offending value.
var (
	// ErrConfig marks a FatalConfig condition: unaligned record sizes,
	// insufficient arena for >=100 exports, NodeListLength != 2, missing tree.
	ErrConfig = errors.New("treewalk: fatal configuration error")

	// ErrInvariant marks a FatalInvariant condition: export from GHOSTS mode,
	// pseudo-node in a GHOSTS walk, tree/iter mask mismatch, symmetric walk
	// without hmax, ID mismatch on reduce (debug), MAXITER exceeded.
	ErrInvariant = errors.New("treewalk: fatal invariant violation")

	// ErrOverflow is the one recoverable condition: a thread's export slice
	// filled mid-walk. The orchestrator retries after exchange+reduce of the
	// work already done; it is never returned to the caller of Run.
	ErrOverflow = errors.New("treewalk: export buffer overflow")

	// ErrConvergence marks an outer SmoothingLengthLoop that failed to
	// converge within MaxIter — a FatalInvariant per spec.md §7.
	ErrConvergence = errors.New("treewalk: convergence exceeded MaxIter")
)

// Config formats a FatalConfig diagnostic that wraps ErrConfig.
func Config(format string, args ...any) error {
	return wrap(ErrConfig, format, args...)
}

// Invariant formats a FatalInvariant diagnostic that wraps ErrInvariant.
func Invariant(format string, args ...any) error {
	return wrap(ErrInvariant, format, args...)
}

func wrap(sentinel error, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &taggedError{sentinel: sentinel, msg: msg}
}

type taggedError struct {
	sentinel error
	msg      string
}

func (e *taggedError) Error() string { return e.msg }
func (e *taggedError) Unwrap() error { return e.sentinel }
