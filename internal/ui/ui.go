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
// Package ui provides the small set of colored terminal helpers the CLI uses
// for human-facing output, following the corpus convention of keeping color
// decisions (tty detection, NO_COLOR) in one place rather than scattered
// through command code.
package ui

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	subHeadColor = color.New(color.FgCyan)
	labelColor   = color.New(color.FgWhite, color.Bold)
	dimColor     = color.New(color.FgHiBlack)
	countColor   = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow, color.Bold)
	errColor     = color.New(color.FgRed, color.Bold)
)

// InitColors disables color output when explicitly requested or when stdout
// is not a terminal (NO_COLOR is honoured by the color package itself).
func InitColors(noColor bool) {
	if noColor || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// Header prints a bold section title.
func Header(s string) { headerColor.Println(s) }

// SubHeader prints a secondary section title.
func SubHeader(s string) { subHeadColor.Println(s) }

// Label renders a field label for "Label: value" output.
func Label(s string) string { return labelColor.Sprint(s) }

// DimText renders low-emphasis text, e.g. file paths.
func DimText(s string) string { return dimColor.Sprint(s) }

// CountText renders a numeric count in the success color.
func CountText(n int64) string { return countColor.Sprint(n) }

// Info prints an informational line to stdout.
func Info(s string) { fmt.Println(s) }

// Warning prints a warning line to stderr.
func Warning(s string) { fmt.Fprintln(os.Stderr, warnColor.Sprint(s)) }

// Warningf formats and prints a warning line to stderr.
func Warningf(format string, args ...any) { Warning(fmt.Sprintf(format, args...)) }

// Errorf formats and prints an error line to stderr.
func Errorf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, errColor.Sprint(fmt.Sprintf(format, args...)))
}
