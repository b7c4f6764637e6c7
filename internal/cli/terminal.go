// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const (
	// fallbackWidth is used when stdout is not a terminal
	fallbackWidth = 80

	// MaxAnswerWidth caps the width answers are wrapped to
	MaxAnswerWidth = 80
)

// Terminal describes where howto's output goes. Answers are written to
// stdout, the progress spinner to stderr.
type Terminal struct {
	Markdown bool // stdout is a terminal; answers are rendered with glamour
	Spinner  bool // stderr is a terminal; progress can be drawn there
	Width    int  // stdout columns
}

// DetectTerminal inspects stdout and stderr of the current process.
func DetectTerminal() Terminal {
	t := Terminal{
		Markdown: term.IsTerminal(int(os.Stdout.Fd())),
		Spinner:  term.IsTerminal(int(os.Stderr.Fd())),
		Width:    fallbackWidth,
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		t.Width = w
	}
	return t
}

// AnswerWrapWidth returns the glamour word-wrap width for a terminal width:
// min(width, 80) - 2, which leaves room for the two-space answer indent.
func AnswerWrapWidth(width int) int {
	width = min(max(width, 12), MaxAnswerWidth)
	return width - 2
}

// colorProfile picks the lipgloss profile for the cost line and messages.
// NO_COLOR wins over FORCE_COLOR; otherwise colors follow stdout.
// See https://no-color.org/.
func colorProfile(getenv func(string) string, stdoutTTY bool) termenv.Profile {
	switch {
	case getenv("NO_COLOR") != "":
		return termenv.Ascii
	case getenv("FORCE_COLOR") != "", stdoutTTY:
		return termenv.ColorProfile()
	}
	return termenv.Ascii
}
