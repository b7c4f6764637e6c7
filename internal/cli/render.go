// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer formats answers for the terminal.
type Renderer struct {
	md *glamour.TermRenderer // nil renders plain text
}

// NewRenderer creates a renderer for a terminal width. With markdown false,
// answers are printed unchanged, which keeps piped output clean.
// An empty style selects glamour's automatic dark/light style.
func NewRenderer(width int, markdown bool, style string) (*Renderer, error) {
	if !markdown {
		return &Renderer{}, nil
	}

	styleOpt := glamour.WithAutoStyle()
	if style != "" {
		styleOpt = glamour.WithStandardStyle(style)
	}
	md, err := glamour.NewTermRenderer(
		styleOpt,
		glamour.WithEmoji(),
		glamour.WithWordWrap(AnswerWrapWidth(width)),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{md: md}, nil
}

// Render returns the display form of answer. Markdown output is indented by
// two spaces. If Markdown rendering fails the answer is returned as is.
func (r *Renderer) Render(answer string) string {
	if r.md == nil {
		return answer
	}
	rendered, err := r.md.Render(answer)
	if err != nil {
		return answer
	}
	return indentLines(strings.Trim(rendered, "\n"), "  ")
}

// indentLines prefixes every line of s, including empty ones.
func indentLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}
