// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/jeranaias/howto/internal/chat"
	"github.com/jeranaias/howto/internal/telemetry"
	"github.com/jeranaias/howto/internal/ui/styles"
)

// continuationHint is shown before every continuation prompt.
const continuationHint = "Type a continuation question, or press Enter to quit"

// =============================================================================
// INPUT HISTORY
// =============================================================================

// Prompter reads continuation questions.
type Prompter interface {
	ReadInput(prompt string) (string, error)
	Close()
}

// ChatCLI provides input history and line editing for continuation questions.
type ChatCLI struct {
	line        *liner.State
	historyFile string
}

// NewChatCLI creates a ChatCLI whose input history persists in historyFile.
// An empty historyFile keeps history in memory only.
func NewChatCLI(historyFile string) *ChatCLI {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	c := &ChatCLI{
		line:        line,
		historyFile: historyFile,
	}
	c.LoadHistory()
	return c
}

// DefaultHistoryFile returns ~/.howto_history.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".howto_history")
}

// LoadHistory loads input history from file.
func (c *ChatCLI) LoadHistory() {
	if c.historyFile == "" {
		return
	}
	if f, err := os.Open(c.historyFile); err == nil {
		c.line.ReadHistory(f)
		f.Close()
	}
}

// ReadInput reads a line of input with the given prompt.
func (c *ChatCLI) ReadInput(prompt string) (string, error) {
	input, err := c.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		c.line.AppendHistory(input)
	}
	return input, nil
}

// SaveHistory persists input history, readable by the owner only.
func (c *ChatCLI) SaveHistory() {
	if c.historyFile == "" {
		return
	}
	f, err := os.OpenFile(c.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return
	}
	defer f.Close()
	c.line.WriteHistory(f)
}

// Close saves history and restores the terminal.
func (c *ChatCLI) Close() {
	c.SaveHistory()
	c.line.Close()
}

// =============================================================================
// CONVERSATION LOOP
// =============================================================================

// conversation asks the first question and then, when chat is enabled,
// every continuation question until the user quits.
type conversation struct {
	session  *chat.Session
	renderer *Renderer
	prompter Prompter // nil disables continuation questions
	out      io.Writer
}

func (c *conversation) run(ctx context.Context, question string) error {
	for {
		turn, err := c.session.Ask(ctx, question)
		if err != nil {
			return err
		}

		fmt.Fprintln(c.out)
		fmt.Fprintln(c.out, c.renderer.Render(turn.Answer))
		if turn.Cost != nil {
			fmt.Fprintln(c.out)
			fmt.Fprintln(c.out, styles.Cost.Render(telemetry.FormatCost(*turn.Tokens, *turn.Cost)))
		}

		if c.prompter == nil {
			return nil
		}

		fmt.Fprintln(c.out, styles.Prompt.Render(continuationHint))
		input, err := c.prompter.ReadInput("> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(c.out)
				return nil
			}
			return fmt.Errorf("failed to read input: %w", err)
		}

		next := strings.TrimSpace(input)
		if isQuit(next) {
			return nil
		}
		question = next
	}
}

// isQuit reports whether a continuation input ends the conversation.
func isQuit(input string) bool {
	switch strings.ToLower(input) {
	case "", "q", "quit", "exit":
		return true
	}
	return false
}
