// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/jeranaias/howto/internal/chat"
	"github.com/jeranaias/howto/internal/cloud"
	"github.com/jeranaias/howto/internal/config"
	"github.com/jeranaias/howto/internal/logging"
	"github.com/jeranaias/howto/internal/telemetry"
	"github.com/jeranaias/howto/internal/ui/progress"
	"github.com/jeranaias/howto/internal/ui/styles"
)

// runAsk asks the question given on the command line and, in chat mode,
// the continuation questions that follow.
func runAsk(ctx context.Context, cmd *cobra.Command, opts *rootOptions, args []string) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if opts.model != "" {
		cfg.Model = opts.model
	}
	if opts.noChat {
		cfg.Chat = false
	}

	tty := DetectTerminal()
	spinner := useSpinner(cfg, opts.debug, tty.Spinner)
	closer := setupLogging(cfg, opts, spinner)
	defer closer.Close()

	log := logging.Component("cli")
	log.Debugf("using model %s at %s", cfg.Model, cfg.BaseURL)

	subject, question := "", args[0]
	if len(args) == 2 {
		subject, question = args[0], args[1]
	}

	sessionOpts := []chat.Option{chat.WithLogger(logging.Component("chat"))}
	if cfg.UsageDB != "" {
		ledger, err := telemetry.OpenLedger(cfg.UsageDB)
		if err != nil {
			log.WithError(err).Debug("usage ledger unavailable")
			fmt.Fprintln(cmd.ErrOrStderr(), styles.RenderWarning("Usage ledger unavailable: "+err.Error()))
		} else {
			defer ledger.Close()
			sessionOpts = append(sessionOpts, chat.WithLedger(ledger))
		}
	}

	session := chat.NewSession(cfg, newEngine(cfg), newReporter(spinner), sessionOpts...)
	defer func() {
		log.WithFields(logrus.Fields{
			"session":  session.ID(),
			"turns":    session.Turns(),
			"duration": session.Duration().Round(time.Millisecond),
		}).Debug("session ended")
	}()

	renderer, err := NewRenderer(tty.Width, tty.Markdown, "")
	if err != nil {
		return err
	}

	conv := &conversation{
		session:  session,
		renderer: renderer,
		out:      cmd.OutOrStdout(),
	}
	if cfg.Chat {
		prompter := NewChatCLI(DefaultHistoryFile())
		defer prompter.Close()
		conv.prompter = prompter
	}

	return conv.run(ctx, cfg.SubjectQuestion(subject, question))
}

// newEngine wires the streaming engine to the configured token counter.
func newEngine(cfg *config.Config) *cloud.Engine {
	counter := telemetry.NewCounter(cfg.TokenCounter, logging.Component("telemetry"))
	return cloud.NewEngine(counter, cloud.WithLogger(logging.Component("cloud")))
}

// useSpinner reports whether the progress spinner may draw on stderr.
// Debug output without a log file goes to stderr, so it turns the spinner off.
func useSpinner(cfg *config.Config, debug, stderrTTY bool) bool {
	if !stderrTTY {
		return false
	}
	return !(debug && cfg.LogFile == "")
}

// newReporter returns the spinner reporter, or a silent one.
// Signals are left to the command context.
func newReporter(spinner bool) progress.Reporter {
	if !spinner {
		return progress.Silent{}
	}
	return progress.NewSpinner(os.Stderr, tea.WithoutSignalHandler())
}
