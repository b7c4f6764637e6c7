// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/jeranaias/howto/internal/config"
	"github.com/jeranaias/howto/internal/logging"
)

// Version information (set at build time)
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// ShortDesc is the one-line description of the command.
const ShortDesc = "Configurable CLI chat assistant, powered by OpenAI language models"

// rootOptions holds the global flags.
type rootOptions struct {
	configPath string
	debug      bool
	model      string
	noChat     bool
}

// NewRootCmd builds the howto command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "howto [flags] [subject] <question>",
		Short: ShortDesc,
		Long: fmt.Sprintf(heredoc.Doc(`
			%s
			You need to configure your OpenAI API key in ~/%s

			Positional arguments:
			  subject   Topic of the question (optional)
			  question  Question to ask (required)`), ShortDesc, config.DefaultFileName),
		Example: "  howto 'list open ports'\n" +
			"  howto nginx 'redirect http to https'\n\n" +
			"Configuration file example:\n\n" + indentLines(config.ExampleINI(), "  "),
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		Args:          usageArgs(cobra.RangeArgs(1, 2)),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd.Context(), cmd, opts, args)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default is $HOME/"+config.DefaultFileName+")")
	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "Model to use, overriding the config file")
	cmd.Flags().BoolVar(&opts.noChat, "no-chat", false, "Exit after the first answer")

	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	cmd.AddCommand(
		newModelsCmd(opts),
		newUsageCmd(opts),
		newConfigCmd(opts),
	)
	return cmd
}

// Execute runs the command line and returns the process exit code.
// SIGINT and SIGTERM cancel the running query.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lipgloss.SetColorProfile(colorProfile(os.Getenv, DetectTerminal().Markdown))

	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		DisplayError(os.Stderr, err)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

// usageArgs marks positional argument errors as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := check(cmd, args); err != nil {
			return &UsageError{Err: err}
		}
		return nil
	}
}

// loadConfig reads the configuration selected by the global flags.
func loadConfig(opts *rootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	return cfg, nil
}

// setupLogging configures logrus from cfg and the --debug flag. With
// spinner set, stderr belongs to the progress display and only errors are
// logged there.
func setupLogging(cfg *config.Config, opts *rootOptions, spinner bool) io.Closer {
	return logging.Setup(logging.Options{
		Level:  cfg.LogLevel,
		Debug:  opts.debug,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
		Quiet:  spinner,
	})
}
