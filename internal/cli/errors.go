// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Exit codes and error display for the howto command.
//
// Commands always return errors; Execute decides how to display them and
// which exit code to use.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jeranaias/howto/internal/cloud"
	"github.com/jeranaias/howto/internal/config"
	"github.com/jeranaias/howto/internal/ui/progress"
	"github.com/jeranaias/howto/internal/ui/styles"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitUsageError indicates invalid command usage or arguments
	ExitUsageError = 2
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
	// ExitAuthError indicates the API rejected the token
	ExitAuthError = 4
	// ExitNetworkError indicates network or connectivity error
	ExitNetworkError = 5
	// ExitNotFoundError indicates the model was not found
	ExitNotFoundError = 7
	// ExitTimeoutError indicates the query deadline expired
	ExitTimeoutError = 8
	// ExitInterrupted indicates the user interrupted the query
	ExitInterrupted = 130
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// UsageError represents invalid command usage.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// ConfigError wraps a failure to load or validate the configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// =============================================================================
// EXIT CODE MAPPING
// =============================================================================

// GetExitCode determines the appropriate exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var usageErr *UsageError
	if errors.As(err, &usageErr) {
		return ExitUsageError
	}

	var cfgErr *ConfigError
	var validateErrs config.ValidateErrors
	if errors.As(err, &cfgErr) || errors.As(err, &validateErrs) || errors.Is(err, config.ErrMissingToken) {
		return ExitConfigError
	}

	if errors.Is(err, progress.ErrInterrupted) || errors.Is(err, context.Canceled) {
		return ExitInterrupted
	}

	if errors.Is(err, cloud.ErrUnauthorized) {
		return ExitAuthError
	}
	if errors.Is(err, cloud.ErrModelNotFound) {
		return ExitNotFoundError
	}

	var transportErr *cloud.TransportError
	if errors.As(err, &transportErr) {
		if transportErr.Timeout() {
			return ExitTimeoutError
		}
		return ExitNetworkError
	}

	return ExitGeneralError
}

// =============================================================================
// ERROR DISPLAY
// =============================================================================

// DisplayError writes a human-readable error to w.
func DisplayError(w io.Writer, err error) {
	if err == nil {
		return
	}
	fmt.Fprintln(w, styles.RenderError("Error: "+err.Error()))

	if hint := errorHint(err); hint != "" {
		fmt.Fprintln(w, styles.Muted.Render("  "+hint))
	}
}

// errorHint suggests a fix for common failures.
func errorHint(err error) string {
	var transportErr *cloud.TransportError
	switch {
	case errors.Is(err, config.ErrMissingToken):
		return "Set openai_token in the [default] section, or export HOWTO_OPENAI_TOKEN."
	case errors.Is(err, os.ErrNotExist):
		return "Run 'howto config init' to create an example configuration file."
	case errors.Is(err, cloud.ErrUnauthorized):
		return "Check that openai_token is a valid API key."
	case errors.Is(err, cloud.ErrRateLimited):
		return "The API is rate limiting requests. Wait a moment and try again."
	case errors.Is(err, cloud.ErrModelNotFound):
		return "Run 'howto models' to list the models available to your key."
	case errors.As(err, &transportErr) && transportErr.Timeout():
		return "The query timed out. Increase 'timeout' in the config file."
	}
	return ""
}
