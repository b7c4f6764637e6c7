// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and validation for howto.
//
// Supports both INI and TOML configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - --config flag
//   - ~/.howto.ini
//   - Built-in defaults (except openai_token, which is required)
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// =============================================================================
// DEFAULTS
// =============================================================================

const (
	// DefaultFileName is the config file name inside the user's home directory.
	DefaultFileName = ".howto.ini"

	// DefaultBaseURL is the base URL of the completions service.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultModel is the chat model used when none is configured.
	DefaultModel = "gpt-4-turbo-preview"

	// DefaultTemperature is the sampling temperature used when none is configured.
	DefaultTemperature = 0.1

	// DefaultTimeoutSecs bounds a whole query, connect plus stream.
	DefaultTimeoutSecs = 120

	// Stream framing modes.
	FramingBuffered = "buffered"
	FramingChunk    = "chunk"

	// Token counting strategies.
	CounterTiktoken  = "tiktoken"
	CounterFragments = "fragments"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete howto configuration.
// The request engine treats it as an immutable value.
type Config struct {
	// Credentials and endpoint
	Token   string `mapstructure:"openai_token" toml:"openai_token"`
	BaseURL string `mapstructure:"base_url" toml:"base_url"`

	// Model parameters
	Model        string   `mapstructure:"model" toml:"model"`
	Temperature  float64  `mapstructure:"temperature" toml:"temperature"`
	CostPerToken *float64 `mapstructure:"cost_per_token" toml:"cost_per_token"`

	// Conversation
	Chat       bool   `mapstructure:"chat" toml:"chat"`
	SubjectMsg string `mapstructure:"subject_msg" toml:"subject_msg"`
	PrimingMsg string `mapstructure:"priming_msg" toml:"priming_msg"`

	// Transport and decoding
	TimeoutSecs   int    `mapstructure:"timeout" toml:"timeout"`
	StreamFraming string `mapstructure:"stream_framing" toml:"stream_framing"`
	TokenCounter  string `mapstructure:"token_counter" toml:"token_counter"`

	// UsageDB is the sqlite usage ledger path (empty = disabled)
	UsageDB string `mapstructure:"usage_db" toml:"usage_db"`

	// Logging
	LogLevel  string `mapstructure:"log_level" toml:"log_level"`
	LogFormat string `mapstructure:"log_format" toml:"log_format"`
	LogFile   string `mapstructure:"log_file" toml:"log_file"`
}

// fileLayout mirrors the on-disk layout: every key lives in [default].
type fileLayout struct {
	Default Config `mapstructure:"default" toml:"default"`
}

// Default returns a configuration with every optional setting filled in.
func Default() *Config {
	return &Config{
		BaseURL:       DefaultBaseURL,
		Model:         DefaultModel,
		Temperature:   DefaultTemperature,
		Chat:          true,
		SubjectMsg:    DefaultSubjectMsg,
		PrimingMsg:    DefaultPrimingMsg,
		TimeoutSecs:   DefaultTimeoutSecs,
		StreamFraming: FramingBuffered,
		TokenCounter:  CounterTiktoken,
		LogLevel:      "info",
		LogFormat:     "text",
	}
}

// =============================================================================
// PATHS
// =============================================================================

// DefaultPath returns ~/.howto.ini.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate home directory: %w", err)
	}
	return filepath.Join(home, DefaultFileName), nil
}

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration file at path (DefaultPath when empty),
// applies environment overrides and validates the result.
// Files ending in .toml are read as TOML, anything else as INI.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	path = expandHome(path)

	cfg := Default()
	var err error
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = LoadTOML(cfg, path)
	} else {
		err = LoadINI(cfg, path)
	}
	if err != nil {
		return nil, err
	}

	cfg.ApplyEnvOverrides()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadINI merges the [default] section of an INI file into cfg.
func LoadINI(cfg *Config, path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading config file %q: %w", path, err)
	}

	layout := fileLayout{Default: *cfg}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &layout,
	})
	if err != nil {
		return fmt.Errorf("failed to create config decoder: %w", err)
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return fmt.Errorf("error decoding config file %q: %w", path, err)
	}
	if !v.IsSet("default") {
		return fmt.Errorf("config file %q: missing [default] section", path)
	}

	*cfg = layout.Default
	return nil
}

// LoadTOML merges the [default] table of a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	layout := fileLayout{Default: *cfg}
	md, err := toml.DecodeFile(path, &layout)
	if err != nil {
		return fmt.Errorf("error reading config file %q: %w", path, err)
	}
	if !md.IsDefined("default") {
		return fmt.Errorf("config file %q: missing [default] table", path)
	}
	*cfg = layout.Default
	return nil
}

// normalize trims values the way the file format expects them to be read.
func (c *Config) normalize() {
	c.Token = strings.TrimSpace(c.Token)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	c.Model = strings.TrimSpace(c.Model)
	c.PrimingMsg = trimLines(c.PrimingMsg)
	c.SubjectMsg = trimLines(c.SubjectMsg)
	c.StreamFraming = strings.ToLower(strings.TrimSpace(c.StreamFraming))
	c.TokenCounter = strings.ToLower(strings.TrimSpace(c.TokenCounter))
	c.UsageDB = expandHome(strings.TrimSpace(c.UsageDB))
	c.LogFile = expandHome(strings.TrimSpace(c.LogFile))
}

// trimLines strips each line and expands literal \n escapes used by
// multi-line INI values. The INI reader leaves the quotes around a value
// continued over several lines, so one surrounding pair is removed.
func trimLines(s string) string {
	s = strings.ReplaceAll(s, `\n`, "\n")
	s = unquote(strings.TrimSpace(s))
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.Join(lines, "\n")
}

// unquote removes one pair of surrounding double quotes.
func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies HOWTO_* environment variables.
// OPENAI_API_KEY is used only when no token is configured.
func (c *Config) ApplyEnvOverrides() {
	if c.Token == "" {
		if v := os.Getenv("OPENAI_API_KEY"); v != "" {
			c.Token = v
		}
	}
	if v := os.Getenv("HOWTO_OPENAI_TOKEN"); v != "" {
		c.Token = v
	}
	if v := os.Getenv("HOWTO_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("HOWTO_BASE_URL"); v != "" {
		c.BaseURL = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors collects every invalid setting.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, len(e))
	for i, ve := range e {
		msgs[i] = ve.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// ErrMissingToken indicates openai_token is unset or empty.
var ErrMissingToken = errors.New("openai_token is not set (or is empty) in config file")

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if strings.TrimSpace(c.Token) == "" {
		errs = append(errs, ValidationError{Field: "openai_token", Message: ErrMissingToken.Error()})
	}
	if c.Model == "" {
		errs = append(errs, ValidationError{Field: "model", Message: "must not be empty"})
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		errs = append(errs, ValidationError{Field: "temperature", Message: "must be between 0 and 2"})
	}
	if c.CostPerToken != nil && *c.CostPerToken < 0 {
		errs = append(errs, ValidationError{Field: "cost_per_token", Message: "must not be negative"})
	}
	if u, err := url.Parse(c.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{Field: "base_url", Message: "must be an http(s) URL"})
	}
	if c.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{Field: "timeout", Message: "must be positive"})
	}
	switch c.StreamFraming {
	case FramingBuffered, FramingChunk:
	default:
		errs = append(errs, ValidationError{Field: "stream_framing", Message: fmt.Sprintf("unknown mode %q", c.StreamFraming)})
	}
	switch c.TokenCounter {
	case CounterTiktoken, CounterFragments:
	default:
		errs = append(errs, ValidationError{Field: "token_counter", Message: fmt.Sprintf("unknown strategy %q", c.TokenCounter)})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Timeout returns the overall query timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.CostPerToken != nil {
		cpt := *c.CostPerToken
		clone.CostPerToken = &cpt
	}
	return &clone
}

// SubjectQuestion prefixes question with the subject message, in which {}
// is replaced by subject. An empty subject returns question unchanged.
func (c *Config) SubjectQuestion(subject, question string) string {
	if subject == "" {
		return question
	}
	subject = strings.ReplaceAll(subject, "\n", " ")
	return strings.ReplaceAll(c.SubjectMsg, "{}", subject) + "\n" + question
}
