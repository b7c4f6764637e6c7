// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and validation for howto.
//
// Supports both INI and TOML configuration formats, with sensible defaults,
// environment variable overrides, and validation. Every key lives in the
// [default] section (or table).
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - ValidationError / ValidateErrors: Per-field validation failures
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (HOWTO_OPENAI_TOKEN, HOWTO_MODEL, HOWTO_BASE_URL)
//   - The file given with --config, or ~/.howto.ini
//   - OPENAI_API_KEY, when the file has no token
//   - Built-in defaults
//
// # Usage
//
// Load configuration:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
