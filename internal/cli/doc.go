// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the howto command line.
//
//	howto [flags] [subject] <question>
//
// The root command asks the question, renders the Markdown answer and,
// when chat is enabled, keeps prompting for continuation questions until
// the user quits.
//
// # Commands
//
//   - howto: ask a question (default)
//   - models: list the models the API key can use
//   - usage: show totals from the local usage ledger
//   - config: print or write the example configuration file
package cli
