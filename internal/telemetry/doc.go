// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides token counting, cost estimation and a local
// usage ledger for howto.
//
// # Key Types
//
//   - TokenCounter: estimates the tokens used by one completed exchange
//   - TiktokenCounter: BPE count of the history plus the answer
//   - FragmentCounter: one unit per streamed fragment
//   - Ledger: sqlite record of per-query usage numbers
//
// # Usage
//
//	counter := telemetry.NewCounter(cfg.TokenCounter, log)
//	tokens := counter.Count(cfg.Model, history, answer, fragments)
//	if cost, ok := telemetry.Cost(tokens, cfg.CostPerToken); ok {
//	    fmt.Println(telemetry.FormatCost(*tokens, cost))
//	}
//
// # Privacy
//
// The ledger is local-only and does not transmit any data.
// Query content is never stored - only token counts and costs.
package telemetry
