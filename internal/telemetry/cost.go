// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import "fmt"

// Cost returns tokens × costPerToken. It reports false unless both a token
// count and a per-token price are known.
func Cost(tokens *uint64, costPerToken *float64) (float64, bool) {
	if tokens == nil || costPerToken == nil {
		return 0, false
	}
	return float64(*tokens) * *costPerToken, true
}

// FormatCost renders the cost line shown after an answer.
func FormatCost(tokens uint64, cost float64) string {
	return fmt.Sprintf("(Cost: %d tokens, %.4f USD)", tokens, cost)
}
