// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusHelpersKeepIndicators(t *testing.T) {
	assert.Contains(t, RenderSuccess("saved"), "[OK] saved")
	assert.Contains(t, RenderError("failed"), "[X] failed")
	assert.Contains(t, RenderWarning("careful"), "[!] careful")
	assert.Contains(t, RenderInfo("note"), "[i] note")
}

func TestCostStyleKeepsText(t *testing.T) {
	assert.Contains(t, Cost.Render("(Cost: 1 tokens, 0.0000 USD)"), "(Cost: 1 tokens, 0.0000 USD)")
}
