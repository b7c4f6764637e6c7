// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/howto/internal/config"
	"github.com/jeranaias/howto/internal/model"
)

func testConfig(baseURL string) *config.Config {
	cfg := config.Default()
	cfg.Token = "sk-test"
	cfg.BaseURL = baseURL
	cfg.Model = "gpt-4"
	cfg.Temperature = 0.1
	return cfg
}

func TestBuildRequest_MirrorsHistory(t *testing.T) {
	h := model.HistoryOf(
		model.NewSystemMessage("S"),
		model.NewUserMessage("Q1"),
		model.NewAssistantMessage("A1"),
		model.NewUserMessage("Q2"),
	)

	req := BuildRequest(testConfig("https://api.example.com/v1"), h)

	assert.Equal(t, "gpt-4", req.Model)
	assert.True(t, req.Stream)
	assert.Equal(t, 0.1, req.Temperature)
	assert.Equal(t, []ChatMessage{
		{Role: "system", Content: "S"},
		{Role: "user", Content: "Q1"},
		{Role: "assistant", Content: "A1"},
		{Role: "user", Content: "Q2"},
	}, req.Messages)
}

func TestBuildRequest_JSONShape(t *testing.T) {
	cfg := testConfig("https://api.example.com/v1")
	cfg.Temperature = 0

	raw, err := json.Marshal(BuildRequest(cfg, model.HistoryOf(model.NewUserMessage("hi"))))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"model": "gpt-4",
		"stream": true,
		"temperature": 0,
		"messages": [{"role": "user", "content": "hi"}]
	}`, string(raw))
}

func TestWireRole_UnknownPanics(t *testing.T) {
	assert.Panics(t, func() { wireRole(model.ChatRole(99)) })
}

func TestCompletionsURL(t *testing.T) {
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", CompletionsURL("https://api.openai.com/v1"))
	assert.Equal(t, "https://api.openai.com/v1/chat/completions", CompletionsURL("https://api.openai.com/v1/"))
}
