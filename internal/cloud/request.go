// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jeranaias/howto/internal/config"
	"github.com/jeranaias/howto/internal/model"
)

// ChatMessage is one entry of the request's messages array.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of a streaming chat completion request.
type ChatRequest struct {
	Model       string        `json:"model"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	Messages    []ChatMessage `json:"messages"`
}

// BuildRequest turns the configuration and history into a request payload.
// Messages mirror the history one to one, in order.
func BuildRequest(cfg *config.Config, history *model.History) ChatRequest {
	msgs := history.Messages()
	out := make([]ChatMessage, len(msgs))
	for i, m := range msgs {
		out[i] = ChatMessage{Role: wireRole(m.Role), Content: m.Content}
	}

	return ChatRequest{
		Model:       cfg.Model,
		Stream:      true,
		Temperature: cfg.Temperature,
		Messages:    out,
	}
}

// wireRole maps a role to its API name. Histories are validated before they
// reach the engine, so an unknown role is a programming error.
func wireRole(r model.ChatRole) string {
	switch r {
	case model.RoleSystem:
		return openai.ChatMessageRoleSystem
	case model.RoleUser:
		return openai.ChatMessageRoleUser
	case model.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	}
	panic(fmt.Sprintf("cloud: unknown chat role %d", int(r)))
}
