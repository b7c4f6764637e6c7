// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and models.
package model

import "fmt"

// =============================================================================
// ROLE TYPE
// =============================================================================

// ChatRole identifies the sender of a message.
// The zero value is not a valid role.
type ChatRole int

const (
	RoleSystem ChatRole = iota + 1
	RoleUser
	RoleAssistant
)

// String returns the lower-case role name.
func (r ChatRole) String() string {
	switch r {
	case RoleSystem:
		return "system"
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return fmt.Sprintf("ChatRole(%d)", int(r))
	}
}

// Valid reports whether r is one of the declared roles.
func (r ChatRole) Valid() bool {
	return r >= RoleSystem && r <= RoleAssistant
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single turn of a conversation.
type Message struct {
	Role    ChatRole
	Content string
}

// NewSystemMessage creates the priming message of a conversation.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
