// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and models.
//
// This package defines the core domain types shared by the request engine,
// the token counter and the interactive chat loop.
//
// # Key Types
//
//   - ChatRole: Closed set of message roles (system, user, assistant)
//   - Message: A single (role, content) turn
//   - History: Ordered, append-only conversation history
//   - ModelInfo: Known chat model with its tokenizer encoding
//
// # Usage
//
// Build a primed conversation:
//
//	h := model.NewHistory(primingMsg)
//	h.Append(model.RoleUser, "How do I list open ports?")
//	snapshot := h.Clone() // hand this to the engine
//
// Look up the tokenizer for a model:
//
//	enc, ok := model.EncodingFor("gpt-4-turbo-preview")
package model
