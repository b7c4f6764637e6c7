// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"errors"
	"fmt"
)

// Errors returned by History.Validate.
var (
	ErrEmptyHistory      = errors.New("history is empty")
	ErrMisplacedSystem   = errors.New("system message must be the first entry")
	ErrRoleOrder         = errors.New("user and assistant messages must alternate")
	ErrNoPendingQuestion = errors.New("history must end with an unanswered user message")
)

// =============================================================================
// HISTORY
// =============================================================================

// History is the ordered record of a conversation.
//
// Insertion order is chronological and defines the context sent to the model.
// History is append-only; callers hand a Clone to anything that runs
// concurrently with the owner.
type History struct {
	messages []Message
}

// NewHistory creates a history primed with a system message.
// An empty priming message yields a history without a system entry.
func NewHistory(priming string) *History {
	h := &History{}
	if priming != "" {
		h.messages = append(h.messages, NewSystemMessage(priming))
	}
	return h
}

// HistoryOf builds a history from the given messages, in order.
func HistoryOf(msgs ...Message) *History {
	h := &History{messages: make([]Message, len(msgs))}
	copy(h.messages, msgs)
	return h
}

// Append adds a message at the end of the history.
func (h *History) Append(role ChatRole, content string) {
	h.messages = append(h.messages, Message{Role: role, Content: content})
}

// Len returns the number of messages.
func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return len(h.messages)
}

// Messages returns a copy of the messages in chronological order.
func (h *History) Messages() []Message {
	if h == nil {
		return nil
	}
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}

// Contents returns the content of every message, in order.
func (h *History) Contents() []string {
	if h == nil {
		return nil
	}
	out := make([]string, len(h.messages))
	for i, m := range h.messages {
		out[i] = m.Content
	}
	return out
}

// Last returns the most recent message.
func (h *History) Last() (Message, bool) {
	if h.Len() == 0 {
		return Message{}, false
	}
	return h.messages[len(h.messages)-1], true
}

// Clone returns an independent copy of the history.
func (h *History) Clone() *History {
	if h == nil {
		return &History{}
	}
	return HistoryOf(h.messages...)
}

// Validate checks that the history can be submitted as a query: an optional
// system message first, then user/assistant turns alternating, starting and
// ending with a user message.
func (h *History) Validate() error {
	if h.Len() == 0 {
		return ErrEmptyHistory
	}

	want := RoleUser
	for i, m := range h.messages {
		if !m.Role.Valid() {
			return fmt.Errorf("message %d: invalid role %v", i, m.Role)
		}
		if m.Role == RoleSystem {
			if i != 0 {
				return fmt.Errorf("message %d: %w", i, ErrMisplacedSystem)
			}
			continue
		}
		if m.Role != want {
			return fmt.Errorf("message %d: got %s, want %s: %w", i, m.Role, want, ErrRoleOrder)
		}
		if want == RoleUser {
			want = RoleAssistant
		} else {
			want = RoleUser
		}
	}

	if last, _ := h.Last(); last.Role != RoleUser {
		return ErrNoPendingQuestion
	}
	return nil
}
