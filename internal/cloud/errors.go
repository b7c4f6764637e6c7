// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/jeranaias/howto/internal/util"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrReceiverGone indicates the fragment observer stopped receiving.
	ErrReceiverGone = errors.New("fragment receiver is gone")

	// ErrUnauthorized indicates the bearer token was rejected.
	ErrUnauthorized = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")
)

// =============================================================================
// TRANSPORT ERROR
// =============================================================================

// TransportError is a connection, timeout or I/O failure during a query.
type TransportError struct {
	Op  string // "connect" or "read body"
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error (%s): %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the failure was the query deadline expiring.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// =============================================================================
// PROTOCOL ERROR
// =============================================================================

// ProtocolError is a non-2xx initial response.
type ProtocolError struct {
	Status  int
	Body    string
	Code    string // error.code from the JSON body, if any
	Message string // error.message from the JSON body, if any
}

func (e *ProtocolError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = util.TruncateRunes(strings.TrimSpace(e.Body), 200)
	}
	if e.Code != "" {
		return fmt.Sprintf("API error [%s] (HTTP %d): %s", e.Code, e.Status, msg)
	}
	return fmt.Sprintf("API error (HTTP %d): %s", e.Status, msg)
}

// Is maps well-known statuses to the sentinel errors.
func (e *ProtocolError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrModelNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// apiErrorResponse represents an error response from the API.
type apiErrorResponse struct {
	Error struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// newProtocolError builds a ProtocolError, extracting the API's error
// message from body when it has the usual JSON shape.
func newProtocolError(status int, body []byte) *ProtocolError {
	pe := &ProtocolError{Status: status, Body: string(body)}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		pe.Message = apiErr.Error.Message
		if apiErr.Error.Code != nil {
			pe.Code = fmt.Sprint(apiErr.Error.Code)
		}
	}
	return pe
}

// =============================================================================
// CHANNEL ERROR
// =============================================================================

// ChannelError means a fragment could not be delivered to the observer.
// Decoding stops at the first undeliverable fragment.
type ChannelError struct {
	Delivered int // fragments delivered before the failure
	Err       error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("fragment delivery failed after %d fragments: %v", e.Delivered, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// =============================================================================
// PARSE WARNINGS
// =============================================================================

// WarningKind classifies a skipped stream line.
type WarningKind int

const (
	WarnLineFormat WarningKind = iota + 1
	WarnUnexpectedKey
	WarnInvalidJSON
	WarnNoChoices
)

func (k WarningKind) String() string {
	switch k {
	case WarnLineFormat:
		return "unexpected line format"
	case WarnUnexpectedKey:
		return "unexpected key"
	case WarnInvalidJSON:
		return "invalid JSON"
	case WarnNoChoices:
		return "no choices"
	default:
		return fmt.Sprintf("WarningKind(%d)", int(k))
	}
}

// ParseWarning describes a stream line that was skipped.
// Warnings are logged and counted, never returned as errors.
type ParseWarning struct {
	Kind WarningKind
	Line string
	Err  error
}

func (w ParseWarning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s: %v: %q", w.Kind, w.Err, w.Line)
	}
	return fmt.Sprintf("%s: %q", w.Kind, w.Line)
}
