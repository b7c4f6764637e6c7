// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/howto/internal/config"
	"github.com/jeranaias/howto/internal/model"
)

// QueryResult is the outcome of one Submit call.
type QueryResult struct {
	Answer    string
	Tokens    *uint64 // nil when no estimate is available
	Fragments int
	Warnings  int
	Duration  time.Duration
}

// TokenCounter estimates the tokens used by a completed exchange.
// It returns nil when no estimate can be made and must never fail.
type TokenCounter interface {
	Count(modelID string, history *model.History, answer string, fragments int) *uint64
}

// Engine performs streaming chat completion requests.
// An Engine is safe for concurrent use.
type Engine struct {
	httpClient *http.Client
	counter    TokenCounter
	log        logrus.FieldLogger
}

// Option configures an Engine.
type Option func(*Engine)

// WithHTTPClient replaces the shared streaming HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(e *Engine) { e.httpClient = c }
}

// WithLogger sets the logger used for debug output and parse warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// NewEngine creates an engine that estimates usage with counter.
// A nil counter disables token estimates.
func NewEngine(counter TokenCounter, opts ...Option) *Engine {
	e := &Engine{
		httpClient: sharedStreamingClient,
		counter:    counter,
		log:        logrus.WithField("component", "cloud"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Submit sends history as one streaming request and forwards every content
// fragment to sink as it is decoded. sink is closed before Submit returns,
// whatever the outcome. There is exactly one network attempt.
//
// The query deadline (cfg.Timeout) covers connecting and the whole stream.
// Errors are *TransportError, *ProtocolError or *ChannelError.
func (e *Engine) Submit(ctx context.Context, cfg *config.Config, history *model.History, sink Sink) (*QueryResult, error) {
	defer sink.Close()

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
	defer cancel()

	body, err := json.Marshal(BuildRequest(cfg, history))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, CompletionsURL(cfg.BaseURL), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	setHeaders(req, cfg.Token)

	log := e.log.WithFields(logrus.Fields{"model": cfg.Model, "messages": history.Len()})
	log.Debugf("API Request: %s %s", req.Method, req.URL.Path)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "connect", Err: err}
	}
	defer resp.Body.Close()

	log.Debugf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, MaxErrorBodySize))
		return nil, newProtocolError(resp.StatusCode, raw)
	}

	dec := NewDecoder(ParseFraming(cfg.StreamFraming), log)
	res, err := dec.Decode(resp.Body, sink)
	if err != nil {
		return nil, err
	}
	if res.Warnings > 0 {
		log.Debugf("stream decoded with %d warnings", res.Warnings)
	}

	var tokens *uint64
	if e.counter != nil {
		tokens = e.counter.Count(cfg.Model, history, res.Answer, res.Fragments)
	}

	return &QueryResult{
		Answer:    res.Answer,
		Tokens:    tokens,
		Fragments: res.Fragments,
		Warnings:  res.Warnings,
		Duration:  time.Since(start),
	}, nil
}
