// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs the turns of one howto conversation.
//
// Each turn submits the history plus the new question through the streaming
// engine while a progress reporter consumes the fragments. Both tasks are
// joined before the turn completes, and the history only grows when both
// succeed.
package chat

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/howto/internal/cloud"
	"github.com/jeranaias/howto/internal/config"
	"github.com/jeranaias/howto/internal/model"
	"github.com/jeranaias/howto/internal/telemetry"
	"github.com/jeranaias/howto/internal/ui/progress"
)

// =============================================================================
// SESSION
// =============================================================================

// Turn is the outcome of one question.
type Turn struct {
	Answer    string
	Tokens    *uint64  // nil when no estimate is available
	Cost      *float64 // nil unless tokens and cost_per_token are known
	Fragments int
	Duration  time.Duration
}

// Session holds the conversation history of one run.
type Session struct {
	mu sync.Mutex

	cfg      *config.Config
	history  *model.History
	engine   *cloud.Engine
	reporter progress.Reporter
	ledger   *telemetry.Ledger
	log      logrus.FieldLogger

	sessionID string
	startTime time.Time
	turns     int
}

// Option configures a Session.
type Option func(*Session)

// WithLedger records the usage numbers of every successful turn.
func WithLedger(l *telemetry.Ledger) Option {
	return func(s *Session) { s.ledger = l }
}

// WithLogger sets the session logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(s *Session) { s.log = l }
}

// NewSession starts a conversation primed with cfg.PrimingMsg.
// A nil reporter drains fragments silently.
func NewSession(cfg *config.Config, engine *cloud.Engine, reporter progress.Reporter, opts ...Option) *Session {
	if reporter == nil {
		reporter = progress.Silent{}
	}
	s := &Session{
		cfg:       cfg.Clone(),
		history:   model.NewHistory(cfg.PrimingMsg),
		engine:    engine,
		reporter:  reporter,
		log:       logrus.WithField("component", "chat"),
		sessionID: telemetry.NewSessionID(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the session identifier used in the usage ledger.
func (s *Session) ID() string {
	return s.sessionID
}

// History returns a copy of the conversation so far.
func (s *Session) History() *model.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Clone()
}

// Turns returns the number of completed turns.
func (s *Session) Turns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.turns
}

// Duration returns the time since the session started.
func (s *Session) Duration() time.Duration {
	return time.Since(s.startTime)
}

// Ask submits question and waits for the full answer. On failure the
// history is left as it was before the call.
func (s *Session) Ask(ctx context.Context, question string) (*Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.history.Clone()
	pending.Append(model.RoleUser, question)
	if err := pending.Validate(); err != nil {
		return nil, fmt.Errorf("invalid conversation: %w", err)
	}

	fc := cloud.NewFragmentChannel(cloud.DefaultFragmentBuffer)
	g, gctx := errgroup.WithContext(ctx)

	var res *cloud.QueryResult
	g.Go(func() error {
		r, err := s.engine.Submit(gctx, s.cfg, pending, fc)
		res = r
		return err
	})
	g.Go(func() error {
		defer fc.Detach()
		return s.reporter.Run(gctx, fc.Fragments())
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	pending.Append(model.RoleAssistant, res.Answer)
	s.history = pending
	s.turns++

	turn := &Turn{
		Answer:    res.Answer,
		Tokens:    res.Tokens,
		Fragments: res.Fragments,
		Duration:  res.Duration,
	}
	if cost, ok := telemetry.Cost(res.Tokens, s.cfg.CostPerToken); ok {
		turn.Cost = &cost
	}

	s.log.WithFields(logrus.Fields{
		"session":   s.sessionID,
		"fragments": res.Fragments,
		"warnings":  res.Warnings,
		"duration":  res.Duration,
	}).Debug("turn complete")

	s.record(ctx, turn)
	return turn, nil
}

// record writes the turn to the ledger. Failures are logged, not returned.
func (s *Session) record(ctx context.Context, turn *Turn) {
	if s.ledger == nil {
		return
	}
	err := s.ledger.Record(ctx, telemetry.UsageRecord{
		SessionID: s.sessionID,
		Model:     s.cfg.Model,
		Tokens:    turn.Tokens,
		Cost:      turn.Cost,
		Fragments: turn.Fragments,
		Duration:  turn.Duration,
	})
	if err != nil {
		s.log.WithError(err).Warn("failed to record usage")
	}
}
