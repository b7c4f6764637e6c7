// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/howto/internal/cloud"
	"github.com/jeranaias/howto/internal/config"
	"github.com/jeranaias/howto/internal/model"
	"github.com/jeranaias/howto/internal/telemetry"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// fakeAPI streams a fixed answer per request and records request bodies.
type fakeAPI struct {
	mu       sync.Mutex
	requests []cloud.ChatRequest
	answers  []string
	status   int
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req cloud.ChatRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	f.mu.Lock()
	f.requests = append(f.requests, req)
	n := len(f.requests)
	f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		fmt.Fprint(w, `{"error":{"message":"nope"}}`)
		return
	}

	answer := "answer"
	if n <= len(f.answers) {
		answer = f.answers[n-1]
	}
	w.Header().Set("Content-Type", "text/event-stream")
	for _, r := range answer {
		fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", string(r))
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func (f *fakeAPI) lastRequest() cloud.ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func testConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Token = "sk-test"
	cfg.BaseURL = url
	cfg.Model = "gpt-4"
	cfg.PrimingMsg = "Be brief."
	cfg.TokenCounter = config.CounterFragments
	return cfg
}

func newTestSession(t *testing.T, api *fakeAPI, mutate func(*config.Config), opts ...Option) *Session {
	t.Helper()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	cfg := testConfig(server.URL)
	if mutate != nil {
		mutate(cfg)
	}
	engine := cloud.NewEngine(telemetry.NewCounter(cfg.TokenCounter, nil))
	return NewSession(cfg, engine, nil, opts...)
}

// failingReporter stops consuming after reading n fragments.
type failingReporter struct {
	n   int
	err error
}

func (r failingReporter) Run(ctx context.Context, fragments <-chan string) error {
	for i := 0; i < r.n; i++ {
		if _, ok := <-fragments; !ok {
			return nil
		}
	}
	return r.err
}

// =============================================================================
// TESTS
// =============================================================================

func TestAsk_AppendsTurnToHistory(t *testing.T) {
	api := &fakeAPI{answers: []string{"A1", "A2"}}
	s := newTestSession(t, api, nil)

	turn, err := s.Ask(context.Background(), "Q1")
	require.NoError(t, err)
	assert.Equal(t, "A1", turn.Answer)
	assert.Equal(t, 2, turn.Fragments)
	require.NotNil(t, turn.Tokens)
	assert.Equal(t, uint64(2), *turn.Tokens)
	assert.Nil(t, turn.Cost)

	_, err = s.Ask(context.Background(), "Q2")
	require.NoError(t, err)

	assert.Equal(t, []model.Message{
		model.NewSystemMessage("Be brief."),
		model.NewUserMessage("Q1"),
		model.NewAssistantMessage("A1"),
		model.NewUserMessage("Q2"),
		model.NewAssistantMessage("A2"),
	}, s.History().Messages())
	assert.Equal(t, 2, s.Turns())

	req := api.lastRequest()
	require.Len(t, req.Messages, 4)
	assert.Equal(t, "assistant", req.Messages[2].Role)
	assert.Equal(t, "Q2", req.Messages[3].Content)
}

func TestAsk_CostWhenPriced(t *testing.T) {
	price := 0.5
	s := newTestSession(t, &fakeAPI{answers: []string{"abcd"}}, func(c *config.Config) {
		c.CostPerToken = &price
	})

	turn, err := s.Ask(context.Background(), "q")
	require.NoError(t, err)
	require.NotNil(t, turn.Cost)
	assert.InDelta(t, 2.0, *turn.Cost, 1e-9)
}

func TestAsk_ProtocolErrorLeavesHistory(t *testing.T) {
	s := newTestSession(t, &fakeAPI{status: http.StatusUnauthorized}, nil)

	turn, err := s.Ask(context.Background(), "q")
	require.Error(t, err)
	assert.Nil(t, turn)
	assert.ErrorIs(t, err, cloud.ErrUnauthorized)

	assert.Equal(t, 1, s.History().Len())
	assert.Zero(t, s.Turns())
}

func TestAsk_ReporterFailureFailsTurn(t *testing.T) {
	boom := errors.New("display broke")
	api := &fakeAPI{answers: []string{"a long answer that keeps streaming"}}
	server := httptest.NewServer(api)
	defer server.Close()

	cfg := testConfig(server.URL)
	s := NewSession(cfg, cloud.NewEngine(nil), failingReporter{n: 1, err: boom})

	_, err := s.Ask(context.Background(), "q")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, s.History().Len())
}

func TestAsk_EmptyPrimingIsAllowed(t *testing.T) {
	s := newTestSession(t, &fakeAPI{answers: []string{"ok"}}, func(c *config.Config) {
		c.PrimingMsg = ""
	})

	_, err := s.Ask(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 2, s.History().Len())
}

func TestAsk_RecordsUsage(t *testing.T) {
	ledger, err := telemetry.OpenLedger(filepath.Join(t.TempDir(), "usage.db"))
	require.NoError(t, err)
	defer ledger.Close()

	s := newTestSession(t, &fakeAPI{answers: []string{"xyz"}}, nil, WithLedger(ledger))
	_, err = s.Ask(context.Background(), "q")
	require.NoError(t, err)

	totals, err := ledger.Totals(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Queries)
	assert.Equal(t, uint64(3), totals.Tokens)
	assert.Equal(t, 3, totals.Fragments)
}

func TestAsk_CanceledContext(t *testing.T) {
	s := newTestSession(t, &fakeAPI{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Ask(ctx, "q")
	require.Error(t, err)
	assert.Equal(t, 1, s.History().Len())
}
