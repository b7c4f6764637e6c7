// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/howto/internal/model"
)

func u64(n uint64) *uint64    { return &n }
func f64(f float64) *float64 { return &f }

// =============================================================================
// TOKEN COUNTING
// =============================================================================

func TestCountText(t *testing.T) {
	h := model.HistoryOf(
		model.NewSystemMessage("S"),
		model.NewUserMessage("Q1"),
		model.NewAssistantMessage("A1"),
		model.NewUserMessage("Q2"),
	)
	assert.Equal(t, "S Q1 A1 Q2answer", CountText(h, "answer"))
	assert.Equal(t, "tail", CountText(model.NewHistory(""), "tail"))
}

func TestTiktokenCounter_KnownModel(t *testing.T) {
	c := NewTiktokenCounter(nil)
	h := model.HistoryOf(model.NewUserMessage("hello"))

	got := c.Count("gpt-4", h, " world", 1)
	require.NotNil(t, got)
	assert.Equal(t, uint64(2), *got)
}

func TestTiktokenCounter_Deterministic(t *testing.T) {
	c := NewTiktokenCounter(nil)
	h := model.HistoryOf(
		model.NewSystemMessage("You are a helpful assistant."),
		model.NewUserMessage("How do I list files in a directory?"),
	)
	answer := "Use `ls -la` to list all files, including hidden ones."

	first := c.Count("gpt-3.5-turbo", h, answer, 12)
	second := NewTiktokenCounter(nil).Count("gpt-3.5-turbo", h, answer, 99)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
	assert.Positive(t, *first)
}

func TestTiktokenCounter_SpecialTokensAllowed(t *testing.T) {
	c := NewTiktokenCounter(nil)
	h := model.HistoryOf(model.NewUserMessage("<|endoftext|>"))

	got := c.Count("gpt-4", h, "", 0)
	require.NotNil(t, got)
	assert.Equal(t, uint64(1), *got)
}

func TestTiktokenCounter_UnknownModel(t *testing.T) {
	c := NewTiktokenCounter(nil)
	assert.Nil(t, c.Count("llama-3-70b", model.HistoryOf(model.NewUserMessage("hi")), "there", 3))
}

func TestFragmentCounter(t *testing.T) {
	got := FragmentCounter{}.Count("any-model", nil, "ignored", 7)
	require.NotNil(t, got)
	assert.Equal(t, uint64(7), *got)
}

func TestNewCounter(t *testing.T) {
	assert.IsType(t, FragmentCounter{}, NewCounter("fragments", nil))
	assert.IsType(t, &TiktokenCounter{}, NewCounter("tiktoken", nil))
}

// =============================================================================
// COST
// =============================================================================

func TestCost(t *testing.T) {
	cost, ok := Cost(u64(1000), f64(0.00003))
	assert.True(t, ok)
	assert.InDelta(t, 0.03, cost, 1e-12)

	_, ok = Cost(nil, f64(0.00003))
	assert.False(t, ok)

	_, ok = Cost(u64(1000), nil)
	assert.False(t, ok)
}

func TestFormatCost(t *testing.T) {
	assert.Equal(t, "(Cost: 1234 tokens, 0.0370 USD)", FormatCost(1234, 0.03702))
}

// =============================================================================
// LEDGER
// =============================================================================

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	l, err := OpenLedger(filepath.Join(t.TempDir(), "usage", "usage.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLedger_RecordAndTotals(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	session := NewSessionID()

	require.NoError(t, l.Record(ctx, UsageRecord{
		SessionID: session,
		Model:     "gpt-4",
		Tokens:    u64(100),
		Cost:      f64(0.003),
		Fragments: 40,
		Duration:  1500 * time.Millisecond,
	}))
	require.NoError(t, l.Record(ctx, UsageRecord{
		SessionID: session,
		Model:     "custom-model",
		Fragments: 10,
		Duration:  500 * time.Millisecond,
	}))

	totals, err := l.Totals(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 2, totals.Queries)
	assert.Equal(t, uint64(100), totals.Tokens)
	assert.InDelta(t, 0.003, totals.Cost, 1e-12)
	assert.Equal(t, 50, totals.Fragments)
	assert.Equal(t, 2*time.Second, totals.Duration)
}

func TestLedger_TotalsSince(t *testing.T) {
	l := openTestLedger(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, l.Record(ctx, UsageRecord{SessionID: "s", Model: "m", Tokens: u64(5), CreatedAt: now.Add(-48 * time.Hour)}))
	require.NoError(t, l.Record(ctx, UsageRecord{SessionID: "s", Model: "m", Tokens: u64(7), CreatedAt: now}))

	totals, err := l.Totals(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, totals.Queries)
	assert.Equal(t, uint64(7), totals.Tokens)
}

func TestLedger_EmptyTotals(t *testing.T) {
	totals, err := openTestLedger(t).Totals(context.Background(), time.Time{})
	require.NoError(t, err)
	assert.Equal(t, Totals{}, totals)
}

func TestLedger_Closed(t *testing.T) {
	l := openTestLedger(t)
	require.NoError(t, l.Close())
	require.NoError(t, l.Close())

	assert.ErrorIs(t, l.Record(context.Background(), UsageRecord{}), ErrLedgerClosed)
	_, err := l.Totals(context.Background(), time.Time{})
	assert.ErrorIs(t, err, ErrLedgerClosed)
}

func TestNewSessionID_Unique(t *testing.T) {
	assert.NotEqual(t, NewSessionID(), NewSessionID())
}
