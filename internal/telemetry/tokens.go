// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"io"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
	"github.com/sirupsen/logrus"

	"github.com/jeranaias/howto/internal/config"
	"github.com/jeranaias/howto/internal/model"
)

// TokenCounter estimates the tokens used by a completed exchange.
// It returns nil when no estimate can be made.
type TokenCounter interface {
	Count(modelID string, history *model.History, answer string, fragments int) *uint64
}

// NewCounter returns the counter for a token_counter config value.
// Unknown values select the tiktoken counter.
func NewCounter(strategy string, log logrus.FieldLogger) TokenCounter {
	if strategy == config.CounterFragments {
		return FragmentCounter{}
	}
	return NewTiktokenCounter(log)
}

// =============================================================================
// TIKTOKEN COUNTER
// =============================================================================

var loaderOnce sync.Once

// TiktokenCounter counts BPE tokens over the history contents joined by a
// single space, followed directly by the answer. Special tokens are allowed.
// Models without a known encoding produce no count.
type TiktokenCounter struct {
	log logrus.FieldLogger

	mu        sync.Mutex
	encodings map[string]*tiktoken.Tiktoken
}

// NewTiktokenCounter creates a counter that loads encodings from the
// vocabularies bundled into the binary, so counting never touches the network.
func NewTiktokenCounter(log logrus.FieldLogger) *TiktokenCounter {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &TiktokenCounter{
		log:       log,
		encodings: make(map[string]*tiktoken.Tiktoken),
	}
}

// Count implements TokenCounter. fragments is unused.
func (c *TiktokenCounter) Count(modelID string, history *model.History, answer string, _ int) *uint64 {
	name, ok := model.EncodingFor(modelID)
	if !ok {
		c.log.Debugf("Cannot find tokenizer for model: %s", modelID)
		return nil
	}

	enc, err := c.encoding(name)
	if err != nil {
		c.log.WithError(err).Debugf("Failed to load tokenizer %s", name)
		return nil
	}

	n := uint64(len(enc.Encode(CountText(history, answer), []string{"all"}, nil)))
	return &n
}

func (c *TiktokenCounter) encoding(name string) (*tiktoken.Tiktoken, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if enc, ok := c.encodings[name]; ok {
		return enc, nil
	}
	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, err
	}
	c.encodings[name] = enc
	return enc, nil
}

// CountText builds the text whose tokens are counted: every history
// content joined by one space, with the answer appended without a separator.
func CountText(history *model.History, answer string) string {
	return strings.Join(history.Contents(), " ") + answer
}

// =============================================================================
// FRAGMENT COUNTER
// =============================================================================

// FragmentCounter approximates usage as one token per streamed fragment.
type FragmentCounter struct{}

// Count implements TokenCounter.
func (FragmentCounter) Count(_ string, _ *model.History, _ string, fragments int) *uint64 {
	n := uint64(fragments)
	return &n
}
