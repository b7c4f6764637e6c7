// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

// chunkReader returns one chunk per Read call, then err (io.EOF by default).
type chunkReader struct {
	chunks []string
	err    error
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.err != nil {
			return 0, r.err
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func chunks(parts ...string) *chunkReader {
	return &chunkReader{chunks: parts}
}

// recordingSink records fragments; it fails every Send after failAfter
// successful ones when failAfter >= 0.
type recordingSink struct {
	fragments []string
	failAfter int
	closed    bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{failAfter: -1}
}

func (s *recordingSink) Send(f string) error {
	if s.failAfter >= 0 && len(s.fragments) >= s.failAfter {
		return ErrReceiverGone
	}
	s.fragments = append(s.fragments, f)
	return nil
}

func (s *recordingSink) Close() { s.closed = true }

func contentLine(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n"
}

var bothFramings = []Framing{FramingBuffered, FramingChunk}

// =============================================================================
// BASIC DECODING
// =============================================================================

func TestDecode_SingleFragmentThenDone(t *testing.T) {
	for _, framing := range bothFramings {
		t.Run(framing.String(), func(t *testing.T) {
			sink := newRecordingSink()
			body := chunks(contentLine("Hi") + "\n" + "data: [DONE]\n\n")

			res, err := NewDecoder(framing, nil).Decode(body, sink)
			require.NoError(t, err)

			assert.Equal(t, "Hi", res.Answer)
			assert.Equal(t, []string{"Hi"}, sink.fragments)
			assert.Equal(t, 1, res.Fragments)
			assert.True(t, res.Done)
			assert.Zero(t, res.Warnings)
			assert.False(t, sink.closed, "Decode must not close the sink")
		})
	}
}

func TestDecode_FragmentsConcatenateToAnswer(t *testing.T) {
	inputs := [][]string{
		{contentLine("a") + contentLine("b") + contentLine("c")},
		{contentLine("Hello"), contentLine(", "), contentLine("world"), "data: [DONE]\n"},
		{"\n\n", contentLine("x"), "garbage\n", contentLine("y"), "event: ping\n", contentLine("z")},
		{`data: {"choices":[{"delta":{"content":"multi"}},{"delta":{"content":"choice"}}]}` + "\n"},
		{`data: {"choices":[{"delta":{"role":"assistant"}}]}` + "\n", contentLine("")},
	}

	for _, framing := range bothFramings {
		for i, in := range inputs {
			sink := newRecordingSink()
			res, err := NewDecoder(framing, nil).Decode(chunks(in...), sink)
			require.NoError(t, err, "framing %s input %d", framing, i)
			assert.Equal(t, strings.Join(sink.fragments, ""), res.Answer, "framing %s input %d", framing, i)
			assert.Equal(t, len(sink.fragments), res.Fragments)
		}
	}
}

func TestDecode_LineWithoutColonIsSkipped(t *testing.T) {
	for _, framing := range bothFramings {
		t.Run(framing.String(), func(t *testing.T) {
			sink := newRecordingSink()
			body := chunks("this line has no separator\n" + contentLine("still here"))

			res, err := NewDecoder(framing, nil).Decode(body, sink)
			require.NoError(t, err)
			assert.Equal(t, "still here", res.Answer)
			assert.Equal(t, 1, res.Warnings)
		})
	}
}

func TestDecode_BlankLinesAreSilent(t *testing.T) {
	res, err := NewDecoder(FramingBuffered, nil).Decode(chunks("\n   \n\r\n"+contentLine("ok")), newRecordingSink())
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Answer)
	assert.Zero(t, res.Warnings)
}

func TestDecode_Warnings(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"unexpected key", "event: message\n"},
		{"comment line", ": keep-alive\n"},
		{"invalid json", "data: {not json\n"},
		{"missing choices", `data: {"id":"x"}` + "\n"},
		{"choices not an array", `data: {"choices":"nope"}` + "\n"},
		{"scalar payload", "data: 42\n"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sink := newRecordingSink()
			res, err := NewDecoder(FramingBuffered, nil).Decode(chunks(tc.line+contentLine("after")), sink)
			require.NoError(t, err)
			assert.Equal(t, 1, res.Warnings)
			assert.Equal(t, "after", res.Answer)
		})
	}
}

func TestDecode_NonStringContentIgnored(t *testing.T) {
	body := chunks(`data: {"choices":[{"delta":{"content":7}},{"delta":{"content":null}},{"delta":{"content":"ok"}}]}` + "\n")
	res, err := NewDecoder(FramingBuffered, nil).Decode(body, newRecordingSink())
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Answer)
	assert.Equal(t, 1, res.Fragments)
}

func TestDecode_FinishReasonStopsRemainingChoicesOnly(t *testing.T) {
	body := chunks(
		`data: {"choices":[{"delta":{"content":"A","finish_reason":null}},{"delta":{"content":"skipped"}}]}`+"\n",
		contentLine("B"),
	)
	sink := newRecordingSink()
	res, err := NewDecoder(FramingBuffered, nil).Decode(body, sink)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, sink.fragments)
	assert.Equal(t, "AB", res.Answer)
}

// =============================================================================
// FRAMING DIFFERENCES
// =============================================================================

func TestDecode_EventSplitAcrossReads(t *testing.T) {
	line := contentLine("split")
	mid := len(line) / 2

	t.Run("buffered recovers", func(t *testing.T) {
		res, err := NewDecoder(FramingBuffered, nil).Decode(chunks(line[:mid], line[mid:]), newRecordingSink())
		require.NoError(t, err)
		assert.Equal(t, "split", res.Answer)
		assert.Zero(t, res.Warnings)
	})

	t.Run("chunk drops with warnings", func(t *testing.T) {
		res, err := NewDecoder(FramingChunk, nil).Decode(chunks(line[:mid], line[mid:]), newRecordingSink())
		require.NoError(t, err)
		assert.Equal(t, "", res.Answer)
		assert.Positive(t, res.Warnings)
	})
}

func TestDecode_DoneSentinel(t *testing.T) {
	body := func() io.Reader {
		return chunks(
			contentLine("one")+"data: [DONE]\n"+contentLine("same-read"),
			contentLine("next-read"),
		)
	}

	t.Run("buffered ends the stream", func(t *testing.T) {
		res, err := NewDecoder(FramingBuffered, nil).Decode(body(), newRecordingSink())
		require.NoError(t, err)
		assert.Equal(t, "one", res.Answer)
		assert.True(t, res.Done)
	})

	t.Run("chunk skips the rest of the read only", func(t *testing.T) {
		res, err := NewDecoder(FramingChunk, nil).Decode(body(), newRecordingSink())
		require.NoError(t, err)
		assert.Equal(t, "onenext-read", res.Answer)
		assert.True(t, res.Done)
	})
}

func TestDecode_EndWithoutDoneSucceeds(t *testing.T) {
	for _, framing := range bothFramings {
		res, err := NewDecoder(framing, nil).Decode(chunks(contentLine("no sentinel")), newRecordingSink())
		require.NoError(t, err)
		assert.Equal(t, "no sentinel", res.Answer)
		assert.False(t, res.Done)
	}
}

func TestDecode_FinalLineWithoutNewline(t *testing.T) {
	line := strings.TrimSuffix(contentLine("tail"), "\n")
	res, err := NewDecoder(FramingBuffered, nil).Decode(chunks(line), newRecordingSink())
	require.NoError(t, err)
	assert.Equal(t, "tail", res.Answer)
}

func TestDecode_CRLF(t *testing.T) {
	raw := strings.ReplaceAll(contentLine("a")+contentLine("b")+"data: [DONE]\n", "\n", "\r\n")
	for _, framing := range bothFramings {
		res, err := NewDecoder(framing, nil).Decode(chunks(raw), newRecordingSink())
		require.NoError(t, err)
		assert.Equal(t, "ab", res.Answer)
		assert.True(t, res.Done)
		assert.Zero(t, res.Warnings)
	}
}

// =============================================================================
// FATAL ERRORS
// =============================================================================

func TestDecode_ReceiverGoneIsFatal(t *testing.T) {
	for _, framing := range bothFramings {
		t.Run(framing.String(), func(t *testing.T) {
			sink := newRecordingSink()
			sink.failAfter = 2
			body := chunks(contentLine("1") + contentLine("2") + contentLine("3") + contentLine("4"))

			res, err := NewDecoder(framing, nil).Decode(body, sink)
			require.Error(t, err)

			var chErr *ChannelError
			require.True(t, errors.As(err, &chErr))
			assert.Equal(t, 2, chErr.Delivered)
			assert.True(t, errors.Is(err, ErrReceiverGone))

			// Nothing after the failed send is processed
			assert.Equal(t, []string{"1", "2"}, sink.fragments)
			assert.Equal(t, "12", res.Answer)
		})
	}
}

func TestDecode_ReadErrorIsTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	for _, framing := range bothFramings {
		body := &chunkReader{chunks: []string{contentLine("partial")}, err: boom}
		res, err := NewDecoder(framing, nil).Decode(body, newRecordingSink())

		var tErr *TransportError
		require.True(t, errors.As(err, &tErr), "framing %s: %v", framing, err)
		assert.Equal(t, "read body", tErr.Op)
		assert.True(t, errors.Is(err, boom))
		assert.Equal(t, "partial", res.Answer)
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func TestSplitLines(t *testing.T) {
	assert.Nil(t, splitLines(""))
	assert.Equal(t, []string{"a", "b"}, splitLines("a\nb\n"))
	assert.Equal(t, []string{"a", "", "b"}, splitLines("a\r\n\r\nb"))
}

func TestParseFraming(t *testing.T) {
	assert.Equal(t, FramingChunk, ParseFraming("chunk"))
	assert.Equal(t, FramingBuffered, ParseFraming("buffered"))
	assert.Equal(t, FramingBuffered, ParseFraming(""))
}
