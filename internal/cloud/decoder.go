// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/jeranaias/howto/internal/config"
)

// =============================================================================
// STREAMING CONSTANTS
// =============================================================================

const (
	// doneSentinel is the data value that marks the end of the stream.
	doneSentinel = "[DONE]"

	// readSize is the size of a single transport read in chunk framing,
	// and the line buffer size in buffered framing.
	readSize = 32 * 1024
)

// Framing selects how response bytes are split into lines.
type Framing int

const (
	// FramingBuffered carries partial lines across reads and ends at [DONE].
	FramingBuffered Framing = iota

	// FramingChunk splits every read on its own. Lines spanning two reads
	// are lost, and [DONE] only skips the rest of its read.
	FramingChunk
)

// ParseFraming maps a config value to a Framing. Unknown values select
// FramingBuffered.
func ParseFraming(s string) Framing {
	if s == config.FramingChunk {
		return FramingChunk
	}
	return FramingBuffered
}

func (f Framing) String() string {
	if f == FramingChunk {
		return config.FramingChunk
	}
	return config.FramingBuffered
}

// =============================================================================
// DECODER
// =============================================================================

// DecodeResult summarizes a decoded stream.
type DecodeResult struct {
	Answer    string
	Fragments int  // fragments delivered to the sink
	Warnings  int  // lines skipped with a ParseWarning
	Done      bool // the [DONE] sentinel was seen
}

// Decoder turns a streamed response body into content fragments.
type Decoder struct {
	framing Framing
	log     logrus.FieldLogger
}

// NewDecoder creates a decoder. A nil logger discards warnings.
func NewDecoder(framing Framing, log logrus.FieldLogger) *Decoder {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Decoder{framing: framing, log: log}
}

// Decode reads body until it ends and sends every content fragment to sink.
// It does not close sink. A read failure returns a *TransportError and a
// failed Send returns a *ChannelError; malformed lines are only warnings.
func (d *Decoder) Decode(body io.Reader, sink Sink) (DecodeResult, error) {
	st := &decodeState{sink: sink, log: d.log}

	var err error
	switch d.framing {
	case FramingChunk:
		err = st.decodeChunks(body)
	default:
		err = st.decodeLines(body)
	}
	return st.result(), err
}

// lineAction tells the framing loop what to do after a line.
type lineAction int

const (
	lineNext lineAction = iota
	lineDone
)

type decodeState struct {
	sink Sink
	log  logrus.FieldLogger

	answer    strings.Builder
	fragments int
	warnings  int
	done      bool
}

func (st *decodeState) result() DecodeResult {
	return DecodeResult{
		Answer:    st.answer.String(),
		Fragments: st.fragments,
		Warnings:  st.warnings,
		Done:      st.done,
	}
}

// decodeLines splits the whole body on newlines, buffering partial lines
// across reads.
func (st *decodeState) decodeLines(body io.Reader) error {
	r := bufio.NewReaderSize(body, readSize)
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			action, herr := st.handleLine(strings.ToValidUTF8(line, "\uFFFD"))
			if herr != nil {
				return herr
			}
			if action == lineDone {
				return nil
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &TransportError{Op: "read body", Err: err}
		}
	}
}

// decodeChunks decodes each read independently. Nothing is carried over
// from one read to the next.
func (st *decodeState) decodeChunks(body io.Reader) error {
	buf := make([]byte, readSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			txt := strings.ToValidUTF8(string(buf[:n]), "\uFFFD")
			st.log.Debugf("> RAW EVENT: %q", txt)

			for _, line := range splitLines(txt) {
				action, herr := st.handleLine(line)
				if herr != nil {
					return herr
				}
				if action == lineDone {
					break
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &TransportError{Op: "read body", Err: err}
		}
	}
}

// handleLine decodes one "key: value" line.
func (st *decodeState) handleLine(line string) (lineAction, error) {
	key, value, ok := strings.Cut(line, ":")
	if !ok {
		// Blank keep-alive lines are expected between events
		if strings.TrimSpace(line) != "" {
			st.warn(ParseWarning{Kind: WarnLineFormat, Line: line})
		}
		return lineNext, nil
	}
	if key != "data" {
		st.warn(ParseWarning{Kind: WarnUnexpectedKey, Line: line})
		return lineNext, nil
	}
	if strings.TrimSpace(value) == doneSentinel {
		st.done = true
		return lineDone, nil
	}

	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		st.warn(ParseWarning{Kind: WarnInvalidJSON, Line: line, Err: err})
		return lineNext, nil
	}
	st.log.Debugf("> PARSED: %v", parsed)

	obj, _ := parsed.(map[string]any)
	choices, ok := obj["choices"].([]any)
	if !ok {
		st.warn(ParseWarning{Kind: WarnNoChoices, Line: line})
		return lineNext, nil
	}

	for _, c := range choices {
		choice, _ := c.(map[string]any)
		delta, ok := choice["delta"].(map[string]any)
		if !ok {
			continue
		}
		if content, ok := delta["content"].(string); ok {
			if err := st.emit(content); err != nil {
				return lineNext, err
			}
		}
		// finish_reason ends this event's choices, not the stream
		if _, ok := delta["finish_reason"]; ok {
			break
		}
	}
	return lineNext, nil
}

// emit delivers a fragment before appending it, so the observer and the
// answer never diverge.
func (st *decodeState) emit(fragment string) error {
	if err := st.sink.Send(fragment); err != nil {
		return &ChannelError{Delivered: st.fragments, Err: err}
	}
	st.answer.WriteString(fragment)
	st.fragments++
	return nil
}

func (st *decodeState) warn(w ParseWarning) {
	st.warnings++
	st.log.WithField("kind", w.Kind.String()).Warn(w.String())
}

// splitLines splits txt into lines, dropping a trailing \r from each and
// not yielding an empty line after a final newline.
func splitLines(txt string) []string {
	if txt == "" {
		return nil
	}
	lines := strings.Split(txt, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
