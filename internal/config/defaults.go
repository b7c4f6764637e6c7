// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"strings"

	"github.com/MakeNowJust/heredoc"
)

// DefaultPrimingMsg primes the assistant as a Linux sysops expert.
var DefaultPrimingMsg = trimLines(heredoc.Doc(`
	This is a chat where experts give tested, modern answers to Debian Linux,
	Sysops, Proxmox and networking questions. Answers are very compact, well-indented Markdown.
	They value ultra short answer and don't waste reader's time with greetings and long-winded
	explanations - but will warn you when the answer might be dangerous, and explain if it's
	potentially hard to understand even for a pro.
`))

// DefaultSubjectMsg introduces the optional subject argument; {} is replaced
// by the subject.
const DefaultSubjectMsg = "Topic '{}'. Help me with the following task:"

// FormatINIMultiline renders a multi-line value as an INI continuation:
// every line but the first is indented and lines are joined by \n\.
func FormatINIMultiline(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "    " + l
	}
	return strings.TrimLeft(strings.Join(lines, "\\n\\\n"), " ")
}

// ExampleINI returns a sample configuration file.
func ExampleINI() string {
	return fmt.Sprintf(heredoc.Doc(`
		[default]
		openai_token = sk-1234567890123456789012345678901234567890
		; --- These are optional: ---
		chat = true                     ; If true, wait for a new question after each answer
		model = "%s"
		temperature = %v
		cost_per_token = 0.000002       ; No default, won't show query cost if missing
		timeout = %d                    ; Seconds, covers the whole streamed answer
		stream_framing = %s             ; "buffered" or "chunk"
		token_counter = %s            ; "tiktoken" or "fragments"
		usage_db = ~/.howto-usage.db    ; Optional sqlite usage ledger
		subject_msg = "%s"
		priming_msg = "%s"`),
		DefaultModel, DefaultTemperature, DefaultTimeoutSecs, FramingBuffered, CounterTiktoken,
		FormatINIMultiline(DefaultSubjectMsg), FormatINIMultiline(DefaultPrimingMsg))
}
