// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud implements the streaming chat-completion engine.
//
// A query is a single POST to the completions endpoint with "stream": true.
// The response body is decoded line by line into content fragments, which
// are forwarded to an observer as they arrive and concatenated into the
// final answer.
//
// # Key Types
//
//   - Engine: Issues one streaming request per Submit call, no retries
//   - Decoder: Turns a response body into fragments and an answer
//   - FragmentChannel: Single-producer/single-consumer observer channel
//   - TransportError, ProtocolError, ChannelError: Fatal query failures
//   - ParseWarning: Malformed stream lines, logged and skipped
//
// # Usage
//
//	engine := cloud.NewEngine(counter)
//	frags := cloud.NewFragmentChannel(cloud.DefaultFragmentBuffer)
//	go func() {
//	    for f := range frags.Fragments() {
//	        fmt.Print(f)
//	    }
//	}()
//	res, err := engine.Submit(ctx, cfg, history.Clone(), frags)
//
// # Framing
//
// The default "buffered" framing carries partial lines across network
// reads and stops at the [DONE] sentinel. The "chunk" framing decodes every
// read on its own: a line split across two reads is dropped with a warning,
// and [DONE] only skips the rest of the read it appears in.
package cloud
