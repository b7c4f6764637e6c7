// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import "sync"

// DefaultFragmentBuffer is the channel capacity used by callers that do not
// care. Fragment volume is bounded by the model's output length.
const DefaultFragmentBuffer = 256

// Sink receives decoded fragments in order.
// Close is called exactly once by the producer when decoding ends.
type Sink interface {
	Send(fragment string) error
	Close()
}

// FragmentChannel is a single-producer/single-consumer fragment channel
// whose consumer can hang up. Once detached, every Send fails with
// ErrReceiverGone.
type FragmentChannel struct {
	ch   chan string
	gone chan struct{}

	closeOnce  sync.Once
	detachOnce sync.Once
}

// NewFragmentChannel creates a channel buffering up to buffer fragments.
func NewFragmentChannel(buffer int) *FragmentChannel {
	return &FragmentChannel{
		ch:   make(chan string, buffer),
		gone: make(chan struct{}),
	}
}

// Fragments returns the receive side. It is closed when the producer is done.
func (f *FragmentChannel) Fragments() <-chan string {
	return f.ch
}

// Send delivers a fragment, blocking while the buffer is full.
func (f *FragmentChannel) Send(fragment string) error {
	select {
	case <-f.gone:
		return ErrReceiverGone
	default:
	}

	select {
	case f.ch <- fragment:
		return nil
	case <-f.gone:
		return ErrReceiverGone
	}
}

// Close marks the end of the stream. Safe to call more than once.
func (f *FragmentChannel) Close() {
	f.closeOnce.Do(func() { close(f.ch) })
}

// Detach is called by the consumer to stop receiving.
func (f *FragmentChannel) Detach() {
	f.detachOnce.Do(func() { close(f.gone) })
}
