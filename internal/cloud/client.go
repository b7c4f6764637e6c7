// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"crypto/tls"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the completions API.
const (
	// CompletionsPath is appended to the configured base URL.
	CompletionsPath = "/chat/completions"

	// MaxErrorBodySize caps how much of an error response is read.
	MaxErrorBodySize = 1024 * 1024
)

// sharedStreamingClient is used for streaming requests. It has no overall
// timeout: the query deadline is carried by the request context so that it
// also covers reading the body.
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// CompletionsURL returns the completions endpoint for a base URL.
func CompletionsURL(baseURL string) string {
	return strings.TrimRight(baseURL, "/") + CompletionsPath
}

// setHeaders sets the headers of a streaming completion request.
func setHeaders(req *http.Request, token string) {
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")
}
