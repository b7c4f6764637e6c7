// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"fmt"
	"sort"
	"strings"
)

// Tokenizer encodings understood by the token counter.
const (
	EncodingCL100K   = "cl100k_base"
	EncodingO200K    = "o200k_base"
	EncodingP50K     = "p50k_base"
	EncodingP50KEdit = "p50k_edit"
	EncodingR50K     = "r50k_base"
)

// =============================================================================
// MODEL INFO TYPE
// =============================================================================

// ModelInfo describes a known chat model.
type ModelInfo struct {
	// ID is the model identifier used in API calls
	ID string

	// Encoding is the tokenizer encoding used to estimate usage
	Encoding string

	// MaxTokens is the context window size
	MaxTokens int
}

// =============================================================================
// MODEL REGISTRY
// =============================================================================

// Models is the fixed table of models with a known tokenizer.
var Models = map[string]ModelInfo{
	"gpt-4o":                 {ID: "gpt-4o", Encoding: EncodingO200K, MaxTokens: 128000},
	"gpt-4o-mini":            {ID: "gpt-4o-mini", Encoding: EncodingO200K, MaxTokens: 128000},
	"gpt-4-turbo":            {ID: "gpt-4-turbo", Encoding: EncodingCL100K, MaxTokens: 128000},
	"gpt-4-turbo-preview":    {ID: "gpt-4-turbo-preview", Encoding: EncodingCL100K, MaxTokens: 128000},
	"gpt-4":                  {ID: "gpt-4", Encoding: EncodingCL100K, MaxTokens: 8192},
	"gpt-4-32k":              {ID: "gpt-4-32k", Encoding: EncodingCL100K, MaxTokens: 32768},
	"gpt-3.5-turbo":          {ID: "gpt-3.5-turbo", Encoding: EncodingCL100K, MaxTokens: 16385},
	"gpt-3.5-turbo-16k":      {ID: "gpt-3.5-turbo-16k", Encoding: EncodingCL100K, MaxTokens: 16385},
	"text-davinci-003":       {ID: "text-davinci-003", Encoding: EncodingP50K, MaxTokens: 4097},
	"text-davinci-002":       {ID: "text-davinci-002", Encoding: EncodingP50K, MaxTokens: 4097},
	"code-davinci-002":       {ID: "code-davinci-002", Encoding: EncodingP50K, MaxTokens: 8001},
	"text-davinci-edit-001":  {ID: "text-davinci-edit-001", Encoding: EncodingP50KEdit, MaxTokens: 2049},
	"code-davinci-edit-001":  {ID: "code-davinci-edit-001", Encoding: EncodingP50KEdit, MaxTokens: 2049},
	"text-davinci-001":       {ID: "text-davinci-001", Encoding: EncodingR50K, MaxTokens: 2049},
	"davinci":                {ID: "davinci", Encoding: EncodingR50K, MaxTokens: 2049},
	"text-embedding-ada-002": {ID: "text-embedding-ada-002", Encoding: EncodingCL100K, MaxTokens: 8191},
}

// modelPrefixes maps dated or fine-tuned model families to their encoding.
// Longer prefixes must come first.
var modelPrefixes = []struct {
	prefix   string
	encoding string
}{
	{"gpt-4o-", EncodingO200K},
	{"gpt-4-", EncodingCL100K},
	{"gpt-3.5-turbo-", EncodingCL100K},
	{"gpt-35-turbo-", EncodingCL100K},
	{"ft:gpt-4", EncodingCL100K},
	{"ft:gpt-3.5-turbo", EncodingCL100K},
	{"ft:davinci-002", EncodingCL100K},
}

// =============================================================================
// MODEL LOOKUP FUNCTIONS
// =============================================================================

// EncodingFor returns the tokenizer encoding for a model ID.
// Returns false when the model has no known encoding.
func EncodingFor(id string) (string, bool) {
	if info, ok := Models[id]; ok {
		return info.Encoding, true
	}
	for _, p := range modelPrefixes {
		if strings.HasPrefix(id, p.prefix) {
			return p.encoding, true
		}
	}
	return "", false
}

// ContextString returns a formatted context window size.
func (m ModelInfo) ContextString() string {
	if m.MaxTokens >= 1000 {
		return fmt.Sprintf("%dK tokens", m.MaxTokens/1000)
	}
	return fmt.Sprintf("%d tokens", m.MaxTokens)
}

// ModelIDs returns the sorted IDs of every registered model.
func ModelIDs() []string {
	ids := make([]string, 0, len(Models))
	for id := range Models {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
