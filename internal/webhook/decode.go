// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package webhook

import (
	"encoding/json"
	"strings"
)

// EmptyResponseNotice replaces a reply that decodes to nothing.
const EmptyResponseNotice = "Sorry, I received an empty response. Please try again."

// fragmentFields are consulted in order for streamed fragments.
var fragmentFields = []string{"content", "message", "text"}

// envelopeFields are consulted in order when the whole body is one object.
var envelopeFields = []string{"response", "message", "content"}

// DecodeResponse converts a raw endpoint body into display text.
//
// The body is split into newline fragments. JSON object fragments contribute
// their content, message or text field; an object of type "error" ends
// decoding. Other fragments not starting with '{' are kept as plain text
// lines. When that yields nothing, the body is read as a single envelope
// (response, message, content) and finally used verbatim. The result is
// trimmed and never empty.
func DecodeResponse(body string) string {
	out := decodeFragments(body)

	if strings.TrimSpace(out) == "" {
		if obj, ok := parseObject(body); ok {
			out = firstString(obj, envelopeFields)
		} else {
			out = body
		}
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return EmptyResponseNotice
	}
	return out
}

func decodeFragments(body string) string {
	var b strings.Builder
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSuffix(line, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		obj, ok := parseObject(trimmed)
		if !ok {
			// Broken JSON is dropped rather than shown.
			if !strings.HasPrefix(line, "{") {
				b.WriteString(line)
				b.WriteByte('\n')
			}
			continue
		}

		if t, _ := obj["type"].(string); t == "error" {
			break
		}
		b.WriteString(firstString(obj, fragmentFields))
	}
	return b.String()
}

// parseObject decodes s when it is exactly one JSON object.
func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func firstString(obj map[string]any, fields []string) string {
	for _, f := range fields {
		if v, ok := obj[f].(string); ok && v != "" {
			return v
		}
	}
	return ""
}
