// Package jsonextract recovers a single JSON object from noisy LLM output:
// markdown code fences, leading/trailing prose, and embedded braces inside
// quoted strings that a naive first-brace/last-brace split would mis-handle.
package jsonextract

import (
	"errors"
	"strings"
)

var ErrNoJSONObject = errors.New("jsonextract: no balanced JSON object found")

// Extract strips ``` code fences and returns the first balanced top-level
// JSON object in s, scanning string/escape state so braces inside quoted
// strings never confuse the matcher.
func Extract(s string) (string, error) {
	s = stripFences(s)

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", ErrNoJSONObject
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], nil
			}
		}
	}

	return "", ErrNoJSONObject
}

// stripFences removes a wrapping ```json ... ``` or ``` ... ``` fence, if
// present, leaving interior content untouched.
func stripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return s
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	if nl := strings.IndexByte(trimmed, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(trimmed[:nl])
		if firstLine == "" || strings.EqualFold(firstLine, "json") {
			trimmed = trimmed[nl+1:]
		}
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return trimmed
}
