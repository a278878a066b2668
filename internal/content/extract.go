// Package content validates LLM article payloads and assembles the final HTML.
package content

import (
	"encoding/json"
	"errors"
	"strings"
)

var errNoJSONObject = errors.New("no JSON object found in model output")

// ExtractJSONObject returns the first balanced, well-formed JSON object in raw.
// Code fences are stripped first; braces inside strings are ignored.
func ExtractJSONObject(raw string) (string, error) {
	text := trimCodeFence(raw)
	for start := 0; start < len(text); start++ {
		next := strings.IndexByte(text[start:], '{')
		if next < 0 {
			break
		}
		start += next
		end := matchBrace(text, start)
		if end < 0 {
			continue
		}
		if candidate := text[start : end+1]; json.Valid([]byte(candidate)) {
			return candidate, nil
		}
	}
	return "", errNoJSONObject
}

// matchBrace returns the index of the brace closing the one at start, or -1.
func matchBrace(text string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
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
				return i
			}
		}
	}
	return -1
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	idx := strings.Index(trimmed, "```")
	if idx < 0 {
		return trimmed
	}
	rest := trimmed[idx+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.ContainsAny(rest[:nl], "{}") {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	if !strings.Contains(rest, "{") {
		return trimmed
	}
	return strings.TrimSpace(rest)
}
