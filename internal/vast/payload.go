package vast

import (
	"encoding/json"
	"strings"
)

// ExtractJSON locates the JSON payload inside CLI output that may carry
// banner text, upgrade notices or warnings before and after it. It returns
// the payload substring and whether one was found.
//
// The scan finds the first '{' or '[' and walks forward tracking bracket
// nesting, respecting string literals and escapes, until the opening bracket
// closes.
func ExtractJSON(output string) (string, bool) {
	start := -1
	for i, r := range output {
		if r == '{' || r == '[' {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(output); i++ {
		ch := output[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				candidate := output[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}

// DecodeLoose parses s as JSON, falling back to payload extraction when the
// string carries surrounding text. It returns false when no JSON could be
// decoded.
func DecodeLoose(s string, v any) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false
	}
	if json.Unmarshal([]byte(trimmed), v) == nil {
		return true
	}
	payload, ok := ExtractJSON(trimmed)
	if !ok {
		return false
	}
	return json.Unmarshal([]byte(payload), v) == nil
}
