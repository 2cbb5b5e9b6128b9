package llm

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// StripCodeFences removes a surrounding markdown code fence. Models often
// add one despite being told not to.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if idx := strings.Index(s, "\n"); idx != -1 {
		s = s[idx+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// ExtractJSON returns the first complete JSON object or array in a
// completion, ignoring code fences and any prose around it.
func ExtractJSON(completion string) (string, error) {
	text := StripCodeFences(completion)
	if text == "" {
		return "", ErrEmptyResponse
	}
	if gjson.Valid(text) && (text[0] == '{' || text[0] == '[') {
		return text, nil
	}

	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(text[i:])).Decode(&raw); err != nil {
			continue
		}
		if gjson.ValidBytes(raw) {
			return string(raw), nil
		}
	}
	return "", ErrNoJSON
}
