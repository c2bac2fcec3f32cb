package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFence removes surrounding markdown code-fence markers from a model
// response, leaving the JSON body.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// CanonicalizeJSON parses raw bytes and re-serializes them, guaranteeing the
// result is syntactically valid JSON regardless of the response's formatting
// quirks. A parse failure aborts; there is no partial recovery.
func CanonicalizeJSON(raw []byte) ([]byte, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("re-serialize response: %w", err)
	}
	return out, nil
}
