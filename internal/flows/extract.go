package flows

import (
	"bytes"
	"encoding/json"
)

// TokenFields decodes a JSON object body into a field map. Any body that is
// not a JSON object — arrays, scalars, malformed documents, empty bodies —
// yields nil rather than an error; token-bearing responses are scanned on a
// best-effort basis.
func TokenFields(body []byte) map[string]any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil
	}
	return fields
}

// StringField returns the value of the named field when it exists and is
// string-typed. A missing field, a non-string value, and an empty string all
// count as "not present".
func StringField(fields map[string]any, key string) (string, bool) {
	if fields == nil || key == "" {
		return "", false
	}

	value, ok := fields[key].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}
