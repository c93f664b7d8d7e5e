package models

import "encoding/json"

// JSON text columns written by earlier pipeline versions may hold
// malformed data; readers treat anything that fails to parse as
// absent rather than erroring.

// DecodeStringSlice parses a JSON array of strings, returning nil on
// any parse failure.
func DecodeStringSlice(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// DecodeMap parses a JSON object, returning nil on any parse failure.
func DecodeMap(raw string) map[string]any {
	if raw == "" {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

// EncodeJSON marshals v, returning the empty string when it cannot be
// encoded.
func EncodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
