package testutil

import (
	"bytes"
	"encoding/json"
	"regexp"
	"testing"
)

// VolatileKeys are JSON object keys whose values change between runs.
var VolatileKeys = map[string]string{
	"loadedAt":   "<TIME>",
	"timestamp":  "<TIME>",
	"requestId":  "<REQUEST_ID>",
	"durationMs": "<DURATION>",
}

var tempPathRe = regexp.MustCompile(`(/tmp|/var/folders|[A-Za-z]:\\\\Users\\\\[^"]*?\\\\Temp)[^"\s]*`)

// NormalizeJSON re-encodes data with sorted keys and two-space indent,
// masks VolatileKeys and temporary directory paths. A trailing newline is
// always present.
func NormalizeJSON(t *testing.T, data []byte) []byte {
	t.Helper()

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("Failed to unmarshal data for normalization: %v\n%s", err, data)
	}
	v = normalizeValue(v)

	// Masks contain < and >, which the default encoder would escape.
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		t.Fatalf("Failed to marshal normalized data: %v", err)
	}
	return buf.Bytes()
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		for k, child := range val {
			if mask, ok := VolatileKeys[k]; ok {
				val[k] = mask
				continue
			}
			val[k] = normalizeValue(child)
		}
		return val
	case []any:
		for i, child := range val {
			val[i] = normalizeValue(child)
		}
		return val
	case string:
		return tempPathRe.ReplaceAllString(val, "<TMP>")
	default:
		return v
	}
}
