// Package signature authenticates maib callback notifications.
//
// The processor signs the callback's "result" object: nested maps are sorted
// by key (byte order), the shared signature key is appended as the last
// top-level element, the tree is flattened depth-first into scalar strings
// joined with ":", and the SHA-256 digest of that string is base64-encoded.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// Sign computes the expected signature for a decoded result payload. The
// payload must come from a json.Decoder with UseNumber so numeric scalars
// keep their wire text until rendering.
func Sign(result map[string]any, key string) string {
	parts := flattenMap(result)
	parts = append(parts, key)
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Verify reports whether the received signature matches the payload. The
// comparison is constant-time; a forged notification must never influence
// timing.
func Verify(result map[string]any, key, received string) bool {
	expected := Sign(result, key)
	return hmac.Equal([]byte(expected), []byte(received))
}

// DecodeBody splits a raw callback body into its result tree and signature.
func DecodeBody(body []byte) (map[string]any, string, bool) {
	var notification struct {
		Result    json.RawMessage `json:"result"`
		Signature string          `json:"signature"`
	}
	if err := json.Unmarshal(body, &notification); err != nil {
		return nil, "", false
	}
	if len(notification.Result) == 0 || notification.Signature == "" {
		return nil, "", false
	}

	dec := json.NewDecoder(strings.NewReader(string(notification.Result)))
	dec.UseNumber()
	var result map[string]any
	if err := dec.Decode(&result); err != nil {
		return nil, "", false
	}
	return result, notification.Signature, true
}

// flattenMap walks map entries in sorted key order. Only maps are sorted;
// list elements keep their original order.
func flattenMap(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []string
	for _, k := range keys {
		out = append(out, flattenValue(m[k])...)
	}
	return out
}

func flattenList(list []any) []string {
	var out []string
	for _, v := range list {
		out = append(out, flattenValue(v)...)
	}
	return out
}

func flattenValue(v any) []string {
	switch value := v.(type) {
	case map[string]any:
		return flattenMap(value)
	case []any:
		return flattenList(value)
	default:
		return []string{renderScalar(value)}
	}
}

// renderScalar mirrors the string casts the processor applies when signing:
// trailing zeros are dropped from decimals (100.00 signs as "100"), true is
// "1", false and null are empty.
func renderScalar(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		if value {
			return "1"
		}
		return ""
	case json.Number:
		return renderNumber(string(value))
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(value, 10)
	case int:
		return strconv.Itoa(value)
	default:
		return ""
	}
}

func renderNumber(text string) string {
	if !strings.ContainsAny(text, ".eE") {
		return text
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return text
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
