package ai

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Loose accessors over decoded JSON. Every helper tolerates missing keys and wrong types.

func getMap(obj map[string]any, key string) map[string]any {
	if obj == nil {
		return nil
	}
	m, _ := obj[key].(map[string]any)
	return m
}

func getSlice(obj map[string]any, key string) []any {
	if obj == nil {
		return nil
	}
	s, _ := obj[key].([]any)
	return s
}

// getString returns the trimmed string value of the first key that holds a non-empty string
func getString(obj map[string]any, keys ...string) string {
	for _, key := range keys {
		if s, ok := obj[key].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func getBool(obj map[string]any, key string) (bool, bool) {
	b, ok := obj[key].(bool)
	return b, ok
}

// getNumber returns the first key holding a number. Numeric strings are accepted.
func getNumber(obj map[string]any, keys ...string) (float64, bool) {
	for _, key := range keys {
		if f, ok := toFloat(obj[key]); ok {
			return f, true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	return 0, false
}

// secondsToMs converts seconds to integer milliseconds, rounding half away from zero
func secondsToMs(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

// getMs reads a millisecond value, preferring msKey over secondsKey
func getMs(obj map[string]any, msKey, secondsKey string) (int64, bool) {
	if ms, ok := getNumber(obj, msKey); ok {
		return int64(math.Round(ms)), true
	}
	if s, ok := getNumber(obj, secondsKey); ok {
		return secondsToMs(s), true
	}
	return 0, false
}

// numberMap converts an id -> number object, skipping non-numeric entries
func numberMap(obj map[string]any) map[string]float64 {
	if obj == nil {
		return nil
	}
	out := make(map[string]float64, len(obj))
	for k, v := range obj {
		if f, ok := toFloat(v); ok {
			out[k] = f
		}
	}
	return out
}

// reduceRef collapses a participant reference to an id. Strings are taken as-is,
// objects yield speaker_id then speaker_name.
func reduceRef(v any) (string, bool) {
	switch ref := v.(type) {
	case string:
		if ref = strings.TrimSpace(ref); ref != "" {
			return ref, true
		}
	case map[string]any:
		if id := getString(ref, "speaker_id"); id != "" {
			return id, true
		}
		if name := getString(ref, "speaker_name"); name != "" {
			return name, true
		}
	}
	return "", false
}

// textOf reads list entries that may be bare strings or objects carrying a text field
func textOf(v any, keys ...string) string {
	switch item := v.(type) {
	case string:
		return strings.TrimSpace(item)
	case map[string]any:
		return getString(item, keys...)
	}
	return ""
}

func stringPtr(s string) *string { return &s }

func int64Ptr(i int64) *int64 { return &i }

func intPtr(i int) *int { return &i }
