// Package value provides primitives for coercing the loosely typed values
// that come out of edit forms and stored records.
//
// These helpers solve common problems:
//   - Type coercion (string "123" → number)
//   - Null/empty handling
//   - Delimited list normalization (tag strings)
//   - Bilingual values with secondary-language fallback
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// =============================================================================
// TEXT VALUES
// =============================================================================

// Text extracts a string from various representations.
// Handles: string, []byte, fmt.Stringer, json.Number, numeric types, nil
func Text(v any) string {
	if v == nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case json.Number:
		return val.String()
	case Multilingual:
		return val.Primary
	case fmt.Stringer:
		return val.String()
	case float64:
		if val == math.Trunc(val) && math.Abs(val) < 1e15 {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		if val == float32(int32(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case bool:
		if val {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}

// TextOption configures text extraction behavior.
type TextOption func(*textConfig)

type textConfig struct {
	delimiter string
	trimSpace bool
}

// WithDelimiter splits delimited strings into slices.
func WithDelimiter(sep string) TextOption {
	return func(c *textConfig) {
		c.delimiter = sep
	}
}

func applyTextOptions(s string, cfg *textConfig) string {
	if cfg.trimSpace {
		s = strings.TrimSpace(s)
	}
	return s
}

// TextSlice normalizes a value to []string.
// Handles: string, []string, []any, delimited strings, nil
func TextSlice(v any, opts ...TextOption) []string {
	cfg := &textConfig{trimSpace: true}
	for _, opt := range opts {
		opt(cfg)
	}

	if v == nil {
		return nil
	}

	var result []string

	switch val := v.(type) {
	case []string:
		result = append([]string(nil), val...)
	case []any:
		result = make([]string, 0, len(val))
		for _, item := range val {
			if s := Text(item); s != "" {
				result = append(result, s)
			}
		}
	case string:
		if cfg.delimiter != "" && strings.Contains(val, cfg.delimiter) {
			parts := strings.Split(val, cfg.delimiter)
			result = make([]string, 0, len(parts))
			for _, p := range parts {
				if s := strings.TrimSpace(p); s != "" {
					result = append(result, s)
				}
			}
		} else if val != "" {
			result = []string{val}
		}
	default:
		if s := Text(v); s != "" {
			if cfg.delimiter != "" && strings.Contains(s, cfg.delimiter) {
				return TextSlice(s, opts...)
			}
			result = []string{s}
		}
	}

	for i, s := range result {
		result[i] = applyTextOptions(s, cfg)
	}

	// Filter empty strings after processing
	filtered := result[:0]
	for _, s := range result {
		if s != "" {
			filtered = append(filtered, s)
		}
	}

	if len(filtered) == 0 {
		return nil
	}
	return filtered
}

// =============================================================================
// NUMERIC VALUES
// =============================================================================

// Number parses v as a finite number. Strings are trimmed first; an empty
// string is not a number.
func Number(v any) (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case float64:
		return val, !math.IsNaN(val) && !math.IsInf(val, 0)
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case int32:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// =============================================================================
// BOOLEAN VALUES
// =============================================================================

// Bool extracts a boolean from various representations.
// Handles: bool, int (0/1), string ("true"/"false"/"1"/"0"/"yes"/"no"), nil
func Bool(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case int:
		return val != 0
	case int64:
		return val != 0
	case float64:
		return val != 0
	case json.Number:
		i, _ := val.Int64()
		return i != 0
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		return s == "true" || s == "1" || s == "yes" || s == "on"
	default:
		return false
	}
}

// =============================================================================
// EMPTINESS
// =============================================================================

// IsSet reports whether v holds something other than nil or the empty
// string. Booleans and zero numbers count as set.
func IsSet(v any) bool {
	if v == nil {
		return false
	}
	if s, ok := v.(string); ok {
		return s != ""
	}
	return true
}

// IsBlank reports whether v carries no usable content: nil, a
// whitespace-only string, or an empty list or map. A Multilingual value is
// never blank on its own; its primary text is checked separately.
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []string:
		return len(val) == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
