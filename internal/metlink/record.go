package metlink

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is a loosely typed upstream row. The Metlink API advertises JSON
// schemas but does not reliably follow them: identifiers flip between
// numbers and strings, optional fields go missing, and nulls appear where
// the schema promises values. Every field is therefore accessed through
// tolerant coercing getters and converted to typed domain values only once
// validated at the matcher/normalizer boundary.
type Record map[string]any

// String returns the value under key coerced to string form. Numeric values
// are rendered without a trailing ".0" so that a JSON number 83 and the
// string "83" compare equal. Missing, null, or uncoercible values yield "".
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Int returns the value under key as an integer, accepting JSON numbers and
// numeric strings. The second return reports whether a usable value existed.
func (r Record) Int(key string) (int, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return int(t), true
	case json.Number:
		n, err := t.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// Float returns the value under key as a float64 when present and numeric.
func (r Record) Float(key string) (float64, bool) {
	v, ok := r[key]
	if !ok || v == nil {
		return 0, false
	}
	switch t := v.(type) {
	case float64:
		return t, true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Map returns a nested object under key, or nil when absent or mistyped.
func (r Record) Map(key string) Record {
	v, ok := r[key]
	if !ok {
		return nil
	}
	if m, ok := v.(map[string]any); ok {
		return Record(m)
	}
	return nil
}

// Slice returns a nested array of objects under key. Non-object elements
// are dropped rather than propagated.
func (r Record) Slice(key string) []Record {
	v, ok := r[key]
	if !ok {
		return nil
	}
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Record, 0, len(raw))
	for _, e := range raw {
		if m, ok := e.(map[string]any); ok {
			out = append(out, Record(m))
		}
	}
	return out
}

// DecodeRecords parses a JSON payload expected to be an array of objects.
// A single object is wrapped into a one-element slice; anything else yields
// an empty slice rather than an error, since upstream payload shape is
// advisory only.
func DecodeRecords(data []byte) []Record {
	var arr []any
	if err := json.Unmarshal(data, &arr); err == nil {
		out := make([]Record, 0, len(arr))
		for _, e := range arr {
			if m, ok := e.(map[string]any); ok {
				out = append(out, Record(m))
			}
		}
		return out
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err == nil {
		return []Record{Record(obj)}
	}
	return nil
}
