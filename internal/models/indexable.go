package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The vector index only accepts scalar metadata values, so arbitrary caller
// metadata is flattened through IndexableValue: a small sum type over the
// three scalar kinds the index can store.

type valueKind int

const (
	kindString valueKind = iota
	kindNumber
	kindBool
)

// IndexableValue is one scalar metadata value: a string, a number or a bool.
type IndexableValue struct {
	kind valueKind
	str  string
	num  float64
	b    bool
}

// String wraps a string value.
func String(s string) IndexableValue { return IndexableValue{kind: kindString, str: s} }

// Number wraps a numeric value.
func Number(n float64) IndexableValue { return IndexableValue{kind: kindNumber, num: n} }

// Bool wraps a boolean value.
func Bool(b bool) IndexableValue { return IndexableValue{kind: kindBool, b: b} }

// String renders the value as the index would store it.
func (v IndexableValue) String() string {
	switch v.kind {
	case kindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case kindBool:
		return strconv.FormatBool(v.b)
	default:
		return v.str
	}
}

// Float returns the numeric value and whether the value is a number.
func (v IndexableValue) Float() (float64, bool) {
	return v.num, v.kind == kindNumber
}

// Bool returns the boolean value and whether the value is a bool.
func (v IndexableValue) Bool() (bool, bool) {
	return v.b, v.kind == kindBool
}

// Value returns the underlying scalar as an any, for backends that take
// loosely typed payloads.
func (v IndexableValue) Value() any {
	switch v.kind {
	case kindNumber:
		return v.num
	case kindBool:
		return v.b
	default:
		return v.str
	}
}

// Flatten coerces an arbitrary metadata map to scalar values: arrays are
// joined into a comma-delimited string, nested maps are JSON-serialized,
// scalars pass through. This is the only place such coercion happens.
func Flatten(meta map[string]any) map[string]IndexableValue {
	out := make(map[string]IndexableValue, len(meta))
	for k, v := range meta {
		out[k] = flattenValue(v)
	}
	return out
}

func flattenValue(v any) IndexableValue {
	switch t := v.(type) {
	case string:
		return String(t)
	case bool:
		return Bool(t)
	case int:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case float32:
		return Number(float64(t))
	case float64:
		return Number(t)
	case time.Time:
		return String(t.UTC().Format(time.RFC3339))
	case []string:
		return String(strings.Join(t, ", "))
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = flattenValue(e).String()
		}
		return String(strings.Join(parts, ", "))
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return String(fmt.Sprint(t))
		}
		return String(string(b))
	case nil:
		return String("")
	default:
		return String(fmt.Sprint(t))
	}
}
