// Copyright 2026 The Nova Authors
// SPDX-License-Identifier: Apache-2.0

package rawfield

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Get returns the value for key from item, trying the flat key first
// and then a nested "fields" object. A {"value": X} wrapper on the
// result is unwrapped. The second return reports whether the key was
// present with a non-nil value.
func Get(item map[string]any, key string) (any, bool) {
	if item == nil {
		return nil, false
	}
	if v, ok := item[key]; ok && v != nil {
		return unwrap(v), true
	}
	if fields, ok := item["fields"].(map[string]any); ok {
		if v, ok := fields[key]; ok && v != nil {
			return unwrap(v), true
		}
	}
	return nil, false
}

// unwrap strips one {"value": X} envelope. Option-style custom fields
// carry siblings ("id", "self") next to "value"; the presence of the
// key is what identifies the wrapper.
func unwrap(v any) any {
	if m, ok := v.(map[string]any); ok {
		if inner, ok := m["value"]; ok && inner != nil {
			return inner
		}
	}
	return v
}

// String returns the value for key coerced to a string, or "" when the
// key is absent or not string-like. Numbers format with strconv.
func String(item map[string]any, key string) string {
	v, ok := Get(item, key)
	if !ok {
		return ""
	}
	return asString(v)
}

// FirstString returns the first non-empty String result across keys.
func FirstString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := String(item, key); s != "" {
			return s
		}
	}
	return ""
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case int:
		return strconv.Itoa(s)
	case bool:
		return strconv.FormatBool(s)
	default:
		return ""
	}
}

// Number returns the value for key as a float64. Numeric strings are
// parsed; empty strings and unparseable values read as absent.
func Number(item map[string]any, key string) (float64, bool) {
	v, ok := Get(item, key)
	if !ok {
		return 0, false
	}
	return asNumber(v)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		trimmed := strings.TrimSpace(n)
		if trimmed == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Bool returns the value for key as a bool. Absent or non-bool values
// read as false.
func Bool(item map[string]any, key string) bool {
	v, ok := Get(item, key)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Map returns the value for key when it is an object.
func Map(item map[string]any, key string) (map[string]any, bool) {
	v, ok := Get(item, key)
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

// Slice returns the value for key when it is a list. A single object
// is returned as a one-element list, since upstream APIs switch
// between the two shapes for singleton values.
func Slice(item map[string]any, key string) ([]any, bool) {
	v, ok := Get(item, key)
	if !ok {
		return nil, false
	}
	switch s := v.(type) {
	case []any:
		return s, true
	case map[string]any:
		return []any{s}, true
	default:
		return nil, false
	}
}

// timeLayouts are the timestamp shapes upstream systems emit, most
// specific first. The zoneless layouts parse in local time, matching
// how the emitting systems render wall-clock fields.
var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000-0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Time returns the value for key as a time. Invalid or missing values
// read as absent, never as an error.
func Time(item map[string]any, key string) (time.Time, bool) {
	v, ok := Get(item, key)
	if !ok {
		return time.Time{}, false
	}
	return AsTime(v)
}

// FirstTime returns the first present Time result across keys.
func FirstTime(item map[string]any, keys ...string) (time.Time, bool) {
	for _, key := range keys {
		if t, ok := Time(item, key); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// AsTime coerces an already-extracted value to a time. Accepts
// time.Time directly, the string layouts above, and a {"dateTime":
// ..., "timeZone": ...} object (calendar event start/end shape).
func AsTime(v any) (time.Time, bool) {
	switch value := v.(type) {
	case time.Time:
		return value, !value.IsZero()
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if t, err := time.ParseInLocation(layout, trimmed, time.Local); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case map[string]any:
		if inner, ok := value["dateTime"]; ok {
			return AsTime(inner)
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}
