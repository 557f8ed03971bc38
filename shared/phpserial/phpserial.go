// Package phpserial reads the PHP-serialized arrays WordPress stores in options and post meta.
package phpserial

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/elliotchance/phpserialize"
)

// IsArray reports whether value looks like a serialized PHP array
func IsArray(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "a:")
}

// DecodeArray decodes a serialized PHP array. Integer keys decode as int64, string keys as string.
// Nested arrays decode as map[any]any.
func DecodeArray(value string) (arr map[any]any, err error) {
	value = strings.TrimSpace(value)
	if !IsArray(value) {
		return nil, fmt.Errorf("not a serialized array: %.20q", value)
	}

	// Truncated input can index past the end of the buffer inside the decoder.
	defer func() {
		if r := recover(); r != nil {
			arr, err = nil, fmt.Errorf("failed to decode serialized array: %v", r)
		}
	}()

	arr, err = phpserialize.UnmarshalAssociativeArray([]byte(value))
	if err != nil {
		return nil, fmt.Errorf("failed to decode serialized array: %w", err)
	}
	return arr, nil
}

// Values returns the scalar values of arr as strings, descending into nested arrays.
// The order is not defined.
func Values(arr map[any]any) []string {
	var out []string
	for _, v := range arr {
		out = appendValues(out, v)
	}
	return out
}

func appendValues(out []string, v any) []string {
	switch val := v.(type) {
	case map[any]any:
		for _, nested := range val {
			out = appendValues(out, nested)
		}
	case []any:
		for _, nested := range val {
			out = appendValues(out, nested)
		}
	default:
		if s, ok := Scalar(val); ok {
			out = append(out, s)
		}
	}
	return out
}

// Keys returns the top-level keys of arr as strings in sorted order
func Keys(arr map[any]any) []string {
	keys := make([]string, 0, len(arr))
	for k := range arr {
		if s, ok := Scalar(k); ok {
			keys = append(keys, s)
		}
	}
	sort.Strings(keys)
	return keys
}

// Scalar formats a decoded scalar. It returns false for nil, arrays and objects.
func Scalar(v any) (string, bool) {
	switch val := v.(type) {
	case string:
		return val, true
	case int64:
		return strconv.FormatInt(val, 10), true
	case int:
		return strconv.Itoa(val), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case bool:
		if val {
			return "1", true
		}
		return "0", true
	default:
		return "", false
	}
}

// String returns the string stored under key in arr, if any
func String(arr map[any]any, key string) (string, bool) {
	v, ok := arr[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Array returns the nested array stored under key in arr, if any
func Array(arr map[any]any, key string) (map[any]any, bool) {
	nested, ok := arr[key].(map[any]any)
	return nested, ok
}
