package html2pdf

import (
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
)

// DefaultOptions returns the engine options applied when neither the source
// nor the request overrides them.
func DefaultOptions() map[string]any {
	return map[string]any{
		"page-size":     "Letter",
		"margin-top":    "0.75in",
		"margin-right":  "0.75in",
		"margin-bottom": "0.75in",
		"margin-left":   "0.75in",
		"encoding":      "UTF-8",
	}
}

// NormalizeOptions turns an option map into engine flag tokens, ordered by
// flag name.
//
// Keys are lower-cased and every character outside [a-z0-9] becomes '-', so
// "page_size" and "Page Size" both give "--page-size". Values map to tokens as:
//   - true or "": the bare flag
//   - false or nil: nothing
//   - map: "--flag key value" per entry, keys sorted
//   - slice: "--flag value" per element, or "--flag a b" for a two-element element
//   - anything else: "--flag value"
//
// When several keys normalize to the same flag, the last key in sorted order wins.
func NormalizeOptions(opts map[string]any) []string {
	byFlag := make(map[string]any, len(opts))
	for _, key := range slices.Sorted(maps.Keys(opts)) {
		byFlag[NormalizeFlag(key)] = opts[key]
	}

	var tokens []string
	for _, flag := range slices.Sorted(maps.Keys(byFlag)) {
		tokens = append(tokens, valueTokens(flag, byFlag[flag])...)
	}
	return tokens
}

// NormalizeFlag converts an option key to its "--flag" form. Leading dashes
// are dropped, so the function is idempotent.
func NormalizeFlag(key string) string {
	key = strings.TrimLeft(key, "-")
	var b strings.Builder
	b.Grow(len(key) + 2)
	b.WriteString("--")
	for _, r := range strings.ToLower(key) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

func valueTokens(flag string, v any) []string {
	rv := indirect(reflect.ValueOf(v))
	if !rv.IsValid() {
		return nil
	}

	switch rv.Kind() {
	case reflect.Bool:
		if rv.Bool() {
			return []string{flag}
		}
		return nil

	case reflect.String:
		if rv.String() == "" {
			return []string{flag}
		}
		return []string{flag, rv.String()}

	case reflect.Map:
		keys := rv.MapKeys()
		slices.SortFunc(keys, func(a, b reflect.Value) int {
			return strings.Compare(scalar(a), scalar(b))
		})
		tokens := make([]string, 0, 3*len(keys))
		for _, k := range keys {
			tokens = append(tokens, flag, scalar(k), scalar(rv.MapIndex(k)))
		}
		return tokens

	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return []string{flag, scalar(rv)}
		}
		var tokens []string
		for i := range rv.Len() {
			elem := indirect(rv.Index(i))
			if !elem.IsValid() {
				continue
			}
			if isSequence(elem) && elem.Len() == 2 {
				tokens = append(tokens, flag, scalar(elem.Index(0)), scalar(elem.Index(1)))
				continue
			}
			tokens = append(tokens, flag, scalar(elem))
		}
		return tokens

	default:
		return []string{flag, scalar(rv)}
	}
}

// indirect unwraps interfaces and pointers. A nil yields the invalid Value.
func indirect(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}

func isSequence(v reflect.Value) bool {
	k := v.Kind()
	return (k == reflect.Slice || k == reflect.Array) && v.Type().Elem().Kind() != reflect.Uint8
}

func scalar(v reflect.Value) string {
	v = indirect(v)
	if !v.IsValid() {
		return ""
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
		return string(v.Bytes())
	}
	return fmt.Sprint(v.Interface())
}

// mergeOptions layers option maps; later layers win. Keys are compared in
// flag form so "page_size" in a later layer replaces "page-size" in an earlier one.
func mergeOptions(layers ...map[string]any) map[string]any {
	merged := make(map[string]any)
	for _, layer := range layers {
		for _, key := range slices.Sorted(maps.Keys(layer)) {
			merged[NormalizeFlag(key)] = layer[key]
		}
	}
	return merged
}

// metaOptions converts scraped meta-tag values to option values.
// "true" and "false" become booleans so they toggle bare flags.
func metaOptions(found map[string]string) map[string]any {
	opts := make(map[string]any, len(found))
	for k, v := range found {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true":
			opts[k] = true
		case "false":
			opts[k] = false
		default:
			opts[k] = v
		}
	}
	return opts
}
