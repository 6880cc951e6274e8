package koffetch

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// indexEnvelope is the typed shape of the wire envelope (spec §3
// IndexResponse / §6): {total, offset, limit, data[]}.
type indexEnvelope struct {
	Total  int                      `mapstructure:"total"`
	Offset int                      `mapstructure:"offset"`
	Limit  int                      `mapstructure:"limit"`
	Data   []map[string]interface{} `mapstructure:"data"`
}

// decodeEnvelope decodes a raw index response body into Entries plus the
// envelope's total/offset/limit (spec §4.F). All four top-level fields are
// required; total/offset/limit must be integers (strings are rejected);
// data must be a sequence.
func decodeEnvelope(body []byte) (entries []Entry, total, offset, limit int, err error) {
	var raw map[string]interface{}
	if jerr := json.Unmarshal(body, &raw); jerr != nil {
		return nil, 0, 0, 0, decodingError("invalid JSON envelope", jerr)
	}

	for _, field := range []string{"total", "offset", "limit", "data"} {
		if _, ok := raw[field]; !ok {
			return nil, 0, 0, 0, invalidResponseError(fmt.Sprintf("missing required field %q", field))
		}
	}

	for _, field := range []string{"total", "offset", "limit"} {
		switch n := raw[field].(type) {
		case float64:
			if n != math.Trunc(n) {
				return nil, 0, 0, 0, invalidResponseError(fmt.Sprintf("field %q must be an integer", field))
			}
		case int, int64:
			// ok
		default:
			return nil, 0, 0, 0, invalidResponseError(fmt.Sprintf("field %q must be an integer", field))
		}
	}

	if _, ok := raw["data"].([]interface{}); !ok {
		return nil, 0, 0, 0, invalidResponseError(`field "data" must be a sequence`)
	}

	var env indexEnvelope
	dec, derr := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &env,
	})
	if derr != nil {
		return nil, 0, 0, 0, decodingError("building envelope decoder", derr)
	}
	if derr := dec.Decode(raw); derr != nil {
		return nil, 0, 0, 0, invalidResponseError(derr.Error())
	}

	out := make([]Entry, 0, len(env.Data))
	for _, m := range env.Data {
		out = append(out, entryFromMap(m))
	}

	return out, env.Total, env.Offset, env.Limit, nil
}

// entryFromMap converts a decoded JSON object into an Entry, applying spec
// §4.F's per-field conversion rule: every top-level field is a string leaf —
// string values keep their content (surrounding ASCII double-quotes
// stripped, if present); non-string primitives are stringified; arrays and
// objects are stringified then have surrounding quotes stripped. Duplicate
// keys are resolved last-write-wins, which falls out naturally from
// decoding a Go map.
func entryFromMap(m map[string]interface{}) Entry {
	e := make(Entry, len(m))
	for k, v := range m {
		e[k] = StringValue(StringifyTopLevel(valueFromJSON(v)))
	}
	return e
}

// valueFromJSON converts one decoded JSON value into a Value, preserving
// structure for nested objects/arrays so typed accessors can walk them.
// entryFromMap is the only caller that needs the top-level stringification
// rule (via StringifyTopLevel below); nested structure is preserved as-is
// for internal use (e.g. within ObjectValue/ArrayValue).
func valueFromJSON(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return NullValue{}
	case string:
		return StringValue(unquoteIfQuoted(t))
	case bool:
		return BoolValue(t)
	case float64:
		if t == float64(int64(t)) {
			return IntValue(int64(t))
		}
		return FloatValue(t)
	case map[string]interface{}:
		obj := make(ObjectValue, len(t))
		for k, vv := range t {
			obj[k] = valueFromJSON(vv)
		}
		return obj
	case []interface{}:
		arr := make(ArrayValue, 0, len(t))
		for _, vv := range t {
			arr = append(arr, valueFromJSON(vv))
		}
		return arr
	default:
		return StringValue(fmt.Sprintf("%v", t))
	}
}

// unquoteIfQuoted strips one pair of surrounding ASCII double-quotes, the
// edge case spec §4.F and §8 property 10 call out: a wire value of `"X"`
// decodes to X, and `"\"X\""` decodes to the string `X` with one pair
// stripped, not two.
func unquoteIfQuoted(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

// StringifyTopLevel renders v the way entryFromMap stores every top-level
// Entry field: string leaves pass through unchanged, everything else is
// JSON re-encoded with surrounding quotes stripped (spec §4.F).
func StringifyTopLevel(v Value) string {
	switch t := v.(type) {
	case StringValue:
		return string(t)
	case NullValue:
		return "null"
	case IntValue:
		return fmt.Sprintf("%d", int64(t))
	case FloatValue:
		return fmt.Sprintf("%v", float64(t))
	case BoolValue:
		return fmt.Sprintf("%v", bool(t))
	default:
		b, err := json.Marshal(toPlain(v))
		if err != nil {
			return ""
		}
		return strings.Trim(string(b), `"`)
	}
}

// toPlain converts a Value back into plain interface{} for re-marshaling.
func toPlain(v Value) interface{} {
	switch t := v.(type) {
	case StringValue:
		return string(t)
	case IntValue:
		return int64(t)
	case FloatValue:
		return float64(t)
	case BoolValue:
		return bool(t)
	case NullValue:
		return nil
	case ObjectValue:
		m := make(map[string]interface{}, len(t))
		for k, vv := range t {
			m[k] = toPlain(vv)
		}
		return m
	case ArrayValue:
		a := make([]interface{}, 0, len(t))
		for _, vv := range t {
			a = append(a, toPlain(vv))
		}
		return a
	default:
		return nil
	}
}
