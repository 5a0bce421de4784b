// Package mcputils binds loosely typed MCP tool arguments to Go structs.
package mcputils

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// BindArguments decodes MCP request arguments into target, a pointer to a
// struct whose fields carry json tags. MCP clients often send every value as
// a string, so numbers, booleans and JSON arrays encoded as strings are
// coerced to the field type. Fractional numbers bound to integer fields are
// rejected. Absent and null arguments leave the field untouched.
func BindArguments(args map[string]interface{}, target interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			jsonStringHook,
			integralHook,
		),
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(args)
}

// jsonStringHook parses strings holding JSON arrays, booleans or numbers.
func jsonStringHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if f.Kind() != reflect.String {
		return data, nil
	}
	raw := strings.TrimSpace(reflect.ValueOf(data).String())
	if raw == "" {
		return data, nil
	}

	switch {
	case t.Kind() == reflect.Slice:
		if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
			slicePtr := reflect.New(t)
			if err := json.Unmarshal([]byte(raw), slicePtr.Interface()); err == nil {
				return slicePtr.Elem().Interface(), nil
			}
		}
	case t.Kind() == reflect.Bool:
		if raw == "true" || raw == "false" {
			return raw == "true", nil
		}
	case isNumberKind(t.Kind()):
		var n json.Number
		if err := json.Unmarshal([]byte(raw), &n); err == nil {
			return n, nil
		}
	}
	return data, nil
}

// integralHook refuses to truncate fractional numbers into integer fields.
func integralHook(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
	if !isIntKind(t.Kind()) {
		return data, nil
	}

	var v float64
	switch n := data.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case json.Number:
		if _, err := n.Int64(); err == nil {
			return data, nil
		}
		parsed, err := n.Float64()
		if err != nil {
			return data, nil
		}
		v = parsed
	default:
		return data, nil
	}

	if v != math.Trunc(v) {
		return nil, fmt.Errorf("must be an integer, got %v", v)
	}
	return data, nil
}

func isIntKind(k reflect.Kind) bool {
	return (k >= reflect.Int && k <= reflect.Int64) || (k >= reflect.Uint && k <= reflect.Uint64)
}

func isNumberKind(k reflect.Kind) bool {
	return isIntKind(k) || k == reflect.Float32 || k == reflect.Float64
}
