// Package parser turns raw REST responses into values shaped by an inferred schema.
// Responses are processed with https://github.com/tidwall/gjson.
package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	rest "github.com/go-sif/sif-rest"
	"github.com/go-sif/sif-rest/errors"
	"github.com/go-sif/sif-rest/schema"
	"github.com/tidwall/gjson"
)

// ShapeMismatch prefixes the reason of responses which are valid JSON, but cannot be coerced into the schema
const ShapeMismatch = "shape mismatch"

// Result is the outcome of parsing a single Response. Exactly one of Value or
// Corrupt is meaningful: State is rest.ParsedOk when Value holds the shaped
// output, and rest.ParsedCorrupt when Corrupt holds the failure text.
type Result struct {
	Value   interface{}
	Corrupt *string
	Reason  error
	State   rest.RowState
}

// Parse interprets resp against dt. Transport and HTTP failures produce a corrupt
// Result holding a description of the failure; bodies which are empty, invalid or of
// an incompatible shape produce a corrupt Result holding the raw body.
func Parse(resp *rest.Response, dt *schema.DataType) *Result {
	if resp.Err != nil {
		return corrupt(resp.Err.Error(), resp.Err)
	}
	if !resp.OK() {
		err := errors.HTTPError{StatusCode: resp.StatusCode, Body: resp.Body}
		return corrupt(err.Error(), err)
	}
	raw := string(resp.Body)
	if len(strings.TrimSpace(raw)) == 0 {
		return corrupt(raw, errors.ParseError{Reason: "empty body"})
	}
	if !gjson.Valid(raw) {
		return corrupt(raw, errors.ParseError{Reason: "invalid JSON"})
	}
	val, err := Coerce(gjson.Parse(raw), dt, "")
	if err != nil {
		return corrupt(raw, errors.ParseError{Reason: fmt.Sprintf("%s: %v", ShapeMismatch, err)})
	}
	return &Result{Value: val, State: rest.ParsedOk}
}

func corrupt(text string, reason error) *Result {
	return &Result{Corrupt: &text, Reason: reason, State: rest.ParsedCorrupt}
}

// Coerce converts a JSON value to the Go representation of dt: bool, int64, float64,
// string, []interface{} or map[string]interface{}. Nulls and missing values
// become nil. Struct values always carry every field of dt, and keys absent from
// dt are dropped. path names val within its document, for error messages.
func Coerce(val gjson.Result, dt *schema.DataType, path string) (interface{}, error) {
	if !val.Exists() || val.Type == gjson.Null {
		return nil, nil
	}
	switch dt.Kind() {
	case schema.BoolKind:
		switch val.Type {
		case gjson.True, gjson.False:
			return val.Bool(), nil
		case gjson.String:
			if b, err := strconv.ParseBool(val.Str); err == nil {
				return b, nil
			}
		}
		return nil, mismatch(path, "a boolean", val)
	case schema.IntKind:
		switch val.Type {
		case gjson.Number:
			if i, err := strconv.ParseInt(val.Raw, 10, 64); err == nil {
				return i, nil
			}
			if i, ok := truncateToInt(val.Float()); ok {
				return i, nil
			}
		case gjson.True:
			return int64(1), nil
		case gjson.False:
			return int64(0), nil
		case gjson.String:
			if i, err := strconv.ParseInt(strings.TrimSpace(val.Str), 10, 64); err == nil {
				return i, nil
			}
			if f, err := strconv.ParseFloat(strings.TrimSpace(val.Str), 64); err == nil {
				if i, ok := truncateToInt(f); ok {
					return i, nil
				}
			}
		}
		return nil, mismatch(path, "an int", val)
	case schema.FloatKind:
		switch val.Type {
		case gjson.Number:
			return val.Float(), nil
		case gjson.True:
			return float64(1), nil
		case gjson.False:
			return float64(0), nil
		case gjson.String:
			if f, err := strconv.ParseFloat(strings.TrimSpace(val.Str), 64); err == nil {
				return f, nil
			}
		}
		return nil, mismatch(path, "a float", val)
	case schema.StringKind, schema.NullKind:
		// fields only ever sampled as null are declared as strings
		if val.Type == gjson.String {
			return val.Str, nil
		}
		return val.Raw, nil
	case schema.ArrayKind:
		if !val.IsArray() {
			return nil, mismatch(path, "an array", val)
		}
		elems := val.Array()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			v, err := Coerce(e, dt.Elem(), fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case schema.StructKind:
		if !val.IsObject() {
			return nil, mismatch(path, "an object", val)
		}
		// iterate rather than Get, so keys containing gjson path syntax are matched literally
		members := make(map[string]gjson.Result)
		val.ForEach(func(k, v gjson.Result) bool {
			members[k.String()] = v
			return true
		})
		fields := dt.Fields()
		out := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			v, err := Coerce(members[f.Name], f.Type, joinPath(path, f.Name))
			if err != nil {
				return nil, err
			}
			out[f.Name] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("Unsupported kind %s", dt.Kind())
	}
}

// truncateToInt drops the fraction of f, failing for NaN, infinities and
// values outside the int64 range
func truncateToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	// float64(math.MaxInt64) rounds up to 2^63, which is itself out of range
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, false
	}
	return int64(t), true
}

func mismatch(path string, want string, val gjson.Result) error {
	if len(path) == 0 {
		path = "response"
	}
	return fmt.Errorf("%s was not %s. Was: %s", path, want, val.Raw)
}

func joinPath(path, name string) string {
	if len(path) == 0 {
		return name
	}
	return path + "." + name
}
