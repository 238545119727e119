package schema

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-sif/sif-rest/errors"
	"github.com/tidwall/gjson"
)

// Infer computes a single DataType which accommodates every document.
// Each document must be valid JSON. Fields only ever observed as null keep the
// Null type, so that inferring over more documents can only widen the result;
// use Normalize to obtain a concrete type for declaring columns.
func Infer(docs [][]byte) (*DataType, error) {
	if len(docs) == 0 {
		return nil, errors.SchemaInferenceFailure{}
	}
	var inferred *DataType
	for i, doc := range docs {
		if !gjson.ValidBytes(doc) {
			return nil, errors.ParseError{Reason: fmt.Sprintf("sampled document %d is not valid JSON", i)}
		}
		inferred = Merge(inferred, TypeOf(gjson.ParseBytes(doc)))
	}
	return inferred, nil
}

// TypeOf returns the DataType of a single parsed JSON value
func TypeOf(val gjson.Result) *DataType {
	switch val.Type {
	case gjson.Null:
		return nullType
	case gjson.True, gjson.False:
		return boolType
	case gjson.Number:
		if isIntegral(val.Raw) {
			return intType
		}
		return floatType
	case gjson.String:
		return stringType
	case gjson.JSON:
		if val.IsArray() {
			elem := nullType
			val.ForEach(func(_, v gjson.Result) bool {
				elem = Merge(elem, TypeOf(v))
				return true
			})
			return ArrayOf(elem)
		}
		fields := make([]Field, 0)
		val.ForEach(func(k, v gjson.Result) bool {
			t := TypeOf(v)
			fields = append(fields, Field{Name: k.String(), Type: t, Nullable: t.kind == NullKind})
			return true
		})
		return StructOf(fields...)
	default:
		// gjson reports missing values with the zero Result
		return nullType
	}
}

// TypeOfValue returns the DataType of a native Go value, as found in input rows
func TypeOfValue(v interface{}) *DataType {
	switch tv := v.(type) {
	case nil:
		return nullType
	case bool:
		return boolType
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return intType
	case float32:
		return floatType
	case float64:
		if tv == math.Trunc(tv) && !math.IsInf(tv, 0) {
			return intType
		}
		return floatType
	case string:
		return stringType
	case []interface{}:
		elem := nullType
		for _, e := range tv {
			elem = Merge(elem, TypeOfValue(e))
		}
		return ArrayOf(elem)
	case map[string]interface{}:
		fields := make([]Field, 0, len(tv))
		for k, e := range tv {
			t := TypeOfValue(e)
			fields = append(fields, Field{Name: k, Type: t, Nullable: t.kind == NullKind})
		}
		return StructOf(fields...)
	default:
		return stringType
	}
}

// isIntegral returns true iff a raw JSON number has no fraction or exponent, and fits in an int64
func isIntegral(raw string) bool {
	if strings.ContainsAny(raw, ".eE") {
		return false
	}
	_, err := strconv.ParseInt(raw, 10, 64)
	return err == nil
}
