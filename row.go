package rest

import (
	"sort"

	jsoniter "github.com/json-iterator/go"
)

var canonicalJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// InputRow is one set of parameter values driving a single REST call.
// All rows of a job share the same key set. InputRows are never mutated once read.
type InputRow map[string]interface{}

// Keys returns the parameter names of this InputRow, sorted
func (r InputRow) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// CanonicalKey serializes the values of this InputRow in a stable field order, so
// that two rows holding the same values always produce the same key
func (r InputRow) CanonicalKey() (string, error) {
	// the std-compatible config sorts map keys
	b, err := canonicalJSON.Marshal(map[string]interface{}(r))
	if err != nil {
		return "", err
	}
	return string(b), nil
}
