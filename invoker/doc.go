// Package invoker issues one REST call per input row. Row values become query
// parameters (GET) or a JSON or form body (POST), and every outcome is reported
// as a rest.Response carrying either a body or a typed failure.
package invoker
