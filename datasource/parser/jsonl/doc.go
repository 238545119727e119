// Package jsonl parses JSON Lines input tables into InputRows. This parser uses https://github.com/tidwall/gjson to process data, and each line must hold one JSON object.
package jsonl
