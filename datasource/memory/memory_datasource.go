// Package memory provides in-memory RowSources and RecordSinks
package memory

import (
	"bytes"
	"context"
	"sync"

	rest "github.com/go-sif/sif-rest"
	"github.com/go-sif/sif-rest/datasource/parser/jsonl"
	"github.com/go-sif/sif-rest/schema"
)

// Source is a RowSource backed by a slice of InputRows
type Source struct {
	rows []rest.InputRow
}

// CreateSource is a factory for Sources
func CreateSource(rows []rest.InputRow) *Source {
	return &Source{rows: rows}
}

// CreateJSONLSource parses buffers of JSON Lines data, in order, into a Source
func CreateJSONLSource(data [][]byte, parser *jsonl.Parser) (*Source, error) {
	rows := make([]rest.InputRow, 0)
	for _, buff := range data {
		parsed, err := parser.Parse(bytes.NewReader(buff))
		if err != nil {
			return nil, err
		}
		rows = append(rows, parsed...)
	}
	return &Source{rows: rows}, nil
}

// Rows returns the InputRows of this Source
func (s *Source) Rows(ctx context.Context) ([]rest.InputRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.rows, nil
}

// Sink is a RecordSink which retains every record written to it
type Sink struct {
	lock    sync.Mutex
	schema  *schema.Schema
	records []rest.OutputRecord
}

// CreateSink is a factory for Sinks
func CreateSink() *Sink {
	return &Sink{records: make([]rest.OutputRecord, 0)}
}

// Write appends records to this Sink, replacing its Schema
func (s *Sink) Write(ctx context.Context, sch *schema.Schema, records []rest.OutputRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	s.schema = sch
	s.records = append(s.records, records...)
	return nil
}

// Schema returns the Schema of the most recent Write, or nil
func (s *Sink) Schema() *schema.Schema {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.schema
}

// Records returns a copy of all records written so far
func (s *Sink) Records() []rest.OutputRecord {
	s.lock.Lock()
	defer s.lock.Unlock()
	res := make([]rest.OutputRecord, len(s.records))
	copy(res, s.records)
	return res
}
