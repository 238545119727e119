package rest

import (
	"context"

	"github.com/go-sif/sif-rest/schema"
)

// RowSource supplies the InputRows of a job. It stands in for the host's table
// handle, and is read exactly once per job.
type RowSource interface {
	Rows(ctx context.Context) ([]InputRow, error)
}

// RecordSink receives the records of a job once its output schema is known.
// Records are supplied in partition order, and in input order within each partition.
type RecordSink interface {
	Write(ctx context.Context, s *schema.Schema, records []OutputRecord) error
}
