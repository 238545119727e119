// Package job runs a complete REST job: it partitions the input rows, infers an
// output schema from a sample of responses, then invokes and parses every
// partition in parallel against that single schema.
package job

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	multierror "github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	rest "github.com/go-sif/sif-rest"
	"github.com/go-sif/sif-rest/assembler"
	"github.com/go-sif/sif-rest/cache"
	"github.com/go-sif/sif-rest/internal/stats"
	"github.com/go-sif/sif-rest/internal/util"
	"github.com/go-sif/sif-rest/invoker"
	"github.com/go-sif/sif-rest/logging"
	"github.com/go-sif/sif-rest/parser"
	"github.com/go-sif/sif-rest/partition"
	"github.com/go-sif/sif-rest/sampler"
	"github.com/go-sif/sif-rest/schema"
)

// Result is the outcome of a job
type Result struct {
	ID         string                // unique id of this job, used in logs
	Schema     *schema.Schema        // columns of every record: the input columns, output and (optionally) corrupt_record
	Inferred   *schema.DataType      // type of the output column
	Partitions [][]rest.OutputRecord // records by partition, in input order within each partition. nil for partitions which did not complete.
	RowErrors  *multierror.Error     // failures of individual rows, which were routed to corrupt_record
	Stats      stats.Snapshot        // statistics as of the end of the job
}

// Records returns the records of all completed partitions, in partition order
func (r *Result) Records() []rest.OutputRecord {
	total := 0
	for _, p := range r.Partitions {
		total += len(p)
	}
	res := make([]rest.OutputRecord, 0, total)
	for _, p := range r.Partitions {
		res = append(res, p...)
	}
	return res
}

type runner struct {
	id       string
	opts     *rest.Options
	logger   *logging.Logger
	inv      rest.Invoker
	inferred *schema.DataType
	cache    *cache.ResultCache // nil unless CallStrictlyOnce
	stats    *stats.RunStatistics
}

// Run executes a job. Configuration and setup failures, including a sample with no
// usable responses, are returned before any record is produced. If ctx is cancelled
// during the full pass, the partitions which completed are returned alongside the
// cancellation error. Row failures never fail the job: they become corrupt records.
func Run(ctx context.Context, opts *rest.Options) (*Result, error) {
	resolved, err := rest.ResolveOptions(opts)
	if err != nil {
		return nil, err
	}
	jobID, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("Unable to generate job id: %w", err)
	}
	r := &runner{
		id:     jobID.String(),
		opts:   resolved,
		logger: resolved.Logger,
		stats:  &stats.RunStatistics{},
	}
	r.stats.Start()

	rows, err := resolved.Input.Rows(ctx)
	if err != nil {
		return nil, fmt.Errorf("Unable to read input rows: %w", err)
	}
	// reject reserved column names before any call is made
	if _, err := assembler.InputColumns(rows); err != nil {
		return nil, err
	}
	parts, err := partition.Split(rows, resolved.Partitions)
	if err != nil {
		return nil, err
	}
	r.logger.Infof("Starting job %s: %d rows in %d partitions against %s %s", r.id, len(rows), len(parts), resolved.Method, resolved.URL)

	transport := resolved.Transport
	if transport == nil {
		httpTransport := invoker.NewHTTPTransport(nil)
		defer httpTransport.Close()
		transport = httpTransport
	}
	r.inv = invoker.New(resolved.RequestSpec(), transport)
	if resolved.CallStrictlyOnce {
		r.cache = cache.New(&cache.Config{CompressBodies: resolved.CompressCache})
		defer r.cache.Destroy()
		r.inv = cache.Decorate(r.inv, r.cache)
	}

	if err := r.inferSchema(ctx, rows); err != nil {
		return nil, err
	}

	res := &Result{ID: r.id, Inferred: r.inferred}
	res.Partitions, res.RowErrors, err = r.invokePartitions(ctx, parts)
	if res.RowErrors != nil {
		r.logger.Warnf("Job %s routed %d rows to %s:\n%s", r.id, len(res.RowErrors.Errors), rest.CorruptRecordColumn, util.FormatMultiError(res.RowErrors.Errors))
	}

	anyCorrupt := false
	for _, p := range res.Partitions {
		for i := range p {
			anyCorrupt = anyCorrupt || p[i].IsCorrupt()
		}
	}
	outSchema, schemaErr := assembler.OutputSchema(rows, r.inferred, anyCorrupt)
	if schemaErr != nil {
		r.logger.Errorf("Job %s unable to declare output schema: %v", r.id, schemaErr)
		res.Stats = r.snapshot()
		if err != nil {
			return res, err
		}
		return res, schemaErr
	}
	res.Schema = outSchema
	if err != nil {
		r.logger.Errorf("Job %s interrupted: %v", r.id, err)
		res.Stats = r.snapshot()
		return res, err
	}

	if resolved.Output != nil {
		if err := resolved.Output.Write(ctx, res.Schema, res.Records()); err != nil {
			res.Stats = r.snapshot()
			return res, fmt.Errorf("Unable to write records: %w", err)
		}
	}
	res.Stats = r.snapshot()
	r.logger.Infof("Finished job %s in %s: %d rows, %d corrupt", r.id, res.Stats.Runtime, res.Stats.RowsProcessed, res.Stats.CorruptRows)
	return res, nil
}

func (r *runner) snapshot() stats.Snapshot {
	if r.cache != nil {
		r.stats.SetCacheStatistics(r.cache.Hits(), r.cache.Misses())
	}
	r.stats.Finish()
	return r.stats.Snapshot()
}

// inferSchema samples rows and publishes the single schema used by every partition
func (r *runner) inferSchema(ctx context.Context, rows []rest.InputRow) error {
	r.stats.StartPhase()
	defer r.stats.EndPhase(stats.SamplePhase)
	sample, err := sampler.Sample(ctx, rows, r.inv, &sampler.Config{
		Pcnt:        r.opts.SchemaSamplePcnt,
		MinSize:     r.opts.MinSampleSize,
		Concurrency: r.opts.SampleConcurrency,
		Logger:      r.logger,
	})
	if err != nil {
		r.logger.Errorf("Job %s unable to sample responses: %v", r.id, err)
		return err
	}
	r.stats.AddRowsInvoked(stats.SamplePhase, sample.Size)
	inferred, err := schema.Infer(sample.Bodies)
	if err != nil {
		return err
	}
	r.inferred = inferred
	r.logger.Infof("Job %s inferred %s:%s from %d of %d sampled rows", r.id, rest.OutputColumn, inferred, len(sample.Bodies), sample.Size)
	return nil
}

// invokePartitions processes every partition in parallel, returning the records and
// row failures of each completed partition
func (r *runner) invokePartitions(ctx context.Context, parts []*partition.Partition) ([][]rest.OutputRecord, *multierror.Error, error) {
	r.stats.StartPhase()
	defer r.stats.EndPhase(stats.InvokePhase)
	records := make([][]rest.OutputRecord, len(parts))
	partErrs := make([]*multierror.Error, len(parts))
	g, gctx := errgroup.WithContext(ctx)
	for i, part := range parts {
		i, part := i, part
		g.Go(func() error {
			recs, rowErrs, err := r.invokePartition(gctx, part)
			if err != nil {
				return err
			}
			records[i] = recs
			partErrs[i] = rowErrs
			return nil
		})
	}
	err := g.Wait()
	var rowErrs *multierror.Error
	for _, errs := range partErrs {
		if errs != nil {
			rowErrs = multierror.Append(rowErrs, errs.Errors...)
		}
	}
	return records, rowErrs, err
}

// invokePartition processes the rows of a partition sequentially, in input order
func (r *runner) invokePartition(ctx context.Context, part *partition.Partition) ([]rest.OutputRecord, *multierror.Error, error) {
	start := time.Now()
	r.logger.Debugf("Job %s starting partition %s", r.id, part.ToString())
	records := make([]rest.OutputRecord, 0, part.GetNumRows())
	var rowErrs *multierror.Error
	numCorrupt := 0
	processRow := r.processRow(ctx)
	err := part.ForEachRow(func(offset int, row rest.InputRow) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := processRow(row)
		// an interrupted call is not the endpoint's answer for this row
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !rec.State.IsFinal() {
			text := err.Error()
			rec = rest.OutputRecord{Input: row, CorruptRecord: &text, State: rest.ParsedCorrupt}
		}
		if rec.IsCorrupt() {
			numCorrupt++
			rowErrs = multierror.Append(rowErrs, fmt.Errorf("Partition %d offset %d: %w", part.Index(), offset, err))
		}
		records = append(records, rec)
		return nil
	})
	if err != nil {
		r.logger.Debugf("Job %s abandoned partition %s: %v", r.id, part.ID(), err)
		return nil, nil, err
	}
	r.stats.EndPartition(start, part.GetNumRows(), numCorrupt)
	r.logger.Debugf("Job %s finished partition %s in %s", r.id, part.ID(), time.Since(start))
	return records, rowErrs, nil
}

// processRow invokes and parses a single row. A corrupt record is returned together
// with the reason it is corrupt. A record which is not in a final state indicates that
// the row could not be processed at all.
func (r *runner) processRow(ctx context.Context) util.RowOperation {
	return util.SafeRowOperation(func(row rest.InputRow) (rest.OutputRecord, error) {
		resp := r.inv.Invoke(ctx, row)
		res := parser.Parse(resp, r.inferred)
		rec, err := assembler.Assemble(row, res)
		if err != nil {
			return rest.OutputRecord{}, err
		}
		if rec.IsCorrupt() {
			return rec, res.Reason
		}
		return rec, nil
	})
}
