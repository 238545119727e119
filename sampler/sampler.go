// Package sampler selects and invokes the rows whose responses drive schema inference
package sampler

import (
	"context"
	"fmt"
	"math"
	"sync"

	rest "github.com/go-sif/sif-rest"
	"github.com/go-sif/sif-rest/errors"
	"github.com/go-sif/sif-rest/internal/util"
	"github.com/go-sif/sif-rest/logging"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/semaphore"
)

// Config configures sampling
type Config struct {
	Pcnt        float64         // percentage of all rows to sample, in (0, 100]
	MinSize     int             // sample floor, applied before clamping to the number of rows
	Concurrency int             // maximum number of in-flight sample calls. Defaults to 4.
	Logger      *logging.Logger // optional
}

// Exclusion records a sampled row whose response could not be used
type Exclusion struct {
	Offset int
	Reason error
}

// Result holds the usable bodies of a sample, in input order
type Result struct {
	Size       int
	Bodies     [][]byte
	Exclusions []Exclusion
}

// SampleSize returns max(min, ceil(total * pct / 100)), clamped to total
func SampleSize(total int, pct float64, min int) int {
	size := int(math.Ceil(float64(total) * pct / 100))
	if size < min {
		size = min
	}
	if size > total {
		size = total
	}
	if size < 0 {
		size = 0
	}
	return size
}

// Sample invokes the first SampleSize rows and collects the bodies of successful,
// well-formed responses. A row whose invocation panics is excluded. If no sampled response is usable, a
// SchemaInferenceFailure is returned. If ctx is cancelled, ctx.Err() is returned.
func Sample(ctx context.Context, rows []rest.InputRow, inv rest.Invoker, conf *Config) (*Result, error) {
	concurrency := conf.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	size := SampleSize(len(rows), conf.Pcnt, conf.MinSize)
	conf.Logger.Debugf("Sampling %d of %d rows", size, len(rows))

	responses := make([]*rest.Response, size)
	sem := semaphore.NewWeighted(int64(concurrency))
	var wg sync.WaitGroup
	for i := 0; i < size; i++ {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer sem.Release(1)
			// a panicking row is excluded from the sample, like any other failed call
			defer func() {
				if r := recover(); r != nil {
					responses[i] = &rest.Response{Err: fmt.Errorf("Sample Panic: %v\n%s", r, util.GetTrace())}
				}
			}()
			responses[i] = inv.Invoke(ctx, rows[i])
		}(i)
	}
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{Size: size, Bodies: make([][]byte, 0, size)}
	var lastCause error
	for i, resp := range responses {
		if reason := usable(resp); reason != nil {
			conf.Logger.Warnf("Excluding sampled row %d from schema inference: %v", i, reason)
			res.Exclusions = append(res.Exclusions, Exclusion{Offset: i, Reason: reason})
			lastCause = reason
			continue
		}
		res.Bodies = append(res.Bodies, resp.Body)
	}
	if len(res.Bodies) == 0 {
		return nil, errors.SchemaInferenceFailure{SampleSize: size, Excluded: len(res.Exclusions), LastCause: lastCause}
	}
	return res, nil
}

func usable(resp *rest.Response) error {
	if resp.Err != nil {
		return resp.Err
	}
	if !resp.OK() {
		return errors.HTTPError{StatusCode: resp.StatusCode, Body: resp.Body}
	}
	if len(resp.Body) == 0 {
		return errors.ParseError{Reason: "empty body"}
	}
	if !gjson.ValidBytes(resp.Body) {
		return errors.ParseError{Reason: fmt.Sprintf("invalid JSON body %q", truncate(resp.Body, 64))}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
