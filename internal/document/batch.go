package document

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Job is one document to process.
type Job struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// JobResult is the outcome of one Job.
type JobResult struct {
	Job    Job
	Result *Output
	Err    error
}

// ProcessFiles runs jobs with at most limit documents in flight
// (limit <= 0 means one at a time). A failed job does not stop the
// others; results keep the order of jobs and the returned error joins
// every failure.
func (p *Processor) ProcessFiles(ctx context.Context, jobs []Job, limit int) ([]JobResult, error) {
	if limit <= 0 {
		limit = 1
	}

	results := make([]JobResult, len(jobs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, job := range jobs {
		g.Go(func() error {
			out, err := p.ProcessFile(ctx, job.Input, job.Output)
			results[i] = JobResult{Job: job, Result: out, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Job.Input, r.Err))
		}
	}
	return results, errors.Join(errs...)
}
