package convert

import (
	"context"
	"path/filepath"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// RunBatch converts every job, at most parallelism at a time (unlimited when
// parallelism <= 0). The first failure cancels jobs that have not started.
// The returned slice is indexed like jobs. A job started after the
// cancellation fails fast with the context error, and its entry still holds
// a Result.
func RunBatch(ctx context.Context, jobs []Job, opts Options, parallelism int) ([]*Result, error) {
	if len(jobs) == 0 {
		return nil, Usagef("no conversions given")
	}

	outputs := make(map[string]string, len(jobs))
	for _, job := range jobs {
		out := filepath.Clean(job.Output)
		if prev, ok := outputs[out]; ok {
			return nil, Usagef("%s and %s both write %s", prev, job.Input, job.Output)
		}
		outputs[out] = job.Input
	}

	results := make([]*Result, len(jobs))
	eg, egCtx := errgroup.WithContext(ctx)
	if parallelism > 0 {
		eg.SetLimit(parallelism)
	}

	for i, job := range jobs {
		eg.Go(func() error {
			res, err := Run(egCtx, job, opts)
			results[i] = res
			if err != nil {
				return errors.WithMessage(err, job.Input)
			}
			return nil
		})
	}

	return results, eg.Wait()
}
