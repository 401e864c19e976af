package rsxc

import (
	"context"
	"fmt"
	"runtime"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/rsxc/ir"
)

// Job is one program to build in a batch.
type Job struct {
	// Name identifies the job in errors and logs, usually the input path.
	Name string

	// Source is assembly text, or Cg source when Compile is set.
	Source string

	// Kind selects the vertex or fragment unit.
	Kind ir.ProgramKind

	// Compile runs the Cg compiler before assembling.
	Compile bool
}

// Result is the outcome of one Job.
type Result struct {
	Job    Job
	Output []byte
	Err    error
}

// CompileAll builds every job with bounded parallelism. Results keep the
// order of jobs. The returned error aggregates every failed job; successful
// jobs still carry their output.
func CompileAll(ctx context.Context, jobs []Job, opts Options) ([]Result, error) {
	limit := opts.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(jobs))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			results[i] = Result{Job: job}
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return nil
			}

			jobOpts := opts
			jobOpts.Kind = job.Kind
			jobOpts.Logger = opts.Logger.With().Str("job", job.Name).Logger()

			var out []byte
			var err error
			if job.Compile {
				out, err = Compile(ctx, job.Source, jobOpts)
			} else {
				out, err = AssembleWithOptions(job.Source, jobOpts)
			}
			results[i].Output, results[i].Err = out, err
			return nil
		})
	}
	_ = g.Wait()

	var merr *multierror.Error
	for _, r := range results {
		if r.Err != nil {
			merr = multierror.Append(merr, fmt.Errorf("%s: %w", r.Job.Name, r.Err))
		}
	}
	return results, merr.ErrorOrNil()
}
