package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/san-kum/topple/internal/automaton"
)

// Job is one member of an ensemble. Each job gets its own Runner, so the
// metrics returned by Metrics must not be shared between jobs.
type Job struct {
	Name      string
	Model     automaton.Model
	Config    Config
	Metrics   func() []Metric
	Observers []Observer
}

// Ensemble runs independent models concurrently, at most Workers at a time.
// Engines share nothing, so each one is stepped by exactly one goroutine.
type Ensemble struct {
	log     *slog.Logger
	workers int
}

func NewEnsemble(log *slog.Logger, workers int) *Ensemble {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	if workers < 1 {
		workers = 1
	}
	return &Ensemble{log: log, workers: workers}
}

// Run returns one result per job, in job order. The first error cancels the
// remaining jobs and is returned together with the partial results.
func (e *Ensemble) Run(ctx context.Context, jobs []Job) ([]*Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*Result, len(jobs))
	errs := make([]error, len(jobs))
	sem := make(chan struct{}, e.workers)

	var wg sync.WaitGroup
	for i, job := range jobs {
		wg.Add(1)
		go func(idx int, job Job) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				errs[idx] = ctx.Err()
				return
			}
			defer func() { <-sem }()

			r := New(e.log.With("job", job.Name))
			if job.Metrics != nil {
				for _, m := range job.Metrics() {
					r.AddMetric(m)
				}
			}
			for _, o := range job.Observers {
				r.AddObserver(o)
			}
			res, err := r.Run(ctx, job.Model, job.Config)
			results[idx] = res
			if err != nil {
				errs[idx] = fmt.Errorf("%s: %w", job.Name, err)
				cancel()
			}
		}(i, job)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil && !errors.Is(err, context.Canceled) {
			return results, err
		}
	}
	for _, err := range errs {
		if err != nil {
			return results, err
		}
	}
	return results, nil
}
