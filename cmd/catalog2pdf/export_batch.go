package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	catalog2pdf "github.com/alnah/go-catalog2pdf"
)

// ErrExporterInit marks jobs that never ran because no exporter could be
// created for their worker.
var ErrExporterInit = errors.New("failed to initialize exporter")

// CategoryResult holds the outcome of one category export.
type CategoryResult struct {
	Category   string
	OutputPath string
	Err        error
	Duration   time.Duration
}

// exportJob writes one category with the given exporter.
type exportJob func(ctx context.Context, exp catalog2pdf.ExportRunner, category string) (string, error)

// exportBatch runs the category jobs concurrently, one exporter per worker.
// Results keep the order of categories.
func exportBatch(ctx context.Context, pool Pool, categories []string, job exportJob, now func() time.Time) []CategoryResult {
	if len(categories) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(categories))

	results := make([]CategoryResult, len(categories))
	var wg sync.WaitGroup
	jobs := make(chan int, len(categories))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			exp, err := pool.Acquire(ctx)
			if err != nil {
				// mark whatever this worker would have handled
				for idx := range jobs {
					results[idx] = CategoryResult{
						Category: categories[idx],
						Err:      fmt.Errorf("%w: %w", ErrExporterInit, err),
					}
				}
				return
			}
			defer pool.Release(exp)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = CategoryResult{Category: categories[idx], Err: ctx.Err()}
					continue
				}
				start := now()
				path, err := job(ctx, exp, categories[idx])
				results[idx] = CategoryResult{
					Category:   categories[idx],
					OutputPath: path,
					Err:        err,
					Duration:   now().Sub(start),
				}
			}
		}()
	}

	for i := range categories {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// printResults reports each category export and returns the failure count
// and the first error.
func printResults(results []CategoryResult, common *commonFlags, env *Environment) (int, error) {
	var failed int
	var firstErr error

	for _, r := range results {
		if r.Err != nil {
			failed++
			if firstErr == nil {
				firstErr = r.Err
			}
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.Category, r.Err)
			continue
		}

		if common.quiet {
			continue
		}

		if common.verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.Category, r.OutputPath, r.Duration.Round(time.Millisecond))
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !common.quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", len(results)-failed, failed)
	}
	return failed, firstErr
}
