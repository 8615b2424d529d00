package main

import (
	"context"
	"fmt"

	catalog2pdf "github.com/alnah/go-catalog2pdf"
)

// Pool abstracts exporter pool operations for testability.
type Pool interface {
	Acquire(ctx context.Context) (catalog2pdf.ExportRunner, error)
	Release(catalog2pdf.ExportRunner)
	Size() int
	Close() error
}

// poolAdapter exposes a *catalog2pdf.ExporterPool as a Pool.
type poolAdapter struct {
	pool *catalog2pdf.ExporterPool
}

var _ Pool = (*poolAdapter)(nil)

// newExporterPool is the production Environment.NewPool.
func newExporterPool(size int, opts ...catalog2pdf.Option) Pool {
	return &poolAdapter{pool: catalog2pdf.NewExporterPool(size, opts...)}
}

func (a *poolAdapter) Acquire(ctx context.Context) (catalog2pdf.ExportRunner, error) {
	exp, err := a.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return exp, nil
}

// Release panics when given an exporter this adapter did not hand out.
func (a *poolAdapter) Release(exp catalog2pdf.ExportRunner) {
	e, ok := exp.(*catalog2pdf.Exporter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", exp))
	}
	a.pool.Release(e)
}

func (a *poolAdapter) Size() int { return a.pool.Size() }

func (a *poolAdapter) Close() error { return a.pool.Close() }

// resolvePoolSize sizes the pool for n jobs: the explicit worker count or
// the CPU-based default, never more than the number of jobs.
func resolvePoolSize(workers, jobs int) int {
	n := catalog2pdf.ResolvePoolSize(workers)
	if jobs > 0 && n > jobs {
		n = jobs
	}
	return n
}
