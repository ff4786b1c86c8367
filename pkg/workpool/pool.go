// Package workpool runs batches of tasks with bounded concurrency.
package workpool

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Pool bounds how many tasks of one Run execute at the same time.
type Pool struct {
	limit int
}

func New(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{limit: limit}
}

// Run executes every task and waits for all of them. The first error cancels
// the context passed to the remaining tasks and is returned.
func (p *Pool) Run(ctx context.Context, tasks ...func(ctx context.Context) error) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)
	for _, task := range tasks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return task(gctx)
		})
	}
	return g.Wait()
}
