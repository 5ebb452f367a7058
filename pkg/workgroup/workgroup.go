package workgroup

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Workgroup runs related workers against a shared context. The first worker
// to return an error poisons Wait's result; remaining workers are expected to
// honor the context themselves.
type Workgroup struct {
	ctx   context.Context
	group errgroup.Group
}

func WithContext(ctx context.Context) *Workgroup {
	return &Workgroup{ctx: ctx}
}

// Work schedules fn to run with the group's context.
func (g *Workgroup) Work(fn func(context.Context) error) {
	g.group.Go(func() error {
		return fn(g.ctx)
	})
}

// Wait blocks until all scheduled workers return, yielding the first error.
func (g *Workgroup) Wait() error {
	return g.group.Wait()
}
