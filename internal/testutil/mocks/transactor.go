package mocks

import "context"

// Transactor runs fn directly and counts how often it was asked to.
type Transactor struct {
	Calls int
}

func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.Calls++
	return fn(ctx)
}
