package core

import (
	"context"
	"sync"
)

// Pending is the asynchronous result of one logical call. It settles exactly
// once; later settle attempts are ignored.
type Pending struct {
	once    sync.Once
	done    chan struct{}
	outcome Outcome
	err     error
}

func NewPending() *Pending {
	return &Pending{done: make(chan struct{})}
}

// Go runs fn on its own goroutine and returns the Pending it settles.
func Go(ctx context.Context, fn func(ctx context.Context) (Outcome, error)) *Pending {
	pending := NewPending()
	go func() {
		outcome, err := fn(ctx)
		pending.Settle(outcome, err)
	}()
	return pending
}

// Settle records the result. It reports whether this call settled the Pending.
func (p *Pending) Settle(outcome Outcome, err error) bool {
	settled := false
	p.once.Do(func() {
		p.outcome = outcome
		p.err = err
		settled = true
		close(p.done)
	})
	return settled
}

func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the Pending settles or ctx is done.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case <-p.done:
		return p.outcome, p.err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Result returns the settled result and whether the Pending has settled.
func (p *Pending) Result() (Outcome, error, bool) {
	select {
	case <-p.done:
		return p.outcome, p.err, true
	default:
		return Outcome{}, nil, false
	}
}
