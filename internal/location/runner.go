package location

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/ihza212325/trashpin/internal/model"
)

// Result is one resolved cascade invocation.
type Result struct {
	Fix model.LocationFix
	Err error
}

// Runner serializes cascade results onto consumer state: each Acquire call
// gets a monotonically increasing token, and only the most recently issued
// invocation may deliver. A retry never cancels the in-flight device
// request; the superseded resolution is simply discarded when it lands.
type Runner struct {
	cascade *Cascade
	log     Logger

	seq    atomic.Uint64
	mu     sync.Mutex
	closed bool
}

// NewRunner wraps a cascade with last-write-wins delivery.
func NewRunner(c *Cascade, log Logger) *Runner {
	return &Runner{cascade: c, log: log}
}

// Acquire starts a fresh cascade invocation in the background and calls
// deliver with its result, unless a newer invocation has started or the
// runner was closed in the meantime.
func (r *Runner) Acquire(ctx context.Context, deliver func(Result)) {
	token := r.seq.Add(1)

	go func() {
		fix, err := r.cascade.Acquire(ctx)

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.closed {
			r.log.Debug("dropping cascade result, runner closed", "token", token)
			return
		}
		if token != r.seq.Load() {
			r.log.Debug("dropping superseded cascade result", "token", token, "current", r.seq.Load())
			return
		}
		deliver(Result{Fix: fix, Err: err})
	}()
}

// AcquireSync runs the cascade on the caller's goroutine without token
// bookkeeping. Used where the caller owns the whole flow lifetime.
func (r *Runner) AcquireSync(ctx context.Context) (model.LocationFix, error) {
	return r.cascade.Acquire(ctx)
}

// Close abandons interest in any in-flight invocation. Their eventual
// resolutions become no-ops; the runner cannot be reused afterwards.
func (r *Runner) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}
