package rendezvous

import (
	"context"
	"sync"
	"time"
)

// Handle is the collaborator's write-only side of a pending answer.
// It can be resolved from any goroutine. Resolving a handle whose request
// has already finished (answered, timed out, cancelled or superseded) is a
// no-op.
type Handle struct {
	c *cell
}

// ID returns the request id this handle belongs to.
func (h *Handle) ID() string {
	if h == nil || h.c == nil {
		return ""
	}
	return h.c.id
}

// Resolve fulfills the pending answer exactly once. Duplicate and stale
// resolves do nothing.
func (h *Handle) Resolve(answer string) {
	if h == nil || h.c == nil {
		return
	}
	h.c.complete(outcome{answer: answer})
}

// Pending is the handler's side of a pending answer.
type Pending struct {
	ex *Exchange
	c  *cell

	releaseOnce sync.Once
}

// ID returns the request id of this pending answer.
func (p *Pending) ID() string { return p.c.id }

// Await suspends until the answer arrives, the timeout elapses, or ctx is
// done (client disconnect). A timeout of zero or below disables the budget.
// Whatever the outcome, the slot is released and any later Resolve against
// it is a no-op.
func (p *Pending) Await(ctx context.Context, timeout time.Duration) (string, error) {
	defer p.release()

	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}

	select {
	case o := <-p.c.done:
		return o.answer, o.err
	case <-expired:
		// Seal the cell so a late operator submit is a no-op.
		p.c.complete(outcome{err: ErrAnswerTimeout})
		return "", ErrAnswerTimeout
	case <-ctx.Done():
		p.c.complete(outcome{err: ctx.Err()})
		return "", ctx.Err()
	}
}

func (p *Pending) release() {
	p.releaseOnce.Do(func() { p.ex.release(p.c) })
}
