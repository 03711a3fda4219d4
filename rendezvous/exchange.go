// Package rendezvous implements the pending-answer handoff between the
// HTTP handlers and the out-of-band collaborator that produces answers.
//
// Each chat request gets its own pending cell, addressed by request id.
// The handler suspends in Await; the collaborator fulfills the cell through
// a write-only Handle, possibly from a different goroutine. A cell resolves
// exactly once: late or duplicate resolves are silent no-ops so a slow
// operator can never corrupt a later request.
package rendezvous

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wozlab/humanchat/pkg/oai"
)

// Policy decides what happens when Begin is called while the exchange is
// already at its in-flight limit.
type Policy string

const (
	// PolicyReject fails the new request immediately with ErrBusy.
	PolicyReject Policy = "reject"
	// PolicyQueue makes the new request wait for a free slot until its
	// context is done.
	PolicyQueue Policy = "queue"
	// PolicyReplace cancels the oldest pending request (its Await returns
	// ErrSuperseded) and admits the new one.
	PolicyReplace Policy = "replace"
)

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyReject, PolicyQueue, PolicyReplace:
		return Policy(s), nil
	default:
		return "", errors.New("pending policy must be one of: reject, queue, replace")
	}
}

var (
	// ErrBusy means the exchange is at its in-flight limit under
	// PolicyReject.
	ErrBusy = errors.New("a request is already awaiting an answer")

	// ErrAnswerTimeout means no answer arrived within the Await budget.
	ErrAnswerTimeout = errors.New("no answer arrived within the answer timeout")

	// ErrSuperseded means a newer request replaced this one under
	// PolicyReplace.
	ErrSuperseded = errors.New("request was superseded by a newer conversation")
)

type outcome struct {
	answer string
	err    error
}

// cell is the single-use handoff slot for one request. complete wins at
// most once; whoever loses the race observes the earlier outcome (or, for
// terminal errors, nothing at all).
type cell struct {
	id       string
	born     time.Time
	messages int
	once     sync.Once
	done     chan outcome
}

func (c *cell) complete(o outcome) {
	c.once.Do(func() { c.done <- o })
}

// Exchange is the arena of pending answers. It is the only shared mutable
// state between the network side and the collaborator side.
type Exchange struct {
	mu     sync.Mutex
	policy Policy
	cells  map[string]*cell
	order  []string // insertion order, oldest first

	sem chan struct{}
}

// New creates an Exchange with the given full-slot policy and in-flight
// limit. A limit below one is treated as one.
func New(policy Policy, limit int) *Exchange {
	if limit < 1 {
		limit = 1
	}
	return &Exchange{
		policy: policy,
		cells:  make(map[string]*cell),
		sem:    make(chan struct{}, limit),
	}
}

// SetPolicy changes the full-slot policy at runtime.
func (e *Exchange) SetPolicy(p Policy) {
	e.mu.Lock()
	e.policy = p
	e.mu.Unlock()
}

// Begin records the conversation as awaiting an answer. It returns the
// Pending side for the handler to await on and the write-only Handle for
// the collaborator. When the exchange is full the configured policy
// applies.
func (e *Exchange) Begin(ctx context.Context, conversation []oai.Message) (*Pending, *Handle, error) {
	e.mu.Lock()
	policy := e.policy
	e.mu.Unlock()

	switch policy {
	case PolicyQueue:
		select {
		case e.sem <- struct{}{}:
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		}
	case PolicyReplace:
		select {
		case e.sem <- struct{}{}:
		default:
			e.supersedeOldest()
			// The superseded Await releases its slot as it returns.
			select {
			case e.sem <- struct{}{}:
			case <-ctx.Done():
				return nil, nil, ctx.Err()
			}
		}
	default: // PolicyReject
		select {
		case e.sem <- struct{}{}:
		default:
			return nil, nil, ErrBusy
		}
	}

	c := &cell{
		id:       uuid.NewString(),
		born:     time.Now(),
		messages: len(conversation),
		done:     make(chan outcome, 1),
	}

	e.mu.Lock()
	e.cells[c.id] = c
	e.order = append(e.order, c.id)
	e.mu.Unlock()

	return &Pending{ex: e, c: c}, &Handle{c: c}, nil
}

func (e *Exchange) supersedeOldest() {
	e.mu.Lock()
	var oldest *cell
	if len(e.order) > 0 {
		oldest = e.cells[e.order[0]]
	}
	e.mu.Unlock()

	if oldest != nil {
		oldest.complete(outcome{err: ErrSuperseded})
	}
}

// release drops the cell from the arena and frees its slot.
func (e *Exchange) release(c *cell) {
	e.mu.Lock()
	if _, ok := e.cells[c.id]; ok {
		delete(e.cells, c.id)
		for i, id := range e.order {
			if id == c.id {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
	e.mu.Unlock()
	<-e.sem
}

// PendingInfo is a point-in-time view of one awaiting request, for
// introspection only.
type PendingInfo struct {
	ID       string        `json:"id"`
	Age      time.Duration `json:"age"`
	Messages int           `json:"messages"`
}

// Snapshot lists the currently awaiting requests, oldest first.
func (e *Exchange) Snapshot() []PendingInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	infos := make([]PendingInfo, 0, len(e.order))
	for _, id := range e.order {
		c := e.cells[id]
		infos = append(infos, PendingInfo{
			ID:       c.id,
			Age:      time.Since(c.born),
			Messages: c.messages,
		})
	}
	return infos
}
