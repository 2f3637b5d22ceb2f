package delivery

import (
	"context"
	"errors"
	"sync"

	"photobooth/internal/render"
)

// ErrInFlight is returned by Start while a submission is outstanding.
var ErrInFlight = errors.New("a submission is already in flight")

// OpState tracks one submission through its lifecycle.
type OpState int

const (
	OpIdle OpState = iota
	OpInFlight
	OpSucceeded
	OpFailed
)

// Operation wraps Client.Submit as an explicit asynchronous operation,
// so the UI layer can disable controls while InFlight and render the
// outcome without per-call-site error handling. A failed operation
// returns to a startable state; retry is always user-triggered.
type Operation struct {
	client *Client

	mu      sync.Mutex
	state   OpState
	outcome *Outcome
	err     error
	done    chan struct{}
}

// NewOperation wraps client.
func NewOperation(client *Client) *Operation {
	return &Operation{client: client, state: OpIdle}
}

// State reports the current lifecycle state.
func (o *Operation) State() OpState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Result returns the outcome and error of the last completed
// submission. Both are nil while Idle or InFlight.
func (o *Operation) Result() (*Outcome, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == OpIdle || o.state == OpInFlight {
		return nil, nil
	}
	return o.outcome, o.err
}

// Start begins a submission in the background. It refuses to start a
// second one while the first is outstanding. The returned channel is
// closed when the submission resolves.
func (o *Operation) Start(ctx context.Context, recipient string, artifact *render.Artifact) (<-chan struct{}, error) {
	o.mu.Lock()
	if o.state == OpInFlight {
		o.mu.Unlock()
		return nil, ErrInFlight
	}
	o.state = OpInFlight
	o.outcome = nil
	o.err = nil
	o.done = make(chan struct{})
	done := o.done
	o.mu.Unlock()

	go func() {
		outcome, err := o.client.Submit(ctx, recipient, artifact)

		o.mu.Lock()
		o.outcome = outcome
		o.err = err
		if err != nil {
			o.state = OpFailed
		} else {
			o.state = OpSucceeded
		}
		o.mu.Unlock()
		close(done)
	}()
	return done, nil
}

// Run submits and blocks until the outcome is known. Convenience for
// callers without an event loop.
func (o *Operation) Run(ctx context.Context, recipient string, artifact *render.Artifact) (*Outcome, error) {
	done, err := o.Start(ctx, recipient, artifact)
	if err != nil {
		return nil, err
	}
	<-done
	return o.Result()
}
