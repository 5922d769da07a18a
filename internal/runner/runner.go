// Package runner executes backend actions off the UI loop.
//
// Read-only actions run concurrently up to a cap; blocking (mutating)
// actions run exclusively: a second blocking submission is rejected with
// ErrBusy while one is in flight, and no read-only command overlaps a
// blocking one. Completions are published on a channel the UI loop drains,
// so workers never share mutable result state with the render path.
package runner

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/keyvc/vix/internal/action"
	"github.com/keyvc/vix/internal/vcs"
)

// ErrBusy rejects a blocking submission while another blocking operation
// is in flight.
var ErrBusy = errors.New("another operation is in progress")

// Handle identifies one submitted operation.
type Handle uint64

// Completion is one finished operation. Cancelled and stale operations
// never produce a Completion.
type Completion struct {
	Handle Handle
	Action action.Action
	Result vcs.Result
}

// Runner schedules backend executions on a bounded worker set.
type Runner struct {
	backend vcs.Backend
	log     zerolog.Logger

	readSlots chan struct{} // bounded read-only concurrency
	gate      sync.RWMutex  // blocking ops exclude read-only ops

	mu          sync.Mutex
	nextHandle  Handle
	blockingUp  bool
	latestSeq   map[action.Kind]Handle // staleness: newest submitted per kind
	cancels     map[Handle]context.CancelFunc
	completions chan Completion

	closed atomic.Bool
	wg     sync.WaitGroup
}

// New creates a runner over backend with the given read-only concurrency
// cap. Completions are buffered so workers never stall on the UI loop.
func New(backend vcs.Backend, maxReads int, log zerolog.Logger) *Runner {
	if maxReads <= 0 {
		maxReads = 4
	}
	return &Runner{
		backend:     backend,
		log:         log,
		readSlots:   make(chan struct{}, maxReads),
		latestSeq:   make(map[action.Kind]Handle),
		cancels:     make(map[Handle]context.CancelFunc),
		completions: make(chan Completion, 64),
	}
}

// Completions is the channel the UI loop drains. It is closed by Shutdown.
func (r *Runner) Completions() <-chan Completion {
	return r.completions
}

// Pending reports how many operations are in flight.
func (r *Runner) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cancels)
}

// Submit schedules act for execution. Blocking-class actions return ErrBusy
// when another blocking action is still in flight; read-only actions are
// always admitted and queue on the read slots.
func (r *Runner) Submit(act action.Action) (Handle, error) {
	r.mu.Lock()
	if r.closed.Load() {
		r.mu.Unlock()
		return 0, errors.New("runner is shut down")
	}
	if act.Kind.Blocking() && r.blockingUp {
		r.mu.Unlock()
		return 0, ErrBusy
	}

	r.nextHandle++
	h := r.nextHandle
	r.latestSeq[act.Kind] = h
	ctx, cancel := context.WithCancel(context.Background())
	r.cancels[h] = cancel
	if act.Kind.Blocking() {
		r.blockingUp = true
	}
	r.mu.Unlock()

	r.wg.Add(1)
	go r.run(ctx, h, act)

	return h, nil
}

// Cancel requests a cooperative stop of the operation. The executor
// escalates to a forced kill after its grace period. A cancelled operation
// publishes no completion.
func (r *Runner) Cancel(h Handle) {
	r.mu.Lock()
	cancel := r.cancels[h]
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// CancelAll cancels every in-flight operation.
func (r *Runner) CancelAll() {
	r.mu.Lock()
	cancels := make([]context.CancelFunc, 0, len(r.cancels))
	for _, c := range r.cancels {
		cancels = append(cancels, c)
	}
	r.mu.Unlock()
	for _, c := range cancels {
		c()
	}
}

// Shutdown cancels all operations, waits for workers to drain, and closes
// the completion channel.
func (r *Runner) Shutdown() {
	if r.closed.Swap(true) {
		return
	}
	r.CancelAll()
	r.wg.Wait()
	close(r.completions)
}

func (r *Runner) run(ctx context.Context, h Handle, act action.Action) {
	defer r.wg.Done()

	blocking := act.Kind.Blocking()
	if blocking {
		r.gate.Lock()
		defer r.gate.Unlock()
	} else {
		select {
		case r.readSlots <- struct{}{}:
		case <-ctx.Done():
			r.finish(h, act)
			return
		}
		defer func() { <-r.readSlots }()
		r.gate.RLock()
		defer r.gate.RUnlock()
	}

	result, err := r.backend.Execute(ctx, act)
	if err != nil && len(result.Lines) == 0 {
		result = vcs.FailResult("", err.Error())
	}
	if err != nil {
		result.OK = false
		r.log.Warn().Err(err).Str("action", act.Name()).Msg("action failed")
	} else {
		r.log.Debug().Str("action", act.Name()).Msg("action finished")
	}

	stale := r.finish(h, act)
	if ctx.Err() != nil || stale || r.closed.Load() {
		return
	}
	r.completions <- Completion{Handle: h, Action: act, Result: result}
}

// finish releases bookkeeping for h and reports whether a newer submission
// of the same kind superseded it while it ran.
func (r *Runner) finish(h Handle, act action.Action) (stale bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cancels, h)
	if act.Kind.Blocking() {
		r.blockingUp = false
	}
	return r.latestSeq[act.Kind] != h
}
