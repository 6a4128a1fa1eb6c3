// Package reconcile issues committed board mutations to the remote store and
// merges the responses back into the ordering model.
//
// Every mutation is tagged with a sequence number. A response is applied only
// while its mutation is still the most recent one for each of its scopes;
// older responses are reported as stale and dropped. A refetched board is
// also stale once the model changed locally after the fetch was submitted,
// so it never overwrites a drag in progress. Failures are reported,
// never rolled back: the optimistic local state stays until a refetch.
package reconcile

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/runoshun/board/internal/domain"
)

// Model is the part of the ordering model the gateway writes to.
// *board.Model satisfies it.
type Model interface {
	ApplyTask(t domain.Task) (domain.Snapshot, error)
	ApplyColumn(c domain.Column) (domain.Snapshot, error)
	ReplaceIfUnchanged(s domain.Snapshot, gen uint64) (domain.Snapshot, int, bool, error)
	Generation() uint64
}

// Outcome describes a finished mutation.
// Fields are ordered to minimize memory padding.
type Outcome struct {
	Err     error
	Task    *domain.Task
	Column  *domain.Column
	Op      Op
	Scopes  []domain.Scope
	Seq     uint64
	Dropped int  // tasks dropped by a refetch because their column was missing
	Stale   bool // a newer mutation or local change superseded the response; discarded
}

// Failed reports whether the remote call failed.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Pending is the handle of a submitted mutation.
type Pending struct {
	done    chan struct{}
	outcome Outcome
	seq     uint64
}

// Seq returns the sequence number assigned to the mutation.
func (p *Pending) Seq() uint64 {
	return p.seq
}

// Done is closed once the mutation has finished.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the mutation finishes or ctx is done.
// The returned error is ctx's error or the mutation's failure.
func (p *Pending) Wait(ctx context.Context) (Outcome, error) {
	select {
	case <-p.done:
		return p.outcome, p.outcome.Err
	case <-ctx.Done():
		return Outcome{}, ctx.Err()
	}
}

// Options configures a Gateway.
type Options struct {
	Logger  domain.Logger
	Policy  domain.ReconcilePolicy
	Timeout time.Duration // per remote call; zero means no timeout
}

// Gateway owns the write path from the local model to the remote store.
// Fields are ordered to minimize memory padding.
type Gateway struct {
	api         domain.BoardAPI
	model       Model
	logger      domain.Logger
	latest      map[domain.Scope]uint64
	tails       map[domain.Scope]chan struct{}
	inflight    map[uint64]chan struct{}
	subscribers map[int]func(Outcome)
	policy      domain.ReconcilePolicy
	wg          sync.WaitGroup
	timeout     time.Duration
	seq         uint64
	nextSub     int
	mu          sync.Mutex
	closed      bool
}

// New creates a Gateway writing to api and applying responses to model.
func New(api domain.BoardAPI, model Model, opts Options) *Gateway {
	if opts.Logger == nil {
		opts.Logger = domain.NopLogger{}
	}
	if opts.Policy == "" {
		opts.Policy = domain.PolicyQueue
	}
	return &Gateway{
		api:         api,
		model:       model,
		logger:      opts.Logger,
		policy:      opts.Policy,
		timeout:     opts.Timeout,
		latest:      make(map[domain.Scope]uint64),
		tails:       make(map[domain.Scope]chan struct{}),
		inflight:    make(map[uint64]chan struct{}),
		subscribers: make(map[int]func(Outcome)),
	}
}

// Policy returns the sequencing policy in use.
func (g *Gateway) Policy() domain.ReconcilePolicy {
	return g.policy
}

// Subscribe registers fn to be called with every outcome, from the goroutine
// that completed the mutation. The returned function unregisters it.
func (g *Gateway) Subscribe(fn func(Outcome)) func() {
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subscribers[id] = fn
	g.mu.Unlock()

	return func() {
		g.mu.Lock()
		delete(g.subscribers, id)
		g.mu.Unlock()
	}
}

// Submit issues m in the background and returns immediately.
// ctx values are kept but its cancellation is not: an issued mutation runs
// to completion and is superseded rather than cancelled.
func (g *Gateway) Submit(ctx context.Context, m Mutation) *Pending {
	p := &Pending{done: make(chan struct{})}

	var gen uint64
	if m.exclusive {
		gen = g.model.Generation()
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		p.outcome = Outcome{Op: m.Op, Scopes: m.Scopes, Err: domain.ErrGatewayClosed}
		close(p.done)
		return p
	}

	g.seq++
	p.seq = g.seq

	var wait []chan struct{}
	if m.exclusive {
		for _, ch := range g.inflight {
			wait = append(wait, ch)
		}
	} else if g.policy == domain.PolicyQueue {
		for _, s := range m.Scopes {
			if ch, ok := g.tails[s]; ok {
				wait = append(wait, ch)
			}
		}
	}
	for _, s := range m.Scopes {
		g.latest[s] = p.seq
		g.tails[s] = p.done
	}
	g.inflight[p.seq] = p.done
	g.wg.Add(1)
	g.mu.Unlock()

	g.logger.Debug(scopeLabel(m), "submit", fmt.Sprintf("#%d %s (waiting on %d)", p.seq, m.Op, len(wait)))

	go g.run(context.WithoutCancel(ctx), p, m, gen, wait)
	return p
}

// Close stops accepting mutations and waits for the in-flight ones.
func (g *Gateway) Close() {
	g.mu.Lock()
	g.closed = true
	g.mu.Unlock()
	g.wg.Wait()
}

func (g *Gateway) run(ctx context.Context, p *Pending, m Mutation, gen uint64, wait []chan struct{}) {
	defer g.wg.Done()

	for _, ch := range wait {
		<-ch
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	res, err := m.call(callCtx, g.api)

	out := Outcome{Seq: p.seq, Op: m.Op, Scopes: m.Scopes, Task: res.Task, Column: res.Column}
	switch {
	case err != nil:
		out.Err = fmt.Errorf("%s: %w", m.Op, err)
		g.logger.Warn(scopeLabel(m), "failed", fmt.Sprintf("#%d %v", p.seq, err))
	case !g.isLatest(p.seq, m):
		out.Stale = true
		g.logger.Debug(scopeLabel(m), "stale", fmt.Sprintf("#%d %s response discarded", p.seq, m.Op))
	default:
		dropped, applied, applyErr := g.apply(res, gen)
		out.Dropped = dropped
		if applyErr == nil && !applied {
			out.Stale = true
			g.logger.Debug(scopeLabel(m), "stale", fmt.Sprintf("#%d %s discarded after local changes", p.seq, m.Op))
			break
		}
		if applyErr != nil {
			out.Err = fmt.Errorf("apply %s: %w", m.Op, applyErr)
			g.logger.Error(scopeLabel(m), "apply", applyErr.Error())
		} else {
			g.logger.Debug(scopeLabel(m), "applied", fmt.Sprintf("#%d %s", p.seq, m.Op))
		}
	}

	p.outcome = out
	g.finish(p, m)
	close(p.done)

	g.mu.Lock()
	subs := make([]func(Outcome), 0, len(g.subscribers))
	for _, id := range sortedKeys(g.subscribers) {
		subs = append(subs, g.subscribers[id])
	}
	g.mu.Unlock()
	for _, fn := range subs {
		fn(out)
	}
}

func (g *Gateway) isLatest(seq uint64, m Mutation) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if m.exclusive {
		return g.seq == seq
	}
	for _, s := range m.Scopes {
		if g.latest[s] != seq {
			return false
		}
	}
	return true
}

// apply merges a response into the model. A refetched board is applied only
// if the model's generation is still gen; applied reports whether it was.
func (g *Gateway) apply(res Result, gen uint64) (dropped int, applied bool, err error) {
	switch {
	case res.Snapshot != nil:
		_, dropped, applied, err = g.model.ReplaceIfUnchanged(*res.Snapshot, gen)
		return dropped, applied, err
	case res.Task != nil:
		_, err = g.model.ApplyTask(*res.Task)
		return 0, true, err
	case res.Column != nil:
		_, err = g.model.ApplyColumn(*res.Column)
		return 0, true, err
	}
	return 0, true, nil
}

// finish forgets the bookkeeping of a completed mutation. Entries already
// taken over by a newer mutation are left alone.
func (g *Gateway) finish(p *Pending, m Mutation) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.inflight, p.seq)
	for _, s := range m.Scopes {
		if g.latest[s] == p.seq {
			delete(g.latest, s)
		}
		if g.tails[s] == p.done {
			delete(g.tails, s)
		}
	}
}

func scopeLabel(m Mutation) string {
	if len(m.Scopes) == 0 {
		return "board"
	}
	return string(m.Scopes[0])
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
