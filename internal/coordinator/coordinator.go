// Package coordinator keeps at most one performance request in flight and
// makes sure only the most recently submitted query ever reaches the
// observable state.
package coordinator

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"portfolioBench/internal/analytics"
	"portfolioBench/internal/client"
	"portfolioBench/internal/portfolio"
)

// Fetcher performs one cancellable performance query.
type Fetcher interface {
	FetchPerformance(ctx context.Context, p portfolio.Portfolio, w portfolio.Window) (*client.Performance, error)
}

type Coordinator struct {
	fetcher Fetcher
	log     zerolog.Logger

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	state    State
	subs     []chan State
	trace    func(State)
	inflight sync.WaitGroup
}

func New(fetcher Fetcher, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		fetcher: fetcher,
		log:     log.With().Str("component", "coordinator").Logger(),
	}
}

// Submit makes key the desired query. Re-submitting the key that is already
// pending or succeeded does nothing. Otherwise the outstanding call, if any,
// is cancelled and a new one is issued.
func (c *Coordinator) Submit(key portfolio.QueryKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if (c.state.Status == Pending || c.state.Status == Succeeded) && c.state.Key.Equal(key) {
		c.log.Debug().Str("key", key.ID()).Str("status", c.state.Status.String()).Msg("query already current")
		return
	}

	c.abortLocked()
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	gen := c.gen

	c.setLocked(State{Status: Pending, Key: key, Generation: gen})
	c.log.Debug().Str("key", key.ID()).Uint64("generation", gen).Msg("query issued")

	c.inflight.Add(1)
	go c.run(ctx, gen, key)
}

// Cancel aborts the pending query, leaving it Cancelled.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Status != Pending {
		return
	}
	key := c.state.Key
	c.abortLocked()
	c.setLocked(State{Status: Cancelled, Key: key, Generation: c.gen})
}

// Dispose cancels any outstanding call and returns to Idle. It is called
// when whatever displays the state goes away.
func (c *Coordinator) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.abortLocked()
	c.setLocked(State{Status: Idle, Generation: c.gen})
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe returns a channel that always holds the newest state. Slow
// readers skip intermediate states but never miss the latest one.
func (c *Coordinator) Subscribe() <-chan State {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan State, 1)
	ch <- c.state
	c.subs = append(c.subs, ch)
	return ch
}

// Wait blocks until every issued call has returned, including superseded ones.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

// abortLocked cancels the outstanding call and invalidates its generation.
func (c *Coordinator) abortLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.gen++
}

func (c *Coordinator) setLocked(st State) {
	c.state = st
	if c.trace != nil {
		c.trace(st)
	}
	for _, ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- st
	}
}

func (c *Coordinator) run(ctx context.Context, gen uint64, key portfolio.QueryKey) {
	defer c.inflight.Done()

	perf, err := c.fetcher.FetchPerformance(ctx, key.Portfolio, key.Window)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		c.log.Debug().Str("key", key.ID()).Uint64("generation", gen).Uint64("current", c.gen).Msg("dropping stale completion")
		return
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	switch {
	case err != nil && errors.Is(err, context.Canceled):
		c.setLocked(State{Status: Cancelled, Key: key, Generation: gen})
	case err != nil:
		c.log.Warn().Err(err).Str("key", key.ID()).Msg("performance query failed")
		c.setLocked(State{Status: Failed, Key: key, Err: asRemoteError(err), Generation: gen})
	case perf == nil:
		c.setLocked(State{Status: Failed, Key: key, Err: &client.RemoteError{Detail: "empty response"}, Generation: gen})
	default:
		c.setLocked(State{
			Status:     Succeeded,
			Key:        key,
			Summary:    summarize(perf),
			Series:     perf.Data,
			Generation: gen,
		})
	}
}

// summarize derives the summary from the series and only falls back to the
// remote figures, with outperformance recomputed, when the series is unusable.
func summarize(perf *client.Performance) analytics.Summary {
	if s, err := analytics.Summarize(perf.Data); err == nil {
		return s
	}
	return analytics.Reconcile(perf.Summary)
}

func asRemoteError(err error) error {
	var remote *client.RemoteError
	if errors.As(err, &remote) {
		return err
	}
	return &client.RemoteError{Err: err}
}
