package coordinator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioBench/internal/analytics"
	"portfolioBench/internal/client"
	"portfolioBench/internal/portfolio"
)

type result struct {
	perf *client.Performance
	err  error
}

type call struct {
	ctx    context.Context
	window portfolio.Window
	reply  chan result
}

// fakeFetcher hands every call to the test, which answers it explicitly.
// With honorCancel set, a cancelled call returns the context error at once,
// otherwise it keeps waiting like a transport that cannot abort.
type fakeFetcher struct {
	honorCancel bool
	calls       chan *call

	mu    sync.Mutex
	count int
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{calls: make(chan *call, 16)}
}

func (f *fakeFetcher) FetchPerformance(ctx context.Context, p portfolio.Portfolio, w portfolio.Window) (*client.Performance, error) {
	f.mu.Lock()
	f.count++
	f.mu.Unlock()

	c := &call{ctx: ctx, window: w, reply: make(chan result, 1)}
	f.calls <- c
	if f.honorCancel {
		select {
		case r := <-c.reply:
			return r.perf, r.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	r := <-c.reply
	return r.perf, r.err
}

func (f *fakeFetcher) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

func (f *fakeFetcher) next(t *testing.T) *call {
	t.Helper()
	select {
	case c := <-f.calls:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("expected a fetch call")
		return nil
	}
}

// recorder keeps every transition, in order.
type recorder struct {
	mu     sync.Mutex
	states []State
}

func (r *recorder) record(st State) {
	r.mu.Lock()
	r.states = append(r.states, st)
	r.mu.Unlock()
}

func (r *recorder) all() []State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]State(nil), r.states...)
}

func newCoordinator(f Fetcher) (*Coordinator, *recorder) {
	c := New(f, zerolog.Nop())
	rec := &recorder{}
	c.trace = rec.record
	return c, rec
}

func key(w portfolio.Window) portfolio.QueryKey {
	return portfolio.NewQueryKey(portfolio.DefaultPortfolio(), w)
}

func perfWith(portfolioFinal, benchmarkFinal float64) *client.Performance {
	return &client.Performance{
		Summary: analytics.Summary{PortfolioReturn: 1, BenchmarkReturn: 1, Outperformance: 42},
		Data: []analytics.Point{
			{Time: analytics.NewDate(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)), PortfolioValue: 100, BenchmarkValue: 100},
			{Time: analytics.NewDate(time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)), PortfolioValue: portfolioFinal, BenchmarkValue: benchmarkFinal},
		},
	}
}

func waitFor(t *testing.T, c *Coordinator, status Status, k portfolio.QueryKey) State {
	t.Helper()
	var st State
	require.Eventually(t, func() bool {
		st = c.State()
		return st.Status == status && st.Key.Equal(k)
	}, 2*time.Second, 5*time.Millisecond)
	return st
}

func TestSubmit_IdempotentForSameKey(t *testing.T) {
	f := newFakeFetcher()
	c, rec := newCoordinator(f)
	k := key(30)

	c.Submit(k)
	c.Submit(key(30))
	first := f.next(t)
	assert.Equal(t, 1, f.Count())
	assert.Len(t, rec.all(), 1)

	first.reply <- result{perf: perfWith(110, 105)}
	waitFor(t, c, Succeeded, k)

	c.Submit(k)
	c.Wait()
	assert.Equal(t, 1, f.Count())
	assert.Len(t, rec.all(), 2)
}

func TestSubmit_LastSubmitWins(t *testing.T) {
	f := newFakeFetcher()
	c, rec := newCoordinator(f)
	k1, k2 := key(30), key(90)

	c.Submit(k1)
	c.Submit(k2)
	// The two fetches may arrive in either order.
	call1, call2 := f.next(t), f.next(t)
	if call1.window != k1.Window {
		call1, call2 = call2, call1
	}
	require.Equal(t, k1.Window, call1.window)
	require.Equal(t, k2.Window, call2.window)
	assert.Error(t, call1.ctx.Err(), "superseded call must be cancelled")
	assert.NoError(t, call2.ctx.Err())

	call2.reply <- result{perf: perfWith(120, 110)}
	waitFor(t, c, Succeeded, k2)

	// The slow, superseded response arrives last.
	call1.reply <- result{perf: perfWith(50, 200)}
	c.Wait()

	st := c.State()
	assert.Equal(t, Succeeded, st.Status)
	assert.True(t, st.Key.Equal(k2))
	assert.InDelta(t, 20.0, st.Summary.PortfolioReturn, 1e-9)

	for _, s := range rec.all() {
		if s.Status == Succeeded || s.Status == Failed {
			assert.True(t, s.Key.Equal(k2), "observed %s for %s", s.Status, s.Key)
		}
	}
}

func TestSubmit_LastSubmitWinsAcrossMany(t *testing.T) {
	f := newFakeFetcher()
	c, _ := newCoordinator(f)

	var calls []*call
	for _, w := range portfolio.Windows[:5] {
		c.Submit(key(w))
		calls = append(calls, f.next(t))
	}
	// Complete in reverse order.
	for i := len(calls) - 1; i >= 0; i-- {
		calls[i].reply <- result{perf: perfWith(100+float64(i), 100)}
	}
	c.Wait()

	st := c.State()
	assert.Equal(t, Succeeded, st.Status)
	assert.Equal(t, portfolio.Windows[4], st.Key.Window)
	assert.InDelta(t, 4.0, st.Summary.PortfolioReturn, 1e-9)
}

func TestSubmit_CancellationNeverSurfacesAsFailure(t *testing.T) {
	f := newFakeFetcher()
	f.honorCancel = true
	c, rec := newCoordinator(f)
	k1, k2 := key(30), key(90)

	c.Submit(k1)
	f.next(t)
	c.Submit(k2)
	call2 := f.next(t)

	call2.reply <- result{perf: perfWith(101, 100)}
	c.Wait()

	waitFor(t, c, Succeeded, k2)
	for _, s := range rec.all() {
		assert.NotEqual(t, Failed, s.Status)
		assert.NotEqual(t, Cancelled, s.Status)
	}
}

func TestSubmit_WindowChangeScenario(t *testing.T) {
	f := newFakeFetcher()
	c, _ := newCoordinator(f)

	draft := []portfolio.Holding{{Symbol: "VNM", Weight: 30}, {Symbol: "VIC", Weight: 30}, {Symbol: "HPG", Weight: 40}}
	p, err := portfolio.Validate(draft)
	require.NoError(t, err)

	c.Submit(portfolio.NewQueryKey(p, 30))
	c.Submit(portfolio.NewQueryKey(p, 30))
	thirty := f.next(t)
	assert.Equal(t, 1, f.Count())

	c.Submit(portfolio.NewQueryKey(p, 90))
	ninety := f.next(t)
	assert.Equal(t, 2, f.Count())
	assert.Equal(t, portfolio.Window(90), ninety.window)
	assert.ErrorIs(t, thirty.ctx.Err(), context.Canceled)

	ninety.reply <- result{perf: perfWith(100, 100)}
	thirty.reply <- result{err: context.Canceled}
	c.Wait()
	assert.Equal(t, portfolio.Window(90), c.State().Key.Window)
}

func TestRun_Failure(t *testing.T) {
	f := newFakeFetcher()
	c, _ := newCoordinator(f)
	k := key(30)

	c.Submit(k)
	f.next(t).reply <- result{err: &client.RemoteError{Status: 500, Detail: "boom"}}
	st := waitFor(t, c, Failed, k)

	var remote *client.RemoteError
	require.ErrorAs(t, st.Err, &remote)
	assert.Equal(t, 500, remote.Status)

	// No automatic retry; an explicit re-submit fetches again.
	c.Wait()
	assert.Equal(t, 1, f.Count())
	c.Submit(k)
	f.next(t).reply <- result{perf: perfWith(100, 100)}
	waitFor(t, c, Succeeded, k)
	assert.Equal(t, 2, f.Count())
}

func TestRun_PlainErrorBecomesRemoteError(t *testing.T) {
	f := newFakeFetcher()
	c, _ := newCoordinator(f)
	k := key(7)

	c.Submit(k)
	f.next(t).reply <- result{err: errors.New("connection reset")}
	st := waitFor(t, c, Failed, k)

	var remote *client.RemoteError
	assert.ErrorAs(t, st.Err, &remote)
	assert.Contains(t, st.Err.Error(), "connection reset")
}

func TestRun_NilPerformanceFails(t *testing.T) {
	f := newFakeFetcher()
	c, _ := newCoordinator(f)
	k := key(7)

	c.Submit(k)
	f.next(t).reply <- result{}
	waitFor(t, c, Failed, k)
}

func TestRun_SummaryIsRecomputed(t *testing.T) {
	f := newFakeFetcher()
	c, _ := newCoordinator(f)
	k := key(30)

	c.Submit(k)
	f.next(t).reply <- result{perf: perfWith(110, 104)}
	st := waitFor(t, c, Succeeded, k)

	assert.NotEqual(t, 42.0, st.Summary.Outperformance)
	assert.Equal(t, st.Summary.PortfolioReturn-st.Summary.BenchmarkReturn, st.Summary.Outperformance)
	assert.Len(t, st.Rows(), 2)
	assert.Len(t, st.Recent(5), 2)
}

func TestRun_EmptySeriesFallsBackToReconciledRemoteSummary(t *testing.T) {
	f := newFakeFetcher()
	c, _ := newCoordinator(f)
	k := key(30)

	c.Submit(k)
	f.next(t).reply <- result{perf: &client.Performance{
		Summary: analytics.Summary{PortfolioReturn: 3, BenchmarkReturn: 1, Outperformance: 10},
	}}
	st := waitFor(t, c, Succeeded, k)
	assert.Equal(t, 2.0, st.Summary.Outperformance)
}

func TestDispose(t *testing.T) {
	f := newFakeFetcher()
	c, rec := newCoordinator(f)
	k := key(30)

	c.Submit(k)
	pending := f.next(t)
	c.Dispose()

	assert.Equal(t, Idle, c.State().Status)
	assert.ErrorIs(t, pending.ctx.Err(), context.Canceled)

	pending.reply <- result{perf: perfWith(110, 100)}
	c.Wait()
	assert.Equal(t, Idle, c.State().Status)
	for _, s := range rec.all() {
		assert.NotEqual(t, Succeeded, s.Status)
	}
}

func TestCancel(t *testing.T) {
	f := newFakeFetcher()
	c, _ := newCoordinator(f)
	k := key(30)

	c.Submit(k)
	pending := f.next(t)
	c.Cancel()

	st := c.State()
	assert.Equal(t, Cancelled, st.Status)
	assert.True(t, st.Key.Equal(k))
	assert.Nil(t, st.Err)

	pending.reply <- result{perf: perfWith(110, 100)}
	c.Wait()
	assert.Equal(t, Cancelled, c.State().Status)

	// A cancelled query can be asked for again.
	c.Submit(k)
	f.next(t).reply <- result{perf: perfWith(110, 100)}
	waitFor(t, c, Succeeded, k)

	// Cancel outside Pending is a no-op.
	c.Cancel()
	assert.Equal(t, Succeeded, c.State().Status)
}

func TestSubscribe_DeliversLatest(t *testing.T) {
	f := newFakeFetcher()
	c, _ := newCoordinator(f)
	updates := c.Subscribe()

	first := <-updates
	assert.Equal(t, Idle, first.Status)

	k := key(30)
	c.Submit(k)
	f.next(t).reply <- result{perf: perfWith(105, 100)}
	c.Wait()

	var last State
	require.Eventually(t, func() bool {
		select {
		case last = <-updates:
		default:
		}
		return last.Status == Succeeded
	}, 2*time.Second, 5*time.Millisecond)
	assert.True(t, last.Key.Equal(k))
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "cancelled", Cancelled.String())
	assert.Equal(t, "unknown", Status(42).String())
}
