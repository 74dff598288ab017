package telegram

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"portfolioBench/internal/coordinator"
	"portfolioBench/internal/store"
)

// session is one chat's portfolio store and query coordinator. Every state
// the coordinator settles on is handed to publish exactly once.
type session struct {
	chatID int64
	store  *store.Store
	coord  *coordinator.Coordinator
	done   chan struct{}
	wg     sync.WaitGroup

	initOnce sync.Once
}

// newSession does no I/O. The starting portfolio is read by load.
func newSession(chatID int64, backend Backend, publish func(int64, coordinator.State), log zerolog.Logger) *session {
	log = log.With().Int64("chat_id", chatID).Logger()
	coord := coordinator.New(backend, log)
	s := &session{
		chatID: chatID,
		store:  store.New(backend, coord, log),
		coord:  coord,
		done:   make(chan struct{}),
	}

	updates := coord.Subscribe()
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		var lastGen uint64
		for {
			select {
			case <-s.done:
				return
			case st := <-updates:
				if st.Status == coordinator.Idle || st.Status == coordinator.Pending {
					continue
				}
				if st.Generation == lastGen {
					continue
				}
				lastGen = st.Generation
				publish(chatID, st)
			}
		}
	}()
	return s
}

// load loads the chat's starting portfolio and runs the first query. Only
// the first call does anything; later callers wait for it to finish.
func (s *session) load(timeout time.Duration) {
	s.initOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		s.store.Init(ctx)
	})
}

func (s *session) close() {
	s.coord.Dispose()
	close(s.done)
	s.wg.Wait()
}
