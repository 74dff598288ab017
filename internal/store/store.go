// Package store owns the active portfolio and window. Every accepted change
// produces a new query key and is handed to the coordinator.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"portfolioBench/internal/portfolio"
)

// ErrInvalidWindow is returned for a window outside portfolio.Windows.
var ErrInvalidWindow = errors.New("unsupported window")

// Repository persists the default portfolio.
type Repository interface {
	LoadDefault(ctx context.Context) (portfolio.Portfolio, error)
	SaveDefault(ctx context.Context, p portfolio.Portfolio) error
}

// Submitter receives every new query key.
type Submitter interface {
	Submit(key portfolio.QueryKey)
}

type Store struct {
	repo  Repository
	queue Submitter
	log   zerolog.Logger

	mu        sync.Mutex
	portfolio portfolio.Portfolio
	window    portfolio.Window
}

func New(repo Repository, queue Submitter, log zerolog.Logger) *Store {
	return &Store{
		repo:      repo,
		queue:     queue,
		log:       log.With().Str("component", "store").Logger(),
		portfolio: portfolio.DefaultPortfolio(),
		window:    portfolio.DefaultWindow,
	}
}

// Init loads the saved default portfolio and issues the first query. Any
// failure to load falls back to the built-in default.
func (s *Store) Init(ctx context.Context) portfolio.Portfolio {
	p := s.loadDefault(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolio = p
	s.submitLocked()
	return p.Clone()
}

func (s *Store) loadDefault(ctx context.Context) portfolio.Portfolio {
	if s.repo == nil {
		return portfolio.DefaultPortfolio()
	}
	saved, err := s.repo.LoadDefault(ctx)
	if err != nil {
		s.log.Info().Err(err).Msg("using built-in default portfolio")
		return portfolio.DefaultPortfolio()
	}
	p, err := portfolio.Validate(saved.Holdings)
	if err != nil {
		s.log.Warn().Err(err).Msg("saved default portfolio is invalid, using built-in default")
		return portfolio.DefaultPortfolio()
	}
	return p
}

// SetPortfolio validates draft and makes it the active portfolio.
func (s *Store) SetPortfolio(draft []portfolio.Holding) (portfolio.Portfolio, error) {
	p, err := portfolio.Validate(draft)
	if err != nil {
		return portfolio.Portfolio{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolio = p
	s.submitLocked()
	return p.Clone(), nil
}

// SetWindow changes the lookback window.
func (s *Store) SetWindow(w portfolio.Window) error {
	if !w.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidWindow, w)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.window = w
	s.submitLocked()
	return nil
}

// SaveDefault persists draft as the default portfolio and, once the write
// succeeded, makes it active. On failure the active portfolio is unchanged
// and the backend's message is returned.
func (s *Store) SaveDefault(ctx context.Context, draft []portfolio.Holding) (portfolio.Portfolio, error) {
	p, err := portfolio.Validate(draft)
	if err != nil {
		return portfolio.Portfolio{}, err
	}
	return p, s.persist(ctx, p)
}

// ResetDefault saves and activates the built-in default portfolio, with the
// same failure rule as SaveDefault.
func (s *Store) ResetDefault(ctx context.Context) (portfolio.Portfolio, error) {
	p := portfolio.DefaultPortfolio()
	return p, s.persist(ctx, p)
}

func (s *Store) persist(ctx context.Context, p portfolio.Portfolio) error {
	if s.repo == nil {
		return errors.New("no default portfolio repository configured")
	}
	if err := s.repo.SaveDefault(ctx, p); err != nil {
		s.log.Warn().Err(err).Msg("saving default portfolio failed")
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.portfolio = p.Clone()
	s.submitLocked()
	return nil
}

// Portfolio returns a copy of the active portfolio.
func (s *Store) Portfolio() portfolio.Portfolio {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.portfolio.Clone()
}

// Window returns the active window.
func (s *Store) Window() portfolio.Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.window
}

// Key returns the query key for the active portfolio and window.
func (s *Store) Key() portfolio.QueryKey {
	s.mu.Lock()
	defer s.mu.Unlock()
	return portfolio.NewQueryKey(s.portfolio, s.window)
}

func (s *Store) submitLocked() {
	if s.queue == nil {
		return
	}
	s.queue.Submit(portfolio.NewQueryKey(s.portfolio, s.window))
}
