package catalog

import (
	"log/slog"
	"sync"
)

// Transition computes the next catalog from the current one.
type Transition func(Catalog) (Catalog, error)

// Store holds the current catalog of a session and serialises transitions.
type Store struct {
	mu     sync.Mutex
	state  Catalog
	strict bool
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithStrict makes invariant violations panic instead of being corrected.
// Meant for development builds and tests.
func WithStrict(strict bool) StoreOption {
	return func(s *Store) {
		s.strict = strict
	}
}

// WithLogger sets the logger used to report corrected invariant violations.
func WithLogger(l *slog.Logger) StoreOption {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore returns a store holding c.
func NewStore(c Catalog, opts ...StoreOption) *Store {
	s := &Store{state: c, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns the current catalog.
func (s *Store) State() Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Dispatch applies t to the current catalog. When t fails the state is
// unchanged and the error is returned with the current catalog.
func (s *Store) Dispatch(t Transition) (Catalog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := t(s.state)
	if err != nil {
		return s.state, err
	}
	if verr := next.Validate(); verr != nil {
		if s.strict {
			panic(verr)
		}
		s.logger.Warn("correcting catalog state", slog.String("error", verr.Error()))
		if next.resource == nil {
			next.resource = s.state.resource
		}
		next = next.Normalize()
	}
	s.state = next
	return next, nil
}
