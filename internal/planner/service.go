// Package planner is the core of the semantic SEO planner. It owns the data
// model, the storage and discovery contracts, and the Service that enforces
// every invariant the store does not.
package planner

import (
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service implements project, topical map, brief and publication operations
// on top of a Storage
type Service struct {
	store      Storage
	discoverer Discoverer
	now        func() time.Time
	newID      func() string
	logger     *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithDiscoverer sets the adapter used by DiscoverFramework
func WithDiscoverer(d Discoverer) Option {
	return func(s *Service) { s.discoverer = d }
}

// WithClock replaces the wall clock, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the logger; slog.Default() is used otherwise
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a new planner service
func NewService(store Storage, opts ...Option) *Service {
	s := &Service{
		store:  store,
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp returns the current time in UTC without a monotonic reading
func (s *Service) timestamp() time.Time {
	return s.now().UTC()
}

// touch returns a timestamp strictly after prev
func (s *Service) touch(prev time.Time) time.Time {
	now := s.timestamp()
	if !now.After(prev) {
		now = prev.Add(time.Nanosecond)
	}
	return now
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func validScore(name string, v *int) error {
	if *v == 0 {
		*v = 5
	}
	if *v < 1 || *v > 10 {
		return invalid("%s must be between 1 and 10, got %d", name, *v)
	}
	return nil
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
