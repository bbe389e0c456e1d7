package api

import (
	"errors"
	"sort"
	"sync"

	"github.com/talgya/gridcity/internal/engine"
)

// ErrNoSession is returned for a city ID with no live session.
var ErrNoSession = errors.New("no such city session")

// session owns one city. The engine is single-threaded, so every access goes
// through mu.
type session struct {
	mu   sync.Mutex
	city *engine.City
}

// Sessions holds the live cities served by the API, one per player.
type Sessions struct {
	mu     sync.RWMutex
	cities map[string]*session
	config engine.Config
}

// NewSessions creates an empty store. New cities are built from cfg; a
// nonzero seed is only used for the first city so later ones differ.
func NewSessions(cfg engine.Config) *Sessions {
	return &Sessions{cities: make(map[string]*session), config: cfg}
}

// Create starts a fresh city and returns its ID.
func (s *Sessions) Create(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := s.config
	cfg.Name = name
	s.config.Seed = 0
	c := engine.NewCity(cfg)
	s.cities[c.ID] = &session{city: c}
	return c.ID
}

// Put installs c under its own ID, replacing any session with that ID.
func (s *Sessions) Put(c *engine.City) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cities[c.ID] = &session{city: c}
}

// Delete drops a session.
func (s *Sessions) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cities[id]; !ok {
		return false
	}
	delete(s.cities, id)
	return true
}

// With runs fn with exclusive access to the city id.
func (s *Sessions) With(id string, fn func(c *engine.City) error) error {
	s.mu.RLock()
	sess, ok := s.cities[id]
	s.mu.RUnlock()
	if !ok {
		return ErrNoSession
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return fn(sess.city)
}

// IDs returns every live city ID in sorted order.
func (s *Sessions) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.cities))
	for id := range s.cities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cities)
}

// AdvanceAll advances every live city by one year and returns the reports.
// Cities removed while the pass runs are skipped.
func (s *Sessions) AdvanceAll() []engine.YearReport {
	var reports []engine.YearReport
	for _, id := range s.IDs() {
		_ = s.With(id, func(c *engine.City) error {
			reports = append(reports, c.Advance())
			return nil
		})
	}
	return reports
}
