package catalog

import (
	"sync/atomic"

	"github.com/you/busroutes/models"
)

// Store holds the currently published snapshot.
// The zero value is ready to use and has no snapshot.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the published snapshot, or nil before the first Publish.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Publish builds a snapshot from routes and makes it current.
func (s *Store) Publish(routes []models.Route) *Snapshot {
	snap := NewSnapshot(routes)
	s.current.Store(snap)
	return snap
}
