// Package store holds user-submitted trash reports for the lifetime of the
// process. It is the only shared resource in the core with multiple writers,
// so every mutation runs under the store mutex and id assignment is
// serialized against the store's own state.
package store

import (
	"sync"

	"github.com/paulmach/orb"

	"github.com/ihza212325/trashpin/internal/geo"
	"github.com/ihza212325/trashpin/internal/model"
)

// seedIDCeiling is the floor for generated ids: the first user report gets
// 101, keeping user ids clear of the pre-assigned seed ids.
const seedIDCeiling = 100

// ReportStore is an in-memory, process-lifetime store of user reports.
type ReportStore struct {
	mu      sync.RWMutex
	reports []model.MarkerRecord
	// highWater tracks the largest id ever assigned so removals can never
	// cause an id to be reused. ClearReports resets it.
	highWater int
	subs      []func()
}

// New creates an empty report store.
func New() *ReportStore {
	return &ReportStore{}
}

// Subscribe registers a callback invoked after every mutation. Consumers
// (the filter pipeline, the renderer bridge) re-derive their output on it.
func (s *ReportStore) Subscribe(fn func()) {
	s.mu.Lock()
	s.subs = append(s.subs, fn)
	s.mu.Unlock()
}

// AddReport assigns the next id, appends the record and returns it.
// Ids are strictly increasing for the life of the store.
func (s *ReportStore) AddReport(draft model.ReportDraft) model.MarkerRecord {
	s.mu.Lock()

	next := s.highWater
	if next < seedIDCeiling {
		next = seedIDCeiling
	}
	for _, r := range s.reports {
		if r.ID > next {
			next = r.ID
		}
	}
	next++
	s.highWater = next

	record := model.MarkerRecord{
		ID:          next,
		Coordinates: draft.Coordinates,
		Title:       draft.Title,
		Description: draft.Description,
		Photos:      draft.Photos,
	}
	s.reports = append(s.reports, record)

	s.mu.Unlock()
	s.notify()
	return record
}

// RemoveReport deletes the record with the given id. Missing ids are a
// silent no-op.
func (s *ReportStore) RemoveReport(id int) {
	s.mu.Lock()
	removed := false
	for i, r := range s.reports {
		if r.ID == id {
			s.reports = append(s.reports[:i], s.reports[i+1:]...)
			removed = true
			break
		}
	}
	s.mu.Unlock()

	if removed {
		s.notify()
	}
}

// ClearReports empties the store and resets id assignment.
func (s *ReportStore) ClearReports() {
	s.mu.Lock()
	s.reports = nil
	s.highWater = 0
	s.mu.Unlock()
	s.notify()
}

// Reports returns a copy of the stored records in creation order.
func (s *ReportStore) Reports() []model.MarkerRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.MarkerRecord, len(s.reports))
	copy(out, s.reports)
	return out
}

// Len returns the number of stored reports.
func (s *ReportStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// Get returns the record with the given id.
func (s *ReportStore) Get(id int) (model.MarkerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.reports {
		if r.ID == id {
			return r, true
		}
	}
	return model.MarkerRecord{}, false
}

// MatchNear returns the stored record within tol degrees of p on each axis.
// When several records match, the one with the highest id (most recently
// created) wins.
func (s *ReportStore) MatchNear(p orb.Point, tol float64) (model.MarkerRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var best model.MarkerRecord
	found := false
	for _, r := range s.reports {
		if !geo.WithinTolerance(r.Coordinates, p, tol) {
			continue
		}
		if !found || r.ID > best.ID {
			best = r
			found = true
		}
	}
	return best, found
}

func (s *ReportStore) notify() {
	s.mu.RLock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.RUnlock()

	for _, fn := range subs {
		fn()
	}
}
