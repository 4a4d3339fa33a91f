// Package device provides scripted implementations of the device contracts
// consumed by the core. The demo command runs on them; real shells swap in
// platform bindings.
package device

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/ihza212325/trashpin/internal/location"
	"github.com/ihza212325/trashpin/internal/model"
)

// SimPermissions answers permission checks from a script.
type SimPermissions struct {
	mu sync.Mutex
	// Status is returned by ForegroundStatus.
	Status location.PermissionStatus
	// RequestAnswer is returned by RequestForeground; the status is
	// updated to it, as a real prompt would.
	RequestAnswer location.PermissionStatus
}

func (s *SimPermissions) ForegroundStatus(context.Context) (location.PermissionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Status, nil
}

func (s *SimPermissions) RequestForeground(context.Context) (location.PermissionStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Status = s.RequestAnswer
	return s.RequestAnswer, nil
}

// SimFixes plays back canned fixes and injected errors per accuracy tier.
type SimFixes struct {
	mu sync.Mutex

	// Enabled mirrors device location services.
	Enabled bool
	// Cached is the device's last known fix; LastKnown serves it only
	// when its age fits the caller's bound.
	Cached *model.LocationFix
	// Live maps an accuracy tier to its outcome.
	Live map[model.AccuracyTier]LiveOutcome
	// Latency delays every live attempt, simulating GPS settle time.
	Latency time.Duration
}

// LiveOutcome scripts one Current call.
type LiveOutcome struct {
	Fix model.LocationFix
	Err error
}

func (s *SimFixes) ServicesEnabled(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Enabled, nil
}

func (s *SimFixes) LastKnown(_ context.Context, maxAge time.Duration) (*model.LocationFix, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Cached == nil || time.Since(s.Cached.Timestamp) > maxAge {
		return nil, nil
	}
	fix := *s.Cached
	return &fix, nil
}

func (s *SimFixes) Current(ctx context.Context, tier model.AccuracyTier, timeout time.Duration) (model.LocationFix, error) {
	s.mu.Lock()
	outcome, ok := s.Live[tier]
	latency := s.Latency
	s.mu.Unlock()

	if latency > 0 {
		if latency > timeout {
			latency = timeout
		}
		select {
		case <-ctx.Done():
			return model.LocationFix{}, ctx.Err()
		case <-time.After(latency):
		}
	}

	if !ok {
		return model.LocationFix{}, context.DeadlineExceeded
	}
	if outcome.Err != nil {
		return model.LocationFix{}, outcome.Err
	}
	fix := outcome.Fix
	if fix.Timestamp.IsZero() {
		fix.Timestamp = time.Now()
	}
	return fix, nil
}

// SetCached replaces the device's last known fix.
func (s *SimFixes) SetCached(p orb.Point, age time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cached = &model.LocationFix{
		Coordinates: p,
		Tier:        model.TierCached,
		Timestamp:   time.Now().Add(-age),
	}
}

// SimCamera scripts the photo-capture contract.
type SimCamera struct {
	mu sync.Mutex

	Granted   bool
	Cancelled bool
	Err       error
	captures  int
}

func (s *SimCamera) RequestPermission(context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Granted, nil
}

func (s *SimCamera) Capture(context.Context) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", false, s.Err
	}
	if s.Cancelled {
		return "", true, nil
	}
	s.captures++
	return simURI(s.captures), false, nil
}

func simURI(n int) string {
	return fmt.Sprintf("file:///sim/photo-%d.jpg", n)
}
