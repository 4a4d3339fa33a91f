package camera

import (
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ihza212325/trashpin/internal/model"
	"github.com/ihza212325/trashpin/internal/store"
)

var defaultView = model.CameraState{
	Center:      orb.Point{106.8456, -6.2088},
	Zoom:        10,
	AnimationMs: 0,
}

func TestFocusOnMarker_Directive(t *testing.T) {
	c := NewController(Config{Default: defaultView})

	m := model.MarkerRecord{ID: 3, Coordinates: orb.Point{106.9, -6.1}}
	c.FocusOnMarker(m)

	got := c.State()
	assert.Equal(t, m.Coordinates, got.Center)
	assert.Equal(t, float64(15), got.Zoom)
	assert.Equal(t, 1000, got.AnimationMs)
}

func TestResetToDefault(t *testing.T) {
	c := NewController(Config{Default: defaultView})
	c.FocusOnCoordinates(orb.Point{1, 1})

	c.ResetToDefault()
	got := c.State()
	assert.Equal(t, defaultView, got)
	assert.Zero(t, got.AnimationMs, "initial load directive must not animate")
}

func TestOnChange_SeesWholeDirective(t *testing.T) {
	c := NewController(Config{Default: defaultView})

	var mu sync.Mutex
	var seen []model.CameraState
	c.OnChange(func(s model.CameraState) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	c.FocusOnCoordinates(orb.Point{2, 3})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, seen, 1)
	// center, zoom and animation arrive as one atomic directive
	assert.Equal(t, orb.Point{2, 3}, seen[0].Center)
	assert.Equal(t, float64(15), seen[0].Zoom)
	assert.Equal(t, 1000, seen[0].AnimationMs)
}

func TestFocusOnNewReport_DirectRecordFollowUp(t *testing.T) {
	opened := make(chan model.MarkerRecord, 1)
	c := NewController(Config{
		Default:     defaultView,
		SettleDelay: 10 * time.Millisecond,
		OpenDetail:  func(m model.MarkerRecord) { opened <- m },
	})

	created := model.MarkerRecord{ID: 101, Coordinates: orb.Point{106.9, -6.1}}
	c.FocusOnNewReport(created.Coordinates, &created)

	select {
	case got := <-opened:
		assert.Equal(t, 101, got.ID)
	case <-time.After(time.Second):
		t.Fatal("follow-up never opened the detail view")
	}
}

func TestFocusOnNewReport_ToleranceMatchHighestID(t *testing.T) {
	s := store.New()
	target := orb.Point{106.8456, -6.2088}
	s.AddReport(model.ReportDraft{Coordinates: orb.Point{106.84563, -6.20877}, Title: "a", Description: "d"}) // 101
	want := s.AddReport(model.ReportDraft{Coordinates: orb.Point{106.84557, -6.20885}, Title: "b", Description: "d"})

	opened := make(chan model.MarkerRecord, 1)
	c := NewController(Config{
		Default:     defaultView,
		SettleDelay: 10 * time.Millisecond,
		Match:       s.MatchNear,
		OpenDetail:  func(m model.MarkerRecord) { opened <- m },
	})

	c.FocusOnNewReport(target, nil)

	select {
	case got := <-opened:
		assert.Equal(t, want.ID, got.ID, "both records are within tolerance, the larger id wins")
	case <-time.After(time.Second):
		t.Fatal("follow-up never opened the detail view")
	}
}

func TestCancelFollowUps(t *testing.T) {
	opened := make(chan model.MarkerRecord, 1)
	c := NewController(Config{
		Default:     defaultView,
		SettleDelay: 30 * time.Millisecond,
		OpenDetail:  func(m model.MarkerRecord) { opened <- m },
	})

	created := model.MarkerRecord{ID: 101, Coordinates: orb.Point{1, 1}}
	c.FocusOnNewReport(created.Coordinates, &created)
	c.CancelFollowUps()

	select {
	case <-opened:
		t.Fatal("cancelled follow-up still opened the detail view")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestFocusOnNewReport_NoMatchIsNoop(t *testing.T) {
	opened := make(chan model.MarkerRecord, 1)
	s := store.New()
	c := NewController(Config{
		Default:     defaultView,
		SettleDelay: 10 * time.Millisecond,
		Match:       s.MatchNear,
		OpenDetail:  func(m model.MarkerRecord) { opened <- m },
	})

	c.FocusOnNewReport(orb.Point{50, 50}, nil)

	select {
	case <-opened:
		t.Fatal("follow-up opened a detail view with no matching record")
	case <-time.After(100 * time.Millisecond):
	}
}
