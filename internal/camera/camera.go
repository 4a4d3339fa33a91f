// Package camera maintains the authoritative viewport state consumed by the
// map renderer. Directives replace the whole state under one lock, so a
// consumer can never observe a new center with a stale zoom or animation.
package camera

import (
	"sync"
	"time"

	"github.com/paulmach/orb"

	"github.com/ihza212325/trashpin/internal/geo"
	"github.com/ihza212325/trashpin/internal/model"
)

const (
	// focusZoom/focusAnimationMs are the marker- and new-report-focus
	// directive parameters.
	focusZoom        = 15
	focusAnimationMs = 1000
	// settleDelay defers the detail-view follow-up until the focus
	// animation has settled.
	settleDelay = 500 * time.Millisecond
)

// MatchFn resolves a store record near a coordinate; the report store's
// MatchNear satisfies it.
type MatchFn func(p orb.Point, tol float64) (model.MarkerRecord, bool)

// Config wires the controller's collaborators and defaults.
type Config struct {
	// Default is the initial, instant (no animation) viewport.
	Default model.CameraState
	// Match is the fallback lookup used by FocusOnNewReport when the
	// caller has no created record in hand.
	Match MatchFn
	// OpenDetail is invoked on the presentation layer when a follow-up
	// resolves. May be nil.
	OpenDetail func(model.MarkerRecord)
	// SettleDelay overrides the follow-up delay; zero keeps the default.
	SettleDelay time.Duration
}

// Controller owns the camera state and the deferred detail-view follow-ups.
type Controller struct {
	mu    sync.RWMutex
	state model.CameraState
	cfg   Config

	followMu sync.Mutex
	follow   *time.Timer

	onChange []func(model.CameraState)
}

// NewController creates a controller positioned at the default viewport.
func NewController(cfg Config) *Controller {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = settleDelay
	}
	return &Controller{
		state: cfg.Default,
		cfg:   cfg,
	}
}

// OnChange registers a callback invoked with every new camera state.
func (c *Controller) OnChange(fn func(model.CameraState)) {
	c.mu.Lock()
	c.onChange = append(c.onChange, fn)
	c.mu.Unlock()
}

// State returns the current camera state.
func (c *Controller) State() model.CameraState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// FocusOnMarker animates the viewport onto the given marker.
func (c *Controller) FocusOnMarker(m model.MarkerRecord) {
	c.apply(model.CameraState{
		Center:      m.Coordinates,
		Zoom:        focusZoom,
		AnimationMs: focusAnimationMs,
	})
}

// FocusOnCoordinates animates the viewport onto a raw coordinate, e.g. the
// device's current location.
func (c *Controller) FocusOnCoordinates(p orb.Point) {
	c.apply(model.CameraState{
		Center:      p,
		Zoom:        focusZoom,
		AnimationMs: focusAnimationMs,
	})
}

// FocusOnNewReport issues the same directive as FocusOnMarker and schedules
// a deferred follow-up that opens the detail view for the created record
// once the camera has settled. When created is non-nil it is used directly;
// otherwise the record is resolved by tolerance match around p, highest id
// winning. The follow-up is cancellable via CancelFollowUps.
func (c *Controller) FocusOnNewReport(p orb.Point, created *model.MarkerRecord) {
	c.apply(model.CameraState{
		Center:      p,
		Zoom:        focusZoom,
		AnimationMs: focusAnimationMs,
	})

	c.followMu.Lock()
	defer c.followMu.Unlock()
	if c.follow != nil {
		c.follow.Stop()
	}
	c.follow = time.AfterFunc(c.cfg.SettleDelay, func() {
		record, ok := c.resolveNewReport(p, created)
		if !ok || c.cfg.OpenDetail == nil {
			return
		}
		c.cfg.OpenDetail(record)
	})
}

func (c *Controller) resolveNewReport(p orb.Point, created *model.MarkerRecord) (model.MarkerRecord, bool) {
	if created != nil {
		return *created, true
	}
	if c.cfg.Match == nil {
		return model.MarkerRecord{}, false
	}
	return c.cfg.Match(p, geo.MatchTolerance)
}

// CancelFollowUps stops any pending detail-view follow-up. Closing the
// report flow calls this so a scheduled open becomes a provable no-op.
func (c *Controller) CancelFollowUps() {
	c.followMu.Lock()
	defer c.followMu.Unlock()
	if c.follow != nil {
		c.follow.Stop()
		c.follow = nil
	}
}

// ResetToDefault snaps the viewport back to the configured default without
// animation. Used on initial load.
func (c *Controller) ResetToDefault() {
	c.apply(c.cfg.Default)
}

func (c *Controller) apply(next model.CameraState) {
	c.mu.Lock()
	c.state = next
	subs := make([]func(model.CameraState), len(c.onChange))
	copy(subs, c.onChange)
	c.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
}
