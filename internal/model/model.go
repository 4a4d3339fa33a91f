package model

import (
	"time"

	"github.com/paulmach/orb"
)

////////////////////////
// MARKER MODELS
////////////////////////

// MarkerRecord is a single trash report shown on the map. Seed records ship
// with the binary and are immutable; user records are created through the
// report store and carry ids above 100.
type MarkerRecord struct {
	ID          int       `json:"id"`
	Coordinates orb.Point `json:"coordinates"` // [longitude, latitude]
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Photos      []string  `json:"photos"`
}

// ReportDraft is the caller-assembled input for creating a new report.
// Title, description and coordinates are validated before the store sees it.
type ReportDraft struct {
	Coordinates orb.Point `json:"coordinates"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Photos      []string  `json:"photos"`
}

// FilterState selects which markers are visible. The visible marker list is
// a pure function of (seed, store records, FilterState).
type FilterState struct {
	SearchQuery       string `json:"searchQuery"`
	ScopeToOwnReports bool   `json:"scopeToOwnReports"`
}

////////////////////////
// LOCATION MODELS
////////////////////////

// AccuracyTier identifies which cascade tier produced a fix.
type AccuracyTier int

const (
	TierCached AccuracyTier = iota
	TierBalanced
	TierLowest
)

func (t AccuracyTier) String() string {
	switch t {
	case TierCached:
		return "cached"
	case TierBalanced:
		return "balanced"
	case TierLowest:
		return "lowest"
	default:
		return "unknown"
	}
}

// LocationFix is a single coordinate reading. Transient: it lives only for
// the duration of the report-creation flow that requested it.
type LocationFix struct {
	Coordinates orb.Point    `json:"coordinates"`
	Tier        AccuracyTier `json:"tier"`
	Timestamp   time.Time    `json:"timestamp"`
	// Stale marks a cached fix recovered by the last-resort fallback;
	// the user must be warned it may no longer reflect their position.
	Stale bool `json:"stale"`
}

// Age returns how long ago the fix was captured.
func (f LocationFix) Age() time.Duration {
	return time.Since(f.Timestamp)
}

////////////////////////
// CAMERA MODELS
////////////////////////

// CameraState is the authoritative viewport consumed by the map renderer.
// Directives always replace the whole state; a new center is never observable
// with a stale zoom or animation duration.
type CameraState struct {
	Center      orb.Point `json:"centerCoordinate"`
	Zoom        float64   `json:"zoomLevel"`
	AnimationMs int       `json:"animationDuration"`
}

////////////////////////
// USER MODELS
////////////////////////

// User mirrors the profile shape of the demo auth API.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Gender    string `json:"gender"`
	Image     string `json:"image"`
}

// Session is the result of a successful login.
type Session struct {
	User
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
