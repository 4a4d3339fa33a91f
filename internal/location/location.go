// Package location turns an unreliable, multi-tier device location API into
// a best-effort coordinate fix or a classified failure. Device collaborators
// are abstract contracts; real shells plug in platform bindings and tests
// plug in scripted ones.
package location

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ihza212325/trashpin/internal/model"
)

// PermissionStatus is the device's answer about foreground location access.
type PermissionStatus int

const (
	PermissionUndetermined PermissionStatus = iota
	PermissionGranted
	PermissionDenied
)

func (s PermissionStatus) String() string {
	switch s {
	case PermissionGranted:
		return "granted"
	case PermissionDenied:
		return "denied"
	default:
		return "undetermined"
	}
}

// PermissionAPI is the foreground location permission contract.
type PermissionAPI interface {
	ForegroundStatus(ctx context.Context) (PermissionStatus, error)
	RequestForeground(ctx context.Context) (PermissionStatus, error)
}

// FixAPI is the device location contract. LastKnown returns (nil, nil) when
// no cached fix within maxAge exists; Current blocks up to timeout and fails
// with a transport or timeout error.
type FixAPI interface {
	ServicesEnabled(ctx context.Context) (bool, error)
	LastKnown(ctx context.Context, maxAge time.Duration) (*model.LocationFix, error)
	Current(ctx context.Context, tier model.AccuracyTier, timeout time.Duration) (model.LocationFix, error)
}

// Classified failures. Everything rawer thrown by the device APIs is folded
// into ErrUnavailable with the cause preserved for diagnostics.
var (
	ErrServicesDisabled = errors.New("location services are disabled")
	ErrPermissionDenied = errors.New("location permission denied")
	ErrUnavailable      = errors.New("location unavailable")
)

// Logger is the minimal logging interface the cascade needs. The logging
// package provides a zerolog-backed implementation.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// UserMessage maps a classified failure to the message shown to the user.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrServicesDisabled):
		return "Location services are disabled. Please enable them in your device settings."
	case errors.Is(err, ErrPermissionDenied):
		return "Permission to access location was denied"
	case errors.Is(err, ErrUnavailable):
		return "Unable to get your location. Please enable location services and GPS."
	default:
		return "Unable to get your location. Please check your device settings."
	}
}

// StaleFixMessage warns the user when the last-resort cached fallback is used.
const StaleFixMessage = "Using last known location. GPS may be unavailable."

// unavailable wraps a cause into ErrUnavailable.
func unavailable(cause error) error {
	if cause == nil {
		return ErrUnavailable
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, cause)
}
