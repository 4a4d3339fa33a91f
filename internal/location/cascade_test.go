package location

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ihza212325/trashpin/internal/model"
)

// nopLogger satisfies Logger for tests.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// fakePerms scripts the permission answers and counts requests.
type fakePerms struct {
	status        PermissionStatus
	requestAnswer PermissionStatus
	requests      int
}

func (f *fakePerms) ForegroundStatus(context.Context) (PermissionStatus, error) {
	return f.status, nil
}

func (f *fakePerms) RequestForeground(context.Context) (PermissionStatus, error) {
	f.requests++
	return f.requestAnswer, nil
}

// fakeFixes scripts each device call and records which were made.
type fakeFixes struct {
	enabled bool

	cached      *model.LocationFix // returned when maxAge covers freshAge
	cachedAge   time.Duration
	balancedFix *model.LocationFix
	balancedErr error
	lowestFix   *model.LocationFix
	lowestErr   error

	lastKnownCalls []time.Duration
	currentCalls   []model.AccuracyTier
}

func (f *fakeFixes) ServicesEnabled(context.Context) (bool, error) {
	return f.enabled, nil
}

func (f *fakeFixes) LastKnown(_ context.Context, maxAge time.Duration) (*model.LocationFix, error) {
	f.lastKnownCalls = append(f.lastKnownCalls, maxAge)
	if f.cached == nil || f.cachedAge > maxAge {
		return nil, nil
	}
	fix := *f.cached
	return &fix, nil
}

func (f *fakeFixes) Current(_ context.Context, tier model.AccuracyTier, _ time.Duration) (model.LocationFix, error) {
	f.currentCalls = append(f.currentCalls, tier)
	switch tier {
	case model.TierLowest:
		if f.lowestErr != nil {
			return model.LocationFix{}, f.lowestErr
		}
		return *f.lowestFix, nil
	default:
		if f.balancedErr != nil {
			return model.LocationFix{}, f.balancedErr
		}
		return *f.balancedFix, nil
	}
}

func fix(lon, lat float64) *model.LocationFix {
	return &model.LocationFix{
		Coordinates: orb.Point{lon, lat},
		Timestamp:   time.Now(),
	}
}

func newTestCascade(t *testing.T, perms *fakePerms, fixes *fakeFixes) *Cascade {
	t.Helper()
	c, err := NewCascade(perms, fixes, Options{}, nopLogger{})
	require.NoError(t, err)
	return c
}

func TestAcquire_ServicesDisabledShortCircuits(t *testing.T) {
	perms := &fakePerms{status: PermissionGranted}
	fixes := &fakeFixes{enabled: false, cached: fix(1, 2)}
	c := newTestCascade(t, perms, fixes)

	_, err := c.Acquire(context.Background())
	require.ErrorIs(t, err, ErrServicesDisabled)

	// nothing past the services check may run
	assert.Empty(t, fixes.lastKnownCalls)
	assert.Empty(t, fixes.currentCalls)
	assert.Zero(t, perms.requests)
}

func TestAcquire_PermissionDeniedAfterRequest(t *testing.T) {
	perms := &fakePerms{status: PermissionUndetermined, requestAnswer: PermissionDenied}
	fixes := &fakeFixes{enabled: true, cached: fix(1, 2)}
	c := newTestCascade(t, perms, fixes)

	_, err := c.Acquire(context.Background())
	require.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, 1, perms.requests)
	assert.Empty(t, fixes.lastKnownCalls)
}

func TestAcquire_AlreadyGrantedSkipsRequest(t *testing.T) {
	perms := &fakePerms{status: PermissionGranted}
	fixes := &fakeFixes{enabled: true, cached: fix(1, 2), cachedAge: time.Minute}
	c := newTestCascade(t, perms, fixes)

	_, err := c.Acquire(context.Background())
	require.NoError(t, err)
	assert.Zero(t, perms.requests)
}

func TestAcquire_FreshCachedFixAvoidsLiveCall(t *testing.T) {
	perms := &fakePerms{status: PermissionGranted}
	fixes := &fakeFixes{enabled: true, cached: fix(106.8, -6.2), cachedAge: 2 * time.Minute}
	c := newTestCascade(t, perms, fixes)

	got, err := c.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.TierCached, got.Tier)
	assert.False(t, got.Stale)
	assert.Empty(t, fixes.currentCalls, "no live fix call may be made")
	require.Len(t, fixes.lastKnownCalls, 1)
	assert.Equal(t, 5*time.Minute, fixes.lastKnownCalls[0])
}

func TestAcquire_BalancedFixWhenCacheMisses(t *testing.T) {
	perms := &fakePerms{status: PermissionGranted}
	fixes := &fakeFixes{enabled: true, balancedFix: fix(106.8, -6.2)}
	c := newTestCascade(t, perms, fixes)

	got, err := c.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.TierBalanced, got.Tier)
	assert.Equal(t, []model.AccuracyTier{model.TierBalanced}, fixes.currentCalls)
}

func TestAcquire_LowestRetryDiscardsBalancedError(t *testing.T) {
	perms := &fakePerms{status: PermissionGranted}
	fixes := &fakeFixes{
		enabled:     true,
		balancedErr: errors.New("gps timeout"),
		lowestFix:   fix(106.8, -6.2),
	}
	c := newTestCascade(t, perms, fixes)

	got, err := c.Acquire(context.Background())
	require.NoError(t, err, "balanced error must not surface when the lowest retry succeeds")
	assert.Equal(t, model.TierLowest, got.Tier)
	assert.Equal(t, []model.AccuracyTier{model.TierBalanced, model.TierLowest}, fixes.currentCalls)
}

func TestAcquire_StaleCachedFallback(t *testing.T) {
	perms := &fakePerms{status: PermissionGranted}
	fixes := &fakeFixes{
		enabled:     true,
		cached:      fix(106.8, -6.2),
		cachedAge:   40 * time.Minute, // too old for the fresh tier, fine for stale
		balancedErr: errors.New("gps timeout"),
		lowestErr:   errors.New("still no signal"),
	}
	c := newTestCascade(t, perms, fixes)

	got, err := c.Acquire(context.Background())
	require.NoError(t, err)
	assert.Equal(t, model.TierCached, got.Tier)
	assert.True(t, got.Stale, "stale fallback must be flagged")

	require.Len(t, fixes.lastKnownCalls, 2)
	assert.Equal(t, 5*time.Minute, fixes.lastKnownCalls[0])
	assert.Equal(t, time.Hour, fixes.lastKnownCalls[1])
}

func TestAcquire_AllTiersExhausted(t *testing.T) {
	perms := &fakePerms{status: PermissionGranted}
	fixes := &fakeFixes{
		enabled:     true,
		balancedErr: errors.New("gps timeout"),
		lowestErr:   errors.New("still no signal"),
	}
	c := newTestCascade(t, perms, fixes)

	_, err := c.Acquire(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
	// the balanced error stays as the diagnostic cause
	assert.Contains(t, err.Error(), "gps timeout")
}

func TestUserMessage(t *testing.T) {
	assert.Contains(t, UserMessage(ErrServicesDisabled), "device settings")
	assert.Contains(t, UserMessage(ErrPermissionDenied), "denied")
	assert.Contains(t, UserMessage(unavailable(errors.New("x"))), "location services")
	assert.Contains(t, UserMessage(errors.New("weird")), "device settings")
}
