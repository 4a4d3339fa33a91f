package app

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ihza212325/trashpin/internal/camera"
	"github.com/ihza212325/trashpin/internal/device"
	"github.com/ihza212325/trashpin/internal/dispatcher"
	"github.com/ihza212325/trashpin/internal/location"
	"github.com/ihza212325/trashpin/internal/markers"
	"github.com/ihza212325/trashpin/internal/model"
	"github.com/ihza212325/trashpin/internal/notify"
	"github.com/ihza212325/trashpin/internal/store"
)

type nopKV struct{}

func (nopKV) Debug(string, ...any) {}
func (nopKV) Info(string, ...any)  {}
func (nopKV) Error(string, ...any) {}

var jakarta = orb.Point{106.8456, -6.2088}

type fixture struct {
	svc    *Service
	store  *store.ReportStore
	camera *camera.Controller
	toasts *notify.Center
	perms  *device.SimPermissions
	fixes  *device.SimFixes
	photos *device.SimCamera

	mu       sync.Mutex
	detailed []model.MarkerRecord
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog, err := markers.LoadCatalog()
	require.NoError(t, err)

	f := &fixture{
		store:  store.New(),
		toasts: notify.NewCenter(),
		perms: &device.SimPermissions{
			Status:        location.PermissionGranted,
			RequestAnswer: location.PermissionGranted,
		},
		fixes: &device.SimFixes{
			Enabled: true,
			Live: map[model.AccuracyTier]device.LiveOutcome{
				model.TierBalanced: {Fix: model.LocationFix{
					Coordinates: jakarta,
					Tier:        model.TierBalanced,
				}},
			},
		},
		photos: &device.SimCamera{Granted: true},
	}

	f.camera = camera.NewController(camera.Config{
		Default: model.CameraState{Center: jakarta, Zoom: 10},
		Match:   f.store.MatchNear,
		OpenDetail: func(m model.MarkerRecord) {
			f.mu.Lock()
			f.detailed = append(f.detailed, m)
			f.mu.Unlock()
		},
		SettleDelay: 10 * time.Millisecond,
	})

	cascade, err := location.NewCascade(f.perms, f.fixes, location.Options{
		BalancedTimeout: 200 * time.Millisecond,
		LowestTimeout:   200 * time.Millisecond,
	}, nopKV{})
	require.NoError(t, err)

	f.svc = New(Dependencies{
		Store:   f.store,
		Catalog: catalog,
		Camera:  f.camera,
		Cascade: cascade,
		Photos:  f.photos,
		Toasts:  f.toasts,
		Logger:  slog.New(slog.DiscardHandler),
		LogKV:   nopKV{},
	})
	t.Cleanup(f.svc.Shutdown)

	return f
}

func (f *fixture) detailOpens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.detailed)
}

func TestVisibleMarkers_SeedByDefault(t *testing.T) {
	f := newFixture(t)

	visible := f.svc.VisibleMarkers()
	assert.Len(t, visible, 8)

	stats := f.svc.Stats()
	assert.Equal(t, 8, stats.Visible)
	assert.Equal(t, 0, stats.OwnReports)
}

func TestSearchAndScope(t *testing.T) {
	f := newFixture(t)

	f.svc.SetSearchQuery("dump")
	assert.NotEmpty(t, f.svc.VisibleMarkers(), "seed contains a dump site")

	f.svc.SetSearchQuery("")
	f.svc.SetScope(true)
	assert.Empty(t, f.svc.VisibleMarkers(), "no own reports yet")
}

func TestHandleMarkerSelected(t *testing.T) {
	f := newFixture(t)

	var opened []model.MarkerRecord
	f.svc.OnOpenDetail(func(m model.MarkerRecord) {
		opened = append(opened, m)
	})

	f.svc.HandleMarkerSelected(1)

	require.Len(t, opened, 1)
	assert.Equal(t, 1, opened[0].ID)

	cam := f.camera.State()
	assert.Equal(t, opened[0].Coordinates, cam.Center)
	assert.Equal(t, 15.0, cam.Zoom)
	assert.Equal(t, 1000, cam.AnimationMs)
}

func TestHandleMarkerSelected_Unknown(t *testing.T) {
	f := newFixture(t)

	before := f.camera.State()
	f.svc.HandleMarkerSelected(9999)
	assert.Equal(t, before, f.camera.State(), "camera should not move for unknown ids")
}

func TestLocateMe_FocusesCamera(t *testing.T) {
	f := newFixture(t)

	f.svc.LocateMe(context.Background())

	require.Eventually(t, func() bool {
		return f.camera.State().Zoom == 15
	}, time.Second, 10*time.Millisecond)

	assert.Equal(t, jakarta, f.camera.State().Center)
	assert.Zero(t, f.toasts.Pending(), "successful fresh fix needs no toast")
}

func TestLocateMe_StaleFallbackWarns(t *testing.T) {
	f := newFixture(t)

	// no live fixes at all, only an hour-old cached one
	f.fixes.Live = map[model.AccuracyTier]device.LiveOutcome{}
	f.fixes.SetCached(jakarta, 30*time.Minute)

	f.svc.LocateMe(context.Background())

	require.Eventually(t, func() bool {
		return f.toasts.Pending() == 1
	}, time.Second, 10*time.Millisecond)

	toasts := f.toasts.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.LevelWarning, toasts[0].Level)
	assert.Equal(t, location.StaleFixMessage, toasts[0].Message)
}

func TestLocateMe_ServicesDisabledToasts(t *testing.T) {
	f := newFixture(t)
	f.fixes.Enabled = false

	f.svc.LocateMe(context.Background())

	require.Eventually(t, func() bool {
		return f.toasts.Pending() == 1
	}, time.Second, 10*time.Millisecond)

	toasts := f.toasts.Drain()
	assert.Equal(t, notify.LevelError, toasts[0].Level)
	assert.Equal(t, location.UserMessage(location.ErrServicesDisabled), toasts[0].Message)
}

func TestReportFlow_SubmitHappyPath(t *testing.T) {
	f := newFixture(t)

	f.svc.OpenReportForm(context.Background())

	require.Eventually(t, func() bool {
		_, ok := f.svc.DraftFix()
		return ok
	}, time.Second, 10*time.Millisecond)

	record, err := f.svc.SubmitReport("Overflowing bin", "Corner of the market")
	require.NoError(t, err)
	assert.Equal(t, 101, record.ID, "user reports start above the seed ceiling")
	assert.Equal(t, jakarta, record.Coordinates)

	// success toast
	toasts := f.toasts.Drain()
	require.Len(t, toasts, 1)
	assert.Equal(t, notify.LevelSuccess, toasts[0].Level)

	// camera focused on the new report
	assert.Equal(t, jakarta, f.camera.State().Center)
	assert.Equal(t, 15.0, f.camera.State().Zoom)

	// deferred detail follow-up fires once settled
	require.Eventually(t, func() bool {
		return f.detailOpens() == 1
	}, time.Second, 10*time.Millisecond)

	// form is closed
	_, ok := f.svc.DraftFix()
	assert.False(t, ok)
}

func TestSubmitReport_Validation(t *testing.T) {
	f := newFixture(t)
	f.svc.OpenReportForm(context.Background())

	require.Eventually(t, func() bool {
		_, ok := f.svc.DraftFix()
		return ok
	}, time.Second, 10*time.Millisecond)

	_, err := f.svc.SubmitReport("   ", "desc")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "title", verr.Field)

	_, err = f.svc.SubmitReport("title", "")
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description", verr.Field)

	assert.Zero(t, f.store.Len(), "invalid drafts never reach the store")
}

func TestSubmitReport_NoLocationYet(t *testing.T) {
	f := newFixture(t)

	// slow down acquisition so the fix is not there yet
	f.fixes.Latency = 150 * time.Millisecond
	f.svc.OpenReportForm(context.Background())

	_, err := f.svc.SubmitReport("title", "desc")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "location", verr.Field)
}

func TestCloseReportForm_CancelsFollowUps(t *testing.T) {
	f := newFixture(t)

	f.svc.OpenReportForm(context.Background())
	require.Eventually(t, func() bool {
		_, ok := f.svc.DraftFix()
		return ok
	}, time.Second, 10*time.Millisecond)

	_, err := f.svc.SubmitReport("title", "desc")
	require.NoError(t, err)

	// closing right after submit cancels the pending detail follow-up
	f.svc.CloseReportForm()
	f.camera.CancelFollowUps()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, f.detailOpens())
}

func TestAttachPhoto_PermissionDenied(t *testing.T) {
	f := newFixture(t)
	f.photos.Granted = false

	f.svc.OpenReportForm(context.Background())
	f.svc.AttachPhoto(context.Background())

	toasts := f.toasts.Drain()
	require.NotEmpty(t, toasts)
	assert.Equal(t, notify.LevelWarning, toasts[len(toasts)-1].Level)
	assert.Empty(t, f.svc.DraftPhotos())
}

func TestAttachPhoto_AppendsAndRemoves(t *testing.T) {
	f := newFixture(t)

	f.svc.OpenReportForm(context.Background())
	f.svc.AttachPhoto(context.Background())
	f.svc.AttachPhoto(context.Background())

	require.Len(t, f.svc.DraftPhotos(), 2)

	f.svc.RemovePhoto(0)
	assert.Len(t, f.svc.DraftPhotos(), 1)
}

func TestRegisterHandlers_Routing(t *testing.T) {
	f := newFixture(t)

	d, err := dispatcher.New(nopKV{})
	require.NoError(t, err)
	f.svc.RegisterHandlers(d)

	// "dump" matches the dump site title and the dumped-debris description
	count, err := d.Dispatch(dispatcher.Event{Name: "filter:search", Payload: "dump"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = d.Dispatch(dispatcher.Event{Name: "filter:search", Payload: 42})
	assert.Error(t, err, "wrong payload type should be rejected")

	_, err = d.Dispatch(dispatcher.Event{Name: "marker:select", Payload: 1})
	require.NoError(t, err)
	assert.Equal(t, 15.0, f.camera.State().Zoom)
}
