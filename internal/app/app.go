// Package app orchestrates the home screen flows: visible markers, filter
// state, marker selection, locate-me, and the report creation lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ihza212325/trashpin/internal/camera"
	"github.com/ihza212325/trashpin/internal/geo"
	"github.com/ihza212325/trashpin/internal/location"
	"github.com/ihza212325/trashpin/internal/markers"
	"github.com/ihza212325/trashpin/internal/model"
	"github.com/ihza212325/trashpin/internal/notify"
	"github.com/ihza212325/trashpin/internal/photos"
	"github.com/ihza212325/trashpin/internal/store"
	"github.com/ihza212325/trashpin/internal/telemetry"
)

// ValidationError rejects a report draft before it reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Dependencies wires the service's collaborators.
type Dependencies struct {
	Store     *store.ReportStore
	Catalog   *markers.Catalog
	Camera    *camera.Controller
	Cascade   *location.Cascade
	Photos    photos.CameraAPI
	Toasts    *notify.Center
	Telemetry *telemetry.Manager // optional
	Logger    *slog.Logger
	LogKV     location.Logger
}

// reportForm is one open report-creation session.
type reportForm struct {
	runner *location.Runner
	roll   photos.Roll
	fix    *model.LocationFix
}

// Service is the home screen controller.
type Service struct {
	deps Dependencies

	// locateRunner serializes locate-me taps, last tap wins.
	locateRunner *location.Runner

	mu     sync.Mutex
	filter model.FilterState
	form   *reportForm

	onOpenDetail func(model.MarkerRecord)
}

// New creates the service. The cascade may be shared between locate-me and
// report forms; runners keep their invocations apart.
func New(deps Dependencies) *Service {
	return &Service{
		deps:         deps,
		locateRunner: location.NewRunner(deps.Cascade, deps.LogKV),
	}
}

// OnOpenDetail registers the presentation callback for marker detail views.
func (s *Service) OnOpenDetail(fn func(model.MarkerRecord)) {
	s.mu.Lock()
	s.onOpenDetail = fn
	s.mu.Unlock()
}

////////////////////////
// MARKERS AND FILTER
////////////////////////

// VisibleMarkers projects the current filter over seed and user markers.
func (s *Service) VisibleMarkers() []model.MarkerRecord {
	s.mu.Lock()
	filter := s.filter
	s.mu.Unlock()

	return markers.Visible(s.deps.Catalog.Seed(), s.deps.Store.Reports(), filter)
}

// Stats summarizes the visible list for the stats card.
func (s *Service) Stats() markers.Stats {
	return markers.Summarize(s.VisibleMarkers(), s.deps.Store.Reports())
}

// SetSearchQuery replaces the free-text filter.
func (s *Service) SetSearchQuery(q string) {
	s.mu.Lock()
	s.filter.SearchQuery = q
	s.mu.Unlock()
}

// SetScope toggles the own-reports-only filter.
func (s *Service) SetScope(ownOnly bool) {
	s.mu.Lock()
	s.filter.ScopeToOwnReports = ownOnly
	s.mu.Unlock()
}

// Filter returns the current filter state.
func (s *Service) Filter() model.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// HandleMarkerSelected focuses the camera on the marker and opens its
// detail view. Unknown ids are logged and ignored.
func (s *Service) HandleMarkerSelected(id int) {
	record, ok := s.lookup(id)
	if !ok {
		s.deps.Logger.Warn("Selected marker not found", "id", id)
		return
	}

	s.deps.Camera.FocusOnMarker(record)

	s.mu.Lock()
	open := s.onOpenDetail
	s.mu.Unlock()
	if open != nil {
		open(record)
	}
}

func (s *Service) lookup(id int) (model.MarkerRecord, bool) {
	if record, ok := s.deps.Store.Get(id); ok {
		return record, true
	}
	for _, m := range s.deps.Catalog.Seed() {
		if m.ID == id {
			return m, true
		}
	}
	return model.MarkerRecord{}, false
}

////////////////////////
// LOCATE ME
////////////////////////

// LocateMe acquires the device location in the background and focuses the
// camera on it. Rapid repeat taps supersede each other; only the newest
// resolution is applied. Failures surface as toasts, never errors.
func (s *Service) LocateMe(ctx context.Context) {
	start := time.Now()

	s.locateRunner.Acquire(ctx, func(res location.Result) {
		s.recordCascade(res, time.Since(start))

		if res.Err != nil {
			s.deps.Logger.Info("Location acquisition failed", "error", res.Err)
			s.deps.Toasts.Error(location.UserMessage(res.Err))
			return
		}

		if res.Fix.Stale {
			s.deps.Toasts.Warning(location.StaleFixMessage)
		}
		s.deps.Camera.FocusOnCoordinates(res.Fix.Coordinates)
	})
}

func (s *Service) recordCascade(res location.Result, elapsed time.Duration) {
	if s.deps.Telemetry == nil {
		return
	}

	outcome := "resolved"
	var fix *model.LocationFix
	if res.Err != nil {
		outcome = "failed"
	} else {
		fix = &res.Fix
	}

	if err := s.deps.Telemetry.RecordCascade(context.Background(), outcome, fix, elapsed); err != nil {
		s.deps.Logger.Debug("Failed to record cascade telemetry", "error", err)
	}
}

////////////////////////
// REPORT FLOW
////////////////////////

// OpenReportForm starts a report session and kicks off location
// acquisition for the draft coordinates. An already open form is reused.
func (s *Service) OpenReportForm(ctx context.Context) {
	s.mu.Lock()
	if s.form != nil {
		s.mu.Unlock()
		return
	}
	form := &reportForm{
		runner: location.NewRunner(s.deps.Cascade, s.deps.LogKV),
	}
	s.form = form
	s.mu.Unlock()

	start := time.Now()
	form.runner.Acquire(ctx, func(res location.Result) {
		s.recordCascade(res, time.Since(start))

		if res.Err != nil {
			s.deps.Logger.Info("Draft location acquisition failed", "error", res.Err)
			s.deps.Toasts.Error(location.UserMessage(res.Err))
			return
		}
		if res.Fix.Stale {
			s.deps.Toasts.Warning(location.StaleFixMessage)
		}

		s.mu.Lock()
		if s.form == form {
			fix := res.Fix
			form.fix = &fix
		}
		s.mu.Unlock()
	})
}

// RetryLocation re-runs the cascade for the open form. The previous
// invocation keeps running but its resolution is discarded.
func (s *Service) RetryLocation(ctx context.Context) {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()
	if form == nil {
		return
	}

	start := time.Now()
	form.runner.Acquire(ctx, func(res location.Result) {
		s.recordCascade(res, time.Since(start))

		if res.Err != nil {
			s.deps.Toasts.Error(location.UserMessage(res.Err))
			return
		}
		if res.Fix.Stale {
			s.deps.Toasts.Warning(location.StaleFixMessage)
		}

		s.mu.Lock()
		if s.form == form {
			fix := res.Fix
			form.fix = &fix
		}
		s.mu.Unlock()
	})
}

// DraftFix returns the location attached to the open form, if any.
func (s *Service) DraftFix() (model.LocationFix, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form == nil || s.form.fix == nil {
		return model.LocationFix{}, false
	}
	return *s.form.fix, true
}

// AttachPhoto captures a photo and appends it to the open form's roll.
// Cancellation is silent; permission denial surfaces as a warning toast.
func (s *Service) AttachPhoto(ctx context.Context) {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()
	if form == nil {
		return
	}

	uri, err := photos.Take(ctx, s.deps.Photos)
	if err != nil {
		s.deps.Logger.Info("Photo capture failed", "error", err)
		if errors.Is(err, photos.ErrPermissionDenied) {
			s.deps.Toasts.Warning(photos.PermissionDeniedMessage)
		} else {
			s.deps.Toasts.Error("Could not capture photo. Please try again.")
		}
		return
	}
	if uri == "" {
		return
	}

	s.mu.Lock()
	form.roll.Add(uri)
	s.mu.Unlock()
}

// RemovePhoto drops the photo at index i from the open form.
func (s *Service) RemovePhoto(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form == nil {
		return
	}
	s.form.roll.Remove(i)
}

// DraftPhotos returns the photos attached to the open form.
func (s *Service) DraftPhotos() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form == nil {
		return nil
	}
	return s.form.roll.URIs()
}

// SubmitReport validates the draft and creates the report. On success the
// form closes, a toast confirms, and the camera focuses on the new marker
// with a deferred detail-view follow-up.
func (s *Service) SubmitReport(title, description string) (model.MarkerRecord, error) {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()

	if form == nil {
		return model.MarkerRecord{}, fmt.Errorf("no report form open")
	}

	if strings.TrimSpace(title) == "" {
		return model.MarkerRecord{}, &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if strings.TrimSpace(description) == "" {
		return model.MarkerRecord{}, &ValidationError{Field: "description", Reason: "must not be empty"}
	}

	s.mu.Lock()
	fix := form.fix
	uris := form.roll.URIs()
	s.mu.Unlock()

	if fix == nil {
		return model.MarkerRecord{}, &ValidationError{Field: "location", Reason: "not acquired yet"}
	}
	if !geo.Valid(fix.Coordinates) {
		return model.MarkerRecord{}, &ValidationError{Field: "location", Reason: "coordinates out of range"}
	}

	record := s.deps.Store.AddReport(model.ReportDraft{
		Coordinates: fix.Coordinates,
		Title:       strings.TrimSpace(title),
		Description: strings.TrimSpace(description),
		Photos:      uris,
	})

	s.closeForm(form)

	s.deps.Toasts.Success("Report submitted. Thank you for keeping the city clean!")
	s.deps.Camera.FocusOnNewReport(record.Coordinates, &record)
	s.recordReport("submit", record.ID)

	s.deps.Logger.Info("Report submitted", "id", record.ID, "title", record.Title)
	return record, nil
}

// CloseReportForm abandons the open form: pending location interest is
// dropped and any deferred camera follow-up is cancelled.
func (s *Service) CloseReportForm() {
	s.mu.Lock()
	form := s.form
	s.mu.Unlock()
	if form == nil {
		return
	}

	s.closeForm(form)
	s.deps.Camera.CancelFollowUps()
}

func (s *Service) closeForm(form *reportForm) {
	s.mu.Lock()
	if s.form == form {
		s.form = nil
	}
	s.mu.Unlock()
	form.runner.Close()
}

// RemoveReport deletes a user report. Seed markers cannot be removed; the
// store ignores their ids.
func (s *Service) RemoveReport(id int) {
	s.deps.Store.RemoveReport(id)
	s.recordReport("remove", id)
}

func (s *Service) recordReport(action string, id int) {
	if s.deps.Telemetry == nil {
		return
	}
	if err := s.deps.Telemetry.RecordReport(context.Background(), action, id); err != nil {
		s.deps.Logger.Debug("Failed to record report telemetry", "error", err)
	}
}

// Shutdown abandons all in-flight location work.
func (s *Service) Shutdown() {
	s.CloseReportForm()
	s.locateRunner.Close()
	s.deps.Camera.CancelFollowUps()
}
