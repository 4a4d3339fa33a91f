package app

import (
	"context"
	"fmt"

	"github.com/ihza212325/trashpin/internal/dispatcher"
)

// SubmitPayload carries the report form fields through the dispatcher.
type SubmitPayload struct {
	Title       string
	Description string
}

// RegisterHandlers registers all UI event handlers with the dispatcher.
func (s *Service) RegisterHandlers(d *dispatcher.Dispatcher) {
	// Selection and filter - sync, cheap
	d.Register("marker:select", s.handleMarkerSelect, dispatcher.Logged())
	d.Register("filter:search", s.handleFilterSearch)
	d.Register("filter:scope", s.handleFilterScope)

	// Location - sync registration; the runner itself is async
	d.Register("location:acquire", s.handleLocateMe, dispatcher.Logged())

	// Report lifecycle
	d.Register("report:open", s.handleReportOpen, dispatcher.Logged())
	d.Register("report:submit", s.handleReportSubmit, dispatcher.Logged())
	d.Register("report:close", s.handleReportClose, dispatcher.Logged())
	d.Register("report:remove", s.handleReportRemove, dispatcher.Logged())

	// Photos - buffered, capture can take a while
	d.Register("photo:attach", s.handlePhotoAttach, dispatcher.Buffered(8), dispatcher.Logged())
	d.Register("photo:remove", s.handlePhotoRemove)
}

func (s *Service) handleMarkerSelect(e dispatcher.Event) (any, error) {
	id, ok := e.Payload.(int)
	if !ok {
		return nil, fmt.Errorf("marker:select expects an int id, got %T", e.Payload)
	}
	s.HandleMarkerSelected(id)
	return nil, nil
}

func (s *Service) handleFilterSearch(e dispatcher.Event) (any, error) {
	q, ok := e.Payload.(string)
	if !ok {
		return nil, fmt.Errorf("filter:search expects a string, got %T", e.Payload)
	}
	s.SetSearchQuery(q)
	return len(s.VisibleMarkers()), nil
}

func (s *Service) handleFilterScope(e dispatcher.Event) (any, error) {
	own, ok := e.Payload.(bool)
	if !ok {
		return nil, fmt.Errorf("filter:scope expects a bool, got %T", e.Payload)
	}
	s.SetScope(own)
	return len(s.VisibleMarkers()), nil
}

func (s *Service) handleLocateMe(e dispatcher.Event) (any, error) {
	s.LocateMe(context.Background())
	return nil, nil
}

func (s *Service) handleReportOpen(e dispatcher.Event) (any, error) {
	s.OpenReportForm(context.Background())
	return nil, nil
}

func (s *Service) handleReportSubmit(e dispatcher.Event) (any, error) {
	payload, ok := e.Payload.(SubmitPayload)
	if !ok {
		return nil, fmt.Errorf("report:submit expects a SubmitPayload, got %T", e.Payload)
	}
	record, err := s.SubmitReport(payload.Title, payload.Description)
	if err != nil {
		return nil, err
	}
	return record.ID, nil
}

func (s *Service) handleReportClose(e dispatcher.Event) (any, error) {
	s.CloseReportForm()
	return nil, nil
}

func (s *Service) handleReportRemove(e dispatcher.Event) (any, error) {
	id, ok := e.Payload.(int)
	if !ok {
		return nil, fmt.Errorf("report:remove expects an int id, got %T", e.Payload)
	}
	s.RemoveReport(id)
	return nil, nil
}

func (s *Service) handlePhotoAttach(e dispatcher.Event) (any, error) {
	s.AttachPhoto(context.Background())
	return nil, nil
}

func (s *Service) handlePhotoRemove(e dispatcher.Event) (any, error) {
	i, ok := e.Payload.(int)
	if !ok {
		return nil, fmt.Errorf("photo:remove expects an int index, got %T", e.Payload)
	}
	s.RemovePhoto(i)
	return nil, nil
}
