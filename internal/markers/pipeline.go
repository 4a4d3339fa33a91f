package markers

import (
	"strings"

	"github.com/ihza212325/trashpin/internal/model"
)

// Visible produces the ordered marker list for the given filter state.
// It is a pure projection: base set = reports only when scoping to own
// reports, else seed followed by reports in creation order; a non-empty
// trimmed query then keeps records whose title or description contains it
// case-insensitively. Filtering preserves order.
func Visible(seed, reports []model.MarkerRecord, f model.FilterState) []model.MarkerRecord {
	var base []model.MarkerRecord
	if f.ScopeToOwnReports {
		base = make([]model.MarkerRecord, 0, len(reports))
		base = append(base, reports...)
	} else {
		base = make([]model.MarkerRecord, 0, len(seed)+len(reports))
		base = append(base, seed...)
		base = append(base, reports...)
	}

	query := strings.ToLower(strings.TrimSpace(f.SearchQuery))
	if query == "" {
		return base
	}

	filtered := base[:0:0]
	for _, m := range base {
		if strings.Contains(strings.ToLower(m.Title), query) ||
			strings.Contains(strings.ToLower(m.Description), query) {
			filtered = append(filtered, m)
		}
	}
	if filtered == nil {
		filtered = []model.MarkerRecord{}
	}
	return filtered
}

// Stats summarizes the numbers shown alongside the map.
type Stats struct {
	Visible    int `json:"visible"`
	OwnReports int `json:"ownReports"`
}

// Summarize counts the visible markers and the user's own reports.
func Summarize(visible, reports []model.MarkerRecord) Stats {
	return Stats{
		Visible:    len(visible),
		OwnReports: len(reports),
	}
}
