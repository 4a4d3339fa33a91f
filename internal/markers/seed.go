// Package markers owns the static seed data set and the projection that
// merges it with user reports into the visible marker list.
package markers

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/ihza212325/trashpin/internal/model"
)

//go:embed seed.json
var seedJSON []byte

// Catalog holds the immutable seed records, loaded once at startup.
type Catalog struct {
	seed []model.MarkerRecord
}

// LoadCatalog parses the embedded seed data set.
func LoadCatalog() (*Catalog, error) {
	var seed []model.MarkerRecord
	if err := json.Unmarshal(seedJSON, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed markers: %w", err)
	}
	return &Catalog{seed: seed}, nil
}

// NewCatalog wraps a caller-provided seed set. Used by tests and by shells
// that ship their own marker asset.
func NewCatalog(seed []model.MarkerRecord) *Catalog {
	return &Catalog{seed: seed}
}

// Seed returns a copy of the seed records in their load order.
func (c *Catalog) Seed() []model.MarkerRecord {
	out := make([]model.MarkerRecord, len(c.seed))
	copy(out, c.seed)
	return out
}

// Len returns the number of seed records.
func (c *Catalog) Len() int {
	return len(c.seed)
}
