package conversation

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vhouse/vhouse/internal/database"
)

// Validator cross-checks extracted items against the live catalog. It never
// invents a product or a price: unmatched names are dropped and recorded as
// missing information.
type Validator struct {
	log *slog.Logger
}

// NewValidator creates a catalog grounding validator.
func NewValidator(log *slog.Logger) *Validator {
	if log == nil {
		log = slog.Default()
	}
	return &Validator{log: log.With("component", "grounding")}
}

// Ground matches each extracted item against the active, in-stock catalog.
// On match it binds the product ID and replaces any absent or invalid unit
// price with the catalog price. Items without a positive quantity never pass
// grounding. Zero surviving items is a valid outcome signaling escalation to
// a human, not an error.
func (v *Validator) Ground(items []ExtractedOrderItem, catalog []database.Product) (grounded []ExtractedOrderItem, missing []string) {
	for _, item := range items {
		product, ok := matchCatalog(item.RawProductName, catalog)
		if !ok {
			v.log.Debug("Extracted product not in catalog, dropping",
				"raw_name", item.RawProductName)
			missing = append(missing, item.RawProductName)
			continue
		}
		if item.Quantity <= 0 {
			missing = append(missing, fmt.Sprintf("quantity for %q", product.Name))
			continue
		}

		enriched := item
		enriched.ProductID = product.ID
		enriched.RawProductName = product.Name
		if enriched.UnitPrice.IsZero() || enriched.UnitPrice.IsNegative() {
			enriched.UnitPrice = product.Price
		}
		grounded = append(grounded, enriched)
	}
	return grounded, missing
}

// matchCatalog finds the catalog product for a raw name using
// case-insensitive containment in either direction, then a token match for
// multi-word names.
func matchCatalog(rawName string, catalog []database.Product) (database.Product, bool) {
	lowerRaw := strings.ToLower(strings.TrimSpace(rawName))
	if lowerRaw == "" {
		return database.Product{}, false
	}

	for _, p := range catalog {
		lowerName := strings.ToLower(p.Name)
		if strings.Contains(lowerName, lowerRaw) || strings.Contains(lowerRaw, lowerName) {
			return p, true
		}
	}

	rawWords := strings.Fields(lowerRaw)
	for _, p := range catalog {
		lowerName := strings.ToLower(p.Name)
		matched := 0
		for _, w := range rawWords {
			if len(w) > 3 && strings.Contains(lowerName, w) {
				matched++
			}
		}
		if matched >= 2 || (matched == 1 && len(rawWords) == 1) {
			return p, true
		}
	}
	return database.Product{}, false
}
