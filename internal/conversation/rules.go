package conversation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vhouse/vhouse/internal/database"
)

// urgencyLexicon: a message containing any of these terms is Urgent
// regardless of conversation kind.
var urgencyLexicon = []string{"urgente", "inmediato", "hoy", "emergencia"}

// DeterminePriority applies the priority rules. The urgency lexicon takes
// precedence over conversation-kind rules.
func DeterminePriority(message string, kind Kind) Priority {
	lower := strings.ToLower(message)
	for _, term := range urgencyLexicon {
		if containsWord(lower, term) {
			return PriorityUrgent
		}
	}

	switch kind {
	case KindComplaint, KindBulkOrder:
		return PriorityHigh
	case KindOrderInquiry, KindPriceQuote:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// containsWord matches a whole word so "hoy" does not fire inside "hoyo".
func containsWord(lowerText, word string) bool {
	idx := 0
	for {
		pos := strings.Index(lowerText[idx:], word)
		if pos < 0 {
			return false
		}
		pos += idx
		before := pos == 0 || !isLetter(lowerText[pos-1])
		afterIdx := pos + len(word)
		after := afterIdx >= len(lowerText) || !isLetter(lowerText[afterIdx])
		if before && after {
			return true
		}
		idx = pos + len(word)
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b >= 0x80
}

// RuleEvaluator generates business alerts from extracted, grounded data.
// Rules are evaluated independently; multiple alerts may fire for one order.
type RuleEvaluator struct {
	largeOrderMultiplier decimal.Decimal
}

// NewRuleEvaluator creates an evaluator. multiplier is how many times the
// customer's typical order value an order must exceed to raise the
// large-order alert (2.0 by default).
func NewRuleEvaluator(multiplier float64) *RuleEvaluator {
	if multiplier <= 0 {
		multiplier = 2.0
	}
	return &RuleEvaluator{largeOrderMultiplier: decimal.NewFromFloat(multiplier)}
}

// priceAnomalyTolerance is the relative deviation between a generated unit
// price and the catalog price beyond which the anomaly alert fires.
var priceAnomalyTolerance = decimal.NewFromFloat(0.25)

// Evaluate runs all alert rules over the grounded items and their summary.
func (r *RuleEvaluator) Evaluate(items []ExtractedOrderItem, raw []ExtractedOrderItem, summary *OrderSummary, bc *BusinessContext, catalog []database.Product) []Alert {
	var alerts []Alert

	if a := r.largeOrderAlert(summary, bc); a != nil {
		alerts = append(alerts, *a)
	}
	alerts = append(alerts, stockShortageAlerts(items, catalog)...)
	alerts = append(alerts, priceAnomalyAlerts(raw, catalog)...)

	return alerts
}

func (r *RuleEvaluator) largeOrderAlert(summary *OrderSummary, bc *BusinessContext) *Alert {
	if summary == nil || bc == nil || !bc.TypicalOrderValue.IsPositive() {
		return nil
	}
	threshold := bc.TypicalOrderValue.Mul(r.largeOrderMultiplier)
	if summary.EstimatedTotal.LessThanOrEqual(threshold) {
		return nil
	}
	return &Alert{
		Type:     AlertLargeOrder,
		Priority: PriorityMedium,
		Message: fmt.Sprintf("Order total %s far exceeds the customer's typical order value %s",
			summary.EstimatedTotal.StringFixed(2), bc.TypicalOrderValue.StringFixed(2)),
		SuggestedActions: []string{"confirm inventory", "verify payment terms"},
	}
}

func stockShortageAlerts(items []ExtractedOrderItem, catalog []database.Product) []Alert {
	stock := make(map[int64]int, len(catalog))
	for _, p := range catalog {
		stock[p.ID] = p.StockQuantity
	}

	var alerts []Alert
	for _, item := range items {
		if item.ProductID == 0 {
			continue
		}
		if available, ok := stock[item.ProductID]; ok && item.Quantity > available {
			alerts = append(alerts, Alert{
				Type:     AlertStockShortage,
				Priority: PriorityHigh,
				Message: fmt.Sprintf("Requested %d units of %q but only %d in stock",
					item.Quantity, item.RawProductName, available),
				SuggestedActions: []string{"check restock schedule", "offer partial delivery"},
			})
		}
	}
	return alerts
}

// priceAnomalyAlerts compares the unit prices the generator produced (before
// grounding corrected them) against catalog prices.
func priceAnomalyAlerts(raw []ExtractedOrderItem, catalog []database.Product) []Alert {
	var alerts []Alert
	for _, item := range raw {
		if !item.UnitPrice.IsPositive() {
			continue
		}
		product, ok := matchCatalog(item.RawProductName, catalog)
		if !ok || !product.Price.IsPositive() {
			continue
		}
		deviation := item.UnitPrice.Sub(product.Price).Abs().Div(product.Price)
		if deviation.GreaterThan(priceAnomalyTolerance) {
			alerts = append(alerts, Alert{
				Type:     AlertPriceAnomaly,
				Priority: PriorityLow,
				Message: fmt.Sprintf("Generated price %s for %q deviates from catalog price %s",
					item.UnitPrice.StringFixed(2), item.RawProductName, product.Price.StringFixed(2)),
				SuggestedActions: []string{"review quoted price with the customer"},
			})
		}
	}
	return alerts
}
