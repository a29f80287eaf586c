package conversation

import (
	"github.com/shopspring/decimal"
)

// Summarizer computes order financial totals. Pure and division-free; an
// empty item list yields an all-zero summary.
type Summarizer struct {
	taxRate  decimal.Decimal
	currency string
}

// NewSummarizer creates a summarizer with the configured tax rate
// (e.g. 0.16) and ISO currency code.
func NewSummarizer(taxRate float64, currency string) *Summarizer {
	return &Summarizer{
		taxRate:  decimal.NewFromFloat(taxRate),
		currency: currency,
	}
}

// Summarize computes subtotal, estimated tax, and total for the given items,
// rounded to standard currency precision (2 decimal places).
func (s *Summarizer) Summarize(items []ExtractedOrderItem) OrderSummary {
	summary := OrderSummary{
		SubTotal:       decimal.Zero,
		EstimatedTax:   decimal.Zero,
		EstimatedTotal: decimal.Zero,
		Currency:       s.currency,
	}

	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		summary.TotalItems += item.Quantity
		line := item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity)))
		summary.SubTotal = summary.SubTotal.Add(line)
	}

	summary.SubTotal = summary.SubTotal.Round(2)
	summary.EstimatedTax = summary.SubTotal.Mul(s.taxRate).Round(2)
	summary.EstimatedTotal = summary.SubTotal.Add(summary.EstimatedTax)
	return summary
}
