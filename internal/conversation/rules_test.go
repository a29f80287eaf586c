package conversation_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vhouse/vhouse/internal/conversation"
)

func TestDeterminePriority(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		message string
		kind    conversation.Kind
		want    conversation.Priority
	}{
		{
			name:    "urgency term overrides general kind",
			message: "Necesito el pedido URGENTE por favor",
			kind:    conversation.KindGeneral,
			want:    conversation.PriorityUrgent,
		},
		{
			name:    "urgency term overrides complaint kind",
			message: "Es una emergencia, el producto llegó en mal estado",
			kind:    conversation.KindComplaint,
			want:    conversation.PriorityUrgent,
		},
		{
			name:    "hoy as whole word is urgent",
			message: "Lo necesito hoy mismo",
			kind:    conversation.KindOrderInquiry,
			want:    conversation.PriorityUrgent,
		},
		{
			name:    "hoy inside another word does not fire",
			message: "El camión cayó en un hoyo",
			kind:    conversation.KindGeneral,
			want:    conversation.PriorityLow,
		},
		{
			name:    "complaint is high",
			message: "El queso llegó abierto",
			kind:    conversation.KindComplaint,
			want:    conversation.PriorityHigh,
		},
		{
			name:    "bulk order is high",
			message: "Quisiera cotizar 40 cajas",
			kind:    conversation.KindBulkOrder,
			want:    conversation.PriorityHigh,
		},
		{
			name:    "order inquiry is medium",
			message: "¿Tienen leche de avena?",
			kind:    conversation.KindOrderInquiry,
			want:    conversation.PriorityMedium,
		},
		{
			name:    "price quote is medium",
			message: "¿Me pasan precios de tofu?",
			kind:    conversation.KindPriceQuote,
			want:    conversation.PriorityMedium,
		},
		{
			name:    "general is low",
			message: "Gracias por la entrega de la semana pasada",
			kind:    conversation.KindGeneral,
			want:    conversation.PriorityLow,
		},
		{
			name:    "inmediato mixed case",
			message: "Requiero surtido INMEDIATO",
			kind:    conversation.KindPriceQuote,
			want:    conversation.PriorityUrgent,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := conversation.DeterminePriority(tc.message, tc.kind)
			if got != tc.want {
				t.Errorf("DeterminePriority(%q, %s) = %s, want %s",
					tc.message, tc.kind, got, tc.want)
			}
		})
	}
}

func TestRuleEvaluator(t *testing.T) {
	t.Parallel()

	evaluator := conversation.NewRuleEvaluator(2.0)
	catalog := testCatalog()

	t.Run("large order fires above twice typical value", func(t *testing.T) {
		t.Parallel()
		summary := &conversation.OrderSummary{
			EstimatedTotal: decimal.RequireFromString("9000"),
		}
		bc := &conversation.BusinessContext{
			TypicalOrderValue: decimal.RequireFromString("3000"),
		}
		alerts := evaluator.Evaluate(nil, nil, summary, bc, catalog)

		if len(alerts) != 1 {
			t.Fatalf("alerts = %d, want 1", len(alerts))
		}
		if alerts[0].Type != conversation.AlertLargeOrder {
			t.Errorf("alert type = %s, want %s", alerts[0].Type, conversation.AlertLargeOrder)
		}
		if alerts[0].Priority != conversation.PriorityMedium {
			t.Errorf("alert priority = %s, want medium", alerts[0].Priority)
		}
		if len(alerts[0].SuggestedActions) == 0 {
			t.Error("large order alert has no suggested actions")
		}
	})

	t.Run("exactly at threshold does not fire", func(t *testing.T) {
		t.Parallel()
		summary := &conversation.OrderSummary{
			EstimatedTotal: decimal.RequireFromString("6000"),
		}
		bc := &conversation.BusinessContext{
			TypicalOrderValue: decimal.RequireFromString("3000"),
		}
		alerts := evaluator.Evaluate(nil, nil, summary, bc, catalog)
		if len(alerts) != 0 {
			t.Errorf("alerts = %v, want none at exact threshold", alerts)
		}
	})

	t.Run("no typical value means no large order alert", func(t *testing.T) {
		t.Parallel()
		summary := &conversation.OrderSummary{
			EstimatedTotal: decimal.RequireFromString("50000"),
		}
		bc := &conversation.BusinessContext{TypicalOrderValue: decimal.Zero}
		alerts := evaluator.Evaluate(nil, nil, summary, bc, catalog)
		if len(alerts) != 0 {
			t.Errorf("alerts = %v, want none for new customer", alerts)
		}
	})

	t.Run("stock shortage is high priority", func(t *testing.T) {
		t.Parallel()
		items := []conversation.ExtractedOrderItem{
			{ProductID: 3, RawProductName: "Queso Vegano Cheddar", Quantity: 100,
				UnitPrice: decimal.RequireFromString("45")},
		}
		alerts := evaluator.Evaluate(items, items, nil, nil, catalog)

		if len(alerts) != 1 {
			t.Fatalf("alerts = %d, want 1", len(alerts))
		}
		if alerts[0].Type != conversation.AlertStockShortage {
			t.Errorf("alert type = %s", alerts[0].Type)
		}
		if alerts[0].Priority != conversation.PriorityHigh {
			t.Errorf("alert priority = %s, want high", alerts[0].Priority)
		}
	})

	t.Run("price anomaly checks generated price against catalog", func(t *testing.T) {
		t.Parallel()
		raw := []conversation.ExtractedOrderItem{
			{RawProductName: "Tofu Firme", Quantity: 2,
				UnitPrice: decimal.RequireFromString("40")},
		}
		alerts := evaluator.Evaluate(nil, raw, nil, nil, catalog)

		if len(alerts) != 1 {
			t.Fatalf("alerts = %d, want 1", len(alerts))
		}
		if alerts[0].Type != conversation.AlertPriceAnomaly {
			t.Errorf("alert type = %s", alerts[0].Type)
		}
		if alerts[0].Priority != conversation.PriorityLow {
			t.Errorf("alert priority = %s, want low", alerts[0].Priority)
		}
	})

	t.Run("price within tolerance is fine", func(t *testing.T) {
		t.Parallel()
		raw := []conversation.ExtractedOrderItem{
			{RawProductName: "Tofu Firme", Quantity: 2,
				UnitPrice: decimal.RequireFromString("20")},
		}
		alerts := evaluator.Evaluate(nil, raw, nil, nil, catalog)
		if len(alerts) != 0 {
			t.Errorf("alerts = %v, want none within tolerance", alerts)
		}
	})

	t.Run("multiple rules can fire together", func(t *testing.T) {
		t.Parallel()
		items := []conversation.ExtractedOrderItem{
			{ProductID: 3, RawProductName: "Queso Vegano Cheddar", Quantity: 200,
				UnitPrice: decimal.RequireFromString("45")},
		}
		summary := &conversation.OrderSummary{
			EstimatedTotal: decimal.RequireFromString("10440"),
		}
		bc := &conversation.BusinessContext{
			TypicalOrderValue: decimal.RequireFromString("3000"),
		}
		alerts := evaluator.Evaluate(items, items, summary, bc, catalog)

		if len(alerts) != 2 {
			t.Fatalf("alerts = %d, want large order plus stock shortage", len(alerts))
		}
	})
}
