package conversation_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vhouse/vhouse/internal/conversation"
)

// TestGround verifies catalog grounding: matched items are bound to real
// products and prices, unmatched names are dropped into missing info, and
// nothing is ever invented.
func TestGround(t *testing.T) {
	t.Parallel()

	validator := conversation.NewValidator(nil)
	catalog := testCatalog()

	t.Run("exact name binds product and price", func(t *testing.T) {
		t.Parallel()
		items := []conversation.ExtractedOrderItem{
			{RawProductName: "Leche de Avena Orgánica", Quantity: 50},
		}
		grounded, missing := validator.Ground(items, catalog)

		if len(grounded) != 1 || len(missing) != 0 {
			t.Fatalf("grounded=%d missing=%d, want 1/0", len(grounded), len(missing))
		}
		if grounded[0].ProductID != 1 {
			t.Errorf("product id = %d, want 1", grounded[0].ProductID)
		}
		if !grounded[0].UnitPrice.Equal(decimal.RequireFromString("25")) {
			t.Errorf("unit price = %s, want 25", grounded[0].UnitPrice)
		}
	})

	t.Run("case insensitive partial name matches", func(t *testing.T) {
		t.Parallel()
		items := []conversation.ExtractedOrderItem{
			{RawProductName: "leche de avena", Quantity: 10},
			{RawProductName: "TOFU FIRME", Quantity: 5},
		}
		grounded, missing := validator.Ground(items, catalog)

		if len(grounded) != 2 || len(missing) != 0 {
			t.Fatalf("grounded=%d missing=%d, want 2/0", len(grounded), len(missing))
		}
		if grounded[0].RawProductName != "Leche de Avena Orgánica" {
			t.Errorf("canonical name = %q", grounded[0].RawProductName)
		}
	})

	t.Run("hallucinated product is dropped never priced", func(t *testing.T) {
		t.Parallel()
		items := []conversation.ExtractedOrderItem{
			{RawProductName: "Caviar Vegano Premium", Quantity: 3, UnitPrice: decimal.RequireFromString("999")},
			{RawProductName: "Tofu Firme", Quantity: 2},
		}
		grounded, missing := validator.Ground(items, catalog)

		if len(grounded) != 1 {
			t.Fatalf("grounded=%d, want 1", len(grounded))
		}
		for _, g := range grounded {
			if g.RawProductName == "Caviar Vegano Premium" {
				t.Error("hallucinated product survived grounding")
			}
		}
		if len(missing) != 1 || missing[0] != "Caviar Vegano Premium" {
			t.Errorf("missing = %v, want the hallucinated name", missing)
		}
	})

	t.Run("generated price replaced only when invalid", func(t *testing.T) {
		t.Parallel()
		items := []conversation.ExtractedOrderItem{
			{RawProductName: "Tofu Firme", Quantity: 2, UnitPrice: decimal.RequireFromString("18.50")},
			{RawProductName: "Queso Vegano Cheddar", Quantity: 1, UnitPrice: decimal.RequireFromString("-3")},
		}
		grounded, _ := validator.Ground(items, catalog)

		if len(grounded) != 2 {
			t.Fatalf("grounded=%d, want 2", len(grounded))
		}
		if !grounded[0].UnitPrice.Equal(decimal.RequireFromString("18.50")) {
			t.Errorf("valid price replaced: %s", grounded[0].UnitPrice)
		}
		if !grounded[1].UnitPrice.Equal(decimal.RequireFromString("45")) {
			t.Errorf("invalid price not replaced with catalog price: %s", grounded[1].UnitPrice)
		}
	})

	t.Run("zero matches returns empty order not error", func(t *testing.T) {
		t.Parallel()
		items := []conversation.ExtractedOrderItem{
			{RawProductName: "Producto Inventado Uno", Quantity: 1},
			{RawProductName: "Producto Inventado Dos", Quantity: 2},
		}
		grounded, missing := validator.Ground(items, catalog)

		if len(grounded) != 0 {
			t.Errorf("grounded=%d, want 0", len(grounded))
		}
		if len(missing) != 2 {
			t.Errorf("missing=%v, want both raw names", missing)
		}
	})

	t.Run("zero quantity never passes grounding", func(t *testing.T) {
		t.Parallel()
		items := []conversation.ExtractedOrderItem{
			{RawProductName: "Tofu Firme", Quantity: 0, LowConfidence: true},
		}
		grounded, missing := validator.Ground(items, catalog)

		if len(grounded) != 0 {
			t.Errorf("quantity-zero item passed grounding: %+v", grounded)
		}
		if len(missing) != 1 {
			t.Errorf("missing=%v, want quantity gap recorded", missing)
		}
	})
}
