package conversation_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vhouse/vhouse/internal/conversation"
)

func testContext() *conversation.BusinessContext {
	return &conversation.BusinessContext{
		CustomerID:        7,
		CustomerName:      "Restaurante Verde",
		CustomerType:      "restaurant",
		IsActive:          true,
		PrefersOrganic:    true,
		TypicalOrderValue: decimal.RequireFromString("3000"),
		RecentOrders:      []string{"2025-05-20: 3500.00 MXN (delivered)"},
	}
}

func TestBuildConversation(t *testing.T) {
	t.Parallel()

	engine := conversation.NewPromptEngine()
	catalog := testCatalog()

	t.Run("includes context catalog and message", func(t *testing.T) {
		t.Parallel()
		prompt := engine.BuildConversation(conversation.KindOrderInquiry, testContext(), catalog,
			"¿Tienen leche de avena?")

		for _, want := range []string{
			"Restaurante Verde",
			"Prefers organic products",
			"Leche de Avena Orgánica | $25.00 | stock 200",
			"CUSTOMER MESSAGE:",
			"¿Tienen leche de avena?",
		} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q", want)
			}
		}
	})

	t.Run("unknown kind falls back to general instruction", func(t *testing.T) {
		t.Parallel()
		known := engine.BuildConversation(conversation.KindGeneral, testContext(), catalog, "Hola")
		unknown := engine.BuildConversation(conversation.Kind("made_up"), testContext(), catalog, "Hola")
		if known != unknown {
			t.Error("unknown kind should render the general instruction")
		}
	})

	t.Run("prospect context renders without account details", func(t *testing.T) {
		t.Parallel()
		bc := &conversation.BusinessContext{Prospect: true, CustomerType: "prospect"}
		prompt := engine.BuildConversation(conversation.KindGeneral, bc, catalog, "Hola")

		if !strings.Contains(prompt, "prospect (no account on record)") {
			t.Error("prospect marker missing")
		}
		if strings.Contains(prompt, "Typical order value") {
			t.Error("prospect prompt leaked account details")
		}
	})

	t.Run("empty catalog renders placeholder", func(t *testing.T) {
		t.Parallel()
		prompt := engine.BuildConversation(conversation.KindGeneral, testContext(), nil, "Hola")
		if !strings.Contains(prompt, "no products currently available") {
			t.Error("empty catalog placeholder missing")
		}
	})
}

func TestBuildEmail(t *testing.T) {
	t.Parallel()

	engine := conversation.NewPromptEngine()
	catalog := testCatalog()

	prompt := engine.BuildEmail(conversation.EmailOrderConfirmation, testContext(), catalog,
		map[string]string{"order_id": "42", "amount": "1450.00"})

	if !strings.Contains(prompt, "SUBJECT: <one line subject>") {
		t.Error("email layout contract missing")
	}
	if !strings.Contains(prompt, "- amount: 1450.00") || !strings.Contains(prompt, "- order_id: 42") {
		t.Error("email data not rendered")
	}
	// Deterministic key order keeps prompts reproducible.
	if strings.Index(prompt, "- amount:") > strings.Index(prompt, "- order_id:") {
		t.Error("email data keys not sorted")
	}
}

func TestBuildOrderExtraction(t *testing.T) {
	t.Parallel()

	engine := conversation.NewPromptEngine()
	prompt := engine.BuildOrderExtraction(testContext(), testCatalog(),
		"50 leches de avena", "pedido recurrente quincenal")

	for _, want := range []string{
		"[CRITICAL]",
		`"missing_info"`,
		"NEVER invent a product",
		"ADDITIONAL CONTEXT:\npedido recurrente quincenal",
		"CUSTOMER ORDER TEXT:\n50 leches de avena",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
