package conversation

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vhouse/vhouse/internal/database"
)

// DefaultEmailSubject is substituted when generated email content carries no
// SUBJECT: marker.
const DefaultEmailSubject = "Comunicación VHouse - Distribución Vegana"

// orderSchemaInstruction declares the JSON layout the generator must emit for
// order extraction. The parser assumes this contract was followed but never
// assumes it was obeyed exactly.
const orderSchemaInstruction = `[CRITICAL] Respond ONLY with a JSON object inside a fenced code block, matching exactly this schema:
` + "```json" + `
{
  "items": [{"product": "<catalog product name>", "quantity": <positive integer>, "notes": "<optional>"}],
  "delivery_date": "<YYYY-MM-DD or empty>",
  "payment_terms": "<free text or empty>",
  "special_requests": "<free text or empty>",
  "missing_info": ["<anything you could not determine>"]
}
` + "```" + `
Rules:
- Reference ONLY products from the catalog supplied above. NEVER invent a product, a price, or an availability.
- If the customer mentions something not in the catalog, list it under "missing_info" instead of "items".
- Quantities must come from the customer's message; if unclear, put the product under "missing_info".
`

// emailLayoutInstruction declares the fixed section layout for email generation.
const emailLayoutInstruction = `[CRITICAL] Format your response exactly as:
SUBJECT: <one line subject>
BODY:
<the full email body>

Mention only products from the catalog supplied above. Never invent products or prices. Write in the customer's language (Spanish unless the message indicates otherwise).`

// conversationInstructions maps each conversation kind to its role prompt.
var conversationInstructions = map[Kind]string{
	KindOrderInquiry: `You are the sales assistant of VHouse, a B2B vegan goods distributor. A customer is asking about placing an order. Answer helpfully, quoting prices and availability ONLY from the catalog supplied above.`,
	KindComplaint:    `You are the customer-care assistant of VHouse, a B2B vegan goods distributor. A customer has a complaint. Acknowledge it, apologize once, and propose a concrete next step. Do not promise refunds or credits.`,
	KindBulkOrder:    `You are the sales assistant of VHouse, a B2B vegan goods distributor. A customer wants a bulk order. Confirm which catalog items can cover it, flag stock limits from the catalog supplied above, and suggest contacting the account manager for volume pricing.`,
	KindPriceQuote:   `You are the sales assistant of VHouse, a B2B vegan goods distributor. A customer wants a price quote. Quote unit prices ONLY from the catalog supplied above and summarize totals if quantities are given.`,
	KindGeneral:      `You are the assistant of VHouse, a B2B vegan goods distributor. Answer the customer's message helpfully and concisely, grounded in the catalog supplied above when products come up.`,
}

// emailInstructions maps each email type to its content brief.
var emailInstructions = map[EmailType]string{
	EmailOrderConfirmation: `Write an order confirmation email for the customer, restating the ordered items, totals, and expected delivery from the data supplied below.`,
	EmailPromotional:       `Write a short promotional email highlighting two or three catalog products matching the customer's preferences.`,
	EmailPaymentReminder:   `Write a polite payment reminder email referencing the outstanding amount and terms from the data supplied below.`,
	EmailGeneral:           `Write a professional business email for the customer covering the points in the data supplied below.`,
}

// PromptEngine fills prompt templates with business context, the verbatim
// customer message, and a live catalog excerpt.
type PromptEngine struct{}

// NewPromptEngine creates a prompt engine.
func NewPromptEngine() *PromptEngine {
	return &PromptEngine{}
}

// BuildConversation renders the prompt for a conversation request.
func (e *PromptEngine) BuildConversation(kind Kind, bc *BusinessContext, catalog []database.Product, message string) string {
	instruction, ok := conversationInstructions[kind]
	if !ok {
		instruction = conversationInstructions[KindGeneral]
	}

	var sb strings.Builder
	sb.WriteString(instruction)
	sb.WriteString("\n\n")
	sb.WriteString(renderContextBlock(bc))
	sb.WriteString(renderCatalogExcerpt(catalog))
	sb.WriteString("CUSTOMER MESSAGE:\n")
	sb.WriteString(message)
	sb.WriteString("\n")
	return sb.String()
}

// BuildEmail renders the prompt for email generation, including the fixed
// SUBJECT:/BODY: layout contract.
func (e *PromptEngine) BuildEmail(emailType EmailType, bc *BusinessContext, catalog []database.Product, data map[string]string) string {
	instruction, ok := emailInstructions[emailType]
	if !ok {
		instruction = emailInstructions[EmailGeneral]
	}

	var sb strings.Builder
	sb.WriteString(instruction)
	sb.WriteString("\n\n")
	sb.WriteString(renderContextBlock(bc))
	sb.WriteString(renderCatalogExcerpt(catalog))

	if len(data) > 0 {
		sb.WriteString("EMAIL DATA:\n")
		keys := make([]string, 0, len(data))
		for k := range data {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteString(fmt.Sprintf("- %s: %s\n", k, data[k]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(emailLayoutInstruction)
	sb.WriteString("\n")
	return sb.String()
}

// BuildOrderExtraction renders the prompt for structured order extraction,
// including the fenced-JSON schema contract.
func (e *PromptEngine) BuildOrderExtraction(bc *BusinessContext, catalog []database.Product, text, freeform string) string {
	var sb strings.Builder
	sb.WriteString("You extract purchase orders for VHouse, a B2B vegan goods distributor.\n\n")
	sb.WriteString(renderContextBlock(bc))
	sb.WriteString(renderCatalogExcerpt(catalog))
	if freeform != "" {
		sb.WriteString("ADDITIONAL CONTEXT:\n")
		sb.WriteString(freeform)
		sb.WriteString("\n\n")
	}
	sb.WriteString("CUSTOMER ORDER TEXT:\n")
	sb.WriteString(text)
	sb.WriteString("\n\n")
	sb.WriteString(orderSchemaInstruction)
	return sb.String()
}

func renderContextBlock(bc *BusinessContext) string {
	if bc == nil {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("BUSINESS CONTEXT:\n")
	if bc.Prospect {
		sb.WriteString("- Customer: prospect (no account on record)\n")
	} else {
		sb.WriteString(fmt.Sprintf("- Customer: %s (%s", bc.CustomerName, bc.CustomerType))
		if !bc.IsActive {
			sb.WriteString(", inactive account")
		}
		sb.WriteString(")\n")
		if bc.PrefersOrganic {
			sb.WriteString("- Prefers organic products\n")
		}
		if bc.PrefersBulk {
			sb.WriteString("- Prefers bulk packaging\n")
		}
		if bc.TypicalOrderValue.IsPositive() {
			sb.WriteString(fmt.Sprintf("- Typical order value: %s\n", bc.TypicalOrderValue.StringFixed(2)))
		}
		for _, summary := range bc.RecentOrders {
			sb.WriteString(fmt.Sprintf("- Recent order %s\n", summary))
		}
	}
	sb.WriteString("\n")
	return sb.String()
}

// renderCatalogExcerpt renders the live catalog into the prompt so the
// generator is grounded in real names, prices, and stock.
func renderCatalogExcerpt(catalog []database.Product) string {
	var sb strings.Builder
	sb.WriteString("CATALOG (active, in stock):\n")
	if len(catalog) == 0 {
		sb.WriteString("- (no products currently available)\n")
	}
	for _, p := range catalog {
		sb.WriteString(fmt.Sprintf("- %s | $%s | stock %d\n", p.Name, p.Price.StringFixed(2), p.StockQuantity))
	}
	sb.WriteString("\n")
	return sb.String()
}
