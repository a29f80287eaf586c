// Package conversation implements the natural-language business-conversation
// and order-extraction pipeline: building business context, prompting a text
// generation provider, then deterministically parsing, grounding, and pricing
// whatever comes back.
package conversation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the closed category of a business request.
type Kind string

const (
	KindOrderInquiry Kind = "order_inquiry"
	KindComplaint    Kind = "complaint"
	KindBulkOrder    Kind = "bulk_order"
	KindPriceQuote   Kind = "price_quote"
	KindGeneral      Kind = "general"
)

// EmailType selects an outbound email template.
type EmailType string

const (
	EmailOrderConfirmation EmailType = "order_confirmation"
	EmailPromotional       EmailType = "promotional"
	EmailPaymentReminder   EmailType = "payment_reminder"
	EmailGeneral           EmailType = "general"
)

// Priority classifies how quickly a request needs human attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// AlertType names a business alert rule family.
type AlertType string

const (
	AlertLargeOrder    AlertType = "large_order"
	AlertStockShortage AlertType = "stock_shortage"
	AlertPriceAnomaly  AlertType = "price_anomaly"
)

// Request is the immutable input to the conversation pipeline. CustomerID 0
// means no customer reference (a prospect).
type Request struct {
	Message         string
	CustomerID      int64
	Kind            Kind
	FreeformContext string
}

// EmailRequest asks for generated outbound email content.
type EmailRequest struct {
	EmailType  EmailType
	CustomerID int64
	Data       map[string]string
}

// OrderRequest asks for structured order extraction from free-form text.
type OrderRequest struct {
	Text            string
	CustomerID      int64
	FreeformContext string
}

// BusinessContext holds the minimal facts grounding a generation request.
// Built fresh per request and never persisted by this subsystem.
type BusinessContext struct {
	CustomerID        int64
	CustomerName      string
	CustomerType      string
	IsActive          bool
	PrefersOrganic    bool
	PrefersBulk       bool
	Prospect          bool
	TypicalOrderValue decimal.Decimal
	RecentOrders      []string
}

// ExtractedOrderItem is one order line pulled from generated text.
// ProductID is set only after catalog grounding; items are never mutated
// after enrichment.
type ExtractedOrderItem struct {
	ProductID      int64           `json:"product_id,omitempty"`
	RawProductName string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Notes          string          `json:"notes,omitempty"`
	LowConfidence  bool            `json:"low_confidence,omitempty"`
}

// OrderSummary holds the derived financial totals. Recomputed each call,
// never cached.
type OrderSummary struct {
	TotalItems     int             `json:"total_items"`
	SubTotal       decimal.Decimal `json:"sub_total"`
	EstimatedTax   decimal.Decimal `json:"estimated_tax"`
	EstimatedTotal decimal.Decimal `json:"estimated_total"`
	Currency       string          `json:"currency"`
}

// Alert is a business alert generated by the rule evaluator.
type Alert struct {
	Type             AlertType `json:"type"`
	Message          string    `json:"message"`
	Priority         Priority  `json:"priority"`
	SuggestedActions []string  `json:"suggested_actions,omitempty"`
}

// PaymentTerms describes payment conditions extracted from generated text.
// Nil when the text gives no signal.
type PaymentTerms struct {
	DaysNet            int             `json:"days_net"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	DiscountDays       int             `json:"discount_days"`
	Description        string          `json:"description"`
}

// Response is the terminal output of the orchestrator, immutable once
// returned. Its field set is the stable payload contract regardless of
// transport.
type Response struct {
	ResponseText       string               `json:"response"`
	Subject            string               `json:"subject,omitempty"`
	Body               string               `json:"body,omitempty"`
	ContextLabel       string               `json:"context"`
	SuggestedActions   []string             `json:"suggested_actions,omitempty"`
	Recommendations    []string             `json:"product_recommendations,omitempty"`
	Priority           Priority             `json:"priority"`
	ExtractedItems     []ExtractedOrderItem `json:"extracted_entities"`
	OrderSummary       *OrderSummary        `json:"order_summary,omitempty"`
	Alerts             []Alert              `json:"alerts"`
	PaymentTerms       *PaymentTerms        `json:"payment_terms,omitempty"`
	DeliveryDate       time.Time            `json:"delivery_date,omitzero"`
	MissingInformation []string             `json:"missing_information"`
	Provider           string               `json:"used_provider,omitempty"`
	Model              string               `json:"used_model,omitempty"`
	Successful         bool                 `json:"is_successful"`
	ErrorMessage       string               `json:"error_message,omitempty"`
	ResponseTimeMs     int64                `json:"response_time_ms"`
}
