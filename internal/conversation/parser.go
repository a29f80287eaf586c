package conversation

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vhouse/vhouse/internal/database"
)

// Parser turns generated text into typed structures. Every parse method is a
// total function: no input can cause an unhandled failure, at worst the
// result is empty with gaps recorded in MissingInfo.
type Parser struct {
	log *slog.Logger
	now func() time.Time
}

// NewParser creates a parser. nowFunc may be nil, defaulting to time.Now;
// tests inject a fixed clock for relative-date parsing.
func NewParser(log *slog.Logger, nowFunc func() time.Time) *Parser {
	if log == nil {
		log = slog.Default()
	}
	if nowFunc == nil {
		nowFunc = time.Now
	}
	return &Parser{
		log: log.With("component", "parser"),
		now: nowFunc,
	}
}

// Email is the parsed subject/body pair of generated email content.
type Email struct {
	Subject string
	Body    string
}

// ParseEmail scans generated content for case-insensitive SUBJECT: and BODY:
// markers. Missing markers degrade to the default subject and the full
// content as body, so the result is always a well-formed, non-empty email.
func (p *Parser) ParseEmail(content string) Email {
	email := Email{Subject: DefaultEmailSubject}

	lines := strings.Split(content, "\n")
	bodyStart := -1
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		if strings.HasPrefix(upper, "SUBJECT:") && email.Subject == DefaultEmailSubject {
			if subject := strings.TrimSpace(trimmed[len("SUBJECT:"):]); subject != "" {
				email.Subject = subject
			}
			continue
		}
		if strings.HasPrefix(upper, "BODY:") && bodyStart == -1 {
			rest := strings.TrimSpace(trimmed[len("BODY:"):])
			if rest != "" {
				lines[i] = rest
				bodyStart = i
			} else {
				bodyStart = i + 1
			}
		}
	}

	if bodyStart >= 0 && bodyStart <= len(lines) {
		email.Body = strings.TrimSpace(strings.Join(lines[bodyStart:], "\n"))
	} else {
		email.Body = strings.TrimSpace(content)
	}
	return email
}

// ParsedOrder is the structured result of order-mode parsing, before catalog
// grounding.
type ParsedOrder struct {
	Items           []ExtractedOrderItem
	DeliveryDate    time.Time
	PaymentTerms    *PaymentTerms
	SpecialRequests string
	MissingInfo     []string

	// UsedFallback marks the keyword-scan path taken when no valid JSON was
	// found; its items are lower-confidence and carry no quantities.
	UsedFallback bool
}

// flexInt tolerates quantities emitted as JSON numbers or numeric strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(v)
	return nil
}

// rawOrder matches the JSON schema declared in the order extraction prompt.
type rawOrder struct {
	Items []struct {
		Product  string  `json:"product"`
		Quantity flexInt `json:"quantity"`
		Notes    string  `json:"notes"`
	} `json:"items"`
	DeliveryDate    string   `json:"delivery_date"`
	PaymentTerms    string   `json:"payment_terms"`
	SpecialRequests string   `json:"special_requests"`
	MissingInfo     []string `json:"missing_info"`
}

var fencedJSONRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ParseOrder attempts a strict parse of the declared JSON schema from the
// generated content. On failure it falls back to a keyword scan over catalog
// product names, emitting quantity-zero low-confidence items so the pipeline
// stays non-empty under degenerate generator output.
func (p *Parser) ParseOrder(content string, catalog []database.Product) ParsedOrder {
	if raw, ok := p.extractJSON(content); ok {
		return p.orderFromJSON(raw, content)
	}

	p.log.Warn("No parseable JSON in generated order content, using keyword fallback",
		"content_length", len(content))
	return p.keywordFallback(content, catalog)
}

func (p *Parser) extractJSON(content string) (*rawOrder, bool) {
	candidates := []string{}
	if m := fencedJSONRe.FindStringSubmatch(content); m != nil {
		candidates = append(candidates, m[1])
	}
	if start := strings.Index(content, "{"); start >= 0 {
		if end := strings.LastIndex(content, "}"); end > start {
			candidates = append(candidates, content[start:end+1])
		}
	}

	for _, candidate := range candidates {
		var raw rawOrder
		if err := json.Unmarshal([]byte(candidate), &raw); err == nil {
			return &raw, true
		}
	}
	return nil, false
}

func (p *Parser) orderFromJSON(raw *rawOrder, content string) ParsedOrder {
	order := ParsedOrder{
		SpecialRequests: strings.TrimSpace(raw.SpecialRequests),
		MissingInfo:     raw.MissingInfo,
	}

	for _, item := range raw.Items {
		name := strings.TrimSpace(item.Product)
		if name == "" {
			continue
		}
		if item.Quantity <= 0 {
			order.MissingInfo = append(order.MissingInfo, name)
			continue
		}
		order.Items = append(order.Items, ExtractedOrderItem{
			RawProductName: name,
			Quantity:       int(item.Quantity),
			Notes:          strings.TrimSpace(item.Notes),
		})
	}

	order.DeliveryDate = p.ParseDeliveryDate(raw.DeliveryDate)
	order.PaymentTerms = ParsePaymentTerms(raw.PaymentTerms)
	if order.PaymentTerms == nil {
		// The prose around the JSON sometimes carries the terms instead.
		order.PaymentTerms = ParsePaymentTerms(content)
	}
	return order
}

// keywordFallback scans the content for catalog product name fragments.
// Matched items carry quantity zero and are flagged low-confidence: they
// signal what the text was about but never reach pricing.
func (p *Parser) keywordFallback(content string, catalog []database.Product) ParsedOrder {
	order := ParsedOrder{UsedFallback: true}
	lower := strings.ToLower(content)

	for _, product := range catalog {
		if containsName(lower, product.Name) {
			order.Items = append(order.Items, ExtractedOrderItem{
				RawProductName: product.Name,
				Quantity:       0,
				LowConfidence:  true,
			})
			order.MissingInfo = append(order.MissingInfo,
				fmt.Sprintf("quantity for %q", product.Name))
		}
	}

	if len(order.Items) == 0 && strings.TrimSpace(content) != "" {
		order.MissingInfo = append(order.MissingInfo, "no recognizable products in generated content")
	}

	order.DeliveryDate = p.ParseDeliveryDate(content)
	order.PaymentTerms = ParsePaymentTerms(content)
	return order
}

// containsName reports whether the lowercased haystack contains the product
// name or, for multi-word names, a significant fragment of it.
func containsName(lowerHaystack, name string) bool {
	lowerName := strings.ToLower(name)
	if strings.Contains(lowerHaystack, lowerName) {
		return true
	}

	words := strings.Fields(lowerName)
	if len(words) < 2 {
		return false
	}
	matched := 0
	for _, w := range words {
		if len(w) > 3 && strings.Contains(lowerHaystack, w) {
			matched++
		}
	}
	return matched >= 2
}

var (
	isoDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

	netDaysRe  = regexp.MustCompile(`(?i)(?:net|neto)\s*(\d{1,3})`)
	plainDays  = regexp.MustCompile(`(?i)(\d{1,3})\s*d[ií]as`)
	discountRe = regexp.MustCompile(`(?i)(\d{1,2}(?:\.\d+)?)\s*%\s*(?:de\s+)?(?:descuento|discount)`)
	discDaysRe = regexp.MustCompile(`(?i)(?:descuento|discount)[^.\n]*?(\d{1,3})\s*d[ií]as`)
)

// ParseDeliveryDate extracts a delivery date from an ISO date or a small set
// of relative Spanish/English phrases. Zero time when nothing matches.
func (p *Parser) ParseDeliveryDate(text string) time.Time {
	if m := isoDateRe.FindString(text); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t
		}
	}

	lower := strings.ToLower(text)
	now := p.now()
	switch {
	case strings.Contains(lower, "próxima semana") || strings.Contains(lower, "proxima semana") || strings.Contains(lower, "next week"):
		return now.AddDate(0, 0, 7)
	case strings.Contains(lower, "mañana") || strings.Contains(lower, "tomorrow"):
		return now.AddDate(0, 0, 1)
	}
	return time.Time{}
}

// ParsePaymentTerms extracts payment terms from free text. Nil when the text
// gives no signal.
func ParsePaymentTerms(text string) *PaymentTerms {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	terms := &PaymentTerms{}
	found := false

	if m := netDaysRe.FindStringSubmatch(text); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil && days >= 0 {
			terms.DaysNet = days
			found = true
		}
	} else if m := plainDays.FindStringSubmatch(text); m != nil {
		if days, err := strconv.Atoi(m[1]); err == nil && days >= 0 {
			terms.DaysNet = days
			found = true
		}
	}

	if m := discountRe.FindStringSubmatch(text); m != nil {
		if pct, err := decimal.NewFromString(m[1]); err == nil && !pct.IsNegative() {
			terms.DiscountPercentage = pct
			found = true
			if dm := discDaysRe.FindStringSubmatch(text); dm != nil {
				if days, err := strconv.Atoi(dm[1]); err == nil {
					terms.DiscountDays = days
				}
			}
		}
	}

	if !found {
		return nil
	}
	terms.Description = firstLine(text)
	return terms
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = s[:idx]
	}
	const maxLen = 120
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return strings.TrimSpace(s)
}
