package database

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Customer represents a B2B customer of the distributor. Commercial
// classification flags feed the business context rendered into prompts.
type Customer struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Name           string `db:"name"`
	ContactEmail   string `db:"contact_email"`
	CustomerType   string `db:"customer_type"`
	IsActive       bool   `db:"is_active"`
	PrefersOrganic bool   `db:"prefers_organic"`
	PrefersBulk    bool   `db:"prefers_bulk"`
}

// Product is one catalog entry. Only active products with positive stock
// participate in prompt excerpts and order grounding.
type Product struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`

	Name          string          `db:"name"`
	Description   string          `db:"description"`
	Price         decimal.Decimal `db:"price"`
	StockQuantity int             `db:"stock_quantity"`
	IsActive      bool            `db:"is_active"`
}

// Order is a persisted purchase order header. This subsystem only reads
// orders, to compute a customer's typical order value and recent history.
type Order struct {
	ID         int64           `db:"id"`
	CreatedAt  time.Time       `db:"created_at"`
	CustomerID int64           `db:"customer_id"`
	Total      decimal.Decimal `db:"total"`
	Status     string          `db:"status"`
}

// ConversationLog is the audit record written after each orchestrator run.
type ConversationLog struct {
	ID         int64         `db:"id"`
	CreatedAt  time.Time     `db:"created_at"`
	CustomerID sql.NullInt64 `db:"customer_id"`
	Kind       string        `db:"kind"`
	Successful bool          `db:"successful"`
	Provider   string        `db:"provider"`
	ElapsedMs  int64         `db:"elapsed_ms"`
}
