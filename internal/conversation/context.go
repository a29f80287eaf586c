package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/vhouse/vhouse/internal/database"
)

// ErrCustomerNotFound is returned by the context builder when a referenced
// customer does not exist. The orchestrator converts it into a short-circuit
// failure response; it never propagates past the orchestrator boundary.
var ErrCustomerNotFound = errors.New("customer not found")

// ContextBuilder assembles the business context grounding a generation
// request. It is read-only over the store.
type ContextBuilder struct {
	store  database.Store
	window int
	log    *slog.Logger
}

// NewContextBuilder creates a context builder. window bounds how many recent
// orders are summarized into the context.
func NewContextBuilder(store database.Store, window int, log *slog.Logger) *ContextBuilder {
	if window <= 0 {
		window = 5
	}
	if log == nil {
		log = slog.Default()
	}
	return &ContextBuilder{
		store:  store,
		window: window,
		log:    log.With("component", "context_builder"),
	}
}

// Build returns the business context for the given customer. customerID 0
// yields a generic prospect context. An unknown customer yields
// ErrCustomerNotFound.
func (b *ContextBuilder) Build(ctx context.Context, customerID int64) (*BusinessContext, error) {
	if customerID == 0 {
		return &BusinessContext{
			CustomerType:      "prospect",
			Prospect:          true,
			TypicalOrderValue: decimal.Zero,
		}, nil
	}

	customer, err := b.store.GetCustomerByID(ctx, customerID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			b.log.WarnContext(ctx, "Referenced customer not found", "customer_id", customerID)
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to load customer %d: %w", customerID, err)
	}

	orders, err := b.store.GetRecentOrdersByCustomer(ctx, customerID, b.window)
	if err != nil {
		// Order history enriches the context but is not essential to it.
		b.log.WarnContext(ctx, "Failed to load recent orders, continuing without history",
			"customer_id", customerID, "error", err)
		orders = nil
	}

	bc := &BusinessContext{
		CustomerID:        customer.ID,
		CustomerName:      customer.Name,
		CustomerType:      customer.CustomerType,
		IsActive:          customer.IsActive,
		PrefersOrganic:    customer.PrefersOrganic,
		PrefersBulk:       customer.PrefersBulk,
		TypicalOrderValue: typicalOrderValue(orders),
	}
	for _, o := range orders {
		bc.RecentOrders = append(bc.RecentOrders,
			fmt.Sprintf("%s: %s %s (%s)", o.CreatedAt.Format("2006-01-02"), o.Total.StringFixed(2), "MXN", o.Status))
	}
	return bc, nil
}

// typicalOrderValue is the mean of the recent order totals, zero when there
// is no history.
func typicalOrderValue(orders []database.Order) decimal.Decimal {
	if len(orders) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, o := range orders {
		sum = sum.Add(o.Total)
	}
	return sum.Div(decimal.NewFromInt(int64(len(orders)))).Round(2)
}
