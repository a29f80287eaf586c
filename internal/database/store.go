package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for database operations used by the
// conversation core. Methods accept context.Context for cancellation.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// GetCustomerByID retrieves a customer by ID. Returns ErrNotFound if absent.
	GetCustomerByID(ctx context.Context, id int64) (*Customer, error)

	// GetActiveProducts retrieves all active products with positive stock.
	GetActiveProducts(ctx context.Context) ([]Product, error)

	// GetRecentOrdersByCustomer retrieves the most recent 'limit' orders for a customer.
	GetRecentOrdersByCustomer(ctx context.Context, customerID int64, limit int) ([]Order, error)

	// SaveConversationLog inserts an audit record for one orchestrator run.
	SaveConversationLog(ctx context.Context, entry *ConversationLog) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore implements Store using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a Store backed by the given sqlx connection pool.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlxStore) GetCustomerByID(ctx context.Context, id int64) (*Customer, error) {
	var customer Customer
	query := `SELECT id, created_at, updated_at, name, contact_email, customer_type,
	                 is_active, prefers_organic, prefers_bulk
	          FROM customers WHERE id = ?`

	if err := s.db.GetContext(ctx, &customer, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get customer", "customer_id", id, "error", err)
		return nil, fmt.Errorf("failed to get customer %d: %w", id, err)
	}
	return &customer, nil
}

func (s *sqlxStore) GetActiveProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	query := `SELECT id, created_at, updated_at, name, description, price,
	                 stock_quantity, is_active
	          FROM products
	          WHERE is_active = 1 AND stock_quantity > 0
	          ORDER BY name`

	if err := s.db.SelectContext(ctx, &products, query); err != nil {
		s.logger.ErrorContext(ctx, "Failed to get active products", "error", err)
		return nil, fmt.Errorf("failed to get active products: %w", err)
	}
	return products, nil
}

func (s *sqlxStore) GetRecentOrdersByCustomer(ctx context.Context, customerID int64, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = 5
	}

	var orders []Order
	query := `SELECT id, created_at, customer_id, total, status
	          FROM orders
	          WHERE customer_id = ?
	          ORDER BY created_at DESC
	          LIMIT ?`

	if err := s.db.SelectContext(ctx, &orders, query, customerID, limit); err != nil {
		s.logger.ErrorContext(ctx, "Failed to get recent orders", "customer_id", customerID, "error", err)
		return nil, fmt.Errorf("failed to get recent orders for customer %d: %w", customerID, err)
	}
	return orders, nil
}

func (s *sqlxStore) SaveConversationLog(ctx context.Context, entry *ConversationLog) error {
	if entry == nil {
		return fmt.Errorf("cannot save nil conversation log")
	}
	if entry.Kind == "" {
		return fmt.Errorf("conversation log must have a kind")
	}

	query := `INSERT INTO conversation_logs (customer_id, kind, successful, provider, elapsed_ms)
	          VALUES (:customer_id, :kind, :successful, :provider, :elapsed_ms)`

	if _, err := s.db.NamedExecContext(ctx, query, entry); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save conversation log", "kind", entry.Kind, "error", err)
		return fmt.Errorf("failed to save conversation log: %w", err)
	}
	return nil
}

func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	s.logger.InfoContext(ctx, "Running SQL maintenance")

	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("failed to run ANALYZE: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("failed to run VACUUM: %w", err)
	}

	s.logger.InfoContext(ctx, "SQL maintenance completed")
	return nil
}
