package database_test

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/vhouse/vhouse/internal/database"
)

func newTestStore(t *testing.T) (database.Store, *sqlx.DB) {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewDB() error = %v", err)
	}
	t.Cleanup(func() { database.CloseDB(db) })
	return database.NewStore(db, nil), db
}

func seedCustomer(t *testing.T, db *sqlx.DB) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO customers (name, contact_email, customer_type, prefers_organic, prefers_bulk)
	                     VALUES ('Restaurante Verde', 'compras@restauranteverde.mx', 'restaurant', 1, 1)`)
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	id, _ := res.LastInsertId()
	return id
}

func TestStoreCustomers(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	id := seedCustomer(t, db)

	customer, err := store.GetCustomerByID(ctx, id)
	if err != nil {
		t.Fatalf("GetCustomerByID() error = %v", err)
	}
	if customer.Name != "Restaurante Verde" {
		t.Errorf("name = %q", customer.Name)
	}
	if customer.CustomerType != "restaurant" {
		t.Errorf("customer type = %q", customer.CustomerType)
	}
	if !customer.IsActive || !customer.PrefersOrganic || !customer.PrefersBulk {
		t.Errorf("flags = %+v", customer)
	}

	if _, err := store.GetCustomerByID(ctx, 9999); !errors.Is(err, database.ErrNotFound) {
		t.Errorf("missing customer error = %v, want ErrNotFound", err)
	}
}

func TestStoreActiveProducts(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	inserts := []struct {
		name   string
		price  string
		stock  int
		active int
	}{
		{"Tofu Firme", "18.50", 80, 1},
		{"Leche de Avena Orgánica", "25", 200, 1},
		{"Producto Descontinuado", "10", 50, 0},
		{"Agotado", "5", 0, 1},
	}
	for _, p := range inserts {
		if _, err := db.Exec(`INSERT INTO products (name, price, stock_quantity, is_active) VALUES (?, ?, ?, ?)`,
			p.name, p.price, p.stock, p.active); err != nil {
			t.Fatalf("seed product %q: %v", p.name, err)
		}
	}

	products, err := store.GetActiveProducts(ctx)
	if err != nil {
		t.Fatalf("GetActiveProducts() error = %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("products = %d, want only active in-stock rows", len(products))
	}
	// Ordered by name.
	if products[0].Name != "Leche de Avena Orgánica" || products[1].Name != "Tofu Firme" {
		t.Errorf("order = %q, %q", products[0].Name, products[1].Name)
	}
	if !products[1].Price.Equal(decimal.RequireFromString("18.50")) {
		t.Errorf("price = %s, want 18.50", products[1].Price)
	}
}

func TestStoreRecentOrders(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()
	id := seedCustomer(t, db)

	orders := []struct {
		createdAt string
		total     string
	}{
		{"2025-05-01 10:00:00", "1000"},
		{"2025-05-15 10:00:00", "2000"},
		{"2025-05-29 10:00:00", "3000"},
	}
	for _, o := range orders {
		if _, err := db.Exec(`INSERT INTO orders (created_at, customer_id, total, status) VALUES (?, ?, ?, 'delivered')`,
			o.createdAt, id, o.total); err != nil {
			t.Fatalf("seed order: %v", err)
		}
	}

	got, err := store.GetRecentOrdersByCustomer(ctx, id, 2)
	if err != nil {
		t.Fatalf("GetRecentOrdersByCustomer() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("orders = %d, want limit of 2", len(got))
	}
	// Newest first.
	if !got[0].Total.Equal(decimal.RequireFromString("3000")) {
		t.Errorf("first total = %s, want the newest order", got[0].Total)
	}
	if !got[1].Total.Equal(decimal.RequireFromString("2000")) {
		t.Errorf("second total = %s", got[1].Total)
	}

	none, err := store.GetRecentOrdersByCustomer(ctx, 9999, 5)
	if err != nil {
		t.Fatalf("GetRecentOrdersByCustomer() for unknown customer error = %v", err)
	}
	if len(none) != 0 {
		t.Errorf("orders for unknown customer = %d, want 0", len(none))
	}
}

func TestStoreConversationLogs(t *testing.T) {
	store, db := newTestStore(t)
	ctx := context.Background()

	entry := &database.ConversationLog{
		CustomerID: sql.NullInt64{Int64: 7, Valid: true},
		Kind:       "conversation:order_inquiry",
		Successful: true,
		Provider:   "gemini",
		ElapsedMs:  134,
	}
	if err := store.SaveConversationLog(ctx, entry); err != nil {
		t.Fatalf("SaveConversationLog() error = %v", err)
	}

	var count int
	if err := db.Get(&count, `SELECT COUNT(*) FROM conversation_logs WHERE kind = ?`, entry.Kind); err != nil {
		t.Fatalf("count logs: %v", err)
	}
	if count != 1 {
		t.Errorf("log rows = %d, want 1", count)
	}

	if err := store.SaveConversationLog(ctx, nil); err == nil {
		t.Error("nil entry should be rejected")
	}
	if err := store.SaveConversationLog(ctx, &database.ConversationLog{}); err == nil {
		t.Error("entry without kind should be rejected")
	}
}

func TestStoreMaintenance(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()

	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping() error = %v", err)
	}
	if err := store.RunSQLMaintenance(ctx); err != nil {
		t.Errorf("RunSQLMaintenance() error = %v", err)
	}
}
