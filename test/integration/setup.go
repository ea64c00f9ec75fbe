package integration

import (
	"context"
	"testing"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the application
// schema applied.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := database.Open(ctx, connStr, config.DatabaseConfig{
		MaxConnections:  10,
		MinConnections:  2,
		MaxConnLifetime: 300,
	})
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := database.Migrate(ctx, pool, zerolog.Nop()); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedCatalog inserts the test categories and products:
//
//	C001 Footwear: P001 Canvas Sneaker 1499.00, P002 Leather Boot 3999.50
//	C002 Kitchen:  P003 Coffee Mug 249.99, P004 Bread Knife 899.00
//	C003 Accessories: P005 Cotton Socks 199.00
func SeedCatalog(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	batch := &pgx.Batch{}

	categories := [][2]string{
		{"C001", "Footwear"},
		{"C002", "Kitchen"},
		{"C003", "Accessories"},
	}
	for _, c := range categories {
		batch.Queue("INSERT INTO categories (id, name) VALUES ($1, $2)", c[0], c[1])
	}

	products := []struct {
		id       string
		name     string
		price    string
		category string
	}{
		{"P001", "Canvas Sneaker", "1499.00", "C001"},
		{"P002", "Leather Boot", "3999.50", "C001"},
		{"P003", "Coffee Mug", "249.99", "C002"},
		{"P004", "Bread Knife", "899.00", "C002"},
		{"P005", "Cotton Socks", "199.00", "C003"},
	}
	for _, p := range products {
		batch.Queue(
			"INSERT INTO products (id, name, price, category_id, stock) VALUES ($1, $2, $3, $4, 10)",
			p.id, p.name, decimal.RequireFromString(p.price), p.category,
		)
	}

	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		t.Fatalf("failed to seed catalogue: %v", err)
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		"TRUNCATE order_discounts, order_items, orders, discount_rules, products, categories CASCADE")
	if err != nil {
		t.Fatalf("failed to clean tables: %v", err)
	}
}
