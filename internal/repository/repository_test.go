package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB starts a PostgreSQL testcontainer with the application schema
// and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	require.NoError(t, database.Migrate(ctx, pool, zerolog.Nop()))

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

func seedCategories(t *testing.T, pool *pgxpool.Pool, categories []model.Category) {
	t.Helper()
	ctx := context.Background()

	for _, c := range categories {
		_, err := pool.Exec(ctx,
			`INSERT INTO categories (id, name, description) VALUES ($1, $2, $3)`,
			c.ID, c.Name, c.Description)
		require.NoError(t, err)
	}
}

// seedProducts inserts test products into the database.
func seedProducts(t *testing.T, pool *pgxpool.Pool, products []model.Product) {
	t.Helper()
	ctx := context.Background()

	query := `
		INSERT INTO products (id, name, description, price, category_id, stock, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, p := range products {
		_, err := pool.Exec(ctx, query, p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.Stock, p.CreatedAt)
		require.NoError(t, err)
	}
}

// seedCatalog loads two categories and four products.
func seedCatalog(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	now := time.Now()

	seedCategories(t, pool, []model.Category{
		{ID: "C001", Name: "Footwear", Description: "Shoes and boots"},
		{ID: "C002", Name: "Kitchen"},
	})
	seedProducts(t, pool, []model.Product{
		{ID: "P001", Name: "Canvas Sneaker", Price: decimal.RequireFromString("1499.00"), CategoryID: "C001", Stock: 20, CreatedAt: now},
		{ID: "P002", Name: "Leather Boot", Price: decimal.RequireFromString("3999.50"), CategoryID: "C001", Stock: 5, CreatedAt: now},
		{ID: "P003", Name: "Coffee Mug", Price: decimal.RequireFromString("249.99"), CategoryID: "C002", Stock: 100, CreatedAt: now},
		{ID: "P004", Name: "Bread Knife", Price: decimal.RequireFromString("899.00"), CategoryID: "C002", Stock: 0, CreatedAt: now},
	})
}
