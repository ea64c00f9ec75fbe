package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"storefront/internal/config"
	"storefront/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// seed_catalog connects with the server's DB_* settings, applies the schema
// and upserts a small demo catalogue.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := config.NewLogger(cfg.Logger)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := database.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	var dbName string
	if err := pool.QueryRow(ctx, "SELECT current_database()").Scan(&dbName); err != nil {
		return fmt.Errorf("QueryRow failed: %w", err)
	}
	fmt.Printf("Successfully connected to database: %s\n", dbName)

	if err := database.Migrate(ctx, pool, logger); err != nil {
		return err
	}

	categories := [][2]string{
		{"C001", "Footwear"},
		{"C002", "Kitchen"},
		{"C003", "Accessories"},
	}
	products := []struct {
		id, name, price, category string
		stock                     int
	}{
		{"P001", "Canvas Sneaker", "1499.00", "C001", 50},
		{"P002", "Leather Boot", "3999.50", "C001", 20},
		{"P003", "Coffee Mug", "249.99", "C002", 200},
		{"P004", "Bread Knife", "899.00", "C002", 35},
		{"P005", "Cotton Socks", "199.00", "C003", 500},
	}

	batch := &pgx.Batch{}
	for _, c := range categories {
		batch.Queue(`
			INSERT INTO categories (id, name) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`,
			c[0], c[1])
	}
	for _, p := range products {
		batch.Queue(`
			INSERT INTO products (id, name, price, category_id, stock) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, price = EXCLUDED.price,
				category_id = EXCLUDED.category_id, stock = EXCLUDED.stock`,
			p.id, p.name, decimal.RequireFromString(p.price), p.category, p.stock)
	}

	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to seed catalogue: %w", err)
	}

	fmt.Printf("Seeded %d categories and %d products\n", len(categories), len(products))
	return nil
}
