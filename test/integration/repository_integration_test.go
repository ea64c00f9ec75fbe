package integration

import (
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"storefront/internal/discount"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/rules"
	"storefront/internal/service"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleBudget_ConcurrentOrders(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	SeedCatalog(t, testDB.Pool)

	ctx := context.Background()
	logger := zerolog.Nop()

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	ruleRepo := repository.NewRuleRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)

	amount := decimal.NewFromInt(100)
	minCart := decimal.NewFromInt(1000)
	maxUses := 2
	require.NoError(t, ruleRepo.Create(ctx, &model.DiscountRule{
		ID:           "flat-100",
		Name:         "100 off over 1000",
		Type:         model.RuleTypeFixedAmount,
		FixedAmount:  &amount,
		MinCartValue: &minCart,
		MaxUses:      &maxUses,
		Active:       true,
	}))

	cached := rules.NewCachedSource(rules.NewRepositorySource(ruleRepo), time.Minute, logger)
	orders := service.NewOrderService(service.OrderDeps{
		Orders:   orderRepo,
		Products: productRepo,
		Rules:    cached,
		Engine:   discount.NewEngine(logger),
		Usage:    ruleRepo,
		Cache:    cached,
	}, logger)

	const shoppers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		redeemed  int
		exhausted int
		placed    int
	)
	for range shoppers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := orders.CreateOrder(ctx, &model.OrderRequest{
				Items: []model.OrderItemRequest{{ProductID: "P002", Quantity: 1}},
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, model.ErrDiscountExhausted):
				exhausted++
			case err != nil:
				t.Errorf("unexpected error: %v", err)
			default:
				placed++
				if len(resp.Discounts) == 1 {
					redeemed++
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, shoppers, placed+exhausted)
	assert.Equal(t, maxUses, redeemed)

	rule, err := ruleRepo.GetByID(ctx, "flat-100")
	require.NoError(t, err)
	assert.Equal(t, maxUses, rule.CurrentUses)

	var stored int
	require.NoError(t, testDB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM order_discounts WHERE rule_id = $1", "flat-100").Scan(&stored))
	assert.Equal(t, maxUses, stored)

	var orderCount int
	require.NoError(t, testDB.Pool.QueryRow(ctx, "SELECT COUNT(*) FROM orders").Scan(&orderCount))
	assert.Equal(t, placed, orderCount, "exhausted checkouts leave no order behind")
}

func TestFileRuleSource_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	SeedCatalog(t, testDB.Pool)

	ctx := context.Background()
	logger := zerolog.Nop()
	dir := t.TempDir()

	pct := decimal.NewFromInt(20)
	writeJSON(t, filepath.Join(dir, "standing.json"), []model.DiscountRule{
		{
			ID:       "sock-bogo",
			Name:     "Sock BOGO",
			Type:     model.RuleTypeBOGO,
			Product:  &model.RuleRef{ID: "P005", Name: "Cotton Socks"},
			Priority: 3,
			Active:   true,
		},
		{
			ID:     "broken",
			Name:   "Missing percentage",
			Type:   model.RuleTypePercentProduct,
			Active: true,
		},
	})
	writeGzipLines(t, filepath.Join(dir, "seasonal.jsonl.gz"), []model.DiscountRule{
		{
			ID:         "footwear-20",
			Name:       "Footwear 20% off",
			Type:       model.RuleTypePercentCategory,
			Category:   &model.RuleRef{ID: "C001", Name: "Footwear"},
			Percentage: &pct,
			Priority:   9,
			Active:     true,
		},
	})

	loader := rules.NewFallbackLoader(nil, rules.NewFileLoader(logger), "", false, logger)
	source := rules.NewFileSource(loader, []string{
		filepath.Join(dir, "standing.json"),
		filepath.Join(dir, "seasonal.jsonl.gz"),
	}, logger)

	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	discounts := service.NewDiscountService(rules.NewCachedSource(source, time.Minute, logger),
		discount.NewEngine(logger), productRepo, nil, logger)

	t.Run("calculate skips malformed rules", func(t *testing.T) {
		calc := discounts.Calculate(ctx, []model.CartLineItem{
			{ProductID: "P002", CategoryID: "C001", UnitPrice: decimal.RequireFromString("3999.50"), Quantity: 1},
			{ProductID: "P005", CategoryID: "C003", UnitPrice: decimal.RequireFromString("199"), Quantity: 2},
		})

		assert.True(t, decimal.RequireFromString("4397.50").Equal(calc.OriginalTotal))
		assert.True(t, decimal.RequireFromString("998.90").Equal(calc.TotalDiscount), calc.TotalDiscount.String())
		require.Len(t, calc.AppliedDiscounts, 2)
		assert.Equal(t, "footwear-20", calc.AppliedDiscounts[0].RuleID)
		require.Len(t, calc.SkippedRules, 1)
		assert.Equal(t, "broken", calc.SkippedRules[0].RuleID)
	})

	t.Run("item offers resolve the category from the catalogue", func(t *testing.T) {
		offers, warning := discounts.ItemOffers(ctx, "P001", "", 1)
		assert.Empty(t, warning)
		require.Len(t, offers, 1)
		assert.Equal(t, "footwear-20", offers[0].RuleID)
	})

	t.Run("missing file degrades to passthrough", func(t *testing.T) {
		broken := service.NewDiscountService(
			rules.NewFileSource(loader, []string{filepath.Join(dir, "absent.json")}, logger),
			discount.NewEngine(logger), productRepo, nil, logger)

		calc := broken.Calculate(ctx, []model.CartLineItem{
			{ProductID: "P001", CategoryID: "C001", UnitPrice: decimal.RequireFromString("1499"), Quantity: 2},
		})
		assert.Equal(t, service.RulesUnavailable, calc.Warning)
		assert.True(t, calc.OriginalTotal.Equal(calc.FinalTotal))
	})
}

func writeJSON(t *testing.T, path string, rules []model.DiscountRule) {
	t.Helper()
	data, err := json.Marshal(rules)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

func writeGzipLines(t *testing.T, path string, rules []model.DiscountRule) {
	t.Helper()
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()

	gz := gzip.NewWriter(file)
	enc := json.NewEncoder(gz)
	for _, rule := range rules {
		require.NoError(t, enc.Encode(rule))
	}
	require.NoError(t, gz.Close())
}
