package service

import (
	"context"
	"time"

	"storefront/internal/discount"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/rules"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

type discountService struct {
	source      rules.Source
	engine      *discount.Engine
	productRepo repository.ProductRepository
	metrics     *metrics.Metrics
	now         func() time.Time
	logger      zerolog.Logger
}

// NewDiscountService creates a discount service reading rules from source.
// m may be nil.
func NewDiscountService(
	source rules.Source,
	engine *discount.Engine,
	productRepo repository.ProductRepository,
	m *metrics.Metrics,
	logger zerolog.Logger,
) DiscountService {
	return &discountService{
		source:      source,
		engine:      engine,
		productRepo: productRepo,
		metrics:     m,
		now:         time.Now,
		logger:      logger.With().Str("service", "discount").Logger(),
	}
}

func (s *discountService) Calculate(ctx context.Context, items []model.CartLineItem) discount.Calculation {
	items = discount.MergeLines(items)

	records, err := s.source.Rules(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Int("items", len(items)).Msg("discount rules unavailable, pricing cart without promotions")
		calc := discount.Passthrough(items, RulesUnavailable)
		s.metrics.ObserveCalculation(metrics.OutcomePassthrough, decimal.Zero, 0, len(calc.RejectedItems))
		return calc
	}

	calc := s.engine.CalculateDiscounts(items, records, s.now())

	outcome := metrics.OutcomeNoDiscount
	if calc.TotalDiscount.IsPositive() {
		outcome = metrics.OutcomeDiscounted
	}
	s.metrics.ObserveCalculation(outcome, calc.TotalDiscount, len(calc.SkippedRules), len(calc.RejectedItems))

	s.logger.Debug().
		Int("items", len(items)).
		Int("applied", len(calc.AppliedDiscounts)).
		Str("total_discount", calc.TotalDiscount.String()).
		Msg("cart priced")

	return calc
}

func (s *discountService) Available(ctx context.Context, items []model.CartLineItem, cartTotal *decimal.Decimal) ([]discount.Offer, string) {
	records, err := s.source.Rules(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("discount rules unavailable, no offers listed")
		return []discount.Offer{}, RulesUnavailable
	}

	items = discount.MergeLines(items)
	total := discount.Passthrough(items, "").OriginalTotal
	if cartTotal != nil {
		total = *cartTotal
	}

	return s.engine.CheckAvailableDiscounts(items, records, total, s.now()), ""
}

func (s *discountService) ItemOffers(ctx context.Context, productID, categoryID string, quantity int) ([]discount.Offer, string) {
	if categoryID == "" && productID != "" {
		categoryID = s.lookupCategory(ctx, productID)
	}

	records, err := s.source.Rules(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("product_id", productID).Msg("discount rules unavailable, no item offers listed")
		return []discount.Offer{}, RulesUnavailable
	}

	return s.engine.CheckItemDiscounts(productID, categoryID, quantity, records, s.now()), ""
}

// lookupCategory resolves a product's category. Failures only narrow the
// offers to product-scoped rules.
func (s *discountService) lookupCategory(ctx context.Context, productID string) string {
	if s.productRepo == nil {
		return ""
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		s.logger.Warn().Err(err).Str("product_id", productID).Msg("failed to resolve product category")
		return ""
	}
	if product == nil {
		return ""
	}
	return product.CategoryID
}
