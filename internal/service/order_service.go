package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/discount"
	"storefront/internal/metrics"
	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/rules"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type orderService struct {
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	source      rules.Source
	engine      *discount.Engine
	usage       UsageRecorder
	cache       Invalidator
	metrics     *metrics.Metrics
	now         func() time.Time
	logger      zerolog.Logger
}

// OrderDeps groups the collaborators of the order service. Usage, Cache and
// Metrics are optional: without Usage, rule budgets are not tracked.
type OrderDeps struct {
	Orders   repository.OrderRepository
	Products repository.ProductRepository
	Rules    rules.Source
	Engine   *discount.Engine
	Usage    UsageRecorder
	Cache    Invalidator
	Metrics  *metrics.Metrics
}

// NewOrderService creates a new order service.
func NewOrderService(deps OrderDeps, logger zerolog.Logger) OrderService {
	return &orderService{
		orderRepo:   deps.Orders,
		productRepo: deps.Products,
		source:      deps.Rules,
		engine:      deps.Engine,
		usage:       deps.Usage,
		cache:       deps.Cache,
		metrics:     deps.Metrics,
		now:         time.Now,
		logger:      logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder prices the requested items from catalogue data, applies the
// eligible promotions and stores the order together with the redeemed
// discounts in one transaction.
func (s *orderService) CreateOrder(ctx context.Context, req *model.OrderRequest) (resp *model.OrderResponse, err error) {
	if err = s.validateOrderRequest(req); err != nil {
		return nil, err
	}
	defer func() {
		switch {
		case err == nil:
			s.metrics.ObserveOrder(metrics.OrderCreated)
		case errors.Is(err, model.ErrDiscountExhausted):
			s.metrics.ObserveOrder(metrics.OrderExhausted)
		default:
			s.metrics.ObserveOrder(metrics.OrderFailed)
		}
	}()

	quantities, productIDs := mergeQuantities(req.Items)

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load order products")
		return nil, fmt.Errorf("failed to load products: %w", err)
	}
	if len(products) != len(productIDs) {
		s.logger.Warn().
			Int("requested", len(productIDs)).
			Int("found", len(products)).
			Msg("order references unknown products")
		return nil, model.ErrProductNotFound
	}

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	lines := make([]model.CartLineItem, len(productIDs))
	for i, id := range productIDs {
		p := byID[id]
		lines[i] = model.CartLineItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			CategoryID:  p.CategoryID,
			UnitPrice:   p.Price,
			Quantity:    quantities[id],
		}
	}

	calc := s.price(ctx, lines)

	now := s.now()
	order := &model.Order{
		ID:            uuid.New(),
		Subtotal:      calc.OriginalTotal,
		DiscountTotal: calc.TotalDiscount,
		Total:         calc.FinalTotal,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	orderItems := make([]model.OrderItem, len(lines))
	for i, line := range lines {
		orderItems[i] = model.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		}
	}

	discounts := make([]model.OrderDiscount, len(calc.AppliedDiscounts))
	for i, applied := range calc.AppliedDiscounts {
		discounts[i] = model.OrderDiscount{
			OrderID: order.ID,
			RuleID:  applied.RuleID,
			Name:    applied.Name,
			Amount:  applied.Amount,
		}
	}

	if err = s.persist(ctx, order, orderItems, discounts); err != nil {
		return nil, err
	}
	if len(discounts) > 0 && s.usage != nil && s.cache != nil {
		s.cache.Invalidate()
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Int("item_count", len(orderItems)).
		Int("discounts", len(discounts)).
		Str("total", order.Total.String()).
		Msg("order created successfully")

	return &model.OrderResponse{
		ID:            order.ID,
		Subtotal:      order.Subtotal,
		DiscountTotal: order.DiscountTotal,
		Total:         order.Total,
		Items:         orderItems,
		Products:      products,
		Discounts:     discounts,
		Warning:       calc.Warning,
	}, nil
}

// price applies the current rules, falling back to full price when they
// cannot be read.
func (s *orderService) price(ctx context.Context, lines []model.CartLineItem) discount.Calculation {
	records, err := s.source.Rules(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("discount rules unavailable, order placed at full price")
		return discount.Passthrough(lines, RulesUnavailable)
	}
	return s.engine.CalculateDiscounts(lines, records, s.now())
}

func (s *orderService) persist(ctx context.Context, order *model.Order, items []model.OrderItem, discounts []model.OrderDiscount) (err error) {
	tx, err := s.orderRepo.BeginTx(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to begin transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}

	// Ensure transaction is rolled back on error
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil {
				s.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
			}
		}
	}()

	if err = s.orderRepo.CreateOrder(ctx, tx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	if err = s.orderRepo.CreateOrderItems(ctx, tx, items); err != nil {
		return fmt.Errorf("failed to create order items: %w", err)
	}
	if err = s.orderRepo.CreateOrderDiscounts(ctx, tx, discounts); err != nil {
		return fmt.Errorf("failed to record order discounts: %w", err)
	}

	if s.usage != nil {
		for _, d := range discounts {
			ok, useErr := s.usage.IncrementUses(ctx, tx, d.RuleID)
			if useErr != nil {
				err = fmt.Errorf("failed to record discount use: %w", useErr)
				return err
			}
			if !ok {
				s.logger.Warn().
					Str("order_id", order.ID.String()).
					Str("rule_id", d.RuleID).
					Msg("discount exhausted while placing order")
				err = model.ErrDiscountExhausted
				return err
			}
		}
	}

	if err = tx.Commit(ctx); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to commit transaction")
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

// GetByID retrieves an order by its ID with all items, products and
// discounts. A missing order is reported as (nil, nil).
func (s *orderService) GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error) {
	order, items, discounts, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to get order")
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	if order == nil {
		s.logger.Debug().Str("order_id", id.String()).Msg("order not found")
		return nil, nil
	}

	productIDs := make([]string, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}

	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to retrieve product details")
		return nil, fmt.Errorf("failed to retrieve product details: %w", err)
	}

	return &model.OrderResponse{
		ID:            order.ID,
		Subtotal:      order.Subtotal,
		DiscountTotal: order.DiscountTotal,
		Total:         order.Total,
		Items:         items,
		Products:      products,
		Discounts:     discounts,
	}, nil
}

// validateOrderRequest validates the order request.
func (s *orderService) validateOrderRequest(req *model.OrderRequest) error {
	if req == nil || len(req.Items) == 0 {
		return model.NewDomainError(model.ErrCodeMissingField, "order must contain at least one item")
	}

	for i, item := range req.Items {
		if item.ProductID == "" {
			return model.NewDomainError(model.ErrCodeMissingField, fmt.Sprintf("item %d: productId is required", i))
		}

		if item.Quantity <= 0 {
			s.logger.Warn().
				Int("item_index", i).
				Str("product_id", item.ProductID).
				Int("quantity", item.Quantity).
				Msg("invalid quantity")
			return model.ErrInvalidQuantity
		}
	}

	return nil
}

// mergeQuantities sums quantities per product, keeping first-seen order.
func mergeQuantities(items []model.OrderItemRequest) (map[string]int, []string) {
	quantities := make(map[string]int, len(items))
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if _, seen := quantities[item.ProductID]; !seen {
			ids = append(ids, item.ProductID)
		}
		quantities[item.ProductID] += item.Quantity
	}
	return quantities, ids
}
