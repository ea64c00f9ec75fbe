package service

import (
	"context"

	"storefront/internal/discount"
	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductService defines operations for product management.
type ProductService interface {
	// GetAll retrieves all products with pagination.
	GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by ID.
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// Create adds a product to an existing category.
	Create(ctx context.Context, req *model.ProductRequest) (*model.Product, error)

	// Update replaces the product with the given ID.
	Update(ctx context.Context, id string, req *model.ProductRequest) (*model.Product, error)

	// Delete removes a product and the promotions scoped to it. Products
	// that appear on orders cannot be deleted.
	Delete(ctx context.Context, id string) error
}

// CategoryService manages product categories.
type CategoryService interface {
	GetAll(ctx context.Context) ([]model.Category, error)
	GetByID(ctx context.Context, id string) (*model.Category, error)
	Create(ctx context.Context, req *model.CategoryRequest) (*model.Category, error)
	Update(ctx context.Context, id string, req *model.CategoryRequest) (*model.Category, error)

	// Delete removes an empty category and the promotions scoped to it.
	Delete(ctx context.Context, id string) error
}

// DiscountService evaluates promotions for carts and products. None of its
// operations fail: when rules cannot be loaded the result carries a warning
// instead.
type DiscountService interface {
	// Calculate prices a cart snapshot. Lines for the same product are
	// merged first.
	Calculate(ctx context.Context, items []model.CartLineItem) discount.Calculation

	// Available lists the promotions relevant to a cart. A nil cartTotal is
	// derived from the items.
	Available(ctx context.Context, items []model.CartLineItem, cartTotal *decimal.Decimal) ([]discount.Offer, string)

	// ItemOffers lists the promotions that target one product. An empty
	// categoryID is looked up from the catalogue.
	ItemOffers(ctx context.Context, productID, categoryID string, quantity int) ([]discount.Offer, string)
}

// RuleService manages the stored discount rules.
type RuleService interface {
	Create(ctx context.Context, req *model.RuleRequest) (*model.DiscountRule, error)
	Update(ctx context.Context, id string, req *model.RuleRequest) (*model.DiscountRule, error)
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*model.DiscountRule, error)
	List(ctx context.Context, filter model.RuleFilter) ([]model.DiscountRule, error)

	// Suggestions describes every rule type an administrator can create.
	Suggestions() map[model.RuleType]string
}

// OrderService defines operations for order management.
type OrderService interface {
	// CreateOrder prices the requested items with the current promotions and
	// persists the order.
	CreateOrder(ctx context.Context, req *model.OrderRequest) (*model.OrderResponse, error)

	// GetByID retrieves an order by its ID with all items and product details.
	GetByID(ctx context.Context, id uuid.UUID) (*model.OrderResponse, error)
}

// UsageRecorder counts a redemption against a rule's usage budget.
type UsageRecorder interface {
	IncrementUses(ctx context.Context, tx pgx.Tx, id string) (bool, error)
}

// Invalidator drops cached rule data.
type Invalidator interface {
	Invalidate()
}

// RulesUnavailable is the warning attached to results computed without
// promotion data.
const RulesUnavailable = "Discounts are temporarily unavailable. Prices are shown without promotions."
