package repository

import (
	"context"
	"errors"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes translated by classify.
const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var (
	// ErrDuplicateKey reports an insert whose primary key is already taken.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrReferenced reports a write rejected by a foreign key: either the
	// row points at something missing or other rows still point at it.
	ErrReferenced = errors.New("foreign key violation")
)

// classify maps constraint violations onto the package sentinels and
// returns any other error unchanged.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case uniqueViolation:
		return ErrDuplicateKey
	case foreignKeyViolation:
		return ErrReferenced
	default:
		return err
	}
}

// ProductRepository defines the interface for product data access operations.
type ProductRepository interface {
	// GetAll retrieves all products with pagination support.
	GetAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)

	// GetByID retrieves a single product by its ID. A missing product is
	// reported as (nil, nil).
	GetByID(ctx context.Context, id string) (*model.Product, error)

	// GetByIDs retrieves multiple products by their IDs.
	GetByIDs(ctx context.Context, ids []string) ([]model.Product, error)

	// ValidateProductsExist returns model.ErrProductNotFound unless every ID exists.
	ValidateProductsExist(ctx context.Context, ids []string) error

	// Create inserts product and fills in CreatedAt. Constraint failures
	// wrap ErrDuplicateKey or ErrReferenced.
	Create(ctx context.Context, product *model.Product) error

	// Update replaces the editable columns of product. It returns false
	// when no product with that ID exists.
	Update(ctx context.Context, product *model.Product) (bool, error)

	// Delete removes a product together with the rules scoped to it. It
	// returns false when the product did not exist and wraps ErrReferenced
	// when orders still point at it.
	Delete(ctx context.Context, id string) (bool, error)
}

// CategoryRepository defines access to product categories.
type CategoryRepository interface {
	GetAll(ctx context.Context) ([]model.Category, error)

	// GetByID returns (nil, nil) when the category does not exist.
	GetByID(ctx context.Context, id string) (*model.Category, error)

	Create(ctx context.Context, category *model.Category) error
	Update(ctx context.Context, category *model.Category) (bool, error)

	// Delete removes a category together with the rules scoped to it. It
	// wraps ErrReferenced while products still belong to the category.
	Delete(ctx context.Context, id string) (bool, error)
}

// RuleRepository defines persistence for discount rules.
type RuleRepository interface {
	// Create inserts rule. CreatedAt and UpdatedAt are set by the database.
	Create(ctx context.Context, rule *model.DiscountRule) error

	// Update replaces every editable column of rule. It returns false when
	// no rule with that ID exists.
	Update(ctx context.Context, rule *model.DiscountRule) (bool, error)

	// Delete removes a rule and returns false when it did not exist.
	Delete(ctx context.Context, id string) (bool, error)

	// GetByID returns (nil, nil) when the rule does not exist.
	GetByID(ctx context.Context, id string) (*model.DiscountRule, error)

	// List returns the rules matching filter, highest priority first.
	List(ctx context.Context, filter model.RuleFilter) ([]model.DiscountRule, error)

	// IncrementUses records one redemption of a rule inside tx. It returns
	// false when the rule's usage budget is already spent.
	IncrementUses(ctx context.Context, tx pgx.Tx, id string) (bool, error)
}

// OrderRepository defines the interface for order data access operations.
type OrderRepository interface {
	// BeginTx starts a new database transaction.
	BeginTx(ctx context.Context) (pgx.Tx, error)

	// CreateOrder inserts a new order within the provided transaction.
	CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error

	// CreateOrderItems inserts multiple order items within the provided transaction.
	CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error

	// CreateOrderDiscounts records the promotions redeemed by an order.
	CreateOrderDiscounts(ctx context.Context, tx pgx.Tx, discounts []model.OrderDiscount) error

	// GetByID retrieves an order with its items and discounts. A missing
	// order is reported as nil values and a nil error.
	GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, []model.OrderDiscount, error)
}
