package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"storefront/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const ruleColumns = `
	r.id, r.name, r.description, r.type,
	r.product_id, p.name, r.category_id, c.name,
	r.percentage, r.fixed_amount, r.buy_quantity, r.get_quantity,
	r.min_cart_value, r.min_quantity, r.max_discount, r.max_uses, r.current_uses,
	r.start_date, r.end_date, r.priority, r.active, r.created_at, r.updated_at`

const ruleFrom = `
	FROM discount_rules r
	LEFT JOIN products p ON p.id = r.product_id
	LEFT JOIN categories c ON c.id = r.category_id`

type ruleRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewRuleRepository creates a new PostgreSQL-backed discount rule repository.
func NewRuleRepository(pool *pgxpool.Pool, logger zerolog.Logger) RuleRepository {
	return &ruleRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "discount_rule").Logger(),
	}
}

func (r *ruleRepository) Create(ctx context.Context, rule *model.DiscountRule) error {
	query := `
		INSERT INTO discount_rules (
			id, name, description, type, product_id, category_id,
			percentage, fixed_amount, buy_quantity, get_quantity,
			min_cart_value, min_quantity, max_discount, max_uses, current_uses,
			start_date, end_date, priority, active
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		rule.ID, rule.Name, rule.Description, string(rule.Type),
		nullableRef(rule.Product), nullableRef(rule.Category),
		rule.Percentage, rule.FixedAmount, rule.BuyQuantity, rule.GetQuantity,
		rule.MinCartValue, rule.MinQuantity, rule.MaxDiscount, rule.MaxUses, rule.CurrentUses,
		rule.StartDate, rule.EndDate, rule.Priority, rule.Active,
	).Scan(&rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("rule_id", rule.ID).Msg("failed to create discount rule")
		return fmt.Errorf("failed to create discount rule: %w", err)
	}

	r.logger.Debug().Str("rule_id", rule.ID).Msg("discount rule created")
	return nil
}

func (r *ruleRepository) Update(ctx context.Context, rule *model.DiscountRule) (bool, error) {
	query := `
		UPDATE discount_rules SET
			name = $2, description = $3, type = $4, product_id = $5, category_id = $6,
			percentage = $7, fixed_amount = $8, buy_quantity = $9, get_quantity = $10,
			min_cart_value = $11, min_quantity = $12, max_discount = $13, max_uses = $14,
			start_date = $15, end_date = $16, priority = $17, active = $18,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING current_uses, created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		rule.ID, rule.Name, rule.Description, string(rule.Type),
		nullableRef(rule.Product), nullableRef(rule.Category),
		rule.Percentage, rule.FixedAmount, rule.BuyQuantity, rule.GetQuantity,
		rule.MinCartValue, rule.MinQuantity, rule.MaxDiscount, rule.MaxUses,
		rule.StartDate, rule.EndDate, rule.Priority, rule.Active,
	).Scan(&rule.CurrentUses, &rule.CreatedAt, &rule.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		r.logger.Error().Err(err).Str("rule_id", rule.ID).Msg("failed to update discount rule")
		return false, fmt.Errorf("failed to update discount rule: %w", err)
	}

	return true, nil
}

func (r *ruleRepository) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM discount_rules WHERE id = $1`, id)
	if err != nil {
		r.logger.Error().Err(err).Str("rule_id", id).Msg("failed to delete discount rule")
		return false, fmt.Errorf("failed to delete discount rule: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ruleRepository) GetByID(ctx context.Context, id string) (*model.DiscountRule, error) {
	query := `SELECT ` + ruleColumns + ruleFrom + ` WHERE r.id = $1`

	rule, err := scanRule(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("rule_id", id).Msg("discount rule not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("rule_id", id).Msg("failed to query discount rule")
		return nil, fmt.Errorf("failed to query discount rule: %w", err)
	}

	return &rule, nil
}

func (r *ruleRepository) List(ctx context.Context, filter model.RuleFilter) ([]model.DiscountRule, error) {
	var (
		conditions []string
		args       []interface{}
	)
	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}
	if filter.Type != "" {
		add("r.type = $%d", string(filter.Type))
	}
	if filter.ProductID != "" {
		add("r.product_id = $%d", filter.ProductID)
	}
	if filter.CategoryID != "" {
		add("r.category_id = $%d", filter.CategoryID)
	}
	if filter.ActiveOnly {
		conditions = append(conditions, "r.active")
	}

	query := `SELECT ` + ruleColumns + ruleFrom
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY r.priority DESC, r.created_at, r.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query discount rules")
		return nil, fmt.Errorf("failed to query discount rules: %w", err)
	}
	defer rows.Close()

	rules := []model.DiscountRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan discount rule row")
			return nil, fmt.Errorf("failed to scan discount rule: %w", err)
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating discount rule rows")
		return nil, fmt.Errorf("error iterating discount rules: %w", err)
	}

	return rules, nil
}

func (r *ruleRepository) IncrementUses(ctx context.Context, tx pgx.Tx, id string) (bool, error) {
	query := `
		UPDATE discount_rules
		SET current_uses = current_uses + 1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND (max_uses IS NULL OR current_uses < max_uses)
	`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error().Err(err).Str("rule_id", id).Msg("failed to record discount rule use")
		return false, fmt.Errorf("failed to record discount rule use: %w", err)
	}
	if tag.RowsAffected() == 0 {
		r.logger.Warn().Str("rule_id", id).Msg("discount rule usage budget exhausted")
		return false, nil
	}
	return true, nil
}

func nullableRef(ref *model.RuleRef) *string {
	if ref == nil || ref.ID == "" {
		return nil
	}
	return &ref.ID
}

func scanRule(row pgx.Row) (model.DiscountRule, error) {
	var (
		rule                      model.DiscountRule
		ruleType                  string
		productID, productName    *string
		categoryID, categoryName  *string
		percentage, fixedAmount   decimal.NullDecimal
		minCartValue, maxDiscount decimal.NullDecimal
	)

	err := row.Scan(
		&rule.ID, &rule.Name, &rule.Description, &ruleType,
		&productID, &productName, &categoryID, &categoryName,
		&percentage, &fixedAmount, &rule.BuyQuantity, &rule.GetQuantity,
		&minCartValue, &rule.MinQuantity, &maxDiscount, &rule.MaxUses, &rule.CurrentUses,
		&rule.StartDate, &rule.EndDate, &rule.Priority, &rule.Active, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		return model.DiscountRule{}, err
	}

	rule.Type = model.RuleType(ruleType)
	rule.Product = ruleRef(productID, productName)
	rule.Category = ruleRef(categoryID, categoryName)
	rule.Percentage = decimalPtr(percentage)
	rule.FixedAmount = decimalPtr(fixedAmount)
	rule.MinCartValue = decimalPtr(minCartValue)
	rule.MaxDiscount = decimalPtr(maxDiscount)

	return rule, nil
}

func ruleRef(id, name *string) *model.RuleRef {
	if id == nil {
		return nil
	}
	ref := &model.RuleRef{ID: *id}
	if name != nil {
		ref.Name = *name
	}
	return ref
}

func decimalPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	return &d.Decimal
}
