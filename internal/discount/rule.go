package discount

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// Configuration errors returned by Compile. They are always wrapped with the
// offending field, so match them with errors.Is.
var (
	ErrUnknownType      = errors.New("unknown rule type")
	ErrMissingParameter = errors.New("missing rule parameter")
	ErrInvalidParameter = errors.New("invalid rule parameter")
	ErrMissingScope     = errors.New("missing rule scope")
)

var hundred = decimal.NewFromInt(100)

// Benefit is the type-specific half of a Rule. There is exactly one
// implementation per model.RuleType.
type Benefit interface {
	Type() model.RuleType
}

// BuyOneGetOne makes every second unit of a scoped line free.
type BuyOneGetOne struct{}

// TwoForOne charges one unit out of every complete pair.
type TwoForOne struct{}

// CategoryPercent takes Percent off the subtotal of a category.
type CategoryPercent struct {
	Percent decimal.Decimal
}

// ProductPercent takes Percent off the subtotal of a single product.
type ProductPercent struct {
	Percent decimal.Decimal
}

// FixedAmount takes a flat Amount off the whole cart once.
type FixedAmount struct {
	Amount decimal.Decimal
}

// BuyXGetY gives Get free units for every Buy units of a scoped line.
type BuyXGetY struct {
	Buy int
	Get int
}

func (BuyOneGetOne) Type() model.RuleType    { return model.RuleTypeBOGO }
func (TwoForOne) Type() model.RuleType       { return model.RuleTypeTwoForOne }
func (CategoryPercent) Type() model.RuleType { return model.RuleTypePercentCategory }
func (ProductPercent) Type() model.RuleType  { return model.RuleTypePercentProduct }
func (FixedAmount) Type() model.RuleType     { return model.RuleTypeFixedAmount }
func (BuyXGetY) Type() model.RuleType        { return model.RuleTypeBuyXGetY }

// Scope selects the cart lines a rule applies to. A product scope wins over
// a category scope; an empty scope covers the whole cart.
type Scope struct {
	ProductID    string
	ProductName  string
	CategoryID   string
	CategoryName string
}

// IsZero reports whether the scope covers the whole cart.
func (s Scope) IsZero() bool {
	return s.ProductID == "" && s.CategoryID == ""
}

// Matches reports whether a cart line falls inside the scope.
func (s Scope) Matches(item model.CartLineItem) bool {
	switch {
	case s.ProductID != "":
		return item.ProductID == s.ProductID
	case s.CategoryID != "":
		return item.CategoryID == s.CategoryID
	default:
		return true
	}
}

// covers reports whether a product page for productID/categoryID is inside
// the scope. Whole-cart scopes never cover a single item.
func (s Scope) covers(productID, categoryID string) bool {
	if s.ProductID != "" {
		return productID != "" && s.ProductID == productID
	}
	return s.CategoryID != "" && s.CategoryID == categoryID
}

// Subject is the shopper-facing name of the scope, or "" when unnamed.
func (s Scope) Subject() string {
	if s.ProductID != "" {
		return s.ProductName
	}
	return s.CategoryName
}

func (s Scope) filter(lines []model.CartLineItem) []model.CartLineItem {
	var scoped []model.CartLineItem
	for _, line := range lines {
		if s.Matches(line) {
			scoped = append(scoped, line)
		}
	}
	return scoped
}

// Rule is a compiled, well-formed promotion ready for evaluation.
type Rule struct {
	ID          string
	Name        string
	Description string
	Scope       Scope
	Benefit     Benefit

	MinCartValue decimal.Decimal
	MinQuantity  int
	MaxDiscount  decimal.NullDecimal
	MaxUses      int // 0 means unlimited
	CurrentUses  int
	StartsAt     *time.Time
	EndsAt       *time.Time
	Priority     int
	Active       bool
}

// Type returns the rule type of the benefit.
func (r *Rule) Type() model.RuleType {
	return r.Benefit.Type()
}

// Exhausted reports whether the usage budget is spent.
func (r *Rule) Exhausted() bool {
	return r.MaxUses > 0 && r.CurrentUses >= r.MaxUses
}

// InWindow reports whether now lies in [StartsAt, EndsAt]. A missing bound is
// open on that side.
func (r *Rule) InWindow(now time.Time) bool {
	if r.StartsAt != nil && now.Before(*r.StartsAt) {
		return false
	}
	if r.EndsAt != nil && now.After(*r.EndsAt) {
		return false
	}
	return true
}

// EligibleAt reports whether the rule is active, in its window and not
// exhausted at now.
func (r *Rule) EligibleAt(now time.Time) bool {
	return r.Active && r.InWindow(now) && !r.Exhausted()
}

// Compile validates a stored rule record and turns it into a Rule.
// A record that is missing a parameter its type needs does not compile.
func Compile(rec model.DiscountRule) (Rule, error) {
	rule := Rule{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		CurrentUses: rec.CurrentUses,
		StartsAt:    rec.StartDate,
		EndsAt:      rec.EndDate,
		Priority:    rec.Priority,
		Active:      rec.Active,
	}

	if rec.Product != nil && rec.Product.ID != "" {
		rule.Scope.ProductID = rec.Product.ID
		rule.Scope.ProductName = rec.Product.Name
	}
	if rec.Category != nil && rec.Category.ID != "" {
		rule.Scope.CategoryID = rec.Category.ID
		rule.Scope.CategoryName = rec.Category.Name
	}

	benefit, err := compileBenefit(rec, &rule.Scope)
	if err != nil {
		return Rule{}, err
	}
	rule.Benefit = benefit

	if err := compileLimits(rec, &rule); err != nil {
		return Rule{}, err
	}

	return rule, nil
}

func compileBenefit(rec model.DiscountRule, scope *Scope) (Benefit, error) {
	switch rec.Type {
	case model.RuleTypeBOGO:
		if scope.IsZero() {
			return nil, fmt.Errorf("%w: %s needs a product or category", ErrMissingScope, rec.Type)
		}
		return BuyOneGetOne{}, nil

	case model.RuleTypeTwoForOne:
		if scope.IsZero() {
			return nil, fmt.Errorf("%w: %s needs a product or category", ErrMissingScope, rec.Type)
		}
		return TwoForOne{}, nil

	case model.RuleTypePercentCategory:
		if scope.CategoryID == "" {
			return nil, fmt.Errorf("%w: %s needs a category", ErrMissingScope, rec.Type)
		}
		// Category rules ignore any product reference.
		scope.ProductID, scope.ProductName = "", ""
		pct, err := percentage(rec)
		if err != nil {
			return nil, err
		}
		return CategoryPercent{Percent: pct}, nil

	case model.RuleTypePercentProduct:
		if scope.ProductID == "" {
			return nil, fmt.Errorf("%w: %s needs a product", ErrMissingScope, rec.Type)
		}
		pct, err := percentage(rec)
		if err != nil {
			return nil, err
		}
		return ProductPercent{Percent: pct}, nil

	case model.RuleTypeFixedAmount:
		if rec.FixedAmount == nil {
			return nil, fmt.Errorf("%w: fixedAmount", ErrMissingParameter)
		}
		if !rec.FixedAmount.IsPositive() {
			return nil, fmt.Errorf("%w: fixedAmount must be greater than zero", ErrInvalidParameter)
		}
		return FixedAmount{Amount: *rec.FixedAmount}, nil

	case model.RuleTypeBuyXGetY:
		if scope.IsZero() {
			return nil, fmt.Errorf("%w: %s needs a product or category", ErrMissingScope, rec.Type)
		}
		if rec.BuyQuantity == nil {
			return nil, fmt.Errorf("%w: buyQuantity", ErrMissingParameter)
		}
		if rec.GetQuantity == nil {
			return nil, fmt.Errorf("%w: getQuantity", ErrMissingParameter)
		}
		if *rec.BuyQuantity <= 0 || *rec.GetQuantity <= 0 {
			return nil, fmt.Errorf("%w: buyQuantity and getQuantity must be positive", ErrInvalidParameter)
		}
		return BuyXGetY{Buy: *rec.BuyQuantity, Get: *rec.GetQuantity}, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, rec.Type)
	}
}

func percentage(rec model.DiscountRule) (decimal.Decimal, error) {
	if rec.Percentage == nil {
		return decimal.Zero, fmt.Errorf("%w: percentage", ErrMissingParameter)
	}
	pct := *rec.Percentage
	if !pct.IsPositive() || pct.GreaterThan(hundred) {
		return decimal.Zero, fmt.Errorf("%w: percentage must be in (0, 100], got %s", ErrInvalidParameter, pct)
	}
	return pct, nil
}

func compileLimits(rec model.DiscountRule, rule *Rule) error {
	if rec.MinCartValue != nil {
		if rec.MinCartValue.IsNegative() {
			return fmt.Errorf("%w: minCartValue must not be negative", ErrInvalidParameter)
		}
		rule.MinCartValue = *rec.MinCartValue
	}
	if rec.MinQuantity != nil {
		if *rec.MinQuantity < 0 {
			return fmt.Errorf("%w: minQuantity must not be negative", ErrInvalidParameter)
		}
		rule.MinQuantity = *rec.MinQuantity
	}
	if rec.MaxDiscount != nil {
		if !rec.MaxDiscount.IsPositive() {
			return fmt.Errorf("%w: maxDiscount must be greater than zero", ErrInvalidParameter)
		}
		rule.MaxDiscount = decimal.NewNullDecimal(*rec.MaxDiscount)
	}
	if rec.MaxUses != nil {
		if *rec.MaxUses <= 0 {
			return fmt.Errorf("%w: maxUses must be greater than zero", ErrInvalidParameter)
		}
		rule.MaxUses = *rec.MaxUses
	}
	if rec.CurrentUses < 0 {
		return fmt.Errorf("%w: currentUses must not be negative", ErrInvalidParameter)
	}
	if rec.StartDate != nil && rec.EndDate != nil && rec.EndDate.Before(*rec.StartDate) {
		return fmt.Errorf("%w: endDate is before startDate", ErrInvalidParameter)
	}
	return nil
}
