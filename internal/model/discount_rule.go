package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RuleType is the closed set of promotion kinds.
type RuleType string

const (
	RuleTypeBOGO            RuleType = "BOGO"
	RuleTypeTwoForOne       RuleType = "TWO_FOR_ONE"
	RuleTypePercentCategory RuleType = "PERCENT_CATEGORY"
	RuleTypePercentProduct  RuleType = "PERCENT_PRODUCT"
	RuleTypeFixedAmount     RuleType = "FIXED_AMOUNT"
	RuleTypeBuyXGetY        RuleType = "BUY_X_GET_Y"
)

// RuleTypes lists every supported rule type in display order.
func RuleTypes() []RuleType {
	return []RuleType{
		RuleTypeBOGO,
		RuleTypeTwoForOne,
		RuleTypePercentCategory,
		RuleTypePercentProduct,
		RuleTypeFixedAmount,
		RuleTypeBuyXGetY,
	}
}

// Valid reports whether t is one of the supported rule types.
func (t RuleType) Valid() bool {
	for _, known := range RuleTypes() {
		if t == known {
			return true
		}
	}
	return false
}

// RuleRef points at the product or category a rule is scoped to.
type RuleRef struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// DiscountRule is the stored, admin-managed promotion record.
// Optional numeric parameters are pointers so that "unset" and "zero" differ.
type DiscountRule struct {
	ID           string           `json:"id" db:"id"`
	Name         string           `json:"name" db:"name"`
	Description  string           `json:"description,omitempty" db:"description"`
	Type         RuleType         `json:"type" db:"type"`
	Product      *RuleRef         `json:"product,omitempty"`
	Category     *RuleRef         `json:"category,omitempty"`
	Percentage   *decimal.Decimal `json:"percentage,omitempty" db:"percentage"`
	FixedAmount  *decimal.Decimal `json:"fixedAmount,omitempty" db:"fixed_amount"`
	BuyQuantity  *int             `json:"buyQuantity,omitempty" db:"buy_quantity"`
	GetQuantity  *int             `json:"getQuantity,omitempty" db:"get_quantity"`
	MinCartValue *decimal.Decimal `json:"minCartValue,omitempty" db:"min_cart_value"`
	MinQuantity  *int             `json:"minQuantity,omitempty" db:"min_quantity"`
	MaxDiscount  *decimal.Decimal `json:"maxDiscount,omitempty" db:"max_discount"`
	MaxUses      *int             `json:"maxUses,omitempty" db:"max_uses"`
	CurrentUses  int              `json:"currentUses" db:"current_uses"`
	StartDate    *time.Time       `json:"startDate,omitempty" db:"start_date"`
	EndDate      *time.Time       `json:"endDate,omitempty" db:"end_date"`
	Priority     int              `json:"priority" db:"priority"`
	Active       bool             `json:"active" db:"active"`
	CreatedAt    time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time        `json:"updatedAt" db:"updated_at"`
}

// ProductID returns the scoped product id or "".
func (r *DiscountRule) ProductID() string {
	if r.Product == nil {
		return ""
	}
	return r.Product.ID
}

// CategoryID returns the scoped category id or "".
func (r *DiscountRule) CategoryID() string {
	if r.Category == nil {
		return ""
	}
	return r.Category.ID
}

// RuleFilter narrows rule listings.
type RuleFilter struct {
	Type       RuleType
	ProductID  string
	CategoryID string
	ActiveOnly bool
}

// RuleRequest is the admin payload for creating or replacing a rule.
type RuleRequest struct {
	Name         string           `json:"name" validate:"required,max=255"`
	Description  string           `json:"description,omitempty" validate:"max=1000"`
	Type         RuleType         `json:"type" validate:"required,oneof=BOGO TWO_FOR_ONE PERCENT_CATEGORY PERCENT_PRODUCT FIXED_AMOUNT BUY_X_GET_Y"`
	ProductID    string           `json:"product,omitempty" validate:"max=50"`
	CategoryID   string           `json:"category,omitempty" validate:"max=50"`
	Percentage   *decimal.Decimal `json:"percentage,omitempty"`
	FixedAmount  *decimal.Decimal `json:"fixedAmount,omitempty"`
	BuyQuantity  *int             `json:"buyQuantity,omitempty" validate:"omitempty,gt=0"`
	GetQuantity  *int             `json:"getQuantity,omitempty" validate:"omitempty,gt=0"`
	MinCartValue *decimal.Decimal `json:"minCartValue,omitempty"`
	MinQuantity  *int             `json:"minQuantity,omitempty" validate:"omitempty,gt=0"`
	MaxDiscount  *decimal.Decimal `json:"maxDiscount,omitempty"`
	MaxUses      *int             `json:"maxUses,omitempty" validate:"omitempty,gt=0"`
	StartDate    *time.Time       `json:"startDate,omitempty"`
	EndDate      *time.Time       `json:"endDate,omitempty"`
	Priority     int              `json:"priority"`
	Active       *bool            `json:"active,omitempty"`
}
