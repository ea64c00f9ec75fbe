package discount

import (
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	v := dec(s)
	return &v
}

func intPtr(n int) *int {
	return &n
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func line(productID, categoryID, price string, qty int) model.CartLineItem {
	return model.CartLineItem{
		ProductID:   productID,
		ProductName: productID,
		CategoryID:  categoryID,
		UnitPrice:   dec(price),
		Quantity:    qty,
	}
}

func newRule(id string, ruleType model.RuleType, opts ...func(*model.DiscountRule)) model.DiscountRule {
	r := model.DiscountRule{
		ID:     id,
		Name:   id,
		Type:   ruleType,
		Active: true,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

func onProduct(id, name string) func(*model.DiscountRule) {
	return func(r *model.DiscountRule) { r.Product = &model.RuleRef{ID: id, Name: name} }
}

func onCategory(id, name string) func(*model.DiscountRule) {
	return func(r *model.DiscountRule) { r.Category = &model.RuleRef{ID: id, Name: name} }
}

func withPercent(p string) func(*model.DiscountRule) {
	return func(r *model.DiscountRule) { r.Percentage = decPtr(p) }
}

func withFixed(amount string) func(*model.DiscountRule) {
	return func(r *model.DiscountRule) { r.FixedAmount = decPtr(amount) }
}

func withBuyGet(buy, get int) func(*model.DiscountRule) {
	return func(r *model.DiscountRule) {
		r.BuyQuantity = intPtr(buy)
		r.GetQuantity = intPtr(get)
	}
}

func withMinCart(v string) func(*model.DiscountRule) {
	return func(r *model.DiscountRule) { r.MinCartValue = decPtr(v) }
}

func withMinQty(n int) func(*model.DiscountRule) {
	return func(r *model.DiscountRule) { r.MinQuantity = intPtr(n) }
}

func withMaxDiscount(v string) func(*model.DiscountRule) {
	return func(r *model.DiscountRule) { r.MaxDiscount = decPtr(v) }
}

func withPriority(p int) func(*model.DiscountRule) {
	return func(r *model.DiscountRule) { r.Priority = p }
}

func withUses(current, limit int) func(*model.DiscountRule) {
	return func(r *model.DiscountRule) {
		r.CurrentUses = current
		r.MaxUses = intPtr(limit)
	}
}

func withWindow(start, end *time.Time) func(*model.DiscountRule) {
	return func(r *model.DiscountRule) {
		r.StartDate = start
		r.EndDate = end
	}
}

func inactive(r *model.DiscountRule) {
	r.Active = false
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}
