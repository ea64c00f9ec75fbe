package discount

import (
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// evaluate returns the raw discount of r over its scoped lines. The second
// result is false when a minimum cart value or quantity is not met.
func (r *Rule) evaluate(scoped []model.CartLineItem, total decimal.Decimal) (decimal.Decimal, bool) {
	if r.MinCartValue.IsPositive() && total.LessThan(r.MinCartValue) {
		return decimal.Zero, false
	}
	if r.MinQuantity > 0 && totalQuantity(scoped) < r.MinQuantity {
		return decimal.Zero, false
	}

	switch b := r.Benefit.(type) {
	case BuyOneGetOne, TwoForOne:
		return freeUnits(scoped, func(qty int) int { return qty / 2 }), true
	case CategoryPercent:
		return percentOf(cartTotal(scoped), b.Percent), true
	case ProductPercent:
		return percentOf(cartTotal(scoped), b.Percent), true
	case FixedAmount:
		return b.Amount, true
	case BuyXGetY:
		return freeUnits(scoped, func(qty int) int { return qty / b.Buy * b.Get }), true
	default:
		return decimal.Zero, false
	}
}

// clamp applies the rule's maxDiscount, if any.
func (r *Rule) clamp(amount decimal.Decimal) decimal.Decimal {
	if r.MaxDiscount.Valid && amount.GreaterThan(r.MaxDiscount.Decimal) {
		return r.MaxDiscount.Decimal
	}
	return amount
}

// freeUnits prices the free units of every line. A line never gives away
// more units than it holds.
func freeUnits(lines []model.CartLineItem, free func(qty int) int) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		units := min(free(line.Quantity), line.Quantity)
		if units <= 0 {
			continue
		}
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(units))))
	}
	return total
}

func percentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return amount.Mul(pct).Div(hundred)
}
