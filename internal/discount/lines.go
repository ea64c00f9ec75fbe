package discount

import (
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

const (
	reasonMissingProduct = "missing product id"
	reasonBadQuantity    = "quantity must be positive"
	reasonNegativePrice  = "unit price must not be negative"
)

// acceptLines splits a cart snapshot into usable lines and rejected ones.
// Order of the usable lines is preserved.
func acceptLines(items []model.CartLineItem) ([]model.CartLineItem, []RejectedItem) {
	lines := make([]model.CartLineItem, 0, len(items))
	var rejected []RejectedItem
	for _, item := range items {
		if reason := rejectReason(item); reason != "" {
			rejected = append(rejected, RejectedItem{ProductID: item.ProductID, Reason: reason})
			continue
		}
		lines = append(lines, item)
	}
	return lines, rejected
}

func rejectReason(item model.CartLineItem) string {
	switch {
	case item.ProductID == "":
		return reasonMissingProduct
	case item.Quantity <= 0:
		return reasonBadQuantity
	case item.UnitPrice.IsNegative():
		return reasonNegativePrice
	}
	return ""
}

// MergeLines folds valid lines that share a product and unit price into one,
// summing quantities. The first occurrence keeps its position and names.
// Invalid lines are passed through untouched so they are still rejected on
// their own, and lines priced differently stay separate.
func MergeLines(items []model.CartLineItem) []model.CartLineItem {
	type key struct {
		productID string
		price     string
	}
	merged := make([]model.CartLineItem, 0, len(items))
	index := make(map[key]int, len(items))
	for _, item := range items {
		if rejectReason(item) != "" {
			merged = append(merged, item)
			continue
		}
		k := key{productID: item.ProductID, price: item.UnitPrice.String()}
		if i, ok := index[k]; ok {
			merged[i].Quantity += item.Quantity
			continue
		}
		index[k] = len(merged)
		merged = append(merged, item)
	}
	return merged
}

func cartTotal(lines []model.CartLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

func totalQuantity(lines []model.CartLineItem) int {
	n := 0
	for _, line := range lines {
		n += line.Quantity
	}
	return n
}

func productIDs(lines []model.CartLineItem) []string {
	ids := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		if _, ok := seen[line.ProductID]; ok {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	return ids
}
