package model

import "github.com/shopspring/decimal"

// CartLineItem is one line of a cart snapshot handed to the discount engine.
// The snapshot is passed by value and never mutated.
type CartLineItem struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName,omitempty"`
	CategoryID  string          `json:"categoryId,omitempty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Quantity    int             `json:"quantity"`
}

// Subtotal returns unit price multiplied by quantity.
func (i CartLineItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartRequest is the payload for discount calculation endpoints.
type CartRequest struct {
	Items     []CartLineItem   `json:"items"`
	CartTotal *decimal.Decimal `json:"cartTotal,omitempty"`
}
