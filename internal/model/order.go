package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Order represents a placed customer order with its settled totals.
type Order struct {
	ID            uuid.UUID       `json:"id" db:"id"`
	Subtotal      decimal.Decimal `json:"subtotal" db:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discountTotal" db:"discount_total"`
	Total         decimal.Decimal `json:"total" db:"total"`
	CreatedAt     time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time       `json:"updatedAt" db:"updated_at"`
}

// OrderItem represents a line item in an order.
type OrderItem struct {
	ID        uuid.UUID       `json:"-" db:"id"`
	OrderID   uuid.UUID       `json:"-" db:"order_id"`
	ProductID string          `json:"productId" db:"product_id"`
	Quantity  int             `json:"quantity" db:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice" db:"unit_price"`
}

// OrderDiscount records a promotion redeemed by an order.
type OrderDiscount struct {
	OrderID uuid.UUID       `json:"-" db:"order_id"`
	RuleID  string          `json:"ruleId" db:"rule_id"`
	Name    string          `json:"name" db:"name"`
	Amount  decimal.Decimal `json:"amount" db:"amount"`
}

// OrderRequest represents the request payload for creating an order.
type OrderRequest struct {
	Items []OrderItemRequest `json:"items"`
}

// OrderItemRequest represents a single item in an order request.
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// OrderResponse represents the response payload for an order.
type OrderResponse struct {
	ID            uuid.UUID       `json:"id"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discountTotal"`
	Total         decimal.Decimal `json:"total"`
	Items         []OrderItem     `json:"items"`
	Products      []Product       `json:"products"`
	Discounts     []OrderDiscount `json:"discounts"`
	Warning       string          `json:"warning,omitempty"`
}
