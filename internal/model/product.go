package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a catalogue product.
type Product struct {
	ID          string          `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description,omitempty" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	CategoryID  string          `json:"categoryId" db:"category_id"`
	Stock       int             `json:"stock" db:"stock"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

// ProductFilter selects one page of the catalogue. An empty CategoryID
// matches every category.
type ProductFilter struct {
	CategoryID string
	Limit      int
	Offset     int
}

// Category groups products and scopes category-wide promotions.
type Category struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// ProductRequest is the admin payload for creating or replacing a product.
// ID is only read on create; an empty ID gets a generated one.
type ProductRequest struct {
	ID          string           `json:"id,omitempty" validate:"max=50"`
	Name        string           `json:"name" validate:"required,max=255"`
	Description string           `json:"description,omitempty" validate:"max=1000"`
	Price       *decimal.Decimal `json:"price"`
	CategoryID  string           `json:"categoryId" validate:"required,max=50"`
	Stock       int              `json:"stock" validate:"min=0"`
}

// CategoryRequest is the admin payload for creating or replacing a category.
type CategoryRequest struct {
	ID          string `json:"id,omitempty" validate:"max=50"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty" validate:"max=1000"`
}
