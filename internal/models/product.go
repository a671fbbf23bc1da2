package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a single row in the products table.
// The ID is assigned by the store on first save and never changes.
// Deletion is permanent, so there is deliberately no soft-delete column.
type Product struct {
	ID            uint            `json:"id" gorm:"primaryKey"`
	Name          string          `json:"name" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Description   string          `json:"description" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	Price         decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null"`
	Category      string          `json:"category" gorm:"not null" validate:"required"`
	StockQuantity int             `json:"stock_quantity" gorm:"column:stock_quantity;not null"`
	Available     bool            `json:"available" gorm:"column:is_available"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName keeps both SQL backends on the same table name as the
// hand-written name-pattern query.
func (Product) TableName() string {
	return "products"
}
