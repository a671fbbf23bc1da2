package repositories

import (
	"catalog/internal/models"

	"github.com/shopspring/decimal"
)

// ProductRepository defines the interface for product data access.
//
// Lookups that can miss (FindByID, FindMostExpensiveByCategory) return a
// nil product and a nil error when no row matches; errors are reserved for
// storage failures. Query methods never fail on zero matches, and an empty
// range (min > max) simply yields no rows.
type ProductRepository interface {
	// Record store operations.
	Save(product *models.Product) error
	FindByID(id uint) (*models.Product, error)
	FindAll() ([]models.Product, error)
	Delete(product *models.Product) error
	DeleteByID(id uint) error
	DeleteAll() error
	Count() (int64, error)

	// Query operations. Category matches are exact and case-sensitive;
	// price ranges are inclusive at both ends.
	FindByCategory(category string) ([]models.Product, error)
	FindByAvailable(available bool) ([]models.Product, error)
	// FindByNameContaining matches the substring case-insensitively.
	FindByNameContaining(name string) ([]models.Product, error)
	FindByPriceRangeAndCategory(minPrice, maxPrice decimal.Decimal, category string) ([]models.Product, error)
	// FindAvailableWithLowStockByCategory uses a strict stock < threshold.
	FindAvailableWithLowStockByCategory(threshold int, category string) ([]models.Product, error)
	// FindTopSellingByCategory returns available products ordered by stock
	// ascending, sliced to the page window (page is zero-based).
	FindTopSellingByCategory(category string, page, size int) ([]models.Product, error)
	// FindByNamePattern matches LIKE %pattern% semantics and only returns
	// available products.
	FindByNamePattern(pattern string) ([]models.Product, error)
	FindMostExpensiveByCategory(category string) (*models.Product, error)
	// AveragePriceByCategory returns an invalid NullDecimal when no rows
	// match, mirroring SQL AVG over an empty set.
	AveragePriceByCategory(category string) (decimal.NullDecimal, error)
	CountByCategoryAndPriceRange(category string, minPrice, maxPrice decimal.Decimal) (int64, error)
}
