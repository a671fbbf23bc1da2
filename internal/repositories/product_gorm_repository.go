package repositories

import (
	"errors"
	"fmt"
	"strings"

	"catalog/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMProductRepository is a GORM implementation of ProductRepository.
type GORMProductRepository struct {
	db *gorm.DB
}

// NewGORMProductRepository creates a new instance of GORMProductRepository.
func NewGORMProductRepository(db *gorm.DB) *GORMProductRepository {
	return &GORMProductRepository{
		db: db,
	}
}

// Save inserts the product when it has no ID yet and upserts otherwise.
// A product carrying an ID that is not in the store is inserted with that
// ID rather than rejected. On conflict every column is replaced except
// created_at, which keeps the original insertion time.
func (r *GORMProductRepository) Save(product *models.Product) error {
	onConflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"name", "description", "price", "category",
			"stock_quantity", "is_available", "updated_at",
		}),
	}
	if err := r.db.Clauses(onConflict).Create(product).Error; err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}
	return nil
}

// FindByID retrieves a single product by its ID. A missing row is not an
// error: it returns (nil, nil).
func (r *GORMProductRepository) FindByID(id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product by ID %d: %w", id, err)
	}
	return &product, nil
}

// FindAll retrieves every product; order is whatever the backend yields.
func (r *GORMProductRepository) FindAll() ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}
	return products, nil
}

// Delete removes the row matching the product's ID, a no-op if absent.
func (r *GORMProductRepository) Delete(product *models.Product) error {
	return r.DeleteByID(product.ID)
}

// DeleteByID removes the row with the given ID, a no-op if absent.
func (r *GORMProductRepository) DeleteByID(id uint) error {
	if err := r.db.Delete(&models.Product{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete product %d: %w", id, err)
	}
	return nil
}

// DeleteAll removes every product row.
func (r *GORMProductRepository) DeleteAll() error {
	if err := r.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Product{}).Error; err != nil {
		return fmt.Errorf("failed to delete all products: %w", err)
	}
	return nil
}

// Count returns the number of product rows.
func (r *GORMProductRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// FindByCategory returns products whose category equals the input exactly.
func (r *GORMProductRepository) FindByCategory(category string) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("category = ?", category).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products by category %q: %w", category, err)
	}
	return products, nil
}

// FindByAvailable returns products matching the availability flag.
func (r *GORMProductRepository) FindByAvailable(available bool) ([]models.Product, error) {
	var products []models.Product
	if err := r.db.Where("is_available = ?", available).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products by availability: %w", err)
	}
	return products, nil
}

// FindByNameContaining matches the substring case-insensitively. Both
// sides are lowered so the behavior is the same on SQLite and PostgreSQL.
func (r *GORMProductRepository) FindByNameContaining(name string) ([]models.Product, error) {
	var products []models.Product
	pattern := "%" + strings.ToLower(name) + "%"
	if err := r.db.Where("LOWER(name) LIKE ?", pattern).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to search products by name %q: %w", name, err)
	}
	return products, nil
}

// FindByPriceRangeAndCategory returns products in the category priced
// within [minPrice, maxPrice], inclusive at both ends. An inverted range
// yields no rows.
func (r *GORMProductRepository) FindByPriceRangeAndCategory(minPrice, maxPrice decimal.Decimal, category string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.
		Where("category = ?", category).
		Where("price >= ? AND price <= ?", minPrice, maxPrice).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get products by price range and category: %w", err)
	}
	return products, nil
}

// FindAvailableWithLowStockByCategory returns available products in the
// category with stock strictly below the threshold.
func (r *GORMProductRepository) FindAvailableWithLowStockByCategory(threshold int, category string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.
		Where("is_available = ? AND stock_quantity < ? AND category = ?", true, threshold, category).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get low-stock products for category %q: %w", category, err)
	}
	return products, nil
}

// FindTopSellingByCategory returns available products in the category
// ordered by stock ascending, sliced to the requested page window.
func (r *GORMProductRepository) FindTopSellingByCategory(category string, page, size int) ([]models.Product, error) {
	if page < 0 || size <= 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	err := r.db.
		Where("category = ? AND is_available = ?", category, true).
		Order("stock_quantity ASC").
		Offset(page * size).
		Limit(size).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get top selling products for category %q: %w", category, err)
	}
	return products, nil
}

// FindByNamePattern runs the raw LIKE %pattern% match ANDed with the
// availability filter. The match is case-sensitive; SQLite needs the
// _case_sensitive_like DSN parameter to line up with PostgreSQL here.
func (r *GORMProductRepository) FindByNamePattern(pattern string) ([]models.Product, error) {
	var products []models.Product
	err := r.db.
		Where("name LIKE ? AND is_available = ?", "%"+pattern+"%", true).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search products by pattern %q: %w", pattern, err)
	}
	return products, nil
}

// FindMostExpensiveByCategory returns the highest-priced product in the
// category, or (nil, nil) when the category is empty.
func (r *GORMProductRepository) FindMostExpensiveByCategory(category string) (*models.Product, error) {
	var product models.Product
	err := r.db.
		Where("category = ?", category).
		Order("price DESC").
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get most expensive product for category %q: %w", category, err)
	}
	return &product, nil
}

// AveragePriceByCategory computes the mean price over the category. SQL
// AVG over zero rows is NULL, which scans to an invalid NullDecimal.
func (r *GORMProductRepository) AveragePriceByCategory(category string) (decimal.NullDecimal, error) {
	var avg decimal.NullDecimal
	row := r.db.Model(&models.Product{}).
		Select("AVG(price)").
		Where("category = ?", category).
		Row()
	if err := row.Scan(&avg); err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("failed to average price for category %q: %w", category, err)
	}
	return avg, nil
}

// CountByCategoryAndPriceRange counts products in the category priced
// within [minPrice, maxPrice], inclusive.
func (r *GORMProductRepository) CountByCategoryAndPriceRange(category string, minPrice, maxPrice decimal.Decimal) (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).
		Where("category = ?", category).
		Where("price >= ? AND price <= ?", minPrice, maxPrice).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count products by category and price range: %w", err)
	}
	return count, nil
}
