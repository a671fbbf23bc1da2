package services

import (
	"fmt"
	"log"
	"time"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// EventPublisher publishes product lifecycle events. Satisfied by
// *rabbitmq.Client; a nil publisher disables events.
type EventPublisher interface {
	PublishProductEvent(event map[string]interface{}) error
}

// ProductService handles business logic related to products: validation
// before persistence, query delegation and event publishing.
type ProductService struct {
	repo      repositories.ProductRepository
	publisher EventPublisher
	validate  *validator.Validate
}

// NewProductService creates a new ProductService. publisher may be nil.
func NewProductService(repo repositories.ProductRepository, publisher EventPublisher) *ProductService {
	return &ProductService{
		repo:      repo,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// SaveProduct validates and persists a product. A product without an ID
// is created and gets one assigned; a product with an ID is overwritten
// (or inserted with that ID if no such row exists).
func (s *ProductService) SaveProduct(product *models.Product) error {
	if err := s.validate.Struct(product); err != nil {
		return fmt.Errorf("product validation failed: %w", err)
	}

	created := product.ID == 0
	if err := s.repo.Save(product); err != nil {
		return err
	}

	if created {
		s.publishEvent("product.created", product)
	} else {
		s.publishEvent("product.updated", product)
	}
	return nil
}

// GetProductByID retrieves a product, returning (nil, nil) when absent.
func (s *ProductService) GetProductByID(id uint) (*models.Product, error) {
	return s.repo.FindByID(id)
}

// GetAllProducts retrieves all products.
func (s *ProductService) GetAllProducts() ([]models.Product, error) {
	return s.repo.FindAll()
}

// DeleteProduct removes a product by ID. Deleting a missing product is a
// no-op and publishes no event.
func (s *ProductService) DeleteProduct(id uint) error {
	product, err := s.repo.FindByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return nil
	}
	if err := s.repo.DeleteByID(id); err != nil {
		return err
	}
	s.publishEvent("product.deleted", product)
	return nil
}

// DeleteAllProducts removes every product.
func (s *ProductService) DeleteAllProducts() error {
	return s.repo.DeleteAll()
}

// CountProducts returns the number of products.
func (s *ProductService) CountProducts() (int64, error) {
	return s.repo.Count()
}

// GetProductsByCategory returns products in the category, exact match.
func (s *ProductService) GetProductsByCategory(category string) ([]models.Product, error) {
	return s.repo.FindByCategory(category)
}

// GetProductsByAvailability returns products matching the flag.
func (s *ProductService) GetProductsByAvailability(available bool) ([]models.Product, error) {
	return s.repo.FindByAvailable(available)
}

// SearchProductsByName matches the substring case-insensitively.
func (s *ProductService) SearchProductsByName(name string) ([]models.Product, error) {
	return s.repo.FindByNameContaining(name)
}

// GetProductsByPriceRangeAndCategory returns category products priced
// within the inclusive range.
func (s *ProductService) GetProductsByPriceRangeAndCategory(minPrice, maxPrice decimal.Decimal, category string) ([]models.Product, error) {
	return s.repo.FindByPriceRangeAndCategory(minPrice, maxPrice, category)
}

// GetLowStockProducts returns available category products with stock
// strictly below the threshold.
func (s *ProductService) GetLowStockProducts(threshold int, category string) ([]models.Product, error) {
	return s.repo.FindAvailableWithLowStockByCategory(threshold, category)
}

// GetTopSellingProducts returns available category products ordered by
// stock ascending, paged.
func (s *ProductService) GetTopSellingProducts(category string, page, size int) ([]models.Product, error) {
	return s.repo.FindTopSellingByCategory(category, page, size)
}

// SearchProductsByPattern matches LIKE %pattern% over available products.
func (s *ProductService) SearchProductsByPattern(pattern string) ([]models.Product, error) {
	return s.repo.FindByNamePattern(pattern)
}

// GetMostExpensiveProduct returns the highest-priced category product,
// or (nil, nil) when the category has none.
func (s *ProductService) GetMostExpensiveProduct(category string) (*models.Product, error) {
	return s.repo.FindMostExpensiveByCategory(category)
}

// GetAveragePrice returns the mean price over the category; the result
// is invalid when no products match.
func (s *ProductService) GetAveragePrice(category string) (decimal.NullDecimal, error) {
	return s.repo.AveragePriceByCategory(category)
}

// CountProductsInPriceRange counts category products priced within the
// inclusive range.
func (s *ProductService) CountProductsInPriceRange(category string, minPrice, maxPrice decimal.Decimal) (int64, error) {
	return s.repo.CountByCategoryAndPriceRange(category, minPrice, maxPrice)
}

// publishEvent sends a product lifecycle event. Publish failures are
// logged and never fail the triggering operation.
func (s *ProductService) publishEvent(action string, product *models.Product) {
	if s.publisher == nil {
		return
	}
	event := map[string]interface{}{
		"event_id":   uuid.New().String(),
		"action":     action,
		"product_id": product.ID,
		"name":       product.Name,
		"category":   product.Category,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.publisher.PublishProductEvent(event); err != nil {
		log.Printf("Failed to publish %s event for product %d: %v", action, product.ID, err)
	}
}
