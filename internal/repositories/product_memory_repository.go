package repositories

import (
	"sort"
	"strings"
	"sync"
	"time"

	"catalog/internal/models"

	"github.com/shopspring/decimal"
)

// MemoryProductRepository is an in-memory implementation of
// ProductRepository. It keeps rows in a map guarded by a RWMutex and
// evaluates every query predicate in Go, which makes it both the no-SQL
// backend for demo mode and an independent check on the query semantics
// in tests.
type MemoryProductRepository struct {
	products map[uint]models.Product
	nextID   uint
	mu       sync.RWMutex
}

// NewMemoryProductRepository creates a new instance of MemoryProductRepository.
func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[uint]models.Product),
		nextID:   1,
	}
}

// Save assigns a fresh ID when the product has none, otherwise overwrites
// (or inserts) the row with the given ID. An overwrite keeps the stored
// created_at and only bumps updated_at, matching the SQL upsert.
func (r *MemoryProductRepository) Save(product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.ID == 0 {
		product.ID = r.nextID
		r.nextID++
	} else if product.ID >= r.nextID {
		r.nextID = product.ID + 1
	}

	now := time.Now()
	if existing, ok := r.products[product.ID]; ok {
		product.CreatedAt = existing.CreatedAt
	} else if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	r.products[product.ID] = *product
	return nil
}

// FindByID returns the row or (nil, nil) if absent.
func (r *MemoryProductRepository) FindByID(id uint) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, nil
	}
	return &product, nil
}

// FindAll returns every row in unspecified order.
func (r *MemoryProductRepository) FindAll() ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(models.Product) bool { return true }), nil
}

// Delete removes the row matching the product's ID, a no-op if absent.
func (r *MemoryProductRepository) Delete(product *models.Product) error {
	return r.DeleteByID(product.ID)
}

// DeleteByID removes the row with the given ID, a no-op if absent.
func (r *MemoryProductRepository) DeleteByID(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.products, id)
	return nil
}

// DeleteAll removes every row.
func (r *MemoryProductRepository) DeleteAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products = make(map[uint]models.Product)
	return nil
}

// Count returns the number of rows.
func (r *MemoryProductRepository) Count() (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.products)), nil
}

// collect copies out every row passing the predicate. Callers must hold
// at least the read lock.
func (r *MemoryProductRepository) collect(match func(models.Product) bool) []models.Product {
	result := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if match(p) {
			result = append(result, p)
		}
	}
	return result
}

// FindByCategory returns rows whose category equals the input exactly.
func (r *MemoryProductRepository) FindByCategory(category string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool {
		return p.Category == category
	}), nil
}

// FindByAvailable returns rows matching the availability flag.
func (r *MemoryProductRepository) FindByAvailable(available bool) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool {
		return p.Available == available
	}), nil
}

// FindByNameContaining matches the substring case-insensitively.
func (r *MemoryProductRepository) FindByNameContaining(name string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	needle := strings.ToLower(name)
	return r.collect(func(p models.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}), nil
}

// FindByPriceRangeAndCategory returns rows in the category priced within
// [minPrice, maxPrice], inclusive. An inverted range matches nothing.
func (r *MemoryProductRepository) FindByPriceRangeAndCategory(minPrice, maxPrice decimal.Decimal, category string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool {
		return p.Category == category &&
			p.Price.GreaterThanOrEqual(minPrice) &&
			p.Price.LessThanOrEqual(maxPrice)
	}), nil
}

// FindAvailableWithLowStockByCategory returns available rows in the
// category with stock strictly below the threshold.
func (r *MemoryProductRepository) FindAvailableWithLowStockByCategory(threshold int, category string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool {
		return p.Available && p.StockQuantity < threshold && p.Category == category
	}), nil
}

// FindTopSellingByCategory returns available rows in the category ordered
// by stock ascending, sliced to the page window.
func (r *MemoryProductRepository) FindTopSellingByCategory(category string, page, size int) ([]models.Product, error) {
	if page < 0 || size <= 0 {
		return []models.Product{}, nil
	}

	r.mu.RLock()
	matched := r.collect(func(p models.Product) bool {
		return p.Category == category && p.Available
	})
	r.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].StockQuantity < matched[j].StockQuantity
	})

	start := page * size
	if start >= len(matched) {
		return []models.Product{}, nil
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

// FindByNamePattern matches the substring case-sensitively and only
// returns available rows.
func (r *MemoryProductRepository) FindByNamePattern(pattern string) ([]models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(func(p models.Product) bool {
		return p.Available && strings.Contains(p.Name, pattern)
	}), nil
}

// FindMostExpensiveByCategory returns the highest-priced row in the
// category, or (nil, nil) when none match. Ties keep the first row
// encountered.
func (r *MemoryProductRepository) FindMostExpensiveByCategory(category string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var best *models.Product
	for _, p := range r.products {
		if p.Category != category {
			continue
		}
		if best == nil || p.Price.GreaterThan(best.Price) {
			p := p
			best = &p
		}
	}
	return best, nil
}

// AveragePriceByCategory returns the mean price over the category, or an
// invalid NullDecimal when no rows match.
func (r *MemoryProductRepository) AveragePriceByCategory(category string) (decimal.NullDecimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum := decimal.Zero
	var n int64
	for _, p := range r.products {
		if p.Category == category {
			sum = sum.Add(p.Price)
			n++
		}
	}
	if n == 0 {
		return decimal.NullDecimal{}, nil
	}
	return decimal.NullDecimal{
		Decimal: sum.Div(decimal.NewFromInt(n)),
		Valid:   true,
	}, nil
}

// CountByCategoryAndPriceRange counts rows in the category priced within
// [minPrice, maxPrice], inclusive.
func (r *MemoryProductRepository) CountByCategoryAndPriceRange(category string, minPrice, maxPrice decimal.Decimal) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var count int64
	for _, p := range r.products {
		if p.Category == category &&
			p.Price.GreaterThanOrEqual(minPrice) &&
			p.Price.LessThanOrEqual(maxPrice) {
			count++
		}
	}
	return count, nil
}
