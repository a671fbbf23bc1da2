package repositories_test

import (
	"sort"
	"testing"

	"catalog/internal/models"
	"catalog/internal/repositories"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureProducts returns the canonical catalog used by the acceptance
// suite: three Electronics, two Audio, one of them unavailable with zero
// stock.
func fixtureProducts() []models.Product {
	return []models.Product{
		{
			Name:          "MacBook Pro",
			Description:   "High-performance laptop for professionals",
			Price:         decimal.RequireFromString("1999.99"),
			Category:      "Electronics",
			StockQuantity: 50,
			Available:     true,
		},
		{
			Name:          "iPhone 14",
			Description:   "Latest smartphone with advanced features",
			Price:         decimal.RequireFromString("999.99"),
			Category:      "Electronics",
			StockQuantity: 100,
			Available:     true,
		},
		{
			Name:          "iPad Pro",
			Description:   "Powerful tablet for creative work",
			Price:         decimal.RequireFromString("799.99"),
			Category:      "Electronics",
			StockQuantity: 75,
			Available:     true,
		},
		{
			Name:          "AirPods Pro",
			Description:   "Wireless noise-cancelling earbuds",
			Price:         decimal.RequireFromString("249.99"),
			Category:      "Audio",
			StockQuantity: 25,
			Available:     true,
		},
		{
			Name:          "Bluetooth Speaker",
			Description:   "Portable wireless speaker",
			Price:         decimal.RequireFromString("89.99"),
			Category:      "Audio",
			StockQuantity: 0,
			Available:     false,
		},
	}
}

func seedFixtures(t *testing.T, repo repositories.ProductRepository) {
	t.Helper()
	require.NoError(t, repo.DeleteAll())
	fixtures := fixtureProducts()
	for i := range fixtures {
		require.NoError(t, repo.Save(&fixtures[i]))
		require.NotZero(t, fixtures[i].ID)
	}
}

func productNames(products []models.Product) []string {
	names := make([]string, 0, len(products))
	for _, p := range products {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// runProductRepositoryTests exercises the full record-store and query
// contract against a fresh repository implementation. Mutating cases run
// after the read-only ones.
func runProductRepositoryTests(t *testing.T, repo repositories.ProductRepository) {
	seedFixtures(t, repo)

	t.Run("FindAllAndCount", func(t *testing.T) {
		products, err := repo.FindAll()
		require.NoError(t, err)
		assert.Len(t, products, 5)

		count, err := repo.Count()
		require.NoError(t, err)
		assert.EqualValues(t, 5, count)
	})

	t.Run("FindByCategory", func(t *testing.T) {
		electronics, err := repo.FindByCategory("Electronics")
		require.NoError(t, err)
		assert.Len(t, electronics, 3)

		audio, err := repo.FindByCategory("Audio")
		require.NoError(t, err)
		assert.Len(t, audio, 2)

		wearables, err := repo.FindByCategory("Wearables")
		require.NoError(t, err)
		assert.Empty(t, wearables)
	})

	t.Run("FindByAvailable", func(t *testing.T) {
		available, err := repo.FindByAvailable(true)
		require.NoError(t, err)
		assert.Len(t, available, 4)

		unavailable, err := repo.FindByAvailable(false)
		require.NoError(t, err)
		require.Len(t, unavailable, 1)
		assert.Equal(t, "Bluetooth Speaker", unavailable[0].Name)
	})

	t.Run("FindByNameContainingIsCaseInsensitive", func(t *testing.T) {
		pro, err := repo.FindByNameContaining("Pro")
		require.NoError(t, err)
		assert.Equal(t, []string{"AirPods Pro", "MacBook Pro", "iPad Pro"}, productNames(pro))

		pod, err := repo.FindByNameContaining("pod")
		require.NoError(t, err)
		require.Len(t, pod, 1)
		assert.Equal(t, "AirPods Pro", pod[0].Name)
	})

	t.Run("FindByPriceRangeAndCategory", func(t *testing.T) {
		products, err := repo.FindByPriceRangeAndCategory(d("700.00"), d("1500.00"), "Electronics")
		require.NoError(t, err)
		assert.Equal(t, []string{"iPad Pro", "iPhone 14"}, productNames(products))
	})

	t.Run("PriceRangeIsInclusiveAtBothEnds", func(t *testing.T) {
		products, err := repo.FindByPriceRangeAndCategory(d("799.99"), d("999.99"), "Electronics")
		require.NoError(t, err)
		assert.Equal(t, []string{"iPad Pro", "iPhone 14"}, productNames(products))
	})

	t.Run("InvertedPriceRangeIsEmptyNotError", func(t *testing.T) {
		products, err := repo.FindByPriceRangeAndCategory(d("1500.00"), d("700.00"), "Electronics")
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("LowStockRequiresAvailability", func(t *testing.T) {
		// Bluetooth Speaker has stock 0 < 30 but is unavailable, so only
		// AirPods Pro qualifies.
		products, err := repo.FindAvailableWithLowStockByCategory(30, "Audio")
		require.NoError(t, err)
		require.Len(t, products, 1)
		assert.Equal(t, "AirPods Pro", products[0].Name)
	})

	t.Run("LowStockThresholdIsStrict", func(t *testing.T) {
		products, err := repo.FindAvailableWithLowStockByCategory(25, "Audio")
		require.NoError(t, err)
		assert.Empty(t, products)
	})

	t.Run("TopSellingOrderedByStockAscending", func(t *testing.T) {
		products, err := repo.FindTopSellingByCategory("Electronics", 0, 2)
		require.NoError(t, err)
		require.Len(t, products, 2)
		assert.Equal(t, "MacBook Pro", products[0].Name)
		assert.Equal(t, "iPad Pro", products[1].Name)

		second, err := repo.FindTopSellingByCategory("Electronics", 1, 2)
		require.NoError(t, err)
		require.Len(t, second, 1)
		assert.Equal(t, "iPhone 14", second[0].Name)

		beyond, err := repo.FindTopSellingByCategory("Electronics", 5, 2)
		require.NoError(t, err)
		assert.Empty(t, beyond)
	})

	t.Run("NamePatternFiltersUnavailable", func(t *testing.T) {
		// The speaker's name matches, but the availability filter is
		// ANDed into the pattern search.
		products, err := repo.FindByNamePattern("Speaker")
		require.NoError(t, err)
		assert.Empty(t, products)

		pro, err := repo.FindByNamePattern("Pro")
		require.NoError(t, err)
		assert.Equal(t, []string{"AirPods Pro", "MacBook Pro", "iPad Pro"}, productNames(pro))
	})

	t.Run("NamePatternIsCaseSensitive", func(t *testing.T) {
		// Unlike the name search, the pattern match does not fold case:
		// "pro" must not match "Pro" on any backend.
		products, err := repo.FindByNamePattern("pro")
		require.NoError(t, err)
		assert.Empty(t, products)

		phone, err := repo.FindByNamePattern("iphone")
		require.NoError(t, err)
		assert.Empty(t, phone)
	})

	t.Run("MostExpensiveByCategory", func(t *testing.T) {
		product, err := repo.FindMostExpensiveByCategory("Electronics")
		require.NoError(t, err)
		require.NotNil(t, product)
		assert.Equal(t, "MacBook Pro", product.Name)
		assert.True(t, product.Price.Equal(d("1999.99")), "price was %s", product.Price)

		missing, err := repo.FindMostExpensiveByCategory("Wearables")
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("AveragePriceByCategory", func(t *testing.T) {
		avg, err := repo.AveragePriceByCategory("Electronics")
		require.NoError(t, err)
		require.True(t, avg.Valid)
		diff := avg.Decimal.Sub(d("1266.66")).Abs()
		assert.True(t, diff.LessThanOrEqual(d("0.01")), "average was %s", avg.Decimal)

		empty, err := repo.AveragePriceByCategory("Wearables")
		require.NoError(t, err)
		assert.False(t, empty.Valid)
	})

	t.Run("CountByCategoryAndPriceRange", func(t *testing.T) {
		count, err := repo.CountByCategoryAndPriceRange("Electronics", d("500.00"), d("1000.00"))
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)

		count, err = repo.CountByCategoryAndPriceRange("Electronics", d("1500.00"), d("500.00"))
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("FindByIDMissingIsNilNotError", func(t *testing.T) {
		product, err := repo.FindByID(987654)
		require.NoError(t, err)
		assert.Nil(t, product)
	})

	t.Run("DeleteMissingIsNoOp", func(t *testing.T) {
		require.NoError(t, repo.DeleteByID(987654))
		count, err := repo.Count()
		require.NoError(t, err)
		assert.EqualValues(t, 5, count)
	})

	t.Run("DeleteByID", func(t *testing.T) {
		speaker, err := repo.FindByAvailable(false)
		require.NoError(t, err)
		require.Len(t, speaker, 1)

		require.NoError(t, repo.DeleteByID(speaker[0].ID))

		gone, err := repo.FindByID(speaker[0].ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("DeleteByEntity", func(t *testing.T) {
		pods, err := repo.FindByNameContaining("AirPods")
		require.NoError(t, err)
		require.Len(t, pods, 1)

		require.NoError(t, repo.Delete(&pods[0]))

		gone, err := repo.FindByID(pods[0].ID)
		require.NoError(t, err)
		assert.Nil(t, gone)
	})

	t.Run("DeleteAllLeavesEmptyStore", func(t *testing.T) {
		require.NoError(t, repo.DeleteAll())

		products, err := repo.FindAll()
		require.NoError(t, err)
		assert.Empty(t, products)

		count, err := repo.Count()
		require.NoError(t, err)
		assert.Zero(t, count)

		// Queries over the empty store stay empty, never error.
		top, err := repo.FindMostExpensiveByCategory("Electronics")
		require.NoError(t, err)
		assert.Nil(t, top)

		avg, err := repo.AveragePriceByCategory("Electronics")
		require.NoError(t, err)
		assert.False(t, avg.Valid)
	})

	t.Run("SaveRoundTrip", func(t *testing.T) {
		product := models.Product{
			Name:          "Apple Watch",
			Description:   "Fitness-focused smartwatch",
			Price:         d("399.99"),
			Category:      "Wearables",
			StockQuantity: 30,
			Available:     true,
		}
		require.NoError(t, repo.Save(&product))
		require.NotZero(t, product.ID)

		found, err := repo.FindByID(product.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, product.Name, found.Name)
		assert.Equal(t, product.Description, found.Description)
		assert.True(t, found.Price.Equal(product.Price))
		assert.Equal(t, product.Category, found.Category)
		assert.Equal(t, product.StockQuantity, found.StockQuantity)
		assert.Equal(t, product.Available, found.Available)
	})

	t.Run("SaveWithExplicitIDUpserts", func(t *testing.T) {
		product := models.Product{
			ID:            4242,
			Name:          "Smart Ring",
			Price:         d("299.00"),
			Category:      "Wearables",
			StockQuantity: 5,
			Available:     true,
		}
		// No row with this ID exists: the save inserts with the
		// caller-supplied ID.
		require.NoError(t, repo.Save(&product))

		found, err := repo.FindByID(4242)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Smart Ring", found.Name)
		firstCreatedAt := found.CreatedAt
		assert.False(t, firstCreatedAt.IsZero())

		// Saving a fresh struct with the same ID overwrites the row but
		// keeps the original created_at.
		overwrite := models.Product{
			ID:            4242,
			Name:          "Smart Ring 2",
			Price:         d("319.00"),
			Category:      "Wearables",
			StockQuantity: 7,
			Available:     true,
		}
		require.NoError(t, repo.Save(&overwrite))

		updated, err := repo.FindByID(4242)
		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, "Smart Ring 2", updated.Name)
		assert.Equal(t, 7, updated.StockQuantity)
		assert.True(t, updated.CreatedAt.Equal(firstCreatedAt))

		count, err := repo.Count()
		require.NoError(t, err)
		assert.EqualValues(t, 2, count)
	})
}
