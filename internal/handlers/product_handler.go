package handlers

import (
	"errors"
	"fmt"
	"log"
	"strconv"

	"catalog/internal/models"
	"catalog/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	service *services.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service: service,
	}
}

// RegisterRoutes registers product routes. Reads are public; writes run
// behind the auth handler. Literal paths are registered before the :id
// route so they are not swallowed by it.
func (h *ProductHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	products := router.Group("/products")
	products.Get("/", h.HandleGetProducts)
	products.Get("/count", h.HandleCountProducts)
	products.Get("/search", h.HandleSearchByName)
	products.Get("/match", h.HandleSearchByPattern)
	products.Get("/available", h.HandleGetByAvailability)
	products.Get("/category/:category", h.HandleGetByCategory)
	products.Get("/price-range", h.HandleGetByPriceRange)
	products.Get("/low-stock", h.HandleGetLowStock)
	products.Get("/top-selling", h.HandleGetTopSelling)
	products.Get("/most-expensive", h.HandleGetMostExpensive)
	products.Get("/average-price", h.HandleGetAveragePrice)
	products.Get("/count-in-range", h.HandleCountInPriceRange)
	products.Get("/:id", h.HandleGetProductByID)

	products.Post("/", auth, h.HandleCreateProduct)
	products.Put("/:id", auth, h.HandleUpdateProduct)
	products.Delete("/:id", auth, h.HandleDeleteProduct)
	products.Delete("/", auth, h.HandleDeleteAllProducts)
}

// HandleGetProducts retrieves all products.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetAllProducts()
	if err != nil {
		log.Printf("Error getting all products: %v", err)
		return internalError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleCountProducts returns the total number of products.
func (h *ProductHandler) HandleCountProducts(c *fiber.Ctx) error {
	count, err := h.service.CountProducts()
	if err != nil {
		log.Printf("Error counting products: %v", err)
		return internalError(c, "Could not count products", err)
	}
	return c.JSON(fiber.Map{"count": count})
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid product id", err)
	}
	product, err := h.service.GetProductByID(id)
	if err != nil {
		log.Printf("Error getting product %d: %v", id, err)
		return internalError(c, "Could not retrieve product", err)
	}
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product with ID %d not found", id),
		})
	}
	return c.JSON(product)
}

// HandleGetByCategory retrieves products in a category.
func (h *ProductHandler) HandleGetByCategory(c *fiber.Ctx) error {
	products, err := h.service.GetProductsByCategory(c.Params("category"))
	if err != nil {
		log.Printf("Error getting products by category: %v", err)
		return internalError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetByAvailability retrieves products by availability flag.
func (h *ProductHandler) HandleGetByAvailability(c *fiber.Ctx) error {
	available := c.QueryBool("available", true)
	products, err := h.service.GetProductsByAvailability(available)
	if err != nil {
		log.Printf("Error getting products by availability: %v", err)
		return internalError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleSearchByName searches names case-insensitively.
func (h *ProductHandler) HandleSearchByName(c *fiber.Ctx) error {
	products, err := h.service.SearchProductsByName(c.Query("name"))
	if err != nil {
		log.Printf("Error searching products by name: %v", err)
		return internalError(c, "Could not search products", err)
	}
	return c.JSON(products)
}

// HandleSearchByPattern matches LIKE %pattern% over available products.
func (h *ProductHandler) HandleSearchByPattern(c *fiber.Ctx) error {
	products, err := h.service.SearchProductsByPattern(c.Query("pattern"))
	if err != nil {
		log.Printf("Error searching products by pattern: %v", err)
		return internalError(c, "Could not search products", err)
	}
	return c.JSON(products)
}

// HandleGetByPriceRange retrieves category products priced within the
// inclusive [min, max] range.
func (h *ProductHandler) HandleGetByPriceRange(c *fiber.Ctx) error {
	minPrice, maxPrice, err := parsePriceRange(c)
	if err != nil {
		return badRequest(c, "Invalid price range", err)
	}
	products, err := h.service.GetProductsByPriceRangeAndCategory(minPrice, maxPrice, c.Query("category"))
	if err != nil {
		log.Printf("Error getting products by price range: %v", err)
		return internalError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetLowStock retrieves available category products with stock
// strictly below the threshold.
func (h *ProductHandler) HandleGetLowStock(c *fiber.Ctx) error {
	threshold := c.QueryInt("threshold", 10)
	products, err := h.service.GetLowStockProducts(threshold, c.Query("category"))
	if err != nil {
		log.Printf("Error getting low-stock products: %v", err)
		return internalError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetTopSelling retrieves available category products ordered by
// stock ascending, paged.
func (h *ProductHandler) HandleGetTopSelling(c *fiber.Ctx) error {
	page := c.QueryInt("page", 0)
	size := c.QueryInt("size", 10)
	products, err := h.service.GetTopSellingProducts(c.Query("category"), page, size)
	if err != nil {
		log.Printf("Error getting top-selling products: %v", err)
		return internalError(c, "Could not retrieve products", err)
	}
	return c.JSON(products)
}

// HandleGetMostExpensive returns the highest-priced product in the
// category, 404 when the category has none.
func (h *ProductHandler) HandleGetMostExpensive(c *fiber.Ctx) error {
	category := c.Query("category")
	product, err := h.service.GetMostExpensiveProduct(category)
	if err != nil {
		log.Printf("Error getting most expensive product: %v", err)
		return internalError(c, "Could not retrieve product", err)
	}
	if product == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("No products in category %q", category),
		})
	}
	return c.JSON(product)
}

// HandleGetAveragePrice returns the mean price over the category; the
// value is null when no products match.
func (h *ProductHandler) HandleGetAveragePrice(c *fiber.Ctx) error {
	category := c.Query("category")
	avg, err := h.service.GetAveragePrice(category)
	if err != nil {
		log.Printf("Error averaging price: %v", err)
		return internalError(c, "Could not compute average price", err)
	}
	return c.JSON(fiber.Map{
		"category":      category,
		"average_price": avg,
	})
}

// HandleCountInPriceRange counts category products priced within the
// inclusive [min, max] range.
func (h *ProductHandler) HandleCountInPriceRange(c *fiber.Ctx) error {
	minPrice, maxPrice, err := parsePriceRange(c)
	if err != nil {
		return badRequest(c, "Invalid price range", err)
	}
	category := c.Query("category")
	count, err := h.service.CountProductsInPriceRange(category, minPrice, maxPrice)
	if err != nil {
		log.Printf("Error counting products in price range: %v", err)
		return internalError(c, "Could not count products", err)
	}
	return c.JSON(fiber.Map{
		"category": category,
		"count":    count,
	})
}

// HandleCreateProduct creates a new product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing create request body: %v", err)
		return badRequest(c, "Invalid request body", err)
	}
	product.ID = 0 // ids are assigned by the store

	if err := h.service.SaveProduct(&product); err != nil {
		return renderSaveError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct overwrites the product with the path ID. This is
// explicit read-modify-write on the caller's side: the full product state
// is supplied in the body.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid product id", err)
	}

	var product models.Product
	if err := c.BodyParser(&product); err != nil {
		log.Printf("Error parsing update request body: %v", err)
		return badRequest(c, "Invalid request body", err)
	}
	product.ID = id

	if err := h.service.SaveProduct(&product); err != nil {
		return renderSaveError(c, err)
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product by ID; deleting a missing
// product succeeds.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, "Invalid product id", err)
	}
	if err := h.service.DeleteProduct(id); err != nil {
		log.Printf("Error deleting product %d: %v", id, err)
		return internalError(c, "Could not delete product", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleDeleteAllProducts removes every product.
func (h *ProductHandler) HandleDeleteAllProducts(c *fiber.Ctx) error {
	if err := h.service.DeleteAllProducts(); err != nil {
		log.Printf("Error deleting all products: %v", err)
		return internalError(c, "Could not delete products", err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

// parsePriceRange requires both bounds: a missing min or max is an error
// rather than an implicit zero.
func parsePriceRange(c *fiber.Ctx) (decimal.Decimal, decimal.Decimal, error) {
	minRaw, maxRaw := c.Query("min"), c.Query("max")
	if minRaw == "" || maxRaw == "" {
		return decimal.Decimal{}, decimal.Decimal{}, errors.New("both min and max price are required")
	}
	minPrice, err := decimal.NewFromString(minRaw)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("invalid min price: %w", err)
	}
	maxPrice, err := decimal.NewFromString(maxRaw)
	if err != nil {
		return decimal.Decimal{}, decimal.Decimal{}, fmt.Errorf("invalid max price: %w", err)
	}
	return minPrice, maxPrice, nil
}

// renderSaveError maps validation failures to 400 with per-field messages
// and everything else to 500.
func renderSaveError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorMessages := make(map[string]string)
		for _, e := range validationErrors {
			errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Validation failed",
			"errors":  errorMessages,
		})
	}
	log.Printf("Error saving product: %v", err)
	return internalError(c, "Could not save product", err)
}

func badRequest(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}

func internalError(c *fiber.Ctx, message string, err error) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"message": message,
		"error":   err.Error(),
	})
}
