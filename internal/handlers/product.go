package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/gerai/internal/models"
	"github.com/example/gerai/internal/utils"
)

// ProductHandler manages storefront browsing and admin product CRUD.
type ProductHandler struct {
	db *gorm.DB
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(db *gorm.DB) *ProductHandler {
	return &ProductHandler{db: db}
}

// ListProducts returns paginated active products with optional filters.
func (h *ProductHandler) ListProducts(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	query := h.db.Model(&models.Product{}).Scopes(models.ActiveProducts)

	if v := c.Query("category"); v != "" {
		query = query.Joins("JOIN product_categories pc ON pc.product_id = products.id").
			Joins("JOIN categories ON categories.id = pc.category_id").
			Where("categories.slug = ?", v)
	}

	if search := strings.TrimSpace(c.Query("search")); search != "" {
		q := "%" + search + "%"
		query = query.Where("products.name ILIKE ? OR products.short_description ILIKE ?", q, q)
	}

	if c.QueryBool("featured") {
		query = query.Scopes(models.FeaturedProducts)
	}

	if c.QueryBool("in_stock") {
		query = query.Scopes(models.InStockProducts)
	}

	if v := c.Query("min_price"); v != "" {
		if min, err := decimal.NewFromString(v); err == nil {
			query = query.Where("price >= ?", min)
		}
	}

	if v := c.Query("max_price"); v != "" {
		if max, err := decimal.NewFromString(v); err == nil {
			query = query.Where("price <= ?", max)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return err
	}

	var products []models.Product
	if err := query.Preload("Categories").
		Limit(pg.Limit).Offset(pg.Offset).
		Order("products.created_at desc").
		Find(&products).Error; err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    products,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	})
}

// GetProductBySlug loads one active product for the storefront detail page.
func (h *ProductHandler) GetProductBySlug(c *fiber.Ctx) error {
	slug := c.Params("slug")

	var product models.Product
	if err := h.db.Scopes(models.ActiveProducts).
		Preload("Categories").
		First(&product, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    product,
		"flags": fiber.Map{
			"current_price": product.CurrentPrice(),
			"is_on_sale":    product.IsOnSale(),
			"is_in_stock":   product.IsInStock(),
			"main_image":    product.MainImage(),
		},
	})
}

type productRequest struct {
	Name             string   `json:"name"`
	Slug             string   `json:"slug"`
	Description      string   `json:"description"`
	ShortDescription string   `json:"short_description"`
	Price            string   `json:"price"`
	SalePrice        *string  `json:"sale_price"`
	SKU              string   `json:"sku"`
	StockQuantity    int      `json:"stock_quantity"`
	ManageStock      bool     `json:"manage_stock"`
	StockStatus      string   `json:"stock_status"`
	Images           []string `json:"images"`
	Featured         bool     `json:"featured"`
	IsActive         bool     `json:"is_active"`
	CategoryIDs      []string `json:"category_ids"`
}

func (r productRequest) apply(product *models.Product) error {
	price, err := decimal.NewFromString(r.Price)
	if err != nil {
		return errors.New("invalid price")
	}

	product.Name = r.Name
	product.Slug = r.Slug
	if product.Slug == "" {
		product.Slug = utils.Slugify(r.Name)
	}
	product.Description = r.Description
	product.ShortDescription = r.ShortDescription
	product.Price = price
	product.SalePrice = nil
	if r.SalePrice != nil {
		sale, err := decimal.NewFromString(*r.SalePrice)
		if err != nil {
			return errors.New("invalid sale price")
		}
		product.SalePrice = &sale
	}
	product.SKU = r.SKU
	product.StockQuantity = r.StockQuantity
	product.ManageStock = r.ManageStock
	product.StockStatus = r.StockStatus
	if product.StockStatus == "" {
		product.StockStatus = models.StockStatusInStock
	}
	product.Images = pq.StringArray(r.Images)
	product.Featured = r.Featured
	product.IsActive = r.IsActive
	return nil
}

func (h *ProductHandler) loadCategories(ids []string) ([]models.Category, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	parsed := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.New("invalid category id")
		}
		parsed = append(parsed, id)
	}

	var categories []models.Category
	if err := h.db.Find(&categories, "id IN ?", parsed).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateProduct persists a new product (admin).
func (h *ProductHandler) CreateProduct(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.Name == "" || req.Price == "" || req.SKU == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing required fields")
	}

	var product models.Product
	if err := req.apply(&product); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	categories, err := h.loadCategories(req.CategoryIDs)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	product.Categories = categories

	if err := h.db.Create(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fiber.NewError(fiber.StatusConflict, "slug or sku already exists")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": product})
}

// UpdateProduct updates an existing product (admin).
func (h *ProductHandler) UpdateProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if err := req.apply(&product); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := h.db.Save(&product).Error; err != nil {
		return err
	}

	if req.CategoryIDs != nil {
		categories, err := h.loadCategories(req.CategoryIDs)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := h.db.Model(&product).Association("Categories").Replace(categories); err != nil {
			return err
		}
	}

	return c.JSON(fiber.Map{"success": true, "data": product})
}

// DeleteProduct removes a product (admin). Placed orders keep their own item
// snapshots, so deleting a product never touches order history.
func (h *ProductHandler) DeleteProduct(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := h.db.Delete(&models.Product{}, "id = ?", id).Error; err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}
