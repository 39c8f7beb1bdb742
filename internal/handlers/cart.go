package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/example/gerai/internal/middleware"
	"github.com/example/gerai/internal/models"
	"github.com/example/gerai/internal/services"
)

// CartHandler manages the shopping cart endpoints for users and guests.
type CartHandler struct {
	db    *gorm.DB
	carts *services.CartService
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(db *gorm.DB, carts *services.CartService) *CartHandler {
	return &CartHandler{db: db, carts: carts}
}

// ownerFromRequest derives the cart owner: the authenticated user when a
// token is present, otherwise the guest session key.
func ownerFromRequest(c *fiber.Ctx) (services.Owner, error) {
	if userID, ok := middleware.GetCurrentUserID(c); ok {
		return services.UserOwner(userID), nil
	}

	if key := middleware.GetSessionKey(c); key != "" {
		return services.GuestOwner(key), nil
	}

	return services.Owner{}, fiber.NewError(fiber.StatusBadRequest, "missing session key")
}

// GetCart returns the owner's cart, creating an empty one on first access.
func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	owner, err := ownerFromRequest(c)
	if err != nil {
		return err
	}

	cart, err := h.carts.Resolve(owner)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"data":        cart,
		"items_count": cart.ItemsCount(),
	})
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddItem validates the product and stock, then merges the quantity into the
// cart with a price/name snapshot captured now.
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	owner, err := ownerFromRequest(c)
	if err != nil {
		return err
	}

	var req addItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	if req.Quantity < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "quantity must be at least 1")
	}

	var product models.Product
	if err := h.db.First(&product, "id = ?", productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "product not found")
		}
		return err
	}

	if !product.IsActive {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "product is not available")
	}

	if !product.IsInStock() {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "product is out of stock")
	}

	if product.ManageStock && product.StockQuantity < req.Quantity {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "insufficient stock available")
	}

	cart, err := h.carts.AddItem(owner, productID, req.Quantity, product.Snapshot())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":     true,
		"data":        cart,
		"items_count": cart.ItemsCount(),
	})
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem sets the absolute quantity for a cart line; zero or negative
// removes it.
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	owner, err := ownerFromRequest(c)
	if err != nil {
		return err
	}

	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	var req updateItemRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	cart, err := h.carts.UpdateItemQuantity(owner, productID, req.Quantity)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"data":        cart,
		"items_count": cart.ItemsCount(),
	})
}

// RemoveItem drops a cart line. Removing an absent product still succeeds.
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	owner, err := ownerFromRequest(c)
	if err != nil {
		return err
	}

	productID, err := uuid.Parse(c.Params("productId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid product id")
	}

	cart, err := h.carts.RemoveItem(owner, productID)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":     true,
		"data":        cart,
		"items_count": cart.ItemsCount(),
	})
}
