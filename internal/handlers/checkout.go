package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/gerai/internal/middleware"
	"github.com/example/gerai/internal/models"
	"github.com/example/gerai/internal/services"
)

// CheckoutHandler drives the cart-to-order transition.
type CheckoutHandler struct {
	db       *gorm.DB
	carts    *services.CartService
	checkout *services.CheckoutService
	rates    services.RateSource
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(db *gorm.DB, carts *services.CartService, checkout *services.CheckoutService, rates services.RateSource) *CheckoutHandler {
	return &CheckoutHandler{db: db, carts: carts, checkout: checkout, rates: rates}
}

// Rates exposes the current crypto rate table for the checkout page.
func (h *CheckoutHandler) Rates(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "data": h.rates.Rates()})
}

type addressRequest struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

func (a addressRequest) toAddress() models.Address {
	return models.Address{
		FirstName:    a.FirstName,
		LastName:     a.LastName,
		Email:        a.Email,
		Phone:        a.Phone,
		AddressLine1: a.AddressLine1,
		AddressLine2: a.AddressLine2,
		City:         a.City,
		State:        a.State,
		PostalCode:   a.PostalCode,
		Country:      a.Country,
	}
}

func (a addressRequest) validate(requireContact bool) error {
	switch {
	case a.FirstName == "", a.LastName == "", a.AddressLine1 == "",
		a.City == "", a.State == "", a.PostalCode == "", a.Country == "":
		return errors.New("missing required address fields")
	}
	if requireContact && (a.Email == "" || a.Phone == "") {
		return errors.New("missing contact details")
	}
	return nil
}

type placeOrderRequest struct {
	PaymentMethod   string         `json:"payment_method"`
	BillingAddress  addressRequest `json:"billing_address"`
	ShippingAddress addressRequest `json:"shipping_address"`
	Notes           string         `json:"notes"`
}

// PlaceOrder converts the owner's cart into an order. The cart keeps its
// contents whenever order persistence fails.
func (h *CheckoutHandler) PlaceOrder(c *fiber.Ctx) error {
	owner, err := ownerFromRequest(c)
	if err != nil {
		return err
	}

	var req placeOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	method := models.PaymentMethod(req.PaymentMethod)
	if !method.IsValid() {
		return fiber.NewError(fiber.StatusBadRequest, "invalid payment method")
	}

	if err := req.BillingAddress.validate(true); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "billing address: "+err.Error())
	}
	if err := req.ShippingAddress.validate(false); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "shipping address: "+err.Error())
	}

	cart, err := h.carts.Resolve(owner)
	if err != nil {
		return err
	}

	if cart.IsEmpty() {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "your cart is empty")
	}

	order, err := h.checkout.PlaceOrder(cart, services.CheckoutInput{
		PaymentMethod:   method,
		BillingAddress:  req.BillingAddress.toAddress(),
		ShippingAddress: req.ShippingAddress.toAddress(),
		Notes:           req.Notes,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmptyCart) {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "your cart is empty")
		}
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"order_number":    order.OrderNumber,
			"status":          order.Status,
			"payment_status":  order.PaymentStatus,
			"payment_method":  order.PaymentMethod,
			"total":           order.Total,
			"currency":        order.Currency,
			"crypto_amount":   order.CryptoAmount,
			"crypto_currency": order.CryptoCurrency,
			"crypto_rate":     order.CryptoRate,
		},
	})
}

// Success returns a placed order by number for the receipt page. Orders that
// belong to a user are only visible to that user.
func (h *CheckoutHandler) Success(c *fiber.Ctx) error {
	number := c.Params("orderNumber")

	var order models.Order
	if err := h.db.First(&order, "order_number = ?", number).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "order not found")
		}
		return err
	}

	if order.UserID != nil {
		userID, ok := middleware.GetCurrentUserID(c)
		if !ok || userID != *order.UserID {
			return fiber.NewError(fiber.StatusForbidden, "forbidden")
		}
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    order,
		"flags": fiber.Map{
			"is_paid":          order.IsPaid(),
			"can_be_cancelled": order.CanBeCancelled(),
			"items_count":      order.ItemsCount(),
		},
	})
}
