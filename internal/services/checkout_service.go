package services

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/example/gerai/internal/models"
)

const (
	orderNumberPrefix = "ORD-"
	// Collisions on 12 hex chars are astronomically unlikely; the bound only
	// guarantees termination.
	orderNumberAttempts = 5
)

var (
	// ErrEmptyCart is returned when checkout is attempted on a cart with no
	// items. The handler rejects this earlier; the service re-checks.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrOrderNumberExhausted is returned when a unique order number could
	// not be found within the retry bound.
	ErrOrderNumberExhausted = errors.New("could not generate a unique order number")
)

// OrderStore persists placed orders together with the paired cart reset.
type OrderStore interface {
	// OrderNumberTaken reports whether an order already uses the number.
	OrderNumberTaken(number string) (bool, error)

	// SaveOrderAndClearCart persists the order and empties the cart's row in
	// one transaction, so a failed insert leaves the cart untouched.
	SaveOrderAndClearCart(order *models.Order, cart *models.Cart) error
}

type gormOrderStore struct {
	db *gorm.DB
}

// NewOrderStore returns the gorm-backed OrderStore.
func NewOrderStore(db *gorm.DB) OrderStore {
	return &gormOrderStore{db: db}
}

func (s *gormOrderStore) OrderNumberTaken(number string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Order{}).
		Where("order_number = ?", number).
		Count(&count).Error
	return count > 0, err
}

func (s *gormOrderStore) SaveOrderAndClearCart(order *models.Order, cart *models.Cart) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}

		// Emptying the cart rides the same transaction: if the order insert
		// rolls back, the buyer's cart survives for retry.
		return tx.Model(cart).Updates(map[string]interface{}{
			"items":      models.LineItems{},
			"subtotal":   decimal.Zero,
			"tax_amount": decimal.Zero,
			"total":      decimal.Zero,
		}).Error
	})
}

// CheckoutInput carries the buyer-supplied data for one checkout.
type CheckoutInput struct {
	PaymentMethod   models.PaymentMethod
	BillingAddress  models.Address
	ShippingAddress models.Address
	Notes           string
}

// CheckoutService converts a cart plus buyer input into a persisted order and
// clears the cart. The order write and the cart clear run in one transaction;
// if persistence fails the cart keeps its contents for retry.
type CheckoutService struct {
	store    OrderStore
	rates    RateSource
	shipping decimal.Decimal
	currency string
}

// NewCheckoutService constructs CheckoutService. The flat shipping rate and
// settlement currency come from configuration.
func NewCheckoutService(store OrderStore, rates RateSource, shipping decimal.Decimal, currency string) *CheckoutService {
	return &CheckoutService{store: store, rates: rates, shipping: shipping, currency: currency}
}

// PlaceOrder builds an order from the cart, assigns a collision-checked order
// number, persists it and clears the cart. The owning user is optional; guest
// checkout produces an order with no user.
func (s *CheckoutService) PlaceOrder(cart *models.Cart, input CheckoutInput) (*models.Order, error) {
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	var rates RateTable
	if input.PaymentMethod.IsCrypto() {
		rates = s.rates.Rates()
	}

	order := buildOrder(cart, input, rates, s.shipping, s.currency)
	order.UserID = cart.UserID

	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		number, err := pickOrderNumber(s.store.OrderNumberTaken)
		if err != nil {
			return nil, err
		}
		order.OrderNumber = number

		err = s.store.SaveOrderAndClearCart(order, cart)
		if err == nil {
			cart.Clear()
			return order, nil
		}
		// A concurrent checkout can win the same number between our
		// pre-check and the insert; regenerate and try again.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			continue
		}
		return nil, fmt.Errorf("place order: %w", err)
	}

	return nil, ErrOrderNumberExhausted
}

// buildOrder computes the immutable order snapshot from the cart and buyer
// input. It does not touch storage.
func buildOrder(cart *models.Cart, input CheckoutInput, rates RateTable, shipping decimal.Decimal, currency string) *models.Order {
	order := &models.Order{
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		PaymentMethod:   input.PaymentMethod,
		Subtotal:        cart.Subtotal,
		TaxAmount:       cart.TaxAmount,
		ShippingAmount:  shipping,
		Total:           cart.Subtotal.Add(cart.TaxAmount).Add(shipping),
		Currency:        currency,
		BillingAddress:  input.BillingAddress,
		ShippingAddress: input.ShippingAddress,
		Items:           snapshotItems(cart.Items),
		Notes:           input.Notes,
	}

	if input.PaymentMethod.IsCrypto() {
		symbol := input.PaymentMethod.CryptoSymbol()
		if rate, ok := rates[symbol]; ok {
			amount := order.Total.DivRound(rate, 8)
			order.CryptoAmount = &amount
			order.CryptoCurrency = &symbol
			order.CryptoRate = &rate
		}
		// A missing rate leaves the crypto fields unset; the order is still
		// placed and settlement is reconciled out of band.
	}

	return order
}

// snapshotItems deep-copies the cart's lines so later cart mutation can never
// reach into a placed order.
func snapshotItems(items models.LineItems) models.LineItems {
	frozen := make(models.LineItems, len(items))
	copy(frozen, items)
	return frozen
}

// pickOrderNumber generates candidates until one is not taken, within the
// retry bound.
func pickOrderNumber(taken func(string) (bool, error)) (string, error) {
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		candidate, err := generateOrderNumber()
		if err != nil {
			return "", err
		}

		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", ErrOrderNumberExhausted
}

func generateOrderNumber() (string, error) {
	buf := make([]byte, 6)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate order number: %w", err)
	}
	return orderNumberPrefix + strings.ToUpper(hex.EncodeToString(buf)), nil
}
