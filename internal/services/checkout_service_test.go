package services

import (
	"errors"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/example/gerai/internal/models"
)

// fakeOrderStore is an in-memory OrderStore. saveErrs is consumed one error
// per SaveOrderAndClearCart call; once drained, saves succeed.
type fakeOrderStore struct {
	taken    map[string]bool
	saveErrs []error
	saved    []*models.Order
	attempts []string
}

func (f *fakeOrderStore) OrderNumberTaken(number string) (bool, error) {
	return f.taken[number], nil
}

func (f *fakeOrderStore) SaveOrderAndClearCart(order *models.Order, cart *models.Cart) error {
	f.attempts = append(f.attempts, order.OrderNumber)
	if len(f.saveErrs) > 0 {
		err := f.saveErrs[0]
		f.saveErrs = f.saveErrs[1:]
		if err != nil {
			return err
		}
	}
	f.saved = append(f.saved, order)
	return nil
}

func checkoutServiceWithStore(t *testing.T, store OrderStore) *CheckoutService {
	t.Helper()
	return NewCheckoutService(store, NewStaticRateSource(), amount(t, "15.00"), "IDR")
}

func amount(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return d
}

func cartWithSubtotal(t *testing.T, subtotal string) *models.Cart {
	cart := &models.Cart{}
	cart.AddItem(uuid.New(), 4, models.ItemSnapshot{
		Name:      "Tee",
		UnitPrice: amount(t, subtotal).Div(decimal.NewFromInt(4)),
		SKU:       "TEE-1",
	})
	require.True(t, cart.Subtotal.Equal(amount(t, subtotal)))
	return cart
}

func checkoutAddress() models.Address {
	return models.Address{
		FirstName:    "Ayu",
		LastName:     "Santoso",
		Email:        "ayu@example.com",
		Phone:        "+62811111111",
		AddressLine1: "Jl. Sudirman 1",
		City:         "Jakarta",
		State:        "DKI Jakarta",
		PostalCode:   "10110",
		Country:      "ID",
	}
}

func TestBuildOrderBankTransfer(t *testing.T) {
	cart := cartWithSubtotal(t, "200000")
	shipping := amount(t, "15.00")

	order := buildOrder(cart, CheckoutInput{
		PaymentMethod:   models.PaymentMethodBankTransfer,
		BillingAddress:  checkoutAddress(),
		ShippingAddress: checkoutAddress(),
	}, nil, shipping, "IDR")

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
	assert.Equal(t, models.PaymentMethodBankTransfer, order.PaymentMethod)
	assert.Equal(t, "IDR", order.Currency)
	assert.True(t, order.Subtotal.Equal(amount(t, "200000")))
	assert.True(t, order.TaxAmount.IsZero())
	assert.True(t, order.ShippingAmount.Equal(shipping))
	assert.True(t, order.Total.Equal(amount(t, "200015.00")))

	// Non-crypto methods never carry the crypto triple.
	assert.Nil(t, order.CryptoAmount)
	assert.Nil(t, order.CryptoCurrency)
	assert.Nil(t, order.CryptoRate)
}

func TestBuildOrderTotalIsExactSum(t *testing.T) {
	cart := cartWithSubtotal(t, "123456.78")
	shipping := amount(t, "15.00")

	order := buildOrder(cart, CheckoutInput{PaymentMethod: models.PaymentMethodQRIS}, nil, shipping, "IDR")

	expected := order.Subtotal.Add(order.TaxAmount).Add(order.ShippingAmount)
	assert.True(t, order.Total.Equal(expected), "total %s != %s", order.Total, expected)
}

func TestBuildOrderBitcoin(t *testing.T) {
	cart := cartWithSubtotal(t, "200000")
	shipping := amount(t, "15.00")
	rate := decimal.NewFromInt(650_000_000)
	rates := RateTable{"BTC": rate}

	order := buildOrder(cart, CheckoutInput{
		PaymentMethod:   models.PaymentMethodBitcoin,
		BillingAddress:  checkoutAddress(),
		ShippingAddress: checkoutAddress(),
	}, rates, shipping, "IDR")

	require.NotNil(t, order.CryptoAmount)
	require.NotNil(t, order.CryptoCurrency)
	require.NotNil(t, order.CryptoRate)

	assert.Equal(t, "BTC", *order.CryptoCurrency)
	assert.True(t, order.CryptoRate.Equal(rate))

	expected := order.Total.DivRound(rate, 8)
	assert.True(t, order.CryptoAmount.Equal(expected), "crypto amount %s != %s", order.CryptoAmount, expected)

	// Round-tripping back through the rate stays within one minor unit.
	back := order.CryptoAmount.Mul(rate)
	diff := back.Sub(order.Total).Abs()
	assert.True(t, diff.LessThanOrEqual(amount(t, "0.01")), "drift %s too large", diff)
}

func TestBuildOrderMissingRateOmitsCryptoFields(t *testing.T) {
	cart := cartWithSubtotal(t, "200000")

	order := buildOrder(cart, CheckoutInput{
		PaymentMethod: models.PaymentMethodEthereum,
	}, RateTable{"BTC": decimal.NewFromInt(650_000_000)}, amount(t, "15.00"), "IDR")

	// The order is still placed; settlement is reconciled out of band.
	assert.Nil(t, order.CryptoAmount)
	assert.Nil(t, order.CryptoCurrency)
	assert.Nil(t, order.CryptoRate)
	assert.Equal(t, models.PaymentMethodEthereum, order.PaymentMethod)
}

func TestBuildOrderFreezesItemsSnapshot(t *testing.T) {
	cart := &models.Cart{}
	productID := uuid.New()
	cart.AddItem(productID, 2, models.ItemSnapshot{Name: "Tee", UnitPrice: amount(t, "50000")})

	order := buildOrder(cart, CheckoutInput{PaymentMethod: models.PaymentMethodQRIS}, nil, amount(t, "15.00"), "IDR")

	// Later cart mutation must not reach the placed order.
	cart.AddItem(uuid.New(), 1, models.ItemSnapshot{Name: "Mug", UnitPrice: amount(t, "25000")})
	cart.UpdateItemQuantity(productID, 9)
	cart.Clear()

	require.Len(t, order.Items, 1)
	assert.Equal(t, productID, order.Items[0].ProductID)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.True(t, order.Items[0].UnitPrice.Equal(amount(t, "50000")))
}

func TestBuildOrderCopiesNotesAndAddresses(t *testing.T) {
	cart := cartWithSubtotal(t, "100000")
	billing := checkoutAddress()
	shippingAddr := checkoutAddress()
	shippingAddr.City = "Bandung"

	order := buildOrder(cart, CheckoutInput{
		PaymentMethod:   models.PaymentMethodQRIS,
		BillingAddress:  billing,
		ShippingAddress: shippingAddr,
		Notes:           "leave at the door",
	}, nil, amount(t, "15.00"), "IDR")

	assert.Equal(t, billing, order.BillingAddress)
	assert.Equal(t, "Bandung", order.ShippingAddress.City)
	assert.Equal(t, "leave at the door", order.Notes)
}

func TestGenerateOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-[0-9A-F]{12}$`)

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		number, err := generateOrderNumber()
		require.NoError(t, err)
		assert.Regexp(t, pattern, number)
		assert.False(t, seen[number], "duplicate number %s", number)
		seen[number] = true
	}
}

func TestPickOrderNumberRetriesOnCollision(t *testing.T) {
	calls := 0
	number, err := pickOrderNumber(func(candidate string) (bool, error) {
		calls++
		return calls == 1, nil // first candidate is taken
	})

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.NotEmpty(t, number)
}

func TestPickOrderNumberExhaustsRetries(t *testing.T) {
	calls := 0
	_, err := pickOrderNumber(func(candidate string) (bool, error) {
		calls++
		return true, nil // every candidate is taken
	})

	assert.ErrorIs(t, err, ErrOrderNumberExhausted)
	assert.Equal(t, orderNumberAttempts, calls)
}

func TestPlaceOrderPersistsAndClearsCart(t *testing.T) {
	store := &fakeOrderStore{}
	svc := checkoutServiceWithStore(t, store)
	cart := cartWithSubtotal(t, "200000")

	order, err := svc.PlaceOrder(cart, CheckoutInput{
		PaymentMethod:   models.PaymentMethodQRIS,
		BillingAddress:  checkoutAddress(),
		ShippingAddress: checkoutAddress(),
	})

	require.NoError(t, err)
	require.Len(t, store.saved, 1)
	assert.Regexp(t, `^ORD-[0-9A-F]{12}$`, order.OrderNumber)
	assert.True(t, order.Total.Equal(amount(t, "200015.00")))

	assert.True(t, cart.IsEmpty())
	assert.True(t, cart.Subtotal.IsZero())
	assert.True(t, cart.Total.IsZero())
}

func TestPlaceOrderEmptyCartRejected(t *testing.T) {
	store := &fakeOrderStore{}
	svc := checkoutServiceWithStore(t, store)

	_, err := svc.PlaceOrder(&models.Cart{}, CheckoutInput{PaymentMethod: models.PaymentMethodQRIS})

	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Empty(t, store.attempts)
}

func TestPlaceOrderFailureLeavesCartIntact(t *testing.T) {
	store := &fakeOrderStore{saveErrs: []error{errors.New("connection reset")}}
	svc := checkoutServiceWithStore(t, store)
	cart := cartWithSubtotal(t, "200000")

	_, err := svc.PlaceOrder(cart, CheckoutInput{
		PaymentMethod:   models.PaymentMethodBankTransfer,
		BillingAddress:  checkoutAddress(),
		ShippingAddress: checkoutAddress(),
	})

	require.Error(t, err)
	assert.Empty(t, store.saved)

	// The buyer can retry: the cart still holds its items and totals.
	assert.False(t, cart.IsEmpty())
	assert.Equal(t, 4, cart.ItemsCount())
	assert.True(t, cart.Subtotal.Equal(amount(t, "200000")))
}

func TestPlaceOrderRegeneratesNumberOnDuplicate(t *testing.T) {
	store := &fakeOrderStore{saveErrs: []error{gorm.ErrDuplicatedKey}}
	svc := checkoutServiceWithStore(t, store)
	cart := cartWithSubtotal(t, "200000")

	order, err := svc.PlaceOrder(cart, CheckoutInput{
		PaymentMethod:   models.PaymentMethodQRIS,
		BillingAddress:  checkoutAddress(),
		ShippingAddress: checkoutAddress(),
	})

	require.NoError(t, err)
	require.Len(t, store.attempts, 2)
	assert.NotEqual(t, store.attempts[0], store.attempts[1])
	assert.Equal(t, store.attempts[1], order.OrderNumber)
	assert.True(t, cart.IsEmpty())
}

func TestPlaceOrderGivesUpAfterRepeatedDuplicates(t *testing.T) {
	saveErrs := make([]error, orderNumberAttempts)
	for i := range saveErrs {
		saveErrs[i] = gorm.ErrDuplicatedKey
	}
	store := &fakeOrderStore{saveErrs: saveErrs}
	svc := checkoutServiceWithStore(t, store)
	cart := cartWithSubtotal(t, "200000")

	_, err := svc.PlaceOrder(cart, CheckoutInput{PaymentMethod: models.PaymentMethodQRIS})

	assert.ErrorIs(t, err, ErrOrderNumberExhausted)
	assert.Len(t, store.attempts, orderNumberAttempts)
	assert.False(t, cart.IsEmpty())
}

func TestPlaceOrderCarriesCartOwner(t *testing.T) {
	store := &fakeOrderStore{}
	svc := checkoutServiceWithStore(t, store)
	cart := cartWithSubtotal(t, "100000")
	userID := uuid.New()
	cart.UserID = &userID

	order, err := svc.PlaceOrder(cart, CheckoutInput{PaymentMethod: models.PaymentMethodQRIS})

	require.NoError(t, err)
	require.NotNil(t, order.UserID)
	assert.Equal(t, userID, *order.UserID)
}

func TestStaticRateSourceReturnsCopy(t *testing.T) {
	source := NewStaticRateSource()

	rates := source.Rates()
	assert.True(t, rates["BTC"].Equal(decimal.NewFromInt(650_000_000)))
	assert.True(t, rates["ETH"].Equal(decimal.NewFromInt(45_000_000)))

	// Mutating the returned table must not leak into the source.
	rates["BTC"] = decimal.NewFromInt(1)
	delete(rates, "ETH")

	fresh := source.Rates()
	assert.True(t, fresh["BTC"].Equal(decimal.NewFromInt(650_000_000)))
	assert.True(t, fresh["ETH"].Equal(decimal.NewFromInt(45_000_000)))
}
