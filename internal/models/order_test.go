package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderIsPaid(t *testing.T) {
	order := &Order{PaymentStatus: PaymentStatusPending}
	assert.False(t, order.IsPaid())

	order.PaymentStatus = PaymentStatusPaid
	assert.True(t, order.IsPaid())
}

func TestOrderCanBeCancelled(t *testing.T) {
	tests := []struct {
		name          string
		status        OrderStatus
		paymentStatus PaymentStatus
		want          bool
	}{
		{"pending unpaid", OrderStatusPending, PaymentStatusPending, true},
		{"processing unpaid", OrderStatusProcessing, PaymentStatusPending, true},
		{"pending paid", OrderStatusPending, PaymentStatusPaid, false},
		{"processing paid", OrderStatusProcessing, PaymentStatusPaid, false},
		{"shipped unpaid", OrderStatusShipped, PaymentStatusPending, false},
		{"delivered paid", OrderStatusDelivered, PaymentStatusPaid, false},
		{"cancelled", OrderStatusCancelled, PaymentStatusPending, false},
		{"refunded", OrderStatusRefunded, PaymentStatusRefunded, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := &Order{Status: tt.status, PaymentStatus: tt.paymentStatus}
			assert.Equal(t, tt.want, order.CanBeCancelled())
		})
	}
}

func TestOrderItemsCount(t *testing.T) {
	order := &Order{Items: LineItems{
		{Quantity: 2},
		{Quantity: 3},
		{Quantity: 1},
	}}

	assert.Equal(t, 6, order.ItemsCount())

	empty := &Order{}
	assert.Equal(t, 0, empty.ItemsCount())
}

func TestPaymentMethodValidation(t *testing.T) {
	for _, m := range []PaymentMethod{
		PaymentMethodQRIS, PaymentMethodBankTransfer, PaymentMethodBitcoin, PaymentMethodEthereum,
	} {
		assert.True(t, m.IsValid(), "%s should be valid", m)
	}

	assert.False(t, PaymentMethod("paypal").IsValid())
	assert.False(t, PaymentMethod("").IsValid())
}

func TestPaymentMethodCrypto(t *testing.T) {
	assert.True(t, PaymentMethodBitcoin.IsCrypto())
	assert.True(t, PaymentMethodEthereum.IsCrypto())
	assert.False(t, PaymentMethodQRIS.IsCrypto())
	assert.False(t, PaymentMethodBankTransfer.IsCrypto())

	assert.Equal(t, "BTC", PaymentMethodBitcoin.CryptoSymbol())
	assert.Equal(t, "ETH", PaymentMethodEthereum.CryptoSymbol())
	assert.Equal(t, "", PaymentMethodBankTransfer.CryptoSymbol())
}

func TestOrderStatusValidation(t *testing.T) {
	for _, s := range []OrderStatus{
		OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded,
	} {
		assert.True(t, s.IsValid(), "%s should be valid", s)
	}
	assert.False(t, OrderStatus("completed").IsValid())

	for _, s := range []PaymentStatus{
		PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded,
	} {
		assert.True(t, s.IsValid(), "%s should be valid", s)
	}
	assert.False(t, PaymentStatus("authorized").IsValid())
}
