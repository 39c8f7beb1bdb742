package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus tracks fulfillment of a placed order.
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRefunded   OrderStatus = "refunded"
)

// IsValid reports whether the value is one of the known order statuses.
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled, OrderStatusRefunded:
		return true
	}
	return false
}

// PaymentStatus tracks settlement of a placed order.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// IsValid reports whether the value is one of the known payment statuses.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// PaymentMethod is chosen at checkout and immutable afterwards.
type PaymentMethod string

const (
	PaymentMethodQRIS         PaymentMethod = "qris"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodBitcoin      PaymentMethod = "bitcoin"
	PaymentMethodEthereum     PaymentMethod = "ethereum"
)

// IsValid reports whether the value is one of the supported payment methods.
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodQRIS, PaymentMethodBankTransfer, PaymentMethodBitcoin, PaymentMethodEthereum:
		return true
	}
	return false
}

// IsCrypto reports whether the method settles in a cryptocurrency.
func (m PaymentMethod) IsCrypto() bool {
	return m == PaymentMethodBitcoin || m == PaymentMethodEthereum
}

// CryptoSymbol returns the market symbol used to key the rate table.
func (m PaymentMethod) CryptoSymbol() string {
	switch m {
	case PaymentMethodBitcoin:
		return "BTC"
	case PaymentMethodEthereum:
		return "ETH"
	}
	return ""
}

// Address is a buyer-supplied snapshot captured at checkout, stored as jsonb.
type Address struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	AddressLine1 string `json:"address_line_1"`
	AddressLine2 string `json:"address_line_2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
}

// Value implements driver.Valuer.
func (a Address) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements sql.Scanner.
func (a *Address) Scan(value interface{}) error {
	if value == nil {
		*a = Address{}
		return nil
	}

	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, a)
	case string:
		return json.Unmarshal([]byte(data), a)
	default:
		return errors.New("unsupported type for Address")
	}
}

// Order is the immutable record of a completed checkout. Totals, addresses
// and items are frozen at creation; only status, payment status and the
// fulfillment timestamps change afterwards. The crypto triple is either fully
// populated or fully absent.
type Order struct {
	BaseModel
	OrderNumber     string           `gorm:"uniqueIndex" json:"order_number"`
	UserID          *uuid.UUID       `gorm:"type:uuid;index" json:"user_id,omitempty"`
	User            *User            `json:"user,omitempty"`
	Status          OrderStatus      `gorm:"type:varchar(20);index" json:"status"`
	PaymentStatus   PaymentStatus    `gorm:"type:varchar(20);index" json:"payment_status"`
	PaymentMethod   PaymentMethod    `gorm:"type:varchar(20)" json:"payment_method"`
	Subtotal        decimal.Decimal  `gorm:"type:numeric(10,2)" json:"subtotal"`
	TaxAmount       decimal.Decimal  `gorm:"type:numeric(10,2)" json:"tax_amount"`
	ShippingAmount  decimal.Decimal  `gorm:"type:numeric(10,2)" json:"shipping_amount"`
	Total           decimal.Decimal  `gorm:"type:numeric(10,2)" json:"total"`
	Currency        string           `gorm:"type:varchar(3)" json:"currency"`
	CryptoAmount    *decimal.Decimal `gorm:"type:numeric(18,8)" json:"crypto_amount,omitempty"`
	CryptoCurrency  *string          `gorm:"type:varchar(10)" json:"crypto_currency,omitempty"`
	CryptoRate      *decimal.Decimal `gorm:"type:numeric(15,2)" json:"crypto_rate,omitempty"`
	BillingAddress  Address          `gorm:"type:jsonb" json:"billing_address"`
	ShippingAddress Address          `gorm:"type:jsonb" json:"shipping_address"`
	Items           LineItems        `gorm:"type:jsonb" json:"items"`
	Notes           string           `gorm:"type:text" json:"notes,omitempty"`
	ShippedAt       *time.Time       `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time       `json:"delivered_at,omitempty"`
}

// IsPaid reports whether payment has settled.
func (o *Order) IsPaid() bool {
	return o.PaymentStatus == PaymentStatusPaid
}

// CanBeCancelled reports whether the order is still early enough in its life
// to cancel: not yet shipped and not yet paid.
func (o *Order) CanBeCancelled() bool {
	return (o.Status == OrderStatusPending || o.Status == OrderStatusProcessing) &&
		o.PaymentStatus != PaymentStatusPaid
}

// ItemsCount returns the sum of quantities across the frozen items.
func (o *Order) ItemsCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}
