package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is a snapshot of a product taken when it entered a cart. The
// descriptive fields are captured once and never re-read from the catalog, so
// later price or name changes do not affect carts or placed orders.
type LineItem struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	SKU       string          `json:"sku,omitempty"`
}

// LineTotal returns unit price multiplied by quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.UnitPrice.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// LineItems is stored as a jsonb column on carts and orders.
type LineItems []LineItem

// Value implements driver.Valuer.
func (li LineItems) Value() (driver.Value, error) {
	if li == nil {
		li = LineItems{}
	}
	return json.Marshal(li)
}

// Scan implements sql.Scanner.
func (li *LineItems) Scan(value interface{}) error {
	if value == nil {
		*li = LineItems{}
		return nil
	}

	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, li)
	case string:
		return json.Unmarshal([]byte(data), li)
	default:
		return errors.New("unsupported type for LineItems")
	}
}

// ItemSnapshot carries the catalog data captured when a product is added to a
// cart. Callers build it from the product's current state.
type ItemSnapshot struct {
	Name      string
	UnitPrice decimal.Decimal
	Image     string
	SKU       string
}

// Cart holds in-progress purchase intent for one owner. Exactly one of UserID
// and SessionID is set; both carry unique indexes so an owner can never hold
// two carts. Totals are derived from Items and recomputed after every
// mutation.
type Cart struct {
	BaseModel
	UserID    *uuid.UUID      `gorm:"type:uuid;uniqueIndex" json:"user_id,omitempty"`
	User      *User           `json:"user,omitempty"`
	SessionID *string         `gorm:"uniqueIndex" json:"session_id,omitempty"`
	Items     LineItems       `gorm:"type:jsonb" json:"items"`
	Subtotal  decimal.Decimal `gorm:"type:numeric(10,2)" json:"subtotal"`
	TaxAmount decimal.Decimal `gorm:"type:numeric(10,2)" json:"tax_amount"`
	Total     decimal.Decimal `gorm:"type:numeric(10,2)" json:"total"`
}

// AddItem merges quantity into an existing line for the product, or appends a
// new line built from the snapshot. Quantities below one are clamped to one.
func (c *Cart) AddItem(productID uuid.UUID, quantity int, snapshot ItemSnapshot) {
	if quantity < 1 {
		quantity = 1
	}

	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.recalculateTotals()
			return
		}
	}

	c.Items = append(c.Items, LineItem{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: snapshot.UnitPrice,
		Name:      snapshot.Name,
		Image:     snapshot.Image,
		SKU:       snapshot.SKU,
	})
	c.recalculateTotals()
}

// UpdateItemQuantity sets the absolute quantity for a product. Zero or
// negative removes the line. Unknown products are a silent no-op so client
// retries stay idempotent.
func (c *Cart) UpdateItemQuantity(productID uuid.UUID, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID)
		return
	}

	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			break
		}
	}

	c.recalculateTotals()
}

// RemoveItem drops the line for a product, preserving the order of the rest.
// Absent products are a silent no-op.
func (c *Cart) RemoveItem(productID uuid.UUID) {
	items := c.Items[:0]
	for _, item := range c.Items {
		if item.ProductID != productID {
			items = append(items, item)
		}
	}

	c.Items = items
	c.recalculateTotals()
}

// Clear empties the cart and zeroes all totals. Runs after a successful
// checkout so the same cart row can be reused.
func (c *Cart) Clear() {
	c.Items = LineItems{}
	c.Subtotal = decimal.Zero
	c.TaxAmount = decimal.Zero
	c.Total = decimal.Zero
}

// ItemsCount returns the sum of quantities across all lines.
func (c *Cart) ItemsCount() int {
	count := 0
	for _, item := range c.Items {
		count += item.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range c.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}

	c.Subtotal = subtotal
	c.TaxAmount = decimal.Zero // tax rules plug in here
	c.Total = c.Subtotal.Add(c.TaxAmount)
}
