package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockStatus values for Product.StockStatus.
const (
	StockStatusInStock    = "in_stock"
	StockStatusOutOfStock = "out_of_stock"
	StockStatusBackorder  = "backorder"
)

// JSONMap is a free-form jsonb column.
type JSONMap map[string]interface{}

// Value implements driver.Valuer.
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan implements sql.Scanner.
func (m *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	switch data := value.(type) {
	case []byte:
		return json.Unmarshal(data, m)
	case string:
		return json.Unmarshal([]byte(data), m)
	default:
		return errors.New("unsupported type for JSONMap")
	}
}

// Product is a catalog entry. Carts and orders never reference it live; they
// capture a LineItem snapshot at add-to-cart time instead.
type Product struct {
	BaseModel
	Name             string           `json:"name"`
	Slug             string           `gorm:"uniqueIndex" json:"slug"`
	Description      string           `gorm:"type:text" json:"description"`
	ShortDescription string           `json:"short_description"`
	Price            decimal.Decimal  `gorm:"type:numeric(10,2)" json:"price"`
	SalePrice        *decimal.Decimal `gorm:"type:numeric(10,2)" json:"sale_price,omitempty"`
	SKU              string           `gorm:"uniqueIndex" json:"sku"`
	StockQuantity    int              `json:"stock_quantity"`
	ManageStock      bool             `json:"manage_stock"`
	StockStatus      string           `json:"stock_status"`
	Weight           *decimal.Decimal `gorm:"type:numeric(10,2)" json:"weight,omitempty"`
	Images           pq.StringArray   `gorm:"type:text[]" json:"images"`
	Featured         bool             `json:"featured"`
	IsActive         bool             `json:"is_active"`
	MetaData         JSONMap          `gorm:"type:jsonb" json:"meta_data,omitempty"`
	Categories       []Category       `gorm:"many2many:product_categories;" json:"categories,omitempty"`
}

// CurrentPrice returns the sale price when one is set, otherwise the regular
// price. Computed on read, never stored.
func (p *Product) CurrentPrice() decimal.Decimal {
	if p.SalePrice != nil {
		return *p.SalePrice
	}
	return p.Price
}

// IsOnSale reports whether a discounted price is in effect.
func (p *Product) IsOnSale() bool {
	return p.SalePrice != nil && p.SalePrice.LessThan(p.Price)
}

// IsInStock reports whether the product can currently be added to a cart.
func (p *Product) IsInStock() bool {
	return p.StockStatus == StockStatusInStock && (!p.ManageStock || p.StockQuantity > 0)
}

// MainImage returns the first image URL, or empty when none exist.
func (p *Product) MainImage() string {
	if len(p.Images) > 0 {
		return p.Images[0]
	}
	return ""
}

// Snapshot captures the fields a cart line needs at add time.
func (p *Product) Snapshot() ItemSnapshot {
	return ItemSnapshot{
		Name:      p.Name,
		UnitPrice: p.CurrentPrice(),
		Image:     p.MainImage(),
		SKU:       p.SKU,
	}
}

// ActiveProducts scopes a query to active products.
func ActiveProducts(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// FeaturedProducts scopes a query to featured products.
func FeaturedProducts(db *gorm.DB) *gorm.DB {
	return db.Where("featured = ?", true)
}

// InStockProducts scopes a query to products currently purchasable.
func InStockProducts(db *gorm.DB) *gorm.DB {
	return db.Where("stock_status = ?", StockStatusInStock).
		Where("manage_stock = ? OR stock_quantity > 0", false)
}
