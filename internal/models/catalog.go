package models

// Category groups products for storefront navigation.
type Category struct {
	BaseModel
	Name        string    `json:"name"`
	Slug        string    `gorm:"uniqueIndex" json:"slug"`
	Description string    `gorm:"type:text" json:"description"`
	Image       string    `json:"image"`
	IsActive    bool      `json:"is_active"`
	SortOrder   int       `json:"sort_order"`
	Products    []Product `gorm:"many2many:product_categories;" json:"products,omitempty"`
}
