package models

// User roles.
const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
)

// User represents a registered customer or an admin account. Guests never get
// a row here; they are identified by an opaque session key on their cart.
type User struct {
	BaseModel
	Name         string  `json:"name"`
	Email        string  `gorm:"uniqueIndex" json:"email"`
	PasswordHash string  `json:"-"`
	Role         string  `gorm:"default:customer" json:"role"`
	Orders       []Order `json:"orders,omitempty"`
}

// IsAdmin reports whether the account may access the admin panel.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
