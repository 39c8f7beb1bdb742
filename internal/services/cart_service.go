package services

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/gerai/internal/models"
)

// ErrNoOwner is returned when a cart operation arrives without a user or a
// guest session key.
var ErrNoOwner = errors.New("cart owner not identified")

// Owner identifies who a cart belongs to: a registered user or an anonymous
// session. Construct it with UserOwner or GuestOwner so exactly one identity
// is ever set.
type Owner struct {
	userID     *uuid.UUID
	sessionKey *string
}

// UserOwner builds an Owner for an authenticated user.
func UserOwner(id uuid.UUID) Owner {
	return Owner{userID: &id}
}

// GuestOwner builds an Owner for an anonymous session key.
func GuestOwner(sessionKey string) Owner {
	return Owner{sessionKey: &sessionKey}
}

// IsZero reports whether the owner carries no identity at all.
func (o Owner) IsZero() bool {
	return o.userID == nil && o.sessionKey == nil
}

func (o Owner) apply(db *gorm.DB) *gorm.DB {
	if o.userID != nil {
		return db.Where("user_id = ?", *o.userID)
	}
	return db.Where("session_id = ?", *o.sessionKey)
}

func (o Owner) newCart() models.Cart {
	return models.Cart{
		UserID:    o.userID,
		SessionID: o.sessionKey,
		Items:     models.LineItems{},
		Subtotal:  decimal.Zero,
		TaxAmount: decimal.Zero,
		Total:     decimal.Zero,
	}
}

// CartService resolves carts per owner and applies mutations as transactional
// read-modify-write cycles, so totals are always recomputed from the freshest
// item list before the row is written back.
type CartService struct {
	db *gorm.DB
}

// NewCartService constructs CartService.
func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// Resolve returns the owner's cart, creating an empty one on first access.
// Two concurrent first accesses race on the owner's unique index; the loser
// re-reads the winner's row instead of surfacing an error.
func (s *CartService) Resolve(owner Owner) (*models.Cart, error) {
	if owner.IsZero() {
		return nil, ErrNoOwner
	}

	var cart models.Cart
	err := owner.apply(s.db).First(&cart).Error
	if err == nil {
		return &cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	cart = owner.newCart()
	if err := s.db.Create(&cart).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.Cart
			if err := owner.apply(s.db).First(&existing).Error; err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}

	return &cart, nil
}

// AddItem merges the quantity into the owner's cart, capturing the snapshot
// for new lines, and persists the recomputed totals.
func (s *CartService) AddItem(owner Owner, productID uuid.UUID, quantity int, snapshot models.ItemSnapshot) (*models.Cart, error) {
	return s.mutate(owner, func(cart *models.Cart) {
		cart.AddItem(productID, quantity, snapshot)
	})
}

// UpdateItemQuantity sets an absolute quantity; zero or below removes the line.
func (s *CartService) UpdateItemQuantity(owner Owner, productID uuid.UUID, quantity int) (*models.Cart, error) {
	return s.mutate(owner, func(cart *models.Cart) {
		cart.UpdateItemQuantity(productID, quantity)
	})
}

// RemoveItem drops the line for a product if present.
func (s *CartService) RemoveItem(owner Owner, productID uuid.UUID) (*models.Cart, error) {
	return s.mutate(owner, func(cart *models.Cart) {
		cart.RemoveItem(productID)
	})
}

// mutate ensures the cart exists, then re-reads it under a row lock, applies
// the mutation and writes it back in one transaction.
func (s *CartService) mutate(owner Owner, fn func(cart *models.Cart)) (*models.Cart, error) {
	if _, err := s.Resolve(owner); err != nil {
		return nil, err
	}

	var cart models.Cart
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := owner.apply(tx.Clauses(clause.Locking{Strength: "UPDATE"})).
			First(&cart).Error; err != nil {
			return err
		}

		fn(&cart)
		return tx.Save(&cart).Error
	})
	if err != nil {
		return nil, err
	}

	return &cart, nil
}
