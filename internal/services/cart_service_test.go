package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOwnerIdentity(t *testing.T) {
	userID := uuid.New()

	user := UserOwner(userID)
	assert.False(t, user.IsZero())
	assert.NotNil(t, user.userID)
	assert.Nil(t, user.sessionKey)

	guest := GuestOwner("sess-abc123")
	assert.False(t, guest.IsZero())
	assert.Nil(t, guest.userID)
	assert.NotNil(t, guest.sessionKey)

	var zero Owner
	assert.True(t, zero.IsZero())
}

func TestOwnerNewCart(t *testing.T) {
	userID := uuid.New()
	cart := UserOwner(userID).newCart()

	assert.Equal(t, userID, *cart.UserID)
	assert.Nil(t, cart.SessionID)
	assert.Empty(t, cart.Items)
	assert.True(t, cart.Subtotal.IsZero())
	assert.True(t, cart.TaxAmount.IsZero())
	assert.True(t, cart.Total.IsZero())

	guestCart := GuestOwner("sess-abc123").newCart()
	assert.Nil(t, guestCart.UserID)
	assert.Equal(t, "sess-abc123", *guestCart.SessionID)
}
