package handlers

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMapUserCreateErrorDuplicateEmail(t *testing.T) {
	err := mapUserCreateError(gorm.ErrDuplicatedKey)

	var fiberErr *fiber.Error
	require.ErrorAs(t, err, &fiberErr)
	assert.Equal(t, fiber.StatusConflict, fiberErr.Code)
	assert.Equal(t, "user already exists", fiberErr.Message)
}

func TestMapUserCreateErrorPassesThroughOthers(t *testing.T) {
	cause := errors.New("connection reset")

	assert.ErrorIs(t, mapUserCreateError(cause), cause)
}
