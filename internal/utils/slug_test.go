package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Classic Tee", "classic-tee"},
		{"  Classic   Tee  ", "classic-tee"},
		{"T-Shirt (Blue) 2XL", "t-shirt-blue-2xl"},
		{"Kopi & Teh", "kopi-teh"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in), "input %q", tt.in)
	}
}
