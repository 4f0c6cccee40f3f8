// internal/services/category_service_test.go
package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugify(t *testing.T) {
	assert.Equal(t, "fruits-vegetables", slugify("Fruits Vegetables"))
	assert.Equal(t, "dairy", slugify("  Dairy  "))
	assert.Equal(t, "fresh-baked-goods", slugify("Fresh Baked Goods"))
}
