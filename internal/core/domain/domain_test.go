package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheKeys(t *testing.T) {
	assert.Equal(t, "/list-of-sellers/", SellerListKey)
	assert.Equal(t, "/seller-catalog/S1", SellerCatalogKey("S1"))
	assert.Equal(t, "/orders/S1", SellerOrdersKey("S1"))
}

func TestCacheTTLs(t *testing.T) {
	assert.Equal(t, 900.0, SellerListTTL.Seconds())
	assert.Equal(t, 1800.0, SellerCatalogTTL.Seconds())
	assert.Equal(t, 900.0, SellerOrdersTTL.Seconds())
	assert.Equal(t, 15*time.Minute, SellerOrdersTTL)
}

func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Reason:      "these items are not available in the catalog",
		Unavailable: []string{"eraser", "ink"},
	}

	assert.True(t, errors.Is(err, ErrValidationFailed))
	assert.True(t, errors.Is(fmt.Errorf("create order: %w", err), ErrValidationFailed))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, "these items are not available in the catalog: **eraser,ink**", err.Error())

	var ve *ValidationError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &ve))
	assert.Equal(t, []string{"eraser", "ink"}, ve.Unavailable)
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleBuyer.Valid())
	assert.True(t, RoleSeller.Valid())
	assert.False(t, Role("admin").Valid())
	assert.False(t, Role("").Valid())
}
