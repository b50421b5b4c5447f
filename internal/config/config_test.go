package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/commerce-core/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := config.Load()
	require.NotNil(t, cfg)
	assert.Equal(t, 5, cfg.MaxPendingOrders)
	assert.Equal(t, "USD", cfg.DefaultCurrency)
	assert.Equal(t, "US", cfg.DomesticCountry)
	assert.Equal(t, 5.99, cfg.BaseShippingCost)
	assert.Equal(t, 0.08, cfg.DefaultTaxRate)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("ORDER_MAX_PENDING", "3")
	t.Setenv("ORDER_DEFAULT_CURRENCY", "EUR")
	t.Setenv("SHIPPING_BASE_COST", "7.50")

	cfg := config.Load()
	assert.Equal(t, 3, cfg.MaxPendingOrders)
	assert.Equal(t, "EUR", cfg.DefaultCurrency)
	assert.Equal(t, 7.50, cfg.BaseShippingCost)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("ORDER_MAX_PENDING", "not-a-number")
	t.Setenv("TAX_DEFAULT_RATE", "eight percent")

	cfg := config.Load()
	assert.Equal(t, 5, cfg.MaxPendingOrders)
	assert.Equal(t, 0.08, cfg.DefaultTaxRate)
}
