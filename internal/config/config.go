// Package config loads runtime configuration from environment variables with
// sensible defaults, so the module runs unconfigured in development.
package config

import (
	"os"
	"strconv"
)

type Config struct {
	// Infrastructure
	PostgresDSN string

	// Business ceilings and thresholds
	MaxPendingOrders int

	// Shipping heuristic. Approximate placeholder values, not a carrier rate
	// table.
	DefaultCurrency        string
	DomesticCountry        string
	BaseShippingCost       float64
	HeavyWeightThreshold   float64
	HeavyWeightSurcharge   float64
	InternationalSurcharge float64

	// Tax fallback when the rate table has no entry for the region.
	DefaultTaxRate float64

	// Validation advisory thresholds
	HighValueOrderThreshold float64
	LowMarginThresholdPct   float64
}

// Load reads configuration from the environment, falling back to defaults.
func Load() *Config {
	return &Config{
		PostgresDSN:             getEnvOrDefault("POSTGRES_DSN", "postgres://localhost:5432/commerce?sslmode=disable"),
		MaxPendingOrders:        getEnvInt("ORDER_MAX_PENDING", 5),
		DefaultCurrency:         getEnvOrDefault("ORDER_DEFAULT_CURRENCY", "USD"),
		DomesticCountry:         getEnvOrDefault("SHIPPING_DOMESTIC_COUNTRY", "US"),
		BaseShippingCost:        getEnvFloat("SHIPPING_BASE_COST", 5.99),
		HeavyWeightThreshold:    getEnvFloat("SHIPPING_HEAVY_WEIGHT_THRESHOLD", 1000),
		HeavyWeightSurcharge:    getEnvFloat("SHIPPING_HEAVY_WEIGHT_SURCHARGE", 15.00),
		InternationalSurcharge:  getEnvFloat("SHIPPING_INTERNATIONAL_SURCHARGE", 20.00),
		DefaultTaxRate:          getEnvFloat("TAX_DEFAULT_RATE", 0.08),
		HighValueOrderThreshold: getEnvFloat("ORDER_HIGH_VALUE_THRESHOLD", 10000),
		LowMarginThresholdPct:   getEnvFloat("PRODUCT_LOW_MARGIN_PCT", 10),
	}
}

// Default returns the built-in defaults without consulting the environment.
func Default() *Config {
	return &Config{
		PostgresDSN:             "postgres://localhost:5432/commerce?sslmode=disable",
		MaxPendingOrders:        5,
		DefaultCurrency:         "USD",
		DomesticCountry:         "US",
		BaseShippingCost:        5.99,
		HeavyWeightThreshold:    1000,
		HeavyWeightSurcharge:    15.00,
		InternationalSurcharge:  20.00,
		DefaultTaxRate:          0.08,
		HighValueOrderThreshold: 10000,
		LowMarginThresholdPct:   10,
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
