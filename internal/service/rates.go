package service

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/commercekit/commerce-core/internal/config"
	"github.com/commercekit/commerce-core/internal/domain"
)

// RateProvider resolves tax rates and shipping surcharges for a destination.
// Lookups key on the address region codes; free-text matching is deliberately
// not supported.
type RateProvider interface {
	// TaxRate returns the applicable tax rate as a fraction (0.08 = 8%).
	TaxRate(addr domain.Address) decimal.Decimal
	// ShippingSurcharge returns a flat destination surcharge on top of the
	// base shipping cost.
	ShippingSurcharge(addr domain.Address) decimal.Decimal
}

// StaticRateTable is an in-memory RateProvider. Rates are placeholder values
// pending a real rate-service integration.
type StaticRateTable struct {
	domesticCountry string
	taxRates        map[string]decimal.Decimal
	defaultTaxRate  decimal.Decimal
	international   decimal.Decimal
}

func NewStaticRateTable(cfg *config.Config) *StaticRateTable {
	if cfg == nil {
		cfg = config.Default()
	}
	return &StaticRateTable{
		domesticCountry: strings.ToUpper(cfg.DomesticCountry),
		taxRates: map[string]decimal.Decimal{
			"US-CA": decimal.NewFromFloat(0.0925),
			"US-NY": decimal.NewFromFloat(0.08875),
			"US-TX": decimal.NewFromFloat(0.0625),
			"US-WA": decimal.NewFromFloat(0.065),
			"US-FL": decimal.NewFromFloat(0.06),
			"CA":    decimal.NewFromFloat(0.13),
			"GB":    decimal.NewFromFloat(0.20),
			"DE":    decimal.NewFromFloat(0.19),
		},
		defaultTaxRate: decimal.NewFromFloat(cfg.DefaultTaxRate),
		international:  decimal.NewFromFloat(cfg.InternationalSurcharge),
	}
}

// TaxRate looks up country-state first, then country, then the default rate.
func (t *StaticRateTable) TaxRate(addr domain.Address) decimal.Decimal {
	country := strings.ToUpper(strings.TrimSpace(addr.Country))
	state := strings.ToUpper(strings.TrimSpace(addr.State))

	if country != "" && state != "" {
		if rate, ok := t.taxRates[country+"-"+state]; ok {
			return rate
		}
	}
	if rate, ok := t.taxRates[country]; ok {
		return rate
	}
	return t.defaultTaxRate
}

// ShippingSurcharge adds a flat amount for international destinations.
func (t *StaticRateTable) ShippingSurcharge(addr domain.Address) decimal.Decimal {
	country := strings.ToUpper(strings.TrimSpace(addr.Country))
	if country == "" || country == t.domesticCountry {
		return decimal.Zero
	}
	return t.international
}
