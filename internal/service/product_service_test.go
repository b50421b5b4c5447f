package service_test

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/commerce-core/internal/domain"
	"github.com/commercekit/commerce-core/internal/service"
)

func newProductService(products *fakeProductRepo) *service.ProductDomainService {
	return service.NewProductDomainService(service.ProductServiceParams{
		Products: products,
		Clock:    fixedClock{at: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)},
		Rand:     rand.New(rand.NewSource(1)),
	})
}

func TestGenerateUniqueSKU(t *testing.T) {
	repo := newFakeProductRepo()
	svc := newProductService(repo)

	sku, err := svc.GenerateUniqueSKU(context.Background(), domain.CategoryElectronics, "Acme")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sku, "ELC-ACM-260828"), "got %s", sku)
	assert.Equal(t, 1, repo.skuLookups)
}

func TestGenerateUniqueSKU_ShortBrandIsPadded(t *testing.T) {
	repo := newFakeProductRepo()
	svc := newProductService(repo)

	sku, err := svc.GenerateUniqueSKU(context.Background(), domain.CategoryToys, "Bo")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sku, "TYS-BXX-"), "got %s", sku)
}

func TestGenerateUniqueSKU_Exhaustion(t *testing.T) {
	repo := newFakeProductRepo()
	repo.everySKUTaken = true
	svc := newProductService(repo)

	_, err := svc.GenerateUniqueSKU(context.Background(), domain.CategoryElectronics, "Acme")
	require.ErrorIs(t, err, domain.ErrGenerationExhausted)
	assert.Equal(t, 10, repo.skuLookups, "bounded to 10 attempts")
}

func TestCalculateOptimalReorderPoint(t *testing.T) {
	svc := newProductService(newFakeProductRepo())

	p := catalogProduct(t, "SKU-A", 0)
	// 12/day over 7 lead days + 2 safety days
	assert.Equal(t, 108, svc.CalculateOptimalReorderPoint(p))

	require.NoError(t, p.UpdateRating(5, 10, "tester"))
	// rating multiplier raises daily sales to 18
	assert.Equal(t, 162, svc.CalculateOptimalReorderPoint(p))
}

func TestCalculateOptimalReorderQuantity(t *testing.T) {
	svc := newProductService(newFakeProductRepo())

	p := catalogProduct(t, "SKU-A", 0)
	base := svc.CalculateOptimalReorderQuantity(p)
	assert.Greater(t, base, 0)

	// cheaper holding cost (lower unit cost) means larger economic batches
	require.NoError(t, p.UpdateCost(mustMoney(t, 2, "USD"), "tester"))
	cheap := svc.CalculateOptimalReorderQuantity(p)
	assert.Greater(t, cheap, base)

	require.NoError(t, p.SetStockLevels(0, 50, "tester"))
	assert.Equal(t, 50, svc.CalculateOptimalReorderQuantity(p), "capped at max stock level")
}

func TestValidatePricing(t *testing.T) {
	svc := newProductService(newFakeProductRepo())

	zero, err := domain.NewMoneyFromFloat(0, "USD")
	require.NoError(t, err)
	result := svc.ValidatePricing(zero, nil)
	assert.False(t, result.Valid())

	price := mustMoney(t, 100, "USD")
	result = svc.ValidatePricing(price, nil)
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)

	eurCost := mustMoney(t, 60, "EUR")
	result = svc.ValidatePricing(price, &eurCost)
	assert.False(t, result.Valid())

	highCost := mustMoney(t, 100, "USD")
	result = svc.ValidatePricing(price, &highCost)
	assert.False(t, result.Valid(), "price must exceed cost")

	healthyCost := mustMoney(t, 60, "USD")
	result = svc.ValidatePricing(price, &healthyCost)
	assert.True(t, result.Valid())
	assert.Empty(t, result.Warnings)

	thinCost := mustMoney(t, 95, "USD")
	result = svc.ValidatePricing(price, &thinCost)
	assert.True(t, result.Valid(), "thin margin warns but does not block")
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "low profit margin")
}

func TestValidateProduct(t *testing.T) {
	existing := catalogProduct(t, "SKU-DUP", 10)
	repo := newFakeProductRepo(existing)
	svc := newProductService(repo)
	ctx := context.Background()

	// the product may keep its own SKU
	result, err := svc.ValidateProduct(ctx, existing)
	require.NoError(t, err)
	assert.True(t, result.Valid())

	duplicate := catalogProduct(t, "SKU-DUP", 5)
	result, err = svc.ValidateProduct(ctx, duplicate)
	require.NoError(t, err)
	assert.False(t, result.Valid())
	assert.Contains(t, result.Errors[0], "already in use")

	blank := catalogProduct(t, "SKU-OK", 5)
	blank.SKU = ""
	result, err = svc.ValidateProduct(ctx, blank)
	require.NoError(t, err)
	assert.False(t, result.Valid())
}

func TestValidateProduct_StockAndAttributes(t *testing.T) {
	svc := newProductService(newFakeProductRepo())
	ctx := context.Background()

	p := catalogProduct(t, "SKU-A", 5)
	p.MinStockLevel = 10
	p.MaxStockLevel = 5
	result, err := svc.ValidateProduct(ctx, p)
	require.NoError(t, err)
	assert.False(t, result.Valid())

	over := catalogProduct(t, "SKU-B", 100)
	require.NoError(t, over.SetStockLevels(5, 50, "tester"))
	result, err = svc.ValidateProduct(ctx, over)
	require.NoError(t, err)
	assert.True(t, result.Valid())
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "exceeds max level")

	badWeight := catalogProduct(t, "SKU-C", 5)
	w := -1.0
	badWeight.Weight = &w
	result, err = svc.ValidateProduct(ctx, badWeight)
	require.NoError(t, err)
	assert.False(t, result.Valid())

	badRating := catalogProduct(t, "SKU-D", 5)
	badRating.Rating = 6
	result, err = svc.ValidateProduct(ctx, badRating)
	require.NoError(t, err)
	assert.False(t, result.Valid())
}

func TestProductsNeedingRestock(t *testing.T) {
	low := catalogProduct(t, "SKU-LOW", 3)
	require.NoError(t, low.SetStockLevels(5, 50, "tester"))

	healthy := catalogProduct(t, "SKU-OK", 30)
	require.NoError(t, healthy.SetStockLevels(5, 50, "tester"))

	inactiveLow := catalogProduct(t, "SKU-OFF", 1)
	require.NoError(t, inactiveLow.SetStockLevels(5, 50, "tester"))
	inactiveLow.Deactivate("tester")

	svc := newProductService(newFakeProductRepo(low, healthy, inactiveLow))

	needing, err := svc.ProductsNeedingRestock(context.Background())
	require.NoError(t, err)
	require.Len(t, needing, 1)
	assert.Equal(t, "SKU-LOW", needing[0].SKU)
}
