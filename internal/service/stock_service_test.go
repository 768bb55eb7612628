package service

import (
	"context"
	"testing"

	"stationery-store/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSufficientStock(t *testing.T) {
	svc := NewStockService(store.NewDemoStore(), nil)

	result, err := svc.Validate(context.Background(), []StockLine{
		{ItemID: 1, Quantity: 2, Name: "Notebook"},
		{ItemID: 2, Quantity: 1, Name: "Pen Set"},
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "Stock validation passed", result.Message)
	assert.Empty(t, result.Details)
}

func TestValidateInsufficientStock(t *testing.T) {
	svc := NewStockService(store.NewDemoStore(), nil)

	// Highlighters fixture holds 3, Stapler holds 0.
	result, err := svc.Validate(context.Background(), []StockLine{
		{ItemID: 3, Quantity: 10, Name: "Highlighters"},
		{ItemID: 5, Quantity: 1, Name: "Stapler"},
		{ItemID: 1, Quantity: 1, Name: "Notebook"},
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "Insufficient stock for some items", result.Message)
	assert.Equal(t, []string{
		"Highlighters: Requested 10, only 3 available",
		"Stapler: Requested 1, only 0 available",
	}, result.Details)
}

func TestValidateUnknownItem(t *testing.T) {
	svc := NewStockService(store.NewDemoStore(), nil)

	result, err := svc.Validate(context.Background(), []StockLine{
		{ItemID: 999, Quantity: 1, Name: "Ghost Pen"},
	})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, []string{"Ghost Pen: Item not found"}, result.Details)
}

func TestValidateWithoutLedger(t *testing.T) {
	svc := NewStockService(nil, nil)

	result, err := svc.Validate(context.Background(), []StockLine{
		{ItemID: 1, Quantity: 100, Name: "Notebook"},
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, "Stock validation passed (Demo Mode)", result.Message)
}

func TestDecrementPartialFailure(t *testing.T) {
	demo := store.NewDemoStore()
	svc := NewStockService(demo, nil)
	ctx := context.Background()

	result := svc.Decrement(ctx, []StockLine{
		{ItemID: 1, Quantity: 5, Name: "Notebook"},
		{ItemID: 999, Quantity: 1, Name: "Ghost Pen"},
	})
	assert.False(t, result.Success)
	require.Len(t, result.Failed, 1)
	assert.Contains(t, result.Failed[0], "Ghost Pen")

	// The successful line stays applied.
	item, err := demo.GetItem(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 45, item.StockQuantity)
}

func TestDecrementClampsAtZero(t *testing.T) {
	demo := store.NewDemoStore()
	svc := NewStockService(demo, nil)
	ctx := context.Background()

	result := svc.Decrement(ctx, []StockLine{
		{ItemID: 3, Quantity: 10, Name: "Highlighters"},
	})
	assert.True(t, result.Success)

	item, err := demo.GetItem(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, item.StockQuantity)
}

func TestAdjustStockFloorsAtZero(t *testing.T) {
	demo := store.NewDemoStore()
	svc := NewStockService(demo, nil)
	ctx := context.Background()

	quantity, err := svc.AdjustStock(ctx, 3, -10)
	require.NoError(t, err)
	assert.Equal(t, 0, quantity)

	quantity, err = svc.AdjustStock(ctx, 3, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, quantity)
}
