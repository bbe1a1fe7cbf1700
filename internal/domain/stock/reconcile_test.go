package stock_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodprod/internal/core/apperror"
	"foodprod/internal/core/id"
	"foodprod/internal/core/types"
	"foodprod/internal/domain/stock"
	"foodprod/internal/infrastructure/lock"
	"foodprod/internal/infrastructure/storage/memory"
)

func TestReconciler_DetectsAndRepairsDrift(t *testing.T) {
	svc, store := newService(t)
	reconciler := stock.NewReconciler(store, store, lock.NewLocalLocker())
	ctx := context.Background()

	salt := store.AddIngredient("Salt", "KG", types.ZeroQuantity())
	oil := store.AddIngredient("Oil", "Lit", types.ZeroQuantity())
	_, err := svc.AddIngredientStock(ctx, salt, types.QuantityFromInt(10), nil)
	require.NoError(t, err)
	_, err = svc.AddIngredientStock(ctx, oil, types.QuantityFromInt(3), nil)
	require.NoError(t, err)

	mismatches, err := reconciler.Check(ctx, stock.TypeIngredient)
	require.NoError(t, err)
	assert.Empty(t, mismatches)

	require.NoError(t, store.SetStock(stock.TypeIngredient, salt, types.QuantityFromInt(12)))

	mismatches, err = reconciler.Check(ctx, stock.TypeIngredient)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, salt, mismatches[0].StockItemID)
	assertQty(t, "12", mismatches[0].Stored)
	assertQty(t, "10", mismatches[0].Ledger)
	assertQty(t, "2", mismatches[0].Drift())

	fixed, err := reconciler.Repair(ctx, stock.TypeIngredient, salt)
	require.NoError(t, err)
	require.NotNil(t, fixed)

	ing, err := store.GetIngredient(ctx, salt)
	require.NoError(t, err)
	assertQty(t, "10", ing.CurrentStock)

	mismatches, err = reconciler.Check(ctx, stock.TypeIngredient)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestReconciler_OpeningBalanceWithoutLedgerIsDrift(t *testing.T) {
	store := memory.NewStore()
	reconciler := stock.NewReconciler(store, store, lock.NewLocalLocker())
	ctx := context.Background()

	productID := store.AddProduct("Pickle", types.QuantityFromInt(4))

	mismatches, err := reconciler.Check(ctx, stock.TypeProduct)
	require.NoError(t, err)
	require.Len(t, mismatches, 1)
	assert.Equal(t, productID, mismatches[0].StockItemID)
	assertQty(t, "0", mismatches[0].Ledger)
}

func TestReconciler_RepairConsistentItemIsNoop(t *testing.T) {
	svc, store := newService(t)
	reconciler := stock.NewReconciler(store, store, lock.NewLocalLocker())
	ctx := context.Background()

	productID := store.AddProduct("Pickle", types.ZeroQuantity())
	_, err := svc.AddProductStock(ctx, productID, types.QuantityFromInt(2), nil)
	require.NoError(t, err)

	fixed, err := reconciler.Repair(ctx, stock.TypeProduct, productID)
	require.NoError(t, err)
	assert.Nil(t, fixed)

	_, err = reconciler.Repair(ctx, stock.TypeProduct, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestReconciler_Verify(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	r := stock.NewReconciler(store, store, lock.NewLocalLocker())
	svc := stock.NewService(store, store, lock.NewLocalLocker())

	productID := store.AddProduct("Pickle", types.ZeroQuantity())
	_, err := svc.AddProductStock(ctx, productID, types.QuantityFromInt(4), nil)
	require.NoError(t, err)
	require.NoError(t, r.Verify(ctx, stock.TypeProduct, productID))

	require.NoError(t, store.SetStock(stock.TypeProduct, productID, types.QuantityFromInt(9)))
	err = r.Verify(ctx, stock.TypeProduct, productID)
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeLedgerMismatch))

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, "9", appErr.Details["stored"])
	assert.Equal(t, "4", appErr.Details["ledger"])
}
