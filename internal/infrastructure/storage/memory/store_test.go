package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodprod/internal/core/types"
	"foodprod/internal/domain/stock"
)

func TestRunInTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	saltID := s.AddIngredient("Salt", "KG", types.QuantityFromInt(5))
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.AppendAllocation(ctx, stock.NewAllocation(stock.EntryInward, stock.TypeIngredient, saltID, nil, types.QuantityFromInt(3))))
		require.NoError(t, s.UpdateCurrentStock(ctx, stock.TypeIngredient, saltID, types.QuantityFromInt(8)))
		return boom
	})
	require.ErrorIs(t, err, boom)

	ing, err := s.GetIngredient(ctx, saltID)
	require.NoError(t, err)
	assert.True(t, ing.CurrentStock.Equal(types.QuantityFromInt(5)))
	assert.Empty(t, s.Allocations())
}

func TestRunInTransaction_RollsBackOnPanic(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	productID := s.AddProduct("Pickle", types.QuantityFromInt(2))

	assert.Panics(t, func() {
		_ = s.RunInTransaction(ctx, func(ctx context.Context) error {
			_ = s.UpdateCurrentStock(ctx, stock.TypeProduct, productID, types.QuantityFromInt(99))
			panic("mid-write")
		})
	})

	p, err := s.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.True(t, p.CurrentStock.Equal(types.QuantityFromInt(2)))

	// The store must still accept transactions after a panic.
	require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.UpdateCurrentStock(ctx, stock.TypeProduct, productID, types.QuantityFromInt(1))
	}))
}

func TestRunInTransaction_NestedSharesTransaction(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	saltID := s.AddIngredient("Salt", "KG", types.ZeroQuantity())
	boom := errors.New("boom")

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, s.RunInTransaction(ctx, func(ctx context.Context) error {
			return s.UpdateCurrentStock(ctx, stock.TypeIngredient, saltID, types.QuantityFromInt(4))
		}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	ing, err := s.GetIngredient(ctx, saltID)
	require.NoError(t, err)
	assert.True(t, ing.CurrentStock.IsZero())
}

func TestListAllocations_OrderAndFilter(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	saltID := s.AddIngredient("Salt", "KG", types.ZeroQuantity())
	ref := "wo-7"
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	rows := []stock.Allocation{
		stock.NewAllocation(stock.EntryInward, stock.TypeIngredient, saltID, nil, types.QuantityFromInt(10)),
		stock.NewAllocation(stock.EntryOutward, stock.TypeIngredient, saltID, &ref, types.QuantityFromInt(2)),
		stock.NewAllocation(stock.EntryOutward, stock.TypeIngredient, saltID, &ref, types.QuantityFromInt(3)),
	}
	for i := range rows {
		rows[i].AllocationDate = base.Add(time.Duration(i) * time.Hour)
		require.NoError(t, s.AppendAllocation(ctx, rows[i]))
	}

	all, err := s.ListAllocations(ctx, stock.AllocationFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, rows[2].ID, all[0].ID)
	assert.Equal(t, rows[0].ID, all[2].ID)

	outward := stock.EntryOutward
	byRef, err := s.ListAllocations(ctx, stock.AllocationFilter{ReferenceID: &ref, EntryType: &outward})
	require.NoError(t, err)
	assert.Len(t, byRef, 2)

	from := base.Add(time.Hour)
	to := base.Add(time.Hour)
	window, err := s.ListAllocations(ctx, stock.AllocationFilter{FromDate: &from, ToDate: &to})
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, rows[1].ID, window[0].ID)

	page, err := s.ListAllocations(ctx, stock.AllocationFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, rows[1].ID, page[0].ID)

	past, err := s.ListAllocations(ctx, stock.AllocationFilter{Offset: 5})
	require.NoError(t, err)
	assert.Empty(t, past)

	totals, err := s.LedgerTotals(ctx, stock.TypeIngredient, nil)
	require.NoError(t, err)
	assert.True(t, totals[saltID].Equal(types.QuantityFromInt(5)))
}

func TestInjectFault(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	boom := errors.New("down")

	s.InjectFault(OpListWorkOrderProducts, boom)
	_, err := s.ListWorkOrderProducts(ctx, s.AddProduct("x", types.ZeroQuantity()))
	assert.ErrorIs(t, err, boom)

	s.ClearFaults()
	_, err = s.ListWorkOrderProducts(ctx, s.AddProduct("y", types.ZeroQuantity()))
	assert.NoError(t, err)
}

func TestReadOnly_RejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	saltID := s.AddIngredient("Salt", "KG", types.QuantityFromInt(5))

	err := s.ReadOnly(ctx, func(ctx context.Context) error {
		ing, err := s.GetIngredient(ctx, saltID)
		require.NoError(t, err)
		assert.True(t, ing.CurrentStock.Equal(types.QuantityFromInt(5)))

		return s.UpdateCurrentStock(ctx, stock.TypeIngredient, saltID, types.QuantityFromInt(1))
	})
	require.ErrorIs(t, err, ErrReadOnlyTransaction)

	err = s.ReadOnly(ctx, func(ctx context.Context) error {
		return s.AppendAllocation(ctx, stock.NewAllocation(stock.EntryInward, stock.TypeIngredient, saltID, nil, types.QuantityFromInt(1)))
	})
	require.ErrorIs(t, err, ErrReadOnlyTransaction)

	ing, err := s.GetIngredient(ctx, saltID)
	require.NoError(t, err)
	assert.True(t, ing.CurrentStock.Equal(types.QuantityFromInt(5)))
	assert.Empty(t, s.Allocations())
}
