package production_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodprod/internal/core/apperror"
	"foodprod/internal/core/id"
	"foodprod/internal/core/types"
	"foodprod/internal/domain/production"
	"foodprod/internal/domain/stock"
	"foodprod/internal/infrastructure/lock"
	"foodprod/internal/infrastructure/storage/memory"
)

func q(s string) types.Quantity { return types.MustQuantity(s) }

func assertQty(t *testing.T, want string, got types.Quantity) {
	t.Helper()
	assert.Truef(t, q(want).Equal(got), "want %s, got %s", want, got.String())
}

func newResolver(store *memory.Store, opts production.ResolverOptions) *production.Resolver {
	return production.NewResolver(store, store, stock.NewHistoryService(store), store, opts)
}

func TestResolve_GramsPerKilogramScenario(t *testing.T) {
	store := memory.NewStore()
	salt := store.AddIngredient("Salt", "Gms", q("800"))
	productA := store.AddProduct("A", types.ZeroQuantity())
	store.LinkProductIngredient(productA, salt, q("10"))

	workOrderID := id.New()
	store.AddWorkOrderProduct(workOrderID, productA, q("1000"), q("5"))

	got, err := newResolver(store, production.ResolverOptions{}).ResolveRequiredIngredients(context.Background(), workOrderID)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, salt, got[0].IngredientID)
	assert.Equal(t, "Salt", got[0].Name)
	assert.Equal(t, "kg", got[0].UnitOfMeasurement)
	assert.Equal(t, "Gms", got[0].SourceUnit)
	assertQty(t, "0.05", got[0].RequiredQuantity)
	assertQty(t, "0.8", got[0].CurrentStock)
}

func TestResolve_AggregatesAcrossProducts(t *testing.T) {
	store := memory.NewStore()
	salt := store.AddIngredient("Salt", "KG", q("3"))
	pickle := store.AddProduct("Pickle", types.ZeroQuantity())
	chutney := store.AddProduct("Chutney", types.ZeroQuantity())
	store.LinkProductIngredient(pickle, salt, q("0.05"))
	store.LinkProductIngredient(chutney, salt, q("0.02"))

	workOrderID := id.New()
	store.AddWorkOrderProduct(workOrderID, pickle, q("500"), q("100"))  // 50 kg
	store.AddWorkOrderProduct(workOrderID, chutney, q("250"), q("40")) // 10 kg

	got, err := newResolver(store, production.ResolverOptions{}).ResolveRequiredIngredients(context.Background(), workOrderID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assertQty(t, "2.7", got[0].RequiredQuantity)
	assertQty(t, "3", got[0].CurrentStock)
}

func TestResolve_CompoundOnlyProduct(t *testing.T) {
	store := memory.NewStore()
	chilli := store.AddIngredient("Chilli", "Gms", types.ZeroQuantity())
	cumin := store.AddIngredient("cumin", "KG", q("1"))
	masala := store.AddCompound("Masala")
	store.LinkCompoundIngredient(masala, chilli, q("30"))
	store.LinkCompoundIngredient(masala, cumin, q("0.01"))

	product := store.AddProduct("Spice Mix", types.ZeroQuantity())
	store.LinkProductCompound(product, masala, q("2"))

	workOrderID := id.New()
	store.AddWorkOrderProduct(workOrderID, product, q("200"), q("50")) // 10 kg

	got, err := newResolver(store, production.ResolverOptions{}).ResolveRequiredIngredients(context.Background(), workOrderID)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "Chilli", got[0].Name)
	assertQty(t, "0.3", got[0].RequiredQuantity)
	assert.Equal(t, "cumin", got[1].Name)
	assertQty(t, "0.1", got[1].RequiredQuantity)
	assert.True(t, got[0].CurrentStock.IsZero())

	withMultiplier, err := newResolver(store, production.ResolverOptions{ApplyCompoundQuantity: true}).
		ResolveRequiredIngredients(context.Background(), workOrderID)
	require.NoError(t, err)
	require.Len(t, withMultiplier, 2)
	assertQty(t, "0.6", withMultiplier[0].RequiredQuantity)
	assertQty(t, "0.2", withMultiplier[1].RequiredQuantity)
}

func TestResolve_DirectAndCompoundContributionsMerge(t *testing.T) {
	store := memory.NewStore()
	d := store.SeedDemo()

	got, err := newResolver(store, production.ResolverOptions{}).ResolveRequiredIngredients(context.Background(), d.WorkOrder)
	require.NoError(t, err)

	names := make([]string, 0, len(got))
	byID := make(map[id.ID]production.RequiredIngredient, len(got))
	for _, r := range got {
		names = append(names, r.Name)
		byID[r.IngredientID] = r
	}
	assert.Equal(t, []string{"Chilli Powder", "Garlic", "Mustard Oil", "Salt"}, names)

	// Pickle 50 kg: 0.05 direct + 0.02 via masala. Chutney 10 kg: 0.03.
	assertQty(t, "3.8", byID[d.Salt].RequiredQuantity)
	// 30 g per kg of masala over 50 kg of pickle.
	assertQty(t, "1.5", byID[d.Chilli].RequiredQuantity)
	assertQty(t, "20", byID[d.Chilli].CurrentStock)
	assertQty(t, "30", byID[d.Garlic].RequiredQuantity)
	assertQty(t, "12.5", byID[d.Oil].RequiredQuantity)
}

func TestResolve_IsIdempotentAndReadOnly(t *testing.T) {
	store := memory.NewStore()
	d := store.SeedDemo()
	resolver := newResolver(store, production.ResolverOptions{})
	ctx := context.Background()

	first, err := resolver.ResolveRequiredIngredients(ctx, d.WorkOrder)
	require.NoError(t, err)
	second, err := resolver.ResolveRequiredIngredients(ctx, d.WorkOrder)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Empty(t, store.Allocations())
}

func TestResolve_EmptyWorkOrder(t *testing.T) {
	store := memory.NewStore()

	got, err := newResolver(store, production.ResolverOptions{}).ResolveRequiredIngredients(context.Background(), id.New())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	_, err = newResolver(store, production.ResolverOptions{}).ResolveRequiredIngredients(context.Background(), id.Nil())
	assert.True(t, apperror.IsValidation(err))
}

func TestResolve_FailsClosedOnReadError(t *testing.T) {
	for _, op := range []memory.Op{
		memory.OpListWorkOrderProducts,
		memory.OpListProductIngredients,
		memory.OpListProductCompounds,
		memory.OpListCompoundIngredients,
		memory.OpGetIngredientStocks,
	} {
		t.Run(string(op), func(t *testing.T) {
			store := memory.NewStore()
			d := store.SeedDemo()
			boom := errors.New("connection refused")
			store.InjectFault(op, boom)

			got, err := newResolver(store, production.ResolverOptions{}).ResolveRequiredIngredients(context.Background(), d.WorkOrder)
			require.Error(t, err)
			assert.ErrorIs(t, err, boom)
			assert.Nil(t, got)
		})
	}
}

func TestResolve_SortsCaseInsensitively(t *testing.T) {
	store := memory.NewStore()
	product := store.AddProduct("Mix", types.ZeroQuantity())
	for _, name := range []string{"turmeric", "Bay Leaf", "anise", "Clove"} {
		ing := store.AddIngredient(name, "KG", types.ZeroQuantity())
		store.LinkProductIngredient(product, ing, q("0.1"))
	}
	workOrderID := id.New()
	store.AddWorkOrderProduct(workOrderID, product, q("1000"), q("1"))

	got, err := newResolver(store, production.ResolverOptions{}).ResolveRequiredIngredients(context.Background(), workOrderID)
	require.NoError(t, err)

	var names []string
	for _, r := range got {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"anise", "Bay Leaf", "Clove", "turmeric"}, names)
}

func TestResolveOutstanding_SubtractsWorkOrderAllocations(t *testing.T) {
	store := memory.NewStore()
	d := store.SeedDemo()
	svc := stock.NewService(store, store, lock.NewLocalLocker())
	ctx := context.Background()

	_, err := svc.AllocateIngredientStock(ctx, d.Garlic, d.WorkOrder, q("10"))
	require.NoError(t, err)
	_, err = svc.AllocateIngredientStock(ctx, d.Salt, d.WorkOrder, q("5"))
	require.NoError(t, err)
	// Allocation for another work order must not count.
	_, err = svc.AllocateIngredientStock(ctx, d.Oil, id.New(), q("1"))
	require.NoError(t, err)

	got, err := newResolver(store, production.ResolverOptions{}).ResolveOutstanding(ctx, d.WorkOrder)
	require.NoError(t, err)

	byID := make(map[id.ID]production.OutstandingIngredient, len(got))
	for _, r := range got {
		byID[r.IngredientID] = r
	}

	garlic := byID[d.Garlic]
	assertQty(t, "10", garlic.AllocatedQuantity)
	assertQty(t, "20", garlic.OutstandingQuantity)
	assertQty(t, "5", garlic.CurrentStock)
	assert.True(t, garlic.Shortage)

	salt := byID[d.Salt]
	assertQty(t, "0", salt.OutstandingQuantity)
	assert.False(t, salt.Shortage)

	oil := byID[d.Oil]
	assertQty(t, "0", oil.AllocatedQuantity)
	assertQty(t, "12.5", oil.OutstandingQuantity)
	assert.False(t, oil.Shortage)
}

func TestResolve_ProductWithoutRecipe(t *testing.T) {
	store := memory.NewStore()
	bare := store.AddProduct("Gift Box", types.ZeroQuantity())
	ctx := context.Background()

	onlyBare := id.New()
	store.AddWorkOrderProduct(onlyBare, bare, q("500"), q("10"))

	got, err := newResolver(store, production.ResolverOptions{}).ResolveRequiredIngredients(ctx, onlyBare)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)

	salt := store.AddIngredient("Salt", "KG", q("1"))
	pickle := store.AddProduct("Pickle", types.ZeroQuantity())
	store.LinkProductIngredient(pickle, salt, q("0.05"))

	mixed := id.New()
	store.AddWorkOrderProduct(mixed, bare, q("500"), q("10"))
	store.AddWorkOrderProduct(mixed, pickle, q("1000"), q("2"))

	got, err = newResolver(store, production.ResolverOptions{}).ResolveRequiredIngredients(ctx, mixed)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, salt, got[0].IngredientID)
	assertQty(t, "0.1", got[0].RequiredQuantity)
}

// snapshotCounter records how many read-only transactions were opened.
type snapshotCounter struct {
	*memory.Store
	readOnly int
}

func (s *snapshotCounter) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	s.readOnly++
	return s.Store.ReadOnly(ctx, fn)
}

func TestResolve_ReadsInOneSnapshot(t *testing.T) {
	store := memory.NewStore()
	d := store.SeedDemo()
	txm := &snapshotCounter{Store: store}
	resolver := production.NewResolver(store, store, stock.NewHistoryService(store), txm, production.ResolverOptions{})
	ctx := context.Background()

	_, err := resolver.ResolveRequiredIngredients(ctx, d.WorkOrder)
	require.NoError(t, err)
	assert.Equal(t, 1, txm.readOnly)

	_, err = resolver.ResolveOutstanding(ctx, d.WorkOrder)
	require.NoError(t, err)
	assert.Equal(t, 2, txm.readOnly)
}
