package production

import (
	"context"

	"foodprod/internal/core/id"
	"foodprod/internal/core/types"
	"foodprod/internal/domain/stock"
)

// CompositionReader loads recipe and work order data owned by the
// surrounding application.
type CompositionReader interface {
	ListWorkOrderProducts(ctx context.Context, workOrderID id.ID) ([]WorkOrderProduct, error)
	ListProductIngredients(ctx context.Context, productIDs []id.ID) ([]ProductIngredient, error)
	ListProductCompounds(ctx context.Context, productIDs []id.ID) ([]ProductCompound, error)
	ListCompoundIngredients(ctx context.Context, compoundIDs []id.ID) ([]CompoundIngredient, error)
}

// BalanceReader returns stored ingredient balances. Missing ids are absent
// from the map.
type BalanceReader interface {
	GetIngredientStocks(ctx context.Context, ingredientIDs []id.ID) (map[id.ID]types.Quantity, error)
}

// AllocationReader is satisfied by stock.HistoryService.
type AllocationReader interface {
	GetStockAllocationsByWorkOrder(ctx context.Context, workOrderID id.ID) ([]stock.Allocation, error)
}
