package stock

import (
	"context"
	"time"

	"foodprod/internal/core/id"
	"foodprod/internal/core/types"
)

// Repository is the data access the stock core needs. Implementations must
// honour a transaction carried in ctx so that a balance write and its ledger
// row commit together.
type Repository interface {
	// Items

	// GetIngredient returns apperror NotFound when the ingredient is missing.
	GetIngredient(ctx context.Context, ingredientID id.ID) (*Ingredient, error)

	// GetProduct returns apperror NotFound when the product is missing.
	GetProduct(ctx context.Context, productID id.ID) (*Product, error)

	// GetItemForUpdate reads a balance and locks its row until the
	// surrounding transaction ends. A null balance reads as zero.
	GetItemForUpdate(ctx context.Context, stockType StockType, itemID id.ID) (*Item, error)

	// UpdateCurrentStock overwrites the denormalized balance.
	UpdateCurrentStock(ctx context.Context, stockType StockType, itemID id.ID, qty types.Quantity) error

	// ListItems returns every item of a kind with its stored balance.
	ListItems(ctx context.Context, stockType StockType) ([]Item, error)

	// Ledger

	// AppendAllocation inserts one ledger row.
	AppendAllocation(ctx context.Context, a Allocation) error

	// ListAllocations returns ledger rows ordered by allocation_date DESC.
	ListAllocations(ctx context.Context, filter AllocationFilter) ([]Allocation, error)

	// CountAllocations counts rows matching filter, ignoring Limit and Offset.
	CountAllocations(ctx context.Context, filter AllocationFilter) (int, error)

	// LedgerTotals returns the signed ledger sum per item. Items without
	// rows are absent from the map. Nil itemIDs means all items.
	LedgerTotals(ctx context.Context, stockType StockType, itemIDs []id.ID) (map[id.ID]types.Quantity, error)
}

// AllocationFilter narrows ledger queries. Nil fields are ignored.
type AllocationFilter struct {
	StockType   *StockType
	StockItemID *id.ID
	ReferenceID *string
	EntryType   *EntryType
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}
