// Package stock provides the ingredient/product stock ledger, the
// denormalized balances and the only service allowed to change them.
package stock

import (
	"time"

	"foodprod/internal/core/apperror"
	"foodprod/internal/core/id"
	"foodprod/internal/core/types"
)

// EntryType is the direction of a ledger row.
type EntryType string

const (
	// EntryInward increases the balance.
	EntryInward EntryType = "INWARD"
	// EntryOutward decreases the balance.
	EntryOutward EntryType = "OUTWARD"
)

// Valid reports whether t is a known direction.
func (t EntryType) Valid() bool {
	return t == EntryInward || t == EntryOutward
}

// StockType selects which balance a ledger row belongs to.
type StockType string

const (
	TypeIngredient StockType = "INGREDIENT"
	TypeProduct    StockType = "PRODUCT"
)

// Valid reports whether t is a known stock kind.
func (t StockType) Valid() bool {
	return t == TypeIngredient || t == TypeProduct
}

// ParseStockType validates a stock type coming from a caller.
func ParseStockType(s string) (StockType, error) {
	t := StockType(s)
	if !t.Valid() {
		return "", apperror.NewValidation("invalid stock type").
			WithDetail("field", "stockType").
			WithDetail("value", s)
	}
	return t, nil
}

// entityName is used in NotFound errors.
func (t StockType) entityName() string {
	if t == TypeProduct {
		return "product"
	}
	return "ingredient"
}

// Allocation is one row of the stock_allocation ledger.
// Rows are immutable once written.
type Allocation struct {
	ID                id.ID          `db:"id" json:"id"`
	EntryType         EntryType      `db:"stock_entry_type" json:"stockEntryType"`
	StockType         StockType      `db:"stock_type" json:"stockType"`
	StockItemID       id.ID          `db:"stock_item_id" json:"stockItemId"`
	ReferenceID       *string        `db:"reference_id" json:"referenceId,omitempty"`
	QuantityAllocated types.Quantity `db:"quantity_allocated" json:"quantityAllocated"`
	AllocationDate    time.Time      `db:"allocation_date" json:"allocationDate"`
}

// NewAllocation creates a ledger row dated now.
func NewAllocation(entryType EntryType, stockType StockType, itemID id.ID, referenceID *string, qty types.Quantity) Allocation {
	return Allocation{
		ID:                id.New(),
		EntryType:         entryType,
		StockType:         stockType,
		StockItemID:       itemID,
		ReferenceID:       referenceID,
		QuantityAllocated: qty,
		AllocationDate:    time.Now().UTC(),
	}
}

// SignedQuantity returns +quantity for INWARD and -quantity for OUTWARD.
func (a *Allocation) SignedQuantity() types.Quantity {
	if a.EntryType == EntryOutward {
		return a.QuantityAllocated.Neg()
	}
	return a.QuantityAllocated
}

// Ingredient is a raw material with a denormalized on-hand balance.
type Ingredient struct {
	ID                id.ID           `db:"id" json:"id"`
	Name              string          `db:"name" json:"name"`
	UnitOfMeasurement string          `db:"unit_of_measurement" json:"unitOfMeasurement"`
	Rate              *types.Quantity `db:"rate" json:"rate,omitempty"`
	CurrentStock      types.Quantity  `db:"current_stock" json:"currentStock"`
	Active            bool            `db:"active" json:"active"`
}

// Product is a sellable item with a denormalized on-hand balance.
type Product struct {
	ID           id.ID          `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	SalePrice    types.Quantity `db:"sale_price" json:"salePrice"`
	GST          types.Quantity `db:"gst" json:"gst"`
	CurrentStock types.Quantity `db:"current_stock" json:"currentStock"`
	Active       bool           `db:"active" json:"active"`
}

// Item is the kind-agnostic view of a balance used while mutating it.
type Item struct {
	ID           id.ID          `db:"id" json:"id"`
	StockType    StockType      `db:"-" json:"stockType"`
	Name         string         `db:"name" json:"name"`
	CurrentStock types.Quantity `db:"current_stock" json:"currentStock"`
}

// Mismatch is an item whose stored balance disagrees with its ledger.
type Mismatch struct {
	StockType   StockType      `json:"stockType"`
	StockItemID id.ID          `json:"stockItemId"`
	Name        string         `json:"name"`
	Stored      types.Quantity `json:"stored"`
	Ledger      types.Quantity `json:"ledger"`
}

// Drift is Stored minus Ledger.
func (m Mismatch) Drift() types.Quantity {
	return m.Stored.Sub(m.Ledger)
}
