package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"foodprod/internal/core/types"
	"foodprod/internal/domain/stock"
)

// --- Request DTOs ---

// InwardRequest adds stock. Quantity accepts a JSON number or string.
type InwardRequest struct {
	Quantity    *decimal.Decimal `json:"quantity" binding:"required"`
	ReferenceID *string          `json:"referenceId"`
}

// AllocateProductRequest consumes product stock against an order.
type AllocateProductRequest struct {
	OrderID  string           `json:"orderId" binding:"required"`
	Quantity *decimal.Decimal `json:"quantity" binding:"required"`
}

// AllocateIngredientRequest consumes ingredient stock against a work order.
type AllocateIngredientRequest struct {
	WorkOrderID string           `json:"workOrderId" binding:"required"`
	Quantity    *decimal.Decimal `json:"quantity" binding:"required"`
}

// HistoryQuery narrows an item history. Dates are RFC3339.
type HistoryQuery struct {
	PageRequest
	EntryType string     `form:"entryType" binding:"omitempty,oneof=INWARD OUTWARD"`
	FromDate  *time.Time `form:"fromDate" time_format:"2006-01-02T15:04:05Z07:00"`
	ToDate    *time.Time `form:"toDate" time_format:"2006-01-02T15:04:05Z07:00"`
}

// ToFilter converts the query into a history filter.
func (q HistoryQuery) ToFilter() stock.HistoryFilter {
	f := stock.AllocationFilter{
		FromDate: q.FromDate,
		ToDate:   q.ToDate,
		Limit:    q.Limit,
		Offset:   q.Offset,
	}
	if q.EntryType != "" {
		et := stock.EntryType(q.EntryType)
		f.EntryType = &et
	}
	return stock.HistoryFilter{AllocationFilter: f}
}

// --- Response DTOs ---

// StockItemResponse is an ingredient or product after a movement.
type StockItemResponse struct {
	ID                string         `json:"id"`
	StockType         string         `json:"stockType"`
	Name              string         `json:"name"`
	UnitOfMeasurement string         `json:"unitOfMeasurement,omitempty"`
	CurrentStock      types.Quantity `json:"currentStock"`
}

// FromIngredient converts an ingredient to response DTO.
func FromIngredient(ing *stock.Ingredient) StockItemResponse {
	return StockItemResponse{
		ID:                ing.ID.String(),
		StockType:         string(stock.TypeIngredient),
		Name:              ing.Name,
		UnitOfMeasurement: ing.UnitOfMeasurement,
		CurrentStock:      ing.CurrentStock,
	}
}

// FromProduct converts a product to response DTO.
func FromProduct(p *stock.Product) StockItemResponse {
	return StockItemResponse{
		ID:           p.ID.String(),
		StockType:    string(stock.TypeProduct),
		Name:         p.Name,
		CurrentStock: p.CurrentStock,
	}
}

// AllocationResponse is one ledger row.
type AllocationResponse struct {
	ID                string         `json:"id"`
	StockEntryType    string         `json:"stockEntryType"`
	StockType         string         `json:"stockType"`
	StockItemID       string         `json:"stockItemId"`
	ReferenceID       *string        `json:"referenceId"`
	QuantityAllocated types.Quantity `json:"quantityAllocated"`
	AllocationDate    time.Time      `json:"allocationDate"`
}

// FromAllocations converts ledger rows to response DTOs.
func FromAllocations(rows []stock.Allocation) []AllocationResponse {
	out := make([]AllocationResponse, len(rows))
	for i, a := range rows {
		out[i] = AllocationResponse{
			ID:                a.ID.String(),
			StockEntryType:    string(a.EntryType),
			StockType:         string(a.StockType),
			StockItemID:       a.StockItemID.String(),
			ReferenceID:       a.ReferenceID,
			QuantityAllocated: a.QuantityAllocated,
			AllocationDate:    a.AllocationDate,
		}
	}
	return out
}

// MismatchResponse reports a balance that disagrees with its ledger.
type MismatchResponse struct {
	StockType   string         `json:"stockType"`
	StockItemID string         `json:"stockItemId"`
	Name        string         `json:"name"`
	Stored      types.Quantity `json:"stored"`
	Ledger      types.Quantity `json:"ledger"`
	Drift       types.Quantity `json:"drift"`
}

// FromMismatch converts a reconciliation result to response DTO.
func FromMismatch(m stock.Mismatch) MismatchResponse {
	return MismatchResponse{
		StockType:   string(m.StockType),
		StockItemID: m.StockItemID.String(),
		Name:        m.Name,
		Stored:      m.Stored,
		Ledger:      m.Ledger,
		Drift:       m.Drift(),
	}
}
