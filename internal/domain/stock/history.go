package stock

import (
	"context"
	"fmt"

	"foodprod/internal/core/apperror"
	"foodprod/internal/core/id"
)

// HistoryService answers read-only questions about the ledger.
type HistoryService struct {
	repo Repository
}

// NewHistoryService creates a new ledger query service.
func NewHistoryService(repo Repository) *HistoryService {
	return &HistoryService{repo: repo}
}

// HistoryFilter holds optional paging and range limits for item history.
type HistoryFilter struct {
	AllocationFilter
}

// GetIngredientStockHistory returns every ledger row of one ingredient, newest first.
func (s *HistoryService) GetIngredientStockHistory(ctx context.Context, ingredientID id.ID) ([]Allocation, error) {
	return s.ItemHistory(ctx, TypeIngredient, ingredientID, HistoryFilter{})
}

// GetProductStockHistory returns every ledger row of one product, newest first.
func (s *HistoryService) GetProductStockHistory(ctx context.Context, productID id.ID) ([]Allocation, error) {
	return s.ItemHistory(ctx, TypeProduct, productID, HistoryFilter{})
}

// HistoryPage is one page of item history plus the number of rows the
// filter matches without paging.
type HistoryPage struct {
	Rows  []Allocation
	Total int
}

// ItemHistory returns ledger rows of one item narrowed by filter.
func (s *HistoryService) ItemHistory(ctx context.Context, stockType StockType, itemID id.ID, filter HistoryFilter) ([]Allocation, error) {
	f, err := itemFilter(stockType, itemID, filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListAllocations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list %s history: %w", stockType.entityName(), err)
	}
	return rows, nil
}

// ItemHistoryPage is ItemHistory with the unpaged total.
func (s *HistoryService) ItemHistoryPage(ctx context.Context, stockType StockType, itemID id.ID, filter HistoryFilter) (*HistoryPage, error) {
	f, err := itemFilter(stockType, itemID, filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.ListAllocations(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list %s history: %w", stockType.entityName(), err)
	}

	total := len(rows)
	if f.Limit > 0 || f.Offset > 0 {
		if total, err = s.repo.CountAllocations(ctx, f); err != nil {
			return nil, fmt.Errorf("count %s history: %w", stockType.entityName(), err)
		}
	}
	return &HistoryPage{Rows: rows, Total: total}, nil
}

func itemFilter(stockType StockType, itemID id.ID, filter HistoryFilter) (AllocationFilter, error) {
	if id.IsNil(itemID) {
		return AllocationFilter{}, apperror.NewValidation("stock_item_id is required").WithDetail("field", "stockItemId")
	}

	f := filter.AllocationFilter
	f.StockType = &stockType
	f.StockItemID = &itemID
	f.ReferenceID = nil
	return f, nil
}

// GetStockAllocationsByOrder returns all ledger rows referencing an order.
func (s *HistoryService) GetStockAllocationsByOrder(ctx context.Context, orderID id.ID) ([]Allocation, error) {
	return s.byReference(ctx, "orderId", orderID)
}

// GetStockAllocationsByWorkOrder returns all ledger rows referencing a work order.
func (s *HistoryService) GetStockAllocationsByWorkOrder(ctx context.Context, workOrderID id.ID) ([]Allocation, error) {
	return s.byReference(ctx, "workOrderId", workOrderID)
}

func (s *HistoryService) byReference(ctx context.Context, field string, ref id.ID) ([]Allocation, error) {
	if id.IsNil(ref) {
		return nil, apperror.NewValidation(field+" is required").WithDetail("field", field)
	}

	refStr := ref.String()
	rows, err := s.repo.ListAllocations(ctx, AllocationFilter{ReferenceID: &refStr})
	if err != nil {
		return nil, fmt.Errorf("list allocations by reference: %w", err)
	}
	return rows, nil
}
