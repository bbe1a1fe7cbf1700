package stock

import (
	"context"
	"fmt"
	"strings"

	"foodprod/internal/core/apperror"
	"foodprod/internal/core/id"
	"foodprod/internal/core/lock"
	"foodprod/internal/core/tx"
	"foodprod/internal/core/types"
	"foodprod/pkg/logger"
)

// Service is the only component that changes stock balances. Every
// successful call changes exactly one balance and appends exactly one
// ledger row, inside one transaction, while holding the item's lock.
type Service struct {
	repo      Repository
	txManager tx.Manager
	locker    lock.Locker
}

// NewService creates a new stock mutation service.
func NewService(repo Repository, txManager tx.Manager, locker lock.Locker) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		locker:    locker,
	}
}

// NotFound builds the error returned for a missing ingredient or product.
func NotFound(stockType StockType, itemID id.ID) *apperror.AppError {
	return apperror.NewNotFound(stockType.entityName(), itemID.String())
}

// AddIngredientStock records an INWARD ingredient movement and returns the
// updated ingredient.
func (s *Service) AddIngredientStock(ctx context.Context, ingredientID id.ID, qty types.Quantity, referenceID *string) (*Ingredient, error) {
	var updated *Ingredient
	err := s.apply(ctx, movement{
		entryType:   EntryInward,
		stockType:   TypeIngredient,
		itemID:      ingredientID,
		referenceID: normalizeReference(referenceID),
		qty:         qty,
	}, func(ctx context.Context) error {
		ing, err := s.repo.GetIngredient(ctx, ingredientID)
		updated = ing
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AddProductStock records an INWARD product movement and returns the
// updated product.
func (s *Service) AddProductStock(ctx context.Context, productID id.ID, qty types.Quantity, referenceID *string) (*Product, error) {
	var updated *Product
	err := s.apply(ctx, movement{
		entryType:   EntryInward,
		stockType:   TypeProduct,
		itemID:      productID,
		referenceID: normalizeReference(referenceID),
		qty:         qty,
	}, func(ctx context.Context) error {
		p, err := s.repo.GetProduct(ctx, productID)
		updated = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AllocateProductStock consumes product stock against an order.
// Fails with InsufficientStock, and writes nothing, when the balance is short.
func (s *Service) AllocateProductStock(ctx context.Context, productID, orderID id.ID, qty types.Quantity) (*Product, error) {
	if id.IsNil(orderID) {
		return nil, apperror.NewValidation("order_id is required").WithDetail("field", "orderId")
	}

	ref := orderID.String()
	var updated *Product
	err := s.apply(ctx, movement{
		entryType:   EntryOutward,
		stockType:   TypeProduct,
		itemID:      productID,
		referenceID: &ref,
		qty:         qty,
	}, func(ctx context.Context) error {
		p, err := s.repo.GetProduct(ctx, productID)
		updated = p
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// AllocateIngredientStock consumes ingredient stock against a work order.
// Fails with InsufficientStock, and writes nothing, when the balance is short.
func (s *Service) AllocateIngredientStock(ctx context.Context, ingredientID, workOrderID id.ID, qty types.Quantity) (*Ingredient, error) {
	if id.IsNil(workOrderID) {
		return nil, apperror.NewValidation("work_order_id is required").WithDetail("field", "workOrderId")
	}

	ref := workOrderID.String()
	var updated *Ingredient
	err := s.apply(ctx, movement{
		entryType:   EntryOutward,
		stockType:   TypeIngredient,
		itemID:      ingredientID,
		referenceID: &ref,
		qty:         qty,
	}, func(ctx context.Context) error {
		ing, err := s.repo.GetIngredient(ctx, ingredientID)
		updated = ing
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// movement is one requested balance change.
type movement struct {
	entryType   EntryType
	stockType   StockType
	itemID      id.ID
	referenceID *string
	qty         types.Quantity
}

func (m movement) validate() error {
	if id.IsNil(m.itemID) {
		return apperror.NewValidation("stock_item_id is required").WithDetail("field", "stockItemId")
	}
	if !m.qty.IsPositive() {
		return apperror.NewValidation("quantity must be positive").
			WithDetail("field", "quantity").
			WithDetail("value", m.qty.String())
	}
	if !types.FitsStockScale(m.qty) {
		return apperror.NewValidation(fmt.Sprintf("quantity must have at most %d decimal places", types.StockScale)).
			WithDetail("field", "quantity").
			WithDetail("value", m.qty.String())
	}
	return nil
}

// apply runs the read-check-append-write sequence for one item.
// reload runs inside the same transaction after the balance write.
func (s *Service) apply(ctx context.Context, m movement, reload func(ctx context.Context) error) error {
	if err := m.validate(); err != nil {
		return err
	}

	release, err := s.locker.Acquire(ctx, lock.StockItemKey(string(m.stockType), m.itemID))
	if err != nil {
		return err
	}
	defer release()

	var previous, balance types.Quantity
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := s.repo.GetItemForUpdate(ctx, m.stockType, m.itemID)
		if err != nil {
			return err
		}
		previous = item.CurrentStock

		switch m.entryType {
		case EntryOutward:
			if item.CurrentStock.LessThan(m.qty) {
				return apperror.NewInsufficientStock(
					string(m.stockType),
					m.itemID.String(),
					m.qty.String(),
					item.CurrentStock.String(),
				)
			}
			balance = item.CurrentStock.Sub(m.qty)
		default:
			balance = item.CurrentStock.Add(m.qty)
		}

		row := NewAllocation(m.entryType, m.stockType, m.itemID, m.referenceID, m.qty)
		if err := s.repo.AppendAllocation(ctx, row); err != nil {
			return fmt.Errorf("append allocation: %w", err)
		}
		if err := s.repo.UpdateCurrentStock(ctx, m.stockType, m.itemID, balance); err != nil {
			return fmt.Errorf("update current stock: %w", err)
		}

		if reload != nil {
			return reload(ctx)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "stock movement recorded",
		"stock_type", m.stockType,
		"stock_item_id", m.itemID,
		"entry_type", m.entryType,
		"quantity", m.qty.String(),
		"previous_stock", previous.String(),
		"current_stock", balance.String(),
	)

	return nil
}

func normalizeReference(ref *string) *string {
	if ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
