package stock

import (
	"context"
	"fmt"

	"foodprod/internal/core/apperror"
	"foodprod/internal/core/id"
	"foodprod/internal/core/lock"
	"foodprod/internal/core/tx"
	"foodprod/internal/core/types"
	"foodprod/pkg/logger"
)

// Reconciler compares stored balances with a replay of the ledger.
// The ledger is the source of truth.
type Reconciler struct {
	repo      Repository
	txManager tx.ReadOnlyManager
	locker    lock.Locker
}

// NewReconciler creates a new reconciler.
func NewReconciler(repo Repository, txManager tx.ReadOnlyManager, locker lock.Locker) *Reconciler {
	return &Reconciler{
		repo:      repo,
		txManager: txManager,
		locker:    locker,
	}
}

// Check returns every item of stockType whose stored balance differs from
// its signed ledger sum. Balances and ledger are read from one snapshot and
// no row locks are taken.
func (r *Reconciler) Check(ctx context.Context, stockType StockType) ([]Mismatch, error) {
	var (
		items  []Item
		totals map[id.ID]types.Quantity
	)
	err := r.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		if items, err = r.repo.ListItems(ctx, stockType); err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		if totals, err = r.repo.LedgerTotals(ctx, stockType, nil); err != nil {
			return fmt.Errorf("ledger totals: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var mismatches []Mismatch
	for _, item := range items {
		ledger := types.OrZero(lookup(totals, item.ID))
		if !item.CurrentStock.Equal(ledger) {
			mismatches = append(mismatches, Mismatch{
				StockType:   stockType,
				StockItemID: item.ID,
				Name:        item.Name,
				Stored:      item.CurrentStock,
				Ledger:      ledger,
			})
		}
	}

	return mismatches, nil
}

// Verify checks one item and returns an apperror LedgerMismatch when its
// stored balance differs from the ledger sum.
func (r *Reconciler) Verify(ctx context.Context, stockType StockType, itemID id.ID) error {
	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := r.repo.GetItemForUpdate(ctx, stockType, itemID)
		if err != nil {
			return err
		}

		totals, err := r.repo.LedgerTotals(ctx, stockType, []id.ID{itemID})
		if err != nil {
			return fmt.Errorf("ledger totals: %w", err)
		}
		ledger := types.OrZero(lookup(totals, itemID))
		if item.CurrentStock.Equal(ledger) {
			return nil
		}
		return apperror.NewLedgerMismatch(string(stockType), itemID.String(), item.CurrentStock.String(), ledger.String())
	})
}

// Repair overwrites the stored balance of one item with its ledger sum.
// Returns nil when the item was already consistent.
func (r *Reconciler) Repair(ctx context.Context, stockType StockType, itemID id.ID) (*Mismatch, error) {
	release, err := r.locker.Acquire(ctx, lock.StockItemKey(string(stockType), itemID))
	if err != nil {
		return nil, err
	}
	defer release()

	var fixed *Mismatch
	err = r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		item, err := r.repo.GetItemForUpdate(ctx, stockType, itemID)
		if err != nil {
			return err
		}

		totals, err := r.repo.LedgerTotals(ctx, stockType, []id.ID{itemID})
		if err != nil {
			return fmt.Errorf("ledger totals: %w", err)
		}
		ledger := types.OrZero(lookup(totals, itemID))
		if item.CurrentStock.Equal(ledger) {
			return nil
		}

		if err := r.repo.UpdateCurrentStock(ctx, stockType, itemID, ledger); err != nil {
			return fmt.Errorf("update current stock: %w", err)
		}
		fixed = &Mismatch{
			StockType:   stockType,
			StockItemID: itemID,
			Name:        item.Name,
			Stored:      item.CurrentStock,
			Ledger:      ledger,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if fixed != nil {
		logger.Warn(ctx, "stock balance repaired from ledger",
			"stock_type", stockType,
			"stock_item_id", itemID,
			"stored", fixed.Stored.String(),
			"ledger", fixed.Ledger.String(),
		)
	}
	return fixed, nil
}

func lookup(totals map[id.ID]types.Quantity, itemID id.ID) *types.Quantity {
	if q, ok := totals[itemID]; ok {
		return &q
	}
	return nil
}
