// Package stock_repo provides the PostgreSQL implementation of the stock
// ledger and balance store.
package stock_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"foodprod/internal/core/apperror"
	"foodprod/internal/core/id"
	"foodprod/internal/core/types"
	"foodprod/internal/domain/stock"
	"foodprod/internal/infrastructure/storage/postgres"
)

const (
	ingredientsTable = "ingredients"
	productsTable    = "products"
	allocationTable  = "stock_allocation"
)

// allocationColumns follows the field order of stock.Allocation.
var allocationColumns = postgres.ExtractDBColumns[stock.Allocation]()

var _ stock.Repository = (*StockRepo)(nil)

// StockRepo implements stock.Repository.
type StockRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewStockRepo creates a new stock repository.
func NewStockRepo(txm *postgres.TxManager) *StockRepo {
	return &StockRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func itemTable(stockType stock.StockType) (string, error) {
	switch stockType {
	case stock.TypeIngredient:
		return ingredientsTable, nil
	case stock.TypeProduct:
		return productsTable, nil
	}
	return "", apperror.NewValidation("invalid stock type").WithDetail("value", string(stockType))
}

// GetIngredient retrieves an ingredient by id.
func (r *StockRepo) GetIngredient(ctx context.Context, ingredientID id.ID) (*stock.Ingredient, error) {
	q := r.builder.Select(
		"id", "name", "unit_of_measurement", "rate",
		"COALESCE(current_stock, 0) AS current_stock", "active",
	).From(ingredientsTable).
		Where(squirrel.Eq{"id": ingredientID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var ing stock.Ingredient
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &ing, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, stock.NotFound(stock.TypeIngredient, ingredientID)
		}
		return nil, fmt.Errorf("get ingredient: %w", err)
	}
	return &ing, nil
}

// GetProduct retrieves a product by id.
func (r *StockRepo) GetProduct(ctx context.Context, productID id.ID) (*stock.Product, error) {
	q := r.builder.Select(
		"id", "name",
		"COALESCE(sale_price, 0) AS sale_price",
		"COALESCE(gst, 0) AS gst",
		"COALESCE(current_stock, 0) AS current_stock", "active",
	).From(productsTable).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p stock.Product
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, stock.NotFound(stock.TypeProduct, productID)
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &p, nil
}

func (r *StockRepo) itemForUpdateQuery(stockType stock.StockType, itemID id.ID) (squirrel.SelectBuilder, error) {
	table, err := itemTable(stockType)
	if err != nil {
		return squirrel.SelectBuilder{}, err
	}
	return r.builder.Select("id", "name", "COALESCE(current_stock, 0) AS current_stock").
		From(table).
		Where(squirrel.Eq{"id": itemID}).
		Suffix("FOR UPDATE"), nil
}

// GetItemForUpdate returns the balance with a row lock held until the
// surrounding transaction ends.
func (r *StockRepo) GetItemForUpdate(ctx context.Context, stockType stock.StockType, itemID id.ID) (*stock.Item, error) {
	q, err := r.itemForUpdateQuery(stockType, itemID)
	if err != nil {
		return nil, err
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var item stock.Item
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &item, sql, args...); err != nil {
		switch {
		case pgxscan.NotFound(err):
			return nil, stock.NotFound(stockType, itemID)
		case postgres.IsLockNotAvailable(err):
			return nil, apperror.NewConcurrentModification(string(stockType), itemID.String()).WithCause(err)
		}
		return nil, fmt.Errorf("lock stock item: %w", err)
	}
	item.StockType = stockType
	return &item, nil
}

// UpdateCurrentStock overwrites the stored balance.
func (r *StockRepo) UpdateCurrentStock(ctx context.Context, stockType stock.StockType, itemID id.ID, qty types.Quantity) error {
	table, err := itemTable(stockType)
	if err != nil {
		return err
	}

	sql, args, err := r.builder.Update(table).
		Set("current_stock", qty).
		Where(squirrel.Eq{"id": itemID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update current_stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return stock.NotFound(stockType, itemID)
	}
	return nil
}

// ListItems returns every item of a kind with its stored balance.
func (r *StockRepo) ListItems(ctx context.Context, stockType stock.StockType) ([]stock.Item, error) {
	table, err := itemTable(stockType)
	if err != nil {
		return nil, err
	}

	sql, args, err := r.builder.Select("id", "name", "COALESCE(current_stock, 0) AS current_stock").
		From(table).
		OrderBy("name", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []stock.Item
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("select items: %w", err)
	}
	for i := range items {
		items[i].StockType = stockType
	}
	return items, nil
}

// AppendAllocation inserts one ledger row.
func (r *StockRepo) AppendAllocation(ctx context.Context, a stock.Allocation) error {
	sql, args, err := r.builder.Insert(allocationTable).
		Columns(allocationColumns...).
		Values(
			a.ID, string(a.EntryType), string(a.StockType), a.StockItemID,
			a.ReferenceID, a.QuantityAllocated, a.AllocationDate,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if postgres.IsCheckViolation(err) {
			return apperror.NewValidation("invalid ledger row").WithCause(err)
		}
		return fmt.Errorf("insert allocation: %w", err)
	}
	return nil
}

func (r *StockRepo) allocationsQuery(f stock.AllocationFilter) squirrel.SelectBuilder {
	q := allocationWhere(r.builder.Select(allocationColumns...).From(allocationTable), f)

	q = q.OrderBy("allocation_date DESC", "id DESC")
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}
	return q
}

func (r *StockRepo) countAllocationsQuery(f stock.AllocationFilter) squirrel.SelectBuilder {
	return allocationWhere(r.builder.Select("COUNT(*)").From(allocationTable), f)
}

func allocationWhere(q squirrel.SelectBuilder, f stock.AllocationFilter) squirrel.SelectBuilder {
	if f.StockType != nil {
		q = q.Where(squirrel.Eq{"stock_type": string(*f.StockType)})
	}
	if f.StockItemID != nil {
		q = q.Where(squirrel.Eq{"stock_item_id": *f.StockItemID})
	}
	if f.ReferenceID != nil {
		q = q.Where(squirrel.Eq{"reference_id": *f.ReferenceID})
	}
	if f.EntryType != nil {
		q = q.Where(squirrel.Eq{"stock_entry_type": string(*f.EntryType)})
	}
	if f.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"allocation_date": *f.FromDate})
	}
	if f.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"allocation_date": *f.ToDate})
	}
	return q
}

// ListAllocations returns ledger rows newest first.
func (r *StockRepo) ListAllocations(ctx context.Context, f stock.AllocationFilter) ([]stock.Allocation, error) {
	sql, args, err := r.allocationsQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows := make([]stock.Allocation, 0)
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select allocations: %w", err)
	}
	return rows, nil
}

// CountAllocations counts ledger rows matching f without paging.
func (r *StockRepo) CountAllocations(ctx context.Context, f stock.AllocationFilter) (int, error) {
	sql, args, err := r.countAllocationsQuery(f).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var n int
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count allocations: %w", err)
	}
	return n, nil
}

func (r *StockRepo) ledgerTotalsQuery(stockType stock.StockType, itemIDs []id.ID) squirrel.SelectBuilder {
	q := r.builder.Select(
		"stock_item_id",
		"SUM(CASE WHEN stock_entry_type = 'OUTWARD' THEN -quantity_allocated ELSE quantity_allocated END) AS total",
	).From(allocationTable).
		Where(squirrel.Eq{"stock_type": string(stockType)})

	if itemIDs != nil {
		q = q.Where(squirrel.Eq{"stock_item_id": itemIDs})
	}
	return q.GroupBy("stock_item_id")
}

// LedgerTotals returns the signed ledger sum per item.
func (r *StockRepo) LedgerTotals(ctx context.Context, stockType stock.StockType, itemIDs []id.ID) (map[id.ID]types.Quantity, error) {
	sql, args, err := r.ledgerTotalsQuery(stockType, itemIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []struct {
		StockItemID id.ID          `db:"stock_item_id"`
		Total       types.Quantity `db:"total"`
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select ledger totals: %w", err)
	}

	totals := make(map[id.ID]types.Quantity, len(rows))
	for _, row := range rows {
		totals[row.StockItemID] = row.Total
	}
	return totals, nil
}
