// Package memory provides an in-process implementation of the stock and
// production stores. It backs the test suites and the "memory" storage
// driver used for local runs without Postgres.
package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"foodprod/internal/core/id"
	"foodprod/internal/core/tx"
	"foodprod/internal/core/types"
	"foodprod/internal/domain/production"
	"foodprod/internal/domain/stock"
)

var (
	_ stock.Repository             = (*Store)(nil)
	_ tx.ReadOnlyManager           = (*Store)(nil)
	_ production.CompositionReader = (*Store)(nil)
	_ production.BalanceReader     = (*Store)(nil)
)

// Op names a store operation that can be made to fail with InjectFault.
type Op string

const (
	OpGetItemForUpdate        Op = "GetItemForUpdate"
	OpUpdateCurrentStock      Op = "UpdateCurrentStock"
	OpAppendAllocation        Op = "AppendAllocation"
	OpListAllocations         Op = "ListAllocations"
	OpListWorkOrderProducts   Op = "ListWorkOrderProducts"
	OpListProductIngredients  Op = "ListProductIngredients"
	OpListProductCompounds    Op = "ListProductCompounds"
	OpListCompoundIngredients Op = "ListCompoundIngredients"
	OpGetIngredientStocks     Op = "GetIngredientStocks"
)

type link struct {
	parentID id.ID
	childID  id.ID
	quantity types.Quantity
}

// Store keeps items, ledger rows and recipes in maps guarded by a mutex.
// Transactions are serialized and rolled back through an undo journal.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex

	ingredients map[id.ID]*stock.Ingredient
	products    map[id.ID]*stock.Product
	compounds   map[id.ID]string
	ledger      []stock.Allocation

	productIngredients  []link
	productCompounds    []link
	compoundIngredients []link
	workOrderProducts   []production.WorkOrderProduct

	faults map[Op]error
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		ingredients: make(map[id.ID]*stock.Ingredient),
		products:    make(map[id.ID]*stock.Product),
		compounds:   make(map[id.ID]string),
		faults:      make(map[Op]error),
	}
}

// InjectFault makes every later call of op fail with err until ClearFaults.
func (s *Store) InjectFault(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// ClearFaults removes all injected faults.
func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.faults)
}

// fault must be called with mu held.
func (s *Store) fault(op Op) error {
	if err, ok := s.faults[op]; ok {
		return fmt.Errorf("memory %s: %w", op, err)
	}
	return nil
}

// --- Transactions ---

type txKey struct{}

type txState struct {
	undo     []func()
	readOnly bool
}

// ErrReadOnlyTransaction is returned for writes inside ReadOnly.
var ErrReadOnlyTransaction = errors.New("memory: write in read-only transaction")

// RunInTransaction implements tx.Manager. Only one transaction runs at a
// time; on error or panic every write made through ctx is undone in
// reverse order.
func (s *Store) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	state := &txState{}
	committed := false
	defer func() {
		if !committed {
			s.rollback(state)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, state)); err != nil {
		return err
	}
	committed = true
	return nil
}

func (s *Store) rollback(state *txState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(state.undo) - 1; i >= 0; i-- {
		state.undo[i]()
	}
}

// ReadOnly implements tx.ReadOnlyManager. It excludes writing
// transactions for its duration, so fn sees one consistent state.
func (s *Store) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*txState); ok {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	return fn(context.WithValue(ctx, txKey{}, &txState{readOnly: true}))
}

// writable rejects writes made under ReadOnly.
func writable(ctx context.Context) error {
	if state, ok := ctx.Value(txKey{}).(*txState); ok && state.readOnly {
		return ErrReadOnlyTransaction
	}
	return nil
}

// journal records an undo step when ctx carries a transaction.
// Must be called with mu held.
func journal(ctx context.Context, undo func()) {
	if state, ok := ctx.Value(txKey{}).(*txState); ok {
		state.undo = append(state.undo, undo)
	}
}

// --- stock.Repository ---

func (s *Store) GetIngredient(_ context.Context, ingredientID id.ID) (*stock.Ingredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ing, ok := s.ingredients[ingredientID]
	if !ok {
		return nil, stock.NotFound(stock.TypeIngredient, ingredientID)
	}
	cp := *ing
	return &cp, nil
}

func (s *Store) GetProduct(_ context.Context, productID id.ID) (*stock.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		return nil, stock.NotFound(stock.TypeProduct, productID)
	}
	cp := *p
	return &cp, nil
}

// GetItemForUpdate relies on transactions being serialized for its row lock.
func (s *Store) GetItemForUpdate(_ context.Context, stockType stock.StockType, itemID id.ID) (*stock.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpGetItemForUpdate); err != nil {
		return nil, err
	}
	item, ok := s.item(stockType, itemID)
	if !ok {
		return nil, stock.NotFound(stockType, itemID)
	}
	return &item, nil
}

func (s *Store) UpdateCurrentStock(ctx context.Context, stockType stock.StockType, itemID id.ID, qty types.Quantity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpUpdateCurrentStock); err != nil {
		return err
	}
	if err := writable(ctx); err != nil {
		return err
	}
	return s.setStock(ctx, stockType, itemID, qty)
}

func (s *Store) ListItems(_ context.Context, stockType stock.StockType) ([]stock.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var items []stock.Item
	switch stockType {
	case stock.TypeIngredient:
		for _, ing := range s.ingredients {
			items = append(items, stock.Item{ID: ing.ID, StockType: stockType, Name: ing.Name, CurrentStock: ing.CurrentStock})
		}
	case stock.TypeProduct:
		for _, p := range s.products {
			items = append(items, stock.Item{ID: p.ID, StockType: stockType, Name: p.Name, CurrentStock: p.CurrentStock})
		}
	}

	slices.SortFunc(items, func(a, b stock.Item) int {
		return strings.Compare(a.Name, b.Name)
	})
	return items, nil
}

func (s *Store) AppendAllocation(ctx context.Context, a stock.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpAppendAllocation); err != nil {
		return err
	}
	if err := writable(ctx); err != nil {
		return err
	}

	n := len(s.ledger)
	s.ledger = append(s.ledger, a)
	journal(ctx, func() { s.ledger = s.ledger[:n] })
	return nil
}

func (s *Store) ListAllocations(_ context.Context, filter stock.AllocationFilter) ([]stock.Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpListAllocations); err != nil {
		return nil, err
	}

	rows := make([]stock.Allocation, 0)
	for _, a := range s.ledger {
		if matches(a, filter) {
			rows = append(rows, a)
		}
	}

	slices.SortStableFunc(rows, func(a, b stock.Allocation) int {
		if c := b.AllocationDate.Compare(a.AllocationDate); c != 0 {
			return c
		}
		return strings.Compare(b.ID.String(), a.ID.String())
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(rows) {
			return []stock.Allocation{}, nil
		}
		rows = rows[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(rows) {
		rows = rows[:filter.Limit]
	}
	return rows, nil
}

func (s *Store) CountAllocations(_ context.Context, filter stock.AllocationFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpListAllocations); err != nil {
		return 0, err
	}

	n := 0
	for _, a := range s.ledger {
		if matches(a, filter) {
			n++
		}
	}
	return n, nil
}

func (s *Store) LedgerTotals(_ context.Context, stockType stock.StockType, itemIDs []id.ID) (map[id.ID]types.Quantity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[id.ID]types.Quantity)
	for _, a := range s.ledger {
		if a.StockType != stockType {
			continue
		}
		if itemIDs != nil && !slices.Contains(itemIDs, a.StockItemID) {
			continue
		}
		totals[a.StockItemID] = totals[a.StockItemID].Add(a.SignedQuantity())
	}
	return totals, nil
}

func matches(a stock.Allocation, f stock.AllocationFilter) bool {
	switch {
	case f.StockType != nil && a.StockType != *f.StockType:
		return false
	case f.StockItemID != nil && a.StockItemID != *f.StockItemID:
		return false
	case f.ReferenceID != nil && (a.ReferenceID == nil || *a.ReferenceID != *f.ReferenceID):
		return false
	case f.EntryType != nil && a.EntryType != *f.EntryType:
		return false
	case f.FromDate != nil && a.AllocationDate.Before(*f.FromDate):
		return false
	case f.ToDate != nil && a.AllocationDate.After(*f.ToDate):
		return false
	}
	return true
}

// item must be called with mu held.
func (s *Store) item(stockType stock.StockType, itemID id.ID) (stock.Item, bool) {
	switch stockType {
	case stock.TypeIngredient:
		if ing, ok := s.ingredients[itemID]; ok {
			return stock.Item{ID: ing.ID, StockType: stockType, Name: ing.Name, CurrentStock: ing.CurrentStock}, true
		}
	case stock.TypeProduct:
		if p, ok := s.products[itemID]; ok {
			return stock.Item{ID: p.ID, StockType: stockType, Name: p.Name, CurrentStock: p.CurrentStock}, true
		}
	}
	return stock.Item{}, false
}

// setStock must be called with mu held.
func (s *Store) setStock(ctx context.Context, stockType stock.StockType, itemID id.ID, qty types.Quantity) error {
	switch stockType {
	case stock.TypeIngredient:
		if ing, ok := s.ingredients[itemID]; ok {
			prev := ing.CurrentStock
			ing.CurrentStock = qty
			journal(ctx, func() { ing.CurrentStock = prev })
			return nil
		}
	case stock.TypeProduct:
		if p, ok := s.products[itemID]; ok {
			prev := p.CurrentStock
			p.CurrentStock = qty
			journal(ctx, func() { p.CurrentStock = prev })
			return nil
		}
	}
	return stock.NotFound(stockType, itemID)
}

// --- production readers ---

func (s *Store) ListWorkOrderProducts(_ context.Context, workOrderID id.ID) ([]production.WorkOrderProduct, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpListWorkOrderProducts); err != nil {
		return nil, err
	}

	var out []production.WorkOrderProduct
	for _, line := range s.workOrderProducts {
		if line.WorkOrderID == workOrderID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (s *Store) ListProductIngredients(_ context.Context, productIDs []id.ID) ([]production.ProductIngredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpListProductIngredients); err != nil {
		return nil, err
	}

	var out []production.ProductIngredient
	for _, l := range s.productIngredients {
		if !slices.Contains(productIDs, l.parentID) {
			continue
		}
		ing, ok := s.ingredients[l.childID]
		if !ok {
			continue
		}
		out = append(out, production.ProductIngredient{
			ProductID:         l.parentID,
			IngredientID:      ing.ID,
			IngredientName:    ing.Name,
			UnitOfMeasurement: ing.UnitOfMeasurement,
			Quantity:          l.quantity,
		})
	}
	return out, nil
}

func (s *Store) ListProductCompounds(_ context.Context, productIDs []id.ID) ([]production.ProductCompound, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpListProductCompounds); err != nil {
		return nil, err
	}

	var out []production.ProductCompound
	for _, l := range s.productCompounds {
		if slices.Contains(productIDs, l.parentID) {
			out = append(out, production.ProductCompound{
				ProductID:  l.parentID,
				CompoundID: l.childID,
				Quantity:   l.quantity,
			})
		}
	}
	return out, nil
}

func (s *Store) ListCompoundIngredients(_ context.Context, compoundIDs []id.ID) ([]production.CompoundIngredient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpListCompoundIngredients); err != nil {
		return nil, err
	}

	var out []production.CompoundIngredient
	for _, l := range s.compoundIngredients {
		if !slices.Contains(compoundIDs, l.parentID) {
			continue
		}
		ing, ok := s.ingredients[l.childID]
		if !ok {
			continue
		}
		out = append(out, production.CompoundIngredient{
			CompoundID:        l.parentID,
			IngredientID:      ing.ID,
			IngredientName:    ing.Name,
			UnitOfMeasurement: ing.UnitOfMeasurement,
			Quantity:          l.quantity,
		})
	}
	return out, nil
}

func (s *Store) GetIngredientStocks(_ context.Context, ingredientIDs []id.ID) (map[id.ID]types.Quantity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fault(OpGetIngredientStocks); err != nil {
		return nil, err
	}

	out := make(map[id.ID]types.Quantity, len(ingredientIDs))
	for _, ingredientID := range ingredientIDs {
		if ing, ok := s.ingredients[ingredientID]; ok {
			out[ingredientID] = ing.CurrentStock
		}
	}
	return out, nil
}
