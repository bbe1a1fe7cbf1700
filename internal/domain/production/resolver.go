package production

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"foodprod/internal/core/apperror"
	"foodprod/internal/core/id"
	"foodprod/internal/core/tx"
	"foodprod/internal/core/types"
	"foodprod/internal/domain/stock"
	"foodprod/internal/domain/units"
	"foodprod/pkg/logger"
)

var tracer = otel.Tracer("foodprod/production")

// ResolverOptions tunes the expansion.
type ResolverOptions struct {
	// ApplyCompoundQuantity multiplies compound ingredient contributions by
	// the product -> compound quantity. Off by default: the established
	// formula uses only the compound's ingredient quantity and the product
	// weight.
	ApplyCompoundQuantity bool
}

// Resolver expands a work order into the base ingredients it needs.
// It never writes and may be re-run on every refresh. All reads of one
// resolution run in a single read-only transaction so recipes, balances
// and allocations come from the same snapshot.
type Resolver struct {
	composition CompositionReader
	balances    BalanceReader
	allocations AllocationReader
	txManager   tx.ReadOnlyManager
	opts        ResolverOptions
}

// NewResolver creates a new requirement resolver.
func NewResolver(
	composition CompositionReader,
	balances BalanceReader,
	allocations AllocationReader,
	txManager tx.ReadOnlyManager,
	opts ResolverOptions,
) *Resolver {
	return &Resolver{
		composition: composition,
		balances:    balances,
		allocations: allocations,
		txManager:   txManager,
		opts:        opts,
	}
}

// ResolveRequiredIngredients returns the aggregated, stock-annotated
// ingredient list for a work order, sorted by name. A work order without
// products yields an empty list.
func (r *Resolver) ResolveRequiredIngredients(ctx context.Context, workOrderID id.ID) ([]RequiredIngredient, error) {
	ctx, span := tracer.Start(ctx, "production.resolve_required_ingredients",
		trace.WithAttributes(attribute.String("work_order.id", workOrderID.String())))
	defer span.End()

	var result []RequiredIngredient
	err := r.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		result, err = r.resolve(ctx, workOrderID)
		return err
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	span.SetAttributes(attribute.Int("ingredients.count", len(result)))
	logger.Debug(ctx, "work order resolved", "work_order_id", workOrderID, "ingredients", len(result))
	return result, nil
}

// ResolveOutstanding subtracts what has already been allocated to the work
// order from each requirement and flags ingredients whose stock cannot
// cover the remainder.
func (r *Resolver) ResolveOutstanding(ctx context.Context, workOrderID id.ID) ([]OutstandingIngredient, error) {
	ctx, span := tracer.Start(ctx, "production.resolve_outstanding",
		trace.WithAttributes(attribute.String("work_order.id", workOrderID.String())))
	defer span.End()

	var (
		required []RequiredIngredient
		rows     []stock.Allocation
	)
	err := r.txManager.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		required, err = r.resolve(ctx, workOrderID)
		if err != nil || len(required) == 0 {
			return err
		}

		rows, err = r.allocations.GetStockAllocationsByWorkOrder(ctx, workOrderID)
		if err != nil {
			return fmt.Errorf("load work order allocations: %w", err)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if len(required) == 0 {
		return []OutstandingIngredient{}, nil
	}

	// Consumption in the ingredient's own unit. Inward rows referencing the
	// work order (returns) reduce it.
	consumed := make(map[id.ID]types.Quantity)
	for _, row := range rows {
		if row.StockType != stock.TypeIngredient {
			continue
		}
		consumed[row.StockItemID] = consumed[row.StockItemID].Sub(row.SignedQuantity())
	}

	out := make([]OutstandingIngredient, 0, len(required))
	for _, req := range required {
		allocated := units.ToBaseUnit(consumed[req.IngredientID], req.SourceUnit)
		outstanding := req.RequiredQuantity.Sub(allocated)
		if outstanding.IsNegative() {
			outstanding = types.ZeroQuantity()
		}
		out = append(out, OutstandingIngredient{
			RequiredIngredient:  req,
			AllocatedQuantity:   allocated,
			OutstandingQuantity: outstanding,
			Shortage:            req.CurrentStock.LessThan(outstanding),
		})
	}

	return out, nil
}

func (r *Resolver) resolve(ctx context.Context, workOrderID id.ID) ([]RequiredIngredient, error) {
	if id.IsNil(workOrderID) {
		return nil, apperror.NewValidation("work_order_id is required").WithDetail("field", "workOrderId")
	}

	lines, err := r.composition.ListWorkOrderProducts(ctx, workOrderID)
	if err != nil {
		return nil, fmt.Errorf("load work order products: %w", err)
	}
	if len(lines) == 0 {
		return []RequiredIngredient{}, nil
	}

	productIDs := distinct(lines, func(l WorkOrderProduct) id.ID { return l.ProductID })

	direct, err := r.composition.ListProductIngredients(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load product ingredients: %w", err)
	}
	directByProduct := groupBy(direct, func(l ProductIngredient) id.ID { return l.ProductID })

	viaCompound, err := r.composition.ListProductCompounds(ctx, productIDs)
	if err != nil {
		return nil, fmt.Errorf("load product compounds: %w", err)
	}
	compoundsByProduct := groupBy(viaCompound, func(l ProductCompound) id.ID { return l.ProductID })

	var compoundIngredients map[id.ID][]CompoundIngredient
	if compoundIDs := distinct(viaCompound, func(l ProductCompound) id.ID { return l.CompoundID }); len(compoundIDs) > 0 {
		links, err := r.composition.ListCompoundIngredients(ctx, compoundIDs)
		if err != nil {
			return nil, fmt.Errorf("load compound ingredients: %w", err)
		}
		compoundIngredients = groupBy(links, func(l CompoundIngredient) id.ID { return l.CompoundID })
	}

	acc := newAccumulator()
	for _, line := range lines {
		weight := line.TotalWeightKg()

		for _, link := range directByProduct[line.ProductID] {
			acc.add(link.IngredientID, link.IngredientName, link.UnitOfMeasurement, link.Quantity.Mul(weight))
		}

		for _, pc := range compoundsByProduct[line.ProductID] {
			factor := weight
			if r.opts.ApplyCompoundQuantity {
				factor = weight.Mul(pc.Quantity)
			}
			for _, link := range compoundIngredients[pc.CompoundID] {
				acc.add(link.IngredientID, link.IngredientName, link.UnitOfMeasurement, link.Quantity.Mul(factor))
			}
		}
	}

	if len(acc.order) == 0 {
		return []RequiredIngredient{}, nil
	}

	stocks, err := r.balances.GetIngredientStocks(ctx, acc.order)
	if err != nil {
		return nil, fmt.Errorf("load ingredient stock: %w", err)
	}

	for _, unit := range acc.unknownUnits() {
		logger.Warn(ctx, "unrecognized unit of measurement, quantity not converted",
			"work_order_id", workOrderID,
			"unit", unit,
		)
	}

	return acc.result(stocks), nil
}

// accumulator merges contributions keyed by ingredient id.
type accumulator struct {
	entries map[id.ID]*RequiredIngredient
	order   []id.ID
	unknown map[string]struct{}
}

func newAccumulator() *accumulator {
	return &accumulator{
		entries: make(map[id.ID]*RequiredIngredient),
		unknown: make(map[string]struct{}),
	}
}

func (a *accumulator) add(ingredientID id.ID, name, unit string, raw types.Quantity) {
	qty, conv := units.Convert(raw, unit)
	if !conv.Recognized {
		a.unknown[unit] = struct{}{}
	}

	if e, ok := a.entries[ingredientID]; ok {
		e.RequiredQuantity = e.RequiredQuantity.Add(qty)
		return
	}

	a.entries[ingredientID] = &RequiredIngredient{
		IngredientID:      ingredientID,
		Name:              name,
		UnitOfMeasurement: units.BaseUnit,
		SourceUnit:        unit,
		RequiredQuantity:  qty,
	}
	a.order = append(a.order, ingredientID)
}

func (a *accumulator) unknownUnits() []string {
	out := make([]string, 0, len(a.unknown))
	for u := range a.unknown {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

func (a *accumulator) result(stocks map[id.ID]types.Quantity) []RequiredIngredient {
	out := make([]RequiredIngredient, 0, len(a.entries))
	for _, ingredientID := range a.order {
		e := *a.entries[ingredientID]
		e.CurrentStock = units.ToBaseUnit(stocks[ingredientID], e.SourceUnit)
		out = append(out, e)
	}

	slices.SortStableFunc(out, func(x, y RequiredIngredient) int {
		if c := strings.Compare(strings.ToLower(x.Name), strings.ToLower(y.Name)); c != 0 {
			return c
		}
		return strings.Compare(x.IngredientID.String(), y.IngredientID.String())
	})
	return out
}

func distinct[T any](rows []T, key func(T) id.ID) []id.ID {
	seen := make(map[id.ID]struct{}, len(rows))
	out := make([]id.ID, 0, len(rows))
	for _, row := range rows {
		k := key(row)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

func groupBy[T any](rows []T, key func(T) id.ID) map[id.ID][]T {
	out := make(map[id.ID][]T, len(rows))
	for _, row := range rows {
		k := key(row)
		out[k] = append(out[k], row)
	}
	return out
}
