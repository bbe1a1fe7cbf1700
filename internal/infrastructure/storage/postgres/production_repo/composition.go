// Package production_repo reads recipes, work order lines and ingredient
// balances for the requirement resolver.
package production_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"foodprod/internal/core/id"
	"foodprod/internal/core/types"
	"foodprod/internal/domain/production"
	"foodprod/internal/infrastructure/storage/postgres"
)

var (
	_ production.CompositionReader = (*CompositionRepo)(nil)
	_ production.BalanceReader     = (*CompositionRepo)(nil)
)

// CompositionRepo implements production.CompositionReader and
// production.BalanceReader. It never writes.
type CompositionRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCompositionRepo creates a new composition repository.
func NewCompositionRepo(txm *postgres.TxManager) *CompositionRepo {
	return &CompositionRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CompositionRepo) workOrderProductsQuery(workOrderID id.ID) squirrel.SelectBuilder {
	return r.builder.Select(
		"work_order_id", "product_id", "pouch_size", "number_of_pouches", "total_weight",
	).From("work_order_products").
		Where(squirrel.Eq{"work_order_id": workOrderID}).
		OrderBy("id")
}

// ListWorkOrderProducts returns the product lines of a work order.
func (r *CompositionRepo) ListWorkOrderProducts(ctx context.Context, workOrderID id.ID) ([]production.WorkOrderProduct, error) {
	sql, args, err := r.workOrderProductsQuery(workOrderID).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []production.WorkOrderProduct
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select work order products: %w", err)
	}
	return lines, nil
}

func (r *CompositionRepo) productIngredientsQuery(productIDs []id.ID) squirrel.SelectBuilder {
	return r.builder.Select(
		"pi.product_id", "pi.ingredient_id",
		"i.name AS ingredient_name", "i.unit_of_measurement", "pi.quantity",
	).From("product_ingredients pi").
		Join("ingredients i ON i.id = pi.ingredient_id").
		Where(squirrel.Eq{"pi.product_id": productIDs})
}

// ListProductIngredients returns direct recipe links of the given products.
func (r *CompositionRepo) ListProductIngredients(ctx context.Context, productIDs []id.ID) ([]production.ProductIngredient, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	sql, args, err := r.productIngredientsQuery(productIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var links []production.ProductIngredient
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &links, sql, args...); err != nil {
		return nil, fmt.Errorf("select product ingredients: %w", err)
	}
	return links, nil
}

// ListProductCompounds returns compound links of the given products.
func (r *CompositionRepo) ListProductCompounds(ctx context.Context, productIDs []id.ID) ([]production.ProductCompound, error) {
	if len(productIDs) == 0 {
		return nil, nil
	}

	sql, args, err := r.builder.Select("product_id", "compound_id", "quantity").
		From("product_compounds").
		Where(squirrel.Eq{"product_id": productIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var links []production.ProductCompound
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &links, sql, args...); err != nil {
		return nil, fmt.Errorf("select product compounds: %w", err)
	}
	return links, nil
}

func (r *CompositionRepo) compoundIngredientsQuery(compoundIDs []id.ID) squirrel.SelectBuilder {
	return r.builder.Select(
		"ci.compound_id", "ci.ingredient_id",
		"i.name AS ingredient_name", "i.unit_of_measurement", "ci.quantity",
	).From("compound_ingredients ci").
		Join("ingredients i ON i.id = ci.ingredient_id").
		Where(squirrel.Eq{"ci.compound_id": compoundIDs})
}

// ListCompoundIngredients returns recipe links of the given compounds.
func (r *CompositionRepo) ListCompoundIngredients(ctx context.Context, compoundIDs []id.ID) ([]production.CompoundIngredient, error) {
	if len(compoundIDs) == 0 {
		return nil, nil
	}

	sql, args, err := r.compoundIngredientsQuery(compoundIDs).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var links []production.CompoundIngredient
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &links, sql, args...); err != nil {
		return nil, fmt.Errorf("select compound ingredients: %w", err)
	}
	return links, nil
}

// GetIngredientStocks returns stored balances; a null balance reads as zero.
func (r *CompositionRepo) GetIngredientStocks(ctx context.Context, ingredientIDs []id.ID) (map[id.ID]types.Quantity, error) {
	out := make(map[id.ID]types.Quantity, len(ingredientIDs))
	if len(ingredientIDs) == 0 {
		return out, nil
	}

	sql, args, err := r.builder.Select("id", "COALESCE(current_stock, 0) AS current_stock").
		From("ingredients").
		Where(squirrel.Eq{"id": ingredientIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []struct {
		ID           id.ID          `db:"id"`
		CurrentStock types.Quantity `db:"current_stock"`
	}
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select ingredient stock: %w", err)
	}

	for _, row := range rows {
		out[row.ID] = row.CurrentStock
	}
	return out, nil
}
