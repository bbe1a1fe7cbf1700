// Package main applies the stock schema and optionally loads a demo catalogue.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Masterminds/squirrel"

	"foodprod/internal/config"
	"foodprod/internal/core/id"
	"foodprod/internal/core/types"
	"foodprod/internal/domain/stock"
	"foodprod/internal/infrastructure/lock"
	"foodprod/internal/infrastructure/storage/postgres"
	"foodprod/internal/infrastructure/storage/postgres/stock_repo"
	"foodprod/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
		Service:     "foodprod-seed",
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}
	if cfg.StorageDriver != config.StoragePostgres {
		log.Fatalw("seed requires the postgres storage driver", "storage", cfg.StorageDriver)
	}

	ctx := logger.WithLogger(context.Background(), log)

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	if cfg.SeedDemoData {
		workOrderID, err := seedDemoData(ctx, pool)
		if err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
		log.Infow("demo data seeded", "work_order_id", workOrderID)
	}

	log.Info("seeding completed successfully")
}

type demoIngredient struct {
	name    string
	unit    string
	opening int64
}

var demoIngredients = []demoIngredient{
	{"Salt", "KG", 50},
	{"Chilli Powder", "Gms", 20000},
	{"Oil", "Lit", 40},
	{"Garlic", "KG", 15},
}

// seedDemoData creates the demo catalogue with zero balances, then posts
// opening balances through the stock service so every balance has a
// matching INWARD ledger row.
func seedDemoData(ctx context.Context, pool *postgres.Pool) (id.ID, error) {
	txm := postgres.NewTxManager(pool)
	svc := stock.NewService(stock_repo.NewStockRepo(txm), txm, lock.NewLocalLocker())
	sb := squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

	ingredients := map[string]id.ID{}
	products := map[string]id.ID{}
	workOrderID := id.New()

	err := txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := txm.GetQuerier(ctx)
		exec := func(b squirrel.InsertBuilder) error {
			sql, args, err := b.ToSql()
			if err != nil {
				return fmt.Errorf("build insert: %w", err)
			}
			_, err = q.Exec(ctx, sql, args...)
			return err
		}

		for _, ing := range demoIngredients {
			ingredients[ing.name] = id.New()
			if err := exec(sb.Insert("ingredients").
				Columns("id", "name", "unit_of_measurement", "current_stock").
				Values(ingredients[ing.name], ing.name, ing.unit, 0)); err != nil {
				return fmt.Errorf("insert ingredient %s: %w", ing.name, err)
			}
		}

		for _, name := range []string{"Garlic Pickle", "Tomato Chutney"} {
			products[name] = id.New()
			if err := exec(sb.Insert("products").
				Columns("id", "name", "current_stock").
				Values(products[name], name, 0)); err != nil {
				return fmt.Errorf("insert product %s: %w", name, err)
			}
		}

		masala := id.New()
		if err := exec(sb.Insert("compounds").Columns("id", "name").Values(masala, "Pickle Masala")); err != nil {
			return fmt.Errorf("insert compound: %w", err)
		}

		links := sb.Insert("product_ingredients").Columns("product_id", "ingredient_id", "quantity").
			Values(products["Garlic Pickle"], ingredients["Garlic"], "0.6").
			Values(products["Garlic Pickle"], ingredients["Oil"], "0.25").
			Values(products["Garlic Pickle"], ingredients["Salt"], "0.05").
			Values(products["Tomato Chutney"], ingredients["Salt"], "0.03")
		if err := exec(links); err != nil {
			return fmt.Errorf("insert product ingredients: %w", err)
		}

		if err := exec(sb.Insert("product_compounds").Columns("product_id", "compound_id", "quantity").
			Values(products["Garlic Pickle"], masala, "1")); err != nil {
			return fmt.Errorf("insert product compounds: %w", err)
		}

		if err := exec(sb.Insert("compound_ingredients").Columns("compound_id", "ingredient_id", "quantity").
			Values(masala, ingredients["Chilli Powder"], "30").
			Values(masala, ingredients["Salt"], "0.02")); err != nil {
			return fmt.Errorf("insert compound ingredients: %w", err)
		}

		lines := sb.Insert("work_order_products").
			Columns("id", "work_order_id", "product_id", "pouch_size", "number_of_pouches", "total_weight").
			Values(id.New(), workOrderID, products["Garlic Pickle"], 500, 100, 50).
			Values(id.New(), workOrderID, products["Tomato Chutney"], 250, 40, 10)
		if err := exec(lines); err != nil {
			return fmt.Errorf("insert work order products: %w", err)
		}
		return nil
	})
	if err != nil {
		return id.Nil(), err
	}

	for _, ing := range demoIngredients {
		if _, err := svc.AddIngredientStock(ctx, ingredients[ing.name], types.QuantityFromInt(ing.opening), nil); err != nil {
			return id.Nil(), fmt.Errorf("opening balance %s: %w", ing.name, err)
		}
	}
	for name, qty := range map[string]int64{"Garlic Pickle": 120, "Tomato Chutney": 80} {
		if _, err := svc.AddProductStock(ctx, products[name], types.QuantityFromInt(qty), nil); err != nil {
			return id.Nil(), fmt.Errorf("opening balance %s: %w", name, err)
		}
	}

	return workOrderID, nil
}
