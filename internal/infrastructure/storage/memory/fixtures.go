package memory

import (
	"context"

	"foodprod/internal/core/id"
	"foodprod/internal/core/types"
	"foodprod/internal/domain/production"
	"foodprod/internal/domain/stock"
)

// Catalog rows are owned by the surrounding application. These helpers
// stand in for it when seeding tests and local runs.

// AddIngredient inserts an active ingredient with an opening balance.
func (s *Store) AddIngredient(name, unit string, currentStock types.Quantity) id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	ing := &stock.Ingredient{
		ID:                id.New(),
		Name:              name,
		UnitOfMeasurement: unit,
		CurrentStock:      currentStock,
		Active:            true,
	}
	s.ingredients[ing.ID] = ing
	return ing.ID
}

// AddProduct inserts an active product with an opening balance.
func (s *Store) AddProduct(name string, currentStock types.Quantity) id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := &stock.Product{
		ID:           id.New(),
		Name:         name,
		CurrentStock: currentStock,
		Active:       true,
	}
	s.products[p.ID] = p
	return p.ID
}

// AddCompound inserts a compound.
func (s *Store) AddCompound(name string) id.ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	compoundID := id.New()
	s.compounds[compoundID] = name
	return compoundID
}

// LinkProductIngredient adds qty of an ingredient per kg of product.
func (s *Store) LinkProductIngredient(productID, ingredientID id.ID, qty types.Quantity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productIngredients = append(s.productIngredients, link{parentID: productID, childID: ingredientID, quantity: qty})
}

// LinkProductCompound adds a compound to a product recipe.
func (s *Store) LinkProductCompound(productID, compoundID id.ID, qty types.Quantity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.productCompounds = append(s.productCompounds, link{parentID: productID, childID: compoundID, quantity: qty})
}

// LinkCompoundIngredient adds qty of an ingredient to a compound recipe.
func (s *Store) LinkCompoundIngredient(compoundID, ingredientID id.ID, qty types.Quantity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.compoundIngredients = append(s.compoundIngredients, link{parentID: compoundID, childID: ingredientID, quantity: qty})
}

// AddWorkOrderProduct adds a product line to a work order. pouchSize is in grams.
func (s *Store) AddWorkOrderProduct(workOrderID, productID id.ID, pouchSize, numberOfPouches types.Quantity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	line := production.WorkOrderProduct{
		WorkOrderID:     workOrderID,
		ProductID:       productID,
		PouchSize:       pouchSize,
		NumberOfPouches: numberOfPouches,
	}
	total := line.TotalWeightKg()
	line.TotalWeight = &total
	s.workOrderProducts = append(s.workOrderProducts, line)
}

// SetStock overwrites a balance without writing a ledger row. It exists to
// simulate drift from manual edits.
func (s *Store) SetStock(stockType stock.StockType, itemID id.ID, qty types.Quantity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setStock(context.Background(), stockType, itemID, qty)
}

// Allocations returns a copy of the ledger in insertion order.
func (s *Store) Allocations() []stock.Allocation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]stock.Allocation(nil), s.ledger...)
}

// DemoData holds the ids created by SeedDemo.
type DemoData struct {
	Salt, Chilli, Oil, Garlic id.ID
	Masala                    id.ID
	Pickle, Chutney           id.ID
	WorkOrder                 id.ID
}

// SeedDemo loads a small recipe book and one work order.
func (s *Store) SeedDemo() DemoData {
	var d DemoData
	d.Salt = s.AddIngredient("Salt", "KG", types.QuantityFromInt(50))
	d.Chilli = s.AddIngredient("Chilli Powder", "Gms", types.QuantityFromInt(20000))
	d.Oil = s.AddIngredient("Mustard Oil", "Lit", types.QuantityFromInt(40))
	d.Garlic = s.AddIngredient("Garlic", "KG", types.QuantityFromInt(15))

	d.Masala = s.AddCompound("Pickle Masala")
	s.LinkCompoundIngredient(d.Masala, d.Chilli, types.MustQuantity("30"))
	s.LinkCompoundIngredient(d.Masala, d.Salt, types.MustQuantity("0.02"))

	d.Pickle = s.AddProduct("Garlic Pickle", types.QuantityFromInt(120))
	s.LinkProductIngredient(d.Pickle, d.Garlic, types.MustQuantity("0.6"))
	s.LinkProductIngredient(d.Pickle, d.Oil, types.MustQuantity("0.25"))
	s.LinkProductIngredient(d.Pickle, d.Salt, types.MustQuantity("0.05"))
	s.LinkProductCompound(d.Pickle, d.Masala, types.MustQuantity("1"))

	d.Chutney = s.AddProduct("Tomato Chutney", types.QuantityFromInt(80))
	s.LinkProductIngredient(d.Chutney, d.Salt, types.MustQuantity("0.03"))

	d.WorkOrder = id.New()
	s.AddWorkOrderProduct(d.WorkOrder, d.Pickle, types.QuantityFromInt(500), types.QuantityFromInt(100))
	s.AddWorkOrderProduct(d.WorkOrder, d.Chutney, types.QuantityFromInt(250), types.QuantityFromInt(40))
	return d
}
