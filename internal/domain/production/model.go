// Package production computes the ingredients a work order needs by
// expanding product and compound recipes.
package production

import (
	"github.com/shopspring/decimal"

	"foodprod/internal/core/id"
	"foodprod/internal/core/types"
)

var gramsPerKilogram = decimal.NewFromInt(1000)

// WorkOrderProduct is one product line of a work order.
type WorkOrderProduct struct {
	WorkOrderID id.ID `db:"work_order_id" json:"workOrderId"`
	ProductID   id.ID `db:"product_id" json:"productId"`
	// PouchSize is in grams.
	PouchSize       types.Quantity  `db:"pouch_size" json:"pouchSize"`
	NumberOfPouches types.Quantity  `db:"number_of_pouches" json:"numberOfPouches"`
	TotalWeight     *types.Quantity `db:"total_weight" json:"totalWeight,omitempty"`
}

// TotalWeightKg is pouch_size * number_of_pouches / 1000.
func (w WorkOrderProduct) TotalWeightKg() types.Quantity {
	return w.PouchSize.Mul(w.NumberOfPouches).Div(gramsPerKilogram)
}

// ProductIngredient is a direct product -> ingredient recipe link, joined
// with the ingredient's name and declared unit.
type ProductIngredient struct {
	ProductID         id.ID          `db:"product_id"`
	IngredientID      id.ID          `db:"ingredient_id"`
	IngredientName    string         `db:"ingredient_name"`
	UnitOfMeasurement string         `db:"unit_of_measurement"`
	Quantity          types.Quantity `db:"quantity"`
}

// ProductCompound links a product to a compound.
type ProductCompound struct {
	ProductID  id.ID          `db:"product_id"`
	CompoundID id.ID          `db:"compound_id"`
	Quantity   types.Quantity `db:"quantity"`
}

// CompoundIngredient is a compound -> ingredient recipe link, joined with
// the ingredient's name and declared unit. Compounds do not nest.
type CompoundIngredient struct {
	CompoundID        id.ID          `db:"compound_id"`
	IngredientID      id.ID          `db:"ingredient_id"`
	IngredientName    string         `db:"ingredient_name"`
	UnitOfMeasurement string         `db:"unit_of_measurement"`
	Quantity          types.Quantity `db:"quantity"`
}

// RequiredIngredient is a transient, never persisted projection.
// Quantities are expressed in the normalized base unit.
type RequiredIngredient struct {
	IngredientID      id.ID          `json:"ingredientId"`
	Name              string         `json:"name"`
	UnitOfMeasurement string         `json:"unitOfMeasurement"`
	SourceUnit        string         `json:"sourceUnit"`
	RequiredQuantity  types.Quantity `json:"requiredQuantity"`
	CurrentStock      types.Quantity `json:"currentStock"`
}

// OutstandingIngredient adds what the work order has already consumed.
type OutstandingIngredient struct {
	RequiredIngredient
	AllocatedQuantity   types.Quantity `json:"allocatedQuantity"`
	OutstandingQuantity types.Quantity `json:"outstandingQuantity"`
	Shortage            bool           `json:"shortage"`
}
