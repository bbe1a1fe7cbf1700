package dto

import (
	"foodprod/internal/domain/production"
)

// RequiredIngredientsResponse lists what a work order needs, in kg.
type RequiredIngredientsResponse struct {
	WorkOrderID string                          `json:"workOrderId"`
	Items       []production.RequiredIngredient `json:"items"`
}

// OutstandingIngredientsResponse lists what a work order still needs.
type OutstandingIngredientsResponse struct {
	WorkOrderID string                             `json:"workOrderId"`
	Items       []production.OutstandingIngredient `json:"items"`
	Shortages   int                                `json:"shortages"`
}
