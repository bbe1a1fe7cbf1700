package handlers

import (
	"github.com/gin-gonic/gin"

	"foodprod/internal/domain/production"
	"foodprod/internal/infrastructure/http/v1/dto"
)

// RequirementHandler serves work order ingredient requirements.
type RequirementHandler struct {
	*BaseHandler
	resolver *production.Resolver
}

// NewRequirementHandler creates a new requirement handler.
func NewRequirementHandler(base *BaseHandler, resolver *production.Resolver) *RequirementHandler {
	return &RequirementHandler{BaseHandler: base, resolver: resolver}
}

// RequiredIngredients handles GET /work-orders/:workOrderId/required-ingredients
func (h *RequirementHandler) RequiredIngredients(c *gin.Context) {
	workOrderID, ok := h.ParamID(c, "workOrderId")
	if !ok {
		return
	}

	items, err := h.resolver.ResolveRequiredIngredients(c.Request.Context(), workOrderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.RequiredIngredientsResponse{
		WorkOrderID: workOrderID.String(),
		Items:       items,
	})
}

// OutstandingIngredients handles GET /work-orders/:workOrderId/outstanding-ingredients
func (h *RequirementHandler) OutstandingIngredients(c *gin.Context) {
	workOrderID, ok := h.ParamID(c, "workOrderId")
	if !ok {
		return
	}

	items, err := h.resolver.ResolveOutstanding(c.Request.Context(), workOrderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	shortages := 0
	for _, item := range items {
		if item.Shortage {
			shortages++
		}
	}

	h.OK(c, dto.OutstandingIngredientsResponse{
		WorkOrderID: workOrderID.String(),
		Items:       items,
		Shortages:   shortages,
	})
}

// RegisterRoutes registers work order routes.
func (h *RequirementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/:workOrderId/required-ingredients", h.RequiredIngredients)
	rg.GET("/:workOrderId/outstanding-ingredients", h.OutstandingIngredients)
}
