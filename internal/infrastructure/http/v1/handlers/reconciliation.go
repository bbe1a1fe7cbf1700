package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"foodprod/internal/domain/stock"
	"foodprod/internal/infrastructure/http/v1/dto"
)

// ReconciliationHandler exposes ledger/balance consistency checks.
type ReconciliationHandler struct {
	*BaseHandler
	reconciler *stock.Reconciler
}

// NewReconciliationHandler creates a new reconciliation handler.
func NewReconciliationHandler(base *BaseHandler, reconciler *stock.Reconciler) *ReconciliationHandler {
	return &ReconciliationHandler{BaseHandler: base, reconciler: reconciler}
}

// Check handles GET /stock/reconciliation?stockType=INGREDIENT
func (h *ReconciliationHandler) Check(c *gin.Context) {
	stockType, err := stock.ParseStockType(c.DefaultQuery("stockType", string(stock.TypeIngredient)))
	if err != nil {
		h.Error(c, err)
		return
	}

	mismatches, err := h.reconciler.Check(c.Request.Context(), stockType)
	if err != nil {
		h.Error(c, err)
		return
	}

	out := make([]dto.MismatchResponse, len(mismatches))
	for i, m := range mismatches {
		out[i] = dto.FromMismatch(m)
	}
	h.OK(c, dto.NewListResponse(out))
}

// Verify handles GET /stock/reconciliation/:stockType/:id
func (h *ReconciliationHandler) Verify(c *gin.Context) {
	stockType, err := stock.ParseStockType(c.Param("stockType"))
	if err != nil {
		h.Error(c, err)
		return
	}
	itemID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.reconciler.Verify(c.Request.Context(), stockType, itemID); err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, gin.H{"consistent": true})
}

// Repair handles POST /stock/reconciliation/:stockType/:id/repair
func (h *ReconciliationHandler) Repair(c *gin.Context) {
	stockType, err := stock.ParseStockType(c.Param("stockType"))
	if err != nil {
		h.Error(c, err)
		return
	}
	itemID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	fixed, err := h.reconciler.Repair(c.Request.Context(), stockType, itemID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if fixed == nil {
		c.Status(http.StatusNoContent)
		return
	}

	h.OK(c, dto.FromMismatch(*fixed))
}

// RegisterRoutes registers reconciliation routes.
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.Check)
	rg.GET("/:stockType/:id", h.Verify)
	rg.POST("/:stockType/:id/repair", h.Repair)
}
