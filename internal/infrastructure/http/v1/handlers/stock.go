package handlers

import (
	"github.com/gin-gonic/gin"

	"foodprod/internal/core/id"
	"foodprod/internal/domain/stock"
	"foodprod/internal/infrastructure/http/v1/dto"
)

// StockHandler exposes stock movements and ledger queries.
type StockHandler struct {
	*BaseHandler
	service *stock.Service
	history *stock.HistoryService
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, service *stock.Service, history *stock.HistoryService) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		service:     service,
		history:     history,
	}
}

// AddIngredientStock handles POST /stock/ingredients/:id/inward
func (h *StockHandler) AddIngredientStock(c *gin.Context) {
	ingredientID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.InwardRequest
	if !h.BindJSON(c, &req) {
		return
	}

	ing, err := h.service.AddIngredientStock(c.Request.Context(), ingredientID, *req.Quantity, req.ReferenceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromIngredient(ing))
}

// AddProductStock handles POST /stock/products/:id/inward
func (h *StockHandler) AddProductStock(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.InwardRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p, err := h.service.AddProductStock(c.Request.Context(), productID, *req.Quantity, req.ReferenceID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

// AllocateProductStock handles POST /stock/products/:id/allocate
func (h *StockHandler) AllocateProductStock(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.AllocateProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	orderID, err := id.ParseField("orderId", req.OrderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	p, err := h.service.AllocateProductStock(c.Request.Context(), productID, orderID, *req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProduct(p))
}

// AllocateIngredientStock handles POST /stock/ingredients/:id/allocate
func (h *StockHandler) AllocateIngredientStock(c *gin.Context) {
	ingredientID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.AllocateIngredientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	workOrderID, err := id.ParseField("workOrderId", req.WorkOrderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	ing, err := h.service.AllocateIngredientStock(c.Request.Context(), ingredientID, workOrderID, *req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromIngredient(ing))
}

// IngredientHistory handles GET /stock/ingredients/:id/history
func (h *StockHandler) IngredientHistory(c *gin.Context) {
	h.itemHistory(c, stock.TypeIngredient)
}

// ProductHistory handles GET /stock/products/:id/history
func (h *StockHandler) ProductHistory(c *gin.Context) {
	h.itemHistory(c, stock.TypeProduct)
}

func (h *StockHandler) itemHistory(c *gin.Context, stockType stock.StockType) {
	itemID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var q dto.HistoryQuery
	if !h.BindQuery(c, &q) {
		return
	}

	page, err := h.history.ItemHistoryPage(c.Request.Context(), stockType, itemID, q.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewPageResponse(dto.FromAllocations(page.Rows), page.Total))
}

// OrderAllocations handles GET /stock/orders/:orderId/allocations
func (h *StockHandler) OrderAllocations(c *gin.Context) {
	orderID, ok := h.ParamID(c, "orderId")
	if !ok {
		return
	}

	rows, err := h.history.GetStockAllocationsByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(dto.FromAllocations(rows)))
}

// WorkOrderAllocations handles GET /stock/work-orders/:workOrderId/allocations
func (h *StockHandler) WorkOrderAllocations(c *gin.Context) {
	workOrderID, ok := h.ParamID(c, "workOrderId")
	if !ok {
		return
	}

	rows, err := h.history.GetStockAllocationsByWorkOrder(c.Request.Context(), workOrderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.NewListResponse(dto.FromAllocations(rows)))
}

// RegisterRoutes registers stock routes.
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/ingredients/:id/inward", h.AddIngredientStock)
	rg.POST("/ingredients/:id/allocate", h.AllocateIngredientStock)
	rg.GET("/ingredients/:id/history", h.IngredientHistory)

	rg.POST("/products/:id/inward", h.AddProductStock)
	rg.POST("/products/:id/allocate", h.AllocateProductStock)
	rg.GET("/products/:id/history", h.ProductHistory)

	rg.GET("/orders/:orderId/allocations", h.OrderAllocations)
	rg.GET("/work-orders/:workOrderId/allocations", h.WorkOrderAllocations)
}
