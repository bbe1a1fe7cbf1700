package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"foodprod/internal/core/id"
	"foodprod/internal/core/types"
	"foodprod/internal/domain/production"
	"foodprod/internal/domain/stock"
	v1 "foodprod/internal/infrastructure/http/v1"
	"foodprod/internal/infrastructure/lock"
	"foodprod/internal/infrastructure/storage/memory"
	"foodprod/pkg/logger"
)

func newTestRouter(t *testing.T) (*gin.Engine, *memory.Store) {
	t.Helper()

	store := memory.NewStore()
	locker := lock.NewLocalLocker()
	history := stock.NewHistoryService(store)

	router := v1.NewRouter(v1.RouterConfig{
		Logger:        logger.NewNop(),
		StockService:  stock.NewService(store, store, locker),
		History:       history,
		Reconciler:    stock.NewReconciler(store, store, locker),
		Resolver:      production.NewResolver(store, store, history, store, production.ResolverOptions{}),
		StorageDriver: "memory",
	})
	return router, store
}

func do(t *testing.T, router *gin.Engine, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var decoded map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded), w.Body.String())
	}
	return w, decoded
}

func TestStockFlow_InwardAllocateHistory(t *testing.T) {
	router, store := newTestRouter(t)
	ingredientID := store.AddIngredient("Salt", "KG", types.ZeroQuantity())
	workOrderID := id.New()

	w, body := do(t, router, http.MethodPost, "/api/v1/stock/ingredients/"+ingredientID.String()+"/inward",
		map[string]any{"quantity": 10})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "10", body["currentStock"])

	w, body = do(t, router, http.MethodPost, "/api/v1/stock/ingredients/"+ingredientID.String()+"/allocate",
		map[string]any{"workOrderId": workOrderID.String(), "quantity": "4"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "6", body["currentStock"])

	w, body = do(t, router, http.MethodGet, "/api/v1/stock/ingredients/"+ingredientID.String()+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["totalCount"])

	items := body["items"].([]any)
	newest := items[0].(map[string]any)
	assert.Equal(t, "OUTWARD", newest["stockEntryType"])
	assert.Equal(t, workOrderID.String(), newest["referenceId"])

	w, body = do(t, router, http.MethodGet, "/api/v1/stock/work-orders/"+workOrderID.String()+"/allocations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["totalCount"])

	w, body = do(t, router, http.MethodGet, "/api/v1/stock/ingredients/"+ingredientID.String()+"/history?entryType=INWARD", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["totalCount"])

	w, body = do(t, router, http.MethodGet, "/api/v1/stock/ingredients/"+ingredientID.String()+"/history?limit=1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["totalCount"])
	assert.Len(t, body["items"], 1)

	w, body = do(t, router, http.MethodGet, "/api/v1/stock/ingredients/"+ingredientID.String()+"/history?offset=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, body["totalCount"])
	assert.Empty(t, body["items"])
}

func TestAllocateProduct_InsufficientStockIs422(t *testing.T) {
	router, store := newTestRouter(t)
	productID := store.AddProduct("Pickle", types.QuantityFromInt(50))

	w, body := do(t, router, http.MethodPost, "/api/v1/stock/products/"+productID.String()+"/allocate",
		map[string]any{"orderId": id.New().String(), "quantity": 100})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())
	assert.Equal(t, "INSUFFICIENT_STOCK", body["code"])

	details := body["details"].(map[string]any)
	assert.Equal(t, "50", details["available"])
	assert.Empty(t, store.Allocations())
}

func TestStockErrors(t *testing.T) {
	router, store := newTestRouter(t)
	productID := store.AddProduct("Pickle", types.QuantityFromInt(5))

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
		wantErr  string
	}{
		{
			name:     "malformed item id",
			method:   http.MethodPost,
			path:     "/api/v1/stock/products/not-a-uuid/inward",
			body:     map[string]any{"quantity": 1},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "missing quantity",
			method:   http.MethodPost,
			path:     "/api/v1/stock/products/" + productID.String() + "/inward",
			body:     map[string]any{},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "negative quantity",
			method:   http.MethodPost,
			path:     "/api/v1/stock/products/" + productID.String() + "/inward",
			body:     map[string]any{"quantity": -3},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "malformed order id",
			method:   http.MethodPost,
			path:     "/api/v1/stock/products/" + productID.String() + "/allocate",
			body:     map[string]any{"orderId": "x", "quantity": 1},
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
		{
			name:     "unknown product",
			method:   http.MethodPost,
			path:     "/api/v1/stock/products/" + id.New().String() + "/inward",
			body:     map[string]any{"quantity": 1},
			wantCode: http.StatusNotFound,
			wantErr:  "NOT_FOUND",
		},
		{
			name:     "bad stock type",
			method:   http.MethodGet,
			path:     "/api/v1/stock/reconciliation?stockType=SERVICE",
			wantCode: http.StatusBadRequest,
			wantErr:  "VALIDATION_ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, router, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
			assert.Equal(t, tt.wantErr, body["code"])
		})
	}

	assert.Empty(t, store.Allocations())
}

func TestRequiredIngredients(t *testing.T) {
	router, store := newTestRouter(t)
	d := store.SeedDemo()

	w, body := do(t, router, http.MethodGet, "/api/v1/work-orders/"+d.WorkOrder.String()+"/required-ingredients", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, d.WorkOrder.String(), body["workOrderId"])

	items := body["items"].([]any)
	require.Len(t, items, 4)
	first := items[0].(map[string]any)
	assert.Equal(t, "Chilli Powder", first["name"])
	assert.Equal(t, "kg", first["unitOfMeasurement"])
	assert.Equal(t, "1.5", first["requiredQuantity"])

	w, body = do(t, router, http.MethodGet, "/api/v1/work-orders/"+id.New().String()+"/outstanding-ingredients", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["items"])
	assert.EqualValues(t, 0, body["shortages"])
}

func TestReconciliationEndpoints(t *testing.T) {
	router, store := newTestRouter(t)
	productID := store.AddProduct("Pickle", types.QuantityFromInt(3))

	w, body := do(t, router, http.MethodGet, "/api/v1/stock/reconciliation?stockType=PRODUCT", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["totalCount"])

	w, body = do(t, router, http.MethodGet, "/api/v1/stock/reconciliation/PRODUCT/"+productID.String(), nil)
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, "LEDGER_MISMATCH", body["code"])

	w, body = do(t, router, http.MethodPost, "/api/v1/stock/reconciliation/PRODUCT/"+productID.String()+"/repair", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "3", body["drift"])

	w, _ = do(t, router, http.MethodPost, "/api/v1/stock/reconciliation/PRODUCT/"+productID.String()+"/repair", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w, body = do(t, router, http.MethodGet, "/api/v1/stock/reconciliation/PRODUCT/"+productID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["consistent"])
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t)

	w, body := do(t, router, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	w, _ = do(t, router, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
