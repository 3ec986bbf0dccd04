package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/inventory-tracker/backend-go/internal/domain"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/forecast"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/metrics"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/reconcile"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/repository/memory"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/service"
	"github.com/andresuchdata/inventory-tracker/backend-go/internal/summarizer"
)

type stubSummarizer struct{}

func (stubSummarizer) Summarize(ctx context.Context, req summarizer.Request) summarizer.Analysis {
	return summarizer.Text("summary of " + req.ItemName)
}

func newTestRouter(t *testing.T, health HealthCheck) (*gin.Engine, *memory.ItemStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memory.NewItemStore()
	_, err := store.SeedIfEmpty(context.Background(), domain.ReferenceItems())
	require.NoError(t, err)

	m := metrics.New()
	history := forecast.NewSyntheticHistory(time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC), 12, 7)
	services := &Services{
		InventoryService: service.NewInventoryService(store, reconcile.NewEngine(store, m), nil, nil),
		ForecastService:  service.NewForecastService(store, history, forecast.NewEngine(6), stubSummarizer{}, nil, m),
		Metrics:          m,
		Health:           health,
	}
	return NewRouter(services, []string{"*"}), store
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	w := do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	router, _ = newTestRouter(t, func(ctx context.Context) error { return errors.New("mongo down") })
	w = do(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "mongo down")
}

func TestMetricsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	do(router, http.MethodGet, "/api/v1/forecast/items/1", "")

	w := do(router, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "inventory_forecasts_total")
}

func TestGetSnapshot(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodGet, "/api/v1/inventory", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Items    []domain.InventoryItem `json:"items"`
		LowStock []domain.InventoryItem `json:"low_stock"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Items, len(domain.ReferenceItems()))
	assert.NotEmpty(t, body.LowStock)
}

func TestReconcile(t *testing.T) {
	router, store := newTestRouter(t, nil)
	snapshot, err := json.Marshal(domain.ReferenceItems()[:3])
	require.NoError(t, err)

	body := `{"snapshot":` + string(snapshot) + `,"delta":{` +
		`"edited":{"1":{"units_left":99}},` +
		`"added":[{"item_name":"Iced Tea","price":15,"cost_price":5}],` +
		`"deleted":[2]}}`
	w := do(router, http.MethodPost, "/api/v1/inventory/reconcile", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report reconcile.Report
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, []int64{2}, report.Updated)
	assert.Equal(t, []int64{13}, report.Inserted)
	assert.Equal(t, []int64{3}, report.Deleted)

	item, err := store.FindByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 99, item.UnitsLeft)
	_, err = store.FindByID(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
}

func TestReconcile_PartialFailureIsMultiStatus(t *testing.T) {
	router, _ := newTestRouter(t, nil)
	snapshot, err := json.Marshal(domain.ReferenceItems()[:1])
	require.NoError(t, err)

	body := `{"snapshot":` + string(snapshot) + `,"delta":{"edited":{"0":{"item_name":""}},"added":[],"deleted":[]}}`
	w := do(router, http.MethodPost, "/api/v1/inventory/reconcile", body)

	assert.Equal(t, http.StatusMultiStatus, w.Code)
	assert.Contains(t, w.Body.String(), `"failed":[{`)
}

func TestReconcile_RejectsUnknownPatchField(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	body := `{"snapshot":[],"delta":{"edited":{"0":{"colour":"red"}}}}`
	w := do(router, http.MethodPost, "/api/v1/inventory/reconcile", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "colour")
}

func TestReconcile_RejectsPatchedID(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	body := `{"snapshot":[],"delta":{"added":[{"id":4,"item_name":"x"}]}}`
	w := do(router, http.MethodPost, "/api/v1/inventory/reconcile", body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReconcile_MalformedJSON(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/api/v1/inventory/reconcile", `{"snapshot":`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddItem(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/api/v1/inventory/items", `{"item_name":"Lemonade","price":22.5,"units_left":3,"reorder_point":5}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var item domain.InventoryItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &item))
	assert.Equal(t, int64(13), item.ID)
	assert.Equal(t, "22.5", item.Price.String())

	w = do(router, http.MethodPost, "/api/v1/inventory/items", `{"price":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLowStockAndDashboard(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodGet, "/api/v1/inventory/low_stock", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Soft Drink (300ml)")

	w = do(router, http.MethodGet, "/api/v1/inventory/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary domain.DashboardSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, len(domain.ReferenceItems()), summary.TotalItems)
	assert.Len(t, summary.BestSellers, 5)
}

func TestGetItemForecast(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodGet, "/api/v1/forecast/items/4?horizon=3", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var view service.ForecastView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Len(t, view.Historical, 12)
	assert.Len(t, view.Forecast, 3)
	assert.True(t, view.Analysis.Available)
	assert.Equal(t, "summary of Fresh Coffee (hot, large)", view.Analysis.Text)
}

func TestGetItemForecast_Errors(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	assert.Equal(t, http.StatusNotFound, do(router, http.MethodGet, "/api/v1/forecast/items/404", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/api/v1/forecast/items/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(router, http.MethodGet, "/api/v1/forecast/items/1?horizon=-2", "").Code)
}

func TestForecast(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	body := `{"item_id":1,"horizon":2,"history":[` +
		`{"period":"2023-01-31T00:00:00Z","quantity":10},` +
		`{"period":"2023-02-28T00:00:00Z","quantity":12},` +
		`{"period":"2023-03-31T00:00:00Z","quantity":14}]}`
	w := do(router, http.MethodPost, "/api/v1/forecast", body)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result forecast.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	require.Len(t, result.Forecast, 2)
	assert.Equal(t, time.Date(2023, time.April, 30, 0, 0, 0, 0, time.UTC), result.Forecast[0].Period)
	assert.InDelta(t, 16, result.Forecast[0].Quantity, 1e-6)
}

func TestForecast_InsufficientData(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	body := `{"item_id":1,"history":[{"period":"2023-01-31T00:00:00Z","quantity":10}]}`
	w := do(router, http.MethodPost, "/api/v1/forecast", body)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestForecast_RejectsBadPeriods(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	bodies := map[string]string{
		"no periods": `{"item_id":1,"history":[{"quantity":3},{"quantity":1}]}`,
		"descending": `{"item_id":1,"history":[` +
			`{"period":"2023-03-31T00:00:00Z","quantity":3},` +
			`{"period":"2023-02-28T00:00:00Z","quantity":1}]}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			w := do(router, http.MethodPost, "/api/v1/forecast", body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestSummarize(t *testing.T) {
	router, _ := newTestRouter(t, nil)

	w := do(router, http.MethodPost, "/api/v1/forecast/summarize", `{"item_name":"Chips (50g)","historical":[],"forecast":[]}`)

	require.Equal(t, http.StatusOK, w.Code)
	var analysis summarizer.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &analysis))
	assert.Equal(t, "summary of Chips (50g)", analysis.Text)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, origins)
	assert.False(t, all)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
