package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/palmier/internal/cache"
	"github.com/mamadbah2/palmier/internal/config"
	"github.com/mamadbah2/palmier/internal/metrics"
	"github.com/mamadbah2/palmier/internal/repository/database"
	"github.com/mamadbah2/palmier/internal/server/handlers"
	"github.com/mamadbah2/palmier/internal/service/ledger"
	"github.com/mamadbah2/palmier/internal/service/records"
	"github.com/mamadbah2/palmier/internal/service/reporting"
)

var now = time.Date(2024, time.June, 15, 9, 0, 0, 0, time.UTC)

type api struct {
	t       *testing.T
	handler http.Handler
}

func newAPI(t *testing.T) *api {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", DSN: ":memory:"}, "error", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })

	clock := func() time.Time { return now }
	store := database.NewStore(db, nil)
	registry := metrics.New()
	rec := records.NewService(store, nil, clock)
	sales := ledger.NewService(store, nil, ledger.WithClock(clock), ledger.WithRecorder(registry))
	reports := reporting.NewService(store, nil, reporting.WithClock(clock))

	engine := New(Deps{
		Plantations: handlers.NewPlantationHandler(rec, reports, nil),
		Operations:  handlers.NewOperationHandler(rec, reports, nil),
		Productions: handlers.NewProductionHandler(rec, reports, nil),
		Ventes:      handlers.NewVenteHandler(rec, sales, reports, nil),
		Cash:        handlers.NewCashHandler(rec, reports, nil),
		Reports:     handlers.NewReportHandler(reports, nil, nil),
		Metrics:     registry,
		Idempotency: cache.NewInMemoryIdempotencyStore(clock),
		Health:      store.Ping,
	}, nil)

	return &api{t: t, handler: WithCORS(engine, []string{"http://localhost:5173"})}
}

func (a *api) do(method, path string, body any, headers ...string) (int, map[string]any) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)

	out := map[string]any{}
	if w.Body.Len() > 0 && w.Body.Bytes()[0] == '{' {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func (a *api) stock(productionID float64) decimal.Decimal {
	a.t.Helper()
	code, body := a.do(http.MethodGet, fmt.Sprintf("/api/productions/%d", int(productionID)), nil)
	require.Equal(a.t, http.StatusOK, code)
	return decimal.RequireFromString(body["available_stock"].(string))
}

func (a *api) seedLot(weight int) float64 {
	a.t.Helper()
	code, plantation := a.do(http.MethodPost, "/api/plantations", map[string]any{
		"name":          fmt.Sprintf("Bloc %d", weight),
		"area":          "12.50",
		"planting_date": "2015-03-01",
		"tree_count":    1800,
		"location":      "Forécariah",
	})
	require.Equal(a.t, http.StatusCreated, code, plantation)

	code, lot := a.do(http.MethodPost, "/api/productions", map[string]any{
		"plantation_id": plantation["id"],
		"harvest_date":  "2024-06-10",
		"bunch_count":   90,
		"total_weight":  weight,
		"quality":       "A",
	})
	require.Equal(a.t, http.StatusCreated, code, lot)
	assert.Equal(a.t, fmt.Sprintf("Bloc %d", weight), lot["plantation_name"])
	return lot["id"].(float64)
}

func sale(productionID float64, quantity string) map[string]any {
	return map[string]any{
		"production_id": productionID,
		"sale_date":     "2024-06-14",
		"client":        "Huilerie de Kindia",
		"quantity":      quantity,
		"unit_price":    "850",
	}
}

func TestSaleLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	lot := a.seedLot(1000)
	assert.True(t, a.stock(lot).Equal(decimal.NewFromInt(1000)))

	code, first := a.do(http.MethodPost, "/api/ventes", sale(lot, "600"), "Idempotency-Key", "k1")
	require.Equal(t, http.StatusCreated, code, first)
	assert.True(t, decimal.RequireFromString(first["total_amount"].(string)).Equal(decimal.NewFromInt(510000)))
	assert.True(t, decimal.RequireFromString(first["remaining_stock"].(string)).Equal(decimal.NewFromInt(400)))

	code, _ = a.do(http.MethodPost, "/api/ventes", sale(lot, "600"), "Idempotency-Key", "k1")
	assert.Equal(t, http.StatusConflict, code)
	assert.True(t, a.stock(lot).Equal(decimal.NewFromInt(400)))

	code, body := a.do(http.MethodPost, "/api/ventes", sale(lot, "500"), "Idempotency-Key", "k2")
	require.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "500.00", body["requested"])
	assert.Equal(t, "400.00", body["available"])

	code, second := a.do(http.MethodPost, "/api/ventes", sale(lot, "400"), "Idempotency-Key", "k2")
	require.Equal(t, http.StatusCreated, code, second)
	assert.True(t, a.stock(lot).IsZero())

	firstPath := fmt.Sprintf("/api/ventes/%d", int(first["id"].(float64)))
	code, patched := a.do(http.MethodPatch, firstPath, map[string]any{"quantity": "300"})
	require.Equal(t, http.StatusOK, code, patched)
	assert.True(t, a.stock(lot).Equal(decimal.NewFromInt(300)))

	code, _ = a.do(http.MethodDelete, fmt.Sprintf("/api/ventes/%d", int(second["id"].(float64))), nil)
	assert.Equal(t, http.StatusNoContent, code)
	assert.True(t, a.stock(lot).Equal(decimal.NewFromInt(700)))

	code, _ = a.do(http.MethodGet, "/api/ventes/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestSaleValidationOverHTTP(t *testing.T) {
	a := newAPI(t)
	lot := a.seedLot(1000)

	input := sale(lot, "10")
	delete(input, "production_id")
	code, body := a.do(http.MethodPost, "/api/ventes", input)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "production_id", body["field"])

	input = sale(lot, "0")
	code, body = a.do(http.MethodPost, "/api/ventes", input)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "quantity", body["field"])

	input = sale(lot, "10")
	input["sale_date"] = "2024-06-16"
	code, body = a.do(http.MethodPost, "/api/ventes", input)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "sale_date", body["field"])

	code, body = a.do(http.MethodPut, "/api/productions/"+fmt.Sprint(int(lot)), map[string]any{
		"plantation_id": 1,
		"harvest_date":  "2024-06-10",
		"bunch_count":   90,
		"total_weight":  900,
		"quality":       "A",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "total_weight", body["field"])

	assert.True(t, a.stock(lot).Equal(decimal.NewFromInt(1000)))
}

func TestPlantationDeleteCascadesOverHTTP(t *testing.T) {
	a := newAPI(t)
	lot := a.seedLot(800)
	code, _ := a.do(http.MethodPost, "/api/ventes", sale(lot, "100"))
	require.Equal(t, http.StatusCreated, code)

	code, _ = a.do(http.MethodDelete, "/api/plantations/1", nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = a.do(http.MethodGet, fmt.Sprintf("/api/productions/%d", int(lot)), nil)
	assert.Equal(t, http.StatusNotFound, code)
	code, _ = a.do(http.MethodGet, "/api/ventes/1", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCashBalanceOverHTTP(t *testing.T) {
	a := newAPI(t)
	for _, m := range []map[string]any{
		{"date": "2024-06-01", "kind": "entry", "amount": "500000", "description": "vente régimes"},
		{"date": "2024-06-03", "kind": "exit", "amount": "120000", "description": "engrais"},
	} {
		code, body := a.do(http.MethodPost, "/api/cash-movements", m)
		require.Equal(t, http.StatusCreated, code, body)
	}

	code, body := a.do(http.MethodGet, "/api/cash-movements/balance?from=2024-06-01&to=2024-06-30", nil)
	require.Equal(t, http.StatusOK, code)
	assert.True(t, decimal.RequireFromString(body["balance"].(string)).Equal(decimal.NewFromInt(380000)))

	code, body = a.do(http.MethodGet, "/api/cash-movements/balance?from=2024-07-01&to=2024-06-01", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "from", body["field"])

	code, _ = a.do(http.MethodGet, "/api/cash-movements/balance?from=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestStockAlertsThresholdQuery(t *testing.T) {
	a := newAPI(t)
	a.seedLot(1000)

	code, _ := a.do(http.MethodGet, "/api/productions/stock-alerts?threshold=150", nil)
	assert.Equal(t, http.StatusBadRequest, code)

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/productions/stock-alerts?threshold=20", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestHealthMetricsAndCORS(t *testing.T) {
	a := newAPI(t)

	code, body := a.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `palmier_http_requests_total{method="GET",route="/healthz",status="200"} 1`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodOptions, "/api/ventes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}
