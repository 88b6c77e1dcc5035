package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/options-risk-engine/config"
	"github.com/rzzdr/options-risk-engine/internal/store"
	"github.com/rzzdr/options-risk-engine/pkg/api"
	"github.com/rzzdr/options-risk-engine/pkg/models"
)

func setupServer(t *testing.T) (*api.Server, *store.LatestStore, *store.BetaStore) {
	t.Helper()
	latest := store.NewLatestStore()
	betas := store.NewBetaStore()
	srv := api.NewServer(config.APIConfig{Host: "127.0.0.1", Port: 0}, latest, betas, nil, nil, false)
	return srv, latest, betas
}

func doRequest(srv *api.Server, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	srv, _, _ := setupServer(t)

	w := doRequest(srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRiskSummaryBeforeFirstCycle(t *testing.T) {
	srv, _, _ := setupServer(t)

	w := doRequest(srv, http.MethodGet, "/api/v1/risk/summary", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRiskSummaryServesLatest(t *testing.T) {
	srv, latest, _ := setupServer(t)

	latest.Set(&models.CycleResult{
		Timestamp: time.Now(),
		Summary:   &models.RiskSummary{AmplificationFactor: 1.8},
	})

	w := doRequest(srv, http.MethodGet, "/api/v1/risk/summary", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1.8, body["amplification_factor"])
}

func TestExposuresEndpoint(t *testing.T) {
	srv, latest, _ := setupServer(t)

	latest.Set(&models.CycleResult{
		Timestamp: time.Now(),
		Account:   "U1",
		Underlyings: map[string]*models.ExposureBucket{
			"XYZ": {DeltaShares: -54},
		},
		Portfolio: models.ExposureBucket{DeltaShares: -54},
	})

	w := doRequest(srv, http.MethodGet, "/api/v1/risk/exposures", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Account     string                           `json:"account"`
		Underlyings map[string]models.ExposureBucket `json:"underlyings"`
		Portfolio   models.ExposureBucket            `json:"portfolio"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "U1", body.Account)
	assert.Equal(t, -54.0, body.Underlyings["XYZ"].DeltaShares)
	assert.Equal(t, -54.0, body.Portfolio.DeltaShares)
}

func TestPositionsEndpoint(t *testing.T) {
	srv, latest, _ := setupServer(t)

	latest.Set(&models.CycleResult{
		Timestamp: time.Now(),
		Options:   []models.OptionRecord{{Symbol: "XYZ", Strike: 100}},
		Stocks:    []models.StockRecord{{Symbol: "ABC", Type: "stock"}},
	})

	w := doRequest(srv, http.MethodGet, "/api/v1/positions", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Options []models.OptionRecord `json:"options"`
		Stocks  []models.StockRecord  `json:"stocks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Options, 1)
	assert.Equal(t, "XYZ", body.Options[0].Symbol)
	require.Len(t, body.Stocks, 1)
}

func TestBetaOverrideLifecycle(t *testing.T) {
	srv, _, betas := setupServer(t)

	// empty to start
	w := doRequest(srv, http.MethodGet, "/api/v1/betas", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"overrides":{}}`, w.Body.String())

	w = doRequest(srv, http.MethodPut, "/api/v1/betas/NVDA", `{"beta": 2.5}`)
	assert.Equal(t, http.StatusOK, w.Code)

	b, err := betas.Get("NVDA")
	require.NoError(t, err)
	assert.Equal(t, 2.5, b)

	w = doRequest(srv, http.MethodGet, "/api/v1/betas", "")
	assert.JSONEq(t, `{"overrides":{"NVDA":2.5}}`, w.Body.String())

	w = doRequest(srv, http.MethodDelete, "/api/v1/betas/NVDA", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(srv, http.MethodDelete, "/api/v1/betas/NVDA", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPutBetaRejectsBadBody(t *testing.T) {
	srv, _, _ := setupServer(t)

	w := doRequest(srv, http.MethodPut, "/api/v1/betas/NVDA", `{"beta": "high"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(srv, http.MethodPut, "/api/v1/betas/NVDA", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
