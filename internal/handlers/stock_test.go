package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/marketdata"
)

func stockGet(t *testing.T, h *StockHandler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.GetStockHandler(rec, httptest.NewRequest("GET", path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestGetStockHandler_Success(t *testing.T) {
	snapshots := &fakeSnapshots{
		snapshot: &marketdata.StockSnapshot{
			Ticker:       "D05.SI",
			Symbol:       "D05.SI",
			CompanyName:  "DBS Group Holdings",
			CurrentPrice: 43.5,
		},
	}
	h := NewStockHandler(snapshots, arbor.NewLogger())

	rec, body := stockGet(t, h, "/api/stock/D05.SI")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "DBS Group Holdings", data["company_name"])
	assert.Equal(t, 43.5, data["current_price"])
}

func TestGetStockHandler_NotFound(t *testing.T) {
	snapshots := &fakeSnapshots{err: &marketdata.APIError{StatusCode: 404, Message: "symbol not found", Endpoint: "/real-time/XXXX"}}
	h := NewStockHandler(snapshots, arbor.NewLogger())

	rec, body := stockGet(t, h, "/api/stock/XXXX")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "XXXX", body["ticker"])
}

func TestGetStockHandler_UpstreamAuthFailure(t *testing.T) {
	snapshots := &fakeSnapshots{err: &marketdata.APIError{StatusCode: 401, Message: "invalid token", Endpoint: "/real-time/D05.SI"}}
	h := NewStockHandler(snapshots, arbor.NewLogger())

	rec, _ := stockGet(t, h, "/api/stock/D05.SI")

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestGetStockHandler_MissingTicker(t *testing.T) {
	h := NewStockHandler(&fakeSnapshots{}, arbor.NewLogger())

	rec, _ := stockGet(t, h, "/api/stock/")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetStockHandler_MethodNotAllowed(t *testing.T) {
	h := NewStockHandler(&fakeSnapshots{}, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.GetStockHandler(rec, httptest.NewRequest("POST", "/api/stock/D05.SI", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
