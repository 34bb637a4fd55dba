package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_GetEOD(t *testing.T) {
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/eod/D05.SI", r.URL.Path)
		gotQuery = map[string]string{
			"api_token": r.URL.Query().Get("api_token"),
			"fmt":       r.URL.Query().Get("fmt"),
			"period":    r.URL.Query().Get("period"),
			"order":     r.URL.Query().Get("order"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"date":"2024-01-31","open":31.2,"high":33.1,"low":30.9,"close":32.5,"adjusted_close":32.0,"volume":12345678},
			{"date":"2024-02-29","open":32.5,"high":34.0,"low":32.1,"close":33.8,"adjusted_close":33.3,"volume":9876543}
		]`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	bars, err := client.GetEOD(context.Background(), "D05.SI", WithPeriod("m"))
	require.NoError(t, err)

	assert.Equal(t, "test-key", gotQuery["api_token"])
	assert.Equal(t, "json", gotQuery["fmt"])
	assert.Equal(t, "m", gotQuery["period"])
	assert.Equal(t, "a", gotQuery["order"])

	require.Len(t, bars, 2)
	assert.Equal(t, 32.5, bars[0].Close)
	assert.Equal(t, 2024, bars[0].Date.Year())
	assert.Equal(t, "2024-02-29", bars[1].DateStr)
	assert.False(t, bars[1].Date.IsZero())
}

func TestClient_GetRealTimeQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/real-time/AAPL", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"AAPL.US","timestamp":1712345678,"open":170.1,"high":172.4,"low":169.8,"close":171.9,"volume":54321000,"previousClose":170.5,"change":1.4,"change_p":0.82}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	quote, err := client.GetRealTimeQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 171.9, quote.Close)
	assert.Equal(t, 170.5, quote.PreviousClose)
	assert.Equal(t, 0.82, quote.ChangePct)
}

func TestClient_GetFundamentals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/fundamentals/D05.SI", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"General": {"Code":"D05","Name":"DBS Group Holdings Ltd","Exchange":"SG","CurrencyCode":"SGD","Sector":"Financial Services"},
			"Highlights": {"MarketCapitalization":98000000000,"PERatio":11.2,"EarningsShare":3.8},
			"Financials": {"Income_Statement":{"currency":"SGD","yearly":{"2024-12-31":{"totalRevenue":"22000000000"}}}}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	f, err := client.GetFundamentals(context.Background(), "D05.SI")
	require.NoError(t, err)

	require.NotNil(t, f.General)
	assert.Equal(t, "DBS Group Holdings Ltd", f.General.Name)
	require.NotNil(t, f.Highlights)
	assert.Equal(t, 11.2, f.Highlights.PERatio)
	require.NotNil(t, f.Financials)
	require.NotNil(t, f.Financials.IncomeStatement)
	assert.Contains(t, f.Financials.IncomeStatement.Yearly, "2024-12-31")
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unauthenticated", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient("bad-key", WithBaseURL(server.URL))
	_, err := client.GetRealTimeQuote(context.Background(), "AAPL")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "/real-time/AAPL", apiErr.Endpoint)
}
