package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/marketdata"
)

// StockHandler serves stock snapshot lookups.
type StockHandler struct {
	snapshots SnapshotProvider
	logger    arbor.ILogger
}

// NewStockHandler creates a stock handler.
func NewStockHandler(snapshots SnapshotProvider, logger arbor.ILogger) *StockHandler {
	return &StockHandler{
		snapshots: snapshots,
		logger:    logger,
	}
}

// GetStockHandler handles GET /api/stock/{ticker}.
func (h *StockHandler) GetStockHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	ticker := strings.TrimPrefix(r.URL.Path, "/api/stock/")
	ticker = strings.TrimSuffix(ticker, "/")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker is required")
		return
	}

	snapshot, err := h.snapshots.Snapshot(r.Context(), ticker)
	if err != nil {
		h.logger.Warn().Err(err).Str("ticker", ticker).Msg("Stock lookup failed")
		status := http.StatusNotFound
		var apiErr *marketdata.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
			status = http.StatusBadGateway
		}
		WriteJSON(w, status, map[string]interface{}{
			"success": false,
			"message": err.Error(),
			"ticker":  ticker,
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    snapshot,
	})
}
