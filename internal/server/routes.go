package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// WebSocket route (report generation streaming)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Stock data
	mux.HandleFunc("/api/stock/", s.app.StockHandler.GetStockHandler) // GET /{ticker}

	// API routes - Document conversion
	mux.HandleFunc("/api/professional/convert", s.app.ConvertHandler.ConvertDocumentHandler)
	mux.HandleFunc("/api/download/", s.app.ConvertHandler.DownloadHandler) // GET /{word|pdf}?id=

	// API routes - Reports
	mux.HandleFunc("/api/reports", s.app.APIHandler.ListReportsHandler)

	// API routes - System
	mux.HandleFunc("/api/status", s.app.APIHandler.StatusHandler)
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/health", s.app.APIHandler.HealthHandler)

	// Everything else is an API 404
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.app.APIHandler.NotFoundHandler(w, r)
	})

	return mux
}
