package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
	"github.com/ternarybob/prospectus/internal/services/report"
)

// downloadTTL is how long a converted document stays fetchable.
const downloadTTL = 15 * time.Minute

// DocumentConverter produces downloadable documents from report HTML.
type DocumentConverter interface {
	HTMLToPDF(ctx context.Context, html, title string) ([]byte, error)
	HTMLToWord(html, companyName, ticker string) ([]byte, string, error)
}

// ConvertRequest is the POST /api/professional/convert body.
type ConvertRequest struct {
	ReportHTML  string `json:"html_content" validate:"required"`
	CompanyName string `json:"company_name" validate:"required"`
	Ticker      string `json:"ticker" validate:"required"`
	Format      string `json:"format" validate:"required,oneof=word pdf"`
}

type downloadEntry struct {
	content     []byte
	filename    string
	contentType string
	created     time.Time
}

// ConvertHandler converts reports to Word/PDF and serves the results.
type ConvertHandler struct {
	converter DocumentConverter
	logger    arbor.ILogger
	validate  *validator.Validate

	mu        sync.Mutex
	downloads map[string]downloadEntry
}

// NewConvertHandler creates a conversion handler.
func NewConvertHandler(converter DocumentConverter, logger arbor.ILogger) *ConvertHandler {
	return &ConvertHandler{
		converter: converter,
		logger:    logger,
		validate:  validator.New(),
		downloads: make(map[string]downloadEntry),
	}
}

// ConvertDocumentHandler handles POST /api/professional/convert.
func (h *ConvertHandler) ConvertDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	var req ConvertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.validate.Struct(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	var (
		content     []byte
		filename    string
		contentType string
		err         error
	)
	switch req.Format {
	case "pdf":
		title := fmt.Sprintf("%s (%s) Investment Report", req.CompanyName, req.Ticker)
		content, err = h.converter.HTMLToPDF(r.Context(), req.ReportHTML, title)
		filename = fmt.Sprintf("%s_%s_report.pdf",
			report.SanitizeFilename(req.CompanyName), report.SanitizeFilename(req.Ticker))
		contentType = "application/pdf"
	case "word":
		content, filename, err = h.converter.HTMLToWord(req.ReportHTML, req.CompanyName, req.Ticker)
		contentType = "application/msword"
	}
	if err != nil {
		h.logger.Error().Err(err).Str("format", req.Format).Msg("Document conversion failed")
		WriteError(w, http.StatusInternalServerError, "conversion failed: "+err.Error())
		return
	}

	id := h.register(downloadEntry{
		content:     content,
		filename:    filename,
		contentType: contentType,
		created:     time.Now(),
	})

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success":      true,
		"download_url": fmt.Sprintf("/api/download/%s?id=%s", req.Format, id),
		"filename":     filename,
		"size":         len(content),
	})
}

// DownloadHandler handles GET /api/download/{word|pdf}?id=...
func (h *ConvertHandler) DownloadHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	id := r.URL.Query().Get("id")
	if id == "" {
		WriteError(w, http.StatusBadRequest, "id is required")
		return
	}

	h.mu.Lock()
	entry, ok := h.downloads[id]
	h.mu.Unlock()
	if !ok {
		WriteError(w, http.StatusNotFound, "download not found or expired")
		return
	}

	w.Header().Set("Content-Type", entry.contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", entry.filename))
	w.WriteHeader(http.StatusOK)
	w.Write(entry.content)
}

// register stores a conversion result and prunes expired entries.
func (h *ConvertHandler) register(entry downloadEntry) string {
	id := common.NewConnectionID()

	h.mu.Lock()
	defer h.mu.Unlock()
	for key, existing := range h.downloads {
		if time.Since(existing.created) > downloadTTL {
			delete(h.downloads, key)
		}
	}
	h.downloads[id] = entry
	return id
}
