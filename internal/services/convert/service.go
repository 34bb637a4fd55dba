// Package convert turns assembled report HTML into downloadable documents:
// PDF via headless Chrome (with a markdown rendering fallback when Chrome is
// unavailable) and a Word-compatible HTML document.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/prospectus/internal/common"
)

// DocumentService converts report HTML to PDF and Word documents.
type DocumentService struct {
	config  *common.ConvertConfig
	timeout time.Duration
	logger  arbor.ILogger
}

// NewDocumentService creates a document conversion service.
func NewDocumentService(config *common.ConvertConfig, timeout time.Duration, logger arbor.ILogger) *DocumentService {
	return &DocumentService{
		config:  config,
		timeout: timeout,
		logger:  logger,
	}
}

// HTMLToPDF renders report HTML to PDF bytes. Chrome print-to-PDF preserves
// the report layout; when Chrome cannot run, the content is converted to
// markdown and rendered with the built-in PDF writer instead.
func (s *DocumentService) HTMLToPDF(ctx context.Context, html, title string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	pdf, err := s.renderWithChrome(ctx, html)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Chrome PDF rendering unavailable, using markdown fallback")
		pdf, err = s.renderFallback(html, title)
		if err != nil {
			return nil, fmt.Errorf("failed to render PDF: %w", err)
		}
	}

	if s.config.ValidatePDF {
		if err := validatePDF(pdf); err != nil {
			return nil, fmt.Errorf("produced PDF failed validation: %w", err)
		}
	}

	return pdf, nil
}

// renderFallback converts the HTML to markdown and renders it with fpdf.
func (s *DocumentService) renderFallback(html, title string) ([]byte, error) {
	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(html)
	if err != nil {
		return nil, fmt.Errorf("failed to convert HTML to markdown: %w", err)
	}

	return renderMarkdownPDF(markdown, title)
}

// validatePDF runs a structural check over produced bytes. pdfcpu works on
// files, so the bytes go through a temp file.
func validatePDF(pdf []byte) error {
	tempFile := filepath.Join(os.TempDir(), fmt.Sprintf("prospectus-validate-%d.pdf", time.Now().UnixNano()))
	if err := os.WriteFile(tempFile, pdf, 0600); err != nil {
		return fmt.Errorf("failed to write temp PDF: %w", err)
	}
	defer os.Remove(tempFile)

	if err := api.ValidateFile(tempFile, nil); err != nil {
		return err
	}
	return nil
}
