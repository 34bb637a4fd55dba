package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// renderWithChrome prints the HTML through headless Chrome. The document is
// staged as a file so relative navigation and print CSS behave the same as a
// browser save-as-PDF.
func (s *DocumentService) renderWithChrome(ctx context.Context, html string) ([]byte, error) {
	tempFile := filepath.Join(os.TempDir(), fmt.Sprintf("prospectus-print-%d.html", time.Now().UnixNano()))
	if err := os.WriteFile(tempFile, []byte(html), 0600); err != nil {
		return nil, fmt.Errorf("failed to stage HTML: %w", err)
	}
	defer os.Remove(tempFile)

	opts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if s.config.ChromePath != "" {
		opts = append(opts, chromedp.ExecPath(s.config.ChromePath))
	}

	allocatorCtx, allocatorCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocatorCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocatorCtx)
	defer browserCancel()

	var pdf []byte
	err := chromedp.Run(browserCtx,
		chromedp.Navigate("file://"+tempFile),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				WithLandscape(true).
				Do(ctx)
			return err
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome print failed: %w", err)
	}
	return pdf, nil
}
