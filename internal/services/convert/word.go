package convert

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ternarybob/prospectus/internal/services/report"
)

// wordShell wraps report markup in the Word-HTML envelope Microsoft Word
// opens as a native document.
const wordShell = `<html xmlns:o="urn:schemas-microsoft-com:office:office"
      xmlns:w="urn:schemas-microsoft-com:office:word"
      xmlns="http://www.w3.org/TR/REC-html40">
<head>
<meta http-equiv="Content-Type" content="text/html; charset=utf-8">
<title>%s</title>
<!--[if gte mso 9]>
<xml>
<w:WordDocument>
<w:View>Print</w:View>
<w:Zoom>100</w:Zoom>
<w:DoNotOptimizeForBrowser/>
</w:WordDocument>
</xml>
<![endif]-->
<style>
@page {
	size: 29.7cm 21cm;
	margin: 1cm;
	mso-page-orientation: landscape;
}
body {
	font-family: Arial, sans-serif;
	font-size: 10pt;
}
.slide {
	page-break-after: always;
}
</style>
%s
</head>
<body>
%s
</body>
</html>
`

// HTMLToWord re-wraps report HTML as a Word-compatible document. Returns the
// document bytes and a suggested filename.
func (s *DocumentService) HTMLToWord(html, companyName, ticker string) ([]byte, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse report HTML: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = fmt.Sprintf("%s (%s) Investment Report", companyName, ticker)
	}

	// Carry the report's own styles into the Word document.
	var styles strings.Builder
	doc.Find("style").Each(func(_ int, sel *goquery.Selection) {
		styles.WriteString("<style>")
		styles.WriteString(sel.Text())
		styles.WriteString("</style>\n")
	})

	body, err := doc.Find("body").First().Html()
	if err != nil {
		return nil, "", fmt.Errorf("failed to extract report body: %w", err)
	}
	if strings.TrimSpace(body) == "" {
		body = html
	}

	document := fmt.Sprintf(wordShell, title, styles.String(), body)
	filename := fmt.Sprintf("%s_%s_report.doc",
		report.SanitizeFilename(companyName), report.SanitizeFilename(ticker))

	if s.logger != nil {
		s.logger.Debug().
			Int("size", len(document)).
			Str("filename", filename).
			Msg("Word document assembled")
	}
	return []byte(document), filename, nil
}
