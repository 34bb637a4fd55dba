package report

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
)

var (
	doctypeRe     = regexp.MustCompile(`(?is)<!DOCTYPE[^>]*>`)
	htmlTagRe     = regexp.MustCompile(`(?i)</?html[^>]*>`)
	headBlockRe   = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	bodyTagRe     = regexp.MustCompile(`(?i)</?body[^>]*>`)
	styleBlockRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	unsafeFileRe  = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)
	contentMarker = `<div class="slide"`
)

// Assembler merges the two validated phase outputs into the stylesheet shell
// and persists the final document.
type Assembler struct {
	outputDir string
	shell     string
	sanitizer Sanitizer
	logger    arbor.ILogger
}

// NewAssembler creates an assembler writing to outputDir. templatePath may
// name a shell template file; when empty or unreadable the embedded shell is
// used so the pipeline still produces output.
func NewAssembler(outputDir, templatePath string, sanitizer Sanitizer, logger arbor.ILogger) *Assembler {
	shell := defaultShell
	if templatePath != "" {
		data, err := os.ReadFile(templatePath)
		if err != nil {
			logger.Warn().Err(err).Str("path", templatePath).Msg("Template unreadable, using embedded shell")
		} else if strings.Contains(string(data), "{{REPORT_BODY}}") {
			shell = string(data)
		} else {
			logger.Warn().Str("path", templatePath).Msg("Template missing body slot, using embedded shell")
		}
	}
	return &Assembler{
		outputDir: outputDir,
		shell:     shell,
		sanitizer: sanitizer,
		logger:    logger,
	}
}

// Combine strips accidental document-wrapper markup from each phase
// independently, trims each to its first slide, and concatenates phase one
// followed by phase two.
func (a *Assembler) Combine(phaseOneText, phaseTwoText string) string {
	one := a.CleanPhase(phaseOneText)
	two := a.CleanPhase(phaseTwoText)

	switch {
	case one == "":
		return two
	case two == "":
		return one
	default:
		return one + "\n" + two
	}
}

// CleanPhase removes wrapper markup the model may have emitted around one
// phase's fragment and trims leading chatter before the first slide
func (a *Assembler) CleanPhase(text string) string {
	text = a.sanitizer.Sanitize(text)
	text = doctypeRe.ReplaceAllString(text, "")
	text = headBlockRe.ReplaceAllString(text, "")
	text = styleBlockRe.ReplaceAllString(text, "")
	text = htmlTagRe.ReplaceAllString(text, "")
	text = bodyTagRe.ReplaceAllString(text, "")

	if idx := strings.Index(text, contentMarker); idx > 0 {
		text = text[idx:]
	}

	return strings.TrimSpace(text)
}

// Finalize inserts the merged body into the stylesheet shell with the
// company metadata substituted, and persists the document under a filename
// derived from the company name.
func (a *Assembler) Finalize(mergedBody, companyName, ticker string) (string, string, error) {
	html := a.shell
	html = strings.ReplaceAll(html, "{{COMPANY_NAME}}", companyName)
	html = strings.ReplaceAll(html, "{{TICKER}}", ticker)
	html = strings.ReplaceAll(html, "{{REPORT_BODY}}", mergedBody)

	path, err := a.persist(html, companyName, ticker)
	if err != nil {
		return html, "", err
	}

	return html, path, nil
}

func (a *Assembler) persist(html, companyName, ticker string) (string, error) {
	if err := os.MkdirAll(a.outputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", a.outputDir, err)
	}

	filename := fmt.Sprintf("%s_%s_report.html", SanitizeFilename(companyName), SanitizeFilename(ticker))
	path := filepath.Join(a.outputDir, filename)

	if err := os.WriteFile(path, []byte(html), 0644); err != nil {
		return "", fmt.Errorf("failed to write report file %s: %w", path, err)
	}

	a.logger.Info().Str("path", path).Int("bytes", len(html)).Msg("Report persisted")
	return path, nil
}

// SanitizeFilename reduces a company name or ticker to a safe filename stem
func SanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeFileRe.ReplaceAllString(name, "")
	if name == "" {
		return "report"
	}
	if len(name) > 80 {
		name = name[:80]
	}
	return name
}
