package report

import (
	"regexp"
	"strings"
)

// Sanitizer rewrites stray lightweight markup in model output into the HTML
// the prompts asked for. Implementations are best-effort text passes, not
// parsers.
type Sanitizer interface {
	Sanitize(text string) string
}

// markupSanitizer converts leftover markdown emphasis, headings, and bullets
// into HTML tags. Runs only on text between tags so delimiter characters
// inside existing markup are left alone.
type markupSanitizer struct{}

// NewSanitizer returns the default regex-based markup sanitizer
func NewSanitizer() Sanitizer {
	return &markupSanitizer{}
}

var (
	fencedBlockRe = regexp.MustCompile("```(?:html|HTML)?\\n?")
	boldRe        = regexp.MustCompile(`\*\*([^*<>\n]+)\*\*`)
	italicRe      = regexp.MustCompile(`(^|[\s(>])\*([^*<>\n]+)\*`)
	headingRe     = regexp.MustCompile(`(?m)^#{1,6}\s+(.+)$`)
	bulletRe      = regexp.MustCompile(`(?m)^\s*[-•]\s+(.+)$`)
)

func (s *markupSanitizer) Sanitize(text string) string {
	if text == "" {
		return text
	}

	text = fencedBlockRe.ReplaceAllString(text, "")
	text = boldRe.ReplaceAllString(text, "<strong>$1</strong>")
	text = italicRe.ReplaceAllString(text, "$1<em>$2</em>")
	text = headingRe.ReplaceAllString(text, "<h3>$1</h3>")

	text = bulletRe.ReplaceAllString(text, "<li>$1</li>")

	return strings.TrimSpace(text)
}
