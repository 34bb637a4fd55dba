package report

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRequest() *GenerationRequest {
	return &GenerationRequest{
		ID:          "rpt_test",
		CompanyName: "DBS Group Holdings",
		Ticker:      "D05.SI",
		ReportFocus: "dividend sustainability",
		UserQuery:   "Is the dividend sustainable through a rate-cut cycle?",
		Analyses: map[string]Analysis{
			"fundamentals": {Content: "Net interest margin of 2.1% with CET1 at 14.6%.", Sources: []string{"annual report"}},
			"technical":    {Content: "Price holding above the 200-day moving average."},
		},
		FinancialTables: `<table><tr><th>Revenue</th><td>20.2B</td></tr></table>`,
		CreatedAt:       time.Now(),
	}
}

func TestBuildPhaseOnePrompt(t *testing.T) {
	a := NewPromptAssembler()
	prompt := a.BuildPhaseOnePrompt(testRequest())

	assert.Contains(t, prompt, "SLIDES 1-7")
	assert.Contains(t, prompt, "DBS Group Holdings")
	assert.Contains(t, prompt, "D05.SI")
	assert.Contains(t, prompt, "dividend sustainability")
	assert.Contains(t, prompt, "Net interest margin of 2.1%")
	assert.Contains(t, prompt, `id="slide-7-footer"`)
	assert.NotContains(t, prompt, "SLIDES 8-15")
}

func TestBuildPhaseOnePrompt_EmptyInputsUsePlaceholders(t *testing.T) {
	a := NewPromptAssembler()
	req := &GenerationRequest{CompanyName: "Unknown Corp", Ticker: "UNK"}

	prompt := a.BuildPhaseOnePrompt(req)

	require.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "Financial statement data not available")
	assert.Contains(t, prompt, "No prior specialist analyses")
}

func TestBuildPhaseTwoPrompt_EmbedsSummary(t *testing.T) {
	a := NewPromptAssembler()
	phase1 := strings.Repeat("analysis ", 500) + "Rating: OVERWEIGHT. Closing thesis paragraph."
	summary := a.BuildSummary(phase1)

	prompt := a.BuildPhaseTwoPrompt(testRequest(), summary)

	assert.Contains(t, prompt, "SLIDES 8-15")
	assert.Contains(t, prompt, "OVERWEIGHT")
	assert.Contains(t, prompt, "Closing thesis paragraph.")
	assert.Contains(t, prompt, `id="slide-15-footer"`)
}

func TestBuildSummary_CapsExcerpt(t *testing.T) {
	a := NewPromptAssembler()
	long := strings.Repeat("x", 10000) + "TAIL"

	summary := a.BuildSummary(long)

	assert.Len(t, summary.Excerpt, summaryExcerptChars)
	assert.True(t, strings.HasSuffix(summary.Excerpt, "TAIL"))
	assert.Equal(t, 10004, summary.CharCount)
}

func TestInferRating(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"explicit overweight", "We rate the stock OVERWEIGHT on valuation.", "OVERWEIGHT"},
		{"explicit underweight", "Initiating at Underweight.", "UNDERWEIGHT"},
		{"explicit neutral", "We remain neutral.", "NEUTRAL"},
		{"no rating defaults neutral", "Strong quarter across segments.", "NEUTRAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InferRating(tt.text))
		})
	}
}

func TestWriteAnalyses_TruncatesLongContent(t *testing.T) {
	a := NewPromptAssembler()
	req := testRequest()
	req.Analyses = map[string]Analysis{
		"deep_dive": {Content: strings.Repeat("detail ", 3000)},
	}

	prompt := a.BuildPhaseOnePrompt(req)

	assert.Contains(t, prompt, "[analysis truncated]")
}
