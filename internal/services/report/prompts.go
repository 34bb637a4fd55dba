package report

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// Per-analysis excerpt cap keeps the combined prompt inside the model's
	// input window even with a dozen specialist analyses attached.
	maxAnalysisChars = 8000

	// Tail of phase one carried into the phase-two prompt
	summaryExcerptChars = 2500
)

// PromptAssembler builds the two large generation prompts. Pure functions of
// the request plus static template text; no side effects.
type PromptAssembler struct{}

// NewPromptAssembler creates a prompt assembler
func NewPromptAssembler() *PromptAssembler {
	return &PromptAssembler{}
}

// SystemInstruction returns the shared system prompt for both calls
func (a *PromptAssembler) SystemInstruction() string {
	return systemInstruction
}

// BuildPhaseOnePrompt builds the slides 1-7 prompt
func (a *PromptAssembler) BuildPhaseOnePrompt(req *GenerationRequest) string {
	var b strings.Builder

	b.WriteString(methodologyPreamble)
	b.WriteString("\n\n")
	b.WriteString(phaseOneStructure)
	b.WriteString("\n\n")
	a.writeSubject(&b, req)
	a.writeFinancials(&b, req)
	a.writeAnalyses(&b, req)

	return b.String()
}

// BuildPhaseTwoPrompt builds the slides 8-15 prompt. The phase-one summary is
// embedded so the back section stays consistent with the front section's
// rating and narrative.
func (a *PromptAssembler) BuildPhaseTwoPrompt(req *GenerationRequest, summary PhaseSummary) string {
	var b strings.Builder

	b.WriteString(methodologyPreamble)
	b.WriteString("\n\n")
	b.WriteString(phaseTwoStructure)
	b.WriteString("\n\n")
	a.writeSubject(&b, req)

	b.WriteString("FRONT SECTION ALREADY WRITTEN (slides 1-7)\n\n")
	fmt.Fprintf(&b, "The front section concluded with an investment rating of %s across %d characters of content. Its closing passage follows; keep slides 8-15 consistent with it:\n\n", summary.RatingLabel, summary.CharCount)
	b.WriteString(summary.Excerpt)
	b.WriteString("\n\n")

	a.writeFinancials(&b, req)
	a.writeAnalyses(&b, req)

	return b.String()
}

// BuildSummary condenses accepted phase-one output for the phase-two prompt
func (a *PromptAssembler) BuildSummary(phaseOneText string) PhaseSummary {
	excerpt := phaseOneText
	if len(excerpt) > summaryExcerptChars {
		excerpt = excerpt[len(excerpt)-summaryExcerptChars:]
	}
	return PhaseSummary{
		Excerpt:     excerpt,
		RatingLabel: InferRating(phaseOneText),
		CharCount:   len(phaseOneText),
	}
}

// InferRating extracts the investment rating stated in the front section.
// Defaults to NEUTRAL when no rating keyword is found.
func InferRating(text string) string {
	upper := strings.ToUpper(text)
	for _, rating := range []string{"OVERWEIGHT", "UNDERWEIGHT", "NEUTRAL"} {
		if strings.Contains(upper, rating) {
			return rating
		}
	}
	return "NEUTRAL"
}

func (a *PromptAssembler) writeSubject(b *strings.Builder, req *GenerationRequest) {
	b.WriteString("REPORT SUBJECT\n\n")
	fmt.Fprintf(b, "Company: %s\nTicker: %s\n", req.CompanyName, req.Ticker)
	if req.ReportFocus != "" {
		fmt.Fprintf(b, "Report focus: %s\n", req.ReportFocus)
	}
	if req.InvestmentObjective != "" {
		fmt.Fprintf(b, "Investment objective: %s\n", req.InvestmentObjective)
	}
	if req.UserQuery != "" {
		fmt.Fprintf(b, "Client question to address: %s\n", req.UserQuery)
	}
	b.WriteString("\n")
}

func (a *PromptAssembler) writeFinancials(b *strings.Builder, req *GenerationRequest) {
	b.WriteString("FINANCIAL STATEMENT DATA\n\n")
	if strings.TrimSpace(req.FinancialTables) == "" {
		b.WriteString(noFinancialDataPlaceholder)
	} else {
		b.WriteString(req.FinancialTables)
	}
	b.WriteString("\n\n")
}

func (a *PromptAssembler) writeAnalyses(b *strings.Builder, req *GenerationRequest) {
	b.WriteString("PRIOR SPECIALIST ANALYSES\n\n")
	if len(req.Analyses) == 0 {
		b.WriteString(noAnalysesPlaceholder)
		b.WriteString("\n")
		return
	}

	// Deterministic prompt layout regardless of map iteration order
	names := make([]string, 0, len(req.Analyses))
	for name := range req.Analyses {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		analysis := req.Analyses[name]
		content := analysis.Content
		if len(content) > maxAnalysisChars {
			content = content[:maxAnalysisChars] + "\n[analysis truncated]"
		}
		fmt.Fprintf(b, "--- %s ---\n%s\n", name, content)
		if len(analysis.Sources) > 0 {
			fmt.Fprintf(b, "Sources: %s\n", strings.Join(analysis.Sources, ", "))
		}
		b.WriteString("\n")
	}
}
