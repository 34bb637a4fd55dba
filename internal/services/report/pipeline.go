package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

// Store persists report metadata for later listing and retention sweeps
type Store interface {
	SaveReport(ctx context.Context, report *AssembledReport) error
}

// Pipeline drives a full two-call report generation run
type Pipeline struct {
	prompts    *PromptAssembler
	runner     *PhaseRunner
	assembler  *Assembler
	criteria   map[Phase]CompletionCriteria
	config     GenerationConfig
	maxRetries int
	store      Store
	logger     arbor.ILogger
}

// NewPipeline creates a report pipeline. store may be nil when no index is
// configured.
func NewPipeline(prompts *PromptAssembler, runner *PhaseRunner, assembler *Assembler, criteria map[Phase]CompletionCriteria, config GenerationConfig, maxRetries int, store Store, logger arbor.ILogger) *Pipeline {
	if config.SystemInstruction == "" {
		config.SystemInstruction = prompts.SystemInstruction()
	}
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Pipeline{
		prompts:    prompts,
		runner:     runner,
		assembler:  assembler,
		criteria:   criteria,
		config:     config,
		maxRetries: maxRetries,
		store:      store,
		logger:     logger,
	}
}

// Run executes both calls sequentially, assembles the final document, and
// persists it. Events are emitted in strict generation order: phase one's
// final event always precedes phase two's first status. Call-two prompt
// construction never starts before call one is accepted.
func (p *Pipeline) Run(ctx context.Context, req *GenerationRequest, emit EmitFunc) (*AssembledReport, error) {
	start := time.Now()
	p.logger.Info().
		Str("report_id", req.ID).
		Str("ticker", req.Ticker).
		Str("company", req.CompanyName).
		Msg("Report generation started")

	emit(StreamEvent{Type: EventStatus, Status: "css_template_loaded", Message: "Report template prepared", Progress: 5})

	phase1, err := p.runPhase(ctx, PhaseCall1, p.prompts.BuildPhaseOnePrompt(req), emit, 5, 45)
	if err != nil {
		emit(StreamEvent{Type: EventError, Phase: PhaseCall1, Err: err, Message: "Report generation failed: the generation backend is unavailable"})
		return nil, err
	}
	emit(StreamEvent{
		Type:        EventPhaseComplete,
		Status:      "call1_complete",
		Phase:       PhaseCall1,
		Accumulated: phase1.Text,
		Progress:    50,
		Message:     fmt.Sprintf("Front section complete (%d chars)", phase1.CharCount),
	})

	summary := p.prompts.BuildSummary(phase1.Text)
	phase2, err := p.runPhase(ctx, PhaseCall2, p.prompts.BuildPhaseTwoPrompt(req, summary), emit, 50, 90)
	if err != nil {
		emit(StreamEvent{Type: EventError, Phase: PhaseCall2, Err: err, Message: "Report generation failed: the generation backend is unavailable"})
		return nil, err
	}
	emit(StreamEvent{
		Type:        EventPhaseComplete,
		Status:      "call2_complete",
		Phase:       PhaseCall2,
		Accumulated: phase2.Text,
		Progress:    90,
		Message:     fmt.Sprintf("Back section complete (%d chars)", phase2.CharCount),
	})

	merged := p.assembler.Combine(phase1.Text, phase2.Text)
	html, path, err := p.assembler.Finalize(merged, req.CompanyName, req.Ticker)
	if err != nil {
		// The document still exists in memory; deliver it even when the
		// write failed
		p.logger.Warn().Err(err).Msg("Failed to persist report file")
	}

	report := &AssembledReport{
		ID:          req.ID,
		CompanyName: req.CompanyName,
		Ticker:      req.Ticker,
		Phase1Text:  phase1.Text,
		Phase2Text:  phase2.Text,
		MergedBody:  merged,
		HTML:        html,
		FilePath:    path,
		Partial:     phase1.Partial() || phase2.Partial(),
		Phase1Chars: phase1.CharCount,
		Phase2Chars: phase2.CharCount,
		GeneratedAt: time.Now(),
	}

	if p.store != nil {
		if err := p.store.SaveReport(ctx, report); err != nil {
			p.logger.Warn().Err(err).Str("report_id", report.ID).Msg("Failed to index report")
		}
	}

	emit(StreamEvent{
		Type:     EventFinal,
		Status:   "final_complete",
		Report:   report,
		Progress: 100,
		Message:  fmt.Sprintf("Report complete (%d chars)", len(html)),
	})

	p.logger.Info().
		Str("report_id", req.ID).
		Str("duration", time.Since(start).Round(time.Millisecond).String()).
		Int("phase1_chars", phase1.CharCount).
		Int("phase2_chars", phase2.CharCount).
		Bool("partial", report.Partial).
		Msg("Report generation complete")

	return report, nil
}

// runPhase executes one call, streaming fragments as events with progress
// interpolated between startPct and endPct
func (p *Pipeline) runPhase(ctx context.Context, phase Phase, prompt string, emit EmitFunc, startPct, endPct int) (*PhaseResult, error) {
	var accumulated strings.Builder

	notify := func(ph Phase, state PhaseState, attempt int, message string) {
		emit(StreamEvent{
			Type:     EventStatus,
			Status:   string(state),
			Phase:    ph,
			Message:  message,
			Progress: startPct,
		})
	}
	runner := p.runner.withNotify(notify)

	// AttemptStart fires on every generation attempt, including the
	// generator's internal credential rotations, so the streamed view never
	// carries text from an aborted attempt.
	stream := StreamCallbacks{
		AttemptStart: func() {
			accumulated.Reset()
		},
		Fragment: func(fragment string) {
			accumulated.WriteString(fragment)
			emit(StreamEvent{
				Type:        EventFragment,
				Phase:       phase,
				Fragment:    fragment,
				Accumulated: accumulated.String(),
				Progress:    interpolateProgress(startPct, endPct, accumulated.Len()),
			})
		},
	}

	return runner.RunPhase(ctx, phase, prompt, p.config, p.criteria[phase], p.maxRetries, stream)
}

// interpolateProgress maps accumulated size onto the phase's progress band.
// A complete call is roughly 30k characters; clamp at the band's end.
func interpolateProgress(startPct, endPct, chars int) int {
	const nominalPhaseChars = 30000
	span := endPct - startPct
	pct := startPct + span*chars/nominalPhaseChars
	if pct > endPct {
		return endPct
	}
	return pct
}
