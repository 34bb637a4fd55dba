package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
)

// StreamCallbacks receives a generator's live output. AttemptStart fires
// before the first fragment of each generation attempt, including a
// generator's internal credential-rotation retries, so callers holding an
// accumulated view can discard fragments from an aborted attempt. Either
// field may be nil.
type StreamCallbacks struct {
	AttemptStart func()
	Fragment     func(fragment string)
}

// Generator produces one streamed completion for a prompt. Implementations
// own credential rotation and transport retries; an error return means no
// usable backend remained for this call. Each attempt must fire
// stream.AttemptStart before its first fragment.
type Generator interface {
	Generate(ctx context.Context, prompt string, config GenerationConfig, stream StreamCallbacks) (text string, chunks int, err error)
}

// ProgressFunc receives phase lifecycle notifications: phase start, each
// retry decision, and final acceptance.
type ProgressFunc func(phase Phase, state PhaseState, attempt int, message string)

// PhaseRunner drives one phase through generate-validate-retry until the
// output is accepted or the retry budget is spent.
type PhaseRunner struct {
	generator Generator
	logger    arbor.ILogger
	notify    ProgressFunc
}

// NewPhaseRunner creates a phase runner. notify may be nil.
func NewPhaseRunner(generator Generator, logger arbor.ILogger, notify ProgressFunc) *PhaseRunner {
	return &PhaseRunner{
		generator: generator,
		logger:    logger,
		notify:    notify,
	}
}

// withNotify returns a runner sharing this runner's generator and logger but
// delivering progress to a different callback
func (r *PhaseRunner) withNotify(notify ProgressFunc) *PhaseRunner {
	return &PhaseRunner{
		generator: r.generator,
		logger:    r.logger,
		notify:    notify,
	}
}

func (r *PhaseRunner) progress(phase Phase, state PhaseState, attempt int, message string) {
	if r.notify != nil {
		r.notify(phase, state, attempt, message)
	}
}

// RunPhase executes at most maxRetries+1 generation attempts for one phase.
// Validation failure with budget remaining appends an escalating enforcement
// directive and regenerates. On exhaustion the longest attempt is accepted
// with a loud warning rather than failing the report. Only a generator error
// (no working credential) is returned as a hard failure.
func (r *PhaseRunner) RunPhase(ctx context.Context, phase Phase, prompt string, config GenerationConfig, criteria CompletionCriteria, maxRetries int, stream StreamCallbacks) (*PhaseResult, error) {
	var best *PhaseResult
	currentPrompt := prompt

	for attempt := 1; attempt <= maxRetries+1; attempt++ {
		r.progress(phase, StateGenerating, attempt, fmt.Sprintf("generating %s attempt %d", phase, attempt))

		text, chunks, err := r.generator.Generate(ctx, currentPrompt, config, stream)
		if err != nil {
			return nil, fmt.Errorf("phase %s generation failed on attempt %d: %w", phase, attempt, err)
		}

		r.progress(phase, StateValidating, attempt, fmt.Sprintf("validating %s attempt %d", phase, attempt))
		validation := Validate(text, criteria)

		result := &PhaseResult{
			Phase:      phase,
			Text:       text,
			CharCount:  len(text),
			ChunkCount: chunks,
			Attempt:    attempt,
			Validation: validation,
		}

		if validation.Pass {
			result.State = StateAccepted
			r.logger.Info().
				Str("phase", string(phase)).
				Int("attempt", attempt).
				Int("chars", result.CharCount).
				Int("chunks", chunks).
				Msg("Phase output accepted")
			r.progress(phase, StateAccepted, attempt, fmt.Sprintf("%s accepted on attempt %d", phase, attempt))
			return result, nil
		}

		r.logger.Warn().
			Str("phase", string(phase)).
			Int("attempt", attempt).
			Int("chars", result.CharCount).
			Int("markers_found", validation.MarkersFound).
			Str("failed_checks", strings.Join(validation.FailedChecks(), ",")).
			Msg("Phase output failed validation")

		if best == nil || result.CharCount > best.CharCount {
			best = result
		}

		if attempt <= maxRetries {
			directive := EnforcementDirective(phase, attempt, validation)
			currentPrompt = prompt + "\n\n" + directive
			result.State = StateRetrying
			r.progress(phase, StateRetrying, attempt, fmt.Sprintf("%s retrying after attempt %d", phase, attempt))
		}
	}

	// Retry budget spent. Availability wins over strictness: take the
	// longest attempt and flag it as partial.
	best.State = StateExhaustedButAccepted
	r.logger.Error().
		Str("phase", string(best.Phase)).
		Int("attempts", maxRetries+1).
		Int("chars", best.CharCount).
		Str("failed_checks", strings.Join(best.Validation.FailedChecks(), ",")).
		Msg("Phase retries exhausted, accepting best available output")
	r.progress(best.Phase, StateExhaustedButAccepted, best.Attempt,
		fmt.Sprintf("%s retries exhausted, accepting %d chars", best.Phase, best.CharCount))

	return best, nil
}

// EnforcementDirective builds the corrective text appended to a retried
// prompt. Pure function of the attempt number and the previous attempt's
// diagnostic; each retry's directive is strictly more forceful than the last.
func EnforcementDirective(phase Phase, attempt int, last ValidationResult) string {
	var b strings.Builder

	defects := describeDefects(phase, last)

	switch {
	case attempt == 1:
		b.WriteString("COMPLETION NOTICE: Your previous attempt was structurally incomplete. ")
		b.WriteString(defects)
		b.WriteString(" Regenerate the full section, producing every listed slide in order.")
	case attempt == 2:
		b.WriteString("CRITICAL COMPLETION FAILURE: Two attempts have now ended incomplete. ")
		b.WriteString(defects)
		b.WriteString(" You MUST produce every slide assigned to this call and you MUST end with the required closing footer. Partial output is unusable and will be rejected.")
	default:
		b.WriteString("FINAL WARNING - MANDATORY COMPLETION: Every prior attempt was rejected as incomplete. ")
		b.WriteString(defects)
		b.WriteString(" THIS IS YOUR LAST ATTEMPT. DO NOT STOP, DO NOT SUMMARIZE, DO NOT DEFER CONTENT. Write every remaining slide completely, in ascending order, and terminate with the exact closing footer element. Any other output is a failure.")
	}

	return b.String()
}

func describeDefects(phase Phase, last ValidationResult) string {
	var parts []string

	if !last.TerminalFound {
		lastSlide := Call1LastSlide
		if phase == PhaseCall2 {
			lastSlide = Call2LastSlide
		}
		parts = append(parts, fmt.Sprintf("It stopped before slide %d's closing footer.", lastSlide))
	}
	if slides := markerSlideNumbers(last.MissingMarkers); slides != "" {
		parts = append(parts, fmt.Sprintf("Missing slides: %s.", slides))
	}
	if !last.MinCharsMet {
		parts = append(parts, fmt.Sprintf("The output was only %d characters, far below a complete section.", last.CharCount))
	}
	if len(last.ForbiddenFound) > 0 {
		parts = append(parts, "It contained slides belonging to the other call; produce ONLY this call's slides.")
	}
	if last.TruncationHit {
		parts = append(parts, "It deferred content to a later response; everything must be written now.")
	}

	if len(parts) == 0 {
		return "The output did not satisfy the required structure."
	}
	return strings.Join(parts, " ")
}

// markerSlideNumbers turns missing marker anchors back into a readable slide
// list, e.g. "11, 12, 13, 14, 15"
func markerSlideNumbers(markers []string) string {
	var nums []string
	for _, m := range markers {
		trimmed := strings.TrimSuffix(strings.TrimPrefix(m, `id="slide-`), `"`)
		if trimmed != "" && trimmed != m {
			nums = append(nums, trimmed)
		}
	}
	return strings.Join(nums, ", ")
}
