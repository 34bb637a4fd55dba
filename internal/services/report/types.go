// Package report implements the two-call equity report generation pipeline:
// prompt assembly, phase validation, retry orchestration, and final document
// assembly.
package report

import "time"

// Phase identifies one of the two sequential generation calls
type Phase string

const (
	// PhaseCall1 produces slides 1-7 (front half of the report)
	PhaseCall1 Phase = "call1"
	// PhaseCall2 produces slides 8-15 (back half of the report)
	PhaseCall2 Phase = "call2"
)

// Analysis is one prior specialist analysis supplied with the request
type Analysis struct {
	Content   string   `json:"content"`
	Sources   []string `json:"sources,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
}

// GenerationRequest carries everything needed to produce one report.
// Immutable once created; constructed per report request.
type GenerationRequest struct {
	ID                  string              `json:"id"`
	CompanyName         string              `json:"company_name"`
	Ticker              string              `json:"ticker"`
	ReportFocus         string              `json:"report_focus,omitempty"`
	InvestmentObjective string              `json:"investment_objective,omitempty"`
	UserQuery           string              `json:"user_query,omitempty"`
	Analyses            map[string]Analysis `json:"analyses_data,omitempty"`
	FinancialTables     string              `json:"-"` // pre-serialized HTML statement tables
	DataSources         map[string]string   `json:"data_sources,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}

// GenerationConfig is the per-call model configuration. Constant for the
// lifetime of one phase call.
type GenerationConfig struct {
	Model             string
	Temperature       float32
	TopP              float32
	MaxOutputTokens   int32
	SystemInstruction string
	WebSearch         bool
}

// PhaseState is the orchestrator state for one phase attempt cycle
type PhaseState string

const (
	StateGenerating           PhaseState = "generating"
	StateValidating           PhaseState = "validating"
	StateRetrying             PhaseState = "retrying"
	StateAccepted             PhaseState = "accepted"
	StateExhaustedButAccepted PhaseState = "exhausted_but_accepted"
)

// PhaseResult holds one generation attempt's accumulated output and verdict.
// Each retry produces a fresh PhaseResult so prior diagnostics stay intact.
type PhaseResult struct {
	Phase      Phase
	Text       string
	CharCount  int
	ChunkCount int
	Attempt    int
	Validation ValidationResult
	State      PhaseState
}

// Accepted reports whether the result terminated in an accepting state
func (r *PhaseResult) Accepted() bool {
	return r.State == StateAccepted || r.State == StateExhaustedButAccepted
}

// Partial reports whether the result was accepted despite failing validation
func (r *PhaseResult) Partial() bool {
	return r.State == StateExhaustedButAccepted
}

// PhaseSummary is the condensed phase-one outcome embedded into the
// phase-two prompt
type PhaseSummary struct {
	Excerpt     string
	RatingLabel string
	CharCount   int
}

// AssembledReport is the final output of a pipeline run
type AssembledReport struct {
	ID          string
	CompanyName string
	Ticker      string
	Phase1Text  string
	Phase2Text  string
	MergedBody  string
	HTML        string
	FilePath    string
	Partial     bool
	Phase1Chars int
	Phase2Chars int
	GeneratedAt time.Time
}

// EventType discriminates pipeline stream events
type EventType string

const (
	EventStatus        EventType = "status"
	EventFragment      EventType = "fragment"
	EventPhaseComplete EventType = "phase_complete"
	EventFinal         EventType = "final"
	EventError         EventType = "error"
)

// StreamEvent is a transient pipeline notification consumed by the relay
// layer. Never stored.
type StreamEvent struct {
	Type        EventType
	Status      string
	Message     string
	Phase       Phase
	Fragment    string
	Accumulated string
	Progress    int
	Report      *AssembledReport
	Err         error
}

// EmitFunc receives pipeline stream events. Implementations must not block
// for long; send failures are the consumer's concern.
type EmitFunc func(StreamEvent)
