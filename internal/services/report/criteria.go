package report

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Slide boundary between the two calls. Call 1 covers slides 1 through 7,
// call 2 covers slides 8 through 15.
const (
	Call1FirstSlide = 1
	Call1LastSlide  = 7
	Call2FirstSlide = 8
	Call2LastSlide  = 15
)

// Terminal markers are the closing footer anchors of each call's last slide.
// The model is instructed to end each call with exactly this footer.
const (
	Call1TerminalMarker = `id="slide-7-footer"`
	Call2TerminalMarker = `id="slide-15-footer"`
)

// truncationFingerprint is a phrase historically associated with the model
// stopping early and deferring the remainder of the document. Its presence
// alone does not fail a phase when the terminal marker proves generation
// continued past it.
const truncationFingerprint = "continue in the next response"

// CompletionCriteria is the structural acceptance contract for one phase
type CompletionCriteria struct {
	Phase                 Phase    `yaml:"phase"`
	TerminalMarker        string   `yaml:"terminal_marker"`
	MinChars              int      `yaml:"min_chars"`
	RequiredMarkers       []string `yaml:"required_markers"`
	MinMarkerCount        int      `yaml:"min_marker_count"`
	ForbiddenMarkers      []string `yaml:"forbidden_markers"`
	TruncationFingerprint string   `yaml:"truncation_fingerprint,omitempty"`
}

// SlideMarker returns the anchor string the model emits for a slide
func SlideMarker(slide int) string {
	return fmt.Sprintf(`id="slide-%d"`, slide)
}

func slideMarkers(first, last int) []string {
	markers := make([]string, 0, last-first+1)
	for i := first; i <= last; i++ {
		markers = append(markers, SlideMarker(i))
	}
	return markers
}

// DefaultCriteria returns the built-in acceptance criteria for a phase
func DefaultCriteria(phase Phase) CompletionCriteria {
	switch phase {
	case PhaseCall1:
		return CompletionCriteria{
			Phase:           PhaseCall1,
			TerminalMarker:  Call1TerminalMarker,
			MinChars:        10000,
			RequiredMarkers: slideMarkers(Call1FirstSlide, Call1LastSlide),
			MinMarkerCount:  6,
			ForbiddenMarkers: []string{
				Call2TerminalMarker,
				SlideMarker(Call2FirstSlide),
			},
		}
	case PhaseCall2:
		return CompletionCriteria{
			Phase:           PhaseCall2,
			TerminalMarker:  Call2TerminalMarker,
			MinChars:        5000,
			RequiredMarkers: slideMarkers(Call2FirstSlide, Call2LastSlide),
			MinMarkerCount:  7,
			ForbiddenMarkers: []string{
				Call1TerminalMarker,
			},
			TruncationFingerprint: truncationFingerprint,
		}
	default:
		return CompletionCriteria{Phase: phase}
	}
}

// criteriaFile is the YAML override document shape
type criteriaFile struct {
	Call1 *CompletionCriteria `yaml:"call1"`
	Call2 *CompletionCriteria `yaml:"call2"`
}

// LoadCriteria returns per-phase criteria, applying overrides from the given
// YAML file when path is non-empty. Missing phases in the file keep defaults.
func LoadCriteria(path string) (map[Phase]CompletionCriteria, error) {
	criteria := map[Phase]CompletionCriteria{
		PhaseCall1: DefaultCriteria(PhaseCall1),
		PhaseCall2: DefaultCriteria(PhaseCall2),
	}
	if path == "" {
		return criteria, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read criteria file %s: %w", path, err)
	}

	var overrides criteriaFile
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse criteria file %s: %w", path, err)
	}

	if overrides.Call1 != nil {
		overrides.Call1.Phase = PhaseCall1
		criteria[PhaseCall1] = *overrides.Call1
	}
	if overrides.Call2 != nil {
		overrides.Call2.Phase = PhaseCall2
		criteria[PhaseCall2] = *overrides.Call2
	}

	return criteria, nil
}
