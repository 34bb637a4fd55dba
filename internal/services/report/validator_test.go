package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPhaseText produces output carrying the given slide anchors, padded to
// the requested length, ending with the terminal marker when provided
func buildPhaseText(slides []int, terminal string, length int) string {
	var b strings.Builder
	for _, n := range slides {
		b.WriteString(`<div class="slide" ` + SlideMarker(n) + `>`)
		b.WriteString("<h2>Section content</h2>")
		b.WriteString("</div>\n")
	}
	for b.Len() < length {
		b.WriteString("<p>Revenue grew 12% year over year on broad-based segment strength.</p>\n")
	}
	if terminal != "" {
		b.WriteString(`<footer class="report-footer" ` + terminal + `>Company | Slide</footer>`)
	}
	return b.String()
}

func allSlides(first, last int) []int {
	var slides []int
	for i := first; i <= last; i++ {
		slides = append(slides, i)
	}
	return slides
}

func TestValidate_CompletePhaseTwoPasses(t *testing.T) {
	criteria := DefaultCriteria(PhaseCall2)
	text := buildPhaseText(allSlides(8, 15), Call2TerminalMarker, 35000)

	result := Validate(text, criteria)

	assert.True(t, result.Pass)
	assert.True(t, result.TerminalFound)
	assert.True(t, result.MinCharsMet)
	assert.Equal(t, 8, result.MarkersFound)
	assert.Empty(t, result.MissingMarkers)
	assert.Empty(t, result.ForbiddenFound)
}

func TestValidate_TruncatedPhaseTwoFailsWithMissingSlides(t *testing.T) {
	criteria := DefaultCriteria(PhaseCall2)
	text := buildPhaseText([]int{8, 9, 10}, "", 12000)

	result := Validate(text, criteria)

	require.False(t, result.Pass)
	assert.False(t, result.TerminalFound)
	assert.Equal(t, 3, result.MarkersFound)
	for _, slide := range []int{11, 12, 13, 14, 15} {
		assert.Contains(t, result.MissingMarkers, SlideMarker(slide))
	}
}

func TestValidate_AppendingContentNeverUnsatisfies(t *testing.T) {
	criteria := DefaultCriteria(PhaseCall1)
	text := buildPhaseText(allSlides(1, 7), Call1TerminalMarker, 15000)

	base := Validate(text, criteria)
	require.True(t, base.Pass)

	extended := text + "\n<p>Additional closing commentary on the outlook.</p>"
	assert.True(t, Validate(extended, criteria).Pass)
}

func TestValidate_CrossPhaseContaminationFails(t *testing.T) {
	criteria := DefaultCriteria(PhaseCall1)
	text := buildPhaseText(allSlides(1, 7), Call1TerminalMarker, 15000)
	contaminated := text + `<footer class="report-footer" ` + Call2TerminalMarker + `></footer>`

	result := Validate(contaminated, criteria)

	assert.False(t, result.Pass)
	assert.Contains(t, result.ForbiddenFound, Call2TerminalMarker)
}

func TestValidate_ShortOutputFails(t *testing.T) {
	criteria := DefaultCriteria(PhaseCall1)
	text := buildPhaseText(allSlides(1, 7), Call1TerminalMarker, 0)

	result := Validate(text, criteria)

	assert.False(t, result.Pass)
	assert.False(t, result.MinCharsMet)
	assert.True(t, result.TerminalFound)
}

func TestValidate_MarkerToleranceAllowsOneMissing(t *testing.T) {
	criteria := DefaultCriteria(PhaseCall1)
	// Slide 4 missing, six of seven present
	text := buildPhaseText([]int{1, 2, 3, 5, 6, 7}, Call1TerminalMarker, 15000)

	result := Validate(text, criteria)

	assert.True(t, result.Pass)
	assert.Equal(t, 6, result.MarkersFound)
	assert.Contains(t, result.MissingMarkers, SlideMarker(4))
}

func TestValidate_TruncationFingerprint(t *testing.T) {
	criteria := DefaultCriteria(PhaseCall2)

	t.Run("fingerprint without terminal fails", func(t *testing.T) {
		text := buildPhaseText([]int{8, 9, 10, 11, 12, 13, 14}, "", 20000) +
			"I will continue in the next response."
		result := Validate(text, criteria)
		assert.False(t, result.Pass)
		assert.True(t, result.TruncationHit)
	})

	t.Run("terminal after fingerprint clears it", func(t *testing.T) {
		text := buildPhaseText(allSlides(8, 15), "", 20000) +
			"I will continue in the next response." +
			`<footer class="report-footer" ` + Call2TerminalMarker + `></footer>`
		result := Validate(text, criteria)
		assert.False(t, result.TruncationHit)
		assert.True(t, result.Pass)
	})
}

func TestValidationResult_FailedChecks(t *testing.T) {
	criteria := DefaultCriteria(PhaseCall2)
	result := Validate("too short", criteria)

	failed := result.FailedChecks()
	assert.Contains(t, failed, "terminal_marker")
	assert.Contains(t, failed, "min_length")
	assert.Contains(t, failed, "required_markers")
	assert.NotContains(t, failed, "no_contamination")
}
