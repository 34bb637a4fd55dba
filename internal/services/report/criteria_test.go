package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCriteria(t *testing.T) {
	call1 := DefaultCriteria(PhaseCall1)
	call2 := DefaultCriteria(PhaseCall2)

	assert.Len(t, call1.RequiredMarkers, 7)
	assert.Len(t, call2.RequiredMarkers, 8)
	assert.Equal(t, Call1TerminalMarker, call1.TerminalMarker)
	assert.Equal(t, Call2TerminalMarker, call2.TerminalMarker)
	assert.Contains(t, call1.ForbiddenMarkers, Call2TerminalMarker)
	assert.Contains(t, call2.ForbiddenMarkers, Call1TerminalMarker)
	assert.NotEmpty(t, call2.TruncationFingerprint)
}

func TestLoadCriteria_FileOverridesOnePhase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "criteria.yaml")
	content := `call2:
  terminal_marker: 'id="closing-footer"'
  min_chars: 9000
  required_markers:
    - 'id="slide-8"'
    - 'id="slide-9"'
  min_marker_count: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	criteria, err := LoadCriteria(path)
	require.NoError(t, err)

	// Overridden phase
	call2 := criteria[PhaseCall2]
	assert.Equal(t, `id="closing-footer"`, call2.TerminalMarker)
	assert.Equal(t, 9000, call2.MinChars)
	assert.Equal(t, PhaseCall2, call2.Phase)

	// Untouched phase keeps defaults
	assert.Equal(t, DefaultCriteria(PhaseCall1), criteria[PhaseCall1])
}

func TestLoadCriteria_MissingFileFails(t *testing.T) {
	_, err := LoadCriteria("/nonexistent/criteria.yaml")
	assert.Error(t, err)
}
