package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prospectus.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestConfigValidate_DefaultsAreValid(t *testing.T) {
	assert.NoError(t, NewDefaultConfig().Validate())
}

func TestConfigValidate_RejectsNegativeMaxRetries(t *testing.T) {
	path := writeConfigFile(t, "[report]\nmax_retries = -1\n")

	config, err := LoadFromFiles(path)
	require.NoError(t, err)
	require.Equal(t, -1, config.Report.MaxRetries)

	err = config.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_retries")
}

func TestConfigValidate_RejectsBadPort(t *testing.T) {
	config := NewDefaultConfig()
	config.Server.Port = 0
	assert.Error(t, config.Validate())
}

func TestConfigValidate_RejectsOversizedChunkSize(t *testing.T) {
	config := NewDefaultConfig()
	config.WebSocket.ChunkSize = config.WebSocket.ChunkThreshold + 1
	assert.Error(t, config.Validate())
}

func TestConfigValidate_RejectsUnknownProvider(t *testing.T) {
	config := NewDefaultConfig()
	config.LLM.DefaultProvider = "gpt"
	assert.Error(t, config.Validate())
}
