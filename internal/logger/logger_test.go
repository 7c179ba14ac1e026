package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerboseGating(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	defer SetOutput(os.Stderr)

	SetVerbose(false)
	Debug("hidden %d", 1)
	Info("hidden")
	Warn("hidden")
	assert.Empty(t, buf.String())

	SetVerbose(true)
	defer SetVerbose(false)
	Debug("shown %d", 2)
	assert.Contains(t, buf.String(), "[DEBUG] shown 2")

	Info("info line")
	assert.Contains(t, buf.String(), "[INFO] info line")

	Warn("warn line")
	assert.Contains(t, buf.String(), "[WARN] warn line")

	Section("Ranking")
	assert.Contains(t, buf.String(), "=== Ranking ===")
}

func TestIsVerbose(t *testing.T) {
	SetVerbose(true)
	assert.True(t, IsVerbose())
	SetVerbose(false)
	assert.False(t, IsVerbose())
}
