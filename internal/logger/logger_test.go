package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func withBuffer(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	SetOutput(buf)
	SetVerbose(verbose)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetVerbose(false)
	})
	return buf
}

func TestDebug_SilentByDefault(t *testing.T) {
	buf := withBuffer(t, false)

	Debug("hidden %d", 1)
	Info("also hidden")
	Warn("and this")
	Section("Quiet")

	assert.Empty(t, buf.String())
}

func TestDebug_VerboseEmitsLevels(t *testing.T) {
	buf := withBuffer(t, true)

	Debug("value is %d", 42)
	Info("indexed %s", "page")
	Warn("degraded")

	out := buf.String()
	assert.Contains(t, out, "[DEBUG] value is 42")
	assert.Contains(t, out, "[INFO] indexed page")
	assert.Contains(t, out, "[WARN] degraded")
}

func TestSection_Header(t *testing.T) {
	buf := withBuffer(t, true)

	Section("Segmentation")

	assert.Contains(t, buf.String(), "=== Segmentation ===")
}

func TestIsVerbose(t *testing.T) {
	withBuffer(t, true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}
