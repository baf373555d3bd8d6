package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, verboseMode bool) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verboseMode)
	t.Cleanup(func() {
		SetVerbose(false)
		SetOutput(os.Stderr)
	})
	return &buf
}

func TestSetVerbose(t *testing.T) {
	_ = captureOutput(t, false)
	assert.False(t, IsVerbose())

	SetVerbose(true)
	assert.True(t, IsVerbose())

	SetVerbose(false)
	assert.False(t, IsVerbose())
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := captureOutput(t, true)

	Debug("hashing %s", "guideline.pdf")

	assert.Equal(t, "[DEBUG] hashing guideline.pdf\n", buf.String())
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := captureOutput(t, false)

	Debug("hashing")
	Info("indexed")
	Section("Scan")

	assert.Empty(t, buf.String())
}

func TestSection(t *testing.T) {
	buf := captureOutput(t, true)

	Section("Process Pending")

	assert.Equal(t, "\n=== Process Pending ===\n", buf.String())
}

func TestInfo_WhenVerbose(t *testing.T) {
	buf := captureOutput(t, true)

	Info("%d chapters", 12)

	assert.Equal(t, "[INFO] 12 chapters\n", buf.String())
}

func TestWarnAndError_AlwaysPrinted(t *testing.T) {
	buf := captureOutput(t, false)

	Warn("extraction failed for %s", "a.pdf")
	Error("store write failed")

	assert.Equal(t, "[WARN] extraction failed for a.pdf\n[ERROR] store write failed\n", buf.String())
}
