package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewWritesConsoleAndFile(t *testing.T) {
	var console bytes.Buffer
	file := filepath.Join(t.TempDir(), "logs", "callscope.log")
	log, err := New(Options{Level: "debug", File: file, Console: zapcore.AddSync(&console)})
	require.NoError(t, err)

	log.Debugw("step done", "step", "summary", "outcome", "ok")
	require.NoError(t, log.Sync())

	assert.Contains(t, console.String(), "step done")
	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"step":"summary"`)
}

func TestNewRespectsLevel(t *testing.T) {
	var console bytes.Buffer
	log, err := New(Options{Level: "warn", Console: zapcore.AddSync(&console)})
	require.NoError(t, err)
	log.Infow("hidden")
	log.Warnw("shown")
	assert.NotContains(t, console.String(), "hidden")
	assert.Contains(t, console.String(), "shown")
}

func TestNewRejectsBadLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}
