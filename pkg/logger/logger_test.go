package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zap.WarnLevel, parseLevel("WARN", false))
	assert.Equal(t, zap.ErrorLevel, parseLevel("error", true))
	assert.Equal(t, zap.DebugLevel, parseLevel("", true))
	assert.Equal(t, zap.InfoLevel, parseLevel("", false))
}

func TestNewWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hr.log")
	log := New(Options{Level: "info", File: path, MaxSizeMB: 1})

	log.Info("employee created", zap.String("employee_id", "42"))
	log.Debug("dropped below level")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"employee created"`)
	assert.Contains(t, string(data), `"employee_id":"42"`)
	assert.NotContains(t, string(data), "dropped below level")
}

func TestInitReplacesPackageLogger(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	got := Init(Options{Level: "error"})
	assert.Same(t, got, Logger)
}
