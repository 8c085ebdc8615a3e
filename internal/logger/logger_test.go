package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	dev, err := New()
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod, err := New(WithProduction(true))
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))

	warn, err := New(WithProduction(true), WithLevel("warn"))
	require.NoError(t, err)
	assert.False(t, warn.Core().Enabled(zapcore.InfoLevel))
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(WithLevel("loud"))
	assert.Error(t, err)
	assert.Panics(t, func() { MustNew(WithLevel("loud")) })
}

func TestNew_JSONOutputWithFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log := MustNew(WithProduction(true), WithOutput(path), WithField("service", "scanlink"))
	log.Info("hello", zap.String("host", "qr.acme.com"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"service":"scanlink"`)
	assert.Contains(t, string(data), `"host":"qr.acme.com"`)
}
