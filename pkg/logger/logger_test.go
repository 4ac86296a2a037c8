package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	tests := []struct {
		name      string
		level     string
		logFile   string
		wantLevel zapcore.Level
	}{
		{name: "debug level", level: "debug", wantLevel: zapcore.DebugLevel},
		{name: "info level", level: "info", wantLevel: zapcore.InfoLevel},
		{name: "warn level", level: "warn", wantLevel: zapcore.WarnLevel},
		{name: "error level", level: "error", wantLevel: zapcore.ErrorLevel},
		{name: "unknown level falls back to info", level: "loud", wantLevel: zapcore.InfoLevel},
		{name: "with log file", level: "info", logFile: filepath.Join(t.TempDir(), "app.log"), wantLevel: zapcore.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Log = nil

			require.NoError(t, Init(tt.level, tt.logFile))
			require.NotNil(t, Log)

			assert.True(t, Log.Core().Enabled(tt.wantLevel))
			if tt.wantLevel > zapcore.DebugLevel {
				assert.False(t, Log.Core().Enabled(tt.wantLevel-1))
			}

			if tt.logFile != "" {
				Log.Info("written to file")
				_ = Sync()
				_, err := os.Stat(tt.logFile)
				assert.NoError(t, err)
			}
		})
	}
}

func TestL_BeforeInit(t *testing.T) {
	Log = nil
	assert.NotNil(t, L())
	assert.NotPanics(t, func() { L().Info("discarded") })
}

func TestSync_NilLogger(t *testing.T) {
	Log = nil
	assert.NoError(t, Sync())
}
