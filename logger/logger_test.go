package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		l, err := New("debug", format)
		require.NoError(t, err)
		assert.True(t, l.Core().Enabled(zapcore.DebugLevel), format)
	}

	l, err := New("WARN", "json")
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, l.Core().Enabled(zapcore.WarnLevel))
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", "json")
	assert.Error(t, err)
}

func TestNamed_NilBase(t *testing.T) {
	l := Named(nil, "api")
	require.NotNil(t, l)
	l.Info("discarded")
}

func TestMust_Panics(t *testing.T) {
	assert.Panics(t, func() { Must(New("loud", "json")) })
}
