package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithCarriesFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := FromZap(zap.New(core)).With("component", "server")

	log.Info("request", "status", 200)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "server", fields["component"])
	assert.EqualValues(t, 200, fields["status"])
}

func TestNewModes(t *testing.T) {
	for _, mode := range []string{"development", "production"} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		l.Debug("probe")
	}
	NewNop().Error("discarded", "k", "v")
}
