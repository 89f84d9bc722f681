package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	for _, mode := range []string{"production", "development", ""} {
		l, err := New(mode)
		require.NoError(t, err, mode)
		assert.NotNil(t, l.SugaredLogger)
	}
}

func TestWith_AddsFields(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	l := (&Logger{SugaredLogger: zap.New(core).Sugar()}).With("bom", "b1")

	l.Info("recomputed", "fields", 3)
	l.Debug("skipped")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "recomputed", entries[0].Message)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "b1", ctx["bom"])
	assert.EqualValues(t, 3, ctx["fields"])
}

func TestNop(t *testing.T) {
	l := Nop()
	l.Error("ignored", "k", "v")
	l.Sync()
}
