package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNewZapLogger_FallsBackToInfoOnBadLevel(t *testing.T) {
	l := NewZapLogger(&ZapLoggerConfig{Level: "not-a-level", Encoding: "json"})
	assert.NotNil(t, l)

	child := l.With(zap.String("component", "test"))
	assert.NotNil(t, child)
	child.Info("hello")
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error("ignored", zap.Int("n", 1))
	assert.NoError(t, l.Sync())
}
