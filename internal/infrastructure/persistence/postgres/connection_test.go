package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGORMLogWriter_RoutesByContent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := &GORMLogWriter{logger: zap.New(core)}

	w.Printf("%s [%.3fms] SLOW SQL >= 200ms", "meal_repository.go:42", 250.0)
	w.Printf("record error: %v", "duplicate key")
	w.Printf("SELECT * FROM foods")

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
		assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
		assert.Equal(t, zapcore.DebugLevel, entries[2].Level)
	}
}

func TestNewGORMLogger_ReturnsLogger(t *testing.T) {
	assert.NotNil(t, NewGORMLogger(zap.NewNop(), "info"))
	assert.NotNil(t, NewGORMLogger(zap.NewNop(), ""))
}
