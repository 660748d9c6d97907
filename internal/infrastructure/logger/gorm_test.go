package logger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	gormlogger "gorm.io/gorm/logger"
)

func newObservedGormLogger(level gormlogger.LogLevel, opts ...GormLoggerOption) (*GormLogger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return NewGormLogger(zap.New(core), level, opts...), logs
}

func TestNewGormLogger_Defaults(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info)

	assert.Equal(t, gormlogger.Info, gl.level)
	assert.Equal(t, defaultSlowQueryThreshold, gl.slowThreshold)
	assert.True(t, gl.skipNotFound)
}

func TestNewGormLogger_Options(t *testing.T) {
	gl, _ := newObservedGormLogger(
		gormlogger.Info,
		WithSlowThreshold(500*time.Millisecond),
		WithIgnoreRecordNotFoundError(false),
	)

	assert.Equal(t, 500*time.Millisecond, gl.slowThreshold)
	assert.False(t, gl.skipNotFound)
}

func TestGormLogger_LogMode(t *testing.T) {
	gl, _ := newObservedGormLogger(gormlogger.Info)

	clone := gl.LogMode(gormlogger.Warn)

	assert.Equal(t, gormlogger.Info, gl.level)
	cloned, ok := clone.(*GormLogger)
	require.True(t, ok)
	assert.Equal(t, gormlogger.Warn, cloned.level)
}

func TestGormLogger_LevelGating(t *testing.T) {
	t.Run("info logged at info level", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)

		gl.Info(context.Background(), "migrated %d tables", 2)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Contains(t, entries[0].Message, "migrated 2 tables")
	})

	t.Run("info suppressed at silent level", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Silent)

		gl.Info(context.Background(), "should not appear")

		assert.Empty(t, logs.All())
	})

	t.Run("warn logged at warn level", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Warn)

		gl.Warn(context.Background(), "pool nearly exhausted")

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	})

	t.Run("error logged at error level", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error)

		gl.Error(context.Background(), "connection refused")

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	})
}

func TestGormLogger_Trace(t *testing.T) {
	query := func() (string, int64) {
		return "SELECT * FROM entity_mappings WHERE entity_type = ?", 3
	}

	t.Run("failed statement logged as error", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error)

		gl.Trace(context.Background(), time.Now(), query, errors.New("deadlock detected"))

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "sql error", entries[0].Message)
	})

	t.Run("record not found skipped by default", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Error)

		gl.Trace(context.Background(), time.Now(), query, gormlogger.ErrRecordNotFound)

		assert.Empty(t, logs.All())
	})

	t.Run("slow statement logged as warning", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Warn, WithSlowThreshold(time.Nanosecond))

		gl.Trace(context.Background(), time.Now().Add(-time.Second), query, nil)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "slow sql", entries[0].Message)
	})

	t.Run("normal statement logged at debug", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)

		gl.Trace(context.Background(), time.Now(), query, nil)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "sql query", entries[0].Message)
	})

	t.Run("silent level logs nothing", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Silent)

		gl.Trace(context.Background(), time.Now(), query, nil)

		assert.Empty(t, logs.All())
	})

	t.Run("request id carried from context", func(t *testing.T) {
		gl, logs := newObservedGormLogger(gormlogger.Info)
		ctx := context.WithValue(context.Background(), requestIDKey, "req-42")

		gl.Trace(ctx, time.Now(), query, nil)

		entries := logs.All()
		require.Len(t, entries, 1)
		assert.Equal(t, "req-42", entries[0].ContextMap()["request_id"])
	})
}

func TestMapGormLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected gormlogger.LogLevel
	}{
		{"silent", gormlogger.Silent},
		{"error", gormlogger.Error},
		{"warn", gormlogger.Warn},
		{"info", gormlogger.Info},
		{"debug", gormlogger.Info},
		{"unknown", gormlogger.Warn},
		{"", gormlogger.Warn},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			assert.Equal(t, tt.expected, MapGormLogLevel(tt.level))
		})
	}
}
