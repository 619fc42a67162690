package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_WritesFieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core)).Named("apifootball")

	logger.WarnContext(context.Background(), "provider call failed", "endpoint", "/fixtures", "error", context.DeadlineExceeded, "dangling")

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "apifootball", entries[0].LoggerName)
	fields := entries[0].ContextMap()
	require.Equal(t, "/fixtures", fields["endpoint"])
	require.Equal(t, context.DeadlineExceeded.Error(), fields["error"])
	require.Contains(t, fields, "dangling")
}

func TestLogger_MirrorOnlySeesEnabledLevels(t *testing.T) {
	core, _ := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core))

	var got []string
	SetMirror(func(_ context.Context, _ Level, msg string, _ ...any) {
		got = append(got, msg)
	})
	t.Cleanup(func() { SetMirror(nil) })

	logger.Debug("hidden")
	logger.Info("visible")
	logger.ErrorContext(context.Background(), "also visible")

	require.Equal(t, []string{"visible", "also visible"}, got)
}

func TestNilLoggerFallsBackToDefault(t *testing.T) {
	var logger *Logger
	require.NotPanics(t, func() {
		logger.Info("no logger configured")
	})
	require.NotNil(t, logger.Named("x"))
}

func TestLogger_MirrorReceivesBoundFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core)).With("service", "enrichment").Named("orchestrator")

	var got []any
	SetMirror(func(_ context.Context, _ Level, _ string, args ...any) {
		got = args
	})
	t.Cleanup(func() { SetMirror(nil) })

	logger.Info("run finished", "match_id", int64(4))

	require.Equal(t, []any{"service", "enrichment", "match_id", int64(4)}, got)
	require.Equal(t, "enrichment", logs.All()[0].ContextMap()["service"])
}
