package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestMultiHandler_RespectsPerHandlerLevel(t *testing.T) {
	var verbose, quiet bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&verbose, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	logger := slog.New(h).With("repo", "acme/api")

	logger.Debug("reconciled")
	logger.Warn("sync failed")

	assert.Contains(t, verbose.String(), "reconciled")
	assert.Contains(t, verbose.String(), "sync failed")
	assert.NotContains(t, quiet.String(), "reconciled")
	assert.Contains(t, quiet.String(), "sync failed")
	assert.Contains(t, quiet.String(), "repo=acme/api")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestSetup_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "prinbox.log")

	logger, closer, err := Setup(Options{File: path, Level: "info"})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("sync complete", "unread", 3)
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "sync complete")
	assert.Contains(t, string(data), "unread=3")
	assert.NotContains(t, string(data), "hidden")
}
