package common

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogHelpers(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))

	LogError(errors.New("boom"), "Something failed", Fields{"id": "f-1"})
	LogInfo("Something happened", Fields{"count": 3})
	LogInfo("No fields", nil)

	out := buf.String()
	assert.Contains(t, out, "Something failed")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "id=f-1")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "No fields")
}

func TestSetupLogger(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	require.NoError(t, SetupLogger(slog.LevelDebug, "json"))
	require.NoError(t, SetupLogger(slog.LevelInfo, "console"))
}
