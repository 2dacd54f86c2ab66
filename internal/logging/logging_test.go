package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("text renames error key", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, slog.LevelInfo, FormatText).Error("publish failed", "error", errors.New("down"))

		assert.Contains(t, buf.String(), "err=down")
		assert.NotContains(t, buf.String(), "error=")
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		New(&buf, slog.LevelInfo, "JSON").Info("published", "version", 3)

		assert.Contains(t, buf.String(), `"msg":"published"`)
		assert.Contains(t, buf.String(), `"version":3`)
	})

	t.Run("level filters", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, slog.LevelWarn, FormatText)
		logger.Info("hidden")
		logger.Warn("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "debug", want: slog.LevelDebug},
		{in: "INFO", want: slog.LevelInfo},
		{in: "warn", want: slog.LevelWarn},
		{in: "error", want: slog.LevelError},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
