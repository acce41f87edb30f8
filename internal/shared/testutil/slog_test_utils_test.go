package testutil

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures records with derived attributes", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		stageLogger := logger.With(slog.String("stage", "normalize"))
		stageLogger.Info("file_skipped", slog.String("file", "a.xlsx"))
		logger.Warn("geonames_unavailable")

		records := handler.GetRecords()
		require.Len(t, records, 2)

		rec, ok := handler.FindRecord("file_skipped")
		require.True(t, ok)
		assert.Equal(t, "normalize", rec.Attrs["stage"])
		assert.Equal(t, "a.xlsx", rec.Attrs["file"])

		AssertLogged(t, handler, slog.LevelWarn, "geonames_unavailable")
	})

	t.Run("counts repeated messages", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("sheet_skipped")
		logger.Info("sheet_skipped")
		logger.Info("sheet_parsed")

		assert.Equal(t, 2, handler.CountMessage("sheet_skipped"))
		_, ok := handler.FindRecord("absent")
		assert.False(t, ok)
	})
}
