package slogpretty

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLogHandler_Handle(t *testing.T) {
	bufWo := bytes.NewBuffer(nil)
	bufWe := bytes.NewBuffer(nil)

	h := &Handler{
		We:  &lockedWriter{w: bufWe},
		Wo:  &lockedWriter{w: bufWo},
		Lvl: slog.LevelDebug,
		Goa: make([]GroupOrAttrs, 0),
	}

	record := slog.Record{
		Time:    time.Date(2024, 06, 26, 0, 0, 0, 0, time.UTC),
		Message: "refiner fused patterns",
		Level:   slog.LevelDebug,
	}
	record.Add("pattern", "fuse(p1, p2)")
	record.Add("count", 3)
	record.Add("elapsed", 2*time.Second)
	record.Add("path", "../foo.go")
	record.Add(slog.Group("foo", slog.String("bar", "bar")))
	require.NoError(t, h.Handle(context.Background(), record))
	record.Level = slog.LevelInfo
	require.NoError(t, h.Handle(context.Background(), record))
	record.Level = slog.LevelWarn
	require.NoError(t, h.Handle(context.Background(), record))
	record.Level = slog.LevelError
	require.NoError(t, h.Handle(context.Background(), record))
	record.Message = "store io error"
	require.NoError(t, h.Handle(context.Background(), record))
}
