package log

import (
	"io"
	"log/slog"
)

// DiscardHandler returns a handler that drops every record. It is
// installed as the default root logger so importing this module stays
// silent until a host application calls SetDefault or InitLogger.
func DiscardHandler() slog.Handler {
	return slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: levelMaxVerbosity})
}

// NewTerminalHandler returns a human-readable text handler writing to w at the given level.
func NewTerminalHandler(w io.Writer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}
