package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/Graylog2/go-gelf/gelf"
)

// syslog severities used by GELF.
const (
	gelfLevelError   = 3
	gelfLevelWarning = 4
	gelfLevelInfo    = 6
	gelfLevelDebug   = 7
)

// GelfHandler forwards slog records to a Graylog server over GELF/UDP.
type GelfHandler struct {
	writer *gelf.Writer
	host   string
	level  slog.Level
	attrs  []slog.Attr
}

// NewGelfHandler dials the Graylog address and returns a handler emitting
// records at or above the given level.
func NewGelfHandler(address string, level slog.Level) (*GelfHandler, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("dialing graylog: %w", err)
	}
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return &GelfHandler{writer: w, host: host, level: level}, nil
}

// Enabled reports whether the level passes the handler threshold.
func (h *GelfHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle converts the record to a GELF message and sends it.
func (h *GelfHandler) Handle(_ context.Context, r slog.Record) error {
	extra := make(map[string]interface{}, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		extra["_"+a.Key] = a.Value.String()
	}
	r.Attrs(func(a slog.Attr) bool {
		extra["_"+a.Key] = a.Value.String()
		return true
	})

	return h.writer.WriteMessage(&gelf.Message{
		Version:  "1.1",
		Host:     h.host,
		Short:    r.Message,
		TimeUnix: float64(r.Time.UnixNano()) / 1e9,
		Level:    gelfLevel(r.Level),
		Extra:    extra,
	})
}

// WithAttrs returns a handler carrying the additional attributes.
func (h *GelfHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &GelfHandler{writer: h.writer, host: h.host, level: h.level, attrs: merged}
}

// WithGroup is accepted but flattened; GELF extras have no nesting.
func (h *GelfHandler) WithGroup(string) slog.Handler {
	return h
}

func gelfLevel(l slog.Level) int32 {
	switch {
	case l >= slog.LevelError:
		return gelfLevelError
	case l >= slog.LevelWarn:
		return gelfLevelWarning
	case l >= slog.LevelInfo:
		return gelfLevelInfo
	default:
		return gelfLevelDebug
	}
}
