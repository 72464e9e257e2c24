// Package log builds slog loggers for the lazyload command.
//
// Filtering logs the tags it skips and the content it was called with.
// Post bodies can be hundreds of kilobytes, so the TruncatingHandler
// shortens markup-carrying attributes before they reach the output.
package log

import (
	"context"
	"io"
	"log/slog"
	"strconv"
)

// DefaultMaxValueLen is the longest markup value written unshortened.
const DefaultMaxValueLen = 256

// markupKeys are attribute keys whose string values hold HTML.
var markupKeys = map[string]bool{
	"content": true,
	"tag":     true,
	"html":    true,
}

// TruncatingHandler wraps an slog.Handler and shortens string values of
// markup attributes to at most maxLen bytes, appending the number of bytes
// dropped.
type TruncatingHandler struct {
	handler slog.Handler
	maxLen  int
}

// NewTruncatingHandler wraps handler. If handler is nil the default
// logger's handler is used; maxLen <= 0 selects DefaultMaxValueLen.
func NewTruncatingHandler(handler slog.Handler, maxLen int) *TruncatingHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	if maxLen <= 0 {
		maxLen = DefaultMaxValueLen
	}
	return &TruncatingHandler{handler: handler, maxLen: maxLen}
}

// Enabled delegates to the wrapped handler.
func (h *TruncatingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle shortens the record's attributes and passes it on.
func (h *TruncatingHandler) Handle(ctx context.Context, r slog.Record) error {
	out := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.truncate(a))
		return true
	})
	return h.handler.Handle(ctx, out)
}

// WithAttrs returns a handler whose preset attributes are already shortened.
func (h *TruncatingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	short := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		short[i] = h.truncate(a)
	}
	return &TruncatingHandler{handler: h.handler.WithAttrs(short), maxLen: h.maxLen}
}

// WithGroup returns a handler that nests attributes under name.
func (h *TruncatingHandler) WithGroup(name string) slog.Handler {
	return &TruncatingHandler{handler: h.handler.WithGroup(name), maxLen: h.maxLen}
}

func (h *TruncatingHandler) truncate(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		short := make([]slog.Attr, len(group))
		for i, g := range group {
			short[i] = h.truncate(g)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(short...)}
	}
	if !markupKeys[a.Key] || a.Value.Kind() != slog.KindString {
		return a
	}
	s := a.Value.String()
	if len(s) <= h.maxLen {
		return a
	}
	return slog.String(a.Key, s[:h.maxLen]+"…(+"+strconv.Itoa(len(s)-h.maxLen)+" bytes)")
}

// New returns a logger writing to w. verbose selects Debug instead of Warn;
// json selects the JSON handler instead of the text handler.
func New(w io.Writer, verbose, json bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var base slog.Handler
	if json {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewTruncatingHandler(base, DefaultMaxValueLen))
}
