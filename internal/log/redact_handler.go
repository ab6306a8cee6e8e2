package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/lmittmann/tint"
)

// MaskValue replaces redacted values in log output.
const MaskValue = "***"

// sensitiveKeys are attribute keys whose values are always masked,
// compared case-insensitively.
var sensitiveKeys = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"password":            true,
	"credential":          true,
	"credentials":         true,
	"http-basic":          true,
	"basic-auth":          true,
	"token":               true,
	"secret":              true,
}

// userinfoPattern matches the user:pass@ section of a URL so credentials
// embedded in logged URLs can be masked in place.
var userinfoPattern = regexp.MustCompile(`(https?://)[^/@\s]+@`)

// RedactHandler wraps an slog.Handler and masks credential-bearing
// attributes before they reach the underlying handler.
type RedactHandler struct {
	handler slog.Handler
}

// NewRedactHandler creates a RedactHandler wrapping the given handler.
// If handler is nil, slog.Default().Handler() is used.
func NewRedactHandler(handler slog.Handler) *RedactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactHandler{handler: handler}
}

// NewLogger builds linkscan's standard logger: tint on w, wrapped in a
// RedactHandler. Debug switches the level from info to debug.
func NewLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := tint.NewHandler(w, &tint.Options{
		Level:   level,
		NoColor: true,
	})
	return slog.New(NewRedactHandler(handler))
}

// Enabled delegates to the underlying handler.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle masks sensitive attributes and passes the record on.
func (h *RedactHandler) Handle(ctx context.Context, r slog.Record) error {
	redacted := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		redacted.AddAttrs(redactAttr(a))
		return true
	})
	return h.handler.Handle(ctx, redacted)
}

// WithAttrs returns a new RedactHandler whose underlying handler carries
// the given (redacted) attributes.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		redacted = append(redacted, redactAttr(a))
	}
	return &RedactHandler{handler: h.handler.WithAttrs(redacted)}
}

// WithGroup returns a new RedactHandler with the given group opened.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name)}
}

// redactAttr masks an attribute value when its key is sensitive, and
// scrubs URL userinfo from string values regardless of key.
func redactAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		redacted := make([]slog.Attr, 0, len(members))
		for _, m := range members {
			redacted = append(redacted, redactAttr(m))
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		s := a.Value.String()
		if scrubbed := userinfoPattern.ReplaceAllString(s, "${1}"+MaskValue+"@"); scrubbed != s {
			return slog.String(a.Key, scrubbed)
		}
	}

	return a
}
