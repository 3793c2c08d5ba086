package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"
)

const (
	ansiReset   = "\033[0m"
	ansiGray    = "\033[90m"
	ansiRed     = "\033[31m"
	ansiGreen   = "\033[32m"
	ansiYellow  = "\033[33m"
	ansiBlue    = "\033[34m"
	ansiMagenta = "\033[35m"
	ansiCyan    = "\033[36m"
)

// prettyHandler writes colorized records, either as one line of key=value
// pairs or as an indented JSON-like object. Group attributes, including
// those of [slog.LogValuer] errors, are flattened to dotted keys.
type prettyHandler struct {
	opts   slog.HandlerOptions
	json   bool
	mu     *sync.Mutex
	w      io.Writer
	attrs  []slog.Attr // from WithAttrs, already qualified
	prefix string      // open groups joined with "."
}

func newPrettyHandler(w io.Writer, opts *slog.HandlerOptions, json bool) *prettyHandler {
	return &prettyHandler{opts: *opts, json: json, mu: new(sync.Mutex), w: w}
}

func (h *prettyHandler) Enabled(_ context.Context, level slog.Level) bool {
	floor := slog.LevelInfo
	if h.opts.Level != nil {
		floor = h.opts.Level.Level()
	}

	return level >= floor
}

func (h *prettyHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(c.attrs[:len(c.attrs):len(c.attrs)], h.qualify(attrs)...)

	return &c
}

func (h *prettyHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}

	c := *h
	c.prefix = h.prefix + name + "."

	return &c
}

// qualify prefixes the keys of attrs with the open groups.
func (h *prettyHandler) qualify(attrs []slog.Attr) []slog.Attr {
	if h.prefix == "" {
		return attrs
	}

	out := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		out[i] = slog.Attr{Key: h.prefix + a.Key, Value: a.Value}
	}

	return out
}

func (h *prettyHandler) Handle(_ context.Context, r slog.Record) error {
	var fields []slog.Attr

	builtin := func(a slog.Attr) {
		if h.opts.ReplaceAttr != nil {
			a = h.opts.ReplaceAttr(nil, a)
		}

		if a.Key != "" {
			fields = append(fields, a)
		}
	}

	if !r.Time.IsZero() {
		builtin(slog.Time(slog.TimeKey, r.Time))
	}

	builtin(slog.Any(slog.LevelKey, r.Level))

	if h.opts.AddSource {
		if src := r.Source(); src != nil && src.File != "" {
			builtin(slog.String(slog.SourceKey, src.File+":"+strconv.Itoa(src.Line)))
		}
	}

	builtin(slog.String(slog.MessageKey, r.Message))

	for _, a := range h.attrs {
		fields = flatten(fields, "", a)
	}

	r.Attrs(func(a slog.Attr) bool {
		fields = flatten(fields, h.prefix, a)

		return true
	})

	var buf bytes.Buffer

	if h.json {
		writeObject(&buf, fields)
	} else {
		writeLine(&buf, fields)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.w.Write(buf.Bytes())

	return err
}

// flatten appends a to out, expanding groups into dotted keys.
func flatten(out []slog.Attr, prefix string, a slog.Attr) []slog.Attr {
	v := a.Value.Resolve()

	if v.Kind() != slog.KindGroup {
		if a.Key == "" {
			return out
		}

		return append(out, slog.Attr{Key: prefix + a.Key, Value: v})
	}

	if a.Key != "" {
		prefix += a.Key + "."
	}

	for _, g := range v.Group() {
		out = flatten(out, prefix, g)
	}

	return out
}

func writeLine(buf *bytes.Buffer, fields []slog.Attr) {
	for i, a := range fields {
		if i > 0 {
			buf.WriteByte(' ')
		}

		paint(buf, ansiGray, a.Key)
		buf.WriteByte('=')
		writeValue(buf, a)
	}

	buf.WriteByte('\n')
}

func writeObject(buf *bytes.Buffer, fields []slog.Attr) {
	buf.WriteString("{\n")

	for i, a := range fields {
		if i > 0 {
			buf.WriteString(",\n")
		}

		buf.WriteString("  ")
		paint(buf, ansiGray, a.Key)
		buf.WriteString(": ")
		writeValue(buf, a)
	}

	buf.WriteString("\n}\n")
}

func paint(buf *bytes.Buffer, color, s string) {
	buf.WriteString(color)
	buf.WriteString(s)
	buf.WriteString(ansiReset)
}

func writeValue(buf *bytes.Buffer, a slog.Attr) {
	v := a.Value

	switch v.Kind() {
	case slog.KindInt64:
		paint(buf, ansiYellow, strconv.FormatInt(v.Int64(), 10))

	case slog.KindUint64:
		paint(buf, ansiYellow, strconv.FormatUint(v.Uint64(), 10))

	case slog.KindFloat64:
		paint(buf, ansiYellow, strconv.FormatFloat(v.Float64(), 'g', -1, 64))

	case slog.KindBool:
		if v.Bool() {
			paint(buf, ansiGreen, "true")
		} else {
			paint(buf, ansiRed, "false")
		}

	case slog.KindDuration:
		paint(buf, ansiMagenta, v.Duration().String())

	case slog.KindTime:
		paint(buf, ansiBlue, v.Time().Format(time.RFC3339))

	default:
		if a.Key == slog.LevelKey {
			paint(buf, levelColor(v.String()), v.String())

			return
		}

		if v.Kind() == slog.KindAny && v.Any() == nil {
			paint(buf, ansiGray, "nil")

			return
		}

		paint(buf, ansiCyan, v.String())
	}
}

func levelColor(label string) string {
	switch ParseLevel(label) {
	case LevelError:
		return ansiRed
	case LevelWarn:
		return ansiYellow
	case LevelInfo:
		return ansiGreen
	default:
		return ansiBlue
	}
}
