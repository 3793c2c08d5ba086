package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// groupError is an error that logs as a group, like the interpreter's.
type groupError struct{}

func (groupError) Error() string { return "unbound name" }

func (groupError) LogValue() slog.Value {
	return slog.GroupValue(slog.String("error", "unbound name"), slog.Int("line", 3))
}

func TestMake_Defaults(t *testing.T) {
	logger := Make(nil)

	if logger.Level() != DefaultLevel {
		t.Errorf("Level() = %v, want %v", logger.Level(), DefaultLevel)
	}

	if logger.Format() != DefaultFormat {
		t.Errorf("Format() = %v, want %v", logger.Format(), DefaultFormat)
	}

	if logger.caller != DefaultCaller || logger.pretty != DefaultPretty {
		t.Errorf("caller, pretty = %v, %v", logger.caller, logger.pretty)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		name   string
		log    func(Logger, string, ...slog.Attr)
		label  string
		floor  Level
		logged bool
	}{
		{"trace at trace", Logger.Trace, "TRACE", LevelTrace, true},
		{"trace at debug", Logger.Trace, "TRACE", LevelDebug, false},
		{"debug at debug", Logger.Debug, "DEBUG", LevelDebug, true},
		{"debug at info", Logger.Debug, "DEBUG", LevelInfo, false},
		{"info at info", Logger.Info, "INFO", LevelInfo, true},
		{"info at warn", Logger.Info, "INFO", LevelWarn, false},
		{"warn at warn", Logger.Warn, "WARN", LevelWarn, true},
		{"warn at error", Logger.Warn, "WARN", LevelError, false},
		{"error at trace", Logger.Error, "ERROR", LevelTrace, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer

			logger := Make(&buf, WithLevel(tt.floor), WithPretty(false))
			tt.log(logger, "message")

			if got := buf.Len() > 0; got != tt.logged {
				t.Fatalf("logged = %v, want %v: %q", got, tt.logged, buf.String())
			}

			if tt.logged && !strings.Contains(buf.String(), "level="+tt.label) {
				t.Errorf("expected level %s in %q", tt.label, buf.String())
			}
		})
	}
}

func TestLogger_ContextMethods(t *testing.T) {
	var buf bytes.Buffer

	logger := Make(&buf, WithLevel(LevelTrace), WithPretty(false))

	for _, fn := range []func(context.Context, string, ...slog.Attr){
		logger.TraceContext,
		logger.DebugContext,
		logger.InfoContext,
		logger.WarnContext,
		logger.ErrorContext,
	} {
		fn(t.Context(), "context message")
	}

	if n := strings.Count(buf.String(), "context message"); n != 5 {
		t.Errorf("expected 5 records, got %d:\n%s", n, buf.String())
	}
}

func TestLogger_Formats(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer

		Make(&buf, WithFormat(FormatJSON), WithPretty(false)).
			Info("parsed", slog.String("source", "main.nib"))

		var record map[string]any
		if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
			t.Fatalf("invalid JSON %q: %v", buf.String(), err)
		}

		if record["msg"] != "parsed" || record["source"] != "main.nib" {
			t.Errorf("unexpected record %v", record)
		}

		if record["level"] != "INFO" {
			t.Errorf("level = %v, want INFO", record["level"])
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer

		Make(&buf, WithFormat(FormatText), WithPretty(false)).
			Info("parsed", slog.String("source", "main.nib"))

		for _, want := range []string{"msg=parsed", "source=main.nib"} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected %q in %q", want, buf.String())
			}
		}
	})
}

func TestLogger_TraceLevelName(t *testing.T) {
	var buf bytes.Buffer

	Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON), WithPretty(false)).
		Trace("eval")

	if !strings.Contains(buf.String(), `"level":"TRACE"`) {
		t.Errorf("expected TRACE level in %q", buf.String())
	}
}

func TestLogger_Caller(t *testing.T) {
	for _, enable := range []bool{true, false} {
		var buf bytes.Buffer

		Make(&buf, WithCaller(enable), WithPretty(false)).Info("message")

		got := strings.Contains(buf.String(), "log_test.go:")
		if got != enable {
			t.Errorf("WithCaller(%v): caller recorded = %v in %q", enable, got, buf.String())
		}
	}
}

func TestLogger_TimeLayout(t *testing.T) {
	tests := []struct {
		layout string
		want   string
	}{
		{"RFC3339", "T"},
		{"rfc-3339-nano", "."},
		{"Kitchen", "M"},
		{"2006", "20"},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			var buf bytes.Buffer

			Make(&buf, WithTimeLayout(tt.layout), WithFormat(FormatJSON), WithPretty(false)).
				Info("message")

			var record map[string]any
			if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
				t.Fatal(err)
			}

			ts, _ := record["time"].(string)
			if !strings.Contains(ts, tt.want) {
				t.Errorf("time %q does not contain %q", ts, tt.want)
			}
		})
	}

	for _, layout := range []string{"", "  ", "none"} {
		var buf bytes.Buffer

		Make(&buf, WithTimeLayout(layout), WithPretty(false)).Info("message")

		if strings.Contains(buf.String(), "time=") {
			t.Errorf("WithTimeLayout(%q) kept timestamp: %q", layout, buf.String())
		}
	}
}

func TestLogger_Pretty(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer

		Make(&buf, WithTimeLayout("none")).
			With(slog.String("source", "main.nib")).
			Warn("failed", slog.Any("error", groupError{}), slog.Bool("ok", false))

		out := buf.String()

		for _, want := range []string{
			ansiGray + "level" + ansiReset + "=" + ansiYellow + "WARN",
			ansiGray + "source" + ansiReset + "=" + ansiCyan + "main.nib",
			ansiGray + "error.line" + ansiReset + "=" + ansiYellow + "3",
			ansiRed + "false",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in %q", want, out)
			}
		}

		if strings.Count(out, "\n") != 1 {
			t.Errorf("expected one line, got %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer

		Make(&buf, WithFormat(FormatJSON), WithTimeLayout("none")).
			Info("done", slog.Int("statements", 2))

		out := buf.String()
		if !strings.HasPrefix(out, "{\n") || !strings.HasSuffix(out, "\n}\n") {
			t.Errorf("expected indented object, got %q", out)
		}

		if !strings.Contains(out, ansiYellow+"2"+ansiReset) {
			t.Errorf("expected colored integer in %q", out)
		}
	})

	t.Run("group", func(t *testing.T) {
		var buf bytes.Buffer

		logger := Make(&buf, WithTimeLayout("none"))
		logger = Logger{Logger: logger.WithGroup("repl"), config: logger.config}
		logger.Info("key", slog.String("name", "x"))

		if !strings.Contains(buf.String(), "repl.name") {
			t.Errorf("expected qualified key in %q", buf.String())
		}
	})
}

func TestLogger_With(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithFormat(FormatJSON), WithPretty(false))
	derived := base.With(slog.String("source", "lib.nib"))

	derived.Info("first")
	base.Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 records, got %q", buf.String())
	}

	if !strings.Contains(lines[0], `"source":"lib.nib"`) {
		t.Errorf("derived record missing attribute: %s", lines[0])
	}

	if strings.Contains(lines[1], "source") {
		t.Errorf("base record gained attribute: %s", lines[1])
	}
}

func TestLogger_Wrap(t *testing.T) {
	var buf bytes.Buffer

	base := Make(&buf, WithLevel(LevelWarn))
	wrapped := base.Wrap(WithLevel(LevelDebug))

	if base.Level() != LevelWarn || wrapped.Level() != LevelDebug {
		t.Errorf("levels = %v, %v", base.Level(), wrapped.Level())
	}

	if !wrapped.Enabled(t.Context(), LevelDebug) || base.Enabled(t.Context(), LevelDebug) {
		t.Error("Enabled does not follow the wrapped level")
	}
}

func TestLogger_ZeroValue(t *testing.T) {
	var logger Logger

	logger.Info("discarded")
	logger.With(slog.Int("n", 1)).Error("discarded")

	if logger.Enabled(t.Context(), LevelError) {
		t.Error("zero logger reports enabled")
	}

	if logger.Level() != DefaultLevel || logger.Format() != DefaultFormat {
		t.Error("zero logger does not report defaults")
	}

	var buf bytes.Buffer

	logger.Wrap(WithOutput(&buf)).Info("written")

	if !strings.Contains(buf.String(), "written") {
		t.Errorf("wrapped zero logger did not write: %q", buf.String())
	}
}

func TestLogger_Concurrent(t *testing.T) {
	var buf lockedBuffer

	logger := Make(&buf, WithFormat(FormatJSON), WithPretty(false))

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Go(func() {
			logger.With(slog.Int("worker", i)).Info("tick")
		})
	}

	wg.Wait()

	if n := strings.Count(buf.String(), `"msg":"tick"`); n != 16 {
		t.Errorf("expected 16 records, got %d", n)
	}
}

func TestPackage_DefaultLogger(t *testing.T) {
	var buf bytes.Buffer

	previous := SetDefault(Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON), WithPretty(false)))
	t.Cleanup(func() { SetDefault(previous) })

	Trace("trace message")
	Debug("debug message")
	Info("info message", slog.String("key", "value"))
	WarnContext(t.Context(), "warn message")
	ErrorContext(t.Context(), "error message", slog.Any("error", errors.New("boom")))
	With(slog.String("scope", "pkg")).Info("with message")

	out := buf.String()

	for _, want := range []string{
		"trace message", "debug message", `"key":"value"`,
		"warn message", `"error":"boom"`, `"scope":"pkg"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	Config(WithLevel(LevelError))

	buf.Reset()
	Info("filtered")

	if buf.Len() != 0 {
		t.Errorf("Config did not apply: %q", buf.String())
	}
}

// lockedBuffer is a bytes.Buffer safe for concurrent writes.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}
