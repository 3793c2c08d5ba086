// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// Records are written one at a time with their attributes flattened, so
// the structured errors of the interpreter appear as dotted keys such as
// "error.line" in pretty output.
//
// Loggers are configured with functional options at creation time. The zero
// [Logger] discards everything, so it can be embedded in option structs
// without initialization.
//
// # Basic Usage
//
//	logger := log.Make(os.Stderr)
//	logger.Info("evaluating source", slog.String("source", "main.nib"))
//	logger.Error("evaluation failed", slog.Any("error", err))
//
// # Configuration
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelTrace),
//		log.WithFormat(log.FormatText),
//		log.WithTimeLayout("RFC3339Nano"),
//		log.WithCaller(true))
//
// A derived logger with different options is made with [Logger.Wrap], and
// one carrying extra attributes with [Logger.With].
//
// # Package Logger
//
// The package-level functions log through a default logger writing to
// [os.Stderr]. [Config] reconfigures it and [SetDefault] replaces it.
// [Default] returns it for code that takes a [Logger] value.
// Context-unaware functions use the context returned by
// [DefaultContextProvider], which is [context.TODO] by default.
//
// # Levels
//
// [LevelTrace] sits below [LevelDebug] and records individual parse and
// evaluation steps. [LevelDebug], [LevelInfo], [LevelWarn], and [LevelError]
// follow [log/slog]. Messages below the configured level are discarded.
//
// # Output Formats
//
// Two output formats are supported: [FormatText] (default) and
// [FormatJSON]. Both have a colorized pretty variant, enabled by default
// with [WithPretty].
package log
