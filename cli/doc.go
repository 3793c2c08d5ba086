// Package cli contains the command line interface for nib.
//
// # Usage
//
// With no subcommand, nib evaluates its arguments as source files, or
// standard input when none are given:
//
//	nib prelude.nib main.nib
//	nib -e 'puts (1 + 2)'
//	nib repl lib.nib
//	nib fmt json -i 0 main.nib
//
// Relative source names are searched for in the directories given with
// -I/--path and then in the colon-separated NIBPATH environment variable.
// The ".nib" extension may be omitted.
//
// # Configuration
//
// Flag defaults are read from config.json and config.nib in the user
// configuration directory. The nib file is evaluated like any other source
// and each top-level binding sets the flag of the same name, with
// underscores standing for hyphens:
//
//	log_level = %s
//	  debug
//	log_pretty = false
//
// Bindings that are not booleans, integers, strings, or arrays of those are
// ignored, as are files that fail to evaluate. The init command writes a
// config.nib holding the current value of every global flag.
//
// Every flag except --path and --version may also be set in the environment
// by its upper-case name prefixed with NIB_, such as NIB_LOG_LEVEL. The
// environment overrides configuration files and is overridden by flags.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --[no-]log-caller: Include caller information in log output
//   - --[no-]log-pretty: Colorize log output
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof -o nib .
//
// Then:
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-dir: Set profile output directory
package cli
