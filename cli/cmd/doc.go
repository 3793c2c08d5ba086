// Package cmd implements the nib subcommands: eval, fmt, repl, and init.
//
// Commands receive their [kong.Context] and the source search path through
// the [context.Context] passed to Run, see [WithContext] and
// [WithSearchPath]. Sources are named on the command line; "-" or no name at
// all reads standard input.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path to
	// the nib configuration file.
	ConfigIdentifier = "config"
)
