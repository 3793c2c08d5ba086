package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nib/cli/cmd"
	"github.com/ardnew/nib/pkg"
)

// envPrefix prefixes the environment variable of every flag, so --log-level
// may also be given as NIB_LOG_LEVEL.
const envPrefix = "NIB"

// CLI is the top-level command-line interface for nib.
type CLI struct {
	Log   logConfig   `embed:"" group:"log"   prefix:"log-"`
	Pprof pprofConfig `embed:"" group:"pprof" prefix:"pprof-"`

	Version kong.VersionFlag `env:"-"                       help:"Print version and exit"                                short:"V"`
	Path    []string         `env:"-"                       help:"Directory searched for source files, ahead of NIBPATH" placeholder:"DIR" short:"I" type:"path"`

	Init cmd.Init `cmd:"" help:"Write a configuration file from the current flags"`
	Fmt  cmd.Fmt  `cmd:"" help:"Render parsed sources"`
	Repl cmd.Repl `cmd:"" help:"Start an interactive session"`

	Eval cmd.Eval `cmd:"" default:"withargs" help:"Evaluate sources"`
}

// Run parses args, configures logging and profiling, and runs the selected
// command. Parse failures and --help or --version call exit.
func Run(ctx context.Context, exit func(code int), args ...string) error {
	if err := mkdirAllRequired(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var cli CLI

	// Logging applies before kong resolves the configuration files, so
	// their diagnostics honor the command-line flags.
	cli.Log.scan(args)

	parser, err := kong.New(&cli, cli.options(ctx, exit)...)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSearchPath(ctx, searchPath(cli.Path))

	defer cli.Log.start(ctx)()
	defer cli.Pprof.start(ctx)()

	return ktx.Run(ctx, &cli)
}

func (c *CLI) options(ctx context.Context, exit func(code int)) []kong.Option {
	config := configPath(baseConfig)

	return []kong.Option{
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.DefaultEnvars(envPrefix),
		kong.ExplicitGroups([]kong.Group{c.Log.group(), c.Pprof.group()}),
		kong.BindSingletonProvider(func() context.Context { return ctx }),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			Tree:                true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(kong.JSON, config+".json"),
		kong.Configuration(resolve(ctx), config+".nib"),
		kong.Vars{
			cmd.ConfigIdentifier: config + ".nib",
			cmd.CacheIdentifier:  cacheDir(),
			"version":            strings.TrimSpace(pkg.Version),
		}.
			CloneWith(c.Log.vars()).
			CloneWith(c.Pprof.vars()),
	}
}
