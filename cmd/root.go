package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	gnarklogger "github.com/consensys/gnark/logger"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/noirkit/noirkit/config"
	"github.com/noirkit/noirkit/plugin"
	"github.com/noirkit/noirkit/task"
)

// app is the state shared by every command of one invocation.
type app struct {
	cfg      config.Config
	log      zerolog.Logger
	registry *task.Registry
	env      *plugin.Environment
	stdout   io.Writer
}

type globalFlags struct {
	root     string
	config   string
	logLevel string
}

func (g *globalFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(&g.root, "root", ".", "project root")
	fs.StringVar(&g.config, "config", "", "configuration file (default <root>/"+config.FileName+")")
	fs.StringVar(&g.logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
}

// scanGlobalFlags reads the flags the command tree depends on before it is built. Unknown
// flags belong to subcommands and are ignored here.
func scanGlobalFlags(args []string) globalFlags {
	var g globalFlags
	fs := pflag.NewFlagSet("noirkit", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	g.register(fs)
	_ = fs.Parse(args)
	return g
}

func newLogger(w io.Writer, level string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), errors.Wrapf(err, "invalid --log-level %q", level)
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger(), nil
}

// NewRootCmd loads the project configuration selected by args and builds the command tree,
// with one command per registered task.
func NewRootCmd(args []string, stdout, stderr io.Writer) (*cobra.Command, error) {
	flags := scanGlobalFlags(args)

	log, err := newLogger(stderr, flags.logLevel)
	if err != nil {
		return nil, err
	}
	gnarklogger.Set(log)

	cfg, err := config.Load(flags.root, flags.config)
	if err != nil {
		return nil, errors.Wrap(err, "loading configuration")
	}

	// The CLI has no compilation tasks of its own; the plugin hook supplies them.
	registry := task.NewRegistry()
	env, err := plugin.Register(registry, cfg, log)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: log, registry: registry, env: env, stdout: stdout}

	rootCmd := &cobra.Command{
		Use:           "noirkit",
		Short:         "Builds, proves and verifies Noir circuits",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	// Declared again so cobra accepts them; their values were read by scanGlobalFlags.
	var declared globalFlags
	declared.register(rootCmd.PersistentFlags())
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	for _, def := range registry.Definitions() {
		rootCmd.AddCommand(a.taskCmd(def))
	}
	rootCmd.AddCommand(
		a.compileCmd(),
		a.proveCmd(),
		a.verifyCmd(),
		a.serveCmd(),
		versionCmd(),
	)
	return rootCmd, nil
}

func Execute() {
	rootCmd, err := NewRootCmd(os.Args[1:], os.Stdout, os.Stderr)
	if err == nil {
		err = rootCmd.ExecuteContext(context.Background())
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
