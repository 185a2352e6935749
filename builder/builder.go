// Package builder compiles circuits and generates their verifier contracts, skipping work
// when outputs are newer than every circuit source.
package builder

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/noirkit/noirkit/config"
	"github.com/noirkit/noirkit/nargo"
)

// Strategy selects how a circuit is compiled.
type Strategy uint8

const (
	// EmbeddedLibrary compiles in process with the embedded compiler and gnark.
	EmbeddedLibrary Strategy = iota + 1
	// NativeTool shells out to the nargo binary.
	NativeTool
)

func (s Strategy) String() string {
	switch s {
	case EmbeddedLibrary:
		return "embedded"
	case NativeTool:
		return "nargo"
	default:
		return "default"
	}
}

// Options are the per-invocation switches shared by every build operation.
type Options struct {
	// Quiet silences informational logs and subprocess output.
	Quiet bool
	// Force rebuilds even when outputs are up to date.
	Force bool
	// Strategy overrides the configured strategy. Zero means use the configuration.
	Strategy Strategy
}

// Builder runs build operations for one project configuration.
type Builder struct {
	cfg config.Config
	log zerolog.Logger

	// Stdout and Stderr receive nargo output when not quiet. Nil means the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

func New(cfg config.Config, log zerolog.Logger) *Builder {
	return &Builder{cfg: cfg, log: log}
}

func (b *Builder) Config() config.Config { return b.cfg }

// infoLog is the logger for progress messages, silenced by Quiet.
func (b *Builder) infoLog(opts Options) zerolog.Logger {
	if opts.Quiet {
		return zerolog.Nop()
	}
	return b.log
}

func (b *Builder) runner(opts Options) *nargo.Runner {
	return &nargo.Runner{
		Bin:    b.cfg.NargoBin,
		Dir:    b.cfg.CircuitsPath,
		Quiet:  opts.Quiet,
		Log:    b.infoLog(opts),
		Stdout: b.Stdout,
		Stderr: b.Stderr,
	}
}

// resolveStrategy picks the strategy for one operation. A native tool that cannot be run
// falls back to the embedded library with a warning.
func (b *Builder) resolveStrategy(ctx context.Context, opts Options) Strategy {
	s := opts.Strategy
	if s == 0 {
		s = EmbeddedLibrary
		if b.cfg.UseNargo {
			s = NativeTool
		}
	}
	if s == NativeTool && !b.runner(opts).Available(ctx) {
		b.log.Warn().Str("bin", b.cfg.NargoBin).Msg("nargo is not available, falling back to the embedded compiler")
		s = EmbeddedLibrary
	}
	return s
}
