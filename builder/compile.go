package builder

import (
	"context"
	"os"

	"github.com/pkg/errors"

	"github.com/noirkit/noirkit/compiler"
	"github.com/noirkit/noirkit/config"
	"github.com/noirkit/noirkit/errdefs"
	"github.com/noirkit/noirkit/staleness"
)

// embeddedTool names the in-process compiler in errors.
const embeddedTool = "noirkit-compiler"

// Compile builds the main circuit artifact unless it is newer than every source.
func (b *Builder) Compile(ctx context.Context, opts Options) error {
	log := b.infoLog(opts)
	artifact := b.cfg.ArtifactPath("")

	if !opts.Force {
		stale, err := staleness.NeedsRebuild(b.sources(), staleness.File(artifact))
		if err != nil {
			return errors.Wrap(err, "checking circuit sources")
		}
		if !stale {
			log.Info().Str("artifact", artifact).Msg("nothing to compile")
			return nil
		}
	}

	strategy := b.resolveStrategy(ctx, opts)
	log.Info().Str("circuit", b.cfg.MainCircuitName).Stringer("strategy", strategy).Msg("compiling circuit")

	switch strategy {
	case NativeTool:
		if err := b.runner(opts).Compile(ctx, b.cfg.MainCircuitName); err != nil {
			return err
		}
		if _, err := os.Stat(artifact); err != nil {
			return &errdefs.ExternalToolError{
				Tool: b.cfg.NargoBin,
				Args: []string{"compile", b.cfg.MainCircuitName},
				Err:  errors.Wrap(err, "no artifact produced"),
			}
		}
	default:
		if err := b.compileEmbedded(); err != nil {
			return err
		}
	}

	log.Info().Str("artifact", artifact).Msg("circuit compiled")
	return nil
}

func (b *Builder) sources() staleness.Pattern {
	return staleness.Glob(b.cfg.SourceDir(), config.SourcePattern)
}

func (b *Builder) compileEmbedded() error {
	src := b.cfg.MainSourcePath()
	prog, err := compiler.CompileFile(src)
	if err != nil {
		return &errdefs.ExternalToolError{Tool: embeddedTool, Args: []string{src}, Err: err}
	}
	prog.Name = b.cfg.MainCircuitName
	return compiler.WriteArtifact(b.cfg.ArtifactPath(""), prog)
}
