// Package plugin wires the noirkit build operations into a task host and exposes compiled
// circuits to scripts and tests.
package plugin

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/noirkit/noirkit/builder"
	"github.com/noirkit/noirkit/circuit"
	"github.com/noirkit/noirkit/config"
	"github.com/noirkit/noirkit/errdefs"
	"github.com/noirkit/noirkit/publish"
	"github.com/noirkit/noirkit/task"
)

// Task names and flags registered with the host.
const (
	TaskCompile          = "compile-noir-circuit"
	TaskCompileAlias     = "noir-compile-circuit"
	TaskGenerateContract = "generate-noir-verifier-contract"
	TaskPublish          = "publish-noir-artifacts"

	FlagQuiet         = "quiet"
	FlagForce         = "force"
	FlagUseNativeTool = "use-native-tool"
)

var buildFlags = []task.Flag{
	{Name: FlagQuiet, Usage: "suppress informational output"},
	{Name: FlagForce, Usage: "rebuild even when outputs are up to date"},
	{Name: FlagUseNativeTool, Usage: "compile with the nargo binary instead of the embedded compiler"},
}

// UploaderFactory builds the uploader used by the publish task.
type UploaderFactory func(ctx context.Context, region string) (publish.Uploader, error)

// Environment is what the plugin contributes to the host runtime.
type Environment struct {
	cfg         config.Config
	log         zerolog.Logger
	builder     *builder.Builder
	newUploader UploaderFactory
}

type Option func(*Environment)

// WithUploader replaces the S3 transfer manager used by the publish task.
func WithUploader(f UploaderFactory) Option {
	return func(e *Environment) { e.newUploader = f }
}

// Register adds the noirkit tasks to host and prepends the enabled ones to its compilation
// sequence.
func Register(host task.Host, cfg config.Config, log zerolog.Logger, opts ...Option) (*Environment, error) {
	env := &Environment{
		cfg:         cfg,
		log:         log,
		builder:     builder.New(cfg, log),
		newUploader: publish.NewS3Uploader,
	}
	for _, opt := range opts {
		opt(env)
	}

	defs := []task.Definition{
		{
			Name:        TaskCompile,
			Aliases:     []string{TaskCompileAlias},
			Description: "Compiles the Noir circuit",
			Flags:       buildFlags,
			Action: func(ctx context.Context, args task.Args) error {
				return env.builder.Compile(ctx, buildOptions(args))
			},
		},
		{
			Name:        TaskGenerateContract,
			Description: "Generates the Solidity verifier contract of the Noir circuit",
			Flags:       buildFlags,
			Action: func(ctx context.Context, args task.Args) error {
				return env.builder.GenerateContract(ctx, buildOptions(args))
			},
		},
		{
			Name:        TaskPublish,
			Description: "Uploads the compiled circuit, its keys and its verifier to S3",
			Flags:       buildFlags[:1],
			Action:      env.publish,
		},
	}
	for _, def := range defs {
		if err := host.Register(def); err != nil {
			return nil, err
		}
	}

	host.ExtendCompilationTasks(func(_ context.Context, tasks []string) []string {
		var pre []string
		if cfg.AutoCompile {
			pre = append(pre, TaskCompile)
		}
		if cfg.AutoGenerateContract {
			pre = append(pre, TaskGenerateContract)
		}
		return append(pre, tasks...)
	})
	return env, nil
}

// buildOptions maps task flags to builder options. use-native-tool only overrides the
// configuration when it was passed.
func buildOptions(args task.Args) builder.Options {
	opts := builder.Options{
		Quiet: args.Bool(FlagQuiet),
		Force: args.Bool(FlagForce),
	}
	if native, ok := args.Lookup(FlagUseNativeTool); ok {
		opts.Strategy = builder.EmbeddedLibrary
		if native {
			opts.Strategy = builder.NativeTool
		}
	}
	return opts
}

func (e *Environment) publish(ctx context.Context, args task.Args) error {
	log := e.log
	if args.Bool(FlagQuiet) {
		log = zerolog.Nop()
	}
	if e.cfg.Publish.Bucket == "" {
		return publish.ErrNoBucket
	}
	up, err := e.newUploader(ctx, e.cfg.Publish.Region)
	if err != nil {
		return err
	}
	_, err = publish.Publish(ctx, e.cfg, up, log)
	return err
}

// Config returns the resolved configuration.
func (e *Environment) Config() config.Config { return e.cfg }

// Builder returns the builder the tasks run with.
func (e *Environment) Builder() *builder.Builder { return e.builder }

// GetCircuit loads a compiled circuit. An empty name means the configured main circuit.
func (e *Environment) GetCircuit(name string) (*circuit.Circuit, error) {
	path := e.cfg.ArtifactPath(name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, &errdefs.NotFoundError{
				Path: path,
				Hint: "Maybe you forgot to run `noirkit " + TaskCompile + "` or `nargo compile`?",
			}
		}
		return nil, errors.Wrapf(err, "stat %s", path)
	}
	return circuit.Load(path)
}
