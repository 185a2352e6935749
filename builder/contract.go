package builder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/noirkit/noirkit/circuit"
	"github.com/noirkit/noirkit/errdefs"
	"github.com/noirkit/noirkit/staleness"
)

const (
	narrowPragma = "pragma solidity >=0.6.0 <0.8.0"
	widePragma   = "pragma solidity >=0.6.0 <0.9.0"
)

// TweakPragma widens the compiler version range of a generated verifier so it builds with
// solc 0.8.x.
func TweakPragma(source string) string {
	return strings.ReplaceAll(source, narrowPragma, widePragma)
}

// GenerateContract writes the Solidity verifier of the main circuit unless it is newer than
// every source and than the compiled artifact.
func (b *Builder) GenerateContract(ctx context.Context, opts Options) error {
	log := b.infoLog(opts)
	contract := b.cfg.ContractPath("")

	if !opts.Force {
		stale, err := b.contractStale(contract)
		if err != nil {
			return errors.Wrap(err, "checking circuit sources")
		}
		if !stale {
			log.Info().Str("contract", contract).Msg("nothing to generate")
			return nil
		}
	}

	strategy := b.resolveStrategy(ctx, opts)
	log.Info().Str("circuit", b.cfg.MainCircuitName).Stringer("strategy", strategy).Msg("generating verifier contract")

	var source []byte
	var err error
	switch strategy {
	case NativeTool:
		source, err = b.nativeContract(ctx, opts)
	default:
		source, err = b.embeddedContract(ctx, opts)
	}
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(contract), 0o755); err != nil {
		return errors.Wrap(err, "creating contracts directory")
	}
	if err := os.WriteFile(contract, []byte(TweakPragma(string(source))), 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", contract)
	}
	log.Info().Str("contract", contract).Msg("verifier contract generated")
	return nil
}

// contractStale compares the contract against the sources and, when one exists, the
// artifact. A forced recompile leaves the sources alone but may change the verifying key.
func (b *Builder) contractStale(contract string) (bool, error) {
	target := staleness.File(contract)
	stale, err := staleness.NeedsRebuild(b.sources(), target)
	if err != nil || stale {
		return stale, err
	}
	artifact := staleness.File(b.cfg.ArtifactPath(""))
	if _, ok, err := staleness.LatestModTime(artifact); err != nil || !ok {
		return false, err
	}
	return staleness.NeedsRebuild(artifact, target)
}

// nativeContract runs `nargo contract` and takes ownership of the file it leaves behind.
func (b *Builder) nativeContract(ctx context.Context, opts Options) ([]byte, error) {
	if err := b.runner(opts).Contract(ctx); err != nil {
		return nil, err
	}
	generated := b.cfg.NativeContractPath()
	source, err := os.ReadFile(generated)
	if err != nil {
		return nil, &errdefs.ExternalToolError{
			Tool: b.cfg.NargoBin,
			Args: []string{"contract"},
			Err:  errors.Wrap(err, "no contract produced"),
		}
	}
	if err := os.Remove(generated); err != nil {
		return nil, errors.Wrapf(err, "removing %s", generated)
	}
	return source, nil
}

// embeddedContract exports the verifier from the persisted key pair of the artifact, setting
// one up and persisting it when there is none, so later proofs match the deployed verifier.
func (b *Builder) embeddedContract(ctx context.Context, opts Options) ([]byte, error) {
	if err := b.Compile(ctx, Options{Quiet: opts.Quiet, Strategy: EmbeddedLibrary}); err != nil {
		return nil, err
	}

	c, err := circuit.Load(b.cfg.ArtifactPath(""))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := c.ExportSolidity(&buf); err != nil {
		return nil, &errdefs.ExternalToolError{Tool: embeddedTool, Args: []string{"contract"}, Err: err}
	}
	return buf.Bytes(), nil
}
