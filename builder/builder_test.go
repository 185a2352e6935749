package builder

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noirkit/noirkit/circuit"
	"github.com/noirkit/noirkit/compiler"
	"github.com/noirkit/noirkit/config"
	"github.com/noirkit/noirkit/errdefs"
	"github.com/noirkit/noirkit/internal/fakenargo"
)

func TestMain(m *testing.M) {
	fakenargo.Intercept()
	os.Exit(m.Run())
}

const multiplySource = `use dep::std;

fn main(x : Field, y : Field, result : pub Field) {
    constrain x * y == result;
}
`

// newProject lays out a project whose sources are an hour old.
func newProject(t *testing.T, src string) config.Config {
	t.Helper()
	cfg, err := config.Default(t.TempDir())
	require.NoError(t, err)

	mainPath := cfg.MainSourcePath()
	require.NoError(t, os.MkdirAll(filepath.Dir(mainPath), 0o755))
	require.NoError(t, os.WriteFile(mainPath, []byte(src), 0o644))
	setMtime(t, mainPath, time.Now().Add(-time.Hour))
	return cfg
}

func setMtime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	require.NoError(t, os.Chtimes(path, mtime, mtime))
}

func mtime(t *testing.T, path string) time.Time {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	return info.ModTime()
}

func newBuilder(cfg config.Config) *Builder {
	b := New(cfg, zerolog.Nop())
	b.Stdout = &bytes.Buffer{}
	b.Stderr = &bytes.Buffer{}
	return b
}

func TestCompileWithoutArtifact(t *testing.T) {
	cfg := newProject(t, multiplySource)
	require.NoFileExists(t, cfg.ArtifactPath(""))

	require.NoError(t, newBuilder(cfg).Compile(context.Background(), Options{}))

	prog, err := compiler.ReadArtifact(cfg.ArtifactPath(""))
	require.NoError(t, err)
	require.Equal(t, "main", prog.Name)
}

func TestCompileIsIdempotent(t *testing.T) {
	cfg := newProject(t, multiplySource)
	b := newBuilder(cfg)
	ctx := context.Background()
	artifact := cfg.ArtifactPath("")

	require.NoError(t, b.Compile(ctx, Options{}))
	settled := time.Now().Add(-30 * time.Minute).Truncate(time.Second)
	setMtime(t, artifact, settled)

	require.NoError(t, b.Compile(ctx, Options{}))
	require.True(t, mtime(t, artifact).Equal(settled), "artifact was rewritten")
}

func TestCompileAfterSourceChange(t *testing.T) {
	cfg := newProject(t, multiplySource)
	b := newBuilder(cfg)
	ctx := context.Background()
	artifact := cfg.ArtifactPath("")

	require.NoError(t, b.Compile(ctx, Options{}))
	settled := time.Now().Add(-30 * time.Minute).Truncate(time.Second)
	setMtime(t, artifact, settled)

	// A new file anywhere under src counts.
	lib := filepath.Join(cfg.CircuitsPath, "src", "lib", "util.nr")
	require.NoError(t, os.MkdirAll(filepath.Dir(lib), 0o755))
	require.NoError(t, os.WriteFile(lib, []byte("// helpers\n"), 0o644))
	setMtime(t, lib, settled.Add(time.Minute))

	require.NoError(t, b.Compile(ctx, Options{}))
	require.True(t, mtime(t, artifact).After(settled.Add(time.Minute)))
}

func TestCompileForce(t *testing.T) {
	cfg := newProject(t, multiplySource)
	b := newBuilder(cfg)
	ctx := context.Background()
	artifact := cfg.ArtifactPath("")

	require.NoError(t, b.Compile(ctx, Options{}))
	settled := time.Now().Add(-30 * time.Minute).Truncate(time.Second)
	setMtime(t, artifact, settled)

	require.NoError(t, b.Compile(ctx, Options{Force: true}))
	require.True(t, mtime(t, artifact).After(settled))
}

func TestCompileStrategiesAgree(t *testing.T) {
	ctx := context.Background()

	embedded := newProject(t, multiplySource)
	require.NoError(t, newBuilder(embedded).Compile(ctx, Options{Strategy: EmbeddedLibrary}))

	native := newProject(t, multiplySource)
	native.NargoBin = fakenargo.Enable(t)
	require.NoError(t, newBuilder(native).Compile(ctx, Options{Strategy: NativeTool}))

	for _, cfg := range []config.Config{embedded, native} {
		c, err := circuit.Load(cfg.ArtifactPath(""))
		require.NoError(t, err)

		ok, err := c.VerifyProofFor(ctx, circuit.Input{"x": 3, "y": 4, "result": 12})
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = c.VerifyProofFor(ctx, circuit.Input{"x": 3, "y": 4, "result": 10})
		require.NoError(t, err)
		require.False(t, ok)
	}

	a, err := compiler.ReadArtifact(embedded.ArtifactPath(""))
	require.NoError(t, err)
	n, err := compiler.ReadArtifact(native.ArtifactPath(""))
	require.NoError(t, err)
	require.Equal(t, a, n)
}

func TestCompileUsesConfiguredStrategy(t *testing.T) {
	cfg := newProject(t, multiplySource)
	cfg.UseNargo = true
	cfg.NargoBin = fakenargo.Enable(t)
	calls := filepath.Join(t.TempDir(), "calls.log")
	t.Setenv(fakenargo.EnvLog, calls)

	require.NoError(t, newBuilder(cfg).Compile(context.Background(), Options{}))

	data, err := os.ReadFile(calls)
	require.NoError(t, err)
	require.Contains(t, string(data), "[compile main]")
}

func TestCompileFallsBackWhenNargoMissing(t *testing.T) {
	cfg := newProject(t, multiplySource)
	cfg.UseNargo = true
	cfg.NargoBin = filepath.Join(t.TempDir(), "no-such-nargo")

	var logs bytes.Buffer
	b := New(cfg, zerolog.New(&logs))
	require.NoError(t, b.Compile(context.Background(), Options{Quiet: true}))

	require.FileExists(t, cfg.ArtifactPath(""))
	require.Contains(t, logs.String(), "falling back")
}

func TestCompileNativeFailureDoesNotFallBack(t *testing.T) {
	cfg := newProject(t, multiplySource)
	cfg.NargoBin = fakenargo.Enable(t)
	t.Setenv(fakenargo.EnvFail, "1")

	err := newBuilder(cfg).Compile(context.Background(), Options{Quiet: true, Strategy: NativeTool})
	require.Error(t, err)
	require.True(t, errdefs.IsExternalTool(err))
	require.NoFileExists(t, cfg.ArtifactPath(""))
}

func TestCompileEmbeddedFailure(t *testing.T) {
	cfg := newProject(t, "fn main(x : Field) { constrain x == y; }")

	err := newBuilder(cfg).Compile(context.Background(), Options{})
	require.Error(t, err)
	require.True(t, errdefs.IsExternalTool(err))
	require.Contains(t, err.Error(), `undefined variable "y"`)
}

func TestQuietNativeCompileIsSilent(t *testing.T) {
	cfg := newProject(t, multiplySource)
	cfg.NargoBin = fakenargo.Enable(t)
	b := newBuilder(cfg)

	require.NoError(t, b.Compile(context.Background(), Options{Quiet: true, Strategy: NativeTool}))
	require.Empty(t, b.Stdout.(*bytes.Buffer).String())

	require.NoError(t, b.Compile(context.Background(), Options{Force: true, Strategy: NativeTool}))
	require.Contains(t, b.Stdout.(*bytes.Buffer).String(), "successfully built")
}

func TestGenerateContract(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		strategy Strategy
	}{
		{"embedded", EmbeddedLibrary},
		{"native", NativeTool},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := newProject(t, multiplySource)
			cfg.NargoBin = fakenargo.Enable(t)

			require.NoError(t, newBuilder(cfg).GenerateContract(ctx, Options{Quiet: true, Strategy: tt.strategy}))

			contract := cfg.ContractPath("")
			require.Equal(t, "MainVerifier.sol", filepath.Base(contract))
			data, err := os.ReadFile(contract)
			require.NoError(t, err)
			require.Contains(t, string(data), "pragma solidity")
			require.NotContains(t, string(data), "<0.8.0")
		})
	}
}

func TestGenerateContractNativeMovesOutput(t *testing.T) {
	cfg := newProject(t, multiplySource)
	cfg.NargoBin = fakenargo.Enable(t)

	require.NoError(t, newBuilder(cfg).GenerateContract(context.Background(), Options{Quiet: true, Strategy: NativeTool}))

	data, err := os.ReadFile(cfg.ContractPath(""))
	require.NoError(t, err)
	require.Equal(t, TweakPragma(fakenargo.Contract), string(data))
	require.NoFileExists(t, cfg.NativeContractPath())
}

func TestGenerateContractEmbeddedPersistsKeys(t *testing.T) {
	cfg := newProject(t, multiplySource)
	ctx := context.Background()

	require.NoError(t, newBuilder(cfg).GenerateContract(ctx, Options{Quiet: true}))

	pk, vk := cfg.KeyPaths("")
	require.FileExists(t, cfg.ArtifactPath(""))
	require.FileExists(t, pk)
	require.FileExists(t, vk)

	// Proofs made after the contract was generated use the persisted pair.
	prover, err := circuit.Load(cfg.ArtifactPath(""))
	require.NoError(t, err)
	proof, err := prover.GetProof(ctx, circuit.Input{"x": 6, "y": 7, "result": 42})
	require.NoError(t, err)

	verifier, err := circuit.Load(cfg.ArtifactPath(""))
	require.NoError(t, err)
	ok, err := verifier.VerifyProof(ctx, proof)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestForcedRecompileKeepsContractAndKeys(t *testing.T) {
	cfg := newProject(t, multiplySource)
	b := newBuilder(cfg)
	ctx := context.Background()
	contract := cfg.ContractPath("")

	require.NoError(t, b.GenerateContract(ctx, Options{Quiet: true}))
	before, err := os.ReadFile(contract)
	require.NoError(t, err)
	settled := time.Now().Add(-30 * time.Minute).Truncate(time.Second)
	setMtime(t, contract, settled)

	require.NoError(t, b.Compile(ctx, Options{Quiet: true, Force: true}))
	require.True(t, mtime(t, cfg.ArtifactPath("")).After(settled))

	// Proofs made after the recompile still use the pair behind the contract.
	prover, err := circuit.Load(cfg.ArtifactPath(""))
	require.NoError(t, err)
	proof, err := prover.GetProof(ctx, circuit.Input{"x": 6, "y": 7, "result": 42})
	require.NoError(t, err)

	// The newer artifact makes the contract stale; regenerating it yields the same verifier.
	require.NoError(t, b.GenerateContract(ctx, Options{Quiet: true}))
	require.True(t, mtime(t, contract).After(settled))
	after, err := os.ReadFile(contract)
	require.NoError(t, err)
	require.Equal(t, string(before), string(after))

	verifier, err := circuit.Load(cfg.ArtifactPath(""))
	require.NoError(t, err)
	ok, err := verifier.VerifyProof(ctx, proof)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestGenerateContractIsIdempotent(t *testing.T) {
	cfg := newProject(t, multiplySource)
	cfg.NargoBin = fakenargo.Enable(t)
	b := newBuilder(cfg)
	ctx := context.Background()
	contract := cfg.ContractPath("")

	require.NoError(t, b.GenerateContract(ctx, Options{Quiet: true, Strategy: NativeTool}))
	settled := time.Now().Add(-30 * time.Minute).Truncate(time.Second)
	setMtime(t, contract, settled)

	require.NoError(t, b.GenerateContract(ctx, Options{Quiet: true, Strategy: NativeTool}))
	require.True(t, mtime(t, contract).Equal(settled))

	require.NoError(t, b.GenerateContract(ctx, Options{Quiet: true, Force: true, Strategy: NativeTool}))
	require.True(t, mtime(t, contract).After(settled))
}

func TestTweakPragma(t *testing.T) {
	src := "// SPDX\npragma solidity >=0.6.0 <0.8.0;\ncontract V {}\n"
	out := TweakPragma(src)
	require.Equal(t, "// SPDX\npragma solidity >=0.6.0 <0.9.0;\ncontract V {}\n", out)
	require.Equal(t, out, TweakPragma(out))

	untouched := "pragma solidity ^0.8.0;\n"
	require.Equal(t, untouched, TweakPragma(untouched))
	require.False(t, strings.Contains(TweakPragma(src), "<0.8.0"))
}
