package nargo

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noirkit/noirkit/compiler"
	"github.com/noirkit/noirkit/errdefs"
	"github.com/noirkit/noirkit/internal/fakenargo"
)

func TestMain(m *testing.M) {
	fakenargo.Intercept()
	os.Exit(m.Run())
}

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src"), 0o755))
	src := "fn main(x : Field, y : pub Field) { constrain x == y; }\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "src", "main.nr"), []byte(src), 0o644))
	return dir
}

func TestAvailable(t *testing.T) {
	ctx := context.Background()

	missing := &Runner{Bin: filepath.Join(t.TempDir(), "nargo"), Log: zerolog.Nop()}
	require.False(t, missing.Available(ctx))

	fake := &Runner{Bin: fakenargo.Enable(t), Log: zerolog.Nop()}
	require.True(t, fake.Available(ctx))
}

func TestCompileAndContract(t *testing.T) {
	dir := newProject(t)
	var stdout bytes.Buffer
	r := &Runner{Bin: fakenargo.Enable(t), Dir: dir, Log: zerolog.Nop(), Stdout: &stdout}
	ctx := context.Background()

	require.NoError(t, r.Compile(ctx, "equal"))
	prog, err := compiler.ReadArtifact(filepath.Join(dir, "build", "equal.acir"))
	require.NoError(t, err)
	require.Equal(t, "equal", prog.Name)
	require.Contains(t, stdout.String(), "successfully built")

	require.NoError(t, r.Contract(ctx))
	require.FileExists(t, filepath.Join(dir, "contract", "plonk_vk.sol"))
}

func TestQuietFailureCapturesOutput(t *testing.T) {
	dir := newProject(t)
	var stdout bytes.Buffer
	r := &Runner{Bin: fakenargo.Enable(t), Dir: dir, Quiet: true, Log: zerolog.Nop(), Stdout: &stdout}
	t.Setenv(fakenargo.EnvFail, "1")

	err := r.Compile(context.Background(), "main")
	require.Error(t, err)
	require.True(t, errdefs.IsExternalTool(err))
	require.Contains(t, err.Error(), "compile main failed")
	require.Contains(t, err.Error(), "the application panicked")
	require.Empty(t, stdout.String())
}
