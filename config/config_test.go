package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }
func boolp(b bool) *bool     { return &b }

func TestResolveDefaults(t *testing.T) {
	root := t.TempDir()
	cfg, err := Default(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "circuits"), cfg.CircuitsPath)
	assert.Equal(t, filepath.Join(root, "contracts"), cfg.ContractsPath)
	assert.Equal(t, "main", cfg.MainCircuitName)
	assert.Equal(t, "nargo", cfg.NargoBin)
	assert.False(t, cfg.UseNargo)
	assert.True(t, cfg.AutoCompile)
	assert.True(t, cfg.AutoGenerateContract)
}

func TestResolvePaths(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(t.TempDir(), "elsewhere")

	cfg, err := Resolve(root, UserConfig{
		Paths: UserPaths{Sources: strp(abs)},
		Noir:  UserNoir{CircuitsPath: strp("./zk/../noir")},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "noir"), cfg.CircuitsPath)
	assert.Equal(t, abs, cfg.ContractsPath)
}

func TestResolveOverrides(t *testing.T) {
	cfg, err := Resolve(t.TempDir(), UserConfig{Noir: UserNoir{
		MainCircuitName:      strp("multiply"),
		UseNargo:             boolp(true),
		AutoCompile:          boolp(false),
		AutoGenerateContract: boolp(false),
	}})
	require.NoError(t, err)
	assert.Equal(t, "multiply", cfg.MainCircuitName)
	assert.True(t, cfg.UseNargo)
	assert.False(t, cfg.AutoCompile)
	assert.False(t, cfg.AutoGenerateContract)

	_, err = Resolve(t.TempDir(), UserConfig{Noir: UserNoir{MainCircuitName: strp("")}})
	require.Error(t, err)
}

func TestPathHelpers(t *testing.T) {
	root := t.TempDir()
	cfg, err := Default(root)
	require.NoError(t, err)

	build := filepath.Join(root, "circuits", "build")
	assert.Equal(t, build, cfg.BuildDir())
	assert.Equal(t, filepath.Join(build, "main.acir"), cfg.ArtifactPath(""))
	assert.Equal(t, filepath.Join(build, "other.acir"), cfg.ArtifactPath("other"))
	assert.Equal(t, filepath.Join(root, "circuits", "src", "main.nr"), cfg.MainSourcePath())
	assert.Equal(t, filepath.Join(root, "circuits", "src"), cfg.SourceDir())

	assert.Equal(t, filepath.Join(root, "contracts", "MainVerifier.sol"), cfg.ContractPath(""))
	assert.Equal(t, filepath.Join(root, "contracts", "MyCircuitVerifier.sol"), cfg.ContractPath("my_circuit"))
	assert.Equal(t, filepath.Join(root, "circuits", "contract", "plonk_vk.sol"), cfg.NativeContractPath())

	pk, vk := cfg.KeyPaths("")
	assert.Equal(t, filepath.Join(build, "main.pk"), pk)
	assert.Equal(t, filepath.Join(build, "main.vk"), vk)
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	doc := `
paths:
  sources: src/contracts
noir:
  circuitsPath: zk
  mainCircuitName: multiply
  useNargo: true
  autoGenerateContract: false
publish:
  bucket: artifacts
  region: eu-west-1
`
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(doc), 0o644))

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "zk"), cfg.CircuitsPath)
	assert.Equal(t, filepath.Join(root, "src", "contracts"), cfg.ContractsPath)
	assert.Equal(t, "multiply", cfg.MainCircuitName)
	assert.True(t, cfg.UseNargo)
	assert.True(t, cfg.AutoCompile)
	assert.False(t, cfg.AutoGenerateContract)
	assert.Equal(t, "artifacts", cfg.Publish.Bucket)
	assert.Equal(t, "eu-west-1", cfg.Publish.Region)
}

func TestLoadMissingFile(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "main", cfg.MainCircuitName)

	_, err = Load(root, filepath.Join(root, "absent.yaml"))
	require.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte("noir:\n  mainCircuitName: fromfile\n"), 0o644))

	t.Setenv(EnvMainCircuit, "fromenv")
	t.Setenv(EnvUseNargo, "true")
	t.Setenv(EnvAutoCompile, "0")

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.MainCircuitName)
	assert.True(t, cfg.UseNargo)
	assert.False(t, cfg.AutoCompile)

	t.Setenv(EnvUseNargo, "maybe")
	_, err = Load(root, "")
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, ".env"), []byte(EnvNargoBin+"=/opt/nargo/bin/nargo\n"), 0o644))
	// Registers cleanup of the variable godotenv is about to set.
	t.Setenv(EnvNargoBin, "")
	require.NoError(t, os.Unsetenv(EnvNargoBin))

	cfg, err := Load(root, "")
	require.NoError(t, err)
	assert.Equal(t, "/opt/nargo/bin/nargo", cfg.NargoBin)
}
