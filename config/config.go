// Package config resolves the noirkit settings of a project: user overrides from
// noirkit.yaml, .env and the environment, merged over documented defaults.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/iancoleman/strcase"
	"github.com/pkg/errors"
)

const (
	DefaultCircuitsPath    = "circuits"
	DefaultContractsPath   = "contracts"
	DefaultMainCircuitName = "main"
	DefaultNargoBin        = "nargo"

	// ArtifactExt is the extension of compiled circuit artifacts in the build directory.
	ArtifactExt = ".acir"
	// ProvingKeyExt and VerifyingKeyExt name the groth16 keys persisted next to an artifact.
	ProvingKeyExt   = ".pk"
	VerifyingKeyExt = ".vk"

	// SourcePattern is the slash-separated glob of circuit sources, relative to SourceDir.
	SourcePattern = "**/*.nr"

	// KeyDigestExt names the file recording which artifact the persisted keys belong to.
	KeyDigestExt = ".sum"

	// NativeContractFile is where `nargo contract` leaves the verifier, relative to the
	// circuits root.
	NativeContractFile = "contract/plonk_vk.sol"
)

// Config is the resolved, read-only configuration of one build invocation. Every path is
// absolute.
type Config struct {
	Root                 string
	CircuitsPath         string
	ContractsPath        string
	MainCircuitName      string
	NargoBin             string
	UseNargo             bool
	AutoCompile          bool
	AutoGenerateContract bool
	Publish              PublishConfig
}

// PublishConfig locates the bucket compiled artifacts are published to.
type PublishConfig struct {
	Bucket string
	Prefix string
	Region string
}

// UserConfig mirrors the noirkit.yaml document. Nil fields take their default.
type UserConfig struct {
	Paths   UserPaths   `yaml:"paths"`
	Noir    UserNoir    `yaml:"noir"`
	Publish UserPublish `yaml:"publish"`
}

type UserPaths struct {
	Sources *string `yaml:"sources"`
}

type UserNoir struct {
	CircuitsPath         *string `yaml:"circuitsPath"`
	MainCircuitName      *string `yaml:"mainCircuitName"`
	NargoBin             *string `yaml:"nargoBin"`
	UseNargo             *bool   `yaml:"useNargo"`
	AutoCompile          *bool   `yaml:"autoCompile"`
	AutoGenerateContract *bool   `yaml:"autoGenerateContract"`
}

type UserPublish struct {
	Bucket *string `yaml:"bucket"`
	Prefix *string `yaml:"prefix"`
	Region *string `yaml:"region"`
}

// Resolve merges user over the defaults. Relative paths are resolved against root, which
// is itself made absolute.
func Resolve(root string, user UserConfig) (Config, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Config{}, errors.Wrapf(err, "resolving project root %s", root)
	}

	cfg := Config{
		Root:                 absRoot,
		CircuitsPath:         resolvePath(absRoot, DefaultCircuitsPath, user.Noir.CircuitsPath),
		ContractsPath:        resolvePath(absRoot, DefaultContractsPath, user.Paths.Sources),
		MainCircuitName:      stringOr(user.Noir.MainCircuitName, DefaultMainCircuitName),
		NargoBin:             stringOr(user.Noir.NargoBin, DefaultNargoBin),
		UseNargo:             boolOr(user.Noir.UseNargo, false),
		AutoCompile:          boolOr(user.Noir.AutoCompile, true),
		AutoGenerateContract: boolOr(user.Noir.AutoGenerateContract, true),
		Publish: PublishConfig{
			Bucket: stringOr(user.Publish.Bucket, ""),
			Prefix: stringOr(user.Publish.Prefix, ""),
			Region: stringOr(user.Publish.Region, ""),
		},
	}
	if cfg.MainCircuitName == "" {
		return Config{}, fmt.Errorf("noir.mainCircuitName must not be empty")
	}
	return cfg, nil
}

// Default is the configuration of a project without any user settings.
func Default(root string) (Config, error) {
	return Resolve(root, UserConfig{})
}

// BuildDir is where compiled artifacts and persisted keys live.
func (c Config) BuildDir() string {
	return filepath.Join(c.CircuitsPath, "build")
}

// SourceDir holds the circuit sources; SourcePattern matches every source file under it.
func (c Config) SourceDir() string {
	return filepath.Join(c.CircuitsPath, "src")
}

// MainSourcePath is the entry point read by the embedded compiler.
func (c Config) MainSourcePath() string {
	return filepath.Join(c.SourceDir(), "main.nr")
}

// ArtifactPath returns the compiled artifact of the named circuit, or of the main circuit
// when name is empty.
func (c Config) ArtifactPath(name string) string {
	return filepath.Join(c.BuildDir(), c.circuitName(name)+ArtifactExt)
}

// KeyPaths returns the persisted proving and verifying key paths of the named circuit.
func (c Config) KeyPaths(name string) (pk, vk string) {
	base := filepath.Join(c.BuildDir(), c.circuitName(name))
	return base + ProvingKeyExt, base + VerifyingKeyExt
}

// ContractPath returns the verifier contract of the named circuit, or of the main circuit when
// name is empty: <contracts>/<PascalCase(name)>Verifier.sol.
func (c Config) ContractPath(name string) string {
	return filepath.Join(c.ContractsPath, strcase.ToCamel(c.circuitName(name))+"Verifier.sol")
}

// NativeContractPath is where the native tool writes the verifier.
func (c Config) NativeContractPath() string {
	return filepath.Join(c.CircuitsPath, filepath.FromSlash(NativeContractFile))
}

func (c Config) circuitName(name string) string {
	if name == "" {
		return c.MainCircuitName
	}
	return name
}

func resolvePath(root, def string, user *string) string {
	if user == nil || *user == "" {
		return filepath.Join(root, def)
	}
	if filepath.IsAbs(*user) {
		return *user
	}
	return filepath.Clean(filepath.Join(root, *user))
}

func stringOr(v *string, def string) string {
	if v == nil {
		return def
	}
	return *v
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
