package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up in the root when none is given.
const FileName = "noirkit.yaml"

// Environment overrides, applied after the configuration file.
const (
	EnvCircuitsPath         = "NOIRKIT_CIRCUITS_PATH"
	EnvMainCircuit          = "NOIRKIT_MAIN_CIRCUIT"
	EnvNargoBin             = "NOIRKIT_NARGO_BIN"
	EnvUseNargo             = "NOIRKIT_USE_NARGO"
	EnvAutoCompile          = "NOIRKIT_AUTO_COMPILE"
	EnvAutoGenerateContract = "NOIRKIT_AUTO_GENERATE_CONTRACT"
	EnvPublishBucket        = "NOIRKIT_PUBLISH_BUCKET"
)

// Load reads the project configuration under root. An empty file means <root>/noirkit.yaml,
// which may be absent; an explicit file must exist. Variables from <root>/.env and the
// process environment override the file.
func Load(root, file string) (Config, error) {
	explicit := file != ""
	if !explicit {
		file = filepath.Join(root, FileName)
	}

	var user UserConfig
	data, err := os.ReadFile(file)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &user); err != nil {
			return Config{}, errors.Wrapf(err, "parsing %s", file)
		}
	case os.IsNotExist(err) && !explicit:
	default:
		return Config{}, errors.Wrapf(err, "reading %s", file)
	}

	// godotenv never overwrites variables already set in the process.
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !os.IsNotExist(errors.Cause(err)) {
		return Config{}, errors.Wrap(err, "loading .env")
	}

	if err := applyEnv(&user); err != nil {
		return Config{}, err
	}
	return Resolve(root, user)
}

func applyEnv(user *UserConfig) error {
	if v, ok := os.LookupEnv(EnvCircuitsPath); ok {
		user.Noir.CircuitsPath = &v
	}
	if v, ok := os.LookupEnv(EnvMainCircuit); ok {
		user.Noir.MainCircuitName = &v
	}
	if v, ok := os.LookupEnv(EnvNargoBin); ok {
		user.Noir.NargoBin = &v
	}
	if v, ok := os.LookupEnv(EnvPublishBucket); ok {
		user.Publish.Bucket = &v
	}

	bools := []struct {
		name string
		dst  **bool
	}{
		{EnvUseNargo, &user.Noir.UseNargo},
		{EnvAutoCompile, &user.Noir.AutoCompile},
		{EnvAutoGenerateContract, &user.Noir.AutoGenerateContract},
	}
	for _, b := range bools {
		v, ok := os.LookupEnv(b.name)
		if !ok || v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "invalid %s", b.name)
		}
		*b.dst = &parsed
	}
	return nil
}
