package compiler

import (
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

const (
	ArtifactFormat  = "noirkit-acir"
	ArtifactVersion = 1
)

// Artifact is the on-disk envelope of a compiled program. Both compile strategies produce it.
type Artifact struct {
	Format  string  `cbor:"format"`
	Version int     `cbor:"version"`
	Name    string  `cbor:"name"`
	Program Program `cbor:"program"`
}

var encMode = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// EncodeArtifact serializes the program into the artifact format.
func EncodeArtifact(p *Program) ([]byte, error) {
	data, err := encMode.Marshal(Artifact{
		Format:  ArtifactFormat,
		Version: ArtifactVersion,
		Name:    p.Name,
		Program: *p,
	})
	if err != nil {
		return nil, errors.Wrap(err, "encoding artifact")
	}
	return data, nil
}

// DecodeArtifact parses and validates an artifact.
func DecodeArtifact(data []byte) (*Program, error) {
	var a Artifact
	if err := cbor.Unmarshal(data, &a); err != nil {
		return nil, errors.Wrap(err, "decoding artifact")
	}
	if a.Format != ArtifactFormat {
		return nil, errors.Errorf("unexpected artifact format %q", a.Format)
	}
	if a.Version != ArtifactVersion {
		return nil, errors.Errorf("unsupported artifact version %d", a.Version)
	}
	if err := a.Program.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid program")
	}
	return &a.Program, nil
}

// WriteArtifact encodes p to path, creating the parent directory.
func WriteArtifact(path string, p *Program) error {
	data, err := EncodeArtifact(p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating build directory")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing artifact %s", path)
	}
	return nil
}

// ReadArtifact reads and decodes the artifact at path.
func ReadArtifact(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading artifact %s", path)
	}
	return DecodeArtifact(data)
}
