// Package circuit loads compiled circuit artifacts and proves and verifies them with gnark
// groth16 over BN254.
package circuit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/consensys/gnark/backend/groth16"
	"github.com/pkg/errors"

	"github.com/noirkit/noirkit/compiler"
	"github.com/noirkit/noirkit/config"
)

// ErrUnsatisfied is returned when an input does not satisfy the circuit constraints.
var ErrUnsatisfied = errors.New("input does not satisfy the circuit")

// Circuit is a loaded artifact. Its key pair is derived on first use and then shared by all
// callers.
type Circuit struct {
	path    string
	program *compiler.Program
	digest  string

	pkPath  string
	vkPath  string
	sumPath string

	once    sync.Once
	keys    *Keys
	keysErr error
}

// Load decodes the artifact at path. The key pair persisted next to it (same base name,
// .pk and .vk) is reused when its recorded digest (.sum) matches the artifact.
func Load(path string) (*Circuit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading artifact %s", path)
	}
	program, err := compiler.DecodeArtifact(data)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %s", path)
	}
	sum := sha256.Sum256(data)
	base := strings.TrimSuffix(path, config.ArtifactExt)
	return &Circuit{
		path:    path,
		program: program,
		digest:  hex.EncodeToString(sum[:]),
		pkPath:  base + config.ProvingKeyExt,
		vkPath:  base + config.VerifyingKeyExt,
		sumPath: base + config.KeyDigestExt,
	}, nil
}

// Path is the artifact the circuit was loaded from.
func (c *Circuit) Path() string { return c.path }

// Program returns the compiled intermediate representation.
func (c *Circuit) Program() *compiler.Program { return c.program }

// Keys returns the memoized key pair. The persisted pair is loaded when it belongs to this
// artifact; otherwise a fresh setup runs and is persisted, so every later prover, verifier
// and exported contract of the same artifact agree.
func (c *Circuit) Keys() (*Keys, error) {
	c.once.Do(func() {
		if keysFresh(c.digest, c.pkPath, c.vkPath, c.sumPath) {
			c.keys, c.keysErr = LoadKeys(c.program, c.pkPath, c.vkPath)
			if c.keysErr == nil {
				return
			}
		}
		c.keys, c.keysErr = SetupKeys(c.program)
		if c.keysErr != nil {
			return
		}
		if err := c.saveKeys(c.keys); err != nil {
			c.keys, c.keysErr = nil, errors.Wrap(err, "persisting keys")
		}
	})
	return c.keys, c.keysErr
}

// saveKeys writes the pair, then the digest that marks it as belonging to this artifact.
func (c *Circuit) saveKeys(keys *Keys) error {
	if err := os.Remove(c.sumPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := keys.Save(c.pkPath, c.vkPath); err != nil {
		return err
	}
	return os.WriteFile(c.sumPath, []byte(c.digest+"\n"), 0o644)
}

// ExportSolidity writes the Solidity verifier of the circuit's verifying key.
func (c *Circuit) ExportSolidity(w io.Writer) error {
	keys, err := c.Keys()
	if err != nil {
		return err
	}
	if err := keys.VK.ExportSolidity(w); err != nil {
		return errors.Wrap(err, "exporting solidity verifier")
	}
	return nil
}

// GetProof proves input. An input that does not satisfy the constraints yields an error
// wrapping ErrUnsatisfied.
func (c *Circuit) GetProof(ctx context.Context, input Input) (*Proof, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	keys, err := c.Keys()
	if err != nil {
		return nil, err
	}

	w, err := NewWitness(c.program, input)
	if err != nil {
		return nil, err
	}
	if err := keys.CCS.IsSolved(w); err != nil {
		return nil, errors.Wrap(ErrUnsatisfied, err.Error())
	}

	proof, err := groth16.Prove(keys.CCS, keys.PK, w)
	if err != nil {
		return nil, errors.Wrap(err, "generating proof")
	}
	public, err := w.Public()
	if err != nil {
		return nil, errors.Wrap(err, "extracting public witness")
	}
	return &Proof{proof: proof, public: public}, nil
}

// VerifyProof checks proof against the circuit's verifying key. A proof that does not verify
// is reported as false, not as an error.
func (c *Circuit) VerifyProof(ctx context.Context, proof *Proof) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if proof == nil || proof.proof == nil || proof.public == nil {
		return false, errors.New("empty proof")
	}
	keys, err := c.Keys()
	if err != nil {
		return false, err
	}
	if err := groth16.Verify(proof.proof, keys.VK, proof.public); err != nil {
		return false, nil
	}
	return true, nil
}

// VerifyProofFor proves input and verifies the result. Unsatisfiable input is reported as
// false.
func (c *Circuit) VerifyProofFor(ctx context.Context, input Input) (bool, error) {
	proof, err := c.GetProof(ctx, input)
	if errors.Is(err, ErrUnsatisfied) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return c.VerifyProof(ctx, proof)
}
