package circuit

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/pkg/errors"

	"github.com/noirkit/noirkit/compiler"
)

// Keys is the prover/verifier pair of a circuit.
type Keys struct {
	CCS constraint.ConstraintSystem
	PK  groth16.ProvingKey
	VK  groth16.VerifyingKey
}

// compileProgram turns program into an R1CS over BN254.
func compileProgram(program *compiler.Program) (constraint.ConstraintSystem, error) {
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, newGnarkCircuit(program))
	if err != nil {
		return nil, errors.Wrap(err, "compiling constraint system")
	}
	return ccs, nil
}

// SetupKeys compiles program and runs a fresh groth16 setup.
func SetupKeys(program *compiler.Program) (*Keys, error) {
	ccs, err := compileProgram(program)
	if err != nil {
		return nil, err
	}
	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, errors.Wrap(err, "groth16 setup")
	}
	return &Keys{CCS: ccs, PK: pk, VK: vk}, nil
}

// LoadKeys compiles program and reads a previously persisted key pair. The pair is only
// meaningful for the program it was set up with.
func LoadKeys(program *compiler.Program, pkPath, vkPath string) (*Keys, error) {
	ccs, err := compileProgram(program)
	if err != nil {
		return nil, err
	}

	var wg sync.WaitGroup
	var errPK, errVK error
	pk := groth16.NewProvingKey(ecc.BN254)
	vk := groth16.NewVerifyingKey(ecc.BN254)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errPK = readKey(pkPath, pk)
	}()
	go func() {
		defer wg.Done()
		errVK = readKey(vkPath, vk)
	}()
	wg.Wait()

	if errPK != nil {
		return nil, errors.Wrap(errPK, "processing PK")
	}
	if errVK != nil {
		return nil, errors.Wrap(errVK, "processing VK")
	}
	return &Keys{CCS: ccs, PK: pk, VK: vk}, nil
}

func readKey(path string, key io.ReaderFrom) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "opening %s", filepath.Base(path))
	}
	defer f.Close()
	if _, err := key.ReadFrom(bufio.NewReader(f)); err != nil {
		return errors.Wrapf(err, "reading %s", filepath.Base(path))
	}
	return nil
}

// Save writes the key pair to pkPath and vkPath, creating parent directories.
func (k *Keys) Save(pkPath, vkPath string) error {
	if err := writeKey(pkPath, k.PK); err != nil {
		return errors.Wrap(err, "writing PK")
	}
	if err := writeKey(vkPath, k.VK); err != nil {
		return errors.Wrap(err, "writing VK")
	}
	return nil
}

func writeKey(path string, key io.WriterTo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if _, err := key.WriteTo(w); err != nil {
		f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// keysFresh reports whether both persisted keys exist and were set up for the artifact
// whose digest is recorded in sumPath.
func keysFresh(digest, pkPath, vkPath, sumPath string) bool {
	saved, err := os.ReadFile(sumPath)
	if err != nil || strings.TrimSpace(string(saved)) != digest {
		return false
	}
	for _, p := range []string{pkPath, vkPath} {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}
