package circuit

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/backend/witness"
	"github.com/pkg/errors"
)

// Proof is a groth16 proof together with the public witness it was produced for.
type Proof struct {
	proof  groth16.Proof
	public witness.Witness
}

// ProofJSON is the wire representation of a Proof.
type ProofJSON struct {
	Proof         string   `json:"proof"`
	PublicWitness string   `json:"public_witness"`
	PublicInputs  []string `json:"public_inputs"`
	SolidityProof string   `json:"solidity_proof"`
}

// PublicInputs returns the public inputs as decimal strings, in ABI order.
func (p *Proof) PublicInputs() ([]string, error) {
	vec, ok := p.public.Vector().(fr.Vector)
	if !ok {
		return nil, fmt.Errorf("expected fr.Vector, got %T", p.public.Vector())
	}
	out := make([]string, len(vec))
	for i := range vec {
		out[i] = vec[i].String()
	}
	return out, nil
}

// MarshalJSON encodes the proof into ProofJSON.
func (p *Proof) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := p.proof.WriteRawTo(&buf); err != nil {
		return nil, errors.Wrap(err, "serializing proof")
	}
	publicBytes, err := p.public.MarshalBinary()
	if err != nil {
		return nil, errors.Wrap(err, "serializing public witness")
	}
	inputs, err := p.PublicInputs()
	if err != nil {
		return nil, err
	}

	// Cast into groth16_bn254 proof so we can call MarshalSolidity.
	bn254Proof, ok := p.proof.(*groth16_bn254.Proof)
	if !ok {
		return nil, fmt.Errorf("expected bn254 proof, got %T", p.proof)
	}

	return json.Marshal(ProofJSON{
		Proof:         hex.EncodeToString(buf.Bytes()),
		PublicWitness: hex.EncodeToString(publicBytes),
		PublicInputs:  inputs,
		SolidityProof: hex.EncodeToString(bn254Proof.MarshalSolidity()),
	})
}

// UnmarshalJSON decodes a proof from ProofJSON. Only the raw proof and the public witness
// are read; the other fields are derived from them.
func (p *Proof) UnmarshalJSON(data []byte) error {
	var wire ProofJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	proofBytes, err := hex.DecodeString(wire.Proof)
	if err != nil {
		return errors.Wrap(err, "decoding proof hex")
	}
	proof := groth16.NewProof(ecc.BN254)
	if _, err := proof.ReadFrom(bytes.NewReader(proofBytes)); err != nil {
		return errors.Wrap(err, "reading proof")
	}

	publicBytes, err := hex.DecodeString(wire.PublicWitness)
	if err != nil {
		return errors.Wrap(err, "decoding public witness hex")
	}
	public, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return errors.Wrap(err, "allocating witness")
	}
	if err := public.UnmarshalBinary(publicBytes); err != nil {
		return errors.Wrap(err, "reading public witness")
	}

	p.proof = proof
	p.public = public
	return nil
}
