package circuit

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strings"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	"github.com/pkg/errors"

	"github.com/noirkit/noirkit/compiler"
)

// Input maps parameter names to values. Values may be integers, decimal or 0x-prefixed hex
// strings, json.Number, integral float64 (as produced by encoding/json), booleans or *big.Int.
type Input map[string]any

// fieldElement reduces v into the BN254 scalar field.
func fieldElement(v any) (*big.Int, error) {
	var out *big.Int
	switch x := v.(type) {
	case *big.Int:
		out = new(big.Int).Set(x)
	case big.Int:
		out = new(big.Int).Set(&x)
	case int:
		out = big.NewInt(int64(x))
	case int64:
		out = big.NewInt(x)
	case uint64:
		out = new(big.Int).SetUint64(x)
	case bool:
		out = big.NewInt(0)
		if x {
			out.SetInt64(1)
		}
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("non-integral value %v", x)
		}
		out, _ = new(big.Float).SetFloat64(x).Int(nil)
	case json.Number:
		return fieldElement(string(x))
	case string:
		s := strings.TrimSpace(x)
		neg := strings.HasPrefix(s, "-")
		s = strings.TrimPrefix(s, "-")
		var ok bool
		if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
			out, ok = new(big.Int).SetString(s[2:], 16)
		} else {
			out, ok = new(big.Int).SetString(s, 10)
		}
		if !ok {
			return nil, fmt.Errorf("invalid number %q", x)
		}
		if neg {
			out.Neg(out)
		}
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
	return out.Mod(out, ecc.BN254.ScalarField()), nil
}

// assignment builds a fully assigned circuit from input, rejecting missing and unknown names.
func assignment(program *compiler.Program, input Input) (*gnarkCircuit, error) {
	known := make(map[string]bool, len(program.Params))
	c := &gnarkCircuit{program: program}
	for _, p := range program.Params {
		known[p.Name] = true
		raw, ok := input[p.Name]
		if !ok {
			return nil, errors.Errorf("missing input %q", p.Name)
		}
		v, err := fieldElement(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "input %q", p.Name)
		}
		if p.Public {
			c.Public = append(c.Public, frontend.Variable(v))
		} else {
			c.Secret = append(c.Secret, frontend.Variable(v))
		}
	}

	var unknown []string
	for name := range input {
		if !known[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, errors.Errorf("unknown inputs %s", strings.Join(unknown, ", "))
	}
	return c, nil
}

// NewWitness returns the full witness of program for input.
func NewWitness(program *compiler.Program, input Input) (witness.Witness, error) {
	c, err := assignment(program, input)
	if err != nil {
		return nil, err
	}
	w, err := frontend.NewWitness(c, ecc.BN254.ScalarField())
	if err != nil {
		return nil, errors.Wrap(err, "building witness")
	}
	return w, nil
}
