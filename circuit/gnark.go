package circuit

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/consensys/gnark/frontend"

	"github.com/noirkit/noirkit/compiler"
)

// gnarkCircuit adapts a compiled program to gnark. Public and Secret hold the parameters in
// ABI order, split by visibility; Define replays the opcode list against the frontend API.
type gnarkCircuit struct {
	Public []frontend.Variable `gnark:",public"`
	Secret []frontend.Variable `gnark:",secret"`

	program *compiler.Program
}

// newGnarkCircuit returns a circuit shaped for program with unassigned variables.
func newGnarkCircuit(program *compiler.Program) *gnarkCircuit {
	return &gnarkCircuit{
		Public:  make([]frontend.Variable, len(program.PublicParams())),
		Secret:  make([]frontend.Variable, len(program.SecretParams())),
		program: program,
	}
}

func (c *gnarkCircuit) Define(api frontend.API) error {
	slots := make(map[string]frontend.Variable, len(c.program.Params)+len(c.program.Instructions))

	var pub, sec int
	for _, p := range c.program.Params {
		if p.Public {
			slots[p.Name] = c.Public[pub]
			pub++
		} else {
			slots[p.Name] = c.Secret[sec]
			sec++
		}
	}

	for _, ins := range c.program.Instructions {
		args := ins.Args
		switch ins.Opcode {
		case compiler.OpImm:
			v, ok := new(big.Int).SetString(args[1], 10)
			if !ok {
				return fmt.Errorf("invalid immediate %q", args[1])
			}
			slots[args[0]] = v
		case compiler.OpAdd:
			slots[args[0]] = api.Add(slots[args[1]], slots[args[2]])
		case compiler.OpSub:
			slots[args[0]] = api.Sub(slots[args[1]], slots[args[2]])
		case compiler.OpMul:
			slots[args[0]] = api.Mul(slots[args[1]], slots[args[2]])
		case compiler.OpDiv:
			slots[args[0]] = api.Div(slots[args[1]], slots[args[2]])
		case compiler.OpNeg:
			slots[args[0]] = api.Neg(slots[args[1]])
		case compiler.OpAssertEq:
			api.AssertIsEqual(slots[args[0]], slots[args[1]])
		case compiler.OpAssertNe:
			api.AssertIsDifferent(slots[args[0]], slots[args[1]])
		case compiler.OpBool:
			api.AssertIsBoolean(slots[args[0]])
		case compiler.OpRange:
			bits, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("error converting number of bits to int: %v", err)
			}
			// ToBinary fails to solve when the value does not fit in bits.
			api.ToBinary(slots[args[0]], bits)
		default:
			return fmt.Errorf("unhandled opcode: %s", ins.Opcode)
		}
	}

	return nil
}
