package compiler

import "fmt"

// Opcodes of the intermediate representation. Args[0] is always the destination slot for
// value-producing opcodes.
const (
	OpImm      = "ImmV"      // dst, literal
	OpAdd      = "AddV"      // dst, a, b
	OpSub      = "SubV"      // dst, a, b
	OpMul      = "MulV"      // dst, a, b
	OpDiv      = "DivV"      // dst, a, b
	OpNeg      = "NegV"      // dst, a
	OpAssertEq = "AssertEqV" // a, b
	OpAssertNe = "AssertNeV" // a, b
	OpBool     = "BoolV"     // a
	OpRange    = "RangeV"    // a, bits
)

// Param is one entry of the circuit ABI. Parameters occupy slots named after themselves.
type Param struct {
	Name   string `cbor:"name" json:"name"`
	Public bool   `cbor:"public" json:"public"`
	Type   string `cbor:"type" json:"type"`
}

type Instruction struct {
	Opcode string   `cbor:"opcode" json:"opcode"`
	Args   []string `cbor:"args" json:"args"`
}

// Program is a compiled circuit: its ABI and the flat opcode list over named slots.
type Program struct {
	Name         string        `cbor:"name" json:"name"`
	Params       []Param       `cbor:"params" json:"params"`
	Instructions []Instruction `cbor:"instructions" json:"instructions"`
}

// PublicParams returns the public parameters in declaration order.
func (p *Program) PublicParams() []Param {
	return p.filterParams(true)
}

// SecretParams returns the private parameters in declaration order.
func (p *Program) SecretParams() []Param {
	return p.filterParams(false)
}

func (p *Program) filterParams(public bool) []Param {
	var out []Param
	for _, param := range p.Params {
		if param.Public == public {
			out = append(out, param)
		}
	}
	return out
}

// Validate checks that every instruction only reads slots defined before it.
func (p *Program) Validate() error {
	defined := make(map[string]bool, len(p.Params))
	for _, param := range p.Params {
		if defined[param.Name] {
			return fmt.Errorf("duplicate parameter %q", param.Name)
		}
		defined[param.Name] = true
	}

	for i, ins := range p.Instructions {
		reads, writes, err := operands(ins)
		if err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		for _, r := range reads {
			if !defined[r] {
				return fmt.Errorf("instruction %d (%s): undefined slot %q", i, ins.Opcode, r)
			}
		}
		if writes != "" {
			defined[writes] = true
		}
	}
	return nil
}

func operands(ins Instruction) (reads []string, writes string, err error) {
	want := map[string]int{
		OpImm: 2, OpAdd: 3, OpSub: 3, OpMul: 3, OpDiv: 3, OpNeg: 2,
		OpAssertEq: 2, OpAssertNe: 2, OpBool: 1, OpRange: 2,
	}
	n, ok := want[ins.Opcode]
	if !ok {
		return nil, "", fmt.Errorf("unknown opcode %q", ins.Opcode)
	}
	if len(ins.Args) != n {
		return nil, "", fmt.Errorf("%s takes %d args, got %d", ins.Opcode, n, len(ins.Args))
	}

	switch ins.Opcode {
	case OpImm:
		return nil, ins.Args[0], nil
	case OpAdd, OpSub, OpMul, OpDiv, OpNeg:
		return ins.Args[1:], ins.Args[0], nil
	case OpRange:
		return ins.Args[:1], "", nil
	default:
		return ins.Args, "", nil
	}
}
