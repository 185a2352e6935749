package compiler

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// EntryPoint is the function a circuit is compiled from.
const EntryPoint = "main"

// Error is a compile error anchored at a source position.
type Error struct {
	Pos lexer.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

func errorf(pos lexer.Position, format string, args ...any) *Error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

// rangeBits maps unsigned integer types to their bit width.
var rangeBits = map[string]int{
	"u8":   8,
	"u16":  16,
	"u32":  32,
	"u64":  64,
	"u128": 128,
}

func validType(t string) bool {
	_, ok := rangeBits[t]
	return ok || t == "Field" || t == "bool"
}

type lowerer struct {
	scope map[string]string
	code  []Instruction
	next  int
}

func lower(file *File) (*Program, error) {
	var entry *Function
	for _, fn := range file.Functions {
		if fn.Name != EntryPoint {
			return nil, errorf(fn.Pos, "unsupported function %q: only fn %s is compiled", fn.Name, EntryPoint)
		}
		if entry != nil {
			return nil, errorf(fn.Pos, "duplicate fn %s", EntryPoint)
		}
		entry = fn
	}

	l := &lowerer{scope: make(map[string]string)}
	prog := &Program{Name: EntryPoint}

	for _, p := range entry.Params {
		if !validType(p.Type) {
			return nil, errorf(p.Pos, "unknown type %q", p.Type)
		}
		if _, ok := l.scope[p.Name]; ok {
			return nil, errorf(p.Pos, "duplicate parameter %q", p.Name)
		}
		l.scope[p.Name] = p.Name
		prog.Params = append(prog.Params, Param{Name: p.Name, Public: p.Public, Type: p.Type})
		l.constrainType(p.Name, p.Type)
	}

	for _, stmt := range entry.Body {
		if err := l.statement(stmt); err != nil {
			return nil, err
		}
	}

	prog.Instructions = l.code
	return prog, nil
}

func (l *lowerer) emit(op string, args ...string) {
	l.code = append(l.code, Instruction{Opcode: op, Args: args})
}

func (l *lowerer) temp() string {
	slot := "%" + strconv.Itoa(l.next)
	l.next++
	return slot
}

func (l *lowerer) constrainType(slot, typ string) {
	if typ == "bool" {
		l.emit(OpBool, slot)
	} else if bits, ok := rangeBits[typ]; ok {
		l.emit(OpRange, slot, strconv.Itoa(bits))
	}
}

func (l *lowerer) statement(stmt *Statement) error {
	switch {
	case stmt.Let != nil:
		let := stmt.Let
		if let.Type != "" && !validType(let.Type) {
			return errorf(stmt.Pos, "unknown type %q", let.Type)
		}
		slot, err := l.expr(let.Value)
		if err != nil {
			return err
		}
		l.constrainType(slot, let.Type)
		// Shadowing rebinds the name; earlier uses keep the old slot.
		l.scope[let.Name] = slot
	case stmt.Constrain != nil:
		return l.comparison(stmt.Constrain)
	case stmt.Assert != nil:
		return l.comparison(stmt.Assert)
	}
	return nil
}

func (l *lowerer) comparison(c *Comparison) error {
	left, err := l.expr(c.Left)
	if err != nil {
		return err
	}
	right, err := l.expr(c.Right)
	if err != nil {
		return err
	}
	if c.Op == "==" {
		l.emit(OpAssertEq, left, right)
	} else {
		l.emit(OpAssertNe, left, right)
	}
	return nil
}

func (l *lowerer) expr(e *Expr) (string, error) {
	acc, err := l.term(e.Left)
	if err != nil {
		return "", err
	}
	for _, rest := range e.Rest {
		rhs, err := l.term(rest.Term)
		if err != nil {
			return "", err
		}
		op := OpAdd
		if rest.Op == "-" {
			op = OpSub
		}
		dst := l.temp()
		l.emit(op, dst, acc, rhs)
		acc = dst
	}
	return acc, nil
}

func (l *lowerer) term(t *Term) (string, error) {
	acc, err := l.factor(t.Left)
	if err != nil {
		return "", err
	}
	for _, rest := range t.Rest {
		rhs, err := l.factor(rest.Factor)
		if err != nil {
			return "", err
		}
		op := OpMul
		if rest.Op == "/" {
			op = OpDiv
		}
		dst := l.temp()
		l.emit(op, dst, acc, rhs)
		acc = dst
	}
	return acc, nil
}

func (l *lowerer) factor(f *Factor) (string, error) {
	switch {
	case f.Int != nil:
		v, ok := parseInt(*f.Int)
		if !ok {
			return "", errorf(f.Pos, "invalid integer literal %q", *f.Int)
		}
		dst := l.temp()
		l.emit(OpImm, dst, v.String())
		return dst, nil
	case f.Ident != nil:
		slot, ok := l.scope[*f.Ident]
		if !ok {
			return "", errorf(f.Pos, "undefined variable %q", *f.Ident)
		}
		return slot, nil
	case f.Sub != nil:
		return l.expr(f.Sub)
	case f.Neg != nil:
		src, err := l.factor(f.Neg)
		if err != nil {
			return "", err
		}
		dst := l.temp()
		l.emit(OpNeg, dst, src)
		return dst, nil
	}
	return "", errorf(f.Pos, "empty expression")
}

func parseInt(lit string) (*big.Int, bool) {
	if strings.HasPrefix(lit, "0x") {
		return new(big.Int).SetString(lit[2:], 16)
	}
	return new(big.Int).SetString(lit, 10)
}
