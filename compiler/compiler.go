// Package compiler is the embedded compiler for the Noir subset noirkit understands. It
// parses a source file, lowers fn main into a flat opcode program and serializes that
// program as a CBOR artifact that both compile strategies share.
package compiler

import (
	"os"

	"github.com/pkg/errors"
)

// Compile parses and lowers src. filename only appears in error positions.
func Compile(filename string, src []byte) (*Program, error) {
	file, err := parser.ParseBytes(filename, src)
	if err != nil {
		return nil, errors.Wrap(err, "parse error")
	}
	prog, err := lower(file)
	if err != nil {
		return nil, err
	}
	if err := prog.Validate(); err != nil {
		return nil, errors.Wrap(err, "internal compiler error")
	}
	return prog, nil
}

// CompileFile compiles the entry point source at path.
func CompileFile(path string) (*Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	return Compile(path, src)
}
