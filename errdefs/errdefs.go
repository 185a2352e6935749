// Package errdefs holds the error types surfaced by noirkit operations.
package errdefs

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ExternalToolError reports a failed call into a delegated tool: a nargo subprocess that
// exited non-zero, or the embedded compiler / prover returning an error.
type ExternalToolError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ExternalToolError) Error() string {
	var b strings.Builder
	b.WriteString(e.Tool)
	if len(e.Args) > 0 {
		b.WriteString(" ")
		b.WriteString(strings.Join(e.Args, " "))
	}
	b.WriteString(" failed")
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString("\n")
		b.WriteString(out)
	}
	return b.String()
}

func (e *ExternalToolError) Unwrap() error { return e.Err }

// NotFoundError reports a missing build artifact.
type NotFoundError struct {
	Path string
	Hint string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("circuit not found at %s", e.Path)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// IsNotFound reports whether err, or anything it wraps, is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsExternalTool reports whether err, or anything it wraps, is an ExternalToolError.
func IsExternalTool(err error) bool {
	var et *ExternalToolError
	return errors.As(err, &et)
}
