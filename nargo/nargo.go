// Package nargo runs the native Noir toolchain binary.
package nargo

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/noirkit/noirkit/errdefs"
)

// Runner invokes one nargo binary inside a circuits directory.
type Runner struct {
	Bin string
	Dir string
	// Quiet captures the subprocess output instead of forwarding it; the captured output is
	// attached to the returned error on failure.
	Quiet bool
	Log   zerolog.Logger

	Stdout io.Writer
	Stderr io.Writer
}

// Available reports whether the binary can be executed. Any failure of `--version`,
// including a missing binary, means unavailable.
func (r *Runner) Available(ctx context.Context) bool {
	cmd := exec.CommandContext(ctx, r.Bin, "--version")
	out, err := cmd.CombinedOutput()
	if err != nil {
		r.Log.Debug().Err(err).Str("bin", r.Bin).Msg("nargo probe failed")
		return false
	}
	r.Log.Debug().Str("bin", r.Bin).Str("version", string(bytes.TrimSpace(out))).Msg("nargo found")
	return true
}

// Compile runs `nargo compile <name>`.
func (r *Runner) Compile(ctx context.Context, name string) error {
	return r.run(ctx, "compile", name)
}

// Contract runs `nargo contract`.
func (r *Runner) Contract(ctx context.Context) error {
	return r.run(ctx, "contract")
}

func (r *Runner) run(ctx context.Context, args ...string) error {
	cmd := exec.CommandContext(ctx, r.Bin, args...)
	cmd.Dir = r.Dir

	var captured bytes.Buffer
	if r.Quiet {
		cmd.Stdout = &captured
		cmd.Stderr = &captured
	} else {
		cmd.Stdout = orDefault(r.Stdout, os.Stdout)
		cmd.Stderr = orDefault(r.Stderr, os.Stderr)
	}

	r.Log.Info().Str("dir", r.Dir).Strs("args", args).Msg("running nargo")
	if err := cmd.Run(); err != nil {
		return &errdefs.ExternalToolError{
			Tool:   r.Bin,
			Args:   args,
			Output: captured.String(),
			Err:    err,
		}
	}
	return nil
}

func orDefault(w, def io.Writer) io.Writer {
	if w == nil {
		return def
	}
	return w
}
