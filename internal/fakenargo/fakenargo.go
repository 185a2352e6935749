// Package fakenargo lets a test binary stand in for the nargo executable. A test package
// calls Intercept from TestMain; when the process was started through Command, it behaves
// like nargo for the subcommands noirkit uses and exits.
//
// The fake writes artifacts with the embedded compiler, so both compile strategies produce
// the same program for the same source.
package fakenargo

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/noirkit/noirkit/compiler"
)

const (
	envActive = "NOIRKIT_FAKE_NARGO"
	// EnvFail makes every subcommand except --version exit 1.
	EnvFail = "NOIRKIT_FAKE_NARGO_FAIL"
	// EnvLog names a file each invocation appends its arguments to.
	EnvLog = "NOIRKIT_FAKE_NARGO_LOG"
)

// Contract is the verifier `contract` writes. Its pragma is the one noirkit rewrites.
const Contract = `// SPDX-License-Identifier: MIT
pragma solidity >=0.6.0 <0.8.0;

contract TurboVerifier {
    function verify(bytes calldata) external pure returns (bool) {
        return true;
    }
}
`

// testingT is the subset of testing.TB Enable needs.
type testingT interface {
	Helper()
	Setenv(key, value string)
	Fatalf(format string, args ...any)
}

// Enable activates the fake for subprocesses of the current test and returns the path to
// use as the nargo binary.
func Enable(t testingT) string {
	t.Helper()
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("locating test binary: %v", err)
	}
	t.Setenv(envActive, "1")
	return exe
}

// Intercept runs the fake and exits when the process is a fake nargo invocation. It returns
// immediately otherwise.
func Intercept() {
	if os.Getenv(envActive) != "1" {
		return
	}
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if path := os.Getenv(EnvLog); path != "" {
		if f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644); err == nil {
			fmt.Fprintln(f, args)
			f.Close()
		}
	}

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: nargo <command>")
		return 2
	}
	if args[0] == "--version" {
		fmt.Println("nargo 0.3.2 (fake)")
		return 0
	}
	if os.Getenv(EnvFail) == "1" {
		fmt.Fprintln(os.Stderr, "error: the application panicked")
		return 1
	}

	switch args[0] {
	case "compile":
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, "usage: nargo compile <name>")
			return 2
		}
		prog, err := compiler.CompileFile(filepath.Join("src", "main.nr"))
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		prog.Name = args[1]
		if err := compiler.WriteArtifact(filepath.Join("build", args[1]+".acir"), prog); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Printf("Constraint system successfully built!\n")
		return 0
	case "contract":
		if err := os.MkdirAll("contract", 0o755); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		if err := os.WriteFile(filepath.Join("contract", "plonk_vk.sol"), []byte(Contract), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		fmt.Println("Contract successfully created and located at contract/plonk_vk.sol")
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n", args[0])
		return 2
	}
}
