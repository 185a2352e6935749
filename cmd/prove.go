package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/noirkit/noirkit/circuit"
)

func (a *app) proveCmd() *cobra.Command {
	var circuitName, inputPath, outPath string
	cmd := &cobra.Command{
		Use:   "prove",
		Short: "Proves a compiled circuit for the inputs in a JSON file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if inputPath == "" {
				return errors.New("--input is required")
			}
			c, err := a.env.GetCircuit(circuitName)
			if err != nil {
				return err
			}
			input, err := readInput(inputPath)
			if err != nil {
				return err
			}

			proof, err := c.GetProof(cmd.Context(), input)
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(proof, "", "  ")
			if err != nil {
				return errors.Wrap(err, "serializing proof")
			}

			if outPath == "" {
				_, err = fmt.Fprintln(a.stdout, string(data))
				return err
			}
			if err := os.WriteFile(outPath, data, 0o644); err != nil {
				return errors.Wrapf(err, "writing %s", outPath)
			}
			a.log.Info().Str("proof", outPath).Msg("proof written")
			return nil
		},
	}
	cmd.Flags().StringVar(&circuitName, "circuit", "", "circuit name (default: the main circuit)")
	cmd.Flags().StringVar(&inputPath, "input", "", "JSON file of circuit inputs, - for stdin")
	cmd.Flags().StringVar(&outPath, "out", "", "proof output file (default: stdout)")
	return cmd
}

func readInput(path string) (circuit.Input, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}

	var input circuit.Input
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&input); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return input, nil
}
