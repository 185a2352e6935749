package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/noirkit/noirkit/circuit"
)

// ErrInvalidProof makes `noirkit verify` exit non-zero.
var ErrInvalidProof = errors.New("proof is invalid")

func (a *app) verifyCmd() *cobra.Command {
	var circuitName, proofPath string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verifies a proof produced by prove",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if proofPath == "" {
				return errors.New("--proof is required")
			}
			c, err := a.env.GetCircuit(circuitName)
			if err != nil {
				return err
			}
			data, err := os.ReadFile(proofPath)
			if err != nil {
				return errors.Wrapf(err, "reading %s", proofPath)
			}
			var proof circuit.Proof
			if err := json.Unmarshal(data, &proof); err != nil {
				return errors.Wrapf(err, "parsing %s", proofPath)
			}

			ok, err := c.VerifyProof(cmd.Context(), &proof)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInvalidProof
			}
			fmt.Fprintln(a.stdout, "proof is valid")
			return nil
		},
	}
	cmd.Flags().StringVar(&circuitName, "circuit", "", "circuit name (default: the main circuit)")
	cmd.Flags().StringVar(&proofPath, "proof", "", "proof file written by prove")
	return cmd
}
