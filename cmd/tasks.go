package cmd

import (
	"github.com/spf13/cobra"

	"github.com/noirkit/noirkit/plugin"
	"github.com/noirkit/noirkit/task"
)

// taskCmd exposes a registered task. Only flags given on the command line reach the task,
// so an omitted --use-native-tool leaves the configured strategy in place.
func (a *app) taskCmd(def task.Definition) *cobra.Command {
	cmd := &cobra.Command{
		Use:     def.Name,
		Aliases: def.Aliases,
		Short:   def.Description,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.registry.Run(cmd.Context(), def.Name, changedFlags(cmd, def.Flags))
		},
	}
	for _, f := range def.Flags {
		cmd.Flags().Bool(f.Name, false, f.Usage)
	}
	return cmd
}

// compileCmd runs the whole compilation sequence.
func (a *app) compileCmd() *cobra.Command {
	flags := []task.Flag{
		{Name: plugin.FlagQuiet, Usage: "suppress informational output"},
		{Name: plugin.FlagForce, Usage: "rebuild even when outputs are up to date"},
		{Name: plugin.FlagUseNativeTool, Usage: "compile with the nargo binary"},
	}
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Runs every compilation task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.registry.RunCompilation(cmd.Context(), changedFlags(cmd, flags))
		},
	}
	for _, f := range flags {
		cmd.Flags().Bool(f.Name, false, f.Usage)
	}
	return cmd
}

func changedFlags(cmd *cobra.Command, flags []task.Flag) task.Args {
	args := task.Args{}
	for _, f := range flags {
		if !cmd.Flags().Changed(f.Name) {
			continue
		}
		v, err := cmd.Flags().GetBool(f.Name)
		if err == nil {
			args[f.Name] = v
		}
	}
	return args
}
