package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/agentgate/internal/sanitize"
)

var specsCmd = &cobra.Command{
	Use:   "specs",
	Short: "Inspect agent specification documents",
}

func init() {
	specsCmd.AddCommand(specsListCmd)
	specsCmd.AddCommand(specsShowCmd)
}

var specsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available agent specs",
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}
		for _, name := range loader.Names() {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var specsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show one parsed agent spec",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader, err := newLoader()
		if err != nil {
			return err
		}
		// Operators paste names as they see them; normalize to the
		// on-disk form before the lookup.
		name := sanitize.Name(args[0])
		spec, err := loader.Load(name)
		if err != nil {
			return err
		}
		if spec == nil {
			return fmt.Errorf("no spec named %q", args[0])
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{
			"name":        spec.Name,
			"role":        spec.Role,
			"goals":       spec.Goals,
			"inputs":      spec.Inputs,
			"outputs":     spec.Outputs,
			"guardrails":  spec.Guardrails,
			"procedure":   spec.Procedure,
			"examples":    len(spec.Examples),
			"failureTags": spec.FailureTags,
		})
	},
}
