package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authgate"
)

func newConfigCmd(a *app) *cobra.Command {
	var strict bool

	parent := &cobra.Command{
		Use:   "config",
		Short: "Inspect the effective client configuration",
	}

	lint := &cobra.Command{
		Use:   "lint",
		Short: "Report settings that weaken the session boundary",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			cfg := a.client.Config()
			result := cfg.Lint()
			if len(result) == 0 {
				pterm.Success.Println("No findings")
				return nil
			}
			rows := pterm.TableData{{"SEVERITY", "CODE", "MESSAGE"}}
			for _, w := range result {
				rows = append(rows, []string{w.Severity.String(), w.Code, w.Message})
			}
			if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
				return err
			}
			if strict {
				if err := result.AsError(authgate.LintWarn); err != nil {
					return fmt.Errorf("lint failed: %w", err)
				}
			}
			return nil
		},
	}
	lint.Flags().BoolVar(&strict, "strict", false, "Exit non-zero on WARN or HIGH findings")

	parent.AddCommand(lint)
	return parent
}
