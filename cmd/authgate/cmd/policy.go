package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authgate/policy"
)

func newPolicyCmd() *cobra.Command {
	var file string

	load := func() (*policy.RoutePolicy, error) {
		if file == "" {
			return policy.DefaultRoutePolicy(), nil
		}
		return policy.LoadFile(file)
	}

	parent := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the edge route policy",
	}
	parent.PersistentFlags().StringVarP(&file, "file", "f", "", "Policy YAML file (default built-in rules)")

	parent.AddCommand(&cobra.Command{
		Use:   "check <role> <path>",
		Short: "Report whether role may reach path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load()
			if err != nil {
				return err
			}
			role, path := policy.Role(args[0]), args[1]

			need, gated := p.Required(path)
			if p.Allows(path, role) {
				if gated {
					pterm.Success.Printf("%s may access %s (requires %s)\n", role, path, need)
				} else {
					pterm.Success.Printf("%s may access %s (no role gate)\n", role, path)
				}
				return nil
			}
			return fmt.Errorf("%s may not access %s (requires %s)", role, path, need)
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "List the role ladder and route rules",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load()
			if err != nil {
				return err
			}
			pterm.DefaultSection.Println("Roles")
			for _, r := range p.Ladder().Roles() {
				pterm.Printf("  %d  %s\n", p.Ladder().Rank(r), r)
			}
			pterm.DefaultSection.Println("Routes")
			rows := pterm.TableData{{"PREFIX", "MIN ROLE"}}
			for _, rule := range p.Rules() {
				rows = append(rows, []string{rule.Prefix, string(rule.MinRole)})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
		},
	})

	return parent
}
