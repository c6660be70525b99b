package cmd

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authgate"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Display authentication status",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			ctx := cmd.Context()

			cred := a.session.Credential(ctx)
			if cred == nil {
				return fmt.Errorf("not logged in")
			}

			pterm.DefaultSection.Println("Authentication Status")
			rows := pterm.TableData{
				{"Profile", a.session.ID()},
				{"Backend", a.client.Config().Backend.BaseURL},
				{"Credential", authgate.KindOf(cred).String()},
			}
			if id, ok := a.session.Identity(ctx); ok {
				rows = append(rows,
					[]string{"User", id.ID},
					[]string{"Email", id.Email},
					[]string{"Role", string(id.Role)},
				)
			}
			return pterm.DefaultTable.WithData(rows).Render()
		},
	}
}
