package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authgate"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Long: `Exchanges email and password for an access/refresh token pair and stores it
in the credential store. The password may also be supplied via AUTHGATE_PASSWORD.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("AUTHGATE_PASSWORD")
			}
			if err := a.open(); err != nil {
				return err
			}

			if err := a.client.Login(cmd.Context(), a.session, email, password); err != nil {
				var apiErr *authgate.APIError
				if errors.As(err, &apiErr) {
					return fmt.Errorf("login failed: %s", apiErr.Message)
				}
				return fmt.Errorf("login failed: %w", err)
			}

			id, _ := a.session.Identity(cmd.Context())
			pterm.Success.Printf("Logged in as %s (%s)\n", id.Email, id.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newAPIKeyCmd(a *app) *cobra.Command {
	parent := &cobra.Command{
		Use:   "apikey",
		Short: "Manage the stored API key",
	}

	parent.AddCommand(&cobra.Command{
		Use:   "set <key>",
		Short: "Verify an API key against the backend and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.client.LoginWithAPIKey(cmd.Context(), a.session, args[0]); err != nil {
				return fmt.Errorf("api key rejected: %w", err)
			}
			pterm.Success.Println("API key verified and stored")
			return nil
		},
	})

	parent.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.session.ClearAPIKey(cmd.Context()); err != nil {
				return fmt.Errorf("failed to clear api key: %w", err)
			}
			pterm.Info.Println("API key removed")
			return nil
		},
	})

	return parent
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove every stored credential for the profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.open(); err != nil {
				return err
			}
			if err := a.client.Logout(cmd.Context(), a.session); err != nil {
				return fmt.Errorf("failed to delete credentials: %w", err)
			}
			pterm.Info.Println("Logged out successfully")
			return nil
		},
	}
}
