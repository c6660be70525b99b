package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/MrEthical07/authgate"
	"github.com/MrEthical07/authgate/session"
)

// options holds the persistent flags shared by every subcommand.
type options struct {
	serverURL string
	profile   string
	stateDir  string
	envFiles  []string
	verbose   bool
}

// app is the lazily built client and the profile session it operates on.
type app struct {
	opts    *options
	client  *authgate.Client
	session *authgate.Session
}

// open builds the client on first use: env files, AUTHGATE_* overlay, then
// flags, with sessions persisted as files under the state dir.
func (a *app) open() error {
	if a.client != nil {
		return nil
	}

	if err := authgate.LoadEnvFiles(a.opts.envFiles...); err != nil {
		return err
	}
	cfg, err := authgate.ConfigFromEnv(authgate.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}
	if a.opts.serverURL != "" {
		cfg.Backend.BaseURL = a.opts.serverURL
	}

	dir := a.opts.stateDir
	if dir == "" {
		if dir, err = session.DefaultFileDir(); err != nil {
			return err
		}
	}
	surface, err := session.NewFileSurface(dir)
	if err != nil {
		return fmt.Errorf("failed to create credential store: %w", err)
	}

	level := slog.LevelWarn
	if a.opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	client, err := authgate.New().
		WithConfig(cfg).
		WithSurface(surface).
		WithLogger(logger).
		WithNavigator(authgate.NavigatorFunc(func(context.Context, string) {
			pterm.Warning.Println("Session expired. Run `authgate login` to sign in again.")
		})).
		Build()
	if err != nil {
		return err
	}

	a.client = client
	a.session = client.NewSession(a.opts.profile)
	return nil
}

func (a *app) close() {
	if a.client != nil {
		a.client.Close()
	}
}

// NewRootCmd returns the authgate command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}
	a := &app{opts: opts}

	root := &cobra.Command{
		Use:   "authgate",
		Short: "authgate CLI - session client for the dashboard backend",
		Long: `authgate signs in to the dashboard backend, keeps the resulting session in a
local credential store and sends authenticated requests with transparent
token refresh.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if strings.ContainsAny(opts.profile, `/\`) || opts.profile == "" {
				return fmt.Errorf("invalid profile %q", opts.profile)
			}
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			a.close()
		},
	}

	root.PersistentFlags().StringVar(&opts.serverURL, "server", "", "Backend base URL (overrides AUTHGATE_BACKEND_URL)")
	root.PersistentFlags().StringVar(&opts.profile, "profile", "default", "Credential profile name")
	root.PersistentFlags().StringVar(&opts.stateDir, "state-dir", "", "Credential store directory (default ~/.authgate)")
	root.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "Env files to load before reading AUTHGATE_* (default .env)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log client activity to stderr")

	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newAPIKeyCmd(a))
	root.AddCommand(newStatusCmd(a))
	root.AddCommand(newLogoutCmd(a))
	root.AddCommand(newGetCmd(a))
	root.AddCommand(newPolicyCmd())
	root.AddCommand(newConfigCmd(a))

	return root
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
