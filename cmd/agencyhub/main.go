package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"agencyhub/internal/config"
	"agencyhub/internal/storage"
)

// app holds what every subcommand shares after flags are parsed.
type app struct {
	configPath string
	addr       string
	dbPath     string

	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "agencyhub",
		Short:         "Agency back office: clients, project pipelines and client approvals",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.addr != "" {
				cfg.HTTP.Addr = a.addr
			}
			if a.dbPath != "" {
				cfg.Database.DSN = a.dbPath
			}
			a.cfg = cfg
			a.logger = cfg.Log.Logger(cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file (default ./agencyhub.yaml)")
	root.PersistentFlags().StringVar(&a.addr, "addr", "", "HTTP listen address, overrides http.addr")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "Database DSN or sqlite path, overrides database.dsn")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newUserCmd(a),
		newBoardCmd(a),
		newPolicyCmd(),
	)
	return root
}

func (a *app) openStore() (*storage.Store, error) {
	store, err := storage.Open(a.cfg.Database.Driver, a.cfg.Database.DSN, a.logger)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}
	return store, nil
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			defer store.Close()
			a.logger.Info("schema up to date", slog.String("driver", a.cfg.Database.Driver))
			return nil
		},
	}
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
