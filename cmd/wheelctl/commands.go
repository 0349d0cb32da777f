package main

import (
	"fmt"
	"os"
	"strconv"

	coreport "github.com/amirhossein-jamali/prize-wheel/internal/domain/port/core"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/filestore"
	timeProvider "github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/adapter/time"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/bootstrap"
	"github.com/amirhossein-jamali/prize-wheel/internal/infrastructure/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// cli carries what every subcommand shares: configuration, the opened store and the use cases
type cli struct {
	fs         afero.Fs
	loadConfig func() (*config.Config, error)
	logger     coreport.Logger

	cfg      *config.Config
	store    *bootstrap.Store
	services *bootstrap.Services
}

func newRootCmd(app *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "wheelctl",
		Short:         "Operate the prize wheel store",
		Long:          "wheelctl adds redemption codes, grants spins and moves the store in and out of its JSON document form. It reads the same configuration as the server.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return app.open(cmd)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if app.store == nil {
				return nil
			}
			return app.store.Close()
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "add-code <code> <amount>",
		Short: "Register a single-use redemption code",
		Args:  cobra.ExactArgs(2),
		RunE:  app.runAddCode,
	})
	root.AddCommand(&cobra.Command{
		Use:   "grant <token> <amount>",
		Short: "Credit spins to a user",
		Args:  cobra.ExactArgs(2),
		RunE:  app.runGrant,
	})
	root.AddCommand(&cobra.Command{
		Use:   "balance <token>",
		Short: "Print a user's balance",
		Args:  cobra.ExactArgs(1),
		RunE:  app.runBalance,
	})
	root.AddCommand(&cobra.Command{
		Use:   "export <file>",
		Short: "Write the whole store as a JSON document",
		Args:  cobra.ExactArgs(1),
		RunE:  app.runExport,
	})
	root.AddCommand(&cobra.Command{
		Use:   "import <file>",
		Short: "Merge a JSON document into the store",
		Long:  "Balances in the document overwrite the store's, codes missing from the store are added, and the spin counter never moves backwards.",
		Args:  cobra.ExactArgs(1),
		RunE:  app.runImport,
	})

	return root
}

func (app *cli) open(cmd *cobra.Command) error {
	cfg, err := app.loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	app.cfg = cfg

	tp := timeProvider.NewRealTimeProvider()
	store, err := bootstrap.OpenStore(cmd.Context(), cfg, app.fs, tp, app.logger)
	if err != nil {
		return err
	}
	app.store = store

	// the CLI never spins, so no prize table is loaded
	services, err := bootstrap.NewServices(store.UnitOfWork, bootstrap.ServiceOptions{
		AdminKey:     cfg.Admin.Key,
		AdminKeyHash: cfg.Admin.KeyHash,
	}, tp, app.logger)
	if err != nil {
		return err
	}
	app.services = services
	return nil
}

func parseAmount(raw string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("amount must be a positive integer, got %q", raw)
	}
	return n, nil
}

func (app *cli) runAddCode(cmd *cobra.Command, args []string) error {
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}

	code, err := app.services.Redemption.CreateCode(cmd.Context(), args[0], amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %s (%d)\n", code.Code, code.Amount)
	return nil
}

func (app *cli) runGrant(cmd *cobra.Command, args []string) error {
	amount, err := parseAmount(args[1])
	if err != nil {
		return err
	}

	balance, err := app.services.Ledger.Credit(cmd.Context(), args[0], amount)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", args[0], balance)
	return nil
}

func (app *cli) runBalance(cmd *cobra.Command, args []string) error {
	balance, err := app.services.Ledger.GetBalance(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d\n", balance)
	return nil
}

func (app *cli) runExport(cmd *cobra.Command, args []string) error {
	doc, err := app.services.Snapshot.Export(cmd.Context())
	if err != nil {
		return err
	}
	if err := filestore.WriteDocument(app.fs, args[0], doc); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "exported %d users, %d codes, counter %d to %s\n",
		len(doc.Users), len(doc.Codes), doc.Spins, args[0])
	return nil
}

func (app *cli) runImport(cmd *cobra.Command, args []string) error {
	exists, err := afero.Exists(app.fs, args[0])
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s: %w", args[0], os.ErrNotExist)
	}

	doc, err := filestore.ReadDocument(app.fs, args[0])
	if err != nil {
		return err
	}

	stats, err := app.services.Snapshot.Import(cmd.Context(), doc)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d users, %d new codes (%d kept), %d spins, counter %d\n",
		stats.Users, stats.CodesAdded, stats.CodesKept, stats.SpinsLoaded, stats.Counter)
	return nil
}
