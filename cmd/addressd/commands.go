package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/prior-it/addressd/bootstrap"
	"github.com/prior-it/addressd/config"
	"github.com/prior-it/addressd/core"
	"github.com/prior-it/addressd/postgres"
	"github.com/spf13/cobra"
)

// loaded by the root command before any subcommand runs
var cfg *config.Config

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "addressd",
		Short:         "Address book HTTP service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			cwd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("could not access the current working directory: %w", err)
			}
			cfg, err = config.Load(os.DirFS(cwd))
			if err != nil {
				return fmt.Errorf("could not load the configuration: %w", err)
			}
			bootstrap.CreateLogger(cfg)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd)
		},
	}

	root.AddCommand(
		ServeCmd(),
		MigrateCmd(),
		SeedCmd(),
	)

	return root
}

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd)
		},
	}
}

func serve(cmd *cobra.Command) error {
	s, err := bootstrap.Full(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	return s.Start(cmd.Context(), nil)
}

func MigrateCmd() *cobra.Command {
	var down bool
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Apply all database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := bootstrap.Database(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if down {
				return db.MigrateDown(cmd.Context())
			}
			return db.Migrate(cmd.Context())
		},
	}
	command.Flags().BoolVar(&down, "down", false, "Roll back the most recent migration instead")
	return command
}

func SeedCmd() *cobra.Command {
	var count int
	command := &cobra.Command{
		Use:   "seed",
		Short: "Insert random addresses, useful for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count <= 0 {
				return errors.New("--count must be positive")
			}
			db, err := bootstrap.Database(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := db.Migrate(cmd.Context()); err != nil {
				return err
			}

			service := postgres.NewAddressService(db)
			for range count {
				if _, err := service.CreateAddress(cmd.Context(), randomAddress()); err != nil {
					return fmt.Errorf("could not seed address: %w", err)
				}
			}
			slog.Info("Seeded addresses", "count", count)
			return nil
		},
	}
	command.Flags().IntVarP(&count, "count", "n", 25, "Number of addresses to create") //nolint:mnd
	return command
}

func randomAddress() core.AddressCreateData {
	address := gofakeit.Address()
	return core.AddressCreateData{
		Street: address.Street,
		City:   address.City,
		State:  address.State,
		Zip:    address.Zip,
	}
}
