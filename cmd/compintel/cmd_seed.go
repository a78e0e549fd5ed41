package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smallnest/compintel/config"
	"github.com/smallnest/compintel/model"
	"github.com/smallnest/compintel/warehouse"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the warehouse schema and seed the reference tables",
	Long: `Seed creates the warehouse tables if they don't exist, then upserts
the scoring catalog into dim_attribute and the known provenance
channels into dim_source. Safe to run repeatedly.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	logger, closeLogger, err := newLogger()
	if err != nil {
		return err
	}
	defer closeLogger()

	cfg, err := config.Load(rootFlags.configPath)
	if err != nil {
		return err
	}

	connString := cfg.Warehouse.ConnString()
	if connString == "" {
		return fmt.Errorf("%s is not set", cfg.Warehouse.ConnStringEnv)
	}

	writer, err := warehouse.NewWriter(cmd.Context(), warehouse.Options{
		ConnString: connString,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer writer.Close()

	ctx := cmd.Context()
	if err := writer.InitSchema(ctx); err != nil {
		return err
	}
	if err := writer.SeedCatalog(ctx, model.DefaultCatalog()); err != nil {
		return err
	}
	if err := writer.SeedSources(ctx, warehouse.DefaultSourceSeeds()); err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "warehouse schema and reference tables are up to date")
	return nil
}
