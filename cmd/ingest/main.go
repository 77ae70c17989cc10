// cmd/ingest/main.go
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/javajoker/digital-storefront/internal/config"
	"github.com/javajoker/digital-storefront/internal/database"
	"github.com/javajoker/digital-storefront/internal/ingest"
)

var (
	ingestRoot    string
	ingestPrice   int64
	ingestMigrate bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Register audio files under the protected media root as catalog products",
		Long: `Scan the products/ and samples/ folders under the protected media root for
.mp3 files. Each file becomes an active product (keyed by its slug) with one
downloadable asset. Running it again refreshes hashes and sizes without
creating duplicates.

Examples:
  ingest
  ingest --root /srv/media --price 499
  ingest --migrate`,
		Args: cobra.NoArgs,
		RunE: runIngest,
	}

	rootCmd.Flags().StringVar(&ingestRoot, "root", "", "protected media root (defaults to PROTECTED_MEDIA_ROOT)")
	rootCmd.Flags().Int64Var(&ingestPrice, "price", ingest.DefaultPricePennies, "price in minor units for newly created products")
	rootCmd.Flags().BoolVar(&ingestMigrate, "migrate", false, "run database migrations before ingesting")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	root := ingestRoot
	if root == "" {
		root = cfg.Storage.ProtectedRoot
	}
	opts := ingest.Options{}
	if cmd.Flags().Changed("price") {
		if ingestPrice < 0 {
			return fmt.Errorf("price must not be negative")
		}
		opts.PricePennies = &ingestPrice
	}

	db, err := database.Initialize(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer database.Close(db)

	if ingestMigrate {
		if err := database.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	count, err := ingest.Run(ctx, db, root, opts)
	if err != nil {
		return err
	}

	logrus.WithFields(logrus.Fields{"root": root, "count": count}).Info("Ingest complete")
	fmt.Fprintf(cmd.OutOrStdout(), "Ingested %d files.\n", count)
	return nil
}
