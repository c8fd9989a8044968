package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/logging"
	"github.com/foodgram/backend/internal/service"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "loaddata",
		Short:        "Load catalog data from CSV files",
		SilenceUsage: true,
	}
	root.AddCommand(
		newLoadCmd("ingredients", "Load ingredients from a name,measurement_unit CSV file", loadIngredients),
		newLoadCmd("tags", "Load tags from a name,color,slug CSV file", loadTags),
	)
	return root
}

type loadFunc func(ctx context.Context, catalog *service.CatalogService, r io.Reader) (int64, error)

func newLoadCmd(use, short string, load loadFunc) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", file, err)
			}
			defer f.Close()

			db, logger, err := connect()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			loaded, err := load(ctx, service.NewCatalogService(db), f)
			if err != nil {
				return err
			}
			logger.Info("catalog loaded", zap.String("kind", use), zap.Int64("inserted", loaded))
			fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d %s\n", loaded, use)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "path to the CSV file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func loadIngredients(ctx context.Context, catalog *service.CatalogService, r io.Reader) (int64, error) {
	rows, err := service.ParseIngredientsCSV(r)
	if err != nil {
		return 0, err
	}
	return catalog.ImportIngredients(ctx, rows)
}

func loadTags(ctx context.Context, catalog *service.CatalogService, r io.Reader) (int64, error) {
	rows, err := service.ParseTagsCSV(r)
	if err != nil {
		return 0, err
	}
	return catalog.ImportTags(ctx, rows)
}

func connect() (*gorm.DB, *zap.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}

	db, err := database.New(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if cfg.AutoMigrate {
		if err := database.RunMigrations(db, cfg.MigrationsDir, logger); err != nil {
			return nil, nil, err
		}
	}
	return db, logger, nil
}
