package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fjod/thread-storefront/domain"
	"github.com/fjod/thread-storefront/internal/catalog"
	"github.com/fjod/thread-storefront/internal/repository"
	"github.com/fjod/thread-storefront/internal/service"
	"github.com/fjod/thread-storefront/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the product catalog into an empty store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log, err := logger.New("storefront-seed", cfg.LogLevel)
			if err != nil {
				return err
			}
			defer log.Sync()

			products, err := loadProducts(file)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			store, err := openStore(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()

			catalogSvc := service.NewCatalogService(store, repository.NewNamespace(cfg.AppID), log)
			n, err := catalogSvc.SeedIfEmpty(ctx, products)
			if err != nil {
				return err
			}
			if n == 0 {
				log.Info("catalog already populated, nothing seeded")
			} else {
				log.Info("catalog seeded", zap.Int("products", n))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %d products\n", n)
			return nil
		},
	}
	addStoreFlags(cmd)
	cmd.Flags().StringVar(&file, "file", "", "catalog YAML file (defaults to the built-in catalog)")
	return cmd
}

func loadProducts(file string) ([]domain.Product, error) {
	if file == "" {
		return catalog.Seed()
	}
	return catalog.LoadFile(file)
}
