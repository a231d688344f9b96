package main

import (
	"fmt"
	"os"

	"github.com/fjod/thread-storefront/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "storefront",
		Short:         "Thread resale storefront backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newSeedCmd(), newQuoteCmd())
	return root
}

// loadConfig reads .env and the environment, then applies the flags that
// were set explicitly on the command line.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("driver") {
		cfg.StoreDriver, _ = flags.GetString("driver")
	}
	if flags.Changed("http-port") {
		cfg.HTTPPort, _ = flags.GetString("http-port")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	return cfg, cfg.Validate()
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("driver", config.DriverSQLite, "document store: memory, sqlite, postgres or mongo")
	cmd.Flags().String("log-level", "info", "log level, or dev for human readable output")
}
