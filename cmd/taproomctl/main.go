// Command taproomctl runs menu maintenance against the configured store
// without going through the HTTP API.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"taproom-services/internal/app"
	"taproom-services/internal/catalog"
	"taproom-services/internal/config"
	"taproom-services/internal/logger"
	"taproom-services/internal/menu"
	"taproom-services/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type menuAPI interface {
	Reconcile(ctx context.Context) (menu.Outcome, error)
	Latest(ctx context.Context) (store.MenuRecord, error)
	Categories(ctx context.Context) (catalog.ExpectedCategories, error)
	SetCategories(ctx context.Context, expected catalog.ExpectedCategories) error
}

var (
	timeout time.Duration
	verbose bool

	// openMenu is replaced in tests.
	openMenu = openMenuService
)

var rootCmd = &cobra.Command{
	Use:           "taproomctl",
	Short:         "Menu maintenance for taproom services",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 2*time.Minute, "Operation timeout")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log service output to stderr")

	categoriesCmd.AddCommand(categoriesShowCmd, categoriesImportCmd)
	rootCmd.AddCommand(syncCmd, menuCmd, categoriesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func openMenuService(ctx context.Context) (menuAPI, func(), error) {
	_ = godotenv.Load()
	cfg := config.Load()

	log := zap.NewNop()
	if verbose {
		l, err := logger.New(cfg.Env)
		if err != nil {
			return nil, nil, err
		}
		log = l
	}

	backend, err := app.OpenStores(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	svc := app.MenuService(cfg, backend.Stores, app.SquareClient(cfg), nil, log)
	closeFn := func() {
		backend.Close()
		_ = log.Sync()
	}
	return svc, closeFn, nil
}

// withMenu opens the service for one command run.
func withMenu(cmd *cobra.Command, fn func(ctx context.Context, svc menuAPI) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	svc, closeFn, err := openMenu(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	return fn(ctx, svc)
}
