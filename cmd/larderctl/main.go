// Command larderctl runs maintenance tasks against a Larder data directory: seeding
// fixtures, rebuilding the search index and wiping all records. Stop the server first;
// both store backends hold an exclusive lock on the data directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/larderapp/larder-server/internal/auth"
	"github.com/larderapp/larder-server/internal/config"
	"github.com/larderapp/larder-server/internal/di/providers"
	"github.com/larderapp/larder-server/internal/logger"
	"github.com/larderapp/larder-server/internal/search"
	"github.com/larderapp/larder-server/internal/service"
	"github.com/larderapp/larder-server/internal/store"
)

var (
	dataPath     string
	storeBackend string
	envFile      string
	logLevel     string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "larderctl",
		Short:         "Maintenance tool for a Larder data directory",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&dataPath, "data-path", "", "Base path for persistent data (default: $DATA_PATH or ~/Larder/data)")
	root.PersistentFlags().StringVar(&storeBackend, "store-backend", "", "Store backend (badger, sqlite)")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to .env file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	root.AddCommand(newSeedCmd(), newReindexCmd(), newWipeCmd())
	return root
}

// configArgs forwards the persistent flags to config.Load so the usual precedence of
// flags over environment over .env still applies.
func configArgs(cmd *cobra.Command) []string {
	args := []string{"-env-file=" + envFile}
	if cmd.Flags().Changed("data-path") {
		args = append(args, "-data-path="+dataPath)
	}
	if cmd.Flags().Changed("store-backend") {
		args = append(args, "-store-backend="+storeBackend)
	}
	if cmd.Flags().Changed("log-level") {
		args = append(args, "-log-level="+logLevel)
	}
	return args
}

// runtime is the subset of the server's object graph the commands need. It is built
// without the DI container because no HTTP server is started.
type runtime struct {
	cfg   *config.Config
	log   *logger.Logger
	store store.Store
	index *search.Index

	auth        *service.AuthService
	ingredients *service.IngredientService
	pantry      *service.PantryService
	recipes     *service.RecipeService
	mealPlan    *service.MealPlanService
}

func openRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := config.Load(configArgs(cmd))
	if err != nil {
		return nil, err
	}

	log := logger.New(logger.Config{
		Writer:      cmd.ErrOrStderr(),
		Format:      "pretty",
		Level:       logger.ParseLevel(cfg.Logger.Level),
		Environment: cfg.App.Environment,
	})

	st, path, err := providers.OpenStore(cfg, log.Logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Debug("store opened", "backend", cfg.Storage.Backend, "path", path)

	index, err := search.Open(search.Options{DataPath: cfg.Storage.DataPath, Logger: log.Logger})
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open search index: %w", err)
	}

	key, err := auth.LoadOrGenerateKey(cfg.Storage.DataPath)
	if err != nil {
		_ = index.Close()
		_ = st.Close()
		return nil, err
	}
	tokens, err := auth.NewTokenService(key, cfg.Auth.AccessTokenDuration)
	if err != nil {
		_ = index.Close()
		_ = st.Close()
		return nil, err
	}

	return &runtime{
		cfg:         cfg,
		log:         log,
		store:       st,
		index:       index,
		auth:        service.NewAuthService(st, tokens, log.Logger),
		ingredients: service.NewIngredientService(st, log.Logger),
		pantry:      service.NewPantryService(st, nil, log.Logger),
		recipes:     service.NewRecipeService(st, index, nil, log.Logger),
		mealPlan:    service.NewMealPlanService(st, log.Logger),
	}, nil
}

func (r *runtime) Close() error {
	return errors.Join(r.index.Close(), r.store.Close())
}

func newReindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the recipe search index from the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			n, err := rt.recipes.Reindex(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Indexed %d recipes\n", n)
			return nil
		},
	}
}

func newWipeCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every record and empty the search index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to wipe without --yes")
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.store.Wipe(cmd.Context()); err != nil {
				return fmt.Errorf("wipe store: %w", err)
			}
			if err := rt.index.Rebuild(); err != nil {
				return fmt.Errorf("reset search index: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wiped %s\n", rt.cfg.Storage.DataPath)
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deleting all data")
	return cmd
}
