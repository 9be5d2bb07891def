package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vaxsource/immunize-cli/internal/config"
	"github.com/vaxsource/immunize-cli/internal/fetcher"
	"github.com/vaxsource/immunize-cli/internal/portal"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "immunize-cli",
	Short: "School immunization dataset pipeline",
	Long:  "Sources school immunization-rate datasets from the state open-data portal into Postgres and caches per-geography summary statistics.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openPool creates a pgxpool.Pool from cfg.Store.DatabaseURL.
func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	dsn := cfg.Store.DatabaseURL
	if dsn == "" {
		return nil, eris.New("no database_url configured (set store.database_url or IMMUNIZE_STORE_DATABASE_URL)")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, eris.Wrap(err, "create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "ping database")
	}

	return pool, nil
}

// newPortalClient builds the portal client from configuration.
func newPortalClient() *portal.Client {
	header := map[string]string{}
	if cfg.Portal.AppToken != "" {
		header["X-App-Token"] = cfg.Portal.AppToken
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.Portal.UserAgent,
		Header:       header,
		Timeout:      time.Duration(cfg.Portal.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Portal.MaxRetries,
		RateLimiters: fetcher.DefaultRateLimiters(),
	})
	return portal.NewClient(cfg.Portal, f)
}
