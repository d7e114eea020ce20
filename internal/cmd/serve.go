package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/stockroom-app/server/internal/agent/budget"
	"github.com/stockroom-app/server/internal/api"
	"github.com/stockroom-app/server/internal/config"
	"github.com/stockroom-app/server/internal/inventory"
	logx "github.com/stockroom-app/server/pkg/logger"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}
			logx.Init(logx.LoggerOpts{Environment: cfg.ResolveEnvironment()})

			return serve(ctx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.AppConfig) error {
	if cfg.Postgres.DSN == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	db, err := inventory.OpenPostgres(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxOpenConns)
	if err != nil {
		return err
	}
	defer db.Close()
	logx.Info().Msg("connected to postgres")

	var ledger budget.Ledger = budget.NewMemoryLedger()
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New(ctx)
		if err != nil {
			return fmt.Errorf("init redis: %w", err)
		}
		defer rdb.Close()
		ledger = budget.NewRedisLedger(rdb)
		logx.Info().Msg("connected to redis, spend ledger is shared")
	} else {
		logx.Warn().Msg("REDIS_URL not set, spend ledger is process-local")
	}

	svc, err := newService(ctx, cfg, inventory.NewPostgresStore(db), ledger)
	if err != nil {
		return err
	}

	router := api.NewRouter(api.RouterOptions{
		Asker:          svc,
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AuthUserHeader: cfg.HTTP.AuthUserHeader,
		RequestTimeout: cfg.Assistant.RequestTimeout,
	})
	return api.Serve(ctx, cfg.HTTP.Addr, router)
}
