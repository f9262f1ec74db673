package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verificapessoa/verificapessoa/config"
	"github.com/verificapessoa/verificapessoa/internal/jobs"
	"github.com/verificapessoa/verificapessoa/internal/lock"
	"github.com/verificapessoa/verificapessoa/internal/logging"
	"github.com/verificapessoa/verificapessoa/internal/metrics"
	"github.com/verificapessoa/verificapessoa/internal/runtime"
	srv "github.com/verificapessoa/verificapessoa/internal/server"
	"github.com/verificapessoa/verificapessoa/internal/store"
)

const shutdownGrace = 15 * time.Second

func serveCMD(cfgPath *string) *cobra.Command {
	var serveAddr string
	var migrate bool
	var localLock bool
	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(*cfgPath)
			if err != nil {
				return err
			}
			if serveAddr != "" {
				cfg.Server.Address = serveAddr
			}
			log, err := logging.NewLogger(cfg.General.Env, cfg.General.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cfg, log, migrate, localLock)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.address)")
	serve.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	serve.Flags().BoolVar(&localLock, "local-lock", false, "use an in-process search lock instead of redis")

	return serve
}

func runServe(ctx context.Context, cfg *config.Config, log *zap.Logger, migrate, localLock bool) error {
	if cfg.Telemetry.MetricsEnabled {
		metrics.Register()
	}
	secret, err := runtime.LoadJWTSecret(cfg)
	if err != nil {
		return err
	}

	dsn := cfg.Storage.Postgres.DSN()
	if migrate {
		if err := store.Migrate(store.DefaultMigrationsDir, dsn, "up", 0); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		log.Info("migrations applied")
	}
	st, err := store.NewWithDSN(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer st.Close()

	var locker lock.Locker
	if localLock {
		locker = lock.NewLocal()
		log.Warn("using in-process search lock; run a single replica")
	} else {
		rdb := redis.NewClient(&redis.Options{
			Addr:        cfg.Storage.Redis.Addr(),
			Password:    cfg.Storage.Redis.Password,
			DB:          cfg.Storage.Redis.DB,
			DialTimeout: cfg.Storage.Redis.Timeout,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		locker = lock.NewRedis(rdb)
	}

	svc, err := buildPipeline(cfg, log)
	if err != nil {
		return err
	}

	if cfg.Jobs.Enabled {
		janitor, err := jobs.NewJanitor(st, locker, jobs.JanitorOptions{
			Schedule:   cfg.Jobs.ExpirePendingCron,
			PendingTTL: cfg.Jobs.PendingTTL,
			Logger:     log.Named("janitor"),
		})
		if err != nil {
			return err
		}
		janitor.Start(ctx)
		defer janitor.Stop()
	}

	e := srv.New(srv.Deps{
		Config:   cfg,
		Store:    st,
		Searcher: svc,
		Locker:   locker,
		Secret:   secret,
		Logger:   log.Named("http"),
	})
	return srv.Run(ctx, e, cfg.Server.Address, shutdownGrace, log)
}
