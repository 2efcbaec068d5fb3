package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stock_trend/internal/app/di"
	"stock_trend/internal/app/router"
	"stock_trend/internal/app/scheduler"
	symbollisthandler "stock_trend/internal/feature/symbollist/transport/handler"
	trendhandler "stock_trend/internal/feature/trend/transport/handler"
	"stock_trend/internal/platform/config"
	"stock_trend/internal/platform/http/handler"
	"stock_trend/internal/platform/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	config.LoadDotEnv()
	cfg, err := config.Load(config.Path())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logCloser, err := logger.Init(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		File:       cfg.Logging.File,
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		MaxAgeDays: cfg.Logging.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logCloser.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close connections", "error", err)
		}
	}()

	// JWT_SECRETチェック（開発中の注意喚起）
	if cfg.Auth.JWTSecret == "" {
		slog.Warn("JWT_SECRET is not set. POST /preload will reject every request.")
	}

	// 定期プリロード
	sched := scheduler.New(app.Trend, app.PreloadSource())
	if err := sched.Register(cfg.Preload.Cron); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()
	if cfg.Preload.OnStart {
		sched.RunAsync()
	}

	// Handler
	checks := map[string]handler.Check{
		"database": func(ctx context.Context) error {
			sqlDB, err := app.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if app.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return app.Redis.Ping(ctx).Err() }
	}

	// ルータ生成
	r := router.NewRouter(
		trendhandler.NewTrendHandler(app.Trend),
		symbollisthandler.NewSymbolHandler(app.Symbols),
		router.Options{
			CORSOrigins:  cfg.Server.CORSOrigins,
			JWTSecret:    cfg.Auth.JWTSecret,
			HealthChecks: checks,
		},
	)

	srv := &http.Server{Addr: cfg.Server.Addr, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
