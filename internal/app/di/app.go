package di

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	symbolusecase "stock_trend/internal/feature/symbollist/usecase"
	trendadapters "stock_trend/internal/feature/trend/adapters"
	"stock_trend/internal/feature/trend/usecase"
	"stock_trend/internal/platform/config"
	"stock_trend/internal/platform/db"
	platformredis "stock_trend/internal/platform/redis"
)

// App holds the long-lived components shared by the server and the CLI.
type App struct {
	Config  *config.Config
	DB      *gorm.DB
	Redis   *redis.Client // nil when Redis is not configured or unreachable
	Trend   *usecase.TrendService
	Symbols *symbolusecase.SymbolUsecase
}

// NewApp opens the database, runs migrations when enabled, connects to Redis
// when configured and builds the services.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	gdb, err := db.Open(cfg.Database)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, DB: gdb}

	// SQLite はローカル用途のため常にマイグレーションする
	if cfg.Database.Migrate || cfg.Database.Driver == db.DriverSQLite {
		if err := app.Migrate(); err != nil {
			_ = app.Close()
			return nil, err
		}
	}

	if cfg.Redis.Addr != "" {
		rdb, err := platformredis.NewRedisClient(ctx, platformredis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			slog.Warn("Redis unavailable. Running without cache.", "error", err)
		} else {
			app.Redis = rdb
		}
	}

	app.Trend, err = NewTrendService(cfg, gdb, app.Redis)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.Symbols = NewSymbolUsecase(gdb)
	return app, nil
}

// Migrate creates or updates the tables of the trend store.
func (a *App) Migrate() error {
	if err := db.Migrate(a.DB, trendadapters.Models()...); err != nil {
		return err
	}
	slog.Info("database migrated")
	return nil
}

// PreloadSource returns the symbols a scheduled preload should cover.
func (a *App) PreloadSource() symbolusecase.SymbolSource {
	return NewPreloadSource(a.Config)
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}
