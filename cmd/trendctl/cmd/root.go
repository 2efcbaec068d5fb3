// Package cmd - trendctl CLI commands
package cmd

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"stock_trend/internal/app/di"
	"stock_trend/internal/platform/config"
	"stock_trend/internal/platform/logger"
)

var (
	// 共通フラグ
	cfgFile  string
	envFile  string
	logLevel string

	cfg       *config.Config
	logCloser io.Closer
)

// rootCmd ルートコマンド
var rootCmd = &cobra.Command{
	Use:   "trendctl",
	Short: "Stock trend service - CLI",
	Long: `Stock trend service - CLI

Usage:
    go run ./cmd/trendctl [command]

Commands:
    preload     ingest a list of tickers
    trend       print the latest trend of a ticker
    migrate     create or update database tables
    token       mint a bearer token for POST /preload
`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			return logCloser.Close()
		}
		return nil
	},
}

// Execute ルートコマンドを実行します
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $CONFIG_PATH or configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level")

	rootCmd.AddCommand(preloadCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
}

// initConfig は .env・設定ファイル・環境変数を読み込み、ロガーを初期化します
func initConfig() error {
	config.LoadDotEnv(envFile)

	path := cfgFile
	if path == "" {
		path = config.Path()
	}
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}

	logCloser, err = logger.Init(logger.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		File:       c.Logging.File,
		MaxSizeMB:  c.Logging.MaxSizeMB,
		MaxBackups: c.Logging.MaxBackups,
		MaxAgeDays: c.Logging.MaxAgeDays,
	})
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// openApp は設定を検証してDB・サービスを初期化します
func openApp(ctx context.Context) (*di.App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return di.NewApp(ctx, cfg)
}
