// Package db はデータベース接続の設定・確立・マイグレーションを提供します。
package db

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	gmysql "gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// 対応するドライバー名
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

const (
	retryInterval         = 3 * time.Second
	defaultConnectTimeout = 60 * time.Second
	slowQueryThreshold    = 200 * time.Millisecond
)

// Config はデータベース接続の設定です。
type Config struct {
	Driver       string        `yaml:"driver"` // mysql | postgres | sqlite（空の場合は mysql）
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	Name         string        `yaml:"name"`
	Host         string        `yaml:"host"`
	Port         string        `yaml:"port"`
	InstanceName string        `yaml:"instance_connection_name"` // Cloud SQL のインスタンス接続名
	Path         string        `yaml:"path"`                     // SQLite のファイルパス
	SSLMode      string        `yaml:"sslmode"`
	Timeout      time.Duration `yaml:"connect_timeout"`
	Migrate      bool          `yaml:"run_migrations"`
}

// Opener は DSN から gorm の接続を開きます。
type Opener func(dsn string) (*gorm.DB, error)

// LoadConfigFromEnv は環境変数からデータベース設定を読み込みます。
func LoadConfigFromEnv() Config {
	cfg := Config{
		Driver:       os.Getenv("DB_DRIVER"),
		User:         os.Getenv("DB_USER"),
		Password:     os.Getenv("DB_PASSWORD"),
		Name:         os.Getenv("DB_NAME"),
		Host:         os.Getenv("DB_HOST"),
		Port:         os.Getenv("DB_PORT"),
		InstanceName: os.Getenv("INSTANCE_CONNECTION_NAME"),
		Path:         os.Getenv("DB_PATH"),
		SSLMode:      os.Getenv("DB_SSLMODE"),
		Migrate:      os.Getenv("RUN_MIGRATIONS") == "true",
	}
	if v := os.Getenv("DB_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg
}

// Override は other の空でない項目で cfg を上書きした設定を返します。
func (cfg Config) Override(other Config) Config {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Driver, other.Driver)
	set(&cfg.User, other.User)
	set(&cfg.Password, other.Password)
	set(&cfg.Name, other.Name)
	set(&cfg.Host, other.Host)
	set(&cfg.Port, other.Port)
	set(&cfg.InstanceName, other.InstanceName)
	set(&cfg.Path, other.Path)
	set(&cfg.SSLMode, other.SSLMode)
	if other.Timeout > 0 {
		cfg.Timeout = other.Timeout
	}
	cfg.Migrate = cfg.Migrate || other.Migrate
	return cfg
}

// BuildDSN はドライバーに応じた接続文字列を生成します。
// MySQL で InstanceName が設定されている場合は Cloud SQL の Unix ソケット接続を優先します。
func BuildDSN(cfg Config) string {
	switch strings.ToLower(cfg.Driver) {
	case DriverPostgres:
		sslmode := cfg.SSLMode
		if sslmode == "" {
			sslmode = "disable"
		}
		host := cfg.Host
		if cfg.InstanceName != "" {
			host = "/cloudsql/" + cfg.InstanceName
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s sslmode=%s", host, cfg.User, cfg.Password, cfg.Name, sslmode)
		if cfg.Port != "" && cfg.InstanceName == "" {
			dsn += " port=" + cfg.Port
		}
		return dsn
	case DriverSQLite:
		if cfg.Path == "" {
			return "file::memory:?cache=shared"
		}
		return cfg.Path
	default:
		if cfg.InstanceName != "" {
			return fmt.Sprintf("%s:%s@unix(/cloudsql/%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
				cfg.User, cfg.Password, cfg.InstanceName, cfg.Name)
		}
		return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Name)
	}
}

// newLogger は gorm のログを slog の既定ハンドラーへ WARN レベルで流します。
// 未登録の銘柄の検索は通常の経路なので record not found は出力しません。
func newLogger() gormlogger.Interface {
	return gormlogger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             slowQueryThreshold,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
}

// OpenerFor はドライバー名に対応する Opener を返します。
// 一意制約違反を gorm.ErrDuplicatedKey に変換するため TranslateError を有効にします。
func OpenerFor(driver string) Opener {
	gcfg := &gorm.Config{TranslateError: true, Logger: newLogger()}
	switch strings.ToLower(driver) {
	case DriverPostgres:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(postgres.Open(dsn), gcfg) }
	case DriverSQLite:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(sqlite.Open(dsn), gcfg) }
	default:
		return func(dsn string) (*gorm.DB, error) { return gorm.Open(gmysql.Open(dsn), gcfg) }
	}
}

// ConnectWithRetry は timeout に達するまで一定間隔で接続を再試行します。
func ConnectWithRetry(dsn string, timeout time.Duration, opener Opener) (*gorm.DB, error) {
	deadline := time.Now().Add(timeout)
	for {
		db, err := opener(dsn)
		if err == nil {
			return db, nil
		}
		if time.Now().Add(retryInterval).After(deadline) {
			return nil, fmt.Errorf("db connect failed after %s: %w", timeout, err)
		}
		slog.Warn("DB connect failed, retrying", "error", err, "interval", retryInterval)
		time.Sleep(retryInterval)
	}
}

// Open は設定に従って接続を確立します。
func Open(cfg Config) (*gorm.DB, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	if strings.ToLower(cfg.Driver) == DriverSQLite && cfg.Path != "" {
		// SQLite はファイルの親ディレクトリを作成しない
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := ConnectWithRetry(BuildDSN(cfg), timeout, OpenerFor(cfg.Driver))
	if err != nil {
		return nil, err
	}
	driver := cfg.Driver
	if driver == "" {
		driver = DriverMySQL
	}
	slog.Info("database connected", "driver", driver)
	return db, nil
}

// Migrate は与えられたモデルのテーブルを作成・更新します。
func Migrate(db *gorm.DB, models ...any) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// IsDuplicateKey は err が一意制約違反かどうかを判定します。
// TranslateError 済みのエラーに加え、各ドライバー固有のエラーも判定します。
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *gomysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) &&
		(liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return true
	}
	return false
}
