// Package config 服務設定: YAML 檔 -> .env -> 環境變數 (BANK_ 開頭) -> 預設值
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-rpg-bank/pkg/mysql"
	"github.com/JoeShih716/go-rpg-bank/pkg/otel"
)

// StoreDriver 帳戶儲存實作
type StoreDriver string

const (
	// StoreMemory 記憶體 + WAL
	StoreMemory StoreDriver = "memory"
	// StoreMySQL MySQL (gorm)
	StoreMySQL StoreDriver = "mysql"
)

// Config 服務設定
type Config struct {
	ServiceName string `yaml:"service_name" env:"BANK_SERVICE_NAME"`

	HTTP  HTTPConfig  `yaml:"http"`
	GRPC  GRPCConfig  `yaml:"grpc"`
	Store StoreConfig `yaml:"store"`

	MySQL   mysql.Config `yaml:"mysql"`
	Tracing otel.Config  `yaml:"tracing" envPrefix:"BANK_OTEL_"`

	// MaxAttempts 變更餘額遇到並發衝突時最多嘗試次數
	MaxAttempts int `yaml:"max_attempts" env:"BANK_MAX_ATTEMPTS"`
	// ShutdownTimeout 關閉時等待進行中請求的時間
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"BANK_SHUTDOWN_TIMEOUT"`
}

// HTTPConfig REST / GraphQL 伺服器
type HTTPConfig struct {
	Addr      string `yaml:"addr" env:"BANK_HTTP_ADDR"`
	AccessLog bool   `yaml:"access_log" env:"BANK_HTTP_ACCESS_LOG"`
	GraphQL   *bool  `yaml:"graphql" env:"BANK_HTTP_GRAPHQL"`
}

// GRPCConfig gRPC 伺服器
type GRPCConfig struct {
	Addr      string `yaml:"addr" env:"BANK_GRPC_ADDR"`
	AccessLog bool   `yaml:"access_log" env:"BANK_GRPC_ACCESS_LOG"`
}

// StoreConfig 儲存設定
type StoreConfig struct {
	Driver StoreDriver `yaml:"driver" env:"BANK_STORE_DRIVER"`
	// WALPath memory 模式的 WAL 檔案，空字串代表不落地
	WALPath string `yaml:"wal_path" env:"BANK_STORE_WAL_PATH"`
	// LoanWALPath memory 模式個人貸款的 WAL 檔案，空字串代表不落地
	LoanWALPath string `yaml:"loan_wal_path" env:"BANK_STORE_LOAN_WAL_PATH"`
	// AutoMigrate mysql 模式啟動時是否自動建立 / 更新資料表
	AutoMigrate bool `yaml:"auto_migrate" env:"BANK_STORE_AUTO_MIGRATE"`
}

// Load 載入設定
//
// 參數:
//
//	path: YAML 設定檔路徑，檔案不存在時只使用環境變數與預設值
//
// 回傳:
//
//	Config: 設定
//	error: 檔案格式錯誤、環境變數格式錯誤或設定值不合法
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}

	// .env 不存在時 (例如正式環境) 直接使用系統環境變數
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyDefaults 補全未設定的欄位
func (c *Config) ApplyDefaults() {
	if c.ServiceName == "" {
		c.ServiceName = "rpg-bank"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8080"
	}
	if c.HTTP.GraphQL == nil {
		enabled := true
		c.HTTP.GraphQL = &enabled
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":50051"
	}
	if c.Store.Driver == "" {
		c.Store.Driver = StoreMemory
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = 3
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
	if c.Store.Driver == StoreMySQL {
		c.MySQL.ApplyDefaults()
	}
}

// Validate 檢查設定值
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case StoreMemory:
	case StoreMySQL:
		if c.MySQL.Host == "" || c.MySQL.DBName == "" {
			return errors.New("mysql store requires mysql.host and mysql.db_name")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("max_attempts must be positive, got %d", c.MaxAttempts)
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		return fmt.Errorf("tracing.sample_ratio must be within [0, 1], got %v", c.Tracing.SampleRatio)
	}
	return nil
}

// GraphQLEnabled 是否掛載 /graphql
func (c *Config) GraphQLEnabled() bool {
	return c.HTTP.GraphQL == nil || *c.HTTP.GraphQL
}
