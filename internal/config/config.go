package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置（serve模式）
	Database DatabaseConfig `mapstructure:"database"` // SQLite配置
	Steam    SteamConfig    `mapstructure:"steam"`    // Steam Web API配置
	Sync     SyncConfig     `mapstructure:"sync"`     // 同步调度配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// DatabaseConfig SQLite数据库配置
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`              // 数据库文件路径
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// SteamConfig Steam Web API配置
type SteamConfig struct {
	AppListURL     string        `mapstructure:"app_list_url"`    // 全量目录接口
	AppDetailURL   string        `mapstructure:"app_detail_url"`  // 条目详情接口（?appids=）
	AchievementURL string        `mapstructure:"achievement_url"` // 全局成就接口（?gameid=）
	Timeout        time.Duration `mapstructure:"timeout"`         // 单请求超时
	RetryBaseWait  time.Duration `mapstructure:"retry_base_wait"` // 重试起始等待（逐次翻倍）
	Proxy          string        `mapstructure:"proxy"`           // 代理地址
}

// SyncConfig 同步调度配置
type SyncConfig struct {
	BatchSize     int           `mapstructure:"batch_size"`      // 每批appid数量
	StalenessDays int           `mapstructure:"staleness_days"`  // 条目过期天数（超过则重拉）
	PaceWindow    time.Duration `mapstructure:"pace_window"`     // 每批最小耗时（限速窗口）
	MaxBatches    int           `mapstructure:"max_batches"`     // 单次运行最大批数（0=不限）
	MaxRunMinutes int           `mapstructure:"max_run_minutes"` // 单次运行最大分钟数（0=不限）
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("STEAMSYNC_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("STEAMSYNC_PROXY"); v != "" {
		cfg.Steam.Proxy = v
	}
}

// applyDefaults 缺省项兜底（yaml未填时保证可运行）
func applyDefaults(cfg *Config) {
	if cfg.Database.Path == "" {
		cfg.Database.Path = "database.db"
	}
	if cfg.Steam.Timeout <= 0 {
		cfg.Steam.Timeout = 10 * time.Second
	}
	if cfg.Steam.RetryBaseWait <= 0 {
		cfg.Steam.RetryBaseWait = time.Second
	}
	if cfg.Sync.BatchSize <= 0 {
		// Steam限速约10 req/10 sec，按10一批配合pace_window
		cfg.Sync.BatchSize = 10
	}
	if cfg.Sync.StalenessDays <= 0 {
		cfg.Sync.StalenessDays = 3
	}
	if cfg.Sync.PaceWindow <= 0 {
		cfg.Sync.PaceWindow = 10 * time.Second
	}
}
