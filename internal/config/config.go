package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Redis     RedisConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Tracker   TrackerConfig   `mapstructure:"tracker"`
	Engine    EngineConfig    `mapstructure:"engine"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"` // 强制执行数据库迁移
	MigrateOnly  bool `mapstructure:"-"` // 仅迁移模式（迁移后退出）
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

// TrackerConfig 进度跟踪器的写合并与重试参数
type TrackerConfig struct {
	DebounceMs   int  `mapstructure:"debounce_ms"`
	MaxRetries   int  `mapstructure:"max_retries"`
	RetryDelayMs int  `mapstructure:"retry_delay_ms"`
	AutoSave     bool `mapstructure:"auto_save"`
}

func (c TrackerConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

func (c TrackerConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMs) * time.Millisecond
}

// EngineConfig 推荐引擎阈值，均为可调参数而非固定常量
type EngineConfig struct {
	StuckDelta              int     `mapstructure:"stuck_delta"`
	HighMomentumHours       int     `mapstructure:"high_momentum_hours"`
	MediumMomentumDays      int     `mapstructure:"medium_momentum_days"`
	LowCompletion           int     `mapstructure:"low_completion"`
	CriticalPhaseCompletion int     `mapstructure:"critical_phase_completion"`
	TechnicalLagPhase       int     `mapstructure:"technical_lag_phase"`
	TechnicalLagOverall     int     `mapstructure:"technical_lag_overall"`
	FinancialLagPhase       int     `mapstructure:"financial_lag_phase"`
	FinancialLagOverall     int     `mapstructure:"financial_lag_overall"`
	InactivityDays          int     `mapstructure:"inactivity_days"`
	StuckStepHours          int     `mapstructure:"stuck_step_hours"`
	LowCompletionRate       float64 `mapstructure:"low_completion_rate"`
	LowBudgetThreshold      float64 `mapstructure:"low_budget_threshold"`
	MitigationPriority      int     `mapstructure:"mitigation_priority"`
}

func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")

	viper.SetDefault("database.charset", "utf8mb4")
	viper.SetDefault("database.parsetime", true)

	viper.SetDefault("tracker.debounce_ms", 500)
	viper.SetDefault("tracker.max_retries", 3)
	viper.SetDefault("tracker.retry_delay_ms", 1000)
	viper.SetDefault("tracker.auto_save", true)

	viper.SetDefault("engine.stuck_delta", 25)
	viper.SetDefault("engine.high_momentum_hours", 48)
	viper.SetDefault("engine.medium_momentum_days", 7)
	viper.SetDefault("engine.low_completion", 30)
	viper.SetDefault("engine.critical_phase_completion", 50)
	viper.SetDefault("engine.technical_lag_phase", 40)
	viper.SetDefault("engine.technical_lag_overall", 60)
	viper.SetDefault("engine.financial_lag_phase", 30)
	viper.SetDefault("engine.financial_lag_overall", 50)
	viper.SetDefault("engine.inactivity_days", 30)
	viper.SetDefault("engine.stuck_step_hours", 72)
	viper.SetDefault("engine.low_completion_rate", 0.3)
	viper.SetDefault("engine.low_budget_threshold", 10000)
	viper.SetDefault("engine.mitigation_priority", 2)
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("LAUNCHPAD")
	viper.AutomaticEnv()

	setDefaults()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}
