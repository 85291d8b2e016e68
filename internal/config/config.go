package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Auth      AuthConfig
	Content   ContentConfig
	Session   SessionConfig
	Storage   StorageConfig
	Log       LogConfig
	Tracing   TracingConfig   `mapstructure:"tracing"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	SeedOnly bool `mapstructure:"-"`
}

type ServerConfig struct {
	Port string
	Mode string
}

// StoreConfig selects the key/value backend holding users, questions and attempts.
type StoreConfig struct {
	Driver   string `mapstructure:"driver"` // sqlite | mysql | postgres | redis | memory
	DSN      string `mapstructure:"dsn"`
	Host     string
	Port     int
	User     string
	Password string
	DBName   string `mapstructure:"dbname"`
	Charset  string
	Table    string `mapstructure:"table"`
}

type RedisConfig struct {
	Host      string
	Port      int
	Password  string
	DB        int
	KeyPrefix string `mapstructure:"key_prefix"`
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type AuthConfig struct {
	VerifyPassword bool   `mapstructure:"verify_password"`
	TrialDays      int    `mapstructure:"trial_days"`
	PlanPrice      string `mapstructure:"plan_price"`
	PlanCurrency   string `mapstructure:"plan_currency"`
	// 注册时使用这些邮箱的账号获得管理员角色
	AdminEmails []string `mapstructure:"admin_emails"`
}

type ContentConfig struct {
	ExamsPerSubject     int    `mapstructure:"exams_per_subject"`
	ExamDurationMinutes int    `mapstructure:"exam_duration_minutes"`
	ExamTotalPoints     int    `mapstructure:"exam_total_points"`
	MaxExamQuestions    int    `mapstructure:"max_exam_questions"`
	SeedFile            string `mapstructure:"seed_file"`
}

type SessionConfig struct {
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
	OSSEndpoint   string `mapstructure:"oss_endpoint"`
	OSSAccessKey  string `mapstructure:"oss_access_key"`
	OSSSecretKey  string `mapstructure:"oss_secret_key"`
	OSSBucket     string `mapstructure:"oss_bucket"`
}

type LogConfig struct {
	Path string `mapstructure:"path"`
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

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")

	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.dsn", "exam_portal.db")
	v.SetDefault("store.charset", "utf8mb4")
	v.SetDefault("store.table", "kv_entries")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.key_prefix", "exam_portal:")

	v.SetDefault("jwt.secret", "change-me")
	v.SetDefault("jwt.expire_hours", 72)

	v.SetDefault("auth.verify_password", false)
	v.SetDefault("auth.trial_days", 2)
	v.SetDefault("auth.plan_price", "99")
	v.SetDefault("auth.plan_currency", "USD")

	v.SetDefault("content.exams_per_subject", 20)
	v.SetDefault("content.exam_duration_minutes", 90)
	v.SetDefault("content.exam_total_points", 500)
	v.SetDefault("content.max_exam_questions", 50)

	v.SetDefault("session.tick_interval", time.Second)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", "uploads")

	v.SetDefault("log.path", "logs/app.log")

	v.SetDefault("rate_limit.max_requests", 1000)
	v.SetDefault("rate_limit.window_minutes", 1)
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// defaults alone always decode
	_ = v.Unmarshal(&cfg)
	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	return &cfg
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.SetEnvPrefix("EXAM_PORTAL")
	v.AutomaticEnv()

	// Store
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.dsn", "STORE_DSN")
	v.BindEnv("store.host", "DATABASE_HOST")
	v.BindEnv("store.port", "DATABASE_PORT")
	v.BindEnv("store.user", "DATABASE_USER")
	v.BindEnv("store.password", "DATABASE_PASSWORD")
	v.BindEnv("store.dbname", "DATABASE_NAME")

	// JWT
	v.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	v.BindEnv("server.mode", "SERVER_MODE")
	v.BindEnv("server.port", "PORT")

	// Storage
	v.BindEnv("storage.type", "STORAGE_TYPE")
	v.BindEnv("storage.oss_endpoint", "OSS_ENDPOINT")
	v.BindEnv("storage.oss_access_key", "OSS_ACCESS_KEY")
	v.BindEnv("storage.oss_secret_key", "OSS_SECRET_KEY")
	v.BindEnv("storage.oss_bucket", "OSS_BUCKET")
	v.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	v.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	v.BindEnv("tracing.enabled", "TRACING_ENABLED")
	v.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	// 生产环境校验 JWT Secret 强度
	if c.Server.Mode == "release" && len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(c.JWT.Secret))
	}
	if c.Auth.TrialDays <= 0 {
		return fmt.Errorf("auth.trial_days must be positive, got %d", c.Auth.TrialDays)
	}
	if _, err := decimal.NewFromString(c.Auth.PlanPrice); err != nil {
		return fmt.Errorf("auth.plan_price is not a valid amount: %q", c.Auth.PlanPrice)
	}
	if c.Content.ExamDurationMinutes <= 0 {
		return fmt.Errorf("content.exam_duration_minutes must be positive, got %d", c.Content.ExamDurationMinutes)
	}
	if c.Content.MaxExamQuestions <= 0 {
		return fmt.Errorf("content.max_exam_questions must be positive, got %d", c.Content.MaxExamQuestions)
	}
	if c.Session.TickInterval <= 0 {
		return fmt.Errorf("session.tick_interval must be positive")
	}
	switch c.Store.Driver {
	case "sqlite", "mysql", "postgres", "redis", "memory":
	default:
		return fmt.Errorf("unsupported store driver: %s", c.Store.Driver)
	}
	return nil
}
