package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Log      LogConfig
	Sentry   SentryConfig
	Tracing  TracingConfig

	// BaseURL 邀请链接前缀（前端地址）
	BaseURL    string
	BcryptCost int
}

type ServerConfig struct {
	Addr          string
	Mode          string // debug, release, test
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	RateLimit     float64 // 每 IP 每秒请求数（仅 /register /login）
	RateBurst     int
	EnableSwagger bool
	EnableGzip    bool

	// TrustedProxies 逗号分隔的 IP/CIDR，空表示不信任任何代理
	TrustedProxies []string
}

type DatabaseConfig struct {
	Driver          string // postgres, sqlite
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

type LogConfig struct {
	Level  string
	Format string // json, console
}

type SentryConfig struct {
	DSN         string
	Environment string
}

type TracingConfig struct {
	Enabled     bool
	Endpoint    string
	ServiceName string
	Insecure    bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_ADDR", ":3000")
	v.SetDefault("SERVER_MODE", "release")
	v.SetDefault("SERVER_READ_TIMEOUT", "10s")
	v.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	v.SetDefault("SERVER_RATE_LIMIT", 5)
	v.SetDefault("SERVER_RATE_BURST", 10)
	v.SetDefault("SERVER_ENABLE_SWAGGER", true)
	v.SetDefault("SERVER_ENABLE_GZIP", true)

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_DATABASE", "invitefeed")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 20)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	v.SetDefault("DB_LOG_LEVEL", "warn")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_TTL", "5m")

	v.SetDefault("JWT_EXPIRY", "1h")
	v.SetDefault("JWT_ISSUER", "invitefeed")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SENTRY_ENVIRONMENT", "development")

	v.SetDefault("TRACING_ENABLED", false)
	v.SetDefault("TRACING_ENDPOINT", "localhost:4318")
	v.SetDefault("TRACING_SERVICE_NAME", "invitefeed")
	v.SetDefault("TRACING_INSECURE", true)

	v.SetDefault("BASE_URL", "http://localhost:3000")
	v.SetDefault("BCRYPT_COST", 10)
}

// Load 读取默认值、环境变量以及可选的 config.yaml
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Addr:           v.GetString("SERVER_ADDR"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetDuration("SERVER_WRITE_TIMEOUT"),
			RateLimit:      v.GetFloat64("SERVER_RATE_LIMIT"),
			RateBurst:      v.GetInt("SERVER_RATE_BURST"),
			EnableSwagger:  v.GetBool("SERVER_ENABLE_SWAGGER"),
			EnableGzip:     v.GetBool("SERVER_ENABLE_GZIP"),
			TrustedProxies: splitList(v.GetString("SERVER_TRUSTED_PROXIES")),
		},
		Database: DatabaseConfig{
			Driver:          v.GetString("DB_DRIVER"),
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
			LogLevel:        v.GetString("DB_LOG_LEVEL"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("REDIS_ENABLED"),
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			TTL:      v.GetDuration("REDIS_TTL"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET_KEY"),
			Expiry: v.GetDuration("JWT_EXPIRY"),
			Issuer: v.GetString("JWT_ISSUER"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Sentry: SentryConfig{
			DSN:         v.GetString("SENTRY_DSN"),
			Environment: v.GetString("SENTRY_ENVIRONMENT"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("TRACING_ENABLED"),
			Endpoint:    v.GetString("TRACING_ENDPOINT"),
			ServiceName: v.GetString("TRACING_SERVICE_NAME"),
			Insecure:    v.GetBool("TRACING_INSECURE"),
		},
		BaseURL:    strings.TrimRight(v.GetString("BASE_URL"), "/"),
		BcryptCost: v.GetInt("BCRYPT_COST"),
	}

	// 兼容 DB_HOST/DB_USER/... 的拆分写法
	if cfg.Database.DSN == "" && cfg.Database.Driver == "postgres" {
		cfg.Database.DSN = fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			v.GetString("DB_HOST"), v.GetInt("DB_PORT"), v.GetString("DB_USER"),
			v.GetString("DB_PASSWORD"), v.GetString("DB_DATABASE"), v.GetString("DB_SSLMODE"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate 校验必填项
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWT.Expiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive, got %s", c.JWT.Expiry)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required for driver %s", c.Database.Driver)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
