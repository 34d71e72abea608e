package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"

	EnvDevelopment = "development"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

type AppConfig struct {
	AppName         string        `mapstructure:"name"`
	Environment     string        `mapstructure:"environment"`
	HTTPPort        string        `mapstructure:"http_port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	DBHost          string        `mapstructure:"host"`
	DBPort          string        `mapstructure:"port"`
	DBName          string        `mapstructure:"name"`
	DBUser          string        `mapstructure:"user"`
	DBPassword      string        `mapstructure:"password"`
	DBSSLMode       string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig enables cross-process change notifications when Address is set.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret"`
	SessionCookie string        `mapstructure:"session_cookie"`
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	DevSignIn     bool          `mapstructure:"dev_sign_in"`
}

// SeedConfig fills DemoUser's empty account with demo applications at startup.
type SeedConfig struct {
	DemoUser string `mapstructure:"demo_user"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var errInvalidConfig = errors.New("invalid configuration")

// Load reads .env, an optional config.yaml and the process environment.
// Nested keys map to env vars with "_" (database.postgres.host ->
// DATABASE_POSTGRES_HOST).
func Load() (Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (Config, error) {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	applyDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	normalize(&cfg)

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func applyDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "job-tracker")
	v.SetDefault("app.environment", EnvDevelopment)
	v.SetDefault("app.http_port", "8080")
	v.SetDefault("app.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.driver", DriverMemory)
	v.SetDefault("database.postgres.host", "")
	v.SetDefault("database.postgres.port", "5432")
	v.SetDefault("database.postgres.name", "")
	v.SetDefault("database.postgres.user", "")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.sslmode", "disable")
	v.SetDefault("database.postgres.max_conns", 10)
	v.SetDefault("database.postgres.min_conns", 0)
	v.SetDefault("database.postgres.max_conn_lifetime", time.Hour)
	v.SetDefault("database.postgres.max_conn_idle_time", 30*time.Minute)

	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.session_cookie", "session")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("auth.dev_sign_in", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("seed.demo_user", "")
}

func normalize(cfg *Config) {
	cfg.App.Environment = strings.ToLower(strings.TrimSpace(cfg.App.Environment))
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.Auth.JWTSecret = strings.TrimSpace(cfg.Auth.JWTSecret)
	cfg.Redis.Address = strings.TrimSpace(cfg.Redis.Address)
	cfg.Seed.DemoUser = strings.TrimSpace(cfg.Seed.DemoUser)
}

func validateConfig(cfg Config) error {
	var problems []string

	port, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(cfg.App.HTTPPort), ":"))
	if err != nil || port <= 0 {
		problems = append(problems, "app.http_port must be a positive integer")
	}

	switch cfg.Database.Driver {
	case DriverMemory:
	case DriverPostgres:
		if cfg.Database.Postgres.DBHost == "" {
			problems = append(problems, "database.postgres.host is required")
		}
		if cfg.Database.Postgres.DBName == "" {
			problems = append(problems, "database.postgres.name is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown database.driver %q", cfg.Database.Driver))
	}

	if cfg.Auth.JWTSecret == "" && cfg.App.Environment != EnvDevelopment {
		problems = append(problems, "auth.jwt_secret is required outside development")
	}
	if cfg.Auth.TokenTTL <= 0 {
		problems = append(problems, "auth.token_ttl must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", errInvalidConfig, strings.Join(problems, ", "))
	}
	return nil
}

func (c Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

func loadEnvFile() {
	paths := []string{".env"}
	if root := findProjectRoot(); root != "" {
		paths = append(paths, filepath.Join(root, ".env"))
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			return
		}
	}
}

func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
