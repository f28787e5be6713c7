package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all service configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	S3       S3Config       `yaml:"s3"`
	JWT      JWTConfig      `yaml:"jwt"`
	Logger   LoggerConfig   `yaml:"logger"`
	Jobs     JobsConfig     `yaml:"jobs"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string        `yaml:"port"`
	Mode            string        `yaml:"mode"`
	BasePath        string        `yaml:"base_path"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// GetDSN builds the Postgres DSN from the database configuration
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL      string `yaml:"url"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// S3Config holds S3 (or MinIO) configuration for usage exports
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// JWTConfig holds JWT validation configuration
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level string `yaml:"level"`
}

// JobsConfig holds background job schedules in cron syntax
type JobsConfig struct {
	RecomputeSchedule    string `yaml:"recompute_schedule"`
	UsageSummarySchedule string `yaml:"usage_summary_schedule"`
}

// Load reads configuration from the given YAML file, then applies
// environment variable overrides for deployment-specific values.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            "8000",
			Mode:            "debug",
			BasePath:        "/api/fields",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            "5432",
			User:            "postgres",
			Name:            "field_service",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Logger: LoggerConfig{
			Level: "info",
		},
		Jobs: JobsConfig{
			RecomputeSchedule:    "*/5 * * * *",
			UsageSummarySchedule: "0 * * * *",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	setIfPresent := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setIfPresent(&cfg.Server.Port, "SERVER_PORT")
	setIfPresent(&cfg.Server.Mode, "GIN_MODE")
	setIfPresent(&cfg.Database.Host, "DB_HOST")
	setIfPresent(&cfg.Database.Port, "DB_PORT")
	setIfPresent(&cfg.Database.User, "DB_USER")
	setIfPresent(&cfg.Database.Password, "DB_PASSWORD")
	setIfPresent(&cfg.Database.Name, "DB_NAME")
	setIfPresent(&cfg.Redis.URL, "REDIS_URL")
	setIfPresent(&cfg.Redis.Password, "REDIS_PASSWORD")
	setIfPresent(&cfg.S3.Bucket, "S3_BUCKET")
	setIfPresent(&cfg.S3.Region, "S3_REGION")
	setIfPresent(&cfg.S3.Endpoint, "S3_ENDPOINT")
	setIfPresent(&cfg.S3.AccessKey, "S3_ACCESS_KEY")
	setIfPresent(&cfg.S3.SecretKey, "S3_SECRET_KEY")
	setIfPresent(&cfg.JWT.Secret, "JWT_SECRET")
	setIfPresent(&cfg.Logger.Level, "LOG_LEVEL")
}
