package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	HTTPAddr string `yaml:"http_addr"`

	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	RedisDB       int    `yaml:"redis_db"`

	// staged conversation content
	StagingBackend       string        `yaml:"staging_backend"`
	StagingTTL           time.Duration `yaml:"staging_ttl"`
	StagingMaxEntries    int           `yaml:"staging_max_entries"`
	StagingSweepInterval time.Duration `yaml:"staging_sweep_interval"`

	// rabbitMQ (bulk pairing); empty URL disables it
	RabbitURL         string `yaml:"rabbit_url"`
	RabbitQueue       string `yaml:"rabbit_queue"`
	WorkerConcurrency int    `yaml:"worker_concurrency"`

	LogJSON    bool `yaml:"log_json"`
	LogVerbose bool `yaml:"log_verbose"`
}

func defaults() Config {
	// DSN demo：
	// app:apppass@tcp(127.0.0.1:3306)/pairhub?charset=utf8mb4&parseTime=true&loc=Local
	return Config{
		DBDriver: "mysql",
		DBDSN: fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=Local",
			"app", "apppass", "127.0.0.1", "3306", "pairhub",
		),
		HTTPAddr: ":8080",

		RedisAddr: "127.0.0.1:6379",

		StagingBackend:       "memory",
		StagingTTL:           time.Hour,
		StagingMaxEntries:    10000,
		StagingSweepInterval: time.Minute,

		RabbitQueue:       "pair_jobs",
		WorkerConcurrency: 2,
	}
}

// Load returns the defaults overridden by environment variables.
func Load() Config {
	cfg := defaults()
	applyEnv(&cfg)
	return cfg
}

// LoadFile reads a YAML file over the defaults; environment variables still win.
func LoadFile(path string) (Config, error) {
	cfg := defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	str(&cfg.DBDriver, "DB_DRIVER")
	str(&cfg.DBDSN, "DB_DSN")
	str(&cfg.HTTPAddr, "HTTP_ADDR")

	str(&cfg.RedisAddr, "REDIS_ADDR")
	str(&cfg.RedisPassword, "REDIS_PASSWORD")
	integer(&cfg.RedisDB, "REDIS_DB")

	str(&cfg.StagingBackend, "STAGING_BACKEND")
	duration(&cfg.StagingTTL, "STAGING_TTL")
	integer(&cfg.StagingMaxEntries, "STAGING_MAX_ENTRIES")
	duration(&cfg.StagingSweepInterval, "STAGING_SWEEP_INTERVAL")

	str(&cfg.RabbitURL, "RABBIT_URL")
	str(&cfg.RabbitQueue, "RABBIT_QUEUE")
	integer(&cfg.WorkerConcurrency, "WORKER_CONCURRENCY")
	if cfg.WorkerConcurrency <= 0 {
		cfg.WorkerConcurrency = 2
	}
	if cfg.WorkerConcurrency > 50 {
		cfg.WorkerConcurrency = 50
	}

	boolean(&cfg.LogJSON, "LOG_JSON")
	boolean(&cfg.LogVerbose, "LOG_VERBOSE")
}

func str(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func integer(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func duration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func boolean(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
