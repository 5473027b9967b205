package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DataDir         string
	HTTPAddr        string
	DashboardAddr   string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// RunInterval > 0 makes the ETL service re-run the pipeline on a timer;
	// zero means run once and wait for shutdown.
	RunInterval time.Duration

	// World Bank API configuration.
	WorldBankBaseURL      string
	WorldBankTimeout      time.Duration
	WorldBankDateRange    string
	WorldBankRequestDelay time.Duration
	WorldBankCacheSize    int

	// Optional Kafka sink for clean records.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string

	// Optional Redis response cache for the dashboard API.
	RedisEnabled  bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisCacheTTL time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is honored when present.
func Load() (*Config, error) {
	// Best effort: absence of a .env file is the normal production case.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	runInterval, err := parseOptionalDuration("RUN_INTERVAL")
	if err != nil {
		return nil, err
	}
	wbTimeout, err := parseDuration("WORLDBANK_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	wbDelay, err := parseDuration("WORLDBANK_REQUEST_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	redisTTL, err := parseDuration("REDIS_CACHE_TTL", "60s")
	if err != nil {
		return nil, err
	}
	redisDB, err := parseInt("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}
	wbCacheSize, err := parseInt("WORLDBANK_CACHE_SIZE", 128)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataDir:         envOrDefault("DATA_DIR", "data"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		DashboardAddr:   envOrDefault("DASHBOARD_ADDR", ":8050"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		RunInterval:     runInterval,

		WorldBankBaseURL:      envOrDefault("WORLDBANK_BASE_URL", "https://api.worldbank.org/v2"),
		WorldBankTimeout:      wbTimeout,
		WorldBankDateRange:    envOrDefault("WORLDBANK_DATE_RANGE", "2010:2023"),
		WorldBankRequestDelay: wbDelay,
		WorldBankCacheSize:    wbCacheSize,

		KafkaEnabled:   os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "clean-infrastructure-records"),

		RedisEnabled:  os.Getenv("REDIS_ENABLED") == "true",
		RedisAddr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		RedisCacheTTL: redisTTL,
	}

	if cfg.DataDir == "" {
		return nil, errors.New("DATA_DIR is required")
	}
	if cfg.WorldBankBaseURL == "" {
		return nil, errors.New("WORLDBANK_BASE_URL is required")
	}
	if !strings.Contains(cfg.WorldBankDateRange, ":") {
		return nil, fmt.Errorf("invalid WORLDBANK_DATE_RANGE %q: expected start:end", cfg.WorldBankDateRange)
	}
	if cfg.WorldBankCacheSize <= 0 {
		return nil, errors.New("WORLDBANK_CACHE_SIZE must be positive")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}
	if cfg.RedisEnabled && cfg.RedisAddr == "" {
		return nil, errors.New("REDIS_ENABLED is true but REDIS_ADDR is empty")
	}

	return cfg, nil
}

// RawDir is where collected CSVs land.
func (c *Config) RawDir() string { return c.DataDir + "/raw" }

// FinalDir is where processed exports land.
func (c *Config) FinalDir() string { return c.DataDir + "/final" }

// WarehousePath is the SQLite warehouse file.
func (c *Config) WarehousePath() string { return c.DataDir + "/infrastructure.db" }

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

// parseOptionalDuration treats unset/empty as zero (disabled).
func parseOptionalDuration(key string) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
