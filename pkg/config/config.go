package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Files
	Paths PathsConfig

	// Strategy YAML (empty: built-in defaults)
	StrategyFile string

	// Number of concurrent per-symbol workers
	Workers int

	// Database (optional: predictions/training runs are persisted only when URL is set)
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
	MetricsPort    string
}

// PathsConfig holds file locations
type PathsConfig struct {
	PanelFile    string // merged daily panel (.csv or .xlsx)
	ProcessedDir string // feature+label exports
	ModelDir     string // model artifacts
	OutputDir    string // prediction CSVs
	LogDir       string // daily JSON log files (empty: stdout only)
}

// SchedulerConfig holds cron expressions (with seconds) for the daily routines
type SchedulerConfig struct {
	Timezone    string // cron location, e.g. Asia/Kolkata
	TrainCron   string // post-market
	PredictCron string // pre-market
	PruneCron   string
	KeepModels  int // timestamped artifacts kept per horizon
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Timeout  time.Duration // dial/read/write
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database URL was configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	loadEnvFile()

	dataDir := getEnv("DATA_DIR", "data")

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		Paths: PathsConfig{
			PanelFile:    getEnv("PANEL_FILE", filepath.Join(dataDir, "raw", "panel.csv")),
			ProcessedDir: getEnv("PROCESSED_DIR", filepath.Join(dataDir, "processed")),
			ModelDir:     getEnv("MODEL_DIR", filepath.Join(dataDir, "models")),
			OutputDir:    getEnv("OUTPUT_DIR", filepath.Join("outputs", "predictions")),
			LogDir:       getEnv("LOG_DIR", ""),
		},

		StrategyFile: getEnv("STRATEGY_FILE", ""),
		Workers:      getEnvAsInt("WORKERS", runtime.NumCPU()),

		// Database
		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Timeout:  getEnvAsDuration("REDIS_TIMEOUT", "3s"),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// Scheduler (NSE closes 15:30 IST, opens 09:15 IST)
		Scheduler: SchedulerConfig{
			Timezone:    getEnv("SCHEDULER_TZ", "Asia/Kolkata"),
			TrainCron:   getEnv("TRAIN_CRON", "0 0 18 * * 1-5"),
			PredictCron: getEnv("PREDICT_CRON", "0 30 8 * * 1-5"),
			PruneCron:   getEnv("PRUNE_CRON", "0 0 3 * * 0"),
			KeepModels:  getEnvAsInt("KEEP_MODELS", 10),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		MetricsPort:    getEnv("METRICS_PORT", "9090"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Workers < 1 {
		return fmt.Errorf("WORKERS must be >= 1")
	}

	if c.Paths.ModelDir == "" {
		return fmt.Errorf("MODEL_DIR is required")
	}

	if c.Scheduler.KeepModels < 1 {
		return fmt.Errorf("KEEP_MODELS must be >= 1")
	}

	return nil
}

// EnsureDirs creates the output directories
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.Paths.ProcessedDir, c.Paths.ModelDir, c.Paths.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
