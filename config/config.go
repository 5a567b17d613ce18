package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"maps-review-scraper/utils"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	OutputDir string
	ChromeBin string
	Headless  bool

	// Scroll loader tuning.
	MaxStagnantPasses int
	MaxBackoffRetries int
	BackoffBaseMs     int
	BackoffMaxMs      int
	BackoffJitter     float64
	PassesPerSecond   float64
	PassTimeoutSec    int
	PlaceTimeoutSec   int
	PlaceDelayMs      int

	// Page navigation.
	PageLoadTimeoutSec int
	MaxOpenRetries     int

	// Optional review store.
	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	LogLevel  string
	LogFormat string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		OutputDir: getEnv("OUTPUT_DIR", "./output"),
		ChromeBin: getEnv("CHROME_BIN", ""),
		Headless:  getEnvBool("HEADLESS", true),

		MaxStagnantPasses: getEnvInt("MAX_STAGNANT_PASSES", 3),
		MaxBackoffRetries: getEnvInt("MAX_BACKOFF_RETRIES", 5),
		BackoffBaseMs:     getEnvInt("BACKOFF_BASE_MS", 2000),
		BackoffMaxMs:      getEnvInt("BACKOFF_MAX_MS", 60000),
		BackoffJitter:     getEnvFloat("BACKOFF_JITTER", 0.25),
		PassesPerSecond:   getEnvFloat("PASSES_PER_SECOND", 2),
		PassTimeoutSec:    getEnvInt("PASS_TIMEOUT_SEC", 10),
		PlaceTimeoutSec:   getEnvInt("PLACE_TIMEOUT_SEC", 300),
		PlaceDelayMs:      getEnvInt("PLACE_DELAY_MS", 2000),

		PageLoadTimeoutSec: getEnvInt("PAGE_LOAD_TIMEOUT_SEC", 60),
		MaxOpenRetries:     getEnvInt("MAX_OPEN_RETRIES", 3),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "reviews_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

// PassTimeout returns the per-pass poll timeout.
func (c *Config) PassTimeout() time.Duration {
	return time.Duration(c.PassTimeoutSec) * time.Second
}

// PlaceTimeout returns the per-place overall timeout; zero disables it.
func (c *Config) PlaceTimeout() time.Duration {
	return time.Duration(c.PlaceTimeoutSec) * time.Second
}

// LoaderBackoff returns the throttle backoff shape for the scroll loader.
func (c *Config) LoaderBackoff() utils.Backoff {
	return utils.Backoff{
		Initial:    time.Duration(c.BackoffBaseMs) * time.Millisecond,
		Max:        time.Duration(c.BackoffMaxMs) * time.Millisecond,
		Multiplier: 2,
		Jitter:     c.BackoffJitter,
	}
}

// PlaceDelay returns the pause between consecutive places in a batch.
func (c *Config) PlaceDelay() time.Duration {
	return time.Duration(c.PlaceDelayMs) * time.Millisecond
}

// InitLogger initializes the global zap logger.
func InitLogger(c *Config) error {
	var zapCfg zap.Config
	if c.LogFormat == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}
