// Package config loads the screener's runtime configuration from a JSON
// file, then lets environment variables override individual settings —
// grounded on the teacher's config/config.go Load/applyEnvOverrides/
// getEnvOrDefault-family pattern, trimmed to the sub-configs this system
// actually has components for.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full, file-loadable configuration tree.
type Config struct {
	LoggingConfig  LoggingConfig  `json:"logging"`
	ServerConfig   ServerConfig   `json:"server"`
	RedisConfig    RedisConfig    `json:"redis"`
	RiskConfig     RiskConfig     `json:"risk"`
	PaperConfig    PaperConfig    `json:"paper"`
	ScreenerConfig ScreenerConfig `json:"screener"`
}

// LoggingConfig configures the zerolog-backed logger (internal/logging).
type LoggingConfig struct {
	Level       string `json:"level"`        // DEBUG, INFO, WARN, ERROR
	Output      string `json:"output"`       // stdout, stderr, or file path
	JSONFormat  bool   `json:"json_format"`  // output as JSON vs console
	IncludeFile bool   `json:"include_file"` // include caller file:line
}

// ServerConfig configures the operator command HTTP surface (internal/api).
type ServerConfig struct {
	Port            int    `json:"port"`
	Host            string `json:"host"`
	AllowedOrigins  string `json:"allowed_origins"`
	ReadTimeout     int    `json:"read_timeout"`  // seconds
	WriteTimeout    int    `json:"write_timeout"` // seconds
	ShutdownTimeout int    `json:"shutdown_timeout"`
	ProductionMode  bool   `json:"production_mode"`
}

// RedisConfig configures the candle cache / cooldown tracker (internal/cache).
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// RiskConfig maps onto internal/risk.Config — position sizing, leverage,
// and circuit-breaker parameters.
type RiskConfig struct {
	MaxDailyDrawdown       float64 `json:"max_daily_drawdown"`
	MaxOpenPositions       int     `json:"max_open_positions"`
	MinScore               int     `json:"min_score"`
	MinConfluenceCount     int     `json:"min_confluence_count"`
	MinConfidence          float64 `json:"min_confidence"`
	CircuitBreakerThreshold int    `json:"circuit_breaker_threshold"`
	DefaultPositionSize    float64 `json:"default_position_size"`
	MaxPositionSize        float64 `json:"max_position_size"`
	DefaultLeverage        int     `json:"default_leverage"`
	MaxLeverage            int     `json:"max_leverage"`
	TakerFee               float64 `json:"taker_fee"`
	SLROI                  float64 `json:"sl_roi"`
	TPROI                  float64 `json:"tp_roi"`
	MaintenanceMarginRate  float64 `json:"maintenance_margin_rate"`
	MinLiquidationBuffer   float64 `json:"min_liquidation_buffer"`
}

// PaperConfig maps onto internal/paper.Config — simulated trading costs.
type PaperConfig struct {
	TakerFee       float64 `json:"taker_fee"`
	MakerFee       float64 `json:"maker_fee"`
	Slippage       float64 `json:"slippage"`
	InitialBalance float64 `json:"initial_balance"`
}

// ScreenerConfig maps onto internal/screener.Config — symbol universe,
// scan cadence, and ranking thresholds.
type ScreenerConfig struct {
	TopCoinsCount     int      `json:"top_coins_count"`
	MinVolume24h      float64  `json:"min_volume_24h"`
	ScanIntervalSecs  int      `json:"scan_interval_secs"`
	CooldownMinutes   int      `json:"cooldown_minutes"`
	CandleGranularity int      `json:"candle_granularity_minutes"`
	CandleLookback    int      `json:"candle_lookback"`
	WorkerCount       int      `json:"worker_count"`
	BatchSize         int      `json:"batch_size"`
	OrderBookDepth    int      `json:"order_book_depth"`
	MinScore          int      `json:"min_score"`
	MinConfidence     float64  `json:"min_confidence"`
	MaxSpreadPct      float64  `json:"max_spread_pct"`
	MinConfluence     float64  `json:"min_confluence"`
	FallbackSymbols   []string `json:"fallback_symbols"`
}

// Load reads config.json (if present) then applies environment overrides.
func Load() (*Config, error) {
	cfg, err := loadFromFile("config.json")
	if err != nil {
		cfg = &Config{}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", orDefault(cfg.LoggingConfig.Level, "INFO"))
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", orDefault(cfg.LoggingConfig.Output, "stdout"))
	cfg.LoggingConfig.JSONFormat = getEnvBoolOrDefault("LOG_JSON", orBool(cfg.LoggingConfig.JSONFormat, true))
	cfg.LoggingConfig.IncludeFile = getEnvBoolOrDefault("LOG_INCLUDE_FILE", cfg.LoggingConfig.IncludeFile)

	cfg.ServerConfig.Port = getEnvIntOrDefault("SERVER_PORT", orInt(cfg.ServerConfig.Port, 8080))
	cfg.ServerConfig.Host = getEnvOrDefault("SERVER_HOST", orDefault(cfg.ServerConfig.Host, "0.0.0.0"))
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", orDefault(cfg.ServerConfig.AllowedOrigins, "*"))
	cfg.ServerConfig.ReadTimeout = getEnvIntOrDefault("SERVER_READ_TIMEOUT", orInt(cfg.ServerConfig.ReadTimeout, 15))
	cfg.ServerConfig.WriteTimeout = getEnvIntOrDefault("SERVER_WRITE_TIMEOUT", orInt(cfg.ServerConfig.WriteTimeout, 15))
	cfg.ServerConfig.ShutdownTimeout = getEnvIntOrDefault("SERVER_SHUTDOWN_TIMEOUT", orInt(cfg.ServerConfig.ShutdownTimeout, 10))
	cfg.ServerConfig.ProductionMode = getEnvBoolOrDefault("SERVER_PRODUCTION_MODE", cfg.ServerConfig.ProductionMode)

	cfg.RedisConfig.Enabled = getEnvBoolOrDefault("REDIS_ENABLED", cfg.RedisConfig.Enabled)
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", orDefault(cfg.RedisConfig.Address, "localhost:6379"))
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", orInt(cfg.RedisConfig.PoolSize, 10))
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return &config, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true"
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func orInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func orBool(v, fallback bool) bool {
	if !v {
		return fallback
	}
	return v
}

// GenerateSampleConfig writes an example config.json with sane defaults.
func GenerateSampleConfig(filename string) error {
	config := Config{
		LoggingConfig: LoggingConfig{
			Level:      "INFO",
			Output:     "stdout",
			JSONFormat: true,
		},
		ServerConfig: ServerConfig{
			Port:            8080,
			Host:            "0.0.0.0",
			AllowedOrigins:  "*",
			ReadTimeout:     15,
			WriteTimeout:    15,
			ShutdownTimeout: 10,
		},
		RedisConfig: RedisConfig{
			Enabled:  false,
			Address:  "localhost:6379",
			PoolSize: 10,
		},
		RiskConfig: RiskConfig{
			MaxDailyDrawdown:        0.03,
			MaxOpenPositions:        5,
			MinScore:                75,
			MinConfluenceCount:      4,
			MinConfidence:           0.85,
			CircuitBreakerThreshold: 3,
			DefaultPositionSize:     0.05,
			MaxPositionSize:         0.20,
			DefaultLeverage:         5,
			MaxLeverage:             20,
			TakerFee:                0.0006,
			SLROI:                   0.06,
			TPROI:                   0.15,
			MaintenanceMarginRate:   0.005,
			MinLiquidationBuffer:    0.05,
		},
		PaperConfig: PaperConfig{
			TakerFee:       0.0006,
			MakerFee:       0.0002,
			Slippage:       0.0005,
			InitialBalance: 10000,
		},
		ScreenerConfig: ScreenerConfig{
			TopCoinsCount:     100,
			MinVolume24h:      5_000_000,
			ScanIntervalSecs:  60,
			CooldownMinutes:   5,
			CandleGranularity: 30,
			CandleLookback:    120,
			WorkerCount:       10,
			BatchSize:         10,
			OrderBookDepth:    20,
			MinScore:          40,
			MinConfidence:     0.7,
			MaxSpreadPct:      0.1,
			MinConfluence:     0.5,
			FallbackSymbols:   []string{"BTCUSDT", "ETHUSDT", "BNBUSDT", "SOLUSDT", "XRPUSDT"},
		},
	}

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filename, data, 0644)
}
