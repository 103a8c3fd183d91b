// Package common provides shared configuration and logging for the advisor
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for the advisor
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Signals     SignalConfig  `toml:"signals"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds report persistence configuration
type StorageConfig struct {
	Path string `toml:"path"` // SQLite database file
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	DragonFi    DragonFiConfig    `toml:"dragonfi"`
	PSEEdge     PSEEdgeConfig     `toml:"pse_edge"`
	TradingView TradingViewConfig `toml:"tradingview"`
	Tavily      TavilyConfig      `toml:"tavily"`
	Gemini      GeminiConfig      `toml:"gemini"`
}

// DragonFiConfig holds DragonFi securities API configuration
type DragonFiConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *DragonFiConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 15*time.Second)
}

// PSEEdgeConfig holds PSE EDGE disclosure/chart endpoint configuration
type PSEEdgeConfig struct {
	BaseURL   string `toml:"base_url"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *PSEEdgeConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 15*time.Second)
}

// TradingViewConfig holds TradingView scanner configuration
type TradingViewConfig struct {
	ScannerURL string `toml:"scanner_url"`
	Timeout    string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *TradingViewConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 15*time.Second)
}

// TavilyConfig holds Tavily web-search configuration.
// The API key is deliberately absent: it is read from the TAVILY_API_KEY
// environment variable at call time so late dotenv-style loading works.
type TavilyConfig struct {
	BaseURL    string `toml:"base_url"`
	Timeout    string `toml:"timeout"`
	MaxResults int    `toml:"max_results"`
}

// GetTimeout parses and returns the timeout duration
func (c *TavilyConfig) GetTimeout() time.Duration {
	return parseDurationOr(c.Timeout, 20*time.Second)
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// SignalConfig holds thresholds for signal derivation.
// Every detector threshold lives here rather than as a hardcoded constant.
type SignalConfig struct {
	// Candlestick detection
	CandleBodyPct    float64 `toml:"candle_body_pct"`    // min |body %| for a notable candle
	CandleTopN       int     `toml:"candle_top_n"`       // keep the N largest bodies
	GapPct           float64 `toml:"gap_pct"`            // min |gap %| vs previous close
	VolumeMultiplier float64 `toml:"volume_multiplier"`  // spike = volume >= multiplier x rolling mean
	VolumeWindow     int     `toml:"volume_window"`      // rolling-mean window (trading days)
	VolumeMinPeriods int     `toml:"volume_min_periods"` // observations before the mean is usable
	MinStreak        int     `toml:"min_streak"`         // min consecutive candles for a pressure streak

	// Price catalysts
	CatalystYieldPct     float64 `toml:"catalyst_yield_pct"`      // dividend yield (percent) threshold
	CatalystRangePct     float64 `toml:"catalyst_range_pct"`      // position in 52-week range (percentile)
	CatalystDayChangePct float64 `toml:"catalyst_day_change_pct"` // day-over-day momentum threshold
	CatalystNearHighPct  float64 `toml:"catalyst_near_high_pct"`  // gap to 52-week high

	// Trend classification
	TrendUpPct   float64 `toml:"trend_up_pct"`
	TrendDownPct float64 `toml:"trend_down_pct"`

	// Anomaly / risk detection
	SpikeStdMultiplier      float64 `toml:"spike_std_multiplier"`     // |return| > k x std
	SpikeMinAbsReturn       float64 `toml:"spike_min_abs_return"`     // absolute floor (fraction)
	HighVolatilityStd       float64 `toml:"high_volatility_std"`      // daily return std (fraction)
	OvervaluationMultiplier float64 `toml:"overvaluation_multiplier"` // price vs period average
	DistressMultiplier      float64 `toml:"distress_multiplier"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path: "data/reports.db",
		},
		Clients: ClientsConfig{
			DragonFi: DragonFiConfig{
				BaseURL:   "https://api.dragonfi.ph/api/v2",
				RateLimit: 5,
				Timeout:   "15s",
			},
			PSEEdge: PSEEdgeConfig{
				BaseURL:   "https://edge.pse.com.ph",
				RateLimit: 5,
				Timeout:   "15s",
			},
			TradingView: TradingViewConfig{
				ScannerURL: "https://scanner.tradingview.com/philippines/scan",
				Timeout:    "15s",
			},
			Tavily: TavilyConfig{
				BaseURL:    "https://api.tavily.com",
				Timeout:    "20s",
				MaxResults: 5,
			},
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Signals: SignalConfig{
			CandleBodyPct:    5.0,
			CandleTopN:       5,
			GapPct:           2.0,
			VolumeMultiplier: 3.0,
			VolumeWindow:     20,
			VolumeMinPeriods: 5,
			MinStreak:        3,

			CatalystYieldPct:     3.0,
			CatalystRangePct:     65.0,
			CatalystDayChangePct: 0.5,
			CatalystNearHighPct:  5.0,

			TrendUpPct:   5.0,
			TrendDownPct: -5.0,

			SpikeStdMultiplier:      3.0,
			SpikeMinAbsReturn:       0.05,
			HighVolatilityStd:       0.03,
			OvervaluationMultiplier: 1.3,
			DistressMultiplier:      0.7,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides.
// Later files override earlier; missing files are skipped.
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("ADVISOR_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("ADVISOR_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("ADVISOR_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("ADVISOR_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("ADVISOR_DB_PATH"); path != "" {
		config.Storage.Path = path
	}

	// Gemini key: environment beats config file
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.Gemini.APIKey = v
			break
		}
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
