// Package bot implements the decision-and-lifecycle loop: universe
// construction, quote ranking, entry sizing, and the exit policy.
package bot

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	UniverseModeAuto = "AUTO" // Finnhub catalogue ∩ Alpaca tradable assets
	UniverseModeFile = "FILE" // symbol file ∩ Alpaca tradable assets
)

// Config carries every tunable of the loop. Values come from the
// environment with the defaults below.
type Config struct {
	FinnhubAPIKey   string
	AlpacaAPIKey    string
	AlpacaAPISecret string
	AlpacaBaseURL   string

	UniverseMode string
	UniverseFile string

	ScanBatchSize       int
	Concurrency         int
	ScanDelay           time.Duration
	TakePerScan         int
	ForceBuyOnFirstPass bool

	// Filters
	MinPrice       float64
	MinDayPct      float64
	MinMomentumPct float64

	// Risk / sizing
	DollarsPerTrade  float64
	MaxOpenPositions int
	AllowFractional  bool

	// Orders / exits
	UseExtendedHours bool
	LimitSlippageBPS float64
	TrailPercent     float64
	TimeExitMinutes  int
}

func DefaultConfig() Config {
	return Config{
		UniverseMode:        UniverseModeAuto,
		UniverseFile:        "symbols_all.txt",
		ScanBatchSize:       500,
		Concurrency:         40, // keep friendly to Finnhub
		ScanDelay:           2500 * time.Millisecond,
		TakePerScan:         5,
		ForceBuyOnFirstPass: true,
		MinPrice:            1.00, // skip sub-$1
		MinDayPct:           -10.0,
		MinMomentumPct:      -10.0,
		DollarsPerTrade:     75,
		MaxOpenPositions:    15,
		AllowFractional:     false, // whole shares to avoid fractional rejections
		UseExtendedHours:    true,
		LimitSlippageBPS:    15,
		TrailPercent:        3.0,
		TimeExitMinutes:     7,
	}
}

// LoadConfig builds a Config from the environment on top of the
// defaults. The API keys are required; everything else falls back.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	cfg.FinnhubAPIKey = os.Getenv("FINNHUB_API_KEY")
	cfg.AlpacaAPIKey = os.Getenv("ALPACA_API_KEY")
	cfg.AlpacaAPISecret = os.Getenv("ALPACA_SECRET_KEY")
	cfg.AlpacaBaseURL = os.Getenv("ALPACA_BASE_URL")

	if cfg.FinnhubAPIKey == "" {
		return cfg, fmt.Errorf("FINNHUB_API_KEY must be set")
	}
	if cfg.AlpacaAPIKey == "" || cfg.AlpacaAPISecret == "" {
		return cfg, fmt.Errorf("ALPACA_API_KEY and ALPACA_SECRET_KEY must be set")
	}

	if v := os.Getenv("UNIVERSE_MODE"); v != "" {
		if v != UniverseModeAuto && v != UniverseModeFile {
			return cfg, fmt.Errorf("UNIVERSE_MODE must be %s or %s, got %q", UniverseModeAuto, UniverseModeFile, v)
		}
		cfg.UniverseMode = v
	}
	if v := os.Getenv("UNIVERSE_FILE"); v != "" {
		cfg.UniverseFile = v
	}

	var err error
	if cfg.ScanBatchSize, err = envInt("SCAN_BATCH_SIZE", cfg.ScanBatchSize); err != nil {
		return cfg, err
	}
	if cfg.Concurrency, err = envInt("CONCURRENCY", cfg.Concurrency); err != nil {
		return cfg, err
	}
	if cfg.TakePerScan, err = envInt("TAKE_PER_SCAN", cfg.TakePerScan); err != nil {
		return cfg, err
	}
	if cfg.MaxOpenPositions, err = envInt("MAX_OPEN_POSITIONS", cfg.MaxOpenPositions); err != nil {
		return cfg, err
	}
	if cfg.TimeExitMinutes, err = envInt("TIME_EXIT_MINUTES", cfg.TimeExitMinutes); err != nil {
		return cfg, err
	}

	if cfg.MinPrice, err = envFloat("MIN_PRICE", cfg.MinPrice); err != nil {
		return cfg, err
	}
	if cfg.MinDayPct, err = envFloat("MIN_DAY_PCT", cfg.MinDayPct); err != nil {
		return cfg, err
	}
	if cfg.MinMomentumPct, err = envFloat("MIN_1MOMENTUM_PCT", cfg.MinMomentumPct); err != nil {
		return cfg, err
	}
	if cfg.DollarsPerTrade, err = envFloat("DOLLARS_PER_TRADE", cfg.DollarsPerTrade); err != nil {
		return cfg, err
	}
	if cfg.LimitSlippageBPS, err = envFloat("LIMIT_SLIPPAGE_BPS", cfg.LimitSlippageBPS); err != nil {
		return cfg, err
	}
	if cfg.TrailPercent, err = envFloat("TRAIL_PERCENT", cfg.TrailPercent); err != nil {
		return cfg, err
	}

	if cfg.ForceBuyOnFirstPass, err = envBool("FORCE_BUY_ON_FIRST_PASS", cfg.ForceBuyOnFirstPass); err != nil {
		return cfg, err
	}
	if cfg.AllowFractional, err = envBool("ALLOW_FRACTIONAL", cfg.AllowFractional); err != nil {
		return cfg, err
	}
	if cfg.UseExtendedHours, err = envBool("USE_EXTENDED_HOURS", cfg.UseExtendedHours); err != nil {
		return cfg, err
	}

	if v := os.Getenv("BASE_SCAN_DELAY"); v != "" {
		seconds, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("invalid BASE_SCAN_DELAY %q: %w", v, err)
		}
		cfg.ScanDelay = time.Duration(seconds * float64(time.Second))
	}

	return cfg, nil
}

func envInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return n, nil
}

func envFloat(name string, fallback float64) (float64, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return f, nil
}

func envBool(name string, fallback bool) (bool, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", name, v, err)
	}
	return b, nil
}
