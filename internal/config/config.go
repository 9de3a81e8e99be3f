package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/synthmarket/marketsim/internal/domain"
)

// Config holds all runtime configuration for a simulation run.
type Config struct {
	Symbol       string
	InitialPrice float64
	Seed         uint64
	NumBars      int
	TicksPerBar  int // 0 selects the policy default
	Policy       string
	SelfMatch    string

	BaseSpreadBps float64
	DepthAtTouch  float64
	DepthFalloff  float64
	TickSize      float64
	LotSize       float64

	Port            int
	LogLevel        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applies
// defaults, and validates values. It returns an error for any invalid
// value.
func Load() (*Config, error) {
	symbol := getStr("SYMBOL", "BTC/USD")

	initialPrice, err := getFloat("INITIAL_PRICE", 50000.0)
	if err != nil {
		return nil, fmt.Errorf("invalid INITIAL_PRICE: %w", err)
	}
	if initialPrice <= 0 {
		return nil, fmt.Errorf("invalid INITIAL_PRICE: must be positive, got %v", initialPrice)
	}

	seed, err := getUint("SEED", 42)
	if err != nil {
		return nil, fmt.Errorf("invalid SEED: %w", err)
	}

	numBars, err := getInt("NUM_BARS", 500)
	if err != nil {
		return nil, fmt.Errorf("invalid NUM_BARS: %w", err)
	}
	if numBars <= 0 {
		return nil, fmt.Errorf("invalid NUM_BARS: must be positive, got %d", numBars)
	}

	ticksPerBar, err := getInt("TICKS_PER_BAR", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid TICKS_PER_BAR: %w", err)
	}
	if ticksPerBar < 0 {
		return nil, fmt.Errorf("invalid TICKS_PER_BAR: must be non-negative, got %d", ticksPerBar)
	}

	policy := getStr("POLICY", "regime")
	if policy != "regime" && policy != "fairvalue" {
		return nil, fmt.Errorf("invalid POLICY %q, must be one of: regime, fairvalue: %w",
			policy, domain.ErrUnknownPolicy)
	}

	selfMatch := getStr("SELF_MATCH", "allow")
	if selfMatch != "allow" && selfMatch != "reject" {
		return nil, fmt.Errorf("invalid SELF_MATCH %q, must be one of: allow, reject: %w",
			selfMatch, domain.ErrUnknownSelfMatch)
	}

	baseSpreadBps, err := getFloat("BASE_SPREAD_BPS", 5.0)
	if err != nil {
		return nil, fmt.Errorf("invalid BASE_SPREAD_BPS: %w", err)
	}
	depthAtTouch, err := getFloat("DEPTH_AT_TOUCH", 10.0)
	if err != nil {
		return nil, fmt.Errorf("invalid DEPTH_AT_TOUCH: %w", err)
	}
	depthFalloff, err := getFloat("DEPTH_FALLOFF", 0.8)
	if err != nil {
		return nil, fmt.Errorf("invalid DEPTH_FALLOFF: %w", err)
	}
	if depthFalloff <= 0 || depthFalloff > 1 {
		return nil, fmt.Errorf("invalid DEPTH_FALLOFF: must be in (0, 1], got %v", depthFalloff)
	}
	tickSize, err := getFloat("TICK_SIZE", 0.01)
	if err != nil {
		return nil, fmt.Errorf("invalid TICK_SIZE: %w", err)
	}
	if tickSize <= 0 {
		return nil, fmt.Errorf("invalid TICK_SIZE: must be positive, got %v", tickSize)
	}
	lotSize, err := getFloat("LOT_SIZE", 0.01)
	if err != nil {
		return nil, fmt.Errorf("invalid LOT_SIZE: %w", err)
	}

	port, err := getInt("PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	logLevel := getStr("LOG_LEVEL", "info")
	if !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	readTimeout, err := getDuration("READ_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid READ_TIMEOUT: %w", err)
	}
	writeTimeout, err := getDuration("WRITE_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid WRITE_TIMEOUT: %w", err)
	}
	idleTimeout, err := getDuration("IDLE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid IDLE_TIMEOUT: %w", err)
	}
	shutdownTimeout, err := getDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid SHUTDOWN_TIMEOUT: %w", err)
	}

	return &Config{
		Symbol:          symbol,
		InitialPrice:    initialPrice,
		Seed:            seed,
		NumBars:         numBars,
		TicksPerBar:     ticksPerBar,
		Policy:          policy,
		SelfMatch:       selfMatch,
		BaseSpreadBps:   baseSpreadBps,
		DepthAtTouch:    depthAtTouch,
		DepthFalloff:    depthFalloff,
		TickSize:        tickSize,
		LotSize:         lotSize,
		Port:            port,
		LogLevel:        logLevel,
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
		IdleTimeout:     idleTimeout,
		ShutdownTimeout: shutdownTimeout,
	}, nil
}

func getStr(key, defaultVal string) string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	return v
}

func getInt(key string, defaultVal int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(v)
}

func getUint(key string, defaultVal uint64) (uint64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseUint(v, 10, 64)
}

func getFloat(key string, defaultVal float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return strconv.ParseFloat(v, 64)
}

func getDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(v)
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
