// Package config assembles the server configuration from defaults, an
// optional .env file, environment variables and an optional JSON tuning
// file.
package config

import (
	"fmt"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ironsheep/building-recon-mcp/internal/detection"
	"github.com/ironsheep/building-recon-mcp/internal/features"
	"github.com/ironsheep/building-recon-mcp/internal/imaging"
	"github.com/ironsheep/building-recon-mcp/internal/ocr"
	"github.com/ironsheep/building-recon-mcp/internal/reconstruct"
	"github.com/ironsheep/building-recon-mcp/internal/units"
)

// Environment variables read by Load.
const (
	EnvLogLevel     = "BUILDING_MCP_LOG_LEVEL"
	EnvConfigFile   = "BUILDING_MCP_CONFIG"
	EnvWorkers      = "BUILDING_MCP_WORKERS"
	EnvOutputUnit   = "BUILDING_MCP_OUTPUT_UNIT"
	EnvOCRLanguage  = "BUILDING_MCP_OCR_LANG"
	EnvMaxDimension = "BUILDING_MCP_MAX_DIMENSION"
	EnvBackend      = "BUILDING_MCP_BACKEND"
	EnvCacheSize    = "BUILDING_MCP_CACHE_SIZE"
)

// Config is the complete server configuration.
type Config struct {
	Debug bool

	// Backend names the detection backend, see detection.BackendNames.
	Backend string

	// Workers bounds how many images the pipeline processes at once.
	Workers int

	// CacheSize is how many decoded drawings stay in memory. 0 is unbounded.
	CacheSize int

	// OutputUnit is the unit calibrated results are reported in.
	OutputUnit units.Unit

	OCRLanguage string

	Detection   detection.Config
	Features    features.Config
	Reconstruct reconstruct.Config
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Backend:     "native",
		Workers:     runtime.NumCPU(),
		CacheSize:   imaging.DefaultCacheSize,
		OutputUnit:  units.Meters,
		OCRLanguage: ocr.DefaultLanguage,
		Detection:   detection.DefaultConfig(),
		Features:    features.DefaultConfig(),
		Reconstruct: reconstruct.DefaultConfig(),
	}
}

// Load reads .env (if present), applies environment overrides and then the
// tuning file named by BUILDING_MCP_CONFIG, if any.
func Load() (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := Default()
	cfg.Debug = strings.EqualFold(os.Getenv(EnvLogLevel), "debug")
	cfg.Backend = getEnv(EnvBackend, cfg.Backend)
	cfg.Workers = getEnvAsInt(EnvWorkers, cfg.Workers)
	cfg.CacheSize = getEnvAsInt(EnvCacheSize, cfg.CacheSize)
	cfg.OCRLanguage = getEnv(EnvOCRLanguage, cfg.OCRLanguage)
	cfg.Detection.MaxDimension = getEnvAsInt(EnvMaxDimension, cfg.Detection.MaxDimension)

	if s := os.Getenv(EnvOutputUnit); s != "" {
		u, err := units.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", EnvOutputUnit, err)
		}
		cfg.OutputUnit = u
	}

	if path := os.Getenv(EnvConfigFile); path != "" {
		t, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		if err := t.Apply(cfg); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings the rest of the server relies on.
func (c *Config) Validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size must be non-negative, got %d", c.CacheSize)
	}
	if !units.IsValid(c.OutputUnit) {
		return fmt.Errorf("output unit must be one of %s, got %q", units.GetValidUnitsString(), c.OutputUnit)
	}
	if c.Detection.MaxDimension < 0 {
		return fmt.Errorf("max dimension must be non-negative, got %d", c.Detection.MaxDimension)
	}
	if _, err := detection.NewBackend(c.Backend); err != nil {
		return err
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}
