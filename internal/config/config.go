package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Reference data source kinds
const (
	SourceFile     = "file"
	SourcePostgres = "postgres"
	SourceRedis    = "redis"
)

// ErrInvalid is wrapped by every validation error
var ErrInvalid = errors.New("invalid configuration")

// Config holds the application configuration
type Config struct {
	HTTPAddr  string `toml:"http_addr"`
	NATSURL   string `toml:"nats_url"`
	DBConnStr string `toml:"db_conn_str"`
	RedisAddr string `toml:"redis_addr"`

	RefdataSource string `toml:"refdata_source"`
	RefdataStrict bool   `toml:"refdata_strict"`
	DataDir       string `toml:"data_dir"`
	AirportsFile  string `toml:"airports_file"`
	EmissionsFile string `toml:"emissions_file"`
	FuelFile      string `toml:"fuel_file"`
	FuelSheet     string `toml:"fuel_sheet"`

	// JournalDir enables the search audit journal; empty disables it
	JournalDir string `toml:"journal_dir"`

	EvalWorkers          int `toml:"eval_workers"`
	StatsIntervalSeconds int `toml:"stats_interval_seconds"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		HTTPAddr:             ":8000",
		RefdataSource:        SourceFile,
		DataDir:              "./data",
		AirportsFile:         "airports.json",
		EmissionsFile:        "aircraft_emissions.json",
		FuelFile:             "Fuel Calculation 50 Aircrafts_final.xlsx",
		FuelSheet:            "Hurtecant",
		EvalWorkers:          8,
		StatsIntervalSeconds: 300,
		LogLevel:             "info",
		LogFormat:            "json",
		CORSAllowedOrigins:   []string{"*"},
	}
}

// Load loads defaults, then the optional CONFIG_FILE, then environment variables and .env file
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	strs := map[string]*string{
		"HTTP_ADDR":      &c.HTTPAddr,
		"NATS_URL":       &c.NATSURL,
		"DB_CONN_STR":    &c.DBConnStr,
		"REDIS_ADDR":     &c.RedisAddr,
		"REFDATA_SOURCE": &c.RefdataSource,
		"DATA_DIR":       &c.DataDir,
		"AIRPORTS_FILE":  &c.AirportsFile,
		"EMISSIONS_FILE": &c.EmissionsFile,
		"FUEL_FILE":      &c.FuelFile,
		"FUEL_SHEET":     &c.FuelSheet,
		"JOURNAL_DIR":    &c.JournalDir,
		"LOG_LEVEL":      &c.LogLevel,
		"LOG_FORMAT":     &c.LogFormat,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(key); ok {
			*dst = strings.TrimSpace(v)
		}
	}

	ints := map[string]*int{
		"EVAL_WORKERS":           &c.EvalWorkers,
		"STATS_INTERVAL_SECONDS": &c.StatsIntervalSeconds,
	}
	for key, dst := range ints {
		v, ok := os.LookupEnv(key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer: %v", ErrInvalid, key, err)
		}
		*dst = n
	}

	if v, ok := os.LookupEnv("REFDATA_STRICT"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: REFDATA_STRICT must be a boolean: %v", ErrInvalid, err)
		}
		c.RefdataStrict = b
	}

	if v, ok := os.LookupEnv("CORS_ALLOWED_ORIGINS"); ok {
		c.CORSAllowedOrigins = splitList(v)
	}
	return nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	c.RefdataSource = strings.ToLower(c.RefdataSource)
	switch c.RefdataSource {
	case SourceFile:
	case SourcePostgres:
		if c.DBConnStr == "" {
			return fmt.Errorf("%w: DB_CONN_STR is required for the postgres reference data source", ErrInvalid)
		}
	case SourceRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR is required for the redis reference data source", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown REFDATA_SOURCE %q", ErrInvalid, c.RefdataSource)
	}

	if c.EvalWorkers <= 0 {
		return fmt.Errorf("%w: EVAL_WORKERS must be positive, got %d", ErrInvalid, c.EvalWorkers)
	}
	if c.StatsIntervalSeconds < 0 {
		return fmt.Errorf("%w: STATS_INTERVAL_SECONDS must not be negative", ErrInvalid)
	}
	if c.HTTPAddr == "" {
		return fmt.Errorf("%w: HTTP_ADDR is required", ErrInvalid)
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
