// Package config loads FlightScope settings from built-in defaults, an
// optional TOML file, .env files and the process environment, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/flightscope/flightscope/internal/database"
)

// EnvConfigPath names the environment variable holding the TOML file path.
const EnvConfigPath = "FLIGHTSCOPE_CONFIG"

// Coordinate table source kinds.
const (
	SourceNone     = "none"
	SourceFile     = "file"
	SourceURL      = "url"
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
)

// Config is the complete runtime configuration.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	SkyScrapper SkyScrapperConfig `toml:"sky_scrapper"`
	Coordinates CoordinatesConfig `toml:"coordinates"`
	Database    database.Config   `toml:"database"`
	Telemetry   TelemetryConfig   `toml:"telemetry"`
	RateLimit   RateLimitConfig   `toml:"rate_limit"`
}

// ServerConfig configures the HTTP API process.
type ServerConfig struct {
	Port            int           `toml:"port"`
	Environment     string        `toml:"environment"`
	LogLevel        string        `toml:"log_level"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
}

// SkyScrapperConfig configures the upstream flight data API.
type SkyScrapperConfig struct {
	APIKey  string        `toml:"api_key"`
	Host    string        `toml:"host"`
	BaseURL string        `toml:"base_url"`
	Locale  string        `toml:"locale"`
	Timeout time.Duration `toml:"timeout"`

	// RequestsPerSecond caps outbound calls; zero disables the cap.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// CoordinatesConfig selects where the airport coordinate table is loaded from.
type CoordinatesConfig struct {
	Source     string `toml:"source"`
	Path       string `toml:"path"`
	URL        string `toml:"url"`
	SQLitePath string `toml:"sqlite_path"`
	MaxRetries int    `toml:"max_retries"`
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled        bool          `toml:"enabled"`
	OTLPEndpoint   string        `toml:"otlp_endpoint"`
	SampleRatio    float64       `toml:"sample_ratio"`
	MetricInterval time.Duration `toml:"metric_interval"`
}

// RateLimitConfig configures per-IP inbound request limits.
type RateLimitConfig struct {
	RequestsPerMinute int `toml:"requests_per_minute"`
	SearchesPerMinute int `toml:"searches_per_minute"`
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			Environment:     "development",
			LogLevel:        "info",
			ShutdownTimeout: 30 * time.Second,
		},
		SkyScrapper: SkyScrapperConfig{
			Host:              "sky-scrapper.p.rapidapi.com",
			BaseURL:           "https://sky-scrapper.p.rapidapi.com",
			Locale:            "en-US",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 5,
		},
		Coordinates: CoordinatesConfig{
			Source:     SourceFile,
			Path:       "data/airports.json",
			SQLitePath: "data/airports.db",
			MaxRetries: 2,
		},
		Database: database.DefaultConfig(),
		Telemetry: TelemetryConfig{
			OTLPEndpoint:   "localhost:4317",
			SampleRatio:    1,
			MetricInterval: 15 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 120,
			SearchesPerMinute: 20,
		},
	}
}

// Load reads the TOML file named by FLIGHTSCOPE_CONFIG (if set), then .env,
// then the process environment.
func Load() (Config, error) {
	return LoadFrom(os.Getenv(EnvConfigPath), ".env")
}

// LoadFrom is Load with explicit file locations. An empty tomlPath skips the
// TOML layer; missing .env files are ignored.
func LoadFrom(tomlPath string, dotenvFiles ...string) (Config, error) {
	cfg := Defaults()

	if tomlPath != "" {
		if _, err := toml.DecodeFile(tomlPath, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config file %s: %w", tomlPath, err)
		}
	}

	dotenv := make(map[string]string)
	for _, name := range dotenvFiles {
		values, err := godotenv.Read(name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return Config{}, fmt.Errorf("read %s: %w", name, err)
		}
		for k, v := range values {
			if _, seen := dotenv[k]; !seen {
				dotenv[k] = v
			}
		}
	}

	// A variable exported but blank does not hide the .env value.
	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overrides fields from environment variables. Empty values are ignored.
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	e := envReader{lookup: lookup}

	e.setInt("APP_PORT", &c.Server.Port)
	e.setString("APP_ENV", &c.Server.Environment)
	e.setString("LOG_LEVEL", &c.Server.LogLevel)
	e.setDuration("SHUTDOWN_TIMEOUT", &c.Server.ShutdownTimeout)

	e.setString("RAPIDAPI_KEY", &c.SkyScrapper.APIKey)
	e.setString("RAPIDAPI_HOST", &c.SkyScrapper.Host)
	e.setString("SKYSCRAPPER_BASE_URL", &c.SkyScrapper.BaseURL)
	e.setString("SKYSCRAPPER_LOCALE", &c.SkyScrapper.Locale)
	e.setDuration("SKYSCRAPPER_TIMEOUT", &c.SkyScrapper.Timeout)
	e.setFloat("SKYSCRAPPER_RPS", &c.SkyScrapper.RequestsPerSecond)

	e.setString("COORDINATES_SOURCE", &c.Coordinates.Source)
	e.setString("COORDINATES_PATH", &c.Coordinates.Path)
	e.setString("COORDINATES_URL", &c.Coordinates.URL)
	e.setString("COORDINATES_SQLITE_PATH", &c.Coordinates.SQLitePath)
	e.setInt("COORDINATES_MAX_RETRIES", &c.Coordinates.MaxRetries)

	e.setString("DB_HOST", &c.Database.Host)
	e.setInt("DB_PORT", &c.Database.Port)
	e.setString("DB_USER", &c.Database.User)
	e.setString("DB_PASSWORD", &c.Database.Password)
	e.setString("DB_NAME", &c.Database.Database)
	e.setString("DB_SSL_MODE", &c.Database.SSLMode)
	e.setInt("DB_MAX_OPEN_CONNS", &c.Database.MaxOpenConns)
	e.setInt("DB_MAX_IDLE_CONNS", &c.Database.MaxIdleConns)
	e.setDuration("DB_CONN_MAX_LIFETIME", &c.Database.ConnMaxLifetime)

	e.setBool("OTEL_ENABLED", &c.Telemetry.Enabled)
	e.setString("OTEL_EXPORTER_OTLP_ENDPOINT", &c.Telemetry.OTLPEndpoint)
	e.setFloat("OTEL_SAMPLE_RATIO", &c.Telemetry.SampleRatio)
	e.setDuration("OTEL_METRIC_INTERVAL", &c.Telemetry.MetricInterval)

	e.setInt("RATE_LIMIT_RPM", &c.RateLimit.RequestsPerMinute)
	e.setInt("RATE_LIMIT_SEARCH_RPM", &c.RateLimit.SearchesPerMinute)

	return errors.Join(e.errs...)
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Coordinates.Source {
	case SourceNone, SourceFile, SourcePostgres, SourceSQLite:
	case SourceURL:
		if c.Coordinates.URL == "" {
			errs = append(errs, errors.New("coordinates.url is required for the url source"))
		}
	default:
		errs = append(errs, fmt.Errorf("coordinates.source %q is not one of none, file, url, postgres, sqlite", c.Coordinates.Source))
	}
	if c.SkyScrapper.RequestsPerSecond < 0 {
		errs = append(errs, errors.New("sky_scrapper.requests_per_second must not be negative"))
	}
	if c.Coordinates.MaxRetries < 0 {
		errs = append(errs, errors.New("coordinates.max_retries must not be negative"))
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("telemetry.sample_ratio %v must be between 0 and 1", c.Telemetry.SampleRatio))
	}
	if c.RateLimit.RequestsPerMinute < 0 || c.RateLimit.SearchesPerMinute < 0 {
		errs = append(errs, errors.New("rate limits must not be negative"))
	}

	return errors.Join(errs...)
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *envReader) value(key string) (string, bool) {
	v, ok := e.lookup(key)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (e *envReader) setString(key string, dst *string) {
	if v, ok := e.value(key); ok {
		*dst = v
	}
}

func (e *envReader) setInt(key string, dst *int) {
	if v, ok := e.value(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *envReader) setFloat(key string, dst *float64) {
	if v, ok := e.value(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
}

func (e *envReader) setBool(key string, dst *bool) {
	if v, ok := e.value(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
}

func (e *envReader) setDuration(key string, dst *time.Duration) {
	if v, ok := e.value(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
}
