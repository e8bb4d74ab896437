// config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port string `yaml:"port" validate:"required,numeric"`
}

type DatabaseConfig struct {
	// DSN takes precedence over the individual fields when set.
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// Configured reports whether a real database should be used.
func (d DatabaseConfig) Configured() bool {
	return d.DSN != "" || (d.Host != "" && d.DBName != "")
}

type IRailConfig struct {
	BaseURL        string  `yaml:"base_url" validate:"required,url"`
	UserAgent      string  `yaml:"user_agent" validate:"required"`
	Format         string  `yaml:"format" validate:"oneof=json"`
	Lang           string  `yaml:"lang" validate:"oneof=en nl fr de"`
	TimeoutStr     string  `yaml:"timeout"`
	RetryDelayStr  string  `yaml:"retry_delay"`
	MaxRetries     int     `yaml:"max_retries" validate:"gte=0,lte=5"`
	RequestsPerSec float64 `yaml:"requests_per_second" validate:"gt=0,lte=3"`

	Timeout    time.Duration `yaml:"-"`
	RetryDelay time.Duration `yaml:"-"`
}

type CollectorConfig struct {
	Stations               []string `yaml:"stations" validate:"min=1,dive,required"`
	IntervalStr            string   `yaml:"interval"`
	StationSyncIntervalStr string   `yaml:"station_sync_interval"`
	RunOnStartup           bool     `yaml:"run_on_startup"`

	Interval            time.Duration `yaml:"-"`
	StationSyncInterval time.Duration `yaml:"-"`
}

type CacheConfig struct {
	StationsTTLStr string `yaml:"stations_ttl"`
	Size           int    `yaml:"size" validate:"gte=0"`

	StationsTTL time.Duration `yaml:"-"`
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	IRail     IRailConfig     `yaml:"irail"`
	Collector CollectorConfig `yaml:"collector"`
	Cache     CacheConfig     `yaml:"cache"`
}

// DefaultStations are the major Belgian stations monitored when none are configured.
var DefaultStations = []string{
	"BE.NMBS.008812005", // Brussels-Central
	"BE.NMBS.008813003", // Brussels-North
	"BE.NMBS.008814001", // Brussels-South
	"BE.NMBS.008821006", // Antwerp-Central
	"BE.NMBS.008892007", // Gent-Sint-Pieters
	"BE.NMBS.008833001", // Leuven
	"BE.NMBS.008872009", // Charleroi-Central
	"BE.NMBS.008891009", // Brugge
	"BE.NMBS.008841004", // Liege-Guillemins
}

// Default returns a configuration usable without any file.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: "8080"},
		IRail: IRailConfig{
			BaseURL:        "https://api.irail.be",
			UserAgent:      "trainboard/1.0 (+https://github.com/gewnthar/trainboard)",
			Format:         "json",
			Lang:           "en",
			TimeoutStr:     "30s",
			RetryDelayStr:  "1s",
			MaxRetries:     2,
			RequestsPerSec: 3,
		},
		Collector: CollectorConfig{
			Stations:               append([]string(nil), DefaultStations...),
			IntervalStr:            "1h",
			StationSyncIntervalStr: "24h",
		},
		Cache: CacheConfig{
			StationsTTLStr: "10m",
			Size:           64,
		},
	}
}

// LoadConfig reads the YAML file at configPath (optional), then a .env file if present,
// then applies environment overrides. Durations are parsed and the result validated.
func LoadConfig(configPath string) (Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// .env is a local convenience; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnv(&cfg)

	if err := cfg.parseDurations(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, keys ...string) {
		for _, k := range keys {
			if v := strings.TrimSpace(os.Getenv(k)); v != "" {
				*dst = v
				return
			}
		}
	}
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Database.DSN, "DATABASE_DSN", "SQL_CONNECTION_STRING")
	setString(&cfg.IRail.BaseURL, "IRAIL_API_BASE_URL")
	setString(&cfg.IRail.UserAgent, "USER_AGENT")
	setString(&cfg.IRail.Lang, "IRAIL_LANG")
	setString(&cfg.IRail.Format, "IRAIL_FORMAT")

	if v := strings.TrimSpace(os.Getenv("COLLECTOR_STATIONS")); v != "" {
		var stations []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				stations = append(stations, s)
			}
		}
		cfg.Collector.Stations = stations
	}
}

func (c *Config) parseDurations() error {
	parse := func(name, raw string, fallback time.Duration) (time.Duration, error) {
		if raw == "" {
			return fallback, nil
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return 0, fmt.Errorf("failed to parse %s: %w", name, err)
		}
		return d, nil
	}

	var err error
	if c.IRail.Timeout, err = parse("irail.timeout", c.IRail.TimeoutStr, 30*time.Second); err != nil {
		return err
	}
	if c.IRail.RetryDelay, err = parse("irail.retry_delay", c.IRail.RetryDelayStr, time.Second); err != nil {
		return err
	}
	if c.Collector.Interval, err = parse("collector.interval", c.Collector.IntervalStr, time.Hour); err != nil {
		return err
	}
	if c.Collector.StationSyncInterval, err = parse("collector.station_sync_interval", c.Collector.StationSyncIntervalStr, 24*time.Hour); err != nil {
		return err
	}
	if c.Cache.StationsTTL, err = parse("cache.stations_ttl", c.Cache.StationsTTLStr, 10*time.Minute); err != nil {
		return err
	}
	return nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.IRail.Timeout <= 0 {
		return fmt.Errorf("invalid configuration: irail.timeout must be positive")
	}
	if c.Collector.Interval <= 0 {
		return fmt.Errorf("invalid configuration: collector.interval must be positive")
	}
	return nil
}
