package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server configuration
	Port    string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	BaseUrl string `long:"base-url" env:"BASE_URL" description:"Public base URL for the service (e.g., https://podbrief.example.com)"`

	// Storage configuration
	DBPath string `long:"db-path" env:"DB_PATH" default:"./podbrief.db" description:"Path to the SQLite database file"`

	// Worker service configuration
	WorkerUrl       string `long:"worker-url" env:"WORKER_URL" description:"Base URL of the digest generation worker"`
	WorkerAccessKey string `long:"worker-key" env:"WORKER_ACCESS_KEY" description:"Shared key for worker callbacks and proxy calls"`

	// Application configuration
	TopicsFile string `long:"topics-file" env:"TOPICS_FILE" default:"./topics.yml" description:"Path to the topic catalog file"`
	UserAgent  string `long:"user-agent" env:"USER_AGENT" default:"podbrief/1.0" description:"User agent string for outgoing HTTP requests"`
	Timezone   string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for log timestamps (e.g., UTC, America/New_York)"`
	Debug      bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

// Load parses configuration from flags and environment variables. It is
// called exactly once at startup; missing or invalid deployment configuration
// fails the process here rather than surfacing on the first request.
func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:            raw.Port,
		BaseUrl:         raw.BaseUrl,
		DBPath:          raw.DBPath,
		WorkerUrl:       raw.WorkerUrl,
		WorkerAccessKey: raw.WorkerAccessKey,
		TopicsFile:      raw.TopicsFile,
		UserAgent:       raw.UserAgent,
		Timezone:        raw.Timezone,
		Debug:           raw.Debug,
		Version:         GetVersion(),
	}

	if cfg.BaseUrl == "" {
		cfg.BaseUrl = fmt.Sprintf("http://localhost:%s", cfg.Port)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func validate(cfg *Cfg) error {
	if cfg.DBPath == "" {
		return fmt.Errorf("db-path is required")
	}
	if cfg.Port == "" {
		return fmt.Errorf("port is required")
	}
	return nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
