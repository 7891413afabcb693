package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Database configuration
	DBPath   string `long:"db-path" env:"DB_PATH" default:"newshub.sqlite" description:"Path to the SQLite database file"`
	SeedFile string `long:"seed-file" env:"SEED_FILE" default:"./feeds.yml" description:"YAML file with categories and feeds to seed"`

	// Application configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Maximum number of feeds processed concurrently"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Scheduled ingestion interval in seconds"`
	RunOnStartup      bool   `long:"run-on-startup" env:"RUN_ON_STARTUP" description:"Run ingestion once right after startup"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`

	// Ingestion configuration
	MaxArticlesPerFeed int `long:"max-articles-per-feed" env:"NEWSHUB_MAX_ARTICLES_PER_FEED" default:"100" description:"Maximum items taken from a feed document per run"`
	FetchTimeout       int `long:"fetch-timeout" env:"FETCH_TIMEOUT" default:"10" description:"Feed fetch timeout in seconds"`
	MaxRedirects       int `long:"max-redirects" env:"MAX_REDIRECTS" default:"5" description:"Maximum redirects followed per fetch"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"NewsHub RSS Parser 1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
	LogFormat string `long:"log-format" env:"LOG_FORMAT" default:"text" choice:"text" choice:"json" description:"Log output format"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	return LoadArgs(nil)
}

// LoadArgs parses the given arguments instead of os.Args when args is non-nil.
func LoadArgs(args []string) (*Cfg, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		SeedFile:           raw.SeedFile,
		Port:               raw.Port,
		WorkerCount:        raw.WorkerCount,
		SchedulerInterval:  raw.SchedulerInterval,
		RunOnStartup:       raw.RunOnStartup,
		APIAccessKey:       raw.APIAccessKey,
		MaxArticlesPerFeed: raw.MaxArticlesPerFeed,
		FetchTimeout:       raw.FetchTimeout,
		MaxRedirects:       raw.MaxRedirects,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		LogFormat:          raw.LogFormat,
		Version:            GetVersion(),
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
	positiveFields := map[string]int{
		"worker count":          cfg.WorkerCount,
		"scheduler interval":    cfg.SchedulerInterval,
		"max articles per feed": cfg.MaxArticlesPerFeed,
		"fetch timeout":         cfg.FetchTimeout,
		"max redirects":         cfg.MaxRedirects,
	}

	for fieldName, fieldValue := range positiveFields {
		if fieldValue <= 0 {
			return fmt.Errorf("%s must be positive, got %d", fieldName, fieldValue)
		}
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
