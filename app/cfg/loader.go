package cfg

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

// ErrHelp is returned when help output was requested and printed.
var ErrHelp = errors.New("help requested")

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Storage configuration
	DBPath    string `long:"db-path" env:"DB_PATH" default:"./content-comb.db" description:"Path to the sqlite content store"`
	MediaRoot string `long:"media-root" env:"MEDIA_ROOT" default:"./media" description:"Directory imported media files are written to"`
	MediaURL  string `long:"media-url" env:"MEDIA_URL" default:"/media" description:"Public URL prefix of the media directory"`

	// Source configuration
	FeedsDir     string        `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory containing feed configuration files"`
	LegacyRoot   string        `long:"legacy-root" env:"LEGACY_ROOT" description:"Root directory of the legacy content tree"`
	LegacyServer string        `long:"legacy-server" env:"LEGACY_SERVER" default:"https://legacy.python.org" description:"Base URL legacy success story images are downloaded from"`
	ImageTimeout time.Duration `long:"image-timeout" env:"IMAGE_TIMEOUT" default:"10s" description:"Timeout for each legacy image download"`

	// Server configuration
	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for blog updates"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"60" description:"Scheduler interval in seconds"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for the feed management endpoints (optional)"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Content Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`

	ImportPages       struct{} `command:"import-pages" description:"Import the legacy content tree into pages"`
	UpdateBlogs       struct{} `command:"update-blogs" description:"Fetch every enabled feed and refresh the supernav box"`
	RepairStoryImages struct{} `command:"repair-story-images" description:"Download and relink success story images"`
	MigrateStories    struct{} `command:"migrate-stories" description:"Build success stories from imported pages"`
	Serve             struct{} `command:"serve" description:"Run the blog scheduler and the HTTP API"`
}

func Load() (*Cfg, error) {
	return Parse(os.Args[1:])
}

// Parse reads the command line in args, falling back to the environment and
// then to the defaults for every option not given.
func Parse(args []string) (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.ParseArgs(args); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	if parser.Active == nil {
		return nil, fmt.Errorf("failed to parse configuration: no command given")
	}

	cfg := &Cfg{
		Command:           Command(parser.Active.Name),
		DBPath:            raw.DBPath,
		MediaRoot:         raw.MediaRoot,
		MediaURL:          raw.MediaURL,
		FeedsDir:          raw.FeedsDir,
		LegacyRoot:        raw.LegacyRoot,
		LegacyServer:      raw.LegacyServer,
		ImageTimeout:      raw.ImageTimeout,
		Port:              raw.Port,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		APIAccessKey:      raw.APIAccessKey,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if cfg.ImageTimeout <= 0 {
		return nil, fmt.Errorf("image timeout must be positive, got %s", cfg.ImageTimeout)
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", cfg.WorkerCount)
	}
	if cfg.SchedulerInterval < 1 {
		return nil, fmt.Errorf("scheduler interval must be at least 1 second, got %d", cfg.SchedulerInterval)
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
			fmt.Printf("Timezone configured: %s\n", timezone)
		}
	}
	return nil
}
