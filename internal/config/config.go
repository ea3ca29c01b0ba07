// Package config assembles watcher settings from defaults, an optional
// YAML file, environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/qepting91/campsite-watcher/internal/domain"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

const (
	DefaultIntervalMinutes = 5
	DefaultMinNights       = 1
	DefaultCollector       = "recgov"
	DefaultLogLevel        = "info"
)

var (
	monthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)
	dayRe   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

type Config struct {
	Campgrounds     []string `yaml:"campgrounds"`
	CampgroundsFile string   `yaml:"campgrounds_file"`
	Months          []string `yaml:"months"`
	IntervalMinutes float64  `yaml:"interval"`
	MinNights       int      `yaml:"min_nights"`
	StartDates      []string `yaml:"start_dates"`
	TelegramToken   string   `yaml:"telegram_token"`
	TelegramChatID  string   `yaml:"telegram_chat_id"`
	NotifyPartial   bool     `yaml:"notify_partial"`
	Collector       string   `yaml:"collector"`
	DashboardPort   string   `yaml:"dashboard_port"`
	LogLevel        string   `yaml:"log_level"`
}

func Default() Config {
	return Config{
		IntervalMinutes: DefaultIntervalMinutes,
		MinNights:       DefaultMinNights,
		Collector:       DefaultCollector,
		LogLevel:        DefaultLogLevel,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	cfg.Campgrounds = cleanList(cfg.Campgrounds)
	cfg.Months = cleanList(cfg.Months)
	cfg.StartDates = cleanList(cfg.StartDates)
	return nil
}

// RegisterFlags declares every watcher flag on fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "YAML config file (env CONFIG_FILE)")
	fs.String("campgrounds", "", "comma-separated campground ids (env CAMPGROUND_IDS)")
	fs.String("campgrounds-file", "", "CSV file of campground ids, header row first (env CAMPGROUNDS_FILE)")
	fs.String("months", "", "comma-separated months, YYYY-MM (env MONTHS)")
	fs.Float64("interval", DefaultIntervalMinutes, "poll interval in minutes (env INTERVAL)")
	fs.Int("min-nights", DefaultMinNights, "minimum consecutive nights (env MIN_NIGHTS)")
	fs.String("start-dates", "", "comma-separated allowed start dates, YYYY-MM-DD (env START_DATES)")
	fs.String("telegram-token", "", "Telegram bot token (env TELEGRAM_TOKEN)")
	fs.String("telegram-chat-id", "", "Telegram chat id (env TELEGRAM_CHAT_ID)")
	fs.Bool("notify-partial", false, "also notify when nights are open but no run qualifies (env NOTIFY_PARTIAL)")
	fs.String("collector", DefaultCollector, "availability source: recgov or mock (env COLLECTOR_MODE)")
	fs.String("dashboard-port", "", "serve the dashboard on this port, empty disables (env DASHBOARD_PORT)")
	fs.String("log-level", DefaultLogLevel, "debug, info, warn or error (env LOG_LEVEL)")
}

// Resolve builds the configuration. lookupEnv is usually os.LookupEnv.
func Resolve(fs *pflag.FlagSet, lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Default()
	env := func(key string) (string, bool) {
		v, ok := lookupEnv(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	path, _ := fs.GetString("config")
	if !fs.Changed("config") {
		path, _ = env("CONFIG_FILE")
	}
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	var errs []string
	str := func(flag, key string, dst *string) {
		if fs.Changed(flag) {
			*dst, _ = fs.GetString(flag)
		} else if v, ok := env(key); ok {
			*dst = v
		}
		*dst = strings.TrimSpace(*dst)
	}
	list := func(flag, key string, dst *[]string) {
		if fs.Changed(flag) {
			v, _ := fs.GetString(flag)
			*dst = SplitList(v)
		} else if v, ok := env(key); ok {
			*dst = SplitList(v)
		}
	}

	list("campgrounds", "CAMPGROUND_IDS", &cfg.Campgrounds)
	list("months", "MONTHS", &cfg.Months)
	list("start-dates", "START_DATES", &cfg.StartDates)
	str("campgrounds-file", "CAMPGROUNDS_FILE", &cfg.CampgroundsFile)
	str("telegram-token", "TELEGRAM_TOKEN", &cfg.TelegramToken)
	str("telegram-chat-id", "TELEGRAM_CHAT_ID", &cfg.TelegramChatID)
	str("collector", "COLLECTOR_MODE", &cfg.Collector)
	str("dashboard-port", "DASHBOARD_PORT", &cfg.DashboardPort)
	str("log-level", "LOG_LEVEL", &cfg.LogLevel)

	if fs.Changed("interval") {
		cfg.IntervalMinutes, _ = fs.GetFloat64("interval")
	} else if v, ok := env("INTERVAL"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("INTERVAL %q is not a number", v))
		}
		cfg.IntervalMinutes = f
	}

	if fs.Changed("min-nights") {
		cfg.MinNights, _ = fs.GetInt("min-nights")
	} else if v, ok := env("MIN_NIGHTS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Sprintf("MIN_NIGHTS %q is not an integer", v))
		}
		cfg.MinNights = n
	}

	if fs.Changed("notify-partial") {
		cfg.NotifyPartial, _ = fs.GetBool("notify-partial")
	} else if v, ok := env("NOTIFY_PARTIAL"); ok {
		cfg.NotifyPartial = v == "true"
	}

	if len(errs) > 0 {
		return cfg, fmt.Errorf("invalid environment: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

// Validate reports fatal configuration problems.
func (c Config) Validate() error {
	if len(c.Campgrounds) == 0 {
		return fmt.Errorf("CAMPGROUND_IDS is required: pass --campgrounds, --campgrounds-file or set the environment variable")
	}
	if len(c.Months) == 0 {
		return fmt.Errorf("MONTHS is required (e.g. 2026-05): pass --months or set the environment variable")
	}
	for _, m := range c.Months {
		if !monthRe.MatchString(m) {
			return fmt.Errorf("month %q is not in YYYY-MM form", m)
		}
	}
	for _, d := range c.StartDates {
		if _, err := time.Parse("2006-01-02", d); err != nil || !dayRe.MatchString(d) {
			return fmt.Errorf("start date %q is not a valid YYYY-MM-DD date", d)
		}
	}
	if c.MinNights < 1 {
		return fmt.Errorf("min nights must be at least 1, got %d", c.MinNights)
	}
	if math.IsNaN(c.IntervalMinutes) || math.IsInf(c.IntervalMinutes, 0) || c.Interval() <= 0 {
		return fmt.Errorf("interval must be a positive number of minutes, got %v", c.IntervalMinutes)
	}
	return nil
}

// TelegramEnabled reports whether both credentials are present.
func (c Config) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != ""
}

func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes * float64(time.Minute))
}

func (c Config) PollConfig() domain.PollConfig {
	return domain.PollConfig{
		CampgroundIDs: c.Campgrounds,
		Months:        c.Months,
		MinNights:     c.MinNights,
		StartDates:    c.StartDates,
		Interval:      c.Interval(),
		NotifyPartial: c.NotifyPartial,
	}
}

// SplitList splits a comma-separated value, trimming entries and dropping
// empties and repeats while keeping first-seen order.
func SplitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

// MergeIDs appends extra ids not already present in ids.
func MergeIDs(ids, extra []string) []string {
	return cleanList(append(append([]string{}, ids...), extra...))
}

func cleanList(in []string) []string {
	var out []string
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
