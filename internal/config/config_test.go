package config

import (
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("watcher", pflag.ContinueOnError)
	RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parsing flags: %v", err)
	}
	return fs
}

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestResolveDefaults(t *testing.T) {
	cfg, err := Resolve(newFlags(t), envMap(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.IntervalMinutes != 5 || cfg.MinNights != 1 || cfg.Collector != "recgov" || cfg.NotifyPartial {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Validate() == nil {
		t.Error("expected validation to require campgrounds")
	}
}

func TestResolveEnvironment(t *testing.T) {
	cfg, err := Resolve(newFlags(t), envMap(map[string]string{
		"CAMPGROUND_IDS":   " 232447, ,232450,232447 ",
		"MONTHS":           "2026-05,2026-06",
		"INTERVAL":         "2.5",
		"MIN_NIGHTS":       "3",
		"START_DATES":      "2026-05-22",
		"TELEGRAM_TOKEN":   "tok",
		"TELEGRAM_CHAT_ID": "42",
		"NOTIFY_PARTIAL":   "true",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(cfg.Campgrounds, []string{"232447", "232450"}) {
		t.Errorf("unexpected campgrounds %v", cfg.Campgrounds)
	}
	if cfg.Interval() != 150*time.Second {
		t.Errorf("expected 2.5 minutes, got %v", cfg.Interval())
	}
	if cfg.MinNights != 3 || !cfg.NotifyPartial || !cfg.TelegramEnabled() {
		t.Errorf("unexpected config %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	pc := cfg.PollConfig()
	if pc.Requests() != 4 || pc.MinNights != 3 || pc.StartDates[0] != "2026-05-22" {
		t.Errorf("unexpected poll config %+v", pc)
	}
}

func TestResolveFlagsBeatEnvironment(t *testing.T) {
	fs := newFlags(t, "--campgrounds", "1,2", "--min-nights", "2", "--notify-partial=false", "--interval", "1")
	cfg, err := Resolve(fs, envMap(map[string]string{
		"CAMPGROUND_IDS": "9",
		"MONTHS":         "2026-07",
		"MIN_NIGHTS":     "5",
		"NOTIFY_PARTIAL": "true",
		"INTERVAL":       "30",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(cfg.Campgrounds, []string{"1", "2"}) {
		t.Errorf("expected flag campgrounds, got %v", cfg.Campgrounds)
	}
	if !slices.Equal(cfg.Months, []string{"2026-07"}) {
		t.Errorf("expected env months, got %v", cfg.Months)
	}
	if cfg.MinNights != 2 || cfg.NotifyPartial || cfg.IntervalMinutes != 1 {
		t.Errorf("flags should win: %+v", cfg)
	}
}

func TestResolveConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watcher.yaml")
	err := os.WriteFile(path, []byte(`
campgrounds: ["232447", "232450"]
months: ["2026-08"]
min_nights: 4
start_dates: ["2026-08-14"]
collector: mock
`), 0644)
	if err != nil {
		t.Fatal(err)
	}

	cfg, err := Resolve(newFlags(t, "--config", path), envMap(map[string]string{"MIN_NIGHTS": "2"}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(cfg.Campgrounds, []string{"232447", "232450"}) || cfg.Collector != "mock" {
		t.Errorf("file values not applied: %+v", cfg)
	}
	if cfg.MinNights != 2 {
		t.Errorf("environment should override file, got %d", cfg.MinNights)
	}
	if cfg.IntervalMinutes != DefaultIntervalMinutes {
		t.Errorf("absent key should keep default, got %v", cfg.IntervalMinutes)
	}

	if _, err := Resolve(newFlags(t), envMap(map[string]string{"CONFIG_FILE": filepath.Join(dir, "missing.yaml")})); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestResolveBadEnvironment(t *testing.T) {
	_, err := Resolve(newFlags(t), envMap(map[string]string{"MIN_NIGHTS": "two", "INTERVAL": "soon"}))
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "MIN_NIGHTS") || !strings.Contains(err.Error(), "INTERVAL") {
		t.Errorf("expected both variables named, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	valid := Config{Campgrounds: []string{"1"}, Months: []string{"2026-05"}, MinNights: 1, IntervalMinutes: 5}
	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no campgrounds", func(c *Config) { c.Campgrounds = nil }, "CAMPGROUND_IDS"},
		{"no months", func(c *Config) { c.Months = nil }, "MONTHS"},
		{"bad month", func(c *Config) { c.Months = []string{"2026-13"} }, "2026-13"},
		{"bad start date", func(c *Config) { c.StartDates = []string{"2026-02-30"} }, "2026-02-30"},
		{"zero nights", func(c *Config) { c.MinNights = 0 }, "min nights"},
		{"zero interval", func(c *Config) { c.IntervalMinutes = 0 }, "interval"},
		{"NaN interval", func(c *Config) { c.IntervalMinutes = math.NaN() }, "interval"},
		{"infinite interval", func(c *Config) { c.IntervalMinutes = math.Inf(1) }, "interval"},
		{"interval rounds to zero", func(c *Config) { c.IntervalMinutes = 1e-12 }, "interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestMergeIDs(t *testing.T) {
	got := MergeIDs([]string{"1", "2"}, []string{"2", "3", " "})
	if !slices.Equal(got, []string{"1", "2", "3"}) {
		t.Errorf("unexpected merge %v", got)
	}
}
