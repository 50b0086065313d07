package cli

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/stackreport/pkg/capture"
	"github.com/matzehuels/stackreport/pkg/errors"
	"github.com/matzehuels/stackreport/pkg/export"
	"github.com/matzehuels/stackreport/pkg/export/delivery"
	"github.com/matzehuels/stackreport/pkg/layout"
)

// configFile is the name looked up in the config directory when --config
// is not given.
const configFile = "stackreport.toml"

// Config is the stackreport.toml file. Flags override file values.
type Config struct {
	Title    string `toml:"title"`
	Basename string `toml:"basename"`

	// Formats selects the default export formats ("csv", "pdf", "xlsx").
	Formats []string `toml:"formats"`
	OutDir  string   `toml:"out"`

	Page    PageConfig        `toml:"page"`
	Capture CaptureConfig     `toml:"capture"`
	Waiter  WaiterConfig      `toml:"waiter"`
	Redis   RedisConfig       `toml:"redis"`
	S3      delivery.S3Config `toml:"s3"`
}

// PageConfig overrides document geometry, in points.
type PageConfig struct {
	Width    float64 `toml:"width"`
	Height   float64 `toml:"height"`
	Margin   float64 `toml:"margin"`
	FontSize float64 `toml:"font_size"`
}

// CaptureConfig tunes image capture.
type CaptureConfig struct {
	NativeTimeout time.Duration `toml:"native_timeout"`
	RasterTimeout time.Duration `toml:"raster_timeout"`
	RasterScale   float64       `toml:"raster_scale"`
	CacheTTL      time.Duration `toml:"cache_ttl"`
	NoCache       bool          `toml:"no_cache"`
	ChartWidth    int           `toml:"chart_width"`
	ChartHeight   int           `toml:"chart_height"`
}

// WaiterConfig tunes the wait for capture targets to be registered.
type WaiterConfig struct {
	Attempts int           `toml:"attempts"`
	Delay    time.Duration `toml:"delay"`
}

// RedisConfig points at a Redis holding JSON-encoded series.
type RedisConfig struct {
	Addr   string   `toml:"addr"`
	Prefix string   `toml:"prefix"`
	Series []string `toml:"series"`
}

func defaultConfig() Config {
	return Config{
		Basename: export.DefaultBasename,
		Formats:  []string{string(export.FormatCSV), string(export.FormatDocument)},
		OutDir:   ".",
		Capture: CaptureConfig{
			NativeTimeout: capture.DefaultNativeTimeout,
			RasterScale:   capture.DefaultRasterScale,
			CacheTTL:      24 * time.Hour,
			ChartWidth:    capture.DefaultWidth,
			ChartHeight:   capture.DefaultHeight,
		},
		Waiter: WaiterConfig{Attempts: capture.DefaultAttempts, Delay: capture.DefaultDelay},
		Redis:  RedisConfig{Prefix: "stackreport:series:"},
	}
}

// loadConfig reads path, or the default config file when path is empty.
// A missing default file is not an error.
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	explicit := path != ""
	if !explicit {
		dir, err := configDir()
		if err != nil {
			cfg.applyEnv()
			return cfg, nil
		}
		path = filepath.Join(dir, configFile)
	}

	if _, err := os.Stat(path); err != nil {
		if !explicit && os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "config %s", path)
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, errors.New(errors.ErrCodeInvalidConfig, "unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	cfg.applyEnv()
	return cfg, cfg.validate()
}

// applyEnv lets credentials stay out of the config file.
func (c *Config) applyEnv() {
	if v := os.Getenv("STACKREPORT_S3_KEY"); v != "" {
		c.S3.Key = v
	}
	if v := os.Getenv("STACKREPORT_S3_SECRET"); v != "" {
		c.S3.Secret = v
	}
	if v := os.Getenv("STACKREPORT_REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
}

func (c Config) validate() error {
	if _, err := parseFormats(c.Formats); err != nil {
		return err
	}
	if c.Capture.NativeTimeout < 0 || c.Capture.RasterTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "capture timeouts cannot be negative")
	}
	if c.Waiter.Attempts < 0 || c.Waiter.Delay < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "waiter attempts and delay cannot be negative")
	}
	return nil
}

// layout returns the document geometry with unset fields defaulted.
func (c Config) layout() layout.Config {
	cfg := layout.Config{
		PageWidth:  c.Page.Width,
		PageHeight: c.Page.Height,
		FontSize:   c.Page.FontSize,
	}
	if c.Page.Margin > 0 {
		cfg.MarginTop, cfg.MarginRight, cfg.MarginBottom, cfg.MarginLeft = c.Page.Margin, c.Page.Margin, c.Page.Margin, c.Page.Margin
	}
	return cfg.WithDefaults()
}

func (c Config) waiter() capture.Waiter {
	w := capture.DefaultWaiter()
	if c.Waiter.Attempts > 0 {
		w.Attempts = c.Waiter.Attempts
	}
	if c.Waiter.Delay > 0 {
		w.Delay = c.Waiter.Delay
	}
	return w
}

// parseFormats maps format names to a selection. "document" is accepted
// as an alias for "pdf".
func parseFormats(names []string) (export.Formats, error) {
	var f export.Formats
	for _, name := range names {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "":
		case string(export.FormatCSV):
			f.CSV = true
		case string(export.FormatDocument), "document":
			f.Document = true
		case string(export.FormatXLSX):
			f.XLSX = true
		default:
			return f, errors.New(errors.ErrCodeInvalidConfig, "unknown format %q (want csv, pdf or xlsx)", name)
		}
	}
	return f, nil
}
