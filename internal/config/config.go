// Package config holds tincture's runtime configuration.
//
// Values are layered: Default, then TINCTURE_* environment variables, then
// command-line flags bound with BindFlags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/jmylchreest/tincture/internal/sampler"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "TINCTURE_"

// MaxTitleLength is the longest preview title accepted, in runes.
const MaxTitleLength = 20

// Config is the full set of tunables.
type Config struct {
	ViewportWidth  int
	ViewportHeight int
	MinZoom        float64
	MaxZoom        float64
	ZoomStep       float64
	DPR            float64

	HelpSource   string
	ClipboardCmd string
	HTTPTimeout  time.Duration
	Watch        bool
	Title        string
}

// Default returns the built-in configuration.
func Default() Config {
	sc := sampler.DefaultConfig()
	return Config{
		ViewportWidth:  sc.MaxViewportWidth,
		ViewportHeight: sc.MaxViewportHeight,
		MinZoom:        sc.MinScale,
		MaxZoom:        sc.MaxScale,
		ZoomStep:       sc.ZoomStep,
		DPR:            1,
		HTTPTimeout:    30 * time.Second,
		Title:          "Pokemon",
	}
}

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides fields from TINCTURE_* variables. Unparseable values
// are reported and leave the field unchanged.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var errs []error
	float := func(name string, dst *float64) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = f
		}
	}
	integer := func(name string, dst *int) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("invalid %s%s: %w", EnvPrefix, name, err))
				return
			}
			*dst = n
		}
	}
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok {
			*dst = v
		}
	}

	integer("VIEWPORT_WIDTH", &c.ViewportWidth)
	integer("VIEWPORT_HEIGHT", &c.ViewportHeight)
	float("MIN_ZOOM", &c.MinZoom)
	float("MAX_ZOOM", &c.MaxZoom)
	float("ZOOM_STEP", &c.ZoomStep)
	float("DPR", &c.DPR)
	str("HELP", &c.HelpSource)
	str("CLIPBOARD", &c.ClipboardCmd)
	str("TITLE", &c.Title)

	if v, ok := lookup(EnvPrefix + "HTTP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %sHTTP_TIMEOUT: %w", EnvPrefix, err))
		} else {
			c.HTTPTimeout = d
		}
	}
	if v, ok := lookup(EnvPrefix + "WATCH"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %sWATCH: %w", EnvPrefix, err))
		} else {
			c.Watch = b
		}
	}

	return errors.Join(errs...)
}

// BindFlags registers flags on fs using the current values as defaults, so
// call it after ApplyEnv for flags to take precedence over the environment.
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.IntVar(&c.ViewportWidth, "viewport-width", c.ViewportWidth, "Maximum viewport width in pixels")
	fs.IntVar(&c.ViewportHeight, "viewport-height", c.ViewportHeight, "Maximum viewport height in pixels")
	fs.Float64Var(&c.MinZoom, "min-zoom", c.MinZoom, "Minimum zoom factor")
	fs.Float64Var(&c.MaxZoom, "max-zoom", c.MaxZoom, "Maximum zoom factor")
	fs.Float64Var(&c.ZoomStep, "zoom-step", c.ZoomStep, "Zoom factor applied per wheel step")
	fs.Float64Var(&c.DPR, "dpr", c.DPR, "Device pixel ratio for pointer coordinates")
	fs.StringVar(&c.HelpSource, "help-source", c.HelpSource, "Instructions URL or file (empty for built-in text)")
	fs.StringVar(&c.ClipboardCmd, "clipboard-cmd", c.ClipboardCmd, "Command that reads clipboard text from stdin, used instead of the system clipboard")
	fs.DurationVar(&c.HTTPTimeout, "http-timeout", c.HTTPTimeout, "Timeout for HTTP fetches")
	fs.BoolVar(&c.Watch, "watch", c.Watch, "Reload the reference image when the file changes")
	fs.StringVar(&c.Title, "title", c.Title, "Preview title (max 20 characters)")
}

// Validate checks the configuration for values the sampler cannot use.
func (c Config) Validate() error {
	if err := c.SamplerConfig().Validate(); err != nil {
		return err
	}
	if c.DPR <= 0 {
		return fmt.Errorf("dpr must be positive, got %g", c.DPR)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("http timeout must not be negative, got %s", c.HTTPTimeout)
	}
	if n := len([]rune(c.Title)); n > MaxTitleLength {
		return fmt.Errorf("title is %d characters, maximum is %d", n, MaxTitleLength)
	}
	return nil
}

// SamplerConfig returns the sampler portion of the configuration.
func (c Config) SamplerConfig() sampler.Config {
	return sampler.Config{
		MaxViewportWidth:  c.ViewportWidth,
		MaxViewportHeight: c.ViewportHeight,
		MinScale:          c.MinZoom,
		MaxScale:          c.MaxZoom,
		ZoomStep:          c.ZoomStep,
	}
}

// TruncateTitle limits s to MaxTitleLength runes.
func TruncateTitle(s string) string {
	r := []rune(s)
	if len(r) > MaxTitleLength {
		return string(r[:MaxTitleLength])
	}
	return s
}
