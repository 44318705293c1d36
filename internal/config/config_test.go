package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/pflag"

	"github.com/jmylchreest/tincture/internal/sampler"
)

func envMap(m map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if diff := cmp.Diff(sampler.DefaultConfig(), cfg.SamplerConfig()); diff != "" {
		t.Errorf("SamplerConfig() mismatch (-want +got):\n%s", diff)
	}
	if cfg.Title != "Pokemon" {
		t.Errorf("Title = %q, want Pokemon", cfg.Title)
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"TINCTURE_VIEWPORT_WIDTH": "800",
		"TINCTURE_MAX_ZOOM":       "12",
		"TINCTURE_DPR":            "2",
		"TINCTURE_HTTP_TIMEOUT":   "5s",
		"TINCTURE_WATCH":          "true",
		"TINCTURE_TITLE":          "Digimon",
	}))
	if err != nil {
		t.Fatalf("ApplyEnv() error = %v", err)
	}

	want := Default()
	want.ViewportWidth = 800
	want.MaxZoom = 12
	want.DPR = 2
	want.HTTPTimeout = 5 * time.Second
	want.Watch = true
	want.Title = "Digimon"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("ApplyEnv() mismatch (-want +got):\n%s", diff)
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(envMap(map[string]string{
		"TINCTURE_VIEWPORT_WIDTH": "wide",
		"TINCTURE_WATCH":          "maybe",
	}))
	if err == nil {
		t.Fatal("ApplyEnv() error = nil, want error")
	}
	if cfg.ViewportWidth != Default().ViewportWidth {
		t.Errorf("ViewportWidth changed to %d on invalid input", cfg.ViewportWidth)
	}
}

func TestFlagsOverrideEnv(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(envMap(map[string]string{
		"TINCTURE_DPR":   "2",
		"TINCTURE_TITLE": "FromEnv",
	})); err != nil {
		t.Fatal(err)
	}

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	cfg.BindFlags(fs)
	if err := fs.Parse([]string{"--dpr", "3"}); err != nil {
		t.Fatal(err)
	}

	if cfg.DPR != 3 {
		t.Errorf("DPR = %g, want 3 (flag)", cfg.DPR)
	}
	if cfg.Title != "FromEnv" {
		t.Errorf("Title = %q, want FromEnv (env, no flag)", cfg.Title)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "zero width", mutate: func(c *Config) { c.ViewportWidth = 0 }, wantErr: true},
		{name: "inverted zoom", mutate: func(c *Config) { c.MinZoom, c.MaxZoom = 4, 2 }, wantErr: true},
		{name: "zero dpr", mutate: func(c *Config) { c.DPR = 0 }, wantErr: true},
		{name: "long title", mutate: func(c *Config) { c.Title = "abcdefghijklmnopqrstu" }, wantErr: true},
		{name: "20 rune title", mutate: func(c *Config) { c.Title = "ポケモンポケモンポケモンポケモンポケモン" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTruncateTitle(t *testing.T) {
	if got := TruncateTitle("short"); got != "short" {
		t.Errorf("TruncateTitle(short) = %q", got)
	}
	if got := TruncateTitle("abcdefghijklmnopqrstuvwxyz"); got != "abcdefghijklmnopqrst" {
		t.Errorf("TruncateTitle(long) = %q", got)
	}
}
