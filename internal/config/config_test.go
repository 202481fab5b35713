package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.OneInch.APIKey = "test-key"
	cfg.Monitor.ResolverAddress = "0x1111111111111111111111111111111111111111"
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Scanner.PageSize != 500 {
		t.Errorf("PageSize = %d, want 500", cfg.Scanner.PageSize)
	}
	if cfg.Scanner.EvalLimit != 50 {
		t.Errorf("EvalLimit = %d, want 50", cfg.Scanner.EvalLimit)
	}
	if cfg.Scanner.Concurrency != 8 {
		t.Errorf("Concurrency = %d, want 8", cfg.Scanner.Concurrency)
	}
	if cfg.Scanner.EvalTimeout.Duration != 10*time.Second {
		t.Errorf("EvalTimeout = %v, want 10s", cfg.Scanner.EvalTimeout.Duration)
	}
	if cfg.Scanner.MaxResults != 10 {
		t.Errorf("MaxResults = %d, want 10", cfg.Scanner.MaxResults)
	}
	if len(cfg.Scanner.MajorChains) != 7 {
		t.Errorf("MajorChains = %v, want 7 networks", cfg.Scanner.MajorChains)
	}
	if cfg.Mode != "scan" {
		t.Errorf("Mode = %q, want scan", cfg.Mode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad mode", func(c *Config) { c.Mode = "turbo" }, "unknown mode"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "unknown log_level"},
		{"missing api key", func(c *Config) { c.OneInch.APIKey = "" }, "api_key"},
		{"missing resolver for scan", func(c *Config) { c.Monitor.ResolverAddress = "" }, "resolver_address"},
		{
			"server mode needs no resolver",
			func(c *Config) {
				c.Mode = "server"
				c.Monitor.ResolverAddress = ""
			},
			"",
		},
		{"malformed resolver", func(c *Config) { c.Monitor.ResolverAddress = "0x123" }, "not a valid address"},
		{"zero page size", func(c *Config) { c.Scanner.PageSize = 0 }, "page_size"},
		{
			"inverted thresholds",
			func(c *Config) { c.Scanner.MonitorThreshold = 70 },
			"monitor_threshold",
		},
		{"negative chain id", func(c *Config) { c.Scanner.MajorChains = []int64{1, -5} }, "chain ids"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "monitor"
log_level = "debug"

[oneinch]
api_key = "file-key"

[scanner]
eval_limit = 25

[monitor]
resolver_address = "0x1111111111111111111111111111111111111111"
interval = "2m"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Mode != "monitor" {
		t.Errorf("Mode = %q, want monitor", cfg.Mode)
	}
	if cfg.Scanner.EvalLimit != 25 {
		t.Errorf("EvalLimit = %d, want file override 25", cfg.Scanner.EvalLimit)
	}
	// Untouched fields keep their defaults.
	if cfg.Scanner.PageSize != 500 {
		t.Errorf("PageSize = %d, want default 500", cfg.Scanner.PageSize)
	}
	if cfg.Monitor.Interval.Duration != 2*time.Minute {
		t.Errorf("Interval = %v, want 2m", cfg.Monitor.Interval.Duration)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
[oneinch]
api_key = "file-key"

[monitor]
resolver_address = "0x1111111111111111111111111111111111111111"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("FUSIONSCAN_ONEINCH_API_KEY", "env-key")
	t.Setenv("FUSIONSCAN_SCANNER_CONCURRENCY", "4")
	t.Setenv("FUSIONSCAN_MONITOR_TARGET_CHAINS", "1, 8453")
	t.Setenv("FUSIONSCAN_MONITOR_INTERVAL", "30s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.OneInch.APIKey != "env-key" {
		t.Errorf("APIKey = %q, want env override", cfg.OneInch.APIKey)
	}
	if cfg.Scanner.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Scanner.Concurrency)
	}
	if len(cfg.Monitor.TargetChains) != 2 || cfg.Monitor.TargetChains[1] != 8453 {
		t.Errorf("TargetChains = %v, want [1 8453]", cfg.Monitor.TargetChains)
	}
	if cfg.Monitor.Interval.Duration != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", cfg.Monitor.Interval.Duration)
	}
}
