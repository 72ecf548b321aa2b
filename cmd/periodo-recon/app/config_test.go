package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/periodo/reconciler/pkg/constants"
	"github.com/periodo/reconciler/pkg/errors"
)

// TestLoadConfig verifies defaults are applied.
func TestLoadConfig(t *testing.T) {
	config, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() failed: %v", err)
	}

	if config.Host != constants.DefaultHost {
		t.Errorf("Host = %s, want %s", config.Host, constants.DefaultHost)
	}
	if config.Method != "POST" {
		t.Errorf("Method = %s, want POST", config.Method)
	}
	if config.PageSize != constants.DefaultPageSize {
		t.Errorf("PageSize = %d, want %d", config.PageSize, constants.DefaultPageSize)
	}
	if config.LogFormat == "" {
		t.Error("LogFormat not set to default")
	}
	if err := config.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

// TestConfig_EnvironmentVariables verifies PERIODO_* variables are read.
func TestConfig_EnvironmentVariables(t *testing.T) {
	t.Setenv("PERIODO_HOST", "data.perio.do")
	t.Setenv("PERIODO_PROTOCOL", "https")
	t.Setenv("PERIODO_METHOD", "get")
	t.Setenv("PERIODO_PAGE_SIZE", "250")
	t.Setenv("PERIODO_TIMEOUT", "45s")

	config, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() failed: %v", err)
	}

	if config.Host != "data.perio.do" {
		t.Errorf("Host = %s, want data.perio.do", config.Host)
	}
	if config.Protocol != "https" {
		t.Errorf("Protocol = %s, want https", config.Protocol)
	}
	if config.Method != "GET" {
		t.Errorf("Method = %s, want GET", config.Method)
	}
	if config.PageSize != 250 {
		t.Errorf("PageSize = %d, want 250", config.PageSize)
	}
	if config.Timeout != 45*time.Second {
		t.Errorf("Timeout = %v, want 45s", config.Timeout)
	}
}

// TestConfig_File verifies an explicit config file is read and that a
// missing one is an error.
func TestConfig_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recon.yaml")
	content := "host: example.org:9000\nmode: single\nconcurrency: 4\ncache_size: 0\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	config, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() failed: %v", err)
	}
	if config.Host != "example.org:9000" {
		t.Errorf("Host = %s, want example.org:9000", config.Host)
	}
	if config.Mode != "single" || config.Concurrency != 4 || config.CacheSize != 0 {
		t.Errorf("got mode=%s concurrency=%d cache=%d", config.Mode, config.Concurrency, config.CacheSize)
	}
	if config.ConfigFile != path {
		t.Errorf("ConfigFile = %s, want %s", config.ConfigFile, path)
	}

	_, err = loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.IsConfiguration(err) {
		t.Errorf("missing file: got %v, want configuration error", err)
	}
}

// TestConfig_Validate verifies out-of-range settings are rejected.
func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		c, err := loadConfig("")
		if err != nil {
			t.Fatalf("loadConfig() failed: %v", err)
		}
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "protocol", mutate: func(c *Config) { c.Protocol = "ftp" }, field: "protocol"},
		{name: "method", mutate: func(c *Config) { c.Method = "put" }, field: "method"},
		{name: "mode", mutate: func(c *Config) { c.Mode = "stream" }, field: "mode"},
		{name: "page size", mutate: func(c *Config) { c.PageSize = 0 }, field: "pagesize"},
		{name: "concurrency", mutate: func(c *Config) { c.Concurrency = 64 }, field: "concurrency"},
		{name: "cache size", mutate: func(c *Config) { c.CacheSize = -1 }, field: "cachesize"},
		{name: "host", mutate: func(c *Config) { c.Host = "" }, field: "host"},
		{name: "format", mutate: func(c *Config) { c.Format = "xml" }, field: "format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			var cfgErr *errors.ConfigurationError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() = %v, want ConfigurationError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %s, want %s", cfgErr.Field, tt.field)
			}
		})
	}

	c := valid()
	c.Method = "get"
	if err := c.Validate(); err != nil {
		t.Errorf("lower-case method should validate: %v", err)
	}
	if c.Method != "GET" {
		t.Errorf("Method = %s, want GET", c.Method)
	}
}

// TestConfig_MergeUnset verifies that flags set on the command line win
// over a config file named with --config.
func TestConfig_MergeUnset(t *testing.T) {
	c := &Config{Host: "flag-host", Mode: "batch", PageSize: 10}
	other := &Config{Host: "file-host", Mode: "single", PageSize: 500, ConfigFile: "x.yaml"}

	c.MergeUnset(other, func(flag string) bool { return flag == "host" })

	if c.Host != "flag-host" {
		t.Errorf("Host = %s, want flag-host", c.Host)
	}
	if c.Mode != "single" {
		t.Errorf("Mode = %s, want single", c.Mode)
	}
	if c.PageSize != 500 {
		t.Errorf("PageSize = %d, want 500", c.PageSize)
	}
	if c.ConfigFile != "x.yaml" {
		t.Errorf("ConfigFile = %s, want x.yaml", c.ConfigFile)
	}
}

// TestConfig_UpdateFromFlags verifies flag updates.
func TestConfig_UpdateFromFlags(t *testing.T) {
	c := &Config{Format: "json", LogLevel: "warn"}

	c.UpdateFromFlags(true, false, true, "", "")
	if !c.Verbose || !c.NoColor {
		t.Error("boolean flags not applied")
	}
	if c.Format != "json" || c.LogLevel != "warn" {
		t.Error("empty flags should keep existing values")
	}

	c.UpdateFromFlags(false, true, false, "yaml", "debug")
	if c.Format != "yaml" || c.LogLevel != "debug" {
		t.Errorf("got format=%s level=%s, want yaml/debug", c.Format, c.LogLevel)
	}
}
