package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/periodo/reconciler/internal/periodotest"
	"github.com/periodo/reconciler/pkg/periodo"
)

func testConfig(t *testing.T, host string) *Config {
	t.Helper()
	config, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() failed: %v", err)
	}
	config.Host = host
	config.RetryMax = 0
	config.Timeout = 5 * time.Second
	return config
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, err := New("1.0.0", "abc123", "2025-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2025-01-01" {
		t.Errorf("Date() = %s, want 2025-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Error("Config() returned nil")
	}
	if d := app.Defaults(); d.Mode != periodo.ModeBatch || d.PageSize <= 0 {
		t.Errorf("Defaults() = %+v", d)
	}
}

// TestApp_WithOptions verifies functional options.
func TestApp_WithOptions(t *testing.T) {
	logger := zerolog.Nop()
	config := &Config{Host: "example.org", Mode: "single", PageSize: 5, Format: "yaml"}

	app, err := New("1.0.0", "test", "2025-01-01", "test", WithConfig(config), WithLogger(&logger))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if app.Config() != config {
		t.Error("WithConfig() not applied")
	}
	if app.Logger() != &logger {
		t.Error("WithLogger() not applied")
	}
	if app.OutputFormat() != "yaml" {
		t.Errorf("OutputFormat() = %s, want yaml", app.OutputFormat())
	}
	if d := app.Defaults(); d.Mode != periodo.ModePerQuery || d.PageSize != 5 {
		t.Errorf("Defaults() = %+v, want single/5", d)
	}

	if _, err := New("1.0.0", "test", "2025-01-01", "test", WithConfig(nil)); err == nil {
		t.Error("WithConfig(nil) should fail")
	}
}

// TestApp_Client_Singleton verifies that Client() returns the same instance.
func TestApp_Client_Singleton(t *testing.T) {
	app, err := New("1.0.0", "test", "2025-01-01", "test", WithConfig(testConfig(t, "localhost:1")))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	c1, err := app.Client()
	if err != nil {
		t.Fatalf("Client() failed: %v", err)
	}
	c2, err := app.Client()
	if err != nil {
		t.Fatalf("Client() failed on second call: %v", err)
	}
	if c1 != c2 {
		t.Error("Client() returned different instances")
	}
	if c1.String() != `periodo.Client(host="localhost:1", protocol="http")` {
		t.Errorf("String() = %s", c1.String())
	}
}

// TestApp_Client_Concurrent verifies thread-safe lazy initialization.
func TestApp_Client_Concurrent(t *testing.T) {
	app, err := New("1.0.0", "test", "2025-01-01", "test", WithConfig(testConfig(t, "localhost:1")))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}

	const goroutines = 10
	clients := make([]*periodo.Client, goroutines)
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			c, err := app.Client()
			if err != nil {
				t.Errorf("Client() failed in goroutine %d: %v", idx, err)
				return
			}
			clients[idx] = c
		}(i)
	}
	wg.Wait()

	for i := 1; i < goroutines; i++ {
		if clients[i] != clients[0] {
			t.Errorf("goroutine %d got a different client", i)
		}
	}
}

// TestApp_Client_InvalidConfig verifies client option errors surface.
func TestApp_Client_InvalidConfig(t *testing.T) {
	config := testConfig(t, "localhost:1")
	config.Concurrency = 0

	app, err := New("1.0.0", "test", "2025-01-01", "test", WithConfig(config))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if _, err := app.Client(); err == nil {
		t.Error("Client() should reject concurrency 0")
	}
}

// TestApp_Shutdown verifies shutdown with and without a client.
func TestApp_Shutdown(t *testing.T) {
	app, err := New("1.0.0", "test", "2025-01-01", "test")
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() without client failed: %v", err)
	}

	if _, err := app.Client(); err != nil {
		t.Fatalf("Client() failed: %v", err)
	}
	if err := app.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() with client failed: %v", err)
	}
}

// TestApp_ShutdownFlushesMetadata verifies cached service metadata does not
// outlive the app.
func TestApp_ShutdownFlushesMetadata(t *testing.T) {
	srv := periodotest.New(t)
	config := testConfig(t, strings.TrimPrefix(srv.URL, "http://"))
	config.LogOutput = "discard"

	app, err := New("1.0.0", "test", "2025-01-01", "test", WithConfig(config))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	client, err := app.Client()
	if err != nil {
		t.Fatalf("Client() failed: %v", err)
	}
	if _, err := client.Describe(context.Background()); err != nil {
		t.Fatalf("Describe() failed: %v", err)
	}
	if got := client.CacheStats().Metadata; got != 1 {
		t.Fatalf("metadata entries before shutdown = %d, want 1", got)
	}

	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}
	if got := client.CacheStats().Metadata; got != 0 {
		t.Errorf("metadata entries after shutdown = %d, want 0", got)
	}
}

// TestApp_Execute runs commands through the root command against a fake
// service.
func TestApp_Execute(t *testing.T) {
	srv := periodotest.New(t)
	srv.Handle("Bronze Age", periodotest.Candidate("p0aaa", "Bronze Age", 100, true))
	srv.HandleAt("Bronze Age", "Cyprus", periodotest.Candidate("p0bbb", "Cypriot Bronze Age", 80, false))
	host := strings.TrimPrefix(srv.URL, "http://")

	input := filepath.Join(t.TempDir(), "in.csv")
	if err := os.WriteFile(input, []byte("name,country\nBronze Age,Crete\nBronze Age,Cyprus\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	tests := []struct {
		name     string
		args     []string
		want     string
		requests int
	}{
		{name: "describe", args: []string{"describe", "--format", "json"}, want: `"PeriodO"`, requests: 1},
		{name: "query", args: []string{"query", "Bronze Age", "--format", "yaml"}, want: "p0aaa", requests: 1},
		{name: "query per-query mode", args: []string{"query", "Bronze Age", "Neolithic", "--mode", "single", "--format", "json"}, want: "Neolithic", requests: 2},
		{
			name:     "csv",
			args:     []string{"csv", input, "--query", "name", "--location", "country", "--method", "get"},
			want:     "Bronze Age,Crete,1,Bronze Age,p0aaa,1,,\nBronze Age,Cyprus,0,,,1,p0aaa,Bronze Age\n",
			requests: 1,
		},
		{name: "version", args: []string{"version"}, want: "periodo-recon 1.0.0", requests: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv.Reset()
			config := testConfig(t, host)
			config.LogOutput = "discard"

			app, err := New("1.0.0", "test", "2025-01-01", "test", WithConfig(config))
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}

			root := app.createRootCommand()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetErr(&out)
			root.SetArgs(append(tt.args, "--host", host))

			if err := root.ExecuteContext(context.Background()); err != nil {
				t.Fatalf("%v failed: %v", tt.args, err)
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output missing %q:\n%s", tt.want, out.String())
			}
			if srv.Requests() != tt.requests {
				t.Errorf("requests = %d, want %d", srv.Requests(), tt.requests)
			}
		})
	}
}

// TestApp_Execute_InvalidFlag verifies configuration validation runs
// before any command.
func TestApp_Execute_InvalidFlag(t *testing.T) {
	app, err := New("1.0.0", "test", "2025-01-01", "test", WithConfig(testConfig(t, "localhost:1")))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	root := app.createRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetArgs([]string{"describe", "--protocol", "gopher"})

	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Error("expected configuration error for --protocol gopher")
	}
}
