package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// isolate points the loader at a missing config file and clears mapped variables
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv(ConfigPathEnvVar, filepath.Join(t.TempDir(), "missing.yaml"))
	for env := range envMappings {
		t.Setenv(strings.ToUpper(env), "")
		os.Unsetenv(strings.ToUpper(env))
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != ":8080" {
		t.Errorf("Server.Port = %q, want :8080", cfg.Server.Port)
	}
	if cfg.Server.RateLimitWindow != time.Minute {
		t.Errorf("Server.RateLimitWindow = %v, want 1m", cfg.Server.RateLimitWindow)
	}
	if cfg.Import.Limit != DefaultImportLimit {
		t.Errorf("Import.Limit = %d, want %d", cfg.Import.Limit, DefaultImportLimit)
	}
	if !reflect.DeepEqual(cfg.Import.AllowedExtensions, []string{"gpx", "zip"}) {
		t.Errorf("AllowedExtensions = %v", cfg.Import.AllowedExtensions)
	}
	if cfg.Weather.APIKey != "" {
		t.Errorf("Weather.APIKey should be empty, got %q", cfg.Weather.APIKey)
	}
}

func TestLoadImportLimit(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  int
	}{
		{"valid", "3", 3},
		{"padded", " 25 ", 25},
		{"non numeric", "ten", DefaultImportLimit},
		{"zero", "0", DefaultImportLimit},
		{"negative", "-4", DefaultImportLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv("GPX_LIMIT_IMPORT", tt.value)

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.Import.Limit != tt.want {
				t.Errorf("Import.Limit = %d, want %d", cfg.Import.Limit, tt.want)
			}
		})
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", ":9000")
	t.Setenv("DB_PATH", "/tmp/x.db")
	t.Setenv("ACTIVITY_ALLOWED_EXTENSIONS", ".GPX, zip ,")
	t.Setenv("WEATHER_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != ":9000" {
		t.Errorf("Server.Port = %q", cfg.Server.Port)
	}
	if cfg.Database.Path != "/tmp/x.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if !reflect.DeepEqual(cfg.Import.AllowedExtensions, []string{"gpx", "zip"}) {
		t.Errorf("AllowedExtensions = %v", cfg.Import.AllowedExtensions)
	}
	if cfg.Weather.Timeout != 3*time.Second {
		t.Errorf("Weather.Timeout = %v", cfg.Weather.Timeout)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := "import:\n  gpx_limit: \"4\"\nstorage:\n  upload_dir: /srv/uploads\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Import.Limit != 4 {
		t.Errorf("Import.Limit = %d, want 4", cfg.Import.Limit)
	}
	if cfg.Storage.UploadDir != "/srv/uploads" {
		t.Errorf("Storage.UploadDir = %q", cfg.Storage.UploadDir)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		errContains string
	}{
		{"valid", func(*Config) {}, ""},
		{"empty port", func(c *Config) { c.Server.Port = "" }, "server.port"},
		{"empty db path", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"empty upload dir", func(c *Config) { c.Storage.UploadDir = "" }, "storage.upload_dir"},
		{"no extensions", func(c *Config) { c.Import.AllowedExtensions = nil }, "allowed_extensions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errContains == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.errContains) {
				t.Errorf("error = %v, want containing %q", err, tt.errContains)
			}
		})
	}
}
