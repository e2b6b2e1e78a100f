package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/jengzang/activity-backend-go/internal/logging"
)

// ConfigPathEnvVar names the environment variable holding the YAML config path
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPath is read when CONFIG_PATH is not set
const DefaultConfigPath = "config.yaml"

// envMappings maps environment variables to config keys
var envMappings = map[string]string{
	"port":                        "server.port",
	"rate_limit_requests":         "server.rate_limit_requests",
	"rate_limit_window":           "server.rate_limit_window",
	"db_path":                     "database.path",
	"jwt_secret":                  "security.jwt_secret",
	"upload_folder":               "storage.upload_dir",
	"gpx_limit_import":            "import.gpx_limit",
	"activity_allowed_extensions": "import.allowed_extensions",
	"weather_api_key":             "weather.api_key",
	"weather_base_url":            "weather.base_url",
	"weather_timeout":             "weather.timeout",
	"weather_requests_per_second": "weather.requests_per_second",
	"log_level":                   "logging.level",
	"log_format":                  "logging.format",
}

// sliceConfigPaths are split on commas when they arrive as strings
var sliceConfigPaths = []string{
	"import.allowed_extensions",
}

// Load 加载配置: defaults, then the optional YAML file, then environment variables
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	cfg.Import.AllowedExtensions = normalizeExtensions(cfg.Import.AllowedExtensions)
	limit, ok := resolveImportLimit(cfg.Import.GPXLimit)
	if !ok {
		logging.Warn().Str("value", cfg.Import.GPXLimit).Int("default", DefaultImportLimit).
			Msg("GPX_LIMIT_IMPORT is not set or not a positive integer, using default")
	}
	cfg.Import.Limit = limit

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	path := os.Getenv(ConfigPathEnvVar)
	if path == "" {
		path = DefaultConfigPath
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func envTransformFunc(key string) string {
	if mapped, ok := envMappings[strings.ToLower(key)]; ok {
		return mapped
	}
	// unmapped variables are dropped
	return ""
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(s, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
