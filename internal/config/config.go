package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultImportLimit is the batch limit used when GPX_LIMIT_IMPORT is unset or invalid
const DefaultImportLimit = 10

// Config 应用配置
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Storage  StorageConfig  `koanf:"storage"`
	Import   ImportConfig   `koanf:"import"`
	Weather  WeatherConfig  `koanf:"weather"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Port              string        `koanf:"port"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Path string `koanf:"path"`
}

// SecurityConfig 认证配置
type SecurityConfig struct {
	JWTSecret string `koanf:"jwt_secret"`
}

// StorageConfig 文件存储配置
type StorageConfig struct {
	UploadDir string `koanf:"upload_dir"`
}

// ImportConfig 批量导入配置
type ImportConfig struct {
	// GPXLimit is the raw setting; Limit is the resolved value.
	GPXLimit          string   `koanf:"gpx_limit"`
	AllowedExtensions []string `koanf:"allowed_extensions"`
	Limit             int      `koanf:"-"`
}

// WeatherConfig 天气服务配置
type WeatherConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	Timeout           time.Duration `koanf:"timeout"`
	RequestsPerSecond float64       `koanf:"requests_per_second"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              ":8080",
			RateLimitRequests: 100,
			RateLimitWindow:   time.Minute,
		},
		Database: DatabaseConfig{
			Path: "./data/activities.db",
		},
		Security: SecurityConfig{
			JWTSecret: "your-secret-key-change-in-production",
		},
		Storage: StorageConfig{
			UploadDir: "./data/uploads",
		},
		Import: ImportConfig{
			AllowedExtensions: []string{"gpx", "zip"},
		},
		Weather: WeatherConfig{
			BaseURL:           "https://api.darksky.net/forecast",
			Timeout:           10 * time.Second,
			RequestsPerSecond: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// resolveImportLimit parses the raw batch limit. ok is false when the default was used.
func resolveImportLimit(raw string) (limit int, ok bool) {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n <= 0 {
		return DefaultImportLimit, false
	}
	return n, true
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(e), "."))
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}

// Validate checks the configuration for missing required values
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Server.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit_requests must be positive, got %d", c.Server.RateLimitRequests))
	}
	if c.Server.RateLimitWindow <= 0 {
		errs = append(errs, errors.New("server.rate_limit_window must be positive"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Storage.UploadDir == "" {
		errs = append(errs, errors.New("storage.upload_dir is required"))
	}
	if len(c.Import.AllowedExtensions) == 0 {
		errs = append(errs, errors.New("import.allowed_extensions must not be empty"))
	}
	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("security.jwt_secret is required"))
	}
	return errors.Join(errs...)
}
