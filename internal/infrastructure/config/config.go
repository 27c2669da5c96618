// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory name for chronicle configuration.
	DefaultConfigDir = ".chronicle"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultBooksFile is the default books registry file name.
	DefaultBooksFile = "books.yaml"
	// DefaultDatabaseFile is the sqlite file name inside the config directory.
	DefaultDatabaseFile = "chronicle.db"
)

var (
	// reNonAlphanumeric matches characters that aren't alphanumeric or underscore.
	reNonAlphanumeric = regexp.MustCompile(`[^a-z0-9_]`)
	// reMultipleUnderscores matches consecutive underscores.
	reMultipleUnderscores = regexp.MustCompile(`_+`)
)

// Config holds static infrastructure configuration (read-only after init).
type Config struct {
	SQLite   SQLiteConfig   `yaml:"sqlite,omitempty"`
	Images   ImagesConfig   `yaml:"images,omitempty"`
	Logging  LoggingConfig  `yaml:"logging,omitempty"`
	Timeline TimelineConfig `yaml:"timeline,omitempty"`
	Server   ServerConfig   `yaml:"server,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database. Relative paths are
	// resolved against the project directory.
	Path string `yaml:"path,omitempty"`
}

// ImagesConfig selects where avatar images are read from.
type ImagesConfig struct {
	// Provider is "filesystem" or "s3".
	Provider string   `yaml:"provider,omitempty"`
	Root     string   `yaml:"root,omitempty"`
	S3       S3Config `yaml:"s3,omitempty"`
}

// S3Config holds configuration for an S3 compatible avatar bucket.
type S3Config struct {
	Bucket    string `yaml:"bucket,omitempty"`
	Region    string `yaml:"region,omitempty"`
	Endpoint  string `yaml:"endpoint,omitempty"`
	AccessKey string `yaml:"access_key,omitempty"`
	SecretKey string `yaml:"secret_key,omitempty"`
}

// LoggingConfig holds configuration for the structured logger.
type LoggingConfig struct {
	Level  string `yaml:"level,omitempty"`
	Format string `yaml:"format,omitempty"`
	// File enables rotating file output in addition to stderr.
	File       string `yaml:"file,omitempty"`
	MaxSize    int    `yaml:"max_size,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
	MaxAge     int    `yaml:"max_age,omitempty"`
}

// TimelineConfig holds timeline derivation defaults.
type TimelineConfig struct {
	Layout            string `yaml:"layout,omitempty"`
	AvatarConcurrency int    `yaml:"avatar_concurrency,omitempty"`
}

// ServerConfig holds configuration for the local HTTP bridge.
type ServerConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Images: ImagesConfig{
			Provider: "filesystem",
			Root:     "avatars",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
		Timeline: TimelineConfig{
			Layout:            "separate",
			AvatarConcurrency: 8,
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:7777",
		},
	}
}

// Load loads configuration from the .chronicle directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'chronicle init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()
	cfg.resolvePaths(basePath)

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if level := os.Getenv("CHRONICLE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if path := os.Getenv("CHRONICLE_SQLITE_PATH"); path != "" {
		c.SQLite.Path = path
	}
	if key := os.Getenv("AWS_ACCESS_KEY_ID"); key != "" {
		if c.Images.S3.AccessKey == "" {
			c.Images.S3.AccessKey = key
		}
	}
	if key := os.Getenv("AWS_SECRET_ACCESS_KEY"); key != "" {
		if c.Images.S3.SecretKey == "" {
			c.Images.S3.SecretKey = key
		}
	}
}

func (c *Config) resolvePaths(basePath string) {
	if c.SQLite.Path == "" {
		c.SQLite.Path = DatabasePath(basePath)
	} else if c.SQLite.Path != ":memory:" && !filepath.IsAbs(c.SQLite.Path) {
		c.SQLite.Path = filepath.Join(basePath, c.SQLite.Path)
	}
	if c.Images.Root != "" && !filepath.IsAbs(c.Images.Root) {
		c.Images.Root = filepath.Join(basePath, c.Images.Root)
	}
}

// ConfigDir returns the path to the .chronicle config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// BooksFilePath returns the path to the books registry file.
func BooksFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultBooksFile)
}

// DatabasePath returns the default SQLite database path.
func DatabasePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultDatabaseFile)
}

// SanitizeBookName converts a book name to a registry key.
func SanitizeBookName(name string) string {
	// Convert to lowercase
	name = strings.ToLower(name)

	// Replace spaces and hyphens with underscores
	name = strings.ReplaceAll(name, " ", "_")
	name = strings.ReplaceAll(name, "-", "_")

	// Remove any characters that aren't alphanumeric or underscore
	name = reNonAlphanumeric.ReplaceAllString(name, "")

	// Remove consecutive underscores
	name = reMultipleUnderscores.ReplaceAllString(name, "_")

	// Trim leading/trailing underscores
	name = strings.Trim(name, "_")

	if name == "" {
		return "default"
	}

	return name
}
