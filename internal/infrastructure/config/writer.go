package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# Chronicle Configuration

sqlite:
  # path: .chronicle/chronicle.db (or set CHRONICLE_SQLITE_PATH env var)

images:
  provider: filesystem
  root: avatars
  # s3:
  #   bucket: my-avatars
  #   region: eu-central-1
  #   endpoint: http://localhost:9000
  #   access_key: (or set AWS_ACCESS_KEY_ID env var)
  #   secret_key: (or set AWS_SECRET_ACCESS_KEY env var)

logging:
  level: info
  format: console
  # file: .chronicle/chronicle.log

timeline:
  layout: separate
  avatar_concurrency: 8

server:
  addr: 127.0.0.1:7777
`

// WriteDefault creates the .chronicle directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := ConfigDir(basePath)
	configFile := ConfigFilePath(basePath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	configDir := filepath.Join(basePath, DefaultConfigDir)
	configFile := filepath.Join(configDir, DefaultConfigFile)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Exists checks if a chronicle config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
