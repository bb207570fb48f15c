// Package config provides configuration loading and structs for synopsis.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// MailPasswordEnv overrides mail.password when set.
const MailPasswordEnv = "SYNOPSIS_MAIL_PASSWORD"

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Summary SummaryConfig `yaml:"summary"`
	Watch   WatchConfig   `yaml:"watch"`
	Mail    MailConfig    `yaml:"mail"`
	Chat    ChatConfig    `yaml:"chat"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the summary history database path.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// SummaryConfig holds summarization settings.
type SummaryConfig struct {
	// Ratio is the fraction of sentences kept (0, 1].
	Ratio float64 `yaml:"ratio"`
	// FoldCase lowercases words before comparing sentences; defaults to true.
	FoldCase *bool `yaml:"fold_case"`
	// MaxInputBytes rejects larger inputs; 0 disables the limit.
	MaxInputBytes int64 `yaml:"max_input_bytes"`
	// Parallelism bounds concurrent file summarization.
	Parallelism int `yaml:"parallelism"`
}

// FoldCaseOrDefault returns whether to fold case; defaults to true when unset.
func (s *SummaryConfig) FoldCaseOrDefault() bool {
	if s.FoldCase != nil {
		return *s.FoldCase
	}
	return true
}

// WatchConfig holds inbox directory watch settings.
type WatchConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
	Recursive   *bool    `yaml:"recursive"`
	// OutputDir receives <name>.summary.txt files; empty disables writing them.
	OutputDir string `yaml:"output_dir"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// MailConfig holds SMTP settings for mailing summaries.
type MailConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Host     string   `yaml:"host"`
	Port     int      `yaml:"port"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	From     string   `yaml:"from"`
	To       []string `yaml:"to"`
	Subject  string   `yaml:"subject"`
}

// ChatConfig holds the conversational prompt settings.
type ChatConfig struct {
	Name         string   `yaml:"name"`
	Conversation []string `yaml:"conversation"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)
	if cfg.Watch.OutputDir != "" {
		cfg.Watch.OutputDir = expandPath(cfg.Watch.OutputDir, configDir)
	}
	for i := range cfg.Watch.Directories {
		cfg.Watch.Directories[i] = expandPath(cfg.Watch.Directories[i], configDir)
	}
	return &cfg, nil
}

// Default returns a config with every default applied, for running without a file.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate reports settings that defaults cannot repair.
func Validate(cfg *Config) error {
	if cfg.Summary.Ratio <= 0 || cfg.Summary.Ratio > 1 {
		return fmt.Errorf("summary.ratio must be in (0, 1], got %v", cfg.Summary.Ratio)
	}
	if cfg.Summary.MaxInputBytes < 0 {
		return fmt.Errorf("summary.max_input_bytes must not be negative")
	}
	if cfg.Mail.Enabled && (cfg.Mail.Host == "" || cfg.Mail.From == "") {
		return fmt.Errorf("mail.host and mail.from are required when mail is enabled")
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
