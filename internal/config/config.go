// Package config provides configuration management for the synchronizer.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingContainerID     = errors.New("source.container_id is required")
	ErrMissingPartPattern     = errors.New("source.part_link_pattern is required")
	ErrMissingDownloadFormat  = errors.New("source.download_format is required")
	ErrInvalidTimeout         = errors.New("http.timeout_sec must be at least 1")
	ErrInvalidMaxPageKb       = errors.New("http.max_page_kb must be at least 1")
	ErrMissingOutputPath      = errors.New("output.base_path is required")
	ErrMissingAssemblyCommand = errors.New("assembly.command is required when assembly is enabled")
	ErrMissingLanguage        = errors.New("assembly.language is required")
	ErrMissingHistoryPath     = errors.New("history.path is required when history is enabled")
	ErrInvalidLogLevel        = errors.New("logging.level must be one of: debug, info, warn, error")
)

// Config represents the complete synchronizer configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source"`
	HTTP     HTTPConfig     `yaml:"http"`
	Output   OutputConfig   `yaml:"output"`
	Assembly AssemblyConfig `yaml:"assembly"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SourceConfig describes the markup of the publication site.
type SourceConfig struct {
	ContainerID        string `yaml:"container_id"`
	PartLinkPattern    string `yaml:"part_link_pattern"`
	AnnotationHeading  string `yaml:"annotation_heading"`
	GenreSelector      string `yaml:"genre_selector"`
	AddedMarkerPattern string `yaml:"added_marker_pattern"`
	DownloadFormat     string `yaml:"download_format"`
}

// HTTPConfig defines transport behavior.
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent"`
	TimeoutSec int    `yaml:"timeout_sec"`
	MaxPageKb  int    `yaml:"max_page_kb"`
}

// OutputConfig defines where parts and manifests are written.
type OutputConfig struct {
	BasePath      string `yaml:"base_path"`
	WriteManifest bool   `yaml:"write_manifest"`
}

// AssemblyConfig configures the external archive builder.
type AssemblyConfig struct {
	Command         string   `yaml:"command"`
	Args            []string `yaml:"args"`
	Language        string   `yaml:"language"`
	Enabled         bool     `yaml:"enabled"`
	SkipIfUnchanged bool     `yaml:"skip_if_unchanged"`
}

// HistoryConfig configures the sync history database.
type HistoryConfig struct {
	Path    string `yaml:"path"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Source: SourceConfig{
			ContainerID:        "main",
			PartLinkPattern:    `^/b/\d+$`,
			AnnotationHeading:  "Аннотация",
			GenreSelector:      "a.genre",
			AddedMarkerPattern: `(?i)(?:добавлена|added(?:\s+on)?)\s*:?\s*(\d{2}\.\d{2}\.\d{4})`,
			DownloadFormat:     "epub",
		},
		HTTP: HTTPConfig{
			UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
			TimeoutSec: 60,
			MaxPageKb:  4096,
		},
		Output: OutputConfig{
			BasePath:      ".",
			WriteManifest: true,
		},
		Assembly: AssemblyConfig{
			Command:  "epubmerge",
			Language: "ru",
			Enabled:  true,
		},
		History: HistoryConfig{
			Path:    "serialsync.db",
			Enabled: true,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of the defaults.
func LoadConfig(filepath string) (*Config, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to YAML file.
func (c *Config) SaveConfig(filepath string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filepath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Source.ContainerID == "" {
		return ErrMissingContainerID
	}

	if c.Source.PartLinkPattern == "" {
		return ErrMissingPartPattern
	}

	if c.Source.DownloadFormat == "" {
		return ErrMissingDownloadFormat
	}

	patterns := map[string]string{
		"part_link_pattern":    c.Source.PartLinkPattern,
		"added_marker_pattern": c.Source.AddedMarkerPattern,
	}

	for name, pattern := range patterns {
		if pattern != "" {
			if _, err := regexp.Compile(pattern); err != nil {
				return fmt.Errorf("source.%s is invalid regex: %w", name, err)
			}
		}
	}

	if c.HTTP.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.HTTP.MaxPageKb < 1 {
		return ErrInvalidMaxPageKb
	}

	if c.Output.BasePath == "" {
		return ErrMissingOutputPath
	}

	if c.Assembly.Enabled && c.Assembly.Command == "" {
		return ErrMissingAssemblyCommand
	}

	if c.Assembly.Language == "" {
		return ErrMissingLanguage
	}

	if c.History.Enabled && c.History.Path == "" {
		return ErrMissingHistoryPath
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	return nil
}

// GetTimeout returns the HTTP timeout duration.
func (h *HTTPConfig) GetTimeout() time.Duration {
	return time.Duration(h.TimeoutSec) * time.Second
}

// GetPageLimit returns the maximum number of bytes read from a page.
func (h *HTTPConfig) GetPageLimit() int64 {
	return int64(h.MaxPageKb) * 1024
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Output: %s, Format: %s, Assembly: %t, History: %t}",
		c.Output.BasePath,
		c.Source.DownloadFormat,
		c.Assembly.Enabled,
		c.History.Enabled,
	)
}
