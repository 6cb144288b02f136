package logger

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds logging configuration
type Config struct {
	Level          string `yaml:"level"`
	ConsoleEnabled bool   `yaml:"console_enabled"`
	ConsoleFormat  string `yaml:"console_format"`
	FileEnabled    bool   `yaml:"file_enabled"`
	FilePath       string `yaml:"file_path"`
	FileFormat     string `yaml:"file_format"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
	FileMaxBackups int    `yaml:"file_max_backups"`
	FileMaxAgeDays int    `yaml:"file_max_age_days"`
	FileCompress   bool   `yaml:"file_compress"`
}

// fileConfig mirrors Config with pointer booleans so that a key missing from
// the YAML keeps its default instead of turning into false.
type fileConfig struct {
	Logging struct {
		Level          string `yaml:"level"`
		ConsoleEnabled *bool  `yaml:"console_enabled"`
		ConsoleFormat  string `yaml:"console_format"`
		FileEnabled    *bool  `yaml:"file_enabled"`
		FilePath       string `yaml:"file_path"`
		FileFormat     string `yaml:"file_format"`
		FileMaxSizeMB  int    `yaml:"file_max_size_mb"`
		FileMaxBackups int    `yaml:"file_max_backups"`
		FileMaxAgeDays int    `yaml:"file_max_age_days"`
		FileCompress   *bool  `yaml:"file_compress"`
	} `yaml:"logging"`
}

// DefaultConfig returns the logging defaults: text output on the console,
// no log file.
func DefaultConfig() Config {
	return Config{
		Level:          "INFO",
		ConsoleEnabled: true,
		ConsoleFormat:  "text",
		FileEnabled:    false,
		FilePath:       "logs/mazewave.log",
		FileFormat:     "text",
		FileMaxSizeMB:  10,
		FileMaxBackups: 5,
		FileMaxAgeDays: 30,
	}
}

// LoadConfig reads the logging block of a mazewave YAML file and applies
// environment variable overrides. A missing or unreadable file yields the
// defaults.
func LoadConfig(configPath string) (Config, error) {
	config := DefaultConfig()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err == nil {
				config.merge(fc)
			}
		}
	}

	config.applyEnv()
	return config, nil
}

func (c *Config) merge(fc fileConfig) {
	l := fc.Logging
	if l.Level != "" {
		c.Level = l.Level
	}
	if l.ConsoleEnabled != nil {
		c.ConsoleEnabled = *l.ConsoleEnabled
	}
	if l.ConsoleFormat != "" {
		c.ConsoleFormat = l.ConsoleFormat
	}
	if l.FileEnabled != nil {
		c.FileEnabled = *l.FileEnabled
	}
	if l.FilePath != "" {
		c.FilePath = l.FilePath
	}
	if l.FileFormat != "" {
		c.FileFormat = l.FileFormat
	}
	if l.FileMaxSizeMB > 0 {
		c.FileMaxSizeMB = l.FileMaxSizeMB
	}
	if l.FileMaxBackups > 0 {
		c.FileMaxBackups = l.FileMaxBackups
	}
	if l.FileMaxAgeDays > 0 {
		c.FileMaxAgeDays = l.FileMaxAgeDays
	}
	if l.FileCompress != nil {
		c.FileCompress = *l.FileCompress
	}
}

func (c *Config) applyEnv() {
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Level = level
	}
	if format := os.Getenv("LOG_CONSOLE_FORMAT"); format != "" {
		c.ConsoleFormat = format
	}
	if fileEnabled := os.Getenv("LOG_FILE_ENABLED"); fileEnabled != "" {
		if enabled, err := strconv.ParseBool(fileEnabled); err == nil {
			c.FileEnabled = enabled
		}
	}
	if path := os.Getenv("LOG_FILE_PATH"); path != "" {
		c.FilePath = path
	}
}
