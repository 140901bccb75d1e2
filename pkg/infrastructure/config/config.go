package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all textmill configuration
type Config struct {
	// Pipeline shape and timing
	Pipeline PipelineConfig `json:"pipeline"`

	// Result persistence
	Output OutputConfig `json:"output"`

	// System configuration
	Logging LoggingConfig `json:"logging"`
}

// PipelineConfig holds worker pool and task batch settings
type PipelineConfig struct {
	NumWorkers    int `json:"num_workers"`
	NumTasks      int `json:"num_tasks"`
	QueueCapacity int `json:"queue_capacity"` // 0 means unbounded

	// Simulated processing delay bounds per task
	MinDelayMs int `json:"min_delay_ms"`
	MaxDelayMs int `json:"max_delay_ms"`

	// How long the coordinator waits for workers at the join barrier
	JoinTimeoutSecs int `json:"join_timeout_seconds"`

	// Optional payload source: one payload per line. When set, NumTasks is
	// derived from the file instead of the configured count.
	InputFile string `json:"input_file,omitempty"`
}

// OutputConfig holds result file settings
type OutputConfig struct {
	Path   string `json:"path"`
	Format string `json:"format"` // text, json
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Output string `json:"output"` // console, file
	File   string `json:"file,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			NumWorkers:      4,
			NumTasks:        10,
			QueueCapacity:   0,
			MinDelayMs:      200,
			MaxDelayMs:      500,
			JoinTimeoutSecs: 60,
		},
		Output: OutputConfig{
			Path:   "results.txt",
			Format: "text",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "console",
			File:   "",
		},
	}
}

// LoadConfig loads configuration from file with environment variable overrides
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	// Load from file if it exists
	if configPath != "" {
		if err := config.loadFromFile(configPath); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigFile is like LoadConfig but fails when the file does not exist.
// Use it for user-supplied paths, where a typo should surface as an error
// instead of silently falling back to defaults.
func LoadConfigFile(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	return LoadConfig(configPath)
}

// loadFromFile loads configuration from a JSON file
func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, use defaults
			return nil
		}
		return err
	}

	return json.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies environment variable overrides
func (c *Config) applyEnvironmentOverrides() {
	// Pipeline overrides
	if val := os.Getenv("TEXTMILL_WORKERS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Pipeline.NumWorkers = n
		}
	}
	if val := os.Getenv("TEXTMILL_TASKS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Pipeline.NumTasks = n
		}
	}
	if val := os.Getenv("TEXTMILL_QUEUE_CAPACITY"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Pipeline.QueueCapacity = n
		}
	}
	if val := os.Getenv("TEXTMILL_MIN_DELAY_MS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Pipeline.MinDelayMs = n
		}
	}
	if val := os.Getenv("TEXTMILL_MAX_DELAY_MS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Pipeline.MaxDelayMs = n
		}
	}
	if val := os.Getenv("TEXTMILL_JOIN_TIMEOUT"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Pipeline.JoinTimeoutSecs = n
		}
	}
	if val := os.Getenv("TEXTMILL_INPUT_FILE"); val != "" {
		c.Pipeline.InputFile = val
	}

	// Output overrides
	if val := os.Getenv("TEXTMILL_OUTPUT"); val != "" {
		c.Output.Path = val
	}
	if val := os.Getenv("TEXTMILL_OUTPUT_FORMAT"); val != "" {
		c.Output.Format = val
	}

	// Logging overrides
	if val := os.Getenv("TEXTMILL_LOG_LEVEL"); val != "" {
		c.Logging.Level = val
	}
	if val := os.Getenv("TEXTMILL_LOG_OUTPUT"); val != "" {
		c.Logging.Output = val
	}
	if val := os.Getenv("TEXTMILL_LOG_FILE"); val != "" {
		c.Logging.File = val
	}
}

// Validate validates the configuration and provides helpful suggestions
func (c *Config) Validate() error {
	if c.Pipeline.NumWorkers <= 0 {
		return fmt.Errorf("number of workers must be positive (current: %d). Use 4 for default", c.Pipeline.NumWorkers)
	}
	if c.Pipeline.NumWorkers > 1024 {
		return fmt.Errorf("number of workers is very high (%d). Consider using 4-64", c.Pipeline.NumWorkers)
	}
	if c.Pipeline.NumTasks < 0 {
		return fmt.Errorf("number of tasks cannot be negative (current: %d)", c.Pipeline.NumTasks)
	}
	if c.Pipeline.QueueCapacity < 0 {
		return fmt.Errorf("queue capacity cannot be negative (current: %d). Use 0 for an unbounded queue", c.Pipeline.QueueCapacity)
	}
	if c.Pipeline.MinDelayMs < 0 || c.Pipeline.MaxDelayMs < 0 {
		return fmt.Errorf("delay bounds cannot be negative (current: %d-%d ms)", c.Pipeline.MinDelayMs, c.Pipeline.MaxDelayMs)
	}
	if c.Pipeline.MaxDelayMs < c.Pipeline.MinDelayMs {
		return fmt.Errorf("max delay (%d ms) cannot be below min delay (%d ms)", c.Pipeline.MaxDelayMs, c.Pipeline.MinDelayMs)
	}
	if c.Pipeline.JoinTimeoutSecs <= 0 {
		return fmt.Errorf("join timeout must be positive (current: %d seconds). Use 60 for default", c.Pipeline.JoinTimeoutSecs)
	}

	if c.Output.Path == "" {
		return fmt.Errorf("output path cannot be empty. Use 'results.txt' for default")
	}
	validFormats := map[string]bool{
		"text": true, "json": true,
	}
	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output format '%s'. Valid options: text, json", c.Output.Format)
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level '%s'. Valid options: debug, info, warn, error", c.Logging.Level)
	}

	validOutputs := map[string]bool{
		"console": true, "file": true,
	}
	if !validOutputs[c.Logging.Output] {
		return fmt.Errorf("invalid log output '%s'. Valid options: console, file", c.Logging.Output)
	}
	if c.Logging.Output == "file" && c.Logging.File == "" {
		return fmt.Errorf("log file path is required when output is 'file'")
	}

	return nil
}

// SaveToFile saves the configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, ".textmill", "config.json"), nil
}
