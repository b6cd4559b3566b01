package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the profiler service
type Config struct {
	// Browser process settings
	Browser BrowserConfig `yaml:"browser" json:"browser"`

	// HTTP server settings
	Server ServerConfig `yaml:"server" json:"server"`

	// Capture pipeline settings
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig holds browser-driver configuration
type BrowserConfig struct {
	ExecutablePath string `yaml:"executable_path" json:"executable_path"`
	Headless       bool   `yaml:"headless" json:"headless"`
	UserAgent      string `yaml:"user_agent" json:"user_agent"`
	SessionID      string `yaml:"session_id" json:"session_id"`
	NoSandbox      bool   `yaml:"no_sandbox" json:"no_sandbox"`
}

// ServerConfig holds HTTP surface configuration
type ServerConfig struct {
	Port              int           `yaml:"port" json:"port"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
}

// ScrapeConfig holds capture pipeline configuration
type ScrapeConfig struct {
	DefaultSampleSize int           `yaml:"default_sample_size" json:"default_sample_size"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	ResponseWait      time.Duration `yaml:"response_wait" json:"response_wait"`
	GraceDelay        time.Duration `yaml:"grace_delay" json:"grace_delay"`
	PostDetailTimeout time.Duration `yaml:"post_detail_timeout" json:"post_detail_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Browser: BrowserConfig{
			ExecutablePath: "",
			Headless:       true,
			UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/140.0.0.0 Safari/537.36",
			NoSandbox:      true,
		},
		Server: ServerConfig{
			Port:              3000,
			RequestsPerMinute: 30,
			ShutdownTimeout:   10 * time.Second,
		},
		Scrape: ScrapeConfig{
			DefaultSampleSize: 12,
			NavigationTimeout: 60 * time.Second,
			ResponseWait:      6 * time.Second,
			GraceDelay:        800 * time.Millisecond,
			PostDetailTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if path := os.Getenv("IGPROFILER_BROWSER_PATH"); path != "" {
		c.Browser.ExecutablePath = path
	}
	if headless := os.Getenv("IGPROFILER_HEADLESS"); headless != "" {
		c.Browser.Headless = strings.ToLower(headless) != "false"
	}
	if userAgent := os.Getenv("IGPROFILER_USER_AGENT"); userAgent != "" {
		c.Browser.UserAgent = userAgent
	}
	if sessionID := os.Getenv("IGPROFILER_SESSION_ID"); sessionID != "" {
		c.Browser.SessionID = sessionID
	}

	if port := os.Getenv("IGPROFILER_PORT"); port != "" {
		var val int
		fmt.Sscanf(port, "%d", &val)
		if val > 0 {
			c.Server.Port = val
		}
	}
	if rpm := os.Getenv("IGPROFILER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.Server.RequestsPerMinute = val
		}
	}

	if sample := os.Getenv("IGPROFILER_SAMPLE_SIZE"); sample != "" {
		var val int
		fmt.Sscanf(sample, "%d", &val)
		if val > 0 {
			c.Scrape.DefaultSampleSize = val
		}
	}

	if logLevel := os.Getenv("IGPROFILER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".igprofiler.yaml",
		".igprofiler.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igprofiler", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igprofiler", "config.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, errors.New("server port must be between 1 and 65535"))
	}
	if c.Server.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Scrape.DefaultSampleSize <= 0 {
		errs = append(errs, errors.New("default sample size must be positive"))
	}
	if c.Scrape.NavigationTimeout <= 0 {
		errs = append(errs, errors.New("navigation timeout must be positive"))
	}
	if c.Scrape.ResponseWait <= 0 {
		errs = append(errs, errors.New("response wait must be positive"))
	}
	if c.Scrape.PostDetailTimeout <= 0 {
		errs = append(errs, errors.New("post detail timeout must be positive"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if browserPath, ok := flags["browser-path"].(string); ok && browserPath != "" {
		c.Browser.ExecutablePath = browserPath
	}
	if port, ok := flags["port"].(int); ok && port > 0 {
		c.Server.Port = port
	}
	if sampleSize, ok := flags["sample-size"].(int); ok && sampleSize > 0 {
		c.Scrape.DefaultSampleSize = sampleSize
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igprofiler.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
