// Package config provides configuration loading and validation for the interview client.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/go-playground/validator/v10"
)

// Default values applied when neither the config file, the environment nor flags set a field.
const (
	DefaultServiceURL = "http://localhost:8000"
	DefaultLocale     = "en-US"
)

// Config represents the client configuration.
// Values come from a JSON file, the environment and CLI flags, in increasing precedence.
type Config struct {
	// Remote interviewer service
	ServiceURL     string `json:"service_url,omitempty" env:"INTERVIEW_SERVICE_URL" validate:"omitempty,url"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty" env:"INTERVIEW_TIMEOUT_SECONDS" validate:"min=0"` // 0 means no timeout

	// Speech
	SpeakCommand  string `json:"speak_command,omitempty" env:"INTERVIEW_SPEAK_COMMAND"`   // e.g. "espeak -v {locale}"
	ListenCommand string `json:"listen_command,omitempty" env:"INTERVIEW_LISTEN_COMMAND"` // prints one transcript on stdout
	Locale        string `json:"locale,omitempty" env:"INTERVIEW_LOCALE"`
	Mute          bool   `json:"mute,omitempty" env:"INTERVIEW_MUTE"` // disable speech output entirely

	// Behavior
	Verbose bool `json:"verbose,omitempty" env:"INTERVIEW_VERBOSE"` // Print detailed debug information
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		ServiceURL: DefaultServiceURL,
		Locale:     DefaultLocale,
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv reads the INTERVIEW_* environment variables.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("config error: '%s' failed '%s' check", jsonName(fe.StructField()), fe.Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}

	if c.Mute && c.SpeakCommand != "" {
		return fmt.Errorf("config error: 'mute' and 'speak_command' are mutually exclusive")
	}

	return nil
}

// Timeout returns the HTTP timeout; zero means requests never time out.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Bool fields are OR-ed since unset and false cannot be distinguished.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.ServiceURL == "" {
		result.ServiceURL = defaults.ServiceURL
	}
	if result.SpeakCommand == "" {
		result.SpeakCommand = defaults.SpeakCommand
	}
	if result.ListenCommand == "" {
		result.ListenCommand = defaults.ListenCommand
	}
	if result.Locale == "" {
		result.Locale = defaults.Locale
	}
	if result.TimeoutSeconds == 0 {
		result.TimeoutSeconds = defaults.TimeoutSeconds
	}

	result.Mute = result.Mute || defaults.Mute
	result.Verbose = result.Verbose || defaults.Verbose

	return result
}

func jsonName(field string) string {
	switch field {
	case "ServiceURL":
		return "service_url"
	case "TimeoutSeconds":
		return "timeout_seconds"
	default:
		return field
	}
}
