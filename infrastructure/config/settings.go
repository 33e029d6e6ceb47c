// Package config provides settings loading for the host. Settings are
// constructed once at startup and handed to constructors explicitly; nothing
// reads configuration ambiently at call time.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config errors.
var (
	ErrConfigNotFound = errors.New("config file not found")
	ErrInvalidFormat  = errors.New("invalid config format")
)

// ProviderSettings configures one text-generation backend.
type ProviderSettings struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
	Timeout     int     `yaml:"timeout_seconds"`
}

// AmadeusSettings configures the direct flight API client.
type AmadeusSettings struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	// Host selects the API environment: "test" or "prod".
	Host            string `yaml:"host"`
	DefaultCurrency string `yaml:"default_currency"`
	MaxResults      int    `yaml:"max_results"`
	TimeoutSeconds  int    `yaml:"timeout_seconds"`
}

// ToolsSettings configures remote tool sessions.
type ToolsSettings struct {
	// CallTimeoutSeconds bounds each remote tool call.
	CallTimeoutSeconds int `yaml:"call_timeout_seconds"`
	// Servers maps client names to the command that launches the server.
	Servers map[string][]string `yaml:"servers"`
}

// RecoverySettings configures the fault recovery handler.
type RecoverySettings struct {
	MaxRetries   int   `yaml:"max_retries"`
	DelaySeconds []int `yaml:"delay_seconds"`
}

// Delays converts the configured schedule to durations.
func (r RecoverySettings) Delays() []time.Duration {
	out := make([]time.Duration, 0, len(r.DelaySeconds))
	for _, s := range r.DelaySeconds {
		out = append(out, time.Duration(s)*time.Second)
	}
	return out
}

// StoreSettings configures the session store backend.
type StoreSettings struct {
	// Backend is one of "memory", "redis", "sqlite".
	Backend string `yaml:"backend"`
	// Address is the redis address when Backend is "redis".
	Address string `yaml:"address"`
	// Path is the database path when Backend is "sqlite".
	Path string `yaml:"path"`
	// MaxSessions caps the number of retained sessions (memory backend).
	MaxSessions int `yaml:"max_sessions"`
}

// LogSettings configures diagnostics output.
type LogSettings struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Settings is the root configuration object.
type Settings struct {
	// DefaultProvider selects the text-generation backend used first.
	DefaultProvider string `yaml:"default_provider"`
	// ProviderOrder is the switch-provider fallback order.
	ProviderOrder []string                    `yaml:"provider_order"`
	Providers     map[string]ProviderSettings `yaml:"providers"`

	Amadeus  AmadeusSettings  `yaml:"amadeus"`
	Tools    ToolsSettings    `yaml:"tools"`
	Recovery RecoverySettings `yaml:"recovery"`
	Store    StoreSettings    `yaml:"store"`
	Log      LogSettings      `yaml:"log"`
}

// DefaultSettings returns the process-wide defaults used when no config file
// is given. Credentials come from the environment.
func DefaultSettings() *Settings {
	return &Settings{
		DefaultProvider: "ollama",
		ProviderOrder:   []string{"ollama", "openai"},
		Providers: map[string]ProviderSettings{
			"ollama": {
				BaseURL:     os.Getenv("OLLAMA_BASE_URL"),
				Model:       "llama3.2",
				Temperature: 0,
				Timeout:     120,
			},
			"openai": {
				APIKey:      os.Getenv("OPENAI_API_KEY"),
				Model:       "gpt-4o",
				Temperature: 0,
				MaxTokens:   2000,
				Timeout:     30,
			},
		},
		Amadeus: AmadeusSettings{
			ClientID:        os.Getenv("AMADEUS_CLIENT_ID"),
			ClientSecret:    os.Getenv("AMADEUS_CLIENT_SECRET"),
			Host:            "test",
			DefaultCurrency: "USD",
			MaxResults:      10,
			TimeoutSeconds:  30,
		},
		Tools: ToolsSettings{
			CallTimeoutSeconds: 30,
		},
		Recovery: RecoverySettings{
			MaxRetries:   3,
			DelaySeconds: []int{1, 2, 5},
		},
		Store: StoreSettings{
			Backend:     "memory",
			MaxSessions: 100,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads settings from a YAML file, expanding ${VAR} references against
// the environment, and overlays them on the defaults.
func Load(path string) (*Settings, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to access config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrInvalidFormat, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("%w: unsupported extension %s", ErrInvalidFormat, ext)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded, err := ExpandEnvStrict(string(data))
	if err != nil {
		return nil, err
	}

	settings := DefaultSettings()
	if err := yaml.Unmarshal([]byte(expanded), settings); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	return settings, nil
}

// Provider returns the named provider settings and whether they exist.
func (s *Settings) Provider(name string) (ProviderSettings, bool) {
	p, ok := s.Providers[name]
	return p, ok
}
