// Package config loads service configuration from an optional YAML file
// layered under CONCIERGE_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	LLM       LLMConfig       `koanf:"llm"`
	Storage   StorageConfig   `koanf:"storage"`
	Interview InterviewConfig `koanf:"interview"`
}

type ServerConfig struct {
	Port           int           `koanf:"port"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

type LLMConfig struct {
	APIKey            string        `koanf:"api_key"`
	BaseURL           string        `koanf:"base_url"`
	Model             string        `koanf:"model"`
	Timeout           time.Duration `koanf:"timeout"`
	PromptTokenBudget int           `koanf:"prompt_token_budget"`
}

type StorageConfig struct {
	Type   string       `koanf:"type"` // memory, sqlite
	SQLite SQLiteConfig `koanf:"sqlite"`
	// SessionTTL only applies to the memory store.
	SessionTTL time.Duration `koanf:"session_ttl"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type InterviewConfig struct {
	MaxQuestions int `koanf:"max_questions"`
}

// Load reads configPath (ignored when empty or missing) and then the
// environment. Environment keys map CONCIERGE_SERVER__PORT to server.port.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file: %w", err)
			}
		}
	}

	// Double underscore separates nesting levels so keys like llm.api_key
	// stay addressable: CONCIERGE_LLM__API_KEY.
	if err := k.Load(env.Provider("CONCIERGE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "CONCIERGE_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Default values
	defaults := map[string]any{
		"server.port":             8080,
		"server.request_timeout":  "30s",
		"llm.base_url":            "https://api.openai.com/v1",
		"llm.model":               "gpt-4o-mini",
		"llm.timeout":             "10s",
		"llm.prompt_token_budget": 1500,
		"storage.type":            "memory",
		"storage.sqlite.path":     "./data/concierge.db",
		"storage.session_ttl":     "1h",
		"interview.max_questions": 3,
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			k.Set(key, val)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
