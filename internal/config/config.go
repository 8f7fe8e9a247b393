// Package config loads runtime configuration from config.yaml and the
// environment. Environment variables use the MEDAGENT_ prefix with
// double underscores as section separators, e.g. MEDAGENT_SERVER__PORT
// or MEDAGENT_LLM__API_KEY, and override file values.
package config

import (
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Storage StorageConfig `koanf:"storage"`
	LLM     LLMConfig     `koanf:"llm"`
	Session SessionConfig `koanf:"session"`
	Notify  NotifyConfig  `koanf:"notify"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type StorageConfig struct {
	Path string `koanf:"path"`
}

type LLMConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
	Model   string `koanf:"model"`
}

type SessionConfig struct {
	// MaxHistoryTokens bounds the conversation window handed to the
	// language model per request.
	MaxHistoryTokens int `koanf:"max_history_tokens"`
}

type NotifyConfig struct {
	// Buffer is the per-subscriber change event buffer size.
	Buffer int `koanf:"buffer"`
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Load reads config.yaml if present, overlays MEDAGENT_ environment
// variables, and fills in defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider("config.yaml"), yaml.Parser()); err != nil {
		// File not found is OK, we'll use env vars
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	if err := k.Load(env.Provider("MEDAGENT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "MEDAGENT_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	setDefaults(k)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.LLM.APIKey = substituteEnvVars(cfg.LLM.APIKey)

	return &cfg, nil
}

func setDefaults(k *koanf.Koanf) {
	defaults := map[string]any{
		"server.port":                8080,
		"storage.path":               "medagent.db",
		"llm.model":                  "llama-3.3-70b-versatile",
		"session.max_history_tokens": 2048,
		"notify.buffer":              16,
	}
	for key, value := range defaults {
		if !k.Exists(key) {
			k.Set(key, value)
		}
	}
}

// substituteEnvVars expands ${VAR} references so secrets can live in
// the environment while the rest of the config lives in the file.
func substituteEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}
