package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables recognized on top of the config file.
const (
	EnvConfigPath = "CONFIG_PATH"
	EnvDataPath   = "FINBOARD_DATA"
	EnvJWTSecret  = "JWT_SECRET"
	EnvJWTExpiry  = "JWT_EXPIRY"
	EnvAIAPIKey   = "AI_API_KEY"
	EnvAIBaseURL  = "AI_BASE_URL"
	EnvAIModel    = "AI_MODEL"
	EnvAIProvider = "AI_PROVIDER"
)

// Upstream provider wire formats.
const (
	ProviderResponses = "responses"
	ProviderChat      = "chat"
)

// Defaults applied when the config file and environment are silent.
const (
	defaultJWTExpiry     = time.Hour
	defaultDataPath      = "./data/finboard.json"
	defaultAdminUsername = "admin"
	defaultAdminPassword = "admin123"
	defaultDailyLimit    = 20
)

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// AdminConfig names the reserved administrator account seeded on first run.
type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// AIConfig configures the upstream completion endpoint and the daily quota.
type AIConfig struct {
	BaseURL    string `yaml:"base-url"`
	APIKey     string `yaml:"api-key"`
	Model      string `yaml:"model"`
	Provider   string `yaml:"provider"` // responses or chat
	DailyLimit int    `yaml:"daily-limit"`
}

// Config is the resolved application configuration.
type Config struct {
	Port     int         `yaml:"port"`
	DataPath string      `yaml:"data-path"`
	JWT      JWTConfig   `yaml:"jwt"`
	Admin    AdminConfig `yaml:"admin"`
	AI       AIConfig    `yaml:"ai"`
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = strings.TrimSpace(os.Getenv(EnvConfigPath))
	}
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// Load reads the YAML config file, fills defaults, and applies environment
// overrides. A missing file is not an error; the defaults stand.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Port:     3000,
		DataPath: defaultDataPath,
		JWT:      JWTConfig{Expiry: defaultJWTExpiry},
		Admin:    AdminConfig{Username: defaultAdminUsername, Password: defaultAdminPassword},
		AI:       AIConfig{Provider: ProviderResponses, DailyLimit: defaultDailyLimit},
	}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
			return Config{}, fmt.Errorf("parse config file: %w", errUnmarshal)
		}
	} else if !os.IsNotExist(errRead) {
		return Config{}, fmt.Errorf("read config file: %w", errRead)
	}

	applyEnvOverrides(&cfg)

	if cfg.Port <= 0 || cfg.Port > 65535 {
		return Config{}, fmt.Errorf("invalid port: %d", cfg.Port)
	}
	if strings.TrimSpace(cfg.DataPath) == "" {
		cfg.DataPath = defaultDataPath
	}
	if cfg.JWT.Expiry <= 0 {
		cfg.JWT.Expiry = defaultJWTExpiry
	}
	if strings.TrimSpace(cfg.Admin.Username) == "" {
		cfg.Admin.Username = defaultAdminUsername
	}
	if cfg.AI.DailyLimit <= 0 {
		cfg.AI.DailyLimit = defaultDailyLimit
	}
	switch strings.TrimSpace(cfg.AI.Provider) {
	case "", ProviderResponses:
		cfg.AI.Provider = ProviderResponses
	case ProviderChat:
		cfg.AI.Provider = ProviderChat
	default:
		return Config{}, fmt.Errorf("invalid ai provider: %q (want %q or %q)", cfg.AI.Provider, ProviderResponses, ProviderChat)
	}
	return cfg, nil
}

// applyEnvOverrides lets environment variables win over file values.
func applyEnvOverrides(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(EnvDataPath)); v != "" {
		cfg.DataPath = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJWTSecret)); v != "" {
		cfg.JWT.Secret = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); v != "" {
		if expiry, errParse := time.ParseDuration(v); errParse == nil && expiry > 0 {
			cfg.JWT.Expiry = expiry
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvAIAPIKey)); v != "" {
		cfg.AI.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAIBaseURL)); v != "" {
		cfg.AI.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAIModel)); v != "" {
		cfg.AI.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvAIProvider)); v != "" {
		cfg.AI.Provider = v
	}
}
