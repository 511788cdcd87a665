package config

import (
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

const configFileName = "config.toml"

type OpenAIConfig struct {
	BaseURL string `toml:"base_url"`
	Model   string `toml:"model"`
	APIKey  string `toml:"api_key"`
}

type Config struct {
	ListenHost     string       `toml:"listen_host"`
	ListenPort     int          `toml:"listen_port"`
	LogLevel       string       `toml:"log_level"`
	DatabasePath   string       `toml:"database_path"`
	AuthSecret     string       `toml:"auth_secret"`
	TokenTTLHours  int          `toml:"token_ttl_hours"`
	MaxToolRounds  int          `toml:"max_tool_rounds"`
	BcryptCost     int          `toml:"bcrypt_cost"`
	OpenAI         OpenAIConfig `toml:"openai"`
}

// Load builds the effective config: defaults, then the optional TOML file,
// then TASKDESK_* environment overrides.
func Load() (Config, error) {
	cfg := defaults()

	path := configFilePath()
	if b, err := os.ReadFile(path); err == nil {
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return Config{}, err
		}
	} else if !os.IsNotExist(err) {
		return Config{}, err
	}

	applyEnv(&cfg)
	return normalize(cfg), nil
}

func defaults() Config {
	return Config{
		ListenHost:    "127.0.0.1",
		ListenPort:    8080,
		LogLevel:      "info",
		DatabasePath:  defaultDatabasePath(),
		TokenTTLHours: 24,
		MaxToolRounds: 4,
		BcryptCost:    12,
		OpenAI: OpenAIConfig{
			Model: "gpt-4o",
		},
	}
}

func configFilePath() string {
	if p := strings.TrimSpace(os.Getenv("TASKDESK_CONFIG")); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return configFileName
	}
	return filepath.Join(home, ".taskdesk", configFileName)
}

func defaultDatabasePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "taskdesk.db"
	}
	return filepath.Join(home, ".taskdesk", "taskdesk.db")
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TASKDESK_LISTEN_HOST"); v != "" {
		cfg.ListenHost = v
	}
	if v := os.Getenv("TASKDESK_LISTEN_PORT"); v != "" {
		if n := atoiOrDefault(v, cfg.ListenPort); n > 0 {
			cfg.ListenPort = n
		}
	}
	if v := os.Getenv("TASKDESK_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("TASKDESK_DB_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("TASKDESK_AUTH_SECRET"); v != "" {
		cfg.AuthSecret = v
	}
	if v := os.Getenv("TASKDESK_TOKEN_TTL_HOURS"); v != "" {
		if n := atoiOrDefault(v, cfg.TokenTTLHours); n > 0 {
			cfg.TokenTTLHours = n
		}
	}
	if v := os.Getenv("TASKDESK_MAX_TOOL_ROUNDS"); v != "" {
		if n := atoiOrDefault(v, cfg.MaxToolRounds); n > 0 {
			cfg.MaxToolRounds = n
		}
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAI.BaseURL = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAI.Model = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAI.APIKey = v
	}
}

func normalize(cfg Config) Config {
	if cfg.ListenHost == "" {
		cfg.ListenHost = "127.0.0.1"
	}
	if cfg.ListenPort <= 0 {
		cfg.ListenPort = 8080
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = defaultDatabasePath()
	}
	if cfg.TokenTTLHours <= 0 {
		cfg.TokenTTLHours = 24
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 4
	}
	if cfg.BcryptCost < 10 || cfg.BcryptCost > 15 {
		cfg.BcryptCost = 12
	}
	if strings.TrimSpace(cfg.OpenAI.Model) == "" {
		cfg.OpenAI.Model = "gpt-4o"
	}
	return cfg
}

func atoiOrDefault(v string, fallback int) int {
	n := 0
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return fallback
		}
		n = n*10 + int(v[i]-'0')
	}
	if n == 0 {
		return fallback
	}
	return n
}
