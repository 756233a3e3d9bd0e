package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
	ProviderHTTP   = "http"

	ModeLocal = "local"
	ModeCloud = "cloud"

	DefaultProvider       = ProviderGroq
	DefaultBaseURL        = "https://api.groq.com/openai/v1"
	DefaultModel          = "llama-3.1-8b-instant"
	DefaultMode           = ModeLocal
	DefaultParseTimeout   = "10s"
	DefaultSuggestTimeout = "15s"
	DefaultDebounce       = "500ms"
	DefaultStorage        = "sqlite"
	DefaultHost           = "127.0.0.1"
	DefaultPort           = 18791
	DefaultDigestSchedule = "0 0 8 * * *"
	DefaultLogLevel       = "info"

	// PlaceholderAPIKey is the sample key shipped in docs; it never counts as a credential.
	PlaceholderAPIKey = "your-groq-api-key"
	groqKeyPrefix     = "gsk_"

	EnvPrefix = "PACKMATE"
)

type Config struct {
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`
	AI       AIConfig       `json:"ai" mapstructure:"ai"`
	Storage  StorageConfig  `json:"storage" mapstructure:"storage"`
	Suggest  SuggestConfig  `json:"suggest" mapstructure:"suggest"`
	Server   ServerConfig   `json:"server" mapstructure:"server"`
	Digest   DigestConfig   `json:"digest" mapstructure:"digest"`
	Log      LogConfig      `json:"log" mapstructure:"log"`
}

type ProviderConfig struct {
	Type    string `json:"type" mapstructure:"type"` // "groq" (default), "openai" or "http"
	APIKey  string `json:"apiKey" mapstructure:"apikey"`
	BaseURL string `json:"baseUrl,omitempty" mapstructure:"baseurl"`
	Model   string `json:"model" mapstructure:"model"`
}

type AIConfig struct {
	Mode           string `json:"mode" mapstructure:"mode"`
	ParseTimeout   string `json:"parseTimeout,omitempty" mapstructure:"parsetimeout"`
	SuggestTimeout string `json:"suggestTimeout,omitempty" mapstructure:"suggesttimeout"`
}

type StorageConfig struct {
	Backend string `json:"backend" mapstructure:"backend"` // "sqlite" (default), "file" or "memory"
	Path    string `json:"path,omitempty" mapstructure:"path"`
}

type SuggestConfig struct {
	Debounce    string `json:"debounce,omitempty" mapstructure:"debounce"`
	CatalogPath string `json:"catalogPath,omitempty" mapstructure:"catalogpath"`
}

type ServerConfig struct {
	Host string `json:"host" mapstructure:"host"`
	Port int    `json:"port" mapstructure:"port"`
}

type DigestConfig struct {
	Enabled  bool   `json:"enabled" mapstructure:"enabled"`
	Schedule string `json:"schedule" mapstructure:"schedule"`
}

type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`
	Pretty bool   `json:"pretty" mapstructure:"pretty"`
}

func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Type:    DefaultProvider,
			BaseURL: DefaultBaseURL,
			Model:   DefaultModel,
		},
		AI: AIConfig{
			Mode:           DefaultMode,
			ParseTimeout:   DefaultParseTimeout,
			SuggestTimeout: DefaultSuggestTimeout,
		},
		Storage: StorageConfig{
			Backend: DefaultStorage,
			Path:    filepath.Join(ConfigDir(), "packmate.db"),
		},
		Suggest: SuggestConfig{
			Debounce: DefaultDebounce,
		},
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Digest: DigestConfig{
			Schedule: DefaultDigestSchedule,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Pretty: true,
		},
	}
}

func ConfigDir() string {
	home := os.Getenv("HOME")
	if home == "" {
		home, _ = os.UserHomeDir()
	}
	return filepath.Join(home, ".packmate")
}

func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

func LoadConfig() (*Config, error) {
	return LoadFromPath(ConfigPath())
}

// LoadFromPath reads a JSON config file (a missing file means defaults) and
// applies PACKMATE_* environment overrides, e.g. PACKMATE_PROVIDER_APIKEY or
// PACKMATE_AI_MODE.
func LoadFromPath(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	// Environment variable overrides
	if key := os.Getenv("PACKMATE_API_KEY"); key != "" {
		cfg.Provider.APIKey = key
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		cfg.Provider.Type = ProviderGroq
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = key
		cfg.Provider.Type = ProviderOpenAI
		if cfg.Provider.BaseURL == DefaultBaseURL {
			cfg.Provider.BaseURL = ""
		}
	}

	cfg.normalize()
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("provider.type", d.Provider.Type)
	v.SetDefault("provider.apikey", d.Provider.APIKey)
	v.SetDefault("provider.baseurl", d.Provider.BaseURL)
	v.SetDefault("provider.model", d.Provider.Model)
	v.SetDefault("ai.mode", d.AI.Mode)
	v.SetDefault("ai.parsetimeout", d.AI.ParseTimeout)
	v.SetDefault("ai.suggesttimeout", d.AI.SuggestTimeout)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.path", d.Storage.Path)
	v.SetDefault("suggest.debounce", d.Suggest.Debounce)
	v.SetDefault("suggest.catalogpath", d.Suggest.CatalogPath)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("digest.enabled", d.Digest.Enabled)
	v.SetDefault("digest.schedule", d.Digest.Schedule)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.pretty", d.Log.Pretty)
}

func (c *Config) normalize() {
	d := DefaultConfig()
	c.Provider.Type = strings.ToLower(strings.TrimSpace(c.Provider.Type))
	if c.Provider.Type == "" {
		c.Provider.Type = d.Provider.Type
	}
	c.Provider.APIKey = strings.TrimSpace(c.Provider.APIKey)
	if c.Provider.Model == "" {
		c.Provider.Model = d.Provider.Model
	}
	c.AI.Mode = strings.ToLower(strings.TrimSpace(c.AI.Mode))
	if c.AI.Mode == ProviderGroq {
		c.AI.Mode = ModeCloud
	}
	if c.AI.Mode != ModeCloud {
		c.AI.Mode = ModeLocal
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Storage.Path == "" {
		c.Storage.Path = d.Storage.Path
	}
	if c.Server.Port <= 0 {
		c.Server.Port = d.Server.Port
	}
	if c.Digest.Schedule == "" {
		c.Digest.Schedule = d.Digest.Schedule
	}
}

func SaveConfig(cfg *Config) error {
	return SaveToPath(cfg, ConfigPath())
}

func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0600)
}

// HasValidCredential reports whether the configured key can be sent to the
// provider. Groq keys must carry the gsk_ prefix.
func (c *Config) HasValidCredential() bool {
	key := strings.TrimSpace(c.Provider.APIKey)
	if key == "" || key == PlaceholderAPIKey {
		return false
	}
	if c.Provider.Type == ProviderGroq || c.Provider.Type == "" {
		return strings.HasPrefix(key, groqKeyPrefix)
	}
	return true
}

// CloudEnabled reports whether external generation may be called at all.
func (c *Config) CloudEnabled() bool {
	return c.AI.Mode == ModeCloud && c.HasValidCredential()
}

func (c *Config) ParseTimeout() time.Duration {
	return parseDuration(c.AI.ParseTimeout, DefaultParseTimeout)
}

func (c *Config) SuggestTimeout() time.Duration {
	return parseDuration(c.AI.SuggestTimeout, DefaultSuggestTimeout)
}

func (c *Config) Debounce() time.Duration {
	return parseDuration(c.Suggest.Debounce, DefaultDebounce)
}

func parseDuration(raw, fallback string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}
