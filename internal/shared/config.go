package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Source      SourceConfig      `toml:"source"`
	Cache       CacheConfig       `toml:"cache"`
	Tasks       TasksConfig       `toml:"tasks"`
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
}

// SourceConfig controls the scraping session used against a music site.
type SourceConfig struct {
	Name                string `toml:"name"`
	TimeoutSeconds      int    `toml:"timeout_seconds"`
	Proxy               string `toml:"proxy"`
	Trace               bool   `toml:"trace"`
	BypassCloudflare    bool   `toml:"bypass_cloudflare"`
	CurlFile            string `toml:"curl_file"`
	MaxSearch           int    `toml:"max_search"`
	PageCacheSize       int    `toml:"page_cache_size"`
	PageCacheTTLSeconds int    `toml:"page_cache_ttl_seconds"`
}

// Timeout returns the request timeout as a [time.Duration].
func (c SourceConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PageCacheTTL returns how long fetched pages stay in memory.
func (c SourceConfig) PageCacheTTL() time.Duration {
	return time.Duration(c.PageCacheTTLSeconds) * time.Second
}

// CacheConfig configures the on-disk memoization cache.
type CacheConfig struct {
	Dir         string `toml:"dir"`
	ExpireHours int    `toml:"expire_hours"`
}

// Expire returns the cache lifetime as a [time.Duration].
func (c CacheConfig) Expire() time.Duration {
	return time.Duration(c.ExpireHours) * time.Hour
}

// TasksConfig configures bulk operations.
type TasksConfig struct {
	Workers   int     `toml:"workers"`
	RateLimit float64 `toml:"rate_limit"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials and the way the
// authorization code reaches us: "paste" or "callback".
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Username     string   `toml:"username"`
	Scopes       []string `toml:"scopes"`
	Mode         string   `toml:"mode"`
	TokenDir     string   `toml:"token_dir"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains settings for the local OAuth callback server.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate reports settings that cannot work.
func (c *Config) Validate() error {
	switch {
	case c.Source.TimeoutSeconds < 0:
		return fmt.Errorf("%w: source.timeout_seconds must not be negative", ErrInvalidConfig)
	case c.Source.MaxSearch < 0:
		return fmt.Errorf("%w: source.max_search must not be negative", ErrInvalidConfig)
	case c.Cache.ExpireHours < 0:
		return fmt.Errorf("%w: cache.expire_hours must not be negative", ErrInvalidConfig)
	case c.Tasks.Workers < 0 || c.Tasks.RateLimit < 0:
		return fmt.Errorf("%w: tasks settings must not be negative", ErrInvalidConfig)
	}

	switch c.Credentials.Spotify.Mode {
	case "", "paste", "callback":
	default:
		return fmt.Errorf("%w: unknown spotify mode %q", ErrInvalidConfig, c.Credentials.Spotify.Mode)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// SaveConfig encodes config as TOML to path, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
