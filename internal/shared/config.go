package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Resolver    ResolverConfig    `toml:"resolver"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Gemini  GeminiConfig  `toml:"gemini"`
	YouTube YouTubeConfig `toml:"youtube"`
	Spotify SpotifyConfig `toml:"spotify"`
}

// GeminiConfig contains Gemini generateContent API settings.
type GeminiConfig struct {
	APIKey  string `toml:"api_key" validate:"required"`
	Model   string `toml:"model" validate:"required"`
	BaseURL string `toml:"base_url" validate:"omitempty,url"`
}

// YouTubeConfig contains YouTube Data API credentials.
type YouTubeConfig struct {
	APIKey    string  `toml:"api_key" validate:"required"`
	BaseURL   string  `toml:"base_url" validate:"omitempty,url"`
	RateLimit float64 `toml:"rate_limit" validate:"gte=0"`
}

// SpotifyConfig contains Spotify client-credentials settings.
//
// Spotify is optional: leaving both fields empty disables link enrichment.
type SpotifyConfig struct {
	ClientID     string `toml:"client_id" validate:"required_with=ClientSecret"`
	ClientSecret string `toml:"client_secret" validate:"required_with=ClientID"`
	TokenURL     string `toml:"token_url" validate:"omitempty,url"`
	BaseURL      string `toml:"base_url" validate:"omitempty,url"`
}

// Enabled reports whether both Spotify credentials are present.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path          string `toml:"path"`
	MaxOpenConns  int    `toml:"max_open_conns" validate:"gte=0"`
	MaxIdleConns  int    `toml:"max_idle_conns" validate:"gte=0"`
	RecordHistory bool   `toml:"record_history"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host           string   `toml:"host"`
	Port           int      `toml:"port" validate:"gte=0,lte=65535"`
	Dev            bool     `toml:"dev"`
	RateLimit      float64  `toml:"rate_limit" validate:"gte=0"`
	RateBurst      int      `toml:"rate_burst" validate:"gte=0"`
	AllowedOrigin  string   `toml:"allowed_origin"`
	TrustedProxies []string `toml:"trusted_proxies" validate:"dive,ip|cidr"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ResolverConfig tunes the recommendation pipeline.
type ResolverConfig struct {
	CallTimeout   Duration `toml:"call_timeout"`
	MaxRetries    int      `toml:"max_retries" validate:"gte=1,lte=10"`
	PlaylistLimit int      `toml:"playlist_limit" validate:"gte=1,lte=10"`
	RecentTurns   int      `toml:"recent_turns" validate:"gte=0"`
	RulesPath     string   `toml:"rules_path"`
}

// Duration is a [time.Duration] that decodes from TOML strings like "10s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = v
	return nil
}

// MarshalText implements [encoding.TextMarshaler].
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the defaults from the embedded example config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
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

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ResolveConfig loads path when it exists, falls back to defaults otherwise, and overlays the environment.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if _, err := os.Stat(path); err == nil {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		config = loaded
	}

	config.ApplyEnv(LoadEnv())
	return config, nil
}

// Environment variables that override file values.
const (
	EnvGeminiKey     = "GEMINI_API_KEY"
	EnvYouTubeKey    = "YOUTUBE_API_KEY"
	EnvSpotifyID     = "SPOTIFY_CLIENT_ID"
	EnvSpotifySecret = "SPOTIFY_CLIENT_SECRET"
	EnvMode          = "PROMPTDJ_ENV"
)

// LoadEnv reads .env (when present) without clobbering the process environment and returns the
// overrides relevant to [Config].
func LoadEnv(files ...string) map[string]string {
	_ = godotenv.Load(files...)

	env := map[string]string{}
	for _, key := range []string{EnvGeminiKey, EnvYouTubeKey, EnvSpotifyID, EnvSpotifySecret, EnvMode} {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			env[key] = v
		}
	}
	return env
}

// ApplyEnv overlays environment values onto the config.
func (c *Config) ApplyEnv(env map[string]string) {
	if v, ok := env[EnvGeminiKey]; ok {
		c.Credentials.Gemini.APIKey = v
	}
	if v, ok := env[EnvYouTubeKey]; ok {
		c.Credentials.YouTube.APIKey = v
	}
	if v, ok := env[EnvSpotifyID]; ok {
		c.Credentials.Spotify.ClientID = v
	}
	if v, ok := env[EnvSpotifySecret]; ok {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v, ok := env[EnvMode]; ok {
		c.Server.Dev = v == "development" || v == "dev"
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the configuration. Missing generative or video credentials are reported as
// [ErrMissingCredentials]; other violations as [ErrInvalidConfig].
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	for _, fe := range verrs {
		if fe.Tag() == "required" || fe.Tag() == "required_with" {
			return fmt.Errorf("%w: %s", ErrMissingCredentials, fe.Namespace())
		}
	}
	return fmt.Errorf("%w: %v", ErrInvalidConfig, verrs)
}
