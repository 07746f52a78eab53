package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	env "github.com/caarlos0/env/v11"
)

// Config represents runtime configuration for the client.
type Config struct {
	Backend  BackendConfig  `json:"backend"`
	Realtime RealtimeConfig `json:"realtime"`
}

// BackendConfig describes the REST endpoints of the chat backend.
type BackendConfig struct {
	BaseURL        string `json:"base_url"`
	RequestTimeout int    `json:"request_timeout_seconds"`
}

// RealtimeConfig describes the publish/subscribe channel. The reconnect
// delay and heartbeat defaults mirror the backend's expectations.
type RealtimeConfig struct {
	URL            string `json:"url"`
	ReconnectDelay int    `json:"reconnect_delay_seconds"`
	Heartbeat      int    `json:"heartbeat_seconds"`
}

// Credentials carry the bearer token and authenticated user id. They are
// handed to the chat subsystem explicitly so it never reads ambient state.
type Credentials struct {
	Token  string `env:"ADMITCHAT_TOKEN"`
	UserID string `env:"ADMITCHAT_USER_ID"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8080/api/chatboxes",
			RequestTimeout: 10,
		},
		Realtime: RealtimeConfig{
			URL:            "ws://localhost:8080/ws",
			ReconnectDelay: 5,
			Heartbeat:      4,
		},
	}
}

// Load reads configuration from the provided path (defaults to config.json).
// A missing default file falls back to Default so the client can run
// against a local backend without any setup.
func Load(path string) (*Config, error) {
	defaulted := path == ""
	if defaulted {
		path = "config.json"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path: %w", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		if defaulted && os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("open config %s: %w", absPath, err)
	}
	defer file.Close()

	cfg := Default()
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend.base_url must be configured")
	}
	if cfg.Realtime.URL == "" {
		return nil, fmt.Errorf("realtime.url must be configured")
	}
	if cfg.Realtime.ReconnectDelay <= 0 {
		cfg.Realtime.ReconnectDelay = 5
	}
	if cfg.Realtime.Heartbeat <= 0 {
		cfg.Realtime.Heartbeat = 4
	}

	return cfg, nil
}

// LoadCredentials parses credentials from the environment.
func LoadCredentials() (Credentials, error) {
	var creds Credentials
	if err := env.Parse(&creds); err != nil {
		return Credentials{}, fmt.Errorf("parse credentials: %w", err)
	}
	return creds, nil
}

// Timeout returns the REST timeout as a duration.
func (c BackendConfig) Timeout() time.Duration {
	if c.RequestTimeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.RequestTimeout) * time.Second
}

// ReconnectInterval returns the reconnect delay as a duration.
func (c RealtimeConfig) ReconnectInterval() time.Duration {
	return time.Duration(c.ReconnectDelay) * time.Second
}

// HeartbeatInterval returns the heartbeat period as a duration.
func (c RealtimeConfig) HeartbeatInterval() time.Duration {
	return time.Duration(c.Heartbeat) * time.Second
}
