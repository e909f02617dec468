package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the global ~/.wam/config.toml.
type Config struct {
	DefaultSession string `toml:"default_session"`
	Daemon         Daemon `toml:"daemon"`
	Bridge         Bridge `toml:"bridge"`
	Store          Store  `toml:"store"`
}

// Daemon holds settings for the local HTTP API server.
type Daemon struct {
	ListenAddr string `toml:"listen_addr"`
}

// Bridge holds settings for the WhatsApp bridge the daemon forwards
// send/download actions to.
type Bridge struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Store holds optional overrides for the archive databases. When empty the
// session-relative defaults are used.
type Store struct {
	MessagesDB string `toml:"messages_db"`
	WhatsAppDB string `toml:"whatsapp_db"`
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	return &Config{
		Daemon: Daemon{ListenAddr: "127.0.0.1:8077"},
		Bridge: Bridge{BaseURL: "http://localhost:8080/api", TimeoutSeconds: 30},
	}
}

// Load reads config from the given path. Returns an error if the file is
// missing; callers fall back to Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
