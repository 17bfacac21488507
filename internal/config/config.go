// Package config loads the client configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Channel   ChannelConfig   `yaml:"channel"`
	Directory DirectoryConfig `yaml:"directory"`
	Storage   StorageConfig   `yaml:"storage"`
	Limits    LimitsConfig    `yaml:"limits"`
}

type ChannelConfig struct {
	// Endpoint is either a ws:// wss:// URL or a multiaddr such as
	// /dns4/chat.example.com/tcp/443/wss.
	Endpoint string `yaml:"endpoint" env:"HANGOUT_CHANNEL_ENDPOINT"`
}

type DirectoryConfig struct {
	BaseURL string        `yaml:"baseUrl" env:"HANGOUT_DIRECTORY_URL"`
	Timeout time.Duration `yaml:"timeout" env:"HANGOUT_DIRECTORY_TIMEOUT"`
}

type StorageConfig struct {
	DataDir string `yaml:"dataDir" env:"HANGOUT_DATA_DIR"`
	Secret  string `yaml:"secret" env:"HANGOUT_STORAGE_SECRET"`
}

type LimitsConfig struct {
	CommandsPerSecond float64       `yaml:"commandsPerSecond" env:"HANGOUT_COMMANDS_PER_SECOND"`
	CommandBurst      int           `yaml:"commandBurst" env:"HANGOUT_COMMAND_BURST"`
	LimiterIdleTTL    time.Duration `yaml:"limiterIdleTtl" env:"HANGOUT_LIMITER_IDLE_TTL"`
}

func Default() Config {
	return Config{
		Directory: DirectoryConfig{Timeout: 10 * time.Second},
		Limits: LimitsConfig{
			CommandsPerSecond: 2,
			CommandBurst:      5,
			LimiterIdleTTL:    5 * time.Minute,
		},
	}
}

// LoadFromPath reads the config file when present, merges it over the
// defaults, then applies environment overrides. A missing file is fine; a
// present but unparseable one is an error.
func LoadFromPath(configPath string) (Config, error) {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if configPath != "" {
		candidates = append(candidates, configPath)
	} else {
		candidates = append(candidates,
			"hangout.yaml",
			"configs/hangout.yaml",
		)
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if configPath != "" {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
			continue
		}
		var parsed Config
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		merge(&cfg, parsed)
		break
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	normalize(&cfg)
	return cfg, nil
}

func merge(dst *Config, src Config) {
	if src.Channel.Endpoint != "" {
		dst.Channel.Endpoint = src.Channel.Endpoint
	}
	if src.Directory.BaseURL != "" {
		dst.Directory.BaseURL = src.Directory.BaseURL
	}
	if src.Directory.Timeout > 0 {
		dst.Directory.Timeout = src.Directory.Timeout
	}
	if src.Storage.DataDir != "" {
		dst.Storage.DataDir = src.Storage.DataDir
	}
	if src.Storage.Secret != "" {
		dst.Storage.Secret = src.Storage.Secret
	}
	if src.Limits.CommandsPerSecond > 0 {
		dst.Limits.CommandsPerSecond = src.Limits.CommandsPerSecond
	}
	if src.Limits.CommandBurst > 0 {
		dst.Limits.CommandBurst = src.Limits.CommandBurst
	}
	if src.Limits.LimiterIdleTTL > 0 {
		dst.Limits.LimiterIdleTTL = src.Limits.LimiterIdleTTL
	}
}

func normalize(cfg *Config) {
	cfg.Channel.Endpoint = strings.TrimSpace(cfg.Channel.Endpoint)
	cfg.Directory.BaseURL = strings.TrimSpace(cfg.Directory.BaseURL)
	cfg.Storage.DataDir = strings.TrimSpace(cfg.Storage.DataDir)
	if cfg.Directory.Timeout <= 0 {
		cfg.Directory.Timeout = 10 * time.Second
	}
}

// Validate checks the fields a running client cannot do without.
func (c Config) Validate() error {
	if c.Channel.Endpoint == "" {
		return errors.New("channel endpoint is required")
	}
	if c.Directory.BaseURL == "" {
		return errors.New("directory base url is required")
	}
	return nil
}
