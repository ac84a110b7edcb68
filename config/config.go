package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	RPCAddress         string  `toml:"RPCAddress"`
	OpsAddress         string  `toml:"OpsAddress"`
	DataDir            string  `toml:"DataDir"`
	GenesisFile        string  `toml:"GenesisFile"`
	LogFile            string  `toml:"LogFile"`
	VaultAccount       string  `toml:"VaultAccount"`
	RewardRate         string  `toml:"RewardRate"`
	RateLimitPerMinute float64 `toml:"RateLimitPerMinute"`
	RateLimitBurst     int     `toml:"RateLimitBurst"`
}

// Load loads the configuration from the given path, creating a default file
// when none exists yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseRate converts the configured reward rate into an exact integer amount
// of reward units per second.
func (c *Config) ParseRate() (*big.Int, error) {
	trimmed := strings.TrimSpace(c.RewardRate)
	if trimmed == "" {
		return nil, fmt.Errorf("config: RewardRate is required")
	}
	rate, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("config: invalid RewardRate %q", c.RewardRate)
	}
	if rate.Sign() <= 0 {
		return nil, fmt.Errorf("config: RewardRate must be positive")
	}
	return rate, nil
}

// Validate checks the loaded configuration for obviously broken values.
func Validate(cfg *Config) error {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		return fmt.Errorf("config: RPCAddress is required")
	}
	if strings.TrimSpace(cfg.VaultAccount) == "" {
		return fmt.Errorf("config: VaultAccount is required")
	}
	if _, err := cfg.ParseRate(); err != nil {
		return err
	}
	if cfg.RateLimitPerMinute < 0 {
		return fmt.Errorf("config: RateLimitPerMinute must not be negative")
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.OpsAddress) == "" {
		cfg.OpsAddress = ":9090"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./stakeledger-data"
	}
	if strings.TrimSpace(cfg.VaultAccount) == "" {
		cfg.VaultAccount = "pool-vault"
	}
	if strings.TrimSpace(cfg.RewardRate) == "" {
		cfg.RewardRate = "1"
	}
	if cfg.RateLimitPerMinute == 0 {
		cfg.RateLimitPerMinute = 120
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 10
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{}
	applyDefaults(cfg)
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
