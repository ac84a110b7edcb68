package config

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress == "" || cfg.DataDir == "" || cfg.VaultAccount == "" {
		t.Fatalf("defaults missing: %+v", cfg)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default file not written: %v", err)
	}

	// Re-loading the written default must round trip.
	again, err := Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if *again != *cfg {
		t.Fatalf("round trip mismatch: %+v vs %+v", again, cfg)
	}
}

func TestLoadExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
RPCAddress = ":7001"
VaultAccount = "custody"
RewardRate = "250000"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.RPCAddress != ":7001" {
		t.Fatalf("rpc address: %s", cfg.RPCAddress)
	}
	if cfg.OpsAddress == "" || cfg.DataDir == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	rate, err := cfg.ParseRate()
	if err != nil {
		t.Fatalf("parse rate: %v", err)
	}
	if rate.Cmp(big.NewInt(250_000)) != 0 {
		t.Fatalf("rate: got %s want 250000", rate)
	}
}

func TestParseRateRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "abc", "-3", "0", "1.5"} {
		cfg := &Config{RewardRate: raw}
		if _, err := cfg.ParseRate(); err == nil {
			t.Fatalf("rate %q accepted", raw)
		}
	}
}
