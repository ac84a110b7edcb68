package genesis

import (
	"errors"
	"fmt"
	"math/big"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"stakeledger/native/bank"
	"stakeledger/storage"
)

const appliedKey = "genesis/applied"

// Genesis seeds the token ledger on first boot: participant balances plus the
// reward reserve minted into pool custody. Amounts are decimal strings so the
// file round-trips exact integers.
type Genesis struct {
	Balances      map[string]string `yaml:"balances"`
	RewardReserve string            `yaml:"rewardReserve"`
}

// Load parses a genesis file.
func Load(path string) (*Genesis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	gen := &Genesis{}
	if err := yaml.Unmarshal(data, gen); err != nil {
		return nil, fmt.Errorf("genesis: parse %s: %w", path, err)
	}
	return gen, nil
}

// Applied reports whether genesis seeding already ran against this database.
func Applied(db storage.Database) (bool, error) {
	_, err := db.Get([]byte(appliedKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Apply mints the configured balances into the ledger and marks the database
// as seeded. It is an error to apply twice.
func (g *Genesis) Apply(db storage.Database, ledger *bank.Ledger, vault string) error {
	applied, err := Applied(db)
	if err != nil {
		return err
	}
	if applied {
		return errors.New("genesis: already applied")
	}

	accounts := make([]string, 0, len(g.Balances))
	for account := range g.Balances {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)
	for _, account := range accounts {
		amount, err := parseAmount(g.Balances[account])
		if err != nil {
			return fmt.Errorf("genesis: balance for %s: %w", account, err)
		}
		if err := ledger.Mint(account, amount); err != nil {
			return err
		}
	}

	if strings.TrimSpace(g.RewardReserve) != "" {
		reserve, err := parseAmount(g.RewardReserve)
		if err != nil {
			return fmt.Errorf("genesis: reward reserve: %w", err)
		}
		if err := ledger.Mint(vault, reserve); err != nil {
			return err
		}
	}

	return db.Put([]byte(appliedKey), []byte{1})
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, errors.New("amount is required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}
