package bank

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"stakeledger/storage"
)

var (
	// ErrInsufficientBalance is returned when a transfer exceeds the sender's funds.
	ErrInsufficientBalance = errors.New("bank: insufficient balance")
	// ErrInsufficientAllowance is returned when a delegated transfer exceeds the approved amount.
	ErrInsufficientAllowance = errors.New("bank: insufficient allowance")
	// ErrInvalidAmount is returned for nil or negative transfer amounts.
	ErrInvalidAmount = errors.New("bank: amount must be non-negative")
)

const (
	balanceKeyFormat   = "bank/balance/%s"
	allowanceKeyFormat = "bank/allowance/%s/%s"
)

// Ledger is a fungible-balance store with ERC20-style transfer semantics. It
// plays the external value-transfer collaborator for the reward pool: the pool
// never holds raw value, it only asks the ledger to move it. Balances are
// persisted as exact big-endian integer bytes so no precision is lost across
// restarts.
type Ledger struct {
	mu sync.RWMutex
	db storage.Database
}

// NewLedger constructs a ledger backed by the supplied key-value store.
func NewLedger(db storage.Database) *Ledger {
	return &Ledger{db: db}
}

func balanceKey(account string) []byte {
	return []byte(fmt.Sprintf(balanceKeyFormat, account))
}

func allowanceKey(owner, spender string) []byte {
	return []byte(fmt.Sprintf(allowanceKeyFormat, owner, spender))
}

func (l *Ledger) load(key []byte) *big.Int {
	data, err := l.db.Get(key)
	if err != nil || len(data) == 0 {
		return big.NewInt(0)
	}
	return new(big.Int).SetBytes(data)
}

func (l *Ledger) save(key []byte, value *big.Int) error {
	return l.db.Put(key, value.Bytes())
}

// BalanceOf returns the current balance for the account. Unknown accounts hold
// a zero balance.
func (l *Ledger) BalanceOf(account string) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.load(balanceKey(account))
}

// Mint credits freshly issued units to the account. Used for genesis seeding
// and reward-reserve funding.
func (l *Ledger) Mint(account string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	balance := l.load(balanceKey(account))
	balance.Add(balance, amount)
	return l.save(balanceKey(account), balance)
}

// Approve grants the spender permission to move up to amount from the owner's
// balance via TransferFrom.
func (l *Ledger) Approve(owner, spender string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.save(allowanceKey(owner, spender), amount)
}

// Allowance reports the remaining amount the spender may move from the owner.
func (l *Ledger) Allowance(owner, spender string) *big.Int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.load(allowanceKey(owner, spender))
}

// Transfer moves amount from one account to another. The sender must hold at
// least amount.
func (l *Ledger) Transfer(from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.move(from, to, amount)
}

// TransferFrom moves amount from the owner to the recipient on behalf of the
// spender, consuming the spender's allowance.
func (l *Ledger) TransferFrom(spender, from, to string, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return ErrInvalidAmount
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	allowance := l.load(allowanceKey(from, spender))
	if allowance.Cmp(amount) < 0 {
		return ErrInsufficientAllowance
	}
	if err := l.move(from, to, amount); err != nil {
		return err
	}
	allowance.Sub(allowance, amount)
	return l.save(allowanceKey(from, spender), allowance)
}

func (l *Ledger) move(from, to string, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	fromBalance := l.load(balanceKey(from))
	if fromBalance.Cmp(amount) < 0 {
		return ErrInsufficientBalance
	}
	toBalance := l.load(balanceKey(to))
	fromBalance.Sub(fromBalance, amount)
	toBalance.Add(toBalance, amount)
	if err := l.save(balanceKey(from), fromBalance); err != nil {
		return err
	}
	return l.save(balanceKey(to), toBalance)
}
