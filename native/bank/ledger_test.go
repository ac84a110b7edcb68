package bank

import (
	"errors"
	"math/big"
	"testing"

	"stakeledger/storage"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	return NewLedger(db)
}

func TestTransferSemantics(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint("alice", big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	if err := ledger.Transfer("alice", "bob", big.NewInt(40)); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if got := ledger.BalanceOf("alice"); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("alice balance: got %s want 60", got)
	}
	if got := ledger.BalanceOf("bob"); got.Cmp(big.NewInt(40)) != 0 {
		t.Fatalf("bob balance: got %s want 40", got)
	}

	err := ledger.Transfer("alice", "bob", big.NewInt(61))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("overdraw: got %v", err)
	}
	if got := ledger.BalanceOf("alice"); got.Cmp(big.NewInt(60)) != 0 {
		t.Fatalf("alice balance after overdraw attempt: got %s want 60", got)
	}

	if err := ledger.Transfer("alice", "bob", big.NewInt(0)); err != nil {
		t.Fatalf("zero transfer: %v", err)
	}
	if err := ledger.Transfer("alice", "bob", nil); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("nil amount: got %v", err)
	}
}

func TestAllowanceSemantics(t *testing.T) {
	ledger := newTestLedger(t)
	if err := ledger.Mint("alice", big.NewInt(100)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	err := ledger.TransferFrom("vault", "alice", "vault", big.NewInt(10))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("unapproved pull: got %v", err)
	}

	if err := ledger.Approve("alice", "vault", big.NewInt(30)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := ledger.TransferFrom("vault", "alice", "vault", big.NewInt(20)); err != nil {
		t.Fatalf("approved pull: %v", err)
	}
	if got := ledger.Allowance("alice", "vault"); got.Cmp(big.NewInt(10)) != 0 {
		t.Fatalf("remaining allowance: got %s want 10", got)
	}

	err = ledger.TransferFrom("vault", "alice", "vault", big.NewInt(11))
	if !errors.Is(err, ErrInsufficientAllowance) {
		t.Fatalf("exhausted allowance: got %v", err)
	}
	if got := ledger.BalanceOf("vault"); got.Cmp(big.NewInt(20)) != 0 {
		t.Fatalf("vault balance: got %s want 20", got)
	}
}

func TestVaultBinding(t *testing.T) {
	ledger := newTestLedger(t)
	vault := NewVault(ledger, "custody")
	if vault.Address() != "custody" {
		t.Fatalf("vault address: %s", vault.Address())
	}

	if err := ledger.Mint("alice", big.NewInt(50)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Approve("alice", "custody", big.NewInt(50)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := vault.TransferFrom("alice", "custody", big.NewInt(50)); err != nil {
		t.Fatalf("vault pull: %v", err)
	}
	if err := vault.Transfer("bob", big.NewInt(15)); err != nil {
		t.Fatalf("vault payout: %v", err)
	}
	if got := vault.BalanceOf("custody"); got.Cmp(big.NewInt(35)) != 0 {
		t.Fatalf("custody balance: got %s want 35", got)
	}
	if got := vault.BalanceOf("bob"); got.Cmp(big.NewInt(15)) != 0 {
		t.Fatalf("bob balance: got %s want 15", got)
	}
}

func TestBalancesSurviveReopen(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)

	first := NewLedger(db)
	if err := first.Mint("alice", big.NewInt(123_456_789)); err != nil {
		t.Fatalf("mint: %v", err)
	}

	second := NewLedger(db)
	if got := second.BalanceOf("alice"); got.Cmp(big.NewInt(123_456_789)) != 0 {
		t.Fatalf("balance after reopen: got %s", got)
	}
}
