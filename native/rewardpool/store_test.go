package rewardpool

import (
	"math/big"
	"testing"

	"stakeledger/native/bank"
	"stakeledger/storage"
)

func TestStoreRoundTrip(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	store := NewStore(db)

	pool := &Pool{
		TotalStaked:         big.NewInt(12_345),
		RewardRate:          big.NewInt(9),
		RewardPerUnitStored: new(big.Int).Mul(big.NewInt(987_654_321), Scale()),
		LastUpdateTime:      424_242,
	}
	if err := store.SavePool(pool); err != nil {
		t.Fatalf("save pool: %v", err)
	}
	loaded, ok, err := store.LoadPool()
	if err != nil || !ok {
		t.Fatalf("load pool: ok=%v err=%v", ok, err)
	}
	if loaded.TotalStaked.Cmp(pool.TotalStaked) != 0 ||
		loaded.RewardRate.Cmp(pool.RewardRate) != 0 ||
		loaded.RewardPerUnitStored.Cmp(pool.RewardPerUnitStored) != 0 ||
		loaded.LastUpdateTime != pool.LastUpdateTime {
		t.Fatalf("pool round trip mismatch: %+v vs %+v", loaded, pool)
	}

	account := &Account{
		Staked:            big.NewInt(777),
		RewardPerUnitPaid: new(big.Int).Mul(big.NewInt(55), Scale()),
		PendingReward:     big.NewInt(31),
	}
	if err := store.SaveAccount("alice", account); err != nil {
		t.Fatalf("save account: %v", err)
	}
	got, ok, err := store.LoadAccount("alice")
	if err != nil || !ok {
		t.Fatalf("load account: ok=%v err=%v", ok, err)
	}
	if got.Staked.Cmp(account.Staked) != 0 ||
		got.RewardPerUnitPaid.Cmp(account.RewardPerUnitPaid) != 0 ||
		got.PendingReward.Cmp(account.PendingReward) != 0 {
		t.Fatalf("account round trip mismatch: %+v vs %+v", got, account)
	}

	if _, ok, err := store.LoadAccount("ghost"); err != nil || ok {
		t.Fatalf("missing account: ok=%v err=%v", ok, err)
	}

	ids, err := store.Accounts()
	if err != nil {
		t.Fatalf("accounts: %v", err)
	}
	if len(ids) != 1 || ids[0] != "alice" {
		t.Fatalf("account index: %v", ids)
	}
}

func TestEngineRestoresFromStore(t *testing.T) {
	db := storage.NewMemDB()
	t.Cleanup(db.Close)
	ledger := bank.NewLedger(db)
	vault := bank.NewVault(ledger, "vault")

	now := int64(0)
	engine, err := NewEngine(big.NewInt(1))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	engine.SetLedger(vault, vault.Address())
	engine.SetNowFunc(func() int64 { return now })
	if err := engine.SetStore(NewStore(db)); err != nil {
		t.Fatalf("set store: %v", err)
	}

	if err := ledger.Mint("alice", big.NewInt(1_000)); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Approve("alice", "vault", big.NewInt(1_000)); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if err := engine.Deposit("alice", big.NewInt(1_000)); err != nil {
		t.Fatalf("deposit: %v", err)
	}

	// A fresh engine over the same database must continue accruing from the
	// persisted snapshot, not from its constructor arguments.
	restored, err := NewEngine(big.NewInt(999))
	if err != nil {
		t.Fatalf("restored engine: %v", err)
	}
	restored.SetLedger(vault, vault.Address())
	restored.SetNowFunc(func() int64 { return now })
	if err := restored.SetStore(NewStore(db)); err != nil {
		t.Fatalf("restore: %v", err)
	}

	if got := restored.Rate(); got.Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("restored rate: got %s want 1", got)
	}
	if got := restored.TotalStaked(); got.Cmp(big.NewInt(1_000)) != 0 {
		t.Fatalf("restored total staked: got %s want 1000", got)
	}

	now = 100
	earned, err := restored.Earned("alice")
	if err != nil {
		t.Fatalf("earned: %v", err)
	}
	if earned.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("earned after restore: got %s want 100", earned)
	}
	if err := restored.CheckInvariants(); err != nil {
		t.Fatalf("invariants after restore: %v", err)
	}
}
