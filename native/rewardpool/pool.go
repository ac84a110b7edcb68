package rewardpool

import "math/big"

// Pool aggregates the accrual state shared by every account: the staked total,
// the emission rate and the cumulative reward-per-unit accumulator. The
// accumulator is a fixed-point value scaled by Scale and only ever grows.
type Pool struct {
	TotalStaked         *big.Int
	RewardRate          *big.Int
	RewardPerUnitStored *big.Int
	LastUpdateTime      uint64
}

// NewPool initialises an empty pool with the supplied emission rate.
func NewPool(rate *big.Int) *Pool {
	return &Pool{
		TotalStaked:         big.NewInt(0),
		RewardRate:          normalizeBig(rate),
		RewardPerUnitStored: big.NewInt(0),
	}
}

// Clone returns a deep copy of the pool state.
func (p *Pool) Clone() *Pool {
	if p == nil {
		return NewPool(nil)
	}
	return &Pool{
		TotalStaked:         normalizeBig(p.TotalStaked),
		RewardRate:          normalizeBig(p.RewardRate),
		RewardPerUnitStored: normalizeBig(p.RewardPerUnitStored),
		LastUpdateTime:      p.LastUpdateTime,
	}
}

// Account tracks one participant's stake and settled-but-unclaimed rewards.
// RewardPerUnitPaid records the accumulator value at the account's last
// settlement and is the baseline for future accrual.
type Account struct {
	Staked            *big.Int
	RewardPerUnitPaid *big.Int
	PendingReward     *big.Int
}

// NewAccount initialises a zero-value account record.
func NewAccount() *Account {
	return &Account{
		Staked:            big.NewInt(0),
		RewardPerUnitPaid: big.NewInt(0),
		PendingReward:     big.NewInt(0),
	}
}

// Clone returns a deep copy of the account record.
func (a *Account) Clone() *Account {
	if a == nil {
		return NewAccount()
	}
	return &Account{
		Staked:            normalizeBig(a.Staked),
		RewardPerUnitPaid: normalizeBig(a.RewardPerUnitPaid),
		PendingReward:     normalizeBig(a.PendingReward),
	}
}

func normalizeBig(value *big.Int) *big.Int {
	if value == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(value)
}
