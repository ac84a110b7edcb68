package rewardpool

import (
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"stakeledger/core/events"
	"stakeledger/observability/metrics"
)

const (
	// SecondsPerDay is the projection window of the daily reward estimator.
	SecondsPerDay = 24 * 60 * 60

	scale = int64(1_000_000_000_000_000_000)
)

var scaleBig = big.NewInt(scale)

// Scale returns the fixed-point factor applied to the reward-per-unit
// accumulator.
func Scale() *big.Int {
	return new(big.Int).Set(scaleBig)
}

// TokenLedger is the external value-transfer collaborator. The pool never
// holds raw value itself: deposits are pulled in with TransferFrom, while
// withdrawals and reward payouts leave pool custody through Transfer. A
// declined transfer must surface an error so the calling operation can roll
// back.
type TokenLedger interface {
	TransferFrom(from, to string, amount *big.Int) error
	Transfer(to string, amount *big.Int) error
	BalanceOf(account string) *big.Int
}

// Engine is the reward ledger state machine. Every mutating operation first
// folds elapsed time into the pool accumulator, then settles the acting
// account against it, then applies the requested change. Mutations are staged
// on copies and only committed once the external transfer succeeded, so a
// declined transfer leaves no trace.
//
// Mutating operations are single-writer: a busy flag taken at entry makes any
// nested or concurrent mutating call fail fast with ErrReentrant instead of
// blocking. Queries are pure, take only the read lock and may run alongside an
// in-flight mutation.
type Engine struct {
	mu       sync.RWMutex
	busy     atomic.Bool
	pool     *Pool
	accounts map[string]*Account

	ledger  TokenLedger
	vault   string
	store   *Store
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs an engine with the supplied emission rate, a no-op
// emitter and the wall clock as time source.
func NewEngine(rate *big.Int) (*Engine, error) {
	if rate == nil || rate.Sign() <= 0 {
		return nil, ErrInvalidRate
	}
	return &Engine{
		pool:     NewPool(rate),
		accounts: make(map[string]*Account),
		emitter:  events.NoopEmitter{},
		nowFn:    func() int64 { return time.Now().Unix() },
	}, nil
}

// SetLedger configures the token ledger collaborator and the custody account
// deposits are pulled into.
func (e *Engine) SetLedger(ledger TokenLedger, vault string) {
	e.ledger = ledger
	e.vault = vault
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source. Primarily intended for tests to
// provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetStore attaches a persistence backend and restores any previously saved
// pool and account records from it.
func (e *Engine) SetStore(store *Store) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.store = store
	if store == nil {
		return nil
	}
	pool, ok, err := store.LoadPool()
	if err != nil {
		return err
	}
	if ok {
		e.pool = pool
	}
	ids, err := store.Accounts()
	if err != nil {
		return err
	}
	for _, id := range ids {
		account, ok, err := store.LoadAccount(id)
		if err != nil {
			return err
		}
		if ok {
			e.accounts[id] = account
		}
	}
	return nil
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) nowUnix() uint64 {
	ts := e.nowFn()
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

// --- accrual math ---

// currentRewardPerUnit projects the accumulator to now. With nothing staked
// the stored value is returned unchanged: no per-unit reward accrues while the
// pool is empty.
func currentRewardPerUnit(pool *Pool, now uint64) (*big.Int, error) {
	if now < pool.LastUpdateTime {
		return nil, ErrClockRegression
	}
	current := new(big.Int).Set(pool.RewardPerUnitStored)
	if pool.TotalStaked.Sign() == 0 {
		return current, nil
	}
	elapsed := new(big.Int).SetUint64(now - pool.LastUpdateTime)
	delta := elapsed.Mul(elapsed, pool.RewardRate)
	delta.Mul(delta, scaleBig)
	delta.Quo(delta, pool.TotalStaked)
	return current.Add(current, delta), nil
}

func earned(pool *Pool, account *Account, now uint64) (*big.Int, error) {
	current, err := currentRewardPerUnit(pool, now)
	if err != nil {
		return nil, err
	}
	accrued := new(big.Int).Sub(current, account.RewardPerUnitPaid)
	accrued.Mul(accrued, account.Staked)
	accrued.Quo(accrued, scaleBig)
	return accrued.Add(accrued, account.PendingReward), nil
}

// settleStaged folds elapsed time into the staged pool and, when an account is
// supplied, settles its accrual against the just-updated accumulator. The
// ordering is load-bearing: the global fold happens before the account read so
// the account receives exactly its share up to the operation boundary.
func settleStaged(pool *Pool, account *Account, now uint64) error {
	current, err := currentRewardPerUnit(pool, now)
	if err != nil {
		return err
	}
	pool.RewardPerUnitStored = current
	pool.LastUpdateTime = now
	if account == nil {
		return nil
	}
	accrued := new(big.Int).Sub(current, account.RewardPerUnitPaid)
	accrued.Mul(accrued, account.Staked)
	accrued.Quo(accrued, scaleBig)
	account.PendingReward = accrued.Add(accrued, account.PendingReward)
	account.RewardPerUnitPaid = new(big.Int).Set(current)
	return nil
}

// stage clones the pool and, for a non-empty id, the account record so the
// operation can mutate freely before committing.
func (e *Engine) stage(id string) (*Pool, *Account) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pool := e.pool.Clone()
	if id == "" {
		return pool, nil
	}
	return pool, e.accounts[id].Clone()
}

// commit swaps in the staged records and persists them. It is only reached
// after the external transfer (if any) succeeded.
func (e *Engine) commit(id string, pool *Pool, account *Account) error {
	e.mu.Lock()
	e.pool = pool
	if account != nil {
		e.accounts[id] = account
	}
	store := e.store
	e.mu.Unlock()

	metrics.Pool().SetTotalStaked(bigToFloat(pool.TotalStaked))
	metrics.Pool().SetRewardRate(bigToFloat(pool.RewardRate))

	if store == nil {
		return nil
	}
	if err := store.SavePool(pool); err != nil {
		return fmt.Errorf("rewardpool: persist pool: %w", err)
	}
	if account != nil {
		if err := store.SaveAccount(id, account); err != nil {
			return fmt.Errorf("rewardpool: persist account %s: %w", id, err)
		}
	}
	return nil
}

// --- mutating operations ---

// Deposit settles the account, stakes amount and pulls the funds from the
// account's external balance into pool custody. A declined transfer rolls the
// whole operation back.
func (e *Engine) Deposit(id string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if e.ledger == nil {
		return errNilLedger
	}
	if !e.busy.CompareAndSwap(false, true) {
		metrics.Pool().ObserveRejected("reentrant")
		return ErrReentrant
	}
	defer e.busy.Store(false)

	pool, account := e.stage(id)
	if err := settleStaged(pool, account, e.nowUnix()); err != nil {
		return err
	}
	pool.TotalStaked.Add(pool.TotalStaked, amount)
	account.Staked.Add(account.Staked, amount)

	if err := e.ledger.TransferFrom(id, e.vault, amount); err != nil {
		metrics.Pool().ObserveRejected("transfer_failed")
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.commit(id, pool, account); err != nil {
		return err
	}
	metrics.Pool().ObserveDeposit()
	e.emit(Deposited{Account: id, Amount: normalizeBig(amount), TotalStaked: normalizeBig(pool.TotalStaked)})
	return nil
}

// Withdraw settles the account, unstakes amount and returns the funds from
// pool custody to the account.
func (e *Engine) Withdraw(id string, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	if e.ledger == nil {
		return errNilLedger
	}
	if !e.busy.CompareAndSwap(false, true) {
		metrics.Pool().ObserveRejected("reentrant")
		return ErrReentrant
	}
	defer e.busy.Store(false)

	pool, account := e.stage(id)
	if account.Staked.Cmp(amount) < 0 {
		return ErrInsufficientStake
	}
	if err := settleStaged(pool, account, e.nowUnix()); err != nil {
		return err
	}
	pool.TotalStaked.Sub(pool.TotalStaked, amount)
	account.Staked.Sub(account.Staked, amount)

	if err := e.ledger.Transfer(id, amount); err != nil {
		metrics.Pool().ObserveRejected("transfer_failed")
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.commit(id, pool, account); err != nil {
		return err
	}
	metrics.Pool().ObserveWithdraw()
	e.emit(Withdrawn{Account: id, Amount: normalizeBig(amount), TotalStaked: normalizeBig(pool.TotalStaked)})
	return nil
}

// Claim settles the account and pays out its pending reward. Claiming with
// nothing accrued is a no-op, not an error. The pending balance is zeroed
// before the external transfer so a reentrant claim can never double-pay.
func (e *Engine) Claim(id string) (*big.Int, error) {
	if e.ledger == nil {
		return nil, errNilLedger
	}
	if !e.busy.CompareAndSwap(false, true) {
		metrics.Pool().ObserveRejected("reentrant")
		return nil, ErrReentrant
	}
	defer e.busy.Store(false)

	pool, account := e.stage(id)
	if err := settleStaged(pool, account, e.nowUnix()); err != nil {
		return nil, err
	}
	reward := new(big.Int).Set(account.PendingReward)
	if reward.Sign() == 0 {
		if err := e.commit(id, pool, account); err != nil {
			return nil, err
		}
		return big.NewInt(0), nil
	}
	account.PendingReward = big.NewInt(0)

	if err := e.ledger.Transfer(id, reward); err != nil {
		metrics.Pool().ObserveRejected("transfer_failed")
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.commit(id, pool, account); err != nil {
		return nil, err
	}
	metrics.Pool().ObserveClaim()
	e.emit(Claimed{Account: id, Reward: normalizeBig(reward)})
	return reward, nil
}

// SetRate folds elapsed time into the accumulator under the old rate, then
// switches to the new one. Rewards accrued before the switch are never
// recomputed under the new rate. Authorization of the caller is an external
// concern.
func (e *Engine) SetRate(rate *big.Int) error {
	if rate == nil || rate.Sign() <= 0 {
		return ErrInvalidRate
	}
	if !e.busy.CompareAndSwap(false, true) {
		metrics.Pool().ObserveRejected("reentrant")
		return ErrReentrant
	}
	defer e.busy.Store(false)

	pool, _ := e.stage("")
	if err := settleStaged(pool, nil, e.nowUnix()); err != nil {
		return err
	}
	pool.RewardRate = normalizeBig(rate)

	if err := e.commit("", pool, nil); err != nil {
		return err
	}
	e.emit(RateUpdated{Rate: normalizeBig(rate)})
	return nil
}

// --- queries ---

// RewardPerUnit returns the accumulator projected to the current time.
func (e *Engine) RewardPerUnit() (*big.Int, error) {
	now := e.nowUnix()
	e.mu.RLock()
	defer e.mu.RUnlock()
	return currentRewardPerUnit(e.pool, now)
}

// Earned returns the reward the account would receive if it settled now.
func (e *Engine) Earned(id string) (*big.Int, error) {
	now := e.nowUnix()
	e.mu.RLock()
	defer e.mu.RUnlock()
	return earned(e.pool, e.accounts[id].Clone(), now)
}

// Staked returns the account's current deposited amount.
func (e *Engine) Staked(id string) *big.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	account, ok := e.accounts[id]
	if !ok {
		return big.NewInt(0)
	}
	return normalizeBig(account.Staked)
}

// TotalStaked returns the sum of all staked balances.
func (e *Engine) TotalStaked() *big.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return normalizeBig(e.pool.TotalStaked)
}

// Rate returns the current emission rate.
func (e *Engine) Rate() *big.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return normalizeBig(e.pool.RewardRate)
}

// EstimateDailyReward projects the account's reward over one day assuming the
// pool composition and rate stay constant. The constant-share assumption is a
// documented approximation.
func (e *Engine) EstimateDailyReward(id string) *big.Int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	account, ok := e.accounts[id]
	if !ok || account.Staked.Sign() == 0 || e.pool.TotalStaked.Sign() == 0 {
		return big.NewInt(0)
	}
	daily := new(big.Int).Mul(e.pool.RewardRate, big.NewInt(SecondsPerDay))
	daily.Mul(daily, account.Staked)
	daily.Quo(daily, e.pool.TotalStaked)
	return daily
}

// CheckInvariants verifies that the pool total equals the exact sum of all
// account stakes and that the configured rate is positive.
func (e *Engine) CheckInvariants() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	sum := big.NewInt(0)
	for _, account := range e.accounts {
		sum.Add(sum, account.Staked)
	}
	if sum.Cmp(e.pool.TotalStaked) != 0 {
		return fmt.Errorf("rewardpool: staked sum %s != pool total %s", sum, e.pool.TotalStaked)
	}
	if e.pool.RewardRate.Sign() <= 0 {
		return ErrInvalidRate
	}
	return nil
}

func bigToFloat(value *big.Int) float64 {
	f, _ := new(big.Float).SetInt(value).Float64()
	return f
}
