package rewardpool

import (
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/rlp"

	"stakeledger/storage"
)

const (
	poolKey          = "rewardpool/pool"
	accountIndexKey  = "rewardpool/accounts/index"
	accountKeyFormat = "rewardpool/accounts/%s"
)

// Store persists pool and account records into a key-value database. Amounts
// are serialised as raw big-endian integer bytes inside RLP envelopes so the
// accumulator survives restarts without any rounding drift.
type Store struct {
	db storage.Database
}

// NewStore constructs a store backed by the supplied database.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

type storedPool struct {
	TotalStaked         []byte
	RewardRate          []byte
	RewardPerUnitStored []byte
	LastUpdateTime      uint64
}

type storedAccount struct {
	Staked            []byte
	RewardPerUnitPaid []byte
	PendingReward     []byte
}

// SavePool writes the pool snapshot.
func (s *Store) SavePool(pool *Pool) error {
	if s == nil || s.db == nil {
		return errors.New("rewardpool: store not initialised")
	}
	if pool == nil {
		return errors.New("rewardpool: nil pool")
	}
	encoded, err := rlp.EncodeToBytes(storedPool{
		TotalStaked:         pool.TotalStaked.Bytes(),
		RewardRate:          pool.RewardRate.Bytes(),
		RewardPerUnitStored: pool.RewardPerUnitStored.Bytes(),
		LastUpdateTime:      pool.LastUpdateTime,
	})
	if err != nil {
		return err
	}
	return s.db.Put([]byte(poolKey), encoded)
}

// LoadPool reads the pool snapshot. The boolean reports whether a snapshot was
// present.
func (s *Store) LoadPool() (*Pool, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errors.New("rewardpool: store not initialised")
	}
	data, err := s.db.Get([]byte(poolKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedPool
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	pool := &Pool{
		TotalStaked:         new(big.Int).SetBytes(stored.TotalStaked),
		RewardRate:          new(big.Int).SetBytes(stored.RewardRate),
		RewardPerUnitStored: new(big.Int).SetBytes(stored.RewardPerUnitStored),
		LastUpdateTime:      stored.LastUpdateTime,
	}
	return pool, true, nil
}

// SaveAccount writes one account record and keeps the account index current.
func (s *Store) SaveAccount(id string, account *Account) error {
	if s == nil || s.db == nil {
		return errors.New("rewardpool: store not initialised")
	}
	if account == nil {
		return errors.New("rewardpool: nil account")
	}
	encoded, err := rlp.EncodeToBytes(storedAccount{
		Staked:            account.Staked.Bytes(),
		RewardPerUnitPaid: account.RewardPerUnitPaid.Bytes(),
		PendingReward:     account.PendingReward.Bytes(),
	})
	if err != nil {
		return err
	}
	if err := s.db.Put([]byte(fmt.Sprintf(accountKeyFormat, id)), encoded); err != nil {
		return err
	}
	return s.ensureIndexed(id)
}

// LoadAccount reads one account record. The boolean reports presence.
func (s *Store) LoadAccount(id string) (*Account, bool, error) {
	if s == nil || s.db == nil {
		return nil, false, errors.New("rewardpool: store not initialised")
	}
	data, err := s.db.Get([]byte(fmt.Sprintf(accountKeyFormat, id)))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(data, &stored); err != nil {
		return nil, false, err
	}
	account := &Account{
		Staked:            new(big.Int).SetBytes(stored.Staked),
		RewardPerUnitPaid: new(big.Int).SetBytes(stored.RewardPerUnitPaid),
		PendingReward:     new(big.Int).SetBytes(stored.PendingReward),
	}
	return account, true, nil
}

// Accounts lists every persisted account identity in lexical order.
func (s *Store) Accounts() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("rewardpool: store not initialised")
	}
	index, err := s.loadIndex()
	if err != nil {
		return nil, err
	}
	sort.Strings(index)
	return index, nil
}

func (s *Store) ensureIndexed(id string) error {
	index, err := s.loadIndex()
	if err != nil {
		return err
	}
	for _, existing := range index {
		if existing == id {
			return nil
		}
	}
	index = append(index, id)
	encoded, err := rlp.EncodeToBytes(index)
	if err != nil {
		return err
	}
	return s.db.Put([]byte(accountIndexKey), encoded)
}

func (s *Store) loadIndex() ([]string, error) {
	data, err := s.db.Get([]byte(accountIndexKey))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}
	var index []string
	if err := rlp.DecodeBytes(data, &index); err != nil {
		return nil, err
	}
	return index, nil
}
