package rewardpool

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestConservation walks a mixed deposit/withdraw sequence and checks after
// every step that the pool total equals the exact sum of the account stakes.
func TestConservation(t *testing.T) {
	env := newTestEnv(t, 3)
	for _, account := range []string{"alice", "bob", "carol"} {
		env.fund(t, account, 1_000_000)
	}

	type step struct {
		account  string
		amount   int64
		withdraw bool
	}
	steps := []step{
		{account: "alice", amount: 1_000},
		{account: "bob", amount: 2_500},
		{account: "alice", amount: 400, withdraw: true},
		{account: "carol", amount: 7},
		{account: "bob", amount: 2_500, withdraw: true},
		{account: "alice", amount: 1},
		{account: "carol", amount: 7, withdraw: true},
		{account: "alice", amount: 601, withdraw: true},
	}

	now := int64(0)
	for i, s := range steps {
		now += 13
		env.now = now
		var err error
		if s.withdraw {
			err = env.engine.Withdraw(s.account, big.NewInt(s.amount))
		} else {
			err = env.engine.Deposit(s.account, big.NewInt(s.amount))
		}
		require.NoErrorf(t, err, "step %d", i)
		require.NoErrorf(t, env.engine.CheckInvariants(), "step %d", i)
	}

	require.Zero(t, env.engine.TotalStaked().Cmp(big.NewInt(2_001)))
}
