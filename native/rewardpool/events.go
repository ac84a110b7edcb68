package rewardpool

import "math/big"

const (
	// TypeDeposited is emitted when stake enters the pool.
	TypeDeposited = "reward.deposited"
	// TypeWithdrawn is emitted when stake leaves the pool.
	TypeWithdrawn = "reward.withdrawn"
	// TypeClaimed is emitted when accrued rewards are paid out.
	TypeClaimed = "reward.claimed"
	// TypeRateUpdated is emitted when the controller changes the emission rate.
	TypeRateUpdated = "reward.rateUpdated"
)

// Deposited captures a successful stake deposit.
type Deposited struct {
	Account     string
	Amount      *big.Int
	TotalStaked *big.Int
}

// EventType satisfies the events.Event interface.
func (Deposited) EventType() string { return TypeDeposited }

// Attributes renders the payload for broadcast.
func (e Deposited) Attributes() map[string]string {
	return map[string]string{
		"account":     e.Account,
		"amount":      formatAmount(e.Amount),
		"totalStaked": formatAmount(e.TotalStaked),
	}
}

// Withdrawn captures a successful stake withdrawal.
type Withdrawn struct {
	Account     string
	Amount      *big.Int
	TotalStaked *big.Int
}

// EventType satisfies the events.Event interface.
func (Withdrawn) EventType() string { return TypeWithdrawn }

// Attributes renders the payload for broadcast.
func (e Withdrawn) Attributes() map[string]string {
	return map[string]string{
		"account":     e.Account,
		"amount":      formatAmount(e.Amount),
		"totalStaked": formatAmount(e.TotalStaked),
	}
}

// Claimed captures a reward payout.
type Claimed struct {
	Account string
	Reward  *big.Int
}

// EventType satisfies the events.Event interface.
func (Claimed) EventType() string { return TypeClaimed }

// Attributes renders the payload for broadcast.
func (e Claimed) Attributes() map[string]string {
	return map[string]string{
		"account": e.Account,
		"reward":  formatAmount(e.Reward),
	}
}

// RateUpdated captures an emission-rate change.
type RateUpdated struct {
	Rate *big.Int
}

// EventType satisfies the events.Event interface.
func (RateUpdated) EventType() string { return TypeRateUpdated }

// Attributes renders the payload for broadcast.
func (e RateUpdated) Attributes() map[string]string {
	return map[string]string{
		"rate": formatAmount(e.Rate),
	}
}

func formatAmount(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
