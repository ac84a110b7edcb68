package rewardpool

import "errors"

var (
	// ErrInvalidAmount rejects zero, nil or negative stake amounts.
	ErrInvalidAmount = errors.New("rewardpool: amount must be positive")
	// ErrInsufficientStake rejects withdrawals exceeding the staked balance.
	ErrInsufficientStake = errors.New("rewardpool: insufficient staked balance")
	// ErrInvalidRate rejects non-positive reward rates.
	ErrInvalidRate = errors.New("rewardpool: rate must be positive")
	// ErrTransferFailed wraps a declined transfer from the token ledger.
	ErrTransferFailed = errors.New("rewardpool: token transfer failed")
	// ErrReentrant signals a nested mutating call while another is in flight.
	ErrReentrant = errors.New("rewardpool: reentrant call")
	// ErrClockRegression signals a time source that moved backwards.
	ErrClockRegression = errors.New("rewardpool: clock moved backwards")

	errNilLedger = errors.New("rewardpool: token ledger not configured")
)
