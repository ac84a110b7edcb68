package bank

import "math/big"

// Vault binds the ledger to the pool custody account. It narrows the full
// ledger API down to the three operations the reward pool consumes: pulling
// stake in (TransferFrom), paying stake or rewards out (Transfer) and balance
// queries. Outbound transfers always originate from the bound custody account.
type Vault struct {
	ledger  *Ledger
	account string
}

// NewVault wraps the ledger with a fixed custody account.
func NewVault(ledger *Ledger, account string) *Vault {
	return &Vault{ledger: ledger, account: account}
}

// Address returns the custody account identity.
func (v *Vault) Address() string { return v.account }

// TransferFrom pulls amount from the owner into the destination account using
// the vault's allowance.
func (v *Vault) TransferFrom(from, to string, amount *big.Int) error {
	return v.ledger.TransferFrom(v.account, from, to, amount)
}

// Transfer pays amount out of pool custody to the recipient.
func (v *Vault) Transfer(to string, amount *big.Int) error {
	return v.ledger.Transfer(v.account, to, amount)
}

// BalanceOf reports the ledger balance of any account.
func (v *Vault) BalanceOf(account string) *big.Int {
	return v.ledger.BalanceOf(account)
}
