package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MinPINLength is the shortest PIN accepted by PIN changes.
const MinPINLength = 4

// Account holds a balance, a PIN and the ordered transaction history
// (oldest first). Its balance always equals the BalanceAfter of the most
// recent transaction, or the opening balance when no transactions exist.
// Accounts are mutated only through the ledger, never directly by handlers.
type Account struct {
	Number       string          `json:"account_number"`
	PIN          string          `json:"pin"`
	Balance      decimal.Decimal `json:"balance"`
	Transactions []Transaction   `json:"transactions"`
}

// NewAccount creates an account with an opening balance and no history.
func NewAccount(number, pin string, opening decimal.Decimal) *Account {
	return &Account{
		Number:  number,
		PIN:     pin,
		Balance: opening,
	}
}

// Apply adjusts the balance in the direction of kind, then appends and
// returns a transaction snapshotting the new balance. Callers validate
// amount positivity and fund sufficiency beforehand; Apply only rejects
// kinds outside the closed set.
func (a *Account) Apply(kind Kind, amount decimal.Decimal) (Transaction, error) {
	switch kind {
	case KindDeposit, KindTransferIn:
		a.Balance = a.Balance.Add(amount)
	case KindWithdrawal, KindTransferOut:
		a.Balance = a.Balance.Sub(amount)
	default:
		return Transaction{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	tx := NewTransaction(kind, amount, a.Balance, time.Time{})
	a.Transactions = append(a.Transactions, tx)
	return tx, nil
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing internal state.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Transactions = append([]Transaction(nil), a.Transactions...)
	return &cp
}
