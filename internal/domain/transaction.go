package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The persisted account file stores amounts as bare JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// Kind is the closed set of balance-affecting event types.
type Kind string

const (
	KindDeposit     Kind = "deposit"
	KindWithdrawal  Kind = "withdrawal"
	KindTransferOut Kind = "transfer_out"
	KindTransferIn  Kind = "transfer_in"
)

// Valid reports whether k is one of the recognized transaction kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindDeposit, KindWithdrawal, KindTransferOut, KindTransferIn:
		return true
	}
	return false
}

// Transaction records one balance-affecting event. It is immutable once
// created and owned by the account that created it.
type Transaction struct {
	Kind         Kind            `json:"transaction_type"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balance_after"`
	Timestamp    time.Time       `json:"timestamp"`
}

// UnmarshalJSON decodes a persisted transaction. Timestamps are written as
// RFC 3339, but files produced by writers that omit the timezone (plain
// ISO-8601) are accepted too, so an imported account file is never mistaken
// for a corrupt one.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Kind         Kind            `json:"transaction_type"`
		Amount       decimal.Decimal `json:"amount"`
		BalanceAfter decimal.Decimal `json:"balance_after"`
		Timestamp    string          `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	ts, err := parseTimestamp(raw.Timestamp)
	if err != nil {
		return err
	}

	t.Kind = raw.Kind
	t.Amount = raw.Amount
	t.BalanceAfter = raw.BalanceAfter
	t.Timestamp = ts
	return nil
}

// naiveISO8601 is the layout of timezone-naive timestamps; the fractional
// part is optional.
const naiveISO8601 = "2006-01-02T15:04:05.999999999"

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(naiveISO8601, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return ts, nil
}

// NewTransaction builds a transaction snapshotting the post-adjustment
// balance. A zero at defaults to the current wall-clock time.
func NewTransaction(kind Kind, amount, balanceAfter decimal.Decimal, at time.Time) Transaction {
	if at.IsZero() {
		at = time.Now()
	}
	return Transaction{
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		Timestamp:    at,
	}
}
