// Package ledger implements the account ledger: authentication, balance
// mutation, transaction recording and transfer atomicity over a snapshot
// store. A single mutex serializes every read-modify-persist cycle, so
// concurrent requests cannot lose updates or interleave partial transfers.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/nvasquez/atmcore/internal/domain"
	"github.com/nvasquez/atmcore/internal/storage"
)

// Demo accounts created when the store starts out empty.
var demoAccounts = []struct {
	Number  string
	PIN     string
	Opening string
}{
	{"123456", "1234", "1000.00"},
	{"654321", "4321", "500.00"},
}

// Ledger owns all accounts and their persistence. Construct one instance at
// startup and pass it to every handler.
type Ledger struct {
	mu       sync.Mutex
	store    storage.Store
	logger   *slog.Logger
	accounts storage.Snapshot
}

// Open loads the persisted snapshot from store. A load failure is logged
// and replaced by an empty snapshot; an empty snapshot is seeded with the
// demo accounts and saved, so a fresh or corrupt data file always yields a
// usable ledger. Only a failing seed save is fatal.
func Open(ctx context.Context, store storage.Store, logger *slog.Logger) (*Ledger, error) {
	snap, err := store.Load(ctx)
	if err != nil {
		logger.Warn("loading accounts failed, starting with an empty store", "error", err)
		snap = storage.Snapshot{}
	}

	l := &Ledger{store: store, logger: logger, accounts: snap}
	if len(snap) == 0 {
		if err := l.seed(ctx); err != nil {
			return nil, err
		}
	} else {
		logger.Info("loaded accounts", "count", len(snap))
	}
	return l, nil
}

func (l *Ledger) seed(ctx context.Context) error {
	for _, demo := range demoAccounts {
		acct := domain.NewAccount(demo.Number, demo.PIN, decimal.Zero)
		if _, err := acct.Apply(domain.KindDeposit, decimal.RequireFromString(demo.Opening)); err != nil {
			return err
		}
		l.accounts[acct.Number] = acct
	}
	if err := l.store.Save(ctx, l.accounts); err != nil {
		return fmt.Errorf("seed demo accounts: %w", err)
	}
	l.logger.Info("seeded demo accounts", "count", len(l.accounts))
	return nil
}

// Authenticate reports whether the account exists and the PIN matches
// exactly (case-sensitive).
func (l *Ledger) Authenticate(number, pin string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[number]
	if ok && acct.PIN == pin {
		l.logger.Info("authentication succeeded", "account", number)
		return true
	}
	l.logger.Warn("authentication failed", "account", number)
	return false
}

// BalanceOf returns the account balance, or zero when the account is
// absent.
func (l *Ledger) BalanceOf(number string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()

	if acct, ok := l.accounts[number]; ok {
		return acct.Balance
	}
	return decimal.Zero
}

// Deposit adds amount to the account. Validation failures come back as a
// failed Result; a non-nil error means the updated snapshot could not be
// persisted.
func (l *Ledger) Deposit(ctx context.Context, number string, amount decimal.Decimal) (domain.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[number]
	if !ok {
		return domain.Fail("Account not found"), nil
	}
	if !amount.IsPositive() {
		return domain.Fail("Amount must be positive"), nil
	}

	if _, err := acct.Apply(domain.KindDeposit, amount); err != nil {
		return domain.Result{}, err
	}
	if err := l.persist(ctx); err != nil {
		return domain.Result{}, err
	}

	l.logger.Info("deposit", "account", number, "amount", amount)
	return domain.OK(fmt.Sprintf("Successfully deposited $%s", amount.StringFixed(2))), nil
}

// Withdraw removes amount from the account after checking sufficiency.
func (l *Ledger) Withdraw(ctx context.Context, number string, amount decimal.Decimal) (domain.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[number]
	if !ok {
		return domain.Fail("Account not found"), nil
	}
	if !amount.IsPositive() {
		return domain.Fail("Amount must be positive"), nil
	}
	if amount.GreaterThan(acct.Balance) {
		return domain.Fail("Insufficient funds"), nil
	}

	if _, err := acct.Apply(domain.KindWithdrawal, amount); err != nil {
		return domain.Result{}, err
	}
	if err := l.persist(ctx); err != nil {
		return domain.Result{}, err
	}

	l.logger.Info("withdrawal", "account", number, "amount", amount)
	return domain.OK(fmt.Sprintf("Successfully withdrew $%s", amount.StringFixed(2))), nil
}

// Transfer moves amount between two accounts as a transfer_out on the
// source and a transfer_in on the destination. All validation happens
// before either account is touched, and both legs are applied in memory
// under the same mutex hold before the single save, so a transfer is
// all-or-nothing and never flushed half-done.
func (l *Ledger) Transfer(ctx context.Context, from, to string, amount decimal.Decimal) (domain.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	src, ok := l.accounts[from]
	if !ok {
		return domain.Fail("Source account not found"), nil
	}
	dst, ok := l.accounts[to]
	if !ok {
		return domain.Fail("Destination account not found"), nil
	}
	if from == to {
		return domain.Fail("Cannot transfer to the same account"), nil
	}
	if !amount.IsPositive() {
		return domain.Fail("Amount must be positive"), nil
	}
	if amount.GreaterThan(src.Balance) {
		return domain.Fail("Insufficient funds for transfer"), nil
	}

	if _, err := src.Apply(domain.KindTransferOut, amount); err != nil {
		return domain.Result{}, err
	}
	if _, err := dst.Apply(domain.KindTransferIn, amount); err != nil {
		return domain.Result{}, err
	}
	if err := l.persist(ctx); err != nil {
		return domain.Result{}, err
	}

	l.logger.Info("transfer", "from", from, "to", to, "amount", amount)
	return domain.OK(fmt.Sprintf("Successfully transferred $%s to account %s", amount.StringFixed(2), to)), nil
}

// ChangePIN replaces the account PIN after verifying the current one.
func (l *Ledger) ChangePIN(ctx context.Context, number, oldPIN, newPIN string) (domain.Result, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[number]
	if !ok {
		return domain.Fail("Account not found"), nil
	}
	if acct.PIN != oldPIN {
		return domain.Fail("Current PIN is incorrect"), nil
	}
	if len(newPIN) < domain.MinPINLength {
		return domain.Fail("PIN must be at least 4 characters"), nil
	}

	previous := acct.PIN
	acct.PIN = newPIN
	if err := l.persist(ctx); err != nil {
		acct.PIN = previous
		return domain.Result{}, err
	}

	l.logger.Info("pin changed", "account", number)
	return domain.OK("PIN successfully changed"), nil
}

// TransactionsOf returns the account history newest first, or an empty
// slice when the account is absent.
func (l *Ledger) TransactionsOf(number string) []domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()

	acct, ok := l.accounts[number]
	if !ok {
		return []domain.Transaction{}
	}

	out := make([]domain.Transaction, len(acct.Transactions))
	for i, tx := range acct.Transactions {
		out[len(acct.Transactions)-1-i] = tx
	}
	return out
}

// persist saves the full snapshot. Callers hold the mutex. On failure the
// in-memory state may run ahead of disk until the next successful save;
// the error is surfaced so the request layer can alert.
func (l *Ledger) persist(ctx context.Context) error {
	if err := l.store.Save(ctx, l.accounts); err != nil {
		l.logger.Error("saving accounts failed", "error", err)
		return fmt.Errorf("save accounts: %w", err)
	}
	return nil
}
