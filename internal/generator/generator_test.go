package generator

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvasquez/atmcore/internal/domain"
)

func TestGenerateKeepsLedgerInvariants(t *testing.T) {
	snap, err := New(DefaultConfig()).Generate()
	require.NoError(t, err)
	require.Len(t, snap, DefaultConfig().NumAccounts)

	for number, acct := range snap {
		assert.Equal(t, number, acct.Number)
		assert.Len(t, acct.PIN, 4)
		assert.False(t, acct.Balance.IsNegative(), "account %s went negative", number)
		require.NotEmpty(t, acct.Transactions)

		// Replay the history: the balance must match the running total and
		// every snapshot must agree with it.
		running := decimal.Zero
		for _, tx := range acct.Transactions {
			switch tx.Kind {
			case domain.KindDeposit, domain.KindTransferIn:
				running = running.Add(tx.Amount)
			case domain.KindWithdrawal, domain.KindTransferOut:
				running = running.Sub(tx.Amount)
			default:
				t.Fatalf("unexpected kind %q", tx.Kind)
			}
			assert.True(t, tx.BalanceAfter.Equal(running))
		}
		assert.True(t, acct.Balance.Equal(running))
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAccounts = 5

	first, err := New(cfg).Generate()
	require.NoError(t, err)
	second, err := New(cfg).Generate()
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for number, acct := range first {
		other, ok := second[number]
		require.True(t, ok)
		assert.Equal(t, acct.PIN, other.PIN)
		assert.True(t, acct.Balance.Equal(other.Balance))
		assert.Equal(t, len(acct.Transactions), len(other.Transactions))
	}
}
