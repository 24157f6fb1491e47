package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvasquez/atmcore/internal/domain"
)

func sampleSnapshot(t *testing.T) Snapshot {
	t.Helper()

	first := domain.NewAccount("123456", "1234", decimal.Zero)
	_, err := first.Apply(domain.KindDeposit, decimal.RequireFromString("1000.00"))
	require.NoError(t, err)
	_, err = first.Apply(domain.KindWithdrawal, decimal.RequireFromString("200.00"))
	require.NoError(t, err)

	second := domain.NewAccount("654321", "4321", decimal.Zero)
	_, err = second.Apply(domain.KindDeposit, decimal.RequireFromString("500.00"))
	require.NoError(t, err)

	return Snapshot{first.Number: first, second.Number: second}
}

func requireSameSnapshot(t *testing.T, want, got Snapshot) {
	t.Helper()

	require.Len(t, got, len(want))
	for number, acct := range want {
		loaded, ok := got[number]
		require.True(t, ok, "account %s missing after reload", number)
		assert.Equal(t, acct.Number, loaded.Number)
		assert.Equal(t, acct.PIN, loaded.PIN)
		assert.True(t, acct.Balance.Equal(loaded.Balance), "balance %s != %s", loaded.Balance, acct.Balance)

		require.Len(t, loaded.Transactions, len(acct.Transactions))
		for i, tx := range acct.Transactions {
			assert.Equal(t, tx.Kind, loaded.Transactions[i].Kind)
			assert.True(t, tx.Amount.Equal(loaded.Transactions[i].Amount))
			assert.True(t, tx.BalanceAfter.Equal(loaded.Transactions[i].BalanceAfter))
			assert.True(t, tx.Timestamp.Equal(loaded.Transactions[i].Timestamp))
		}
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "accounts.json")
	store := NewFileStore(path)

	snap := sampleSnapshot(t)
	require.NoError(t, store.Save(ctx, snap))

	reloaded, err := NewFileStore(path).Load(ctx)
	require.NoError(t, err)
	requireSameSnapshot(t, snap, reloaded)
}

func TestFileStoreCreatesMissingFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "accounts.json")

	snap, err := NewFileStore(path).Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, snap)

	_, err = os.Stat(path)
	assert.NoError(t, err, "load should create an empty account file")
}

func TestFileStoreCorruptFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "accounts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewFileStore(path).Load(ctx)
	assert.Error(t, err)
}

func TestFileStoreLeavesNoTempFiles(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store := NewFileStore(filepath.Join(dir, "accounts.json"))

	require.NoError(t, store.Save(ctx, sampleSnapshot(t)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "accounts.json", entries[0].Name())
}

func TestOpenSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	store, err := Open(Options{Backend: BackendFile, Path: filepath.Join(dir, "a.json")})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	store, err = Open(Options{Backend: BackendBolt, Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	assert.IsType(t, &BoltStore{}, store)
	require.NoError(t, store.Close())

	store, err = Open(Options{Backend: BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	_, err = Open(Options{Backend: "postgres"})
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
