// Package generator produces synthetic account datasets for demos and load
// fixtures. Generation is deterministic for a given seed.
package generator

import (
	"fmt"
	"math/rand"

	"github.com/shopspring/decimal"

	"github.com/nvasquez/atmcore/internal/domain"
	"github.com/nvasquez/atmcore/internal/storage"
)

// Generator builds randomized but invariant-preserving account snapshots:
// every generated history keeps the account balance equal to the latest
// transaction's balance_after, and transfers always appear as matched
// out/in pairs.
type Generator struct {
	cfg Config
	rng *rand.Rand
}

// New creates a Generator seeded from cfg.
func New(cfg Config) *Generator {
	if cfg.NumAccounts <= 0 {
		cfg.NumAccounts = DefaultConfig().NumAccounts
	}
	if cfg.MaxOpeningCents <= 0 {
		cfg.MaxOpeningCents = DefaultConfig().MaxOpeningCents
	}
	return &Generator{
		cfg: cfg,
		rng: rand.New(rand.NewSource(cfg.Seed)),
	}
}

// Generate builds the full snapshot.
func (g *Generator) Generate() (storage.Snapshot, error) {
	snap := storage.Snapshot{}
	numbers := make([]string, 0, g.cfg.NumAccounts)

	for len(snap) < g.cfg.NumAccounts {
		number := g.accountNumber()
		if _, exists := snap[number]; exists {
			continue
		}
		acct := domain.NewAccount(number, g.pin(), decimal.Zero)
		opening := decimal.New(g.rng.Int63n(g.cfg.MaxOpeningCents)+100, -2)
		if _, err := acct.Apply(domain.KindDeposit, opening); err != nil {
			return nil, err
		}
		snap[number] = acct
		numbers = append(numbers, number)
	}

	if g.cfg.MaxOpsPerAccount > 0 {
		for _, number := range numbers {
			ops := g.rng.Intn(g.cfg.MaxOpsPerAccount + 1)
			for i := 0; i < ops; i++ {
				if err := g.applyRandomOp(snap, numbers, number); err != nil {
					return nil, err
				}
			}
		}
	}
	return snap, nil
}

func (g *Generator) applyRandomOp(snap storage.Snapshot, numbers []string, number string) error {
	acct := snap[number]

	switch g.rng.Intn(3) {
	case 0: // deposit
		amount := decimal.New(g.rng.Int63n(100_000)+1, -2)
		_, err := acct.Apply(domain.KindDeposit, amount)
		return err
	case 1: // withdrawal, bounded by the current balance
		if !acct.Balance.IsPositive() {
			return nil
		}
		amount := g.amountUpTo(acct.Balance)
		_, err := acct.Apply(domain.KindWithdrawal, amount)
		return err
	default: // transfer to a random other account
		if len(numbers) < 2 || !acct.Balance.IsPositive() {
			return nil
		}
		other := numbers[g.rng.Intn(len(numbers))]
		if other == number {
			return nil
		}
		amount := g.amountUpTo(acct.Balance)
		if _, err := acct.Apply(domain.KindTransferOut, amount); err != nil {
			return err
		}
		_, err := snap[other].Apply(domain.KindTransferIn, amount)
		return err
	}
}

// amountUpTo picks a positive amount no greater than limit, in cents.
func (g *Generator) amountUpTo(limit decimal.Decimal) decimal.Decimal {
	cents := limit.Shift(2).IntPart()
	if cents <= 1 {
		return decimal.New(1, -2)
	}
	return decimal.New(g.rng.Int63n(cents)+1, -2)
}

func (g *Generator) accountNumber() string {
	return fmt.Sprintf("%06d", g.rng.Intn(1_000_000))
}

func (g *Generator) pin() string {
	return fmt.Sprintf("%04d", g.rng.Intn(10_000))
}
