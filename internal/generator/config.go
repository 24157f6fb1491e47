package generator

// Config drives the synthetic account generator.
type Config struct {
	NumAccounts      int
	MaxOpsPerAccount int
	MaxOpeningCents  int64
	Seed             int64
}

// DefaultConfig returns baseline settings for a small demo dataset.
func DefaultConfig() Config {
	return Config{
		NumAccounts:      25,
		MaxOpsPerAccount: 20,
		MaxOpeningCents:  500_000,
		Seed:             42,
	}
}
