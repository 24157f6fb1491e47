package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/nvasquez/atmcore/internal/generator"
	"github.com/nvasquez/atmcore/internal/storage"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		accounts    = flag.Int("accounts", cfg.NumAccounts, "number of accounts to generate")
		maxOps      = flag.Int("max-ops", cfg.MaxOpsPerAccount, "maximum extra operations per account")
		seed        = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		backend     = flag.String("backend", storage.BackendFile, "storage backend to write into (file|bolt)")
		path        = flag.String("path", "data/accounts.json", "destination file or database path")
		writeStdout = flag.Bool("stdout", false, "write the snapshot to stdout instead of a store")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumAccounts:      *accounts,
		MaxOpsPerAccount: *maxOps,
		MaxOpeningCents:  cfg.MaxOpeningCents,
		Seed:             *seed,
	}

	snap, err := generator.New(genCfg).Generate()
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write snapshot to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	store, err := storage.Open(storage.Options{Backend: *backend, Path: *path})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := store.Save(ctx, snap); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write snapshot: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d accounts into %s store at %s\n", len(snap), *backend, *path)
}
