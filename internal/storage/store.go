package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nvasquez/atmcore/internal/domain"
)

// Snapshot maps account numbers to their full records. Every save persists
// the complete snapshot; there is no incremental or append format.
type Snapshot map[string]*domain.Account

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for number, acct := range s {
		out[number] = acct.Clone()
	}
	return out
}

// Store defines the minimal contract the ledger requires from a snapshot
// persistence backend.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Ping(ctx context.Context) error
	Close() error
}

// Supported backend names.
const (
	BackendFile   = "file"
	BackendBolt   = "bolt"
	BackendMemory = "memory"
)

// ErrUnknownBackend indicates an unrecognized backend name.
var ErrUnknownBackend = errors.New("unknown storage backend")

// Options configures a store implementation.
type Options struct {
	Backend string
	Path    string
}

// Open constructs the store selected by opts.Backend. An empty backend
// defaults to the flat-file store.
func Open(opts Options) (Store, error) {
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Path), nil
	case BackendBolt:
		return OpenBoltStore(opts.Path)
	case BackendMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, opts.Backend)
	}
}
