package server

import (
	"context"

	"github.com/nvasquez/atmcore/internal/storage"
)

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// StoreHealthService verifies the snapshot store as part of health checks.
type StoreHealthService struct {
	Store storage.Store
}

// Probe implements the HealthService interface.
func (s StoreHealthService) Probe(ctx context.Context) error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Ping(ctx)
}
