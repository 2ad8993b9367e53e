// Package service orchestrates inspection tool calls: it validates them
// against workflow state, executes them against storage, and persists the
// resulting state rewrite under a per-session lock.
package service

import (
	"context"
	"sync"
	"time"

	"github.com/openclaims/fieldgate/internal/inspection/gate"
	"github.com/openclaims/fieldgate/internal/inspection/observability/audit"
	"github.com/openclaims/fieldgate/internal/inspection/pricing"
	"github.com/openclaims/fieldgate/internal/inspection/storage"
	"github.com/openclaims/fieldgate/internal/platform/id"
)

// Store is the full persistence surface the orchestrator needs. The SQLite
// store satisfies it; tests supply in-memory fakes.
type Store interface {
	storage.SessionStore
	storage.ClaimStore
	storage.WorkflowStateStore
	storage.RoomStore
	storage.OpeningStore
	storage.DamageStore
	storage.LineItemStore
	storage.ScopeItemStore
	storage.PhotoStore
}

// Service coordinates workflow gating, tool execution, gate runs, and
// export for inspection sessions.
type Service struct {
	store          Store
	gates          *gate.Runner
	audit          *audit.Emitter
	regionalPrices pricing.RegionalPriceLookup
	clock          func() time.Time
	newID          func() (string, error)
	locksM         sync.Mutex
	locks          map[string]*sync.Mutex
}

// Option tweaks service construction.
type Option func(*Service)

// WithClock injects a deterministic clock.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator injects a deterministic ID generator.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithAuditEmitter injects an audit emitter. Without one, audit emission is
// a no-op.
func WithAuditEmitter(emitter *audit.Emitter) Option {
	return func(s *Service) {
		s.audit = emitter
	}
}

// New creates a service over the given store.
func New(store Store, opts ...Option) *Service {
	svc := &Service{
		store: store,
		gates: gate.NewRunner(store),
		clock: time.Now,
		newID: id.NewID,
		locks: map[string]*sync.Mutex{},
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// lockSession serializes writers for one session. Per-session locks are
// created on demand and never reclaimed; sessions are short-lived and few.
func (s *Service) lockSession(sessionID string) func() {
	s.locksM.Lock()
	mu, found := s.locks[sessionID]
	if !found {
		mu = &sync.Mutex{}
		s.locks[sessionID] = mu
	}
	s.locksM.Unlock()

	mu.Lock()
	return mu.Unlock
}

func (s *Service) emitAudit(ctx context.Context, evt storage.AuditEvent) {
	// Audit failures never fail the operation that produced them.
	_ = s.audit.Emit(ctx, evt)
}
