package storage

import (
	"context"
	"errors"
	"time"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/workflow"
)

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrVersionConflict indicates a workflow state write lost a concurrent race.
var ErrVersionConflict = errors.New("workflow state version conflict")

// SessionStore persists inspection session records.
type SessionStore interface {
	PutSession(ctx context.Context, session domain.InspectionSession) error
	GetSession(ctx context.Context, sessionID string) (domain.InspectionSession, error)
}

// ClaimStore persists claim records.
type ClaimStore interface {
	PutClaim(ctx context.Context, claim domain.Claim) error
	GetClaim(ctx context.Context, claimID string) (domain.Claim, error)
}

// WorkflowStateStore persists per-session workflow state.
//
// UpdateWorkflowState must reject writes whose Version does not match the
// stored record with ErrVersionConflict, so that the read-modify-write cycle
// in the orchestrator is safe even if two writers slip past the per-session
// lock.
type WorkflowStateStore interface {
	PutWorkflowState(ctx context.Context, state workflow.State) error
	GetWorkflowState(ctx context.Context, sessionID string) (workflow.State, error)
	UpdateWorkflowState(ctx context.Context, state workflow.State) (workflow.State, error)
}

// RoomStore persists sketched rooms.
type RoomStore interface {
	PutRoom(ctx context.Context, room domain.Room) error
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)
	ListRooms(ctx context.Context, sessionID string) ([]domain.Room, error)
	DeleteRoom(ctx context.Context, roomID string) error
}

// OpeningStore persists wall openings.
type OpeningStore interface {
	PutOpening(ctx context.Context, opening domain.Opening) error
	ListOpeningsForSession(ctx context.Context, sessionID string) ([]domain.Opening, error)
	ListOpeningsForRoom(ctx context.Context, roomID string) ([]domain.Opening, error)
	DeleteOpening(ctx context.Context, openingID string) error
}

// DamageStore persists observed damages.
type DamageStore interface {
	PutDamage(ctx context.Context, damage domain.Damage) error
	ListDamagesForSession(ctx context.Context, sessionID string) ([]domain.Damage, error)
	DeleteDamage(ctx context.Context, damageID string) error
}

// LineItemStore persists estimate line items.
type LineItemStore interface {
	PutLineItem(ctx context.Context, item domain.LineItem) error
	ListLineItems(ctx context.Context, sessionID string) ([]domain.LineItem, error)
	DeleteLineItem(ctx context.Context, itemID string) error
}

// ScopeItemStore persists scoping notes.
type ScopeItemStore interface {
	PutScopeItem(ctx context.Context, item domain.ScopeItem) error
	ListScopeItems(ctx context.Context, sessionID string) ([]domain.ScopeItem, error)
	DeleteScopeItem(ctx context.Context, itemID string) error
}

// PhotoStore persists inspection photos.
type PhotoStore interface {
	PutPhoto(ctx context.Context, photo domain.Photo) error
	ListPhotos(ctx context.Context, sessionID string) ([]domain.Photo, error)
}

// AuditEvent is one operational audit record.
type AuditEvent struct {
	SessionID string
	Kind      string
	Severity  string
	Message   string
	Metadata  map[string]string
	Timestamp time.Time
}

// AuditEventStore appends operational audit events.
type AuditEventStore interface {
	AppendAuditEvent(ctx context.Context, evt AuditEvent) error
}
