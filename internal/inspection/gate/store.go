package gate

import (
	"context"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
)

// Store is the narrow read-only view of session data the gates evaluate.
// The canonical implementation is the inspection storage layer; tests supply
// in-memory fakes.
type Store interface {
	GetSession(ctx context.Context, sessionID string) (domain.InspectionSession, error)
	GetClaim(ctx context.Context, claimID string) (domain.Claim, error)
	ListRooms(ctx context.Context, sessionID string) ([]domain.Room, error)
	ListOpeningsForSession(ctx context.Context, sessionID string) ([]domain.Opening, error)
	ListDamagesForSession(ctx context.Context, sessionID string) ([]domain.Damage, error)
	ListLineItems(ctx context.Context, sessionID string) ([]domain.LineItem, error)
	ListScopeItems(ctx context.Context, sessionID string) ([]domain.ScopeItem, error)
	ListPhotos(ctx context.Context, sessionID string) ([]domain.Photo, error)
}
