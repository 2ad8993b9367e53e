package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openclaims/fieldgate/internal/platform/id"
)

var (
	// ErrEmptyClaimID indicates a missing claim ID.
	ErrEmptyClaimID = errors.New("claim id is required")
)

// Peril identifies the cause of loss driving an inspection.
type Peril string

const (
	PerilWind  Peril = "wind"
	PerilHail  Peril = "hail"
	PerilWater Peril = "water"
	PerilFire  Peril = "fire"
	PerilOther Peril = "other"
)

// InspectionSession represents a single field inspection visit for a claim.
type InspectionSession struct {
	ID        string
	ClaimID   string
	Peril     Peril
	StartedAt time.Time
	UpdatedAt time.Time
}

// CreateSessionInput describes the metadata needed to create a session.
type CreateSessionInput struct {
	ClaimID string
	Peril   Peril
}

// CreateSession creates a new inspection session with a generated ID and timestamps.
func CreateSession(input CreateSessionInput, now func() time.Time, idGenerator func() (string, error)) (InspectionSession, error) {
	if now == nil {
		now = time.Now
	}
	if idGenerator == nil {
		idGenerator = id.NewID
	}

	input.ClaimID = strings.TrimSpace(input.ClaimID)
	if input.ClaimID == "" {
		return InspectionSession{}, ErrEmptyClaimID
	}
	if input.Peril == "" {
		input.Peril = PerilOther
	}

	sessionID, err := idGenerator()
	if err != nil {
		return InspectionSession{}, fmt.Errorf("generate session id: %w", err)
	}

	createdAt := now().UTC()
	return InspectionSession{
		ID:        sessionID,
		ClaimID:   input.ClaimID,
		Peril:     input.Peril,
		StartedAt: createdAt,
		UpdatedAt: createdAt,
	}, nil
}
