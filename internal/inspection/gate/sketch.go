package gate

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
)

// Sketch gate issue codes.
const (
	CodeSketchTooFewVertices   = "SKETCH_TOO_FEW_VERTICES"
	CodeSketchNaNCoord         = "SKETCH_NAN_COORD"
	CodeOpeningWallIndexRange  = "OPENING_WALL_INDEX_RANGE"
	CodeOpeningInvalidDims     = "OPENING_INVALID_DIMS"
	CodeOpeningWiderThanWall   = "OPENING_WIDER_THAN_WALL"
	CodeElevationMissingHeight = "ELEVATION_MISSING_HEIGHT"
)

// SketchGate validates the structural integrity of sketched rooms and their
// openings.
type SketchGate struct {
	store Store
	clock func() time.Time
}

// NewSketchGate creates a sketch gate backed by the given store.
func NewSketchGate(store Store) *SketchGate {
	return &SketchGate{store: store, clock: time.Now}
}

// Evaluate inspects every room and opening in the session.
func (g *SketchGate) Evaluate(ctx context.Context, sessionID string) (Result, error) {
	rooms, err := g.store.ListRooms(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("list rooms: %w", err)
	}
	openings, err := g.store.ListOpeningsForSession(ctx, sessionID)
	if err != nil {
		return Result{}, fmt.Errorf("list openings: %w", err)
	}

	openingsByRoom := make(map[string][]domain.Opening)
	for _, opening := range openings {
		openingsByRoom[opening.RoomID] = append(openingsByRoom[opening.RoomID], opening)
	}

	var issues []Issue
	for _, room := range rooms {
		issues = append(issues, sketchRoomIssues(room)...)
		for _, opening := range openingsByRoom[room.ID] {
			issues = append(issues, sketchOpeningIssues(room, opening)...)
		}
	}

	return NewResult(GateSketch, issues, g.clock()), nil
}

func sketchRoomIssues(room domain.Room) []Issue {
	var issues []Issue
	entity := roomRef(room)

	// An empty polygon means the room was created but never sketched;
	// only a non-empty, degenerate polygon is a structural violation.
	if n := len(room.Polygon); n > 0 && n < 3 {
		issues = append(issues, Issue{
			Severity: SeverityBlocker,
			Code:     CodeSketchTooFewVertices,
			Message:  fmt.Sprintf("room %s polygon has %d vertices; at least 3 are required", room.Name, n),
			Entity:   entity,
			Details:  map[string]string{"vertexCount": fmt.Sprintf("%d", n)},
		})
	}

	for i, v := range room.Polygon {
		if math.IsNaN(v.X) || math.IsNaN(v.Y) {
			issues = append(issues, Issue{
				Severity: SeverityBlocker,
				Code:     CodeSketchNaNCoord,
				Message:  fmt.Sprintf("room %s polygon vertex %d has a NaN coordinate", room.Name, i),
				Entity:   entity,
				Details:  map[string]string{"vertexIndex": fmt.Sprintf("%d", i)},
			})
		}
	}

	if room.ViewType == domain.ViewTypeElevation && room.Dimensions.WallHeightFt <= 0 {
		issues = append(issues, Issue{
			Severity:   SeverityWarning,
			Code:       CodeElevationMissingHeight,
			Message:    fmt.Sprintf("elevation %s has no wall height dimension", room.Name),
			Entity:     entity,
			Suggestion: "measure and record the wall height for this elevation",
		})
	}

	return issues
}

func sketchOpeningIssues(room domain.Room, opening domain.Opening) []Issue {
	var issues []Issue
	entity := &EntityRef{Type: "opening", ID: opening.ID, Name: opening.Kind}

	edgeCount := room.EdgeCount()
	if opening.WallIndex < 0 || opening.WallIndex >= edgeCount {
		issues = append(issues, Issue{
			Severity: SeverityBlocker,
			Code:     CodeOpeningWallIndexRange,
			Message: fmt.Sprintf("opening %s references wall %d but room %s has %d walls",
				opening.ID, opening.WallIndex, room.Name, edgeCount),
			Entity: entity,
			Details: map[string]string{
				"wallIndex": fmt.Sprintf("%d", opening.WallIndex),
				"edgeCount": fmt.Sprintf("%d", edgeCount),
			},
		})
	}

	if opening.WidthFt <= 0 || opening.HeightFt <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityBlocker,
			Code:     CodeOpeningInvalidDims,
			Message: fmt.Sprintf("opening %s has non-positive dimensions %.2fft x %.2fft",
				opening.ID, opening.WidthFt, opening.HeightFt),
			Entity: entity,
		})
		return issues
	}

	if wallLength, ok := room.EdgeLength(opening.WallIndex); ok && opening.WidthFt > wallLength {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Code:     CodeOpeningWiderThanWall,
			Message: fmt.Sprintf("opening %s is %.2fft wide but wall %d of room %s is only %.2fft",
				opening.ID, opening.WidthFt, opening.WallIndex, room.Name, wallLength),
			Entity:     entity,
			Suggestion: "check the opening width or move it to the correct wall",
		})
	}

	return issues
}

func roomRef(room domain.Room) *EntityRef {
	return &EntityRef{Type: "room", ID: room.ID, Name: room.Name}
}
