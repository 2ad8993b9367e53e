package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/storage"
	"github.com/openclaims/fieldgate/internal/inspection/workflow"
	apperrors "github.com/openclaims/fieldgate/internal/platform/errors"
)

func (s *Service) execSetContext(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input struct {
		StructureID string `json:"structureId"`
		RoomID      string `json:"roomId"`
		ElevationID string `json:"elevationId"`
		CurrentView string `json:"currentView"`
	}
	if err := decodeArgs(workflow.ToolSetContext, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}

	patch := workflow.Context{
		StructureID: input.StructureID,
		RoomID:      input.RoomID,
		ElevationID: input.ElevationID,
		CurrentView: input.CurrentView,
	}
	merged := in.state.Context.Merge(patch)
	return merged, workflow.StatePatch{Context: &patch}, nil
}

func (s *Service) execAdvancePhase(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	if in.state.Phase.IsTerminal() {
		return nil, workflow.StatePatch{}, apperrors.WithMetadata(
			apperrors.CodeWorkflowPhaseTerminal,
			fmt.Sprintf("phase %s is terminal", in.state.Phase),
			map[string]string{"Phase": string(in.state.Phase)},
		)
	}
	if !in.state.CanAdvance() {
		return nil, workflow.StatePatch{}, apperrors.WithMetadata(
			apperrors.CodeWorkflowAdvanceDenied,
			fmt.Sprintf("cannot leave phase %s until the sketch gate passes", in.state.Phase),
			map[string]string{"Phase": string(in.state.Phase)},
		)
	}

	next, ok := workflow.NextPhase(in.state.Phase)
	if !ok {
		return nil, workflow.StatePatch{}, apperrors.New(
			apperrors.CodeWorkflowPhaseInvalid,
			fmt.Sprintf("phase %s has no successor", in.state.Phase),
		)
	}
	return map[string]string{"phase": string(next)}, workflow.StatePatch{Phase: &next}, nil
}

func (s *Service) execRunGates(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	results, summary, err := s.runGates(ctx, in.state.SessionID, domain.Peril(in.state.Peril))
	if err != nil {
		return nil, workflow.StatePatch{}, err
	}
	return results, workflow.StatePatch{GateSummary: &summary}, nil
}

type roomInput struct {
	RoomID       string      `json:"roomId"`
	Name         string      `json:"name"`
	ViewType     string      `json:"viewType"`
	Polygon      []apiVertex `json:"polygon"`
	WallHeightFt float64     `json:"wallHeightFt"`
	LengthFt     float64     `json:"lengthFt"`
	WidthFt      float64     `json:"widthFt"`
}

type apiVertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (s *Service) execPutRoom(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input roomInput
	if err := decodeArgs(workflow.ToolAddRoom, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}

	roomID := strings.TrimSpace(input.RoomID)
	if roomID == "" {
		generated, err := s.newID()
		if err != nil {
			return nil, workflow.StatePatch{}, fmt.Errorf("generate room id: %w", err)
		}
		roomID = generated
	}

	viewType := domain.ViewType(input.ViewType)
	if viewType == "" {
		viewType = domain.ViewTypeInterior
	}
	switch viewType {
	case domain.ViewTypeInterior, domain.ViewTypeElevation, domain.ViewTypeRoofPlan:
	default:
		return nil, workflow.StatePatch{}, apperrors.WithMetadata(
			apperrors.CodeToolInvalidInput,
			fmt.Sprintf("unknown view type %s", input.ViewType),
			map[string]string{"ViewType": input.ViewType},
		)
	}

	polygon := make([]domain.Vertex, 0, len(input.Polygon))
	for _, v := range input.Polygon {
		polygon = append(polygon, domain.Vertex{X: v.X, Y: v.Y})
	}

	room := domain.Room{
		ID:        roomID,
		SessionID: in.state.SessionID,
		Name:      input.Name,
		ViewType:  viewType,
		Polygon:   polygon,
		Dimensions: domain.Dimensions{
			WallHeightFt: input.WallHeightFt,
			LengthFt:     input.LengthFt,
			WidthFt:      input.WidthFt,
		},
	}
	if err := s.store.PutRoom(ctx, room); err != nil {
		return nil, workflow.StatePatch{}, fmt.Errorf("store room: %w", err)
	}

	// A freshly sketched room becomes the working context.
	patch := workflow.Context{RoomID: roomID}
	if viewType == domain.ViewTypeElevation {
		patch = workflow.Context{ElevationID: roomID, CurrentView: string(domain.ViewTypeElevation)}
	}
	return room, workflow.StatePatch{Context: &patch}, nil
}

func (s *Service) execDeleteRoom(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input struct {
		RoomID string `json:"roomId"`
	}
	if err := decodeArgs(workflow.ToolDeleteRoom, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}
	roomID := firstNonEmptyString(input.RoomID, in.resolved.RoomID)
	if roomID == "" {
		return nil, workflow.StatePatch{}, apperrors.New(apperrors.CodeToolInvalidInput, "roomId is required")
	}

	if err := s.store.DeleteRoom(ctx, roomID); err != nil {
		return nil, workflow.StatePatch{}, mapNotFound(err, fmt.Sprintf("room %s not found", roomID))
	}
	return map[string]string{"deleted": roomID}, workflow.StatePatch{}, nil
}

type openingInput struct {
	OpeningID string  `json:"openingId"`
	Kind      string  `json:"kind"`
	WallIndex int     `json:"wallIndex"`
	WidthFt   float64 `json:"widthFt"`
	HeightFt  float64 `json:"heightFt"`
}

func (s *Service) execPutOpening(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input openingInput
	if err := decodeArgs(workflow.ToolAddOpening, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}

	// Context validation guarantees a room or elevation reference here.
	roomID := firstNonEmptyString(in.resolved.RoomID, in.resolved.ElevationID)

	openingID := strings.TrimSpace(input.OpeningID)
	if openingID == "" {
		generated, err := s.newID()
		if err != nil {
			return nil, workflow.StatePatch{}, fmt.Errorf("generate opening id: %w", err)
		}
		openingID = generated
	}

	opening := domain.Opening{
		ID:        openingID,
		SessionID: in.state.SessionID,
		RoomID:    roomID,
		Kind:      input.Kind,
		WallIndex: input.WallIndex,
		WidthFt:   input.WidthFt,
		HeightFt:  input.HeightFt,
	}
	if err := s.store.PutOpening(ctx, opening); err != nil {
		return nil, workflow.StatePatch{}, mapNotFound(err, fmt.Sprintf("room %s not found", roomID))
	}
	return opening, workflow.StatePatch{}, nil
}

func (s *Service) execDeleteOpening(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input struct {
		OpeningID string `json:"openingId"`
	}
	if err := decodeArgs(workflow.ToolDeleteOpening, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}
	if strings.TrimSpace(input.OpeningID) == "" {
		return nil, workflow.StatePatch{}, apperrors.New(apperrors.CodeToolInvalidInput, "openingId is required")
	}

	if err := s.store.DeleteOpening(ctx, input.OpeningID); err != nil {
		return nil, workflow.StatePatch{}, mapNotFound(err, fmt.Sprintf("opening %s not found", input.OpeningID))
	}
	return map[string]string{"deleted": input.OpeningID}, workflow.StatePatch{}, nil
}

type damageInput struct {
	DamageID   string `json:"damageId"`
	RoomID     string `json:"roomId"`
	DamageType string `json:"damageType"`
	Severity   string `json:"severity"`
}

func (s *Service) execPutDamage(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input damageInput
	if err := decodeArgs(workflow.ToolAddDamage, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}

	damageID := strings.TrimSpace(input.DamageID)
	if damageID == "" {
		generated, err := s.newID()
		if err != nil {
			return nil, workflow.StatePatch{}, fmt.Errorf("generate damage id: %w", err)
		}
		damageID = generated
	}

	severity := domain.DamageSeverity(input.Severity)
	switch severity {
	case "", domain.DamageSeverityNone, domain.DamageSeverityLight,
		domain.DamageSeverityModerate, domain.DamageSeveritySevere:
	default:
		return nil, workflow.StatePatch{}, apperrors.WithMetadata(
			apperrors.CodeToolInvalidInput,
			fmt.Sprintf("unknown damage severity %s", input.Severity),
			map[string]string{"Severity": input.Severity},
		)
	}

	damage := domain.Damage{
		ID:         damageID,
		SessionID:  in.state.SessionID,
		RoomID:     firstNonEmptyString(input.RoomID, in.resolved.RoomID),
		DamageType: input.DamageType,
		Severity:   severity,
	}
	if err := s.store.PutDamage(ctx, damage); err != nil {
		return nil, workflow.StatePatch{}, fmt.Errorf("store damage: %w", err)
	}
	return damage, workflow.StatePatch{}, nil
}

func (s *Service) execDeleteDamage(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input struct {
		DamageID string `json:"damageId"`
	}
	if err := decodeArgs(workflow.ToolDeleteDamage, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}
	if strings.TrimSpace(input.DamageID) == "" {
		return nil, workflow.StatePatch{}, apperrors.New(apperrors.CodeToolInvalidInput, "damageId is required")
	}

	if err := s.store.DeleteDamage(ctx, input.DamageID); err != nil {
		return nil, workflow.StatePatch{}, mapNotFound(err, fmt.Sprintf("damage %s not found", input.DamageID))
	}
	return map[string]string{"deleted": input.DamageID}, workflow.StatePatch{}, nil
}

type lineItemInput struct {
	LineItemID       string   `json:"lineItemId"`
	RoomID           string   `json:"roomId"`
	DamageID         string   `json:"damageId"`
	Category         string   `json:"category"`
	Description      string   `json:"description"`
	Quantity         float64  `json:"quantity"`
	Unit             string   `json:"unit"`
	UnitPrice        float64  `json:"unitPrice"`
	AgeYears         *float64 `json:"ageYears"`
	LifeExpectancy   float64  `json:"lifeExpectancy"`
	DepreciationType string   `json:"depreciationType"`
	Provenance       string   `json:"provenance"`
}

func (s *Service) execPutLineItem(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input lineItemInput
	if err := decodeArgs(workflow.ToolAddLineItem, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, workflow.StatePatch{}, apperrors.New(apperrors.CodeToolInvalidInput, "category is required")
	}
	if input.Quantity < 0 || input.UnitPrice < 0 {
		return nil, workflow.StatePatch{}, apperrors.New(apperrors.CodeToolInvalidInput,
			"quantity and unitPrice must not be negative")
	}

	itemID := strings.TrimSpace(input.LineItemID)
	if itemID == "" {
		generated, err := s.newID()
		if err != nil {
			return nil, workflow.StatePatch{}, fmt.Errorf("generate line item id: %w", err)
		}
		itemID = generated
	}

	item, err := s.priceLineItem(ctx, itemID, in.state.SessionID, in.resolved, input)
	if err != nil {
		return nil, workflow.StatePatch{}, err
	}
	if err := s.store.PutLineItem(ctx, item); err != nil {
		return nil, workflow.StatePatch{}, fmt.Errorf("store line item: %w", err)
	}
	return item, workflow.StatePatch{}, nil
}

func (s *Service) execDeleteLineItem(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input struct {
		LineItemID string `json:"lineItemId"`
	}
	if err := decodeArgs(workflow.ToolDeleteLineItem, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}
	if strings.TrimSpace(input.LineItemID) == "" {
		return nil, workflow.StatePatch{}, apperrors.New(apperrors.CodeToolInvalidInput, "lineItemId is required")
	}

	if err := s.store.DeleteLineItem(ctx, input.LineItemID); err != nil {
		return nil, workflow.StatePatch{}, mapNotFound(err, fmt.Sprintf("line item %s not found", input.LineItemID))
	}
	return map[string]string{"deleted": input.LineItemID}, workflow.StatePatch{}, nil
}

type scopeItemInput struct {
	ScopeItemID string `json:"scopeItemId"`
	RoomID      string `json:"roomId"`
	DamageID    string `json:"damageId"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Provenance  string `json:"provenance"`
}

func (s *Service) execPutScopeItem(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input scopeItemInput
	if err := decodeArgs(workflow.ToolAddScopeItem, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}
	if strings.TrimSpace(input.Category) == "" {
		return nil, workflow.StatePatch{}, apperrors.New(apperrors.CodeToolInvalidInput, "category is required")
	}

	itemID := strings.TrimSpace(input.ScopeItemID)
	if itemID == "" {
		generated, err := s.newID()
		if err != nil {
			return nil, workflow.StatePatch{}, fmt.Errorf("generate scope item id: %w", err)
		}
		itemID = generated
	}

	item := domain.ScopeItem{
		ID:          itemID,
		SessionID:   in.state.SessionID,
		RoomID:      firstNonEmptyString(input.RoomID, in.resolved.RoomID),
		DamageID:    input.DamageID,
		Category:    input.Category,
		Description: input.Description,
		Provenance:  input.Provenance,
	}
	if err := s.store.PutScopeItem(ctx, item); err != nil {
		return nil, workflow.StatePatch{}, fmt.Errorf("store scope item: %w", err)
	}
	return item, workflow.StatePatch{}, nil
}

func (s *Service) execDeleteScopeItem(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input struct {
		ScopeItemID string `json:"scopeItemId"`
	}
	if err := decodeArgs(workflow.ToolDeleteScopeItem, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}
	if strings.TrimSpace(input.ScopeItemID) == "" {
		return nil, workflow.StatePatch{}, apperrors.New(apperrors.CodeToolInvalidInput, "scopeItemId is required")
	}

	if err := s.store.DeleteScopeItem(ctx, input.ScopeItemID); err != nil {
		return nil, workflow.StatePatch{}, mapNotFound(err, fmt.Sprintf("scope item %s not found", input.ScopeItemID))
	}
	return map[string]string{"deleted": input.ScopeItemID}, workflow.StatePatch{}, nil
}

type photoInput struct {
	PhotoID         string   `json:"photoId"`
	RoomID          string   `json:"roomId"`
	RequestedShot   string   `json:"requestedShot"`
	MatchConfidence *float64 `json:"matchConfidence"`
	DamageHints     []string `json:"damageHints"`
}

func (s *Service) execAttachPhoto(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input photoInput
	if err := decodeArgs(workflow.ToolAttachPhoto, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}

	photoID := strings.TrimSpace(input.PhotoID)
	if photoID == "" {
		generated, err := s.newID()
		if err != nil {
			return nil, workflow.StatePatch{}, fmt.Errorf("generate photo id: %w", err)
		}
		photoID = generated
	}

	photo := domain.Photo{
		ID:            photoID,
		SessionID:     in.state.SessionID,
		RoomID:        firstNonEmptyString(input.RoomID, in.resolved.RoomID),
		RequestedShot: input.RequestedShot,
	}
	if input.MatchConfidence != nil {
		photo.Analysis = &domain.PhotoAnalysis{
			MatchConfidence: *input.MatchConfidence,
			DamageHints:     input.DamageHints,
		}
	}
	if err := s.store.PutPhoto(ctx, photo); err != nil {
		return nil, workflow.StatePatch{}, fmt.Errorf("store photo: %w", err)
	}
	return photo, workflow.StatePatch{}, nil
}

func (s *Service) execConfirmPhoto(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	var input struct {
		PhotoID string `json:"photoId"`
	}
	if err := decodeArgs(workflow.ToolConfirmPhoto, in.args, &input); err != nil {
		return nil, workflow.StatePatch{}, err
	}
	if strings.TrimSpace(input.PhotoID) == "" {
		return nil, workflow.StatePatch{}, apperrors.New(apperrors.CodeToolInvalidInput, "photoId is required")
	}

	photos, err := s.store.ListPhotos(ctx, in.state.SessionID)
	if err != nil {
		return nil, workflow.StatePatch{}, fmt.Errorf("list photos: %w", err)
	}
	for _, photo := range photos {
		if photo.ID != input.PhotoID {
			continue
		}
		photo.Matched = true
		if err := s.store.PutPhoto(ctx, photo); err != nil {
			return nil, workflow.StatePatch{}, fmt.Errorf("store photo: %w", err)
		}
		return photo, workflow.StatePatch{}, nil
	}
	return nil, workflow.StatePatch{}, apperrors.WithMetadata(apperrors.CodeNotFound,
		fmt.Sprintf("photo %s not found", input.PhotoID),
		map[string]string{"PhotoID": input.PhotoID})
}

func (s *Service) execExportPackage(ctx context.Context, in execInput) (any, workflow.StatePatch, error) {
	artifact, err := s.buildExport(ctx, in.state.SessionID, domain.Peril(in.state.Peril))
	if err != nil {
		return nil, workflow.StatePatch{}, err
	}
	return artifact, workflow.StatePatch{}, nil
}

func mapNotFound(err error, message string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, message, err)
	}
	return err
}

func firstNonEmptyString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
