package web

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/service"
	apperrors "github.com/openclaims/fieldgate/internal/platform/errors"
	"google.golang.org/grpc/codes"
)

// maxBodyBytes caps request bodies; tool argument bags and claim headers are
// small.
const maxBodyBytes = 1 << 20

// NewHandler builds the JSON API handler for the inspection server.
func NewHandler(svc *service.Service) http.Handler {
	h := &handler{svc: svc}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", h.health)
	mux.HandleFunc("POST /v1/sessions", h.startSession)
	mux.HandleFunc("GET /v1/sessions/{sessionID}", h.getSession)
	mux.HandleFunc("GET /v1/sessions/{sessionID}/workflow", h.getWorkflowState)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/tools/{tool}", h.executeTool)
	mux.HandleFunc("GET /v1/sessions/{sessionID}/gates", h.getGateSummary)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/gates", h.runGates)
	mux.HandleFunc("POST /v1/sessions/{sessionID}/export", h.exportPackage)
	mux.HandleFunc("PUT /v1/claims/{claimID}", h.putClaim)
	mux.HandleFunc("GET /v1/claims/{claimID}", h.getClaim)
	return mux
}

type handler struct {
	svc *service.Service
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// sessionPayload is the wire form of an inspection session.
type sessionPayload struct {
	ID        string    `json:"id"`
	ClaimID   string    `json:"claimId"`
	Peril     string    `json:"peril"`
	StartedAt time.Time `json:"startedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toSessionPayload(session domain.InspectionSession) sessionPayload {
	return sessionPayload{
		ID:        session.ID,
		ClaimID:   session.ClaimID,
		Peril:     string(session.Peril),
		StartedAt: session.StartedAt,
		UpdatedAt: session.UpdatedAt,
	}
}

type startSessionRequest struct {
	ClaimID string `json:"claimId"`
	Peril   string `json:"peril"`
}

func (h *handler) startSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if !decodeBody(w, r, &req) {
		return
	}

	session, state, err := h.svc.StartSession(r.Context(), service.StartSessionInput{
		ClaimID: req.ClaimID,
		Peril:   domain.Peril(req.Peril),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session": toSessionPayload(session),
		"state":   state,
	})
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.svc.GetSession(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionPayload(session))
}

func (h *handler) getWorkflowState(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.GetWorkflowState(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// executeTool runs one workflow tool. The request body is passed through to
// the tool as its argument bag. Workflow rejections come back as 200s with a
// failure payload; the session itself stays healthy.
func (h *handler) executeTool(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.CodeToolInvalidInput, "read request body", err))
		return
	}

	result, err := h.svc.ExecuteTool(r.Context(), r.PathValue("sessionID"), r.PathValue("tool"), body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// getGateSummary returns the summary persisted by the latest gate run.
func (h *handler) getGateSummary(w http.ResponseWriter, r *http.Request) {
	state, err := h.svc.GetWorkflowState(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	if state.LastGateSummary == nil {
		writeError(w, apperrors.New(apperrors.CodeNotFound, "no gate run recorded for session"))
		return
	}
	writeJSON(w, http.StatusOK, state.LastGateSummary)
}

func (h *handler) runGates(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.RunGates(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gates": results})
}

func (h *handler) exportPackage(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.svc.ExportPackage(r.Context(), r.PathValue("sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

// claimPayload is the wire form of a claim header.
type claimPayload struct {
	ClaimNumber     string            `json:"claimNumber"`
	PolicyNumber    string            `json:"policyNumber"`
	PropertyAddress string            `json:"propertyAddress"`
	DateOfLoss      time.Time         `json:"dateOfLoss,omitzero"`
	Peril           string            `json:"peril"`
	AdjusterName    string            `json:"adjusterName"`
	InsuredName     string            `json:"insuredName"`
	Coverages       []coveragePayload `json:"coverages,omitempty"`
	RoofInfo        *roofInfoPayload  `json:"roofInfo,omitempty"`
}

type coveragePayload struct {
	Name       string  `json:"name"`
	Limit      float64 `json:"limit"`
	Deductible float64 `json:"deductible"`
}

type roofInfoPayload struct {
	Material    string  `json:"material"`
	AgeYears    float64 `json:"ageYears"`
	SquareCount float64 `json:"squareCount"`
	Pitch       string  `json:"pitch,omitempty"`
}

func (h *handler) putClaim(w http.ResponseWriter, r *http.Request) {
	var req claimPayload
	if !decodeBody(w, r, &req) {
		return
	}

	claim := domain.Claim{
		ID:              r.PathValue("claimID"),
		ClaimNumber:     req.ClaimNumber,
		PolicyNumber:    req.PolicyNumber,
		PropertyAddress: req.PropertyAddress,
		DateOfLoss:      req.DateOfLoss,
		Peril:           domain.Peril(req.Peril),
		AdjusterName:    req.AdjusterName,
		InsuredName:     req.InsuredName,
	}
	for _, c := range req.Coverages {
		claim.Coverages = append(claim.Coverages, domain.Coverage{
			Name:       c.Name,
			Limit:      c.Limit,
			Deductible: c.Deductible,
		})
	}
	if req.RoofInfo != nil {
		claim.RoofInfo = &domain.RoofInfo{
			Material:    req.RoofInfo.Material,
			AgeYears:    req.RoofInfo.AgeYears,
			SquareCount: req.RoofInfo.SquareCount,
			Pitch:       req.RoofInfo.Pitch,
		}
	}

	if err := h.svc.PutClaim(r.Context(), claim); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) getClaim(w http.ResponseWriter, r *http.Request) {
	claim, err := h.svc.GetClaim(r.Context(), r.PathValue("claimID"))
	if err != nil {
		writeError(w, err)
		return
	}

	payload := claimPayload{
		ClaimNumber:     claim.ClaimNumber,
		PolicyNumber:    claim.PolicyNumber,
		PropertyAddress: claim.PropertyAddress,
		DateOfLoss:      claim.DateOfLoss,
		Peril:           string(claim.Peril),
		AdjusterName:    claim.AdjusterName,
		InsuredName:     claim.InsuredName,
	}
	for _, c := range claim.Coverages {
		payload.Coverages = append(payload.Coverages, coveragePayload{
			Name:       c.Name,
			Limit:      c.Limit,
			Deductible: c.Deductible,
		})
	}
	if claim.RoofInfo != nil {
		payload.RoofInfo = &roofInfoPayload{
			Material:    claim.RoofInfo.Material,
			AgeYears:    claim.RoofInfo.AgeYears,
			SquareCount: claim.RoofInfo.SquareCount,
			Pitch:       claim.RoofInfo.Pitch,
		}
	}
	writeJSON(w, http.StatusOK, payload)
}

func decodeBody(w http.ResponseWriter, r *http.Request, into any) bool {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(into); err != nil {
		writeError(w, apperrors.Wrap(apperrors.CodeToolInvalidInput, "request body does not decode", err))
		return false
	}
	return true
}

// errorPayload is the wire form of a request failure.
type errorPayload struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		writeJSON(w, httpStatus(appErr.Code), map[string]errorPayload{"error": {
			Code:     string(appErr.Code),
			Message:  appErr.Message,
			Metadata: appErr.Metadata,
		}})
		return
	}
	log.Printf("inspection api: %v", err)
	writeJSON(w, http.StatusInternalServerError, map[string]errorPayload{"error": {
		Code:    string(apperrors.CodeUnknown),
		Message: "internal error",
	}})
}

// httpStatus maps a domain error code to an HTTP status through the same
// classification the gRPC mapping uses.
func httpStatus(code apperrors.Code) int {
	switch code.GRPCCode() {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.NotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("inspection api: encode response: %v", err)
	}
}
