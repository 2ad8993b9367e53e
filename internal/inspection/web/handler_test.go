package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/openclaims/fieldgate/internal/inspection/service"
	"github.com/openclaims/fieldgate/internal/inspection/storage/sqlite"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "inspection.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})

	ts := httptest.NewServer(NewHandler(service.New(store)))
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	return resp, raw
}

func startSession(t *testing.T, ts *httptest.Server, claimID, peril string) string {
	t.Helper()
	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]string{
		"claimId": claimID,
		"peril":   peril,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start session status = %d: %s", resp.StatusCode, raw)
	}
	var created struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
		State struct {
			Phase   string `json:"phase"`
			Version int64  `json:"version"`
		} `json:"state"`
	}
	if err := json.Unmarshal(raw, &created); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if created.Session.ID == "" {
		t.Fatalf("session id missing: %s", raw)
	}
	if created.State.Phase != "briefing" || created.State.Version != 1 {
		t.Fatalf("state = %+v", created.State)
	}
	return created.Session.ID
}

func errorCode(t *testing.T, raw []byte) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode error payload: %v (%s)", err, raw)
	}
	return payload.Error.Code
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/healthz", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts, "claim-1", "hail")

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/v1/sessions/"+sessionID, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get session status = %d: %s", resp.StatusCode, raw)
	}
	var session sessionPayload
	if err := json.Unmarshal(raw, &session); err != nil {
		t.Fatalf("decode session: %v", err)
	}
	if session.ClaimID != "claim-1" || session.Peril != "hail" {
		t.Fatalf("session = %+v", session)
	}

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/v1/sessions/"+sessionID+"/workflow", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get workflow status = %d: %s", resp.StatusCode, raw)
	}
	var state struct {
		Phase  string `json:"phase"`
		StepID string `json:"stepId"`
	}
	if err := json.Unmarshal(raw, &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.Phase != "briefing" || state.StepID == "" {
		t.Fatalf("state = %+v", state)
	}
}

func TestStartSessionMissingClaimID(t *testing.T) {
	ts := newTestServer(t)
	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions", map[string]string{"peril": "wind"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
	if code := errorCode(t, raw); code != "SESSION_EMPTY_CLAIM_ID" {
		t.Fatalf("code = %q", code)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/v1/sessions/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
	if code := errorCode(t, raw); code != "NOT_FOUND" {
		t.Fatalf("code = %q", code)
	}
}

func TestExecuteToolAllowed(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts, "claim-1", "hail")

	resp, raw := doJSON(t, http.MethodPost,
		ts.URL+"/v1/sessions/"+sessionID+"/tools/set_context",
		map[string]string{"currentView": "exterior"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
	var result struct {
		Failure *json.RawMessage `json:"failure"`
		State   struct {
			Version int64 `json:"version"`
			Context struct {
				CurrentView string `json:"currentView"`
			} `json:"context"`
		} `json:"state"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Failure != nil {
		t.Fatalf("unexpected failure: %s", *result.Failure)
	}
	if result.State.Version != 2 || result.State.Context.CurrentView != "exterior" {
		t.Fatalf("state = %+v", result.State)
	}
}

func TestExecuteToolRejectedOutOfPhase(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts, "claim-1", "hail")

	// Sketch tools are not allowed during briefing; the rejection is a result
	// value, not an HTTP error.
	resp, raw := doJSON(t, http.MethodPost,
		ts.URL+"/v1/sessions/"+sessionID+"/tools/add_room",
		map[string]string{"name": "Kitchen"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
	var result struct {
		Failure *struct {
			Code string `json:"code"`
			Hint string `json:"hint"`
		} `json:"failure"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Failure == nil || result.Failure.Code != "TOOL_NOT_ALLOWED" {
		t.Fatalf("failure = %+v", result.Failure)
	}
	if result.Failure.Hint == "" {
		t.Fatal("rejection should carry a hint")
	}
}

func TestExecuteToolUnknown(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts, "claim-1", "hail")

	resp, raw := doJSON(t, http.MethodPost,
		ts.URL+"/v1/sessions/"+sessionID+"/tools/launch_drone", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
	if code := errorCode(t, raw); code != "TOOL_UNKNOWN" {
		t.Fatalf("code = %q", code)
	}
}

func TestRunGatesEndpoint(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts, "claim-1", "hail")

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions/"+sessionID+"/gates", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
	var payload struct {
		Gates map[string]struct {
			OK bool `json:"ok"`
		} `json:"gates"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		t.Fatalf("decode gates: %v", err)
	}
	if len(payload.Gates) == 0 {
		t.Fatalf("no gate results: %s", raw)
	}
	if snap, found := payload.Gates["sketch"]; !found || !snap.OK {
		t.Fatalf("sketch gate = %+v (found %v)", snap, found)
	}
}

func TestGateSummaryBeforeAnyRun(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts, "claim-1", "hail")

	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/v1/sessions/"+sessionID+"/gates", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
	if code := errorCode(t, raw); code != "NOT_FOUND" {
		t.Fatalf("error code = %q", code)
	}
}

func TestGateSummaryAfterRun(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts, "claim-1", "hail")

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions/"+sessionID+"/gates", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("run gates status = %d: %s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/v1/sessions/"+sessionID+"/gates", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
	var summary struct {
		Gates map[string]struct {
			OK bool `json:"ok"`
		} `json:"gates"`
		ComputedAt string `json:"computedAt"`
	}
	if err := json.Unmarshal(raw, &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if snap, found := summary.Gates["sketch"]; !found || !snap.OK {
		t.Fatalf("sketch snapshot = %+v (found %v)", snap, found)
	}
	if summary.ComputedAt == "" {
		t.Fatal("expected a computedAt timestamp")
	}
}

func TestClaimRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	claim := map[string]any{
		"claimNumber":     "CLM-2026-001",
		"policyNumber":    "POL-99",
		"propertyAddress": "12 Elm St",
		"peril":           "hail",
		"adjusterName":    "R. Ortega",
		"insuredName":     "M. Chen",
		"coverages": []map[string]any{
			{"name": "Dwelling", "limit": 250000, "deductible": 1000},
		},
		"roofInfo": map[string]any{"material": "laminated", "ageYears": 12, "squareCount": 28},
	}
	resp, raw := doJSON(t, http.MethodPut, ts.URL+"/v1/claims/claim-1", claim)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("put claim status = %d: %s", resp.StatusCode, raw)
	}

	resp, raw = doJSON(t, http.MethodGet, ts.URL+"/v1/claims/claim-1", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get claim status = %d: %s", resp.StatusCode, raw)
	}
	var got claimPayload
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode claim: %v", err)
	}
	if got.ClaimNumber != "CLM-2026-001" || got.PropertyAddress != "12 Elm St" {
		t.Fatalf("claim = %+v", got)
	}
	if len(got.Coverages) != 1 || got.Coverages[0].Name != "Dwelling" {
		t.Fatalf("coverages = %+v", got.Coverages)
	}
	if got.RoofInfo == nil || got.RoofInfo.Material != "laminated" {
		t.Fatalf("roof info = %+v", got.RoofInfo)
	}
}

func TestGetClaimNotFound(t *testing.T) {
	ts := newTestServer(t)
	resp, raw := doJSON(t, http.MethodGet, ts.URL+"/v1/claims/missing", nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
}

func TestExportBlockedWithoutClaim(t *testing.T) {
	ts := newTestServer(t)
	sessionID := startSession(t, ts, "claim-1", "hail")

	resp, raw := doJSON(t, http.MethodPost, ts.URL+"/v1/sessions/"+sessionID+"/export", nil)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("status = %d: %s", resp.StatusCode, raw)
	}
	if code := errorCode(t, raw); code != "EXPORT_BLOCKED" {
		t.Fatalf("code = %q", code)
	}
}
