package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/openclaims/fieldgate/internal/inspection/domain"
	"github.com/openclaims/fieldgate/internal/inspection/service"
	"github.com/openclaims/fieldgate/internal/inspection/workflow"
	"github.com/openclaims/fieldgate/internal/platform/timeouts"
)

func registerSessionTools(mcpServer *mcp.Server, svc *service.Service) {
	mcp.AddTool(mcpServer, SessionStartTool(), SessionStartHandler(svc))
	mcp.AddTool(mcpServer, WorkflowStateTool(), WorkflowStateHandler(svc))
}

func registerWorkflowTools(mcpServer *mcp.Server, svc *service.Service) {
	mcp.AddTool(mcpServer, ToolExecuteTool(), ToolExecuteHandler(svc))
	mcp.AddTool(mcpServer, GatesRunTool(), GatesRunHandler(svc))
}

func registerClaimTools(mcpServer *mcp.Server, svc *service.Service) {
	mcp.AddTool(mcpServer, ClaimPutTool(), ClaimPutHandler(svc))
}

func registerExportTools(mcpServer *mcp.Server, svc *service.Service) {
	mcp.AddTool(mcpServer, ExportPackageTool(), ExportPackageHandler(svc))
}

// SessionStartInput represents the MCP tool input for starting an inspection
// session.
type SessionStartInput struct {
	ClaimID string `json:"claim_id" jsonschema:"claim identifier the inspection collects data for"`
	Peril   string `json:"peril,omitempty" jsonschema:"cause of loss (wind, hail, water, fire, other)"`
}

// SessionStartResult represents the MCP tool output for starting an
// inspection session.
type SessionStartResult struct {
	SessionID string `json:"session_id" jsonschema:"inspection session identifier"`
	ClaimID   string `json:"claim_id" jsonschema:"claim identifier"`
	Peril     string `json:"peril" jsonschema:"cause of loss"`
	Phase     string `json:"phase" jsonschema:"current workflow phase"`
	StepID    string `json:"step_id" jsonschema:"current workflow step"`
	Version   int64  `json:"version" jsonschema:"workflow state version"`
}

// SessionStartTool defines the MCP tool schema for starting a session.
func SessionStartTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "inspection_session_start",
		Description: "Starts a field inspection session for a claim. The session begins in the briefing phase.",
	}
}

// SessionStartHandler executes a session start request.
func SessionStartHandler(svc *service.Service) mcp.ToolHandlerFor[SessionStartInput, SessionStartResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SessionStartInput) (*mcp.CallToolResult, SessionStartResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.ToolExecution)
		defer cancel()

		session, state, err := svc.StartSession(runCtx, service.StartSessionInput{
			ClaimID: input.ClaimID,
			Peril:   domain.Peril(input.Peril),
		})
		if err != nil {
			return nil, SessionStartResult{}, fmt.Errorf("session start failed: %w", err)
		}

		return nil, SessionStartResult{
			SessionID: session.ID,
			ClaimID:   session.ClaimID,
			Peril:     string(session.Peril),
			Phase:     string(state.Phase),
			StepID:    state.StepID,
			Version:   state.Version,
		}, nil
	}
}

// WorkflowStateInput represents the MCP tool input for reading workflow
// state.
type WorkflowStateInput struct {
	SessionID string `json:"session_id" jsonschema:"inspection session identifier"`
}

// WorkflowContextInfo is the working context slice of the workflow state.
type WorkflowContextInfo struct {
	RoomID      string `json:"room_id,omitempty" jsonschema:"current room identifier"`
	ElevationID string `json:"elevation_id,omitempty" jsonschema:"current elevation identifier"`
	CurrentView string `json:"current_view,omitempty" jsonschema:"interior or exterior"`
}

// ToolErrorInfo is the last recorded tool failure for a session.
type ToolErrorInfo struct {
	Tool    string `json:"tool" jsonschema:"tool name"`
	Code    string `json:"code" jsonschema:"failure code"`
	Message string `json:"message" jsonschema:"failure message"`
}

// WorkflowStateResult represents the MCP tool output for reading workflow
// state.
type WorkflowStateResult struct {
	SessionID     string              `json:"session_id" jsonschema:"inspection session identifier"`
	Phase         string              `json:"phase" jsonschema:"current workflow phase"`
	StepID        string              `json:"step_id" jsonschema:"current workflow step"`
	Context       WorkflowContextInfo `json:"context" jsonschema:"current working context"`
	AllowedTools  []string            `json:"allowed_tools" jsonschema:"tools permitted in the current phase"`
	LastToolError *ToolErrorInfo      `json:"last_tool_error,omitempty" jsonschema:"most recent tool failure, if any"`
	Version       int64               `json:"version" jsonschema:"workflow state version"`
}

// WorkflowStateTool defines the MCP tool schema for reading workflow state.
func WorkflowStateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "inspection_workflow_state",
		Description: "Reads the workflow state for an inspection session: phase, step, working context, and the tools currently permitted.",
	}
}

// WorkflowStateHandler executes a workflow state read.
func WorkflowStateHandler(svc *service.Service) mcp.ToolHandlerFor[WorkflowStateInput, WorkflowStateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WorkflowStateInput) (*mcp.CallToolResult, WorkflowStateResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.ToolExecution)
		defer cancel()

		state, err := svc.GetWorkflowState(runCtx, input.SessionID)
		if err != nil {
			return nil, WorkflowStateResult{}, fmt.Errorf("workflow state read failed: %w", err)
		}

		result := WorkflowStateResult{
			SessionID: state.SessionID,
			Phase:     string(state.Phase),
			StepID:    state.StepID,
			Context: WorkflowContextInfo{
				RoomID:      state.Context.RoomID,
				ElevationID: state.Context.ElevationID,
				CurrentView: state.Context.CurrentView,
			},
			AllowedTools: workflow.AllowedTools(state.Phase),
			Version:      state.Version,
		}
		if state.LastToolError != nil {
			result.LastToolError = &ToolErrorInfo{
				Tool:    state.LastToolError.Tool,
				Code:    state.LastToolError.Code,
				Message: state.LastToolError.Message,
			}
		}
		return nil, result, nil
	}
}

// ToolExecuteInput represents the MCP tool input for executing a workflow
// tool.
type ToolExecuteInput struct {
	SessionID string         `json:"session_id" jsonschema:"inspection session identifier"`
	Tool      string         `json:"tool" jsonschema:"workflow tool name (add_room, add_damage, advance_phase, ...)"`
	Arguments map[string]any `json:"arguments,omitempty" jsonschema:"tool argument bag"`
}

// ToolFailureInfo is a workflow rejection surfaced to the MCP client.
type ToolFailureInfo struct {
	Code         string   `json:"code" jsonschema:"rejection code"`
	Message      string   `json:"message" jsonschema:"rejection message"`
	Hint         string   `json:"hint,omitempty" jsonschema:"how to proceed"`
	AllowedTools []string `json:"allowed_tools,omitempty" jsonschema:"tools permitted in the current phase"`
}

// ToolExecuteResult represents the MCP tool output for executing a workflow
// tool. Failure carries workflow rejections; the session stays healthy and
// the client is told how to proceed.
type ToolExecuteResult struct {
	Output  json.RawMessage  `json:"output,omitempty" jsonschema:"tool output payload"`
	Failure *ToolFailureInfo `json:"failure,omitempty" jsonschema:"workflow rejection, if the call was not permitted"`
	Phase   string           `json:"phase" jsonschema:"workflow phase after the call"`
	StepID  string           `json:"step_id" jsonschema:"workflow step after the call"`
	Version int64            `json:"version" jsonschema:"workflow state version after the call"`
}

// ToolExecuteTool defines the MCP tool schema for executing a workflow tool.
func ToolExecuteTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "inspection_tool_execute",
		Description: "Executes one workflow tool for an inspection session. Calls outside the current phase are rejected with a hint instead of failing the session.",
	}
}

// ToolExecuteHandler executes a workflow tool call.
func ToolExecuteHandler(svc *service.Service) mcp.ToolHandlerFor[ToolExecuteInput, ToolExecuteResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ToolExecuteInput) (*mcp.CallToolResult, ToolExecuteResult, error) {
		var args json.RawMessage
		if input.Arguments != nil {
			raw, err := json.Marshal(input.Arguments)
			if err != nil {
				return nil, ToolExecuteResult{}, fmt.Errorf("encode tool arguments: %w", err)
			}
			args = raw
		}

		runCtx, cancel := context.WithTimeout(ctx, timeouts.ToolExecution)
		defer cancel()

		result, err := svc.ExecuteTool(runCtx, input.SessionID, input.Tool, args)
		if err != nil {
			return nil, ToolExecuteResult{}, fmt.Errorf("tool execution failed: %w", err)
		}

		out := ToolExecuteResult{
			Phase:   string(result.State.Phase),
			StepID:  result.State.StepID,
			Version: result.State.Version,
		}
		if result.Output != nil {
			raw, err := json.Marshal(result.Output)
			if err != nil {
				return nil, ToolExecuteResult{}, fmt.Errorf("encode tool output: %w", err)
			}
			out.Output = raw
		}
		if result.Failure != nil {
			out.Failure = &ToolFailureInfo{
				Code:         result.Failure.Code,
				Message:      result.Failure.Message,
				Hint:         result.Failure.Hint,
				AllowedTools: result.Failure.AllowedTools,
			}
		}
		return nil, out, nil
	}
}

// GatesRunInput represents the MCP tool input for a gate run.
type GatesRunInput struct {
	SessionID string `json:"session_id" jsonschema:"inspection session identifier"`
}

// GateIssueInfo is one severity-tagged finding from a gate run.
type GateIssueInfo struct {
	Severity   string `json:"severity" jsonschema:"BLOCKER, WARNING, or INFO"`
	Code       string `json:"code" jsonschema:"issue code"`
	Message    string `json:"message" jsonschema:"issue message"`
	Suggestion string `json:"suggestion,omitempty" jsonschema:"suggested fix"`
}

// GateReport is the outcome of one gate evaluation.
type GateReport struct {
	OK       bool            `json:"ok" jsonschema:"true when the gate produced no blockers"`
	Blockers int             `json:"blockers" jsonschema:"blocker count"`
	Warnings int             `json:"warnings" jsonschema:"warning count"`
	Infos    int             `json:"infos" jsonschema:"info count"`
	Issues   []GateIssueInfo `json:"issues,omitempty" jsonschema:"individual findings"`
}

// GatesRunResult represents the MCP tool output for a gate run.
type GatesRunResult struct {
	Gates map[string]GateReport `json:"gates" jsonschema:"gate results keyed by gate name"`
	OK    bool                  `json:"ok" jsonschema:"true when every gate passed"`
}

// GatesRunTool defines the MCP tool schema for a gate run.
func GatesRunTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "inspection_gates_run",
		Description: "Runs all completeness gates for an inspection session and records the summary on the workflow state.",
	}
}

// GatesRunHandler executes a full gate run.
func GatesRunHandler(svc *service.Service) mcp.ToolHandlerFor[GatesRunInput, GatesRunResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input GatesRunInput) (*mcp.CallToolResult, GatesRunResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.GateEvaluation)
		defer cancel()

		results, err := svc.RunGates(runCtx, input.SessionID)
		if err != nil {
			return nil, GatesRunResult{}, fmt.Errorf("gate run failed: %w", err)
		}

		out := GatesRunResult{Gates: make(map[string]GateReport, len(results)), OK: true}
		for name, result := range results {
			report := GateReport{
				OK:       result.OK,
				Blockers: result.Summary.Blockers,
				Warnings: result.Summary.Warnings,
				Infos:    result.Summary.Infos,
			}
			for _, issue := range result.Issues {
				report.Issues = append(report.Issues, GateIssueInfo{
					Severity:   string(issue.Severity),
					Code:       issue.Code,
					Message:    issue.Message,
					Suggestion: issue.Suggestion,
				})
			}
			out.Gates[string(name)] = report
			if !result.OK {
				out.OK = false
			}
		}
		return nil, out, nil
	}
}

// ClaimCoverageInput is one coverage line on a claim.
type ClaimCoverageInput struct {
	Name       string  `json:"name" jsonschema:"coverage name"`
	Limit      float64 `json:"limit" jsonschema:"coverage limit"`
	Deductible float64 `json:"deductible" jsonschema:"coverage deductible"`
}

// ClaimRoofInput is the roof block of a claim.
type ClaimRoofInput struct {
	Material    string  `json:"material" jsonschema:"roof material"`
	AgeYears    float64 `json:"age_years" jsonschema:"roof age in years"`
	SquareCount float64 `json:"square_count" jsonschema:"roof size in squares"`
	Pitch       string  `json:"pitch,omitempty" jsonschema:"roof pitch"`
}

// ClaimPutInput represents the MCP tool input for storing a claim header.
type ClaimPutInput struct {
	ClaimID         string               `json:"claim_id" jsonschema:"claim identifier"`
	ClaimNumber     string               `json:"claim_number" jsonschema:"carrier claim number"`
	PolicyNumber    string               `json:"policy_number,omitempty" jsonschema:"policy number"`
	PropertyAddress string               `json:"property_address" jsonschema:"loss location address"`
	DateOfLoss      string               `json:"date_of_loss,omitempty" jsonschema:"date of loss (YYYY-MM-DD)"`
	Peril           string               `json:"peril,omitempty" jsonschema:"cause of loss"`
	AdjusterName    string               `json:"adjuster_name,omitempty" jsonschema:"adjuster name"`
	InsuredName     string               `json:"insured_name,omitempty" jsonschema:"insured name"`
	Coverages       []ClaimCoverageInput `json:"coverages,omitempty" jsonschema:"policy coverage lines"`
	RoofInfo        *ClaimRoofInput      `json:"roof_info,omitempty" jsonschema:"roof characteristics"`
}

// ClaimPutResult represents the MCP tool output for storing a claim header.
type ClaimPutResult struct {
	ClaimID string `json:"claim_id" jsonschema:"claim identifier"`
}

// ClaimPutTool defines the MCP tool schema for storing a claim header.
func ClaimPutTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "inspection_claim_put",
		Description: "Stores claim header data referenced by inspection sessions and the export package.",
	}
}

// ClaimPutHandler executes a claim header write.
func ClaimPutHandler(svc *service.Service) mcp.ToolHandlerFor[ClaimPutInput, ClaimPutResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ClaimPutInput) (*mcp.CallToolResult, ClaimPutResult, error) {
		claim := domain.Claim{
			ID:              input.ClaimID,
			ClaimNumber:     input.ClaimNumber,
			PolicyNumber:    input.PolicyNumber,
			PropertyAddress: input.PropertyAddress,
			Peril:           domain.Peril(input.Peril),
			AdjusterName:    input.AdjusterName,
			InsuredName:     input.InsuredName,
		}
		if input.DateOfLoss != "" {
			dateOfLoss, err := time.Parse("2006-01-02", input.DateOfLoss)
			if err != nil {
				return nil, ClaimPutResult{}, fmt.Errorf("date_of_loss is not YYYY-MM-DD: %w", err)
			}
			claim.DateOfLoss = dateOfLoss
		}
		for _, c := range input.Coverages {
			claim.Coverages = append(claim.Coverages, domain.Coverage{
				Name:       c.Name,
				Limit:      c.Limit,
				Deductible: c.Deductible,
			})
		}
		if input.RoofInfo != nil {
			claim.RoofInfo = &domain.RoofInfo{
				Material:    input.RoofInfo.Material,
				AgeYears:    input.RoofInfo.AgeYears,
				SquareCount: input.RoofInfo.SquareCount,
				Pitch:       input.RoofInfo.Pitch,
			}
		}

		runCtx, cancel := context.WithTimeout(ctx, timeouts.ToolExecution)
		defer cancel()

		if err := svc.PutClaim(runCtx, claim); err != nil {
			return nil, ClaimPutResult{}, fmt.Errorf("claim put failed: %w", err)
		}
		return nil, ClaimPutResult{ClaimID: claim.ID}, nil
	}
}

// ExportPackageInput represents the MCP tool input for building an export
// package.
type ExportPackageInput struct {
	SessionID string `json:"session_id" jsonschema:"inspection session identifier"`
}

// ExportPackageResult represents the MCP tool output for building an export
// package.
type ExportPackageResult struct {
	Package  json.RawMessage `json:"package" jsonschema:"export package envelope"`
	Summary  string          `json:"summary" jsonschema:"validation summary"`
	Warnings []string        `json:"warnings,omitempty" jsonschema:"non-blocking validation warnings"`
	GateOK   bool            `json:"gate_ok" jsonschema:"true when the export gate passed"`
}

// ExportPackageTool defines the MCP tool schema for building an export
// package.
func ExportPackageTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "inspection_export_package",
		Description: "Runs the export gate and compliance validation for a session and, when both pass, returns the assembled export package.",
	}
}

// ExportPackageHandler executes an export package build.
func ExportPackageHandler(svc *service.Service) mcp.ToolHandlerFor[ExportPackageInput, ExportPackageResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ExportPackageInput) (*mcp.CallToolResult, ExportPackageResult, error) {
		runCtx, cancel := context.WithTimeout(ctx, timeouts.GateEvaluation)
		defer cancel()

		artifact, err := svc.ExportPackage(runCtx, input.SessionID)
		if err != nil {
			return nil, ExportPackageResult{}, fmt.Errorf("export failed: %w", err)
		}

		raw, err := artifact.Package.Marshal()
		if err != nil {
			return nil, ExportPackageResult{}, fmt.Errorf("encode export package: %w", err)
		}
		return nil, ExportPackageResult{
			Package:  raw,
			Summary:  artifact.Validation.Summary,
			Warnings: artifact.Validation.Warnings,
			GateOK:   artifact.GateResult.OK,
		}, nil
	}
}
