package httptransport

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"pathfinder/internal/domain"
	"pathfinder/internal/pipeline"
	"pathfinder/internal/platform/middleware"
	"pathfinder/internal/policy"
	"pathfinder/internal/requirement"
	"pathfinder/internal/storage"
	"pathfinder/pkg/email"
	"pathfinder/pkg/platform/sentinel"
)

// Handler is the thin tool-invocation layer. It decodes requests, consults
// the policy engine before every mutation, and delegates to domain services
// without embedding business logic. The hard contract: canAccess first
// (denial means no mutation), then for status changes the transition check,
// then the store.
type Handler struct {
	engine       *policy.Engine
	requirements *requirement.Service
	orchestrator *pipeline.Orchestrator
	scouts       storage.ScoutStore
	logger       *slog.Logger
}

func NewHandler(engine *policy.Engine, requirements *requirement.Service, orchestrator *pipeline.Orchestrator, scouts storage.ScoutStore, logger *slog.Logger) (*Handler, error) {
	if engine == nil {
		return nil, fmt.Errorf("policy engine is required")
	}
	if requirements == nil {
		return nil, fmt.Errorf("requirement service is required")
	}
	if orchestrator == nil {
		return nil, fmt.Errorf("pipeline orchestrator is required")
	}
	if scouts == nil {
		return nil, fmt.Errorf("scout store is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		engine:       engine,
		requirements: requirements,
		orchestrator: orchestrator,
		scouts:       scouts,
		logger:       logger,
	}, nil
}

type statusChangeRequest struct {
	ScoutEmail    string `json:"scout_email"`
	RequirementID string `json:"requirement_id"`
	Status        string `json:"status"`
}

type overrideRequest struct {
	statusChangeRequest
	Reason string `json:"reason"`
}

type requirementResponse struct {
	ScoutEmail    string   `json:"scout_email"`
	RequirementID string   `json:"requirement_id"`
	Status        string   `json:"status"`
	Notes         []string `json:"notes,omitempty"`
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req statusChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := domain.ParseRequirementStatus(req.Status)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if !h.authorize(r, policy.ActionUpdateRequirementState, req.ScoutEmail) {
		h.writeDenied(w, policy.ActionUpdateRequirementState)
		return
	}

	updated, err := h.requirements.UpdateStatus(r.Context(), req.ScoutEmail, req.RequirementID, status)
	if err != nil {
		h.writeRequirementError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequirementResponse(updated))
}

func (h *Handler) handleOverrideStatus(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	status, err := domain.ParseRequirementStatus(req.Status)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Reason == "" {
		writeJSONError(w, http.StatusBadRequest, "override reason is required")
		return
	}

	if !h.authorize(r, policy.ActionOverrideStatus, req.ScoutEmail) {
		h.writeDenied(w, policy.ActionOverrideStatus)
		return
	}

	updated, err := h.requirements.OverrideStatus(r.Context(), req.ScoutEmail, req.RequirementID, status, req.Reason)
	if err != nil {
		h.writeRequirementError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRequirementResponse(updated))
}

type addScoutRequest struct {
	Email       string `json:"email"`
	Name        string `json:"name,omitempty"`
	Troop       string `json:"troop"`
	ParentEmail string `json:"parent_email,omitempty"`
}

func (h *Handler) handleAddScout(w http.ResponseWriter, r *http.Request) {
	var req addScoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		writeJSONError(w, http.StatusBadRequest, "scout email is required")
		return
	}
	if req.Troop == "" {
		writeJSONError(w, http.StatusBadRequest, "troop is required")
		return
	}

	// The troop claim comes from the request: an admin may only add scouts
	// into their own troop.
	roles := middleware.Roles(r.Context())
	if !h.engine.CanAccess(roles, policy.ActionAddScout, policy.Context{
		Troop:           req.Troop,
		ScoutEmail:      req.Email,
		ActingUserEmail: middleware.Email(r.Context()),
	}) {
		h.writeDenied(w, policy.ActionAddScout)
		return
	}

	scout := domain.Scout{
		Email:       req.Email,
		Name:        req.Name,
		Troop:       req.Troop,
		ParentEmail: req.ParentEmail,
	}
	if scout.Name == "" {
		scout.Name = email.DeriveName(scout.Email)
	}

	if err := h.scouts.SaveScout(r.Context(), scout); err != nil {
		h.logger.ErrorContext(r.Context(), "scout save failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusCreated, scout)
}

func (h *Handler) handleGetScout(w http.ResponseWriter, r *http.Request) {
	email := chi.URLParam(r, "email")

	if !h.authorize(r, policy.ActionGetScout, email) {
		h.writeDenied(w, policy.ActionGetScout)
		return
	}

	scout, err := h.scouts.FindByEmail(r.Context(), email)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, http.StatusNotFound, "scout not found")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "scout lookup failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, scout)
}

func (h *Handler) handleRunPipeline(w http.ResponseWriter, r *http.Request) {
	roles := middleware.Roles(r.Context())
	if !h.engine.CanAccess(roles, policy.ActionRunPipeline, policy.Context{
		ActingUserEmail: middleware.Email(r.Context()),
	}) {
		h.writeDenied(w, policy.ActionRunPipeline)
		return
	}

	summary, err := h.orchestrator.Run(r.Context())
	if errors.Is(err, sentinel.ErrRunInProgress) {
		writeJSONError(w, http.StatusConflict, "a pipeline run is already in progress")
		return
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "pipeline run failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "pipeline run failed")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// authorize evaluates the caller's role snapshot for one scout-scoped action.
// The troop claim comes from the target scout's profile when it resolves;
// a missing scout simply leaves the troop restriction empty.
func (h *Handler) authorize(r *http.Request, action policy.Action, scoutEmail string) bool {
	ctx := policy.Context{
		ScoutEmail:      scoutEmail,
		ActingUserEmail: middleware.Email(r.Context()),
	}
	if scout, err := h.scouts.FindByEmail(r.Context(), scoutEmail); err == nil {
		ctx.Troop = scout.Troop
	}
	return h.engine.CanAccess(middleware.Roles(r.Context()), action, ctx)
}

func (h *Handler) writeDenied(w http.ResponseWriter, action policy.Action) {
	writeJSONError(w, http.StatusForbidden, fmt.Sprintf("action %q denied: no role authorizes it", action))
}

func (h *Handler) writeRequirementError(w http.ResponseWriter, r *http.Request, err error) {
	var illegal *requirement.IllegalTransitionError
	switch {
	case errors.As(err, &illegal):
		writeJSONError(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("cannot move requirement from %q to %q: transition not allowed", illegal.From, illegal.To))
	case errors.Is(err, storage.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, "requirement not found")
	default:
		h.logger.ErrorContext(r.Context(), "requirement update failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "store unavailable")
	}
}

func toRequirementResponse(req domain.Requirement) requirementResponse {
	return requirementResponse{
		ScoutEmail:    req.ScoutEmail,
		RequirementID: req.RequirementID,
		Status:        req.Status.String(),
		Notes:         req.Notes,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
