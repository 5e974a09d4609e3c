/*
handlers.go - HTTP API handlers for the shift earnings service

PURPOSE:
  Exposes the earnings engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine and the store.

ENDPOINTS:
  Projects:
    GET    /api/projects                         List projects (?user_id=)
    POST   /api/projects                         Create project
    GET    /api/projects/{projectID}             Get project
    GET    /api/projects/{projectID}/profession  Get profession JSON
    PUT    /api/projects/{projectID}/profession  Replace profession from JSON

  Shifts:
    POST   /api/projects/{projectID}/shifts      Log a draft shift
    GET    /api/projects/{projectID}/shifts      List shifts
    GET    /api/shifts/{id}                      Get shift
    POST   /api/shifts/{id}/confirm              Confirm and calculate
    POST   /api/shifts/{id}/calculate            Calculate a confirmed shift
    GET    /api/shifts/{id}/earnings             Earnings rows, oldest first

  Export:
    GET    /api/projects/{projectID}/earnings.csv

  Pending shifts:
    PUT    /api/users/{userID}/pending           Stage a shift
    GET    /api/users/{userID}/pending           Show staged shift
    DELETE /api/users/{userID}/pending           Cancel staged shift
    POST   /api/users/{userID}/pending/confirm   Persist, confirm, calculate

  Scenarios:
    GET    /api/scenarios                        List demo scenarios
    POST   /api/scenarios/load                   Load a demo scenario
    POST   /api/reset                            Clear all data

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid input, invalid pay configuration
  - 404: Project, shift, profession or pending shift not found
  - 409: Shift status conflict (already calculated, not confirmed)
  - 500: Internal errors

SECURITY NOTE:
  No authentication. User IDs in paths are trusted.

SEE ALSO:
  - dto.go: Request/response data structures
  - export.go: CSV export
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/factory"
	"github.com/warp/shift-earnings/pending"
	"github.com/warp/shift-earnings/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       *sqlite.Store
	Engine      *earnings.Engine
	Ledger      *earnings.Ledger
	Professions *factory.ProfessionFactory
	Pending     *pending.Store
	Logger      *slog.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store and pending store.
func NewHandler(store *sqlite.Store, pendingStore *pending.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Store:       store,
		Engine:      earnings.NewEngine(store, logger),
		Ledger:      earnings.NewLedger(store),
		Professions: factory.NewProfessionFactory(),
		Pending:     pendingStore,
		Logger:      logger,
	}
}

// =============================================================================
// PROJECT HANDLERS
// =============================================================================

// ListProjects returns all projects, optionally filtered by ?user_id=.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.Store.ListProjects(r.Context(), r.URL.Query().Get("user_id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list projects", err)
		return
	}

	dtos := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		dtos[i] = toProjectDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProject returns a single project.
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeDomainError(w, "Failed to get project", err)
		return
	}
	writeJSON(w, http.StatusOK, toProjectDTO(*p))
}

// CreateProject creates a project, with a preset profession if requested.
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "Project name is required", nil)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}

	ctx := r.Context()
	project := sqlite.Project{
		ID:          req.ID,
		UserID:      req.UserID,
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
	}
	if err := h.Store.SaveProject(ctx, project); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create project", err)
		return
	}

	switch req.Preset {
	case "":
	case "operator":
		if err := h.saveProfessionJSON(ctx, earnings.ProjectID(project.ID), factory.OperatorJSON()); err != nil {
			writeDomainError(w, "Failed to create preset profession", err)
			return
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Unknown preset %q", req.Preset), nil)
		return
	}

	h.Logger.Info("project created", "project_id", project.ID, "user_id", project.UserID, "preset", req.Preset)
	writeJSON(w, http.StatusCreated, toProjectDTO(project))
}

// =============================================================================
// PROFESSION HANDLERS
// =============================================================================

// GetProfession returns the project's profession as JSON.
func (h *Handler) GetProfession(w http.ResponseWriter, r *http.Request) {
	projectID := earnings.ProjectID(chi.URLParam(r, "projectID"))

	prof, err := h.Store.GetProfessionByProject(r.Context(), projectID)
	if err != nil {
		writeDomainError(w, "Failed to get profession", err)
		return
	}
	writeJSON(w, http.StatusOK, h.Professions.ToJSON(prof))
}

// PutProfession replaces the project's profession.
func (h *Handler) PutProfession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := earnings.ProjectID(chi.URLParam(r, "projectID"))

	var pj factory.ProfessionJSON
	if err := json.NewDecoder(r.Body).Decode(&pj); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid profession JSON", err)
		return
	}
	if _, err := h.Store.GetProject(ctx, string(projectID)); err != nil {
		writeDomainError(w, "Failed to get project", err)
		return
	}

	prof, err := h.Professions.FromJSON(projectID, pj)
	if err != nil {
		writeDomainError(w, "Invalid profession", err)
		return
	}
	if err := h.Store.SaveProfession(ctx, *prof); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save profession", err)
		return
	}

	h.Logger.Info("profession saved", "project_id", projectID, "profession_id", prof.ID)
	writeJSON(w, http.StatusOK, h.Professions.ToJSON(prof))
}

func (h *Handler) saveProfessionJSON(ctx context.Context, projectID earnings.ProjectID, js string) error {
	prof, err := h.Professions.ParseProfession(projectID, js)
	if err != nil {
		return err
	}
	return h.Store.SaveProfession(ctx, *prof)
}

// =============================================================================
// SHIFT HANDLERS
// =============================================================================

// CreateShift logs a draft shift for a project.
func (h *Handler) CreateShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := chi.URLParam(r, "projectID")

	var req CreateShiftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := h.Store.GetProject(ctx, projectID); err != nil {
		writeDomainError(w, "Failed to get project", err)
		return
	}

	shift, err := buildShift(earnings.ProjectID(projectID), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift", err)
		return
	}

	id, err := h.Store.CreateShift(ctx, shift)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create shift", err)
		return
	}
	stored, err := h.Store.GetShift(ctx, id)
	if err != nil {
		writeDomainError(w, "Failed to load shift", err)
		return
	}

	writeJSON(w, http.StatusCreated, toShiftDTO(*stored))
}

// ListShifts returns a project's shifts, newest first.
func (h *Handler) ListShifts(w http.ResponseWriter, r *http.Request) {
	shifts, err := h.Store.ListShifts(r.Context(), earnings.ProjectID(chi.URLParam(r, "projectID")))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}

	dtos := make([]ShiftDTO, len(shifts))
	for i, s := range shifts {
		dtos[i] = toShiftDTO(s)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetShift returns a single shift.
func (h *Handler) GetShift(w http.ResponseWriter, r *http.Request) {
	shift, err := h.Store.GetShift(r.Context(), earnings.ShiftID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to get shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftDTO(*shift))
}

// ConfirmShift confirms a draft shift and calculates its earnings. If the
// calculation fails the shift stays a draft.
func (h *Handler) ConfirmShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	b, err := h.Engine.ConfirmAndCalculate(ctx, earnings.ShiftID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to confirm shift", err)
		return
	}

	resp, err := h.calculatedResponse(ctx, b)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load shift", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// CalculateShift calculates a shift that is already confirmed.
func (h *Handler) CalculateShift(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	b, err := h.Engine.Calculate(ctx, earnings.ShiftID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, "Failed to calculate shift", err)
		return
	}

	resp, err := h.calculatedResponse(ctx, b)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load shift", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) calculatedResponse(ctx context.Context, b *earnings.Breakdown) (*ConfirmedShiftResponse, error) {
	shift, err := h.Store.GetShift(ctx, b.ShiftID)
	if err != nil {
		return nil, err
	}
	return &ConfirmedShiftResponse{
		Shift:    toShiftDTO(*shift),
		Earnings: toBreakdownDTO(*b),
	}, nil
}

// GetShiftEarnings returns every earnings row of a shift.
func (h *Handler) GetShiftEarnings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := earnings.ShiftID(chi.URLParam(r, "id"))

	if _, err := h.Store.GetShift(ctx, id); err != nil {
		writeDomainError(w, "Failed to get shift", err)
		return
	}

	history, err := h.Ledger.History(ctx, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list earnings", err)
		return
	}

	dtos := make([]BreakdownDTO, len(history))
	for i, b := range history {
		dtos[i] = toBreakdownDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// buildShift turns a request into a draft shift. Total hours are derived
// from the clock times when not given.
func buildShift(projectID earnings.ProjectID, req CreateShiftRequest) (earnings.Shift, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return earnings.Shift{}, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}

	shift := earnings.Shift{
		ProjectID:       projectID,
		Date:            date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		IsExpenseDay:    req.IsExpenseDay,
		Status:          earnings.StatusDraft,
		OriginalMessage: req.OriginalMessage,
	}

	switch {
	case req.TotalHours != nil:
		shift.TotalHours = *req.TotalHours
	case req.StartTime != "" && req.EndTime != "":
		if shift.TotalHours, err = earnings.WorkedHours(req.StartTime, req.EndTime); err != nil {
			return earnings.Shift{}, err
		}
	default:
		return earnings.Shift{}, errors.New("total_hours or start_time and end_time are required")
	}
	if shift.TotalHours < 0 {
		return earnings.Shift{}, fmt.Errorf("total_hours must not be negative, got %v", shift.TotalHours)
	}

	if req.Mentions != nil {
		if shift.MentionsJSON, err = earnings.EncodeMentions(*req.Mentions); err != nil {
			return earnings.Shift{}, err
		}
	}
	for _, id := range req.Meals {
		shift.Meals = append(shift.Meals, earnings.MealTypeID(id))
	}
	for _, id := range req.Services {
		shift.AttachedServices = append(shift.AttachedServices, earnings.ServiceID(id))
	}
	return shift, nil
}

// =============================================================================
// PENDING SHIFT HANDLERS
// =============================================================================

// PutPending stages a shift for the user until it is confirmed or expires.
func (h *Handler) PutPending(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req PutPendingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if _, err := h.Store.GetProject(r.Context(), req.ProjectID); err != nil {
		writeDomainError(w, "Failed to get project", err)
		return
	}

	shift, err := buildShift(earnings.ProjectID(req.ProjectID), req.Shift)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid shift", err)
		return
	}

	entry := h.Pending.Put(userID, shift)
	writeJSON(w, http.StatusOK, toPendingDTO(entry))
}

// GetPending returns the user's staged shift.
func (h *Handler) GetPending(w http.ResponseWriter, r *http.Request) {
	entry, err := h.Pending.Get(chi.URLParam(r, "userID"))
	if err != nil {
		writeDomainError(w, "No pending shift", err)
		return
	}
	writeJSON(w, http.StatusOK, toPendingDTO(entry))
}

// CancelPending discards the user's staged shift.
func (h *Handler) CancelPending(w http.ResponseWriter, r *http.Request) {
	if err := h.Pending.Cancel(chi.URLParam(r, "userID")); err != nil {
		writeDomainError(w, "No pending shift", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ConfirmPending persists the staged shift as confirmed and calculates it.
// The staged shift is only released once both have committed; on failure
// it stays pending and nothing is written.
func (h *Handler) ConfirmPending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := chi.URLParam(r, "userID")

	entry, err := h.Pending.Get(userID)
	if err != nil {
		writeDomainError(w, "No pending shift", err)
		return
	}

	b, err := h.Engine.SubmitAndCalculate(ctx, entry.Shift)
	if err != nil {
		writeDomainError(w, "Failed to confirm pending shift", err)
		return
	}
	h.Pending.Release(userID, entry.ID)

	resp, err := h.calculatedResponse(ctx, b)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

// =============================================================================
// ADMIN
// =============================================================================

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine and store errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	resp := ErrorResponse{Error: message, Details: err.Error()}

	status := http.StatusInternalServerError
	switch {
	case earnings.IsNotFound(err):
		status = http.StatusNotFound
		resp.Code = "not_found"
	case errors.Is(err, pending.ErrNoPending):
		status = http.StatusNotFound
		resp.Code = "no_pending"
	case errors.Is(err, earnings.ErrAlreadyCalculated):
		status = http.StatusConflict
		resp.Code = "already_calculated"
	case earnings.IsConflict(err):
		status = http.StatusConflict
		resp.Code = "invalid_transition"
	case errors.Is(err, earnings.ErrInvalidConfiguration):
		status = http.StatusBadRequest
		resp.Code = "invalid_configuration"
		var cfgErr *earnings.ConfigError
		if errors.As(err, &cfgErr) {
			resp.Details = map[string]string{"field": cfgErr.Field, "reason": cfgErr.Reason}
		}
	}
	writeJSON(w, status, resp)
}
