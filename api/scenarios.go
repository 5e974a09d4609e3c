/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
	Provides pre-built scenarios that populate the database with realistic
	data for demos. Each scenario creates a project, its profession and a
	few shifts, and calculates the confirmed ones through the engine.

AVAILABLE SCENARIOS:

	reference-shift:  16h shift with lunch on the operator preset
	expense-week:     Five days with per-diem, mentioned services, a draft
	                  shift and a pending shift
	flat-rate:        Profession without brackets, overtime at base rate

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create project and profession via factory presets
 3. Create shifts
 4. Calculate the confirmed ones

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "expense-week"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - factory/presets.go: Profession JSON definitions
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/factory"
	"github.com/warp/shift-earnings/store/sqlite"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "reference-shift",
		Name:        "Reference Shift",
		Description: "16h shift with lunch: base pay, two overtime tiers and a meal bonus",
	},
	{
		ID:          "expense-week",
		Name:        "Expense Week",
		Description: "Five shooting days with per-diem and services, plus a draft and a pending shift",
	},
	{
		ID:          "flat-rate",
		Name:        "Flat Rate",
		Description: "No progressive rates: all overtime is paid at the base overtime rate",
	},
}

const demoUserID = "user-demo"

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "reference-shift":
		load = h.loadReferenceShiftScenario
	case "expense-week":
		load = h.loadExpenseWeekScenario
	case "flat-rate":
		load = h.loadFlatRateScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.currentScenario = req.ScenarioID

	h.Logger.Info("scenario loaded", "scenario", req.ScenarioID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadReferenceShiftScenario(ctx context.Context) error {
	if err := h.createDemoProject(ctx, "proj-feature", "Feature film", factory.OperatorJSON()); err != nil {
		return err
	}

	shift := demoShift("proj-feature", demoDate(0), "08:00", "00:00")
	shift.Meals = []earnings.MealTypeID{"meal-lunch"}
	shift.OriginalMessage = "08:00-00:00, lunch"
	return h.seedShift(ctx, shift, true)
}

func (h *Handler) loadExpenseWeekScenario(ctx context.Context) error {
	if err := h.createDemoProject(ctx, "proj-location", "Location shoot", factory.OperatorJSON()); err != nil {
		return err
	}

	days := []struct {
		start, end string
		mentions   earnings.Mentions
	}{
		{"07:00", "19:00", earnings.Mentions{}},
		{"07:00", "21:30", earnings.Mentions{Meals: []string{"lunch"}}},
		{"06:00", "23:00", earnings.Mentions{Services: []string{"camera car"}}},
		{"08:00", "20:15", earnings.Mentions{Services: []string{"ronin", "camera car"}}},
		{"09:00", "02:00", earnings.Mentions{Meals: []string{"Lunch"}, Services: []string{"Ronin"}}},
	}

	for i, d := range days {
		shift := demoShift("proj-location", demoDate(i), d.start, d.end)
		shift.IsExpenseDay = true
		mentions, err := earnings.EncodeMentions(d.mentions)
		if err != nil {
			return err
		}
		shift.MentionsJSON = mentions
		if err := h.seedShift(ctx, shift, true); err != nil {
			return fmt.Errorf("day %d: %w", i+1, err)
		}
	}

	// Logged but not confirmed yet.
	draft := demoShift("proj-location", demoDate(len(days)), "07:00", "18:00")
	if err := h.seedShift(ctx, draft, false); err != nil {
		return err
	}

	// Parsed from a chat message, waiting for the user.
	staged := demoShift("proj-location", demoDate(len(days)+1), "07:00", "22:00")
	staged.OriginalMessage = "tomorrow 7-22 with lunch"
	staged.TotalHours = 15
	staged.Meals = []earnings.MealTypeID{"meal-lunch"}
	h.Pending.Put(demoUserID, staged)
	return nil
}

func (h *Handler) loadFlatRateScenario(ctx context.Context) error {
	if err := h.createDemoProject(ctx, "proj-commercial", "Commercial", factory.FlatRateJSON("Driver", 6000, 350, 13)); err != nil {
		return err
	}

	for i, hours := range []float64{9, 12.5, 14} {
		shift := demoShift("proj-commercial", demoDate(i), "", "")
		shift.TotalHours = hours
		if err := h.seedShift(ctx, shift, true); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) createDemoProject(ctx context.Context, id, name, professionJSON string) error {
	project := sqlite.Project{ID: id, UserID: demoUserID, Name: name, IsActive: true}
	if err := h.Store.SaveProject(ctx, project); err != nil {
		return err
	}
	return h.saveProfessionJSON(ctx, earnings.ProjectID(id), professionJSON)
}

// seedShift stores a shift and, when calculate is set, confirms and
// calculates it.
func (h *Handler) seedShift(ctx context.Context, shift earnings.Shift, calculate bool) error {
	if shift.TotalHours == 0 && shift.StartTime != "" {
		hours, err := earnings.WorkedHours(shift.StartTime, shift.EndTime)
		if err != nil {
			return err
		}
		shift.TotalHours = hours
	}

	if !calculate {
		_, err := h.Store.CreateShift(ctx, shift)
		return err
	}
	_, err := h.Engine.SubmitAndCalculate(ctx, shift)
	return err
}

func demoShift(projectID earnings.ProjectID, date time.Time, start, end string) earnings.Shift {
	return earnings.Shift{
		ProjectID: projectID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    earnings.StatusDraft,
	}
}

// demoDate returns the i-th day of the current week, starting Monday.
func demoDate(i int) time.Time {
	now := time.Now().UTC()
	monday := now.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))
	return time.Date(monday.Year(), monday.Month(), monday.Day()+i, 0, 0, 0, 0, time.UTC)
}
