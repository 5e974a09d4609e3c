/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Project:    ProjectDTO, CreateProjectRequest
  Shift:      ShiftDTO, CreateShiftRequest
  Earnings:   BreakdownDTO, EarningsCSVRow
  Pending:    PendingDTO
  Scenarios:  ScenarioDTO, LoadScenarioRequest

  Professions use factory.ProfessionJSON directly.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/profession.go: ProfessionJSON type
*/
package api

import (
	"time"

	"github.com/warp/shift-earnings/earnings"
	"github.com/warp/shift-earnings/pending"
	"github.com/warp/shift-earnings/store/sqlite"
)

const dateLayout = "2006-01-02"

// =============================================================================
// PROJECTS
// =============================================================================

// ProjectDTO represents a project in API responses.
type ProjectDTO struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	IsActive    bool   `json:"is_active"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// CreateProjectRequest creates a project. With Preset set, the project
// gets that profession right away.
type CreateProjectRequest struct {
	ID          string `json:"id,omitempty"`
	UserID      string `json:"user_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Preset      string `json:"preset,omitempty"` // "operator"
}

func toProjectDTO(p sqlite.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:          p.ID,
		UserID:      p.UserID,
		Name:        p.Name,
		Description: p.Description,
		IsActive:    p.IsActive,
	}
	if !p.CreatedAt.IsZero() {
		dto.CreatedAt = p.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// SHIFTS
// =============================================================================

// ShiftDTO represents a shift in API responses.
type ShiftDTO struct {
	ID              string             `json:"id"`
	ProjectID       string             `json:"project_id"`
	Date            string             `json:"date"`
	StartTime       string             `json:"start_time,omitempty"`
	EndTime         string             `json:"end_time,omitempty"`
	TotalHours      float64            `json:"total_hours"`
	IsExpenseDay    bool               `json:"is_expense_day"`
	Status          string             `json:"status"`
	OriginalMessage string             `json:"original_message,omitempty"`
	Mentions        *earnings.Mentions `json:"mentions,omitempty"`
	Meals           []string           `json:"meals,omitempty"`
	Services        []string           `json:"services,omitempty"`
	OvertimeHours   float64            `json:"overtime_hours"`
}

// CreateShiftRequest logs a workday. TotalHours may be omitted when both
// clock times are given.
type CreateShiftRequest struct {
	Date            string             `json:"date"`
	StartTime       string             `json:"start_time,omitempty"`
	EndTime         string             `json:"end_time,omitempty"`
	TotalHours      *float64           `json:"total_hours,omitempty"`
	IsExpenseDay    bool               `json:"is_expense_day"`
	OriginalMessage string             `json:"original_message,omitempty"`
	Mentions        *earnings.Mentions `json:"mentions,omitempty"`
	Meals           []string           `json:"meals,omitempty"`
	Services        []string           `json:"services,omitempty"`
}

func toShiftDTO(s earnings.Shift) ShiftDTO {
	dto := ShiftDTO{
		ID:              string(s.ID),
		ProjectID:       string(s.ProjectID),
		Date:            s.Date.Format(dateLayout),
		StartTime:       s.StartTime,
		EndTime:         s.EndTime,
		TotalHours:      s.TotalHours,
		IsExpenseDay:    s.IsExpenseDay,
		Status:          string(s.Status),
		OriginalMessage: s.OriginalMessage,
		OvertimeHours:   s.OvertimeHours,
	}
	// A malformed payload is reported by the engine at calculation time.
	if m, err := earnings.DecodeMentions(s.MentionsJSON); err == nil && s.MentionsJSON != "" {
		dto.Mentions = &m
	}
	for _, id := range s.Meals {
		dto.Meals = append(dto.Meals, string(id))
	}
	for _, id := range s.AttachedServices {
		dto.Services = append(dto.Services, string(id))
	}
	return dto
}

// =============================================================================
// EARNINGS
// =============================================================================

// BreakdownDTO represents one earnings row.
type BreakdownDTO struct {
	ID            string           `json:"id"`
	ShiftID       string           `json:"shift_id"`
	BasePayNet    int64            `json:"base_pay_net"`
	BasePayGross  int64            `json:"base_pay_gross"`
	OvertimeNet   int64            `json:"overtime_net"`
	OvertimeGross int64            `json:"overtime_gross"`
	MealsNet      int64            `json:"meals_net"`
	MealsGross    int64            `json:"meals_gross"`
	PerDiem       int64            `json:"daily_allowance"`
	ServicesNet   int64            `json:"services_net"`
	ServicesGross int64            `json:"services_gross"`
	TotalNet      int64            `json:"total_net"`
	TotalGross    int64            `json:"total_gross"`
	Details       earnings.Details `json:"calculation_details"`
	CreatedAt     string           `json:"created_at"`
}

func toBreakdownDTO(b earnings.Breakdown) BreakdownDTO {
	return BreakdownDTO{
		ID:            string(b.ID),
		ShiftID:       string(b.ShiftID),
		BasePayNet:    int64(b.BasePayNet),
		BasePayGross:  int64(b.BasePayGross),
		OvertimeNet:   int64(b.OvertimeNet),
		OvertimeGross: int64(b.OvertimeGross),
		MealsNet:      int64(b.MealsNet),
		MealsGross:    int64(b.MealsGross),
		PerDiem:       int64(b.PerDiem),
		ServicesNet:   int64(b.ServicesNet),
		ServicesGross: int64(b.ServicesGross),
		TotalNet:      int64(b.TotalNet),
		TotalGross:    int64(b.TotalGross),
		Details:       b.Details,
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
}

// EarningsCSVRow is one line of the project earnings export.
type EarningsCSVRow struct {
	Date          string  `csv:"date"`
	ShiftID       string  `csv:"shift_id"`
	TotalHours    float64 `csv:"total_hours"`
	OvertimeHours float64 `csv:"overtime_hours"`
	BaseNet       int64   `csv:"base_net"`
	OvertimeNet   int64   `csv:"overtime_net"`
	MealsNet      int64   `csv:"meals_net"`
	PerDiem       int64   `csv:"daily_allowance"`
	ServicesNet   int64   `csv:"services_net"`
	TotalNet      int64   `csv:"total_net"`
	TotalGross    int64   `csv:"total_gross"`
}

// =============================================================================
// PENDING SHIFTS
// =============================================================================

// PendingDTO represents a user's unconfirmed shift.
type PendingDTO struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	Shift     ShiftDTO `json:"shift"`
	CreatedAt string   `json:"created_at"`
	ExpiresAt string   `json:"expires_at"`
}

// PutPendingRequest stages a shift for a user.
type PutPendingRequest struct {
	ProjectID string             `json:"project_id"`
	Shift     CreateShiftRequest `json:"shift"`
}

func toPendingDTO(e pending.Entry) PendingDTO {
	return PendingDTO{
		ID:        e.ID,
		UserID:    e.UserID,
		Shift:     toShiftDTO(e.Shift),
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
		ExpiresAt: e.ExpiresAt.Format(time.RFC3339),
	}
}

// ConfirmedShiftResponse is returned when a shift is confirmed and calculated.
type ConfirmedShiftResponse struct {
	Shift    ShiftDTO     `json:"shift"`
	Earnings BreakdownDTO `json:"earnings"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
