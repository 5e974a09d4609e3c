package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"
	"github.com/warp/shift-earnings/earnings"
)

// ExportEarningsCSV writes every earnings row of a project as CSV, one line
// per row, ordered by shift date.
func (h *Handler) ExportEarningsCSV(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	projectID := earnings.ProjectID(chi.URLParam(r, "projectID"))

	if _, err := h.Store.GetProject(ctx, string(projectID)); err != nil {
		writeDomainError(w, "Failed to get project", err)
		return
	}

	shifts, err := h.Store.ListShifts(ctx, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list shifts", err)
		return
	}
	byID := make(map[earnings.ShiftID]earnings.Shift, len(shifts))
	for _, s := range shifts {
		byID[s.ID] = s
	}

	rows, err := h.Store.ListProjectBreakdowns(ctx, projectID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list earnings", err)
		return
	}

	out := make([]*EarningsCSVRow, 0, len(rows))
	for _, b := range rows {
		shift := byID[b.ShiftID]
		out = append(out, &EarningsCSVRow{
			Date:          shift.Date.Format(dateLayout),
			ShiftID:       string(b.ShiftID),
			TotalHours:    shift.TotalHours,
			OvertimeHours: b.Details.OvertimeHours,
			BaseNet:       int64(b.BasePayNet),
			OvertimeNet:   int64(b.OvertimeNet),
			MealsNet:      int64(b.MealsNet),
			PerDiem:       int64(b.PerDiem),
			ServicesNet:   int64(b.ServicesNet),
			TotalNet:      int64(b.TotalNet),
			TotalGross:    int64(b.TotalGross),
		})
	}

	csv, err := gocsv.MarshalString(&out)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to encode CSV", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="earnings-%s.csv"`, projectID))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(csv))
}
