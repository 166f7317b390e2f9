package attendance

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/store"
)

type AttendanceHandler struct {
	h *handlers.Handler
}

func NewAttendanceHandler(h *handlers.Handler) *AttendanceHandler {
	return &AttendanceHandler{h: h}
}

type MarkAttendanceRequest struct {
	WorkerID      int32            `json:"worker_id"`
	ProjectID     int32            `json:"project_id"`
	WorkDate      string           `json:"work_date"` // YYYY-MM-DD
	Status        string           `json:"status"`
	OvertimeHours *decimal.Decimal `json:"overtime_hours,omitempty"`
}

type CreateIncentiveRequest struct {
	WorkerID int32           `json:"worker_id"`
	Month    string          `json:"month"` // YYYY-MM
	Amount   decimal.Decimal `json:"amount"`
	Reason   *string         `json:"reason,omitempty"`
}

func validStatus(s string) bool {
	return s == store.AttendancePresent || s == store.AttendanceAbsent || s == store.AttendanceHalfDay
}

// MarkAttendance records or overwrites one worker's attendance for a
// day. Re-marking the same day replaces the earlier entry.
func (ah *AttendanceHandler) MarkAttendance(w http.ResponseWriter, r *http.Request) {
	var req MarkAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.WorkerID == 0 || req.ProjectID == 0 {
		config.RespondBadRequest(w, "Missing required fields", "Worker and project are required")
		return
	}
	if !validStatus(req.Status) {
		config.RespondBadRequest(w, "Invalid status", "Status must be Present, Absent or HalfDay")
		return
	}

	workDate, err := time.Parse("2006-01-02", req.WorkDate)
	if err != nil {
		config.RespondBadRequest(w, "Invalid work date", "Expected YYYY-MM-DD")
		return
	}
	if workDate.After(time.Now()) {
		config.RespondBadRequest(w, "Invalid work date", "Attendance cannot be marked for a future date")
		return
	}

	if _, err := ah.h.Store.GetWorker(r.Context(), req.WorkerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Worker not found")
			return
		}
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	overtime := decimal.Zero
	if req.OvertimeHours != nil {
		if req.OvertimeHours.IsNegative() {
			config.RespondBadRequest(w, "Invalid overtime", "Overtime hours cannot be negative")
			return
		}
		overtime = *req.OvertimeHours
	}

	entry, err := ah.h.Store.UpsertAttendance(r.Context(), store.AttendanceEntry{
		WorkerID:      req.WorkerID,
		ProjectID:     req.ProjectID,
		WorkDate:      workDate,
		Status:        req.Status,
		OvertimeHours: overtime,
		MarkedBy:      handlers.ActorID(r),
	})
	if err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, entry)
}

type BulkEntry struct {
	WorkerID      int32            `json:"worker_id"`
	Status        string           `json:"status"`
	OvertimeHours *decimal.Decimal `json:"overtime_hours,omitempty"`
}

type MarkAttendanceBulkRequest struct {
	ProjectID int32       `json:"project_id"`
	WorkDate  string      `json:"work_date"` // YYYY-MM-DD
	Entries   []BulkEntry `json:"entries"`
}

// MarkAttendanceBulk records a whole site muster for one day in a single
// transaction. Either every entry lands or none do.
func (ah *AttendanceHandler) MarkAttendanceBulk(w http.ResponseWriter, r *http.Request) {
	var req MarkAttendanceBulkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.ProjectID == 0 {
		config.RespondBadRequest(w, "Missing required fields", "Project is required")
		return
	}
	if len(req.Entries) == 0 {
		config.RespondBadRequest(w, "Missing entries", "At least one attendance entry is required")
		return
	}

	workDate, err := time.Parse("2006-01-02", req.WorkDate)
	if err != nil {
		config.RespondBadRequest(w, "Invalid work date", "Expected YYYY-MM-DD")
		return
	}
	if workDate.After(time.Now()) {
		config.RespondBadRequest(w, "Invalid work date", "Attendance cannot be marked for a future date")
		return
	}
	for i, e := range req.Entries {
		if e.WorkerID == 0 {
			config.RespondBadRequest(w, "Invalid entry", fmt.Sprintf("Entry %d is missing a worker", i+1))
			return
		}
		if !validStatus(e.Status) {
			config.RespondBadRequest(w, "Invalid entry", fmt.Sprintf("Entry %d has an invalid status", i+1))
			return
		}
		if e.OvertimeHours != nil && e.OvertimeHours.IsNegative() {
			config.RespondBadRequest(w, "Invalid entry", fmt.Sprintf("Entry %d has negative overtime", i+1))
			return
		}
	}

	tx, err := ah.h.DB.Begin(r.Context())
	if err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}
	defer tx.Rollback(r.Context())

	st := ah.h.Store.WithTx(tx)
	actor := handlers.ActorID(r)

	marked := make([]store.AttendanceEntry, 0, len(req.Entries))
	for _, e := range req.Entries {
		overtime := decimal.Zero
		if e.OvertimeHours != nil {
			overtime = *e.OvertimeHours
		}
		entry, err := st.UpsertAttendance(r.Context(), store.AttendanceEntry{
			WorkerID:      e.WorkerID,
			ProjectID:     req.ProjectID,
			WorkDate:      workDate,
			Status:        e.Status,
			OvertimeHours: overtime,
			MarkedBy:      actor,
		})
		if err != nil {
			config.RespondInternalError(w, err, ah.h.Logger)
			return
		}
		marked = append(marked, entry)
	}

	if err := tx.Commit(r.Context()); err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"marked":  len(marked),
		"entries": marked,
	})
}

// ListAttendance lists attendance entries filterable by worker,
// project and date range.
func (ah *AttendanceHandler) ListAttendance(w http.ResponseWriter, r *http.Request) {
	workerID, err := handlers.QueryID(r, "worker_id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid worker filter", err.Error())
		return
	}
	projectID, err := handlers.QueryID(r, "project_id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid project filter", err.Error())
		return
	}

	var from, to time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		if from, err = time.Parse("2006-01-02", raw); err != nil {
			config.RespondBadRequest(w, "Invalid from date", "Expected YYYY-MM-DD")
			return
		}
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		if to, err = time.Parse("2006-01-02", raw); err != nil {
			config.RespondBadRequest(w, "Invalid to date", "Expected YYYY-MM-DD")
			return
		}
	}

	entries, err := ah.h.Store.ListAttendance(r.Context(), workerID, projectID, from, to)
	if err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// CreateIncentive records a bonus for a worker in a month.
func (ah *AttendanceHandler) CreateIncentive(w http.ResponseWriter, r *http.Request) {
	var req CreateIncentiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.WorkerID == 0 || req.Month == "" {
		config.RespondBadRequest(w, "Missing required fields", "Worker and month are required")
		return
	}
	if _, err := time.Parse("2006-01", req.Month); err != nil {
		config.RespondBadRequest(w, "Invalid month", "Expected YYYY-MM")
		return
	}
	if !req.Amount.IsPositive() {
		config.RespondBadRequest(w, "Invalid amount", "Amount must be positive")
		return
	}

	if _, err := ah.h.Store.GetWorker(r.Context(), req.WorkerID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Worker not found")
			return
		}
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	entry, err := ah.h.Store.CreateIncentive(r.Context(), store.IncentiveEntry{
		WorkerID:  req.WorkerID,
		Month:     req.Month,
		Amount:    req.Amount,
		Reason:    req.Reason,
		CreatedBy: handlers.ActorID(r),
	})
	if err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusCreated, entry)
}

// ListIncentives lists incentives for a worker, optionally by month.
func (ah *AttendanceHandler) ListIncentives(w http.ResponseWriter, r *http.Request) {
	workerID, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid worker ID", err.Error())
		return
	}

	entries, err := ah.h.Store.ListIncentives(r.Context(), workerID, r.URL.Query().Get("month"))
	if err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{"incentives": entries})
}
