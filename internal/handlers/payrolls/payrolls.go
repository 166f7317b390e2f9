package payrolls

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/payroll"
	"contracting_system/internal/store"
)

type PayrollHandler struct {
	h *handlers.Handler
}

func NewPayrollHandler(h *handlers.Handler) *PayrollHandler {
	return &PayrollHandler{h: h}
}

type RunPayrollRequest struct {
	Month string `json:"month"` // YYYY-MM
}

// RunPayroll computes payroll records for every active worker missing
// one for the month. Safe to rerun; existing records are skipped.
func (ph *PayrollHandler) RunPayroll(w http.ResponseWriter, r *http.Request) {
	var req RunPayrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}

	result, err := payroll.RunMonth(r.Context(), ph.h.Store, req.Month)
	if err != nil {
		if errors.Is(err, payroll.ErrInvalidMonth) {
			config.RespondBadRequest(w, "Invalid month", "Expected YYYY-MM")
			return
		}
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	ph.h.Logger.Info("payroll run completed",
		"month", req.Month,
		"created", len(result.Created),
		"skipped", result.Skipped,
		"total", result.Total.String(),
	)

	config.RespondJSON(w, http.StatusOK, result)
}

// PreviewWorkerPayroll computes one worker's payroll for a month
// without persisting it.
func (ph *PayrollHandler) PreviewWorkerPayroll(w http.ResponseWriter, r *http.Request) {
	workerID, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid worker ID", err.Error())
		return
	}
	month := r.URL.Query().Get("month")
	if month == "" {
		config.RespondBadRequest(w, "Missing month", "Query parameter month=YYYY-MM is required")
		return
	}

	worker, err := ph.h.Store.GetWorker(r.Context(), workerID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Worker not found")
			return
		}
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	record, err := payroll.ComputeForWorker(r.Context(), ph.h.Store, worker, month)
	if err != nil {
		if errors.Is(err, payroll.ErrInvalidMonth) {
			config.RespondBadRequest(w, "Invalid month", "Expected YYYY-MM")
			return
		}
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, record)
}

// ListPayroll lists payroll records, optionally for one month.
func (ph *PayrollHandler) ListPayroll(w http.ResponseWriter, r *http.Request) {
	page := middlewares.GetPagination(r.Context())
	month := r.URL.Query().Get("month")

	records, err := ph.h.Store.ListPayrollRecords(r.Context(), month, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"page":    page.Page,
		"limit":   page.Limit,
	})
}

// MarkPaid stamps a payroll record as paid out. A record can only be
// paid once.
func (ph *PayrollHandler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid payroll record ID", err.Error())
		return
	}

	actor := handlers.ActorID(r)
	if actor == nil {
		config.RespondUnauthorized(w, "Authentication required")
		return
	}

	if err := ph.h.Store.MarkPayrollPaid(r.Context(), id, *actor, time.Now()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondConflict(w, "Payroll record not found or already paid", "")
			return
		}
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	config.RespondSuccess(w, http.StatusOK, "Payroll record marked as paid", map[string]any{"id": id})
}
