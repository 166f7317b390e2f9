package workers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/store"
)

type WorkerHandler struct {
	h *handlers.Handler
}

func NewWorkerHandler(h *handlers.Handler) *WorkerHandler {
	return &WorkerHandler{h: h}
}

type CreateWorkerRequest struct {
	Name      string          `json:"name"`
	Phone     *string         `json:"phone,omitempty"`
	Trade     string          `json:"trade"`
	DailyWage decimal.Decimal `json:"daily_wage"`
	ProjectID *int32          `json:"project_id,omitempty"`
}

type UpdateWorkerRequest struct {
	Name      *string          `json:"name,omitempty"`
	Phone     *string          `json:"phone,omitempty"`
	Trade     *string          `json:"trade,omitempty"`
	DailyWage *decimal.Decimal `json:"daily_wage,omitempty"`
	ProjectID *int32           `json:"project_id,omitempty"`
	Active    *bool            `json:"active,omitempty"`
}

// CreateWorker registers a worker on the labor roll.
func (wh *WorkerHandler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.Name == "" || req.Trade == "" {
		config.RespondBadRequest(w, "Missing required fields", "Name and trade are required")
		return
	}
	if !req.DailyWage.IsPositive() {
		config.RespondBadRequest(w, "Invalid daily wage", "Daily wage must be positive")
		return
	}

	worker, err := wh.h.Store.CreateWorker(r.Context(), store.Worker{
		Name:      req.Name,
		Phone:     req.Phone,
		Trade:     req.Trade,
		DailyWage: req.DailyWage,
		ProjectID: req.ProjectID,
		Active:    true,
	})
	if err != nil {
		wh.h.Logger.Error("failed to create worker", "error", err)
		config.RespondInternalError(w, err, wh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusCreated, worker)
}

// GetWorker retrieves a worker by ID.
func (wh *WorkerHandler) GetWorker(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid worker ID", err.Error())
		return
	}

	worker, err := wh.h.Store.GetWorker(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Worker not found")
			return
		}
		config.RespondInternalError(w, err, wh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, worker)
}

// ListWorkers lists workers, filterable by project and active state.
func (wh *WorkerHandler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	projectID, err := handlers.QueryID(r, "project_id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid project filter", err.Error())
		return
	}
	activeOnly := r.URL.Query().Get("active") == "true"

	page := middlewares.GetPagination(r.Context())
	workers, err := wh.h.Store.ListWorkers(r.Context(), projectID, activeOnly, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, wh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"workers": workers,
		"page":    page.Page,
		"limit":   page.Limit,
	})
}

// UpdateWorker applies a partial update to a worker. Setting active to
// false takes the worker off the roll without losing history.
func (wh *WorkerHandler) UpdateWorker(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid worker ID", err.Error())
		return
	}

	var req UpdateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}

	worker, err := wh.h.Store.GetWorker(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Worker not found")
			return
		}
		config.RespondInternalError(w, err, wh.h.Logger)
		return
	}

	if req.Name != nil {
		worker.Name = *req.Name
	}
	if req.Phone != nil {
		worker.Phone = req.Phone
	}
	if req.Trade != nil {
		worker.Trade = *req.Trade
	}
	if req.DailyWage != nil {
		if !req.DailyWage.IsPositive() {
			config.RespondBadRequest(w, "Invalid daily wage", "Daily wage must be positive")
			return
		}
		worker.DailyWage = *req.DailyWage
	}
	if req.ProjectID != nil {
		worker.ProjectID = req.ProjectID
	}
	if req.Active != nil {
		worker.Active = *req.Active
	}

	if err := wh.h.Store.UpdateWorker(r.Context(), worker); err != nil {
		config.RespondInternalError(w, err, wh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, worker)
}
