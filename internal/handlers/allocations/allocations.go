package allocations

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"contracting_system/internal/allocation"
	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/store"
)

type AllocationHandler struct {
	h *handlers.Handler
}

func NewAllocationHandler(h *handlers.Handler) *AllocationHandler {
	return &AllocationHandler{h: h}
}

type RequestItemInput struct {
	MaterialID   int32           `json:"material_id"`
	RequestedQty decimal.Decimal `json:"requested_qty"`
}

type CreateRequestInput struct {
	ProjectID int32              `json:"project_id"`
	Notes     *string            `json:"notes,omitempty"`
	Items     []RequestItemInput `json:"items"`
}

type DecideInput struct {
	Action string `json:"action"`
}

// CreateRequest opens a pending allocation request with its items.
func (ah *AllocationHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	var req CreateRequestInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.ProjectID == 0 {
		config.RespondBadRequest(w, "Missing required fields", "Project is required")
		return
	}
	if len(req.Items) == 0 {
		config.RespondBadRequest(w, "Missing required fields", "At least one item is required")
		return
	}
	for _, item := range req.Items {
		if item.MaterialID == 0 || !item.RequestedQty.IsPositive() {
			config.RespondBadRequest(w, "Invalid item", "Each item needs a material and a positive quantity")
			return
		}
	}

	if _, err := ah.h.Store.GetProject(r.Context(), req.ProjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Project not found")
			return
		}
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	tx, err := ah.h.DB.Begin(r.Context())
	if err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}
	defer tx.Rollback(r.Context())

	st := ah.h.Store.WithTx(tx)

	request, err := st.CreateAllocationRequest(r.Context(), req.ProjectID, handlers.ActorID(r), req.Notes)
	if err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	items := make([]store.AllocationRequestItem, 0, len(req.Items))
	for _, in := range req.Items {
		item, err := st.AddAllocationRequestItem(r.Context(), request.ID, in.MaterialID, in.RequestedQty)
		if err != nil {
			config.RespondInternalError(w, err, ah.h.Logger)
			return
		}
		items = append(items, item)
	}

	if err := tx.Commit(r.Context()); err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	ah.h.Logger.Info("allocation request created",
		"request_id", request.ID,
		"project_id", req.ProjectID,
		"items", len(items),
	)

	config.RespondJSON(w, http.StatusCreated, map[string]any{
		"request": request,
		"items":   items,
	})
}

// GetRequest retrieves an allocation request with its items.
func (ah *AllocationHandler) GetRequest(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid request ID", err.Error())
		return
	}

	request, err := ah.h.Store.GetAllocationRequest(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Allocation request not found")
			return
		}
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	items, err := ah.h.Store.ListAllocationRequestItems(r.Context(), id)
	if err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"request": request,
		"items":   items,
	})
}

// ListRequests lists allocation requests filterable by status and project.
func (ah *AllocationHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	projectID, err := handlers.QueryID(r, "project_id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid project filter", err.Error())
		return
	}
	status := r.URL.Query().Get("status")

	page := middlewares.GetPagination(r.Context())
	requests, err := ah.h.Store.ListAllocationRequests(r.Context(), status, projectID, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"requests": requests,
		"page":     page.Page,
		"limit":    page.Limit,
	})
}

// DecideRequest approves or rejects a pending request. Approval draws
// stock oldest-batch-first inside a single transaction; any failure
// leaves the request pending and stock untouched.
func (ah *AllocationHandler) DecideRequest(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid request ID", err.Error())
		return
	}

	var input DecideInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}

	action := allocation.Action(input.Action)
	if action != allocation.ActionApprove && action != allocation.ActionReject {
		config.RespondBadRequest(w, "Invalid action", "Action must be approve or reject")
		return
	}

	actor := "system"
	if sess := middlewares.GetSession(r.Context()); sess != nil {
		actor = sess.Username
	}

	tx, err := ah.h.DB.Begin(r.Context())
	if err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}
	defer tx.Rollback(r.Context())

	result, err := allocation.Decide(r.Context(), ah.h.Store.WithTx(tx), id, action, actor)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			config.RespondNotFound(w, "Allocation request not found")
		case errors.Is(err, allocation.ErrAlreadyDecided):
			config.RespondConflict(w, "Request already decided", "")
		default:
			config.RespondInternalError(w, err, ah.h.Logger)
		}
		return
	}

	if err := tx.Commit(r.Context()); err != nil {
		config.RespondInternalError(w, err, ah.h.Logger)
		return
	}

	shortages := 0
	for _, item := range result.Items {
		if item.ShortageQty.IsPositive() {
			shortages++
		}
	}
	if ah.h.Metrics != nil {
		ah.h.Metrics.AllocationDecisions.WithLabelValues(string(action)).Inc()
		if shortages > 0 {
			ah.h.Metrics.StockShortages.Add(float64(shortages))
		}
	}

	ah.h.Logger.Info("allocation request decided",
		"request_id", id,
		"action", string(action),
		"actor", actor,
		"status", result.Status,
		"shortages", shortages,
	)

	config.RespondJSON(w, http.StatusOK, result)
}
