package godowns

import (
	"encoding/json"
	"errors"
	"net/http"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/store"
)

type GodownHandler struct {
	h *handlers.Handler
}

func NewGodownHandler(h *handlers.Handler) *GodownHandler {
	return &GodownHandler{h: h}
}

type CreateGodownRequest struct {
	Name     string  `json:"name"`
	Code     string  `json:"code"`
	Location *string `json:"location,omitempty"`
}

type UpdateGodownRequest struct {
	Name     *string `json:"name,omitempty"`
	Location *string `json:"location,omitempty"`
}

// CreateGodown registers a new godown.
func (gh *GodownHandler) CreateGodown(w http.ResponseWriter, r *http.Request) {
	var req CreateGodownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.Name == "" || req.Code == "" {
		config.RespondBadRequest(w, "Missing required fields", "Name and code are required")
		return
	}

	if _, err := gh.h.Store.GetGodownByCode(r.Context(), req.Code); err == nil {
		config.RespondConflict(w, "Godown code already exists", req.Code)
		return
	}

	godown, err := gh.h.Store.CreateGodown(r.Context(), store.Godown{
		Name:     req.Name,
		Code:     req.Code,
		Location: req.Location,
	})
	if err != nil {
		gh.h.Logger.Error("failed to create godown", "error", err)
		config.RespondInternalError(w, err, gh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusCreated, godown)
}

// GetGodown retrieves a godown by ID.
func (gh *GodownHandler) GetGodown(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid godown ID", err.Error())
		return
	}

	godown, err := gh.h.Store.GetGodown(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Godown not found")
			return
		}
		config.RespondInternalError(w, err, gh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, godown)
}

// ListGodowns lists all godowns.
func (gh *GodownHandler) ListGodowns(w http.ResponseWriter, r *http.Request) {
	godowns, err := gh.h.Store.ListGodowns(r.Context())
	if err != nil {
		config.RespondInternalError(w, err, gh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{"godowns": godowns})
}

// UpdateGodown applies a partial update to a godown.
func (gh *GodownHandler) UpdateGodown(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid godown ID", err.Error())
		return
	}

	var req UpdateGodownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}

	godown, err := gh.h.Store.GetGodown(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Godown not found")
			return
		}
		config.RespondInternalError(w, err, gh.h.Logger)
		return
	}

	if req.Name != nil {
		godown.Name = *req.Name
	}
	if req.Location != nil {
		godown.Location = req.Location
	}

	if err := gh.h.Store.UpdateGodown(r.Context(), godown); err != nil {
		config.RespondInternalError(w, err, gh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, godown)
}

// GetGodownStock returns the aggregate stock view for a godown.
func (gh *GodownHandler) GetGodownStock(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid godown ID", err.Error())
		return
	}

	stock, err := gh.h.Store.ListGodownStock(r.Context(), id)
	if err != nil {
		config.RespondInternalError(w, err, gh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"godown_id": id,
		"stock":     stock,
	})
}

// GetGodownBatches lists stock batches held in a godown.
func (gh *GodownHandler) GetGodownBatches(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid godown ID", err.Error())
		return
	}

	page := middlewares.GetPagination(r.Context())
	batches, err := gh.h.Store.ListBatchesByGodown(r.Context(), id, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, gh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"godown_id": id,
		"batches":   batches,
		"page":      page.Page,
		"limit":     page.Limit,
	})
}
