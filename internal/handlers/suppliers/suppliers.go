package suppliers

import (
	"encoding/json"
	"errors"
	"net/http"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/store"
)

type SupplierHandler struct {
	h *handlers.Handler
}

func NewSupplierHandler(h *handlers.Handler) *SupplierHandler {
	return &SupplierHandler{h: h}
}

type CreateSupplierRequest struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	TaxID   *string `json:"tax_id,omitempty"`
}

type UpdateSupplierRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
	TaxID   *string `json:"tax_id,omitempty"`
}

// CreateSupplier creates a new supplier.
func (sh *SupplierHandler) CreateSupplier(w http.ResponseWriter, r *http.Request) {
	var req CreateSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.Name == "" {
		config.RespondBadRequest(w, "Missing required fields", "Name is required")
		return
	}

	supplier, err := sh.h.Store.CreateSupplier(r.Context(), store.Supplier{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
		TaxID:   req.TaxID,
	})
	if err != nil {
		sh.h.Logger.Error("failed to create supplier", "error", err)
		config.RespondInternalError(w, err, sh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusCreated, supplier)
}

// GetSupplier retrieves a supplier by ID.
func (sh *SupplierHandler) GetSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid supplier ID", err.Error())
		return
	}

	supplier, err := sh.h.Store.GetSupplier(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Supplier not found")
			return
		}
		config.RespondInternalError(w, err, sh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, supplier)
}

// ListSuppliers lists suppliers with optional name search.
func (sh *SupplierHandler) ListSuppliers(w http.ResponseWriter, r *http.Request) {
	page := middlewares.GetPagination(r.Context())
	search := r.URL.Query().Get("search")

	suppliers, err := sh.h.Store.ListSuppliers(r.Context(), search, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, sh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"suppliers": suppliers,
		"page":      page.Page,
		"limit":     page.Limit,
	})
}

// UpdateSupplier applies a partial update to a supplier.
func (sh *SupplierHandler) UpdateSupplier(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid supplier ID", err.Error())
		return
	}

	var req UpdateSupplierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}

	supplier, err := sh.h.Store.GetSupplier(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Supplier not found")
			return
		}
		config.RespondInternalError(w, err, sh.h.Logger)
		return
	}

	if req.Name != nil {
		supplier.Name = *req.Name
	}
	if req.Phone != nil {
		supplier.Phone = req.Phone
	}
	if req.Email != nil {
		supplier.Email = req.Email
	}
	if req.Address != nil {
		supplier.Address = req.Address
	}
	if req.TaxID != nil {
		supplier.TaxID = req.TaxID
	}

	if err := sh.h.Store.UpdateSupplier(r.Context(), supplier); err != nil {
		config.RespondInternalError(w, err, sh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, supplier)
}
