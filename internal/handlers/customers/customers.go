package customers

import (
	"encoding/json"
	"errors"
	"net/http"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/store"
)

type CustomerHandler struct {
	h *handlers.Handler
}

func NewCustomerHandler(h *handlers.Handler) *CustomerHandler {
	return &CustomerHandler{h: h}
}

type CreateCustomerRequest struct {
	Name    string  `json:"name"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

type UpdateCustomerRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

// CreateCustomer creates a new customer.
func (ch *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.Name == "" {
		config.RespondBadRequest(w, "Missing required fields", "Name is required")
		return
	}

	customer, err := ch.h.Store.CreateCustomer(r.Context(), store.Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		ch.h.Logger.Error("failed to create customer", "error", err)
		config.RespondInternalError(w, err, ch.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusCreated, customer)
}

// GetCustomer retrieves a customer by ID.
func (ch *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid customer ID", err.Error())
		return
	}

	customer, err := ch.h.Store.GetCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Customer not found")
			return
		}
		config.RespondInternalError(w, err, ch.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, customer)
}

// ListCustomers lists customers with optional name search.
func (ch *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	page := middlewares.GetPagination(r.Context())
	search := r.URL.Query().Get("search")

	customers, err := ch.h.Store.ListCustomers(r.Context(), search, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, ch.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"customers": customers,
		"page":      page.Page,
		"limit":     page.Limit,
	})
}

// UpdateCustomer applies a partial update to a customer.
func (ch *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid customer ID", err.Error())
		return
	}

	var req UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}

	customer, err := ch.h.Store.GetCustomer(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Customer not found")
			return
		}
		config.RespondInternalError(w, err, ch.h.Logger)
		return
	}

	if req.Name != nil {
		customer.Name = *req.Name
	}
	if req.Phone != nil {
		customer.Phone = req.Phone
	}
	if req.Email != nil {
		customer.Email = req.Email
	}
	if req.Address != nil {
		customer.Address = req.Address
	}

	if err := ch.h.Store.UpdateCustomer(r.Context(), customer); err != nil {
		config.RespondInternalError(w, err, ch.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, customer)
}
