package materials

import (
	"encoding/json"
	"errors"
	"net/http"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/store"
)

type MaterialHandler struct {
	h *handlers.Handler
}

func NewMaterialHandler(h *handlers.Handler) *MaterialHandler {
	return &MaterialHandler{h: h}
}

type CreateMaterialRequest struct {
	Name     string  `json:"name"`
	Code     string  `json:"code"`
	Unit     string  `json:"unit"`
	Category *string `json:"category,omitempty"`
}

type UpdateMaterialRequest struct {
	Name     *string `json:"name,omitempty"`
	Unit     *string `json:"unit,omitempty"`
	Category *string `json:"category,omitempty"`
}

// CreateMaterial adds a material to the catalog.
func (mh *MaterialHandler) CreateMaterial(w http.ResponseWriter, r *http.Request) {
	var req CreateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.Name == "" || req.Code == "" || req.Unit == "" {
		config.RespondBadRequest(w, "Missing required fields", "Name, code and unit are required")
		return
	}

	if _, err := mh.h.Store.GetMaterialByCode(r.Context(), req.Code); err == nil {
		config.RespondConflict(w, "Material code already exists", req.Code)
		return
	}

	material, err := mh.h.Store.CreateMaterial(r.Context(), store.Material{
		Name:     req.Name,
		Code:     req.Code,
		Unit:     req.Unit,
		Category: req.Category,
	})
	if err != nil {
		mh.h.Logger.Error("failed to create material", "error", err)
		config.RespondInternalError(w, err, mh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusCreated, material)
}

// GetMaterial retrieves a material by ID.
func (mh *MaterialHandler) GetMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid material ID", err.Error())
		return
	}

	material, err := mh.h.Store.GetMaterial(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Material not found")
			return
		}
		config.RespondInternalError(w, err, mh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, material)
}

// ListMaterials lists the material catalog with optional search.
func (mh *MaterialHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	page := middlewares.GetPagination(r.Context())
	search := r.URL.Query().Get("search")

	materials, err := mh.h.Store.ListMaterials(r.Context(), search, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, mh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"materials": materials,
		"page":      page.Page,
		"limit":     page.Limit,
	})
}

// UpdateMaterial applies a partial update to a material.
func (mh *MaterialHandler) UpdateMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid material ID", err.Error())
		return
	}

	var req UpdateMaterialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}

	material, err := mh.h.Store.GetMaterial(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Material not found")
			return
		}
		config.RespondInternalError(w, err, mh.h.Logger)
		return
	}

	if req.Name != nil {
		material.Name = *req.Name
	}
	if req.Unit != nil {
		material.Unit = *req.Unit
	}
	if req.Category != nil {
		material.Category = req.Category
	}

	if err := mh.h.Store.UpdateMaterial(r.Context(), material); err != nil {
		config.RespondInternalError(w, err, mh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, material)
}

// GetMaterialStock returns per-godown availability for a material.
func (mh *MaterialHandler) GetMaterialStock(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid material ID", err.Error())
		return
	}

	summary, err := mh.h.Store.GetMaterialStockSummary(r.Context(), id)
	if err != nil {
		config.RespondInternalError(w, err, mh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"material_id": id,
		"stock":       summary,
	})
}
