package projects

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/store"
)

type ProjectHandler struct {
	h *handlers.Handler
}

func NewProjectHandler(h *handlers.Handler) *ProjectHandler {
	return &ProjectHandler{h: h}
}

type CreateProjectRequest struct {
	Name       string           `json:"name"`
	Code       string           `json:"code"`
	CustomerID *int32           `json:"customer_id,omitempty"`
	Location   *string          `json:"location,omitempty"`
	Status     string           `json:"status"`
	StartDate  *time.Time       `json:"start_date,omitempty"`
	EndDate    *time.Time       `json:"end_date,omitempty"`
	Budget     *decimal.Decimal `json:"budget,omitempty"`
}

type UpdateProjectRequest struct {
	Name      *string          `json:"name,omitempty"`
	Location  *string          `json:"location,omitempty"`
	Status    *string          `json:"status,omitempty"`
	StartDate *time.Time       `json:"start_date,omitempty"`
	EndDate   *time.Time       `json:"end_date,omitempty"`
	Budget    *decimal.Decimal `json:"budget,omitempty"`
}

// CreateProject registers a new project.
func (ph *ProjectHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.Name == "" || req.Code == "" {
		config.RespondBadRequest(w, "Missing required fields", "Name and code are required")
		return
	}

	if _, err := ph.h.Store.GetProjectByCode(r.Context(), req.Code); err == nil {
		config.RespondConflict(w, "Project code already exists", req.Code)
		return
	}

	p := store.Project{
		Name:       req.Name,
		Code:       req.Code,
		CustomerID: req.CustomerID,
		Location:   req.Location,
		Status:     req.Status,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		Budget:     decimal.Zero,
	}
	if p.Status == "" {
		p.Status = "Active"
	}
	if req.Budget != nil {
		p.Budget = *req.Budget
	}

	project, err := ph.h.Store.CreateProject(r.Context(), p)
	if err != nil {
		ph.h.Logger.Error("failed to create project", "error", err)
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusCreated, project)
}

// GetProject retrieves a project by ID.
func (ph *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid project ID", err.Error())
		return
	}

	project, err := ph.h.Store.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Project not found")
			return
		}
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, project)
}

// ListProjects lists projects, optionally filtered by status.
func (ph *ProjectHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	page := middlewares.GetPagination(r.Context())
	status := r.URL.Query().Get("status")

	projects, err := ph.h.Store.ListProjects(r.Context(), status, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"projects": projects,
		"page":     page.Page,
		"limit":    page.Limit,
	})
}

// UpdateProject applies a partial update to a project.
func (ph *ProjectHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid project ID", err.Error())
		return
	}

	var req UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}

	project, err := ph.h.Store.GetProject(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Project not found")
			return
		}
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Location != nil {
		project.Location = req.Location
	}
	if req.Status != nil {
		project.Status = *req.Status
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate
	}
	if req.Budget != nil {
		project.Budget = *req.Budget
	}

	if err := ph.h.Store.UpdateProject(r.Context(), project); err != nil {
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, project)
}

// GetProjectLedger returns the material consumption ledger for a
// project over an optional date range.
func (ph *ProjectHandler) GetProjectLedger(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid project ID", err.Error())
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

	page := middlewares.GetPagination(r.Context())
	entries, err := ph.h.Store.ListProjectLedger(r.Context(), id, from, to, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, ph.h.Logger)
		return
	}

	total := decimal.Zero
	for _, e := range entries {
		total = total.Add(e.LineTotal)
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"project_id": id,
		"entries":    entries,
		"page_total": total,
	})
}
