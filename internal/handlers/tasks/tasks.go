package tasks

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/store"
)

type TaskHandler struct {
	h *handlers.Handler
}

func NewTaskHandler(h *handlers.Handler) *TaskHandler {
	return &TaskHandler{h: h}
}

type CreateTaskRequest struct {
	ProjectID   int32      `json:"project_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description,omitempty"`
	AssigneeID  *int32     `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	AssigneeID  *int32     `json:"assignee_id,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type SetStatusRequest struct {
	Status string `json:"status"`
}

func validStatus(s string) bool {
	return s == store.TaskStatusPending || s == store.TaskStatusInProgress || s == store.TaskStatusDone
}

// CreateTask opens a task on a project.
func (th *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.ProjectID == 0 || req.Title == "" {
		config.RespondBadRequest(w, "Missing required fields", "Project and title are required")
		return
	}

	if _, err := th.h.Store.GetProject(r.Context(), req.ProjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Project not found")
			return
		}
		config.RespondInternalError(w, err, th.h.Logger)
		return
	}

	task, err := th.h.Store.CreateTask(r.Context(), store.Task{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Status:      store.TaskStatusPending,
		DueDate:     req.DueDate,
		CreatedBy:   handlers.ActorID(r),
	})
	if err != nil {
		th.h.Logger.Error("failed to create task", "error", err)
		config.RespondInternalError(w, err, th.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusCreated, task)
}

// GetTask retrieves a task by ID.
func (th *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid task ID", err.Error())
		return
	}

	task, err := th.h.Store.GetTask(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Task not found")
			return
		}
		config.RespondInternalError(w, err, th.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, task)
}

// ListTasks lists tasks filterable by project, assignee and status.
func (th *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	projectID, err := handlers.QueryID(r, "project_id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid project filter", err.Error())
		return
	}
	assigneeID, err := handlers.QueryID(r, "assignee_id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid assignee filter", err.Error())
		return
	}
	status := r.URL.Query().Get("status")
	if status != "" && !validStatus(status) {
		config.RespondBadRequest(w, "Invalid status filter", "Status must be Pending, InProgress or Done")
		return
	}

	page := middlewares.GetPagination(r.Context())
	tasks, err := th.h.Store.ListTasks(r.Context(), projectID, assigneeID, status, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, th.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"tasks": tasks,
		"page":  page.Page,
		"limit": page.Limit,
	})
}

// UpdateTask applies a partial update to a task.
func (th *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid task ID", err.Error())
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}

	task, err := th.h.Store.GetTask(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Task not found")
			return
		}
		config.RespondInternalError(w, err, th.h.Logger)
		return
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.AssigneeID != nil {
		task.AssigneeID = req.AssigneeID
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}

	if err := th.h.Store.UpdateTask(r.Context(), task); err != nil {
		config.RespondInternalError(w, err, th.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, task)
}

// SetTaskStatus moves a task through its lifecycle.
func (th *TaskHandler) SetTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid task ID", err.Error())
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if !validStatus(req.Status) {
		config.RespondBadRequest(w, "Invalid status", "Status must be Pending, InProgress or Done")
		return
	}

	if err := th.h.Store.SetTaskStatus(r.Context(), id, req.Status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "Task not found")
			return
		}
		config.RespondInternalError(w, err, th.h.Logger)
		return
	}

	config.RespondSuccess(w, http.StatusOK, "Task status updated", map[string]any{
		"id":     id,
		"status": req.Status,
	})
}
