package users

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"contracting_system/internal/config"
	"contracting_system/internal/handlers"
	"contracting_system/internal/middlewares"
	"contracting_system/internal/security"
	"contracting_system/internal/store"
)

type UserHandler struct {
	h *handlers.Handler
}

func NewUserHandler(h *handlers.Handler) *UserHandler {
	return &UserHandler{h: h}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateUserRequest struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Role     string  `json:"role"`
	FullName *string `json:"full_name,omitempty"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Role     *string `json:"role,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func validRole(role string) bool {
	switch role {
	case store.RoleAdmin, store.RoleManager, store.RoleSiteEngr, store.RoleStorekeeper, store.RoleAccountant:
		return true
	}
	return false
}

// Login verifies credentials and opens a session. Failures are
// reported uniformly so usernames cannot be probed.
func (uh *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		config.RespondBadRequest(w, "Missing credentials", "Username and password are required")
		return
	}

	user, err := uh.h.Store.GetUserByUsername(r.Context(), strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondUnauthorized(w, "Invalid username or password")
			return
		}
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}
	if !user.Active {
		config.RespondUnauthorized(w, "Invalid username or password")
		return
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		uh.h.Logger.Warn("login failed", "username", req.Username)
		config.RespondUnauthorized(w, "Invalid username or password")
		return
	}

	token, err := uh.h.Sessions.Create(r.Context(), user.ID, user.Username, user.Role, r.RemoteAddr)
	if err != nil {
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}
	uh.h.Sessions.SetCookie(w, token)

	uh.h.Logger.Info("user logged in", "user_id", user.ID, "username", user.Username, "role", user.Role)

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"user":       user,
		"navigation": security.NavigationFor(user.Role),
	})
}

// Logout destroys the current session.
func (uh *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, err := uh.h.Sessions.TokenFromRequest(r)
	if err == nil {
		uh.h.Sessions.Destroy(r.Context(), token)
	}
	uh.h.Sessions.ClearCookie(w)
	config.RespondSuccess(w, http.StatusOK, "Logged out", nil)
}

// Me returns the authenticated user's profile and navigation.
func (uh *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		config.RespondUnauthorized(w, "Authentication required")
		return
	}

	user, err := uh.h.Store.GetUser(r.Context(), sess.UserID)
	if err != nil {
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"user":        user,
		"navigation":  security.NavigationFor(user.Role),
		"permissions": security.RolePermissions(user.Role),
	})
}

// Navigation returns the menu entries visible to the session's role.
func (uh *UserHandler) Navigation(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		config.RespondUnauthorized(w, "Authentication required")
		return
	}
	config.RespondJSON(w, http.StatusOK, map[string]any{
		"navigation": security.NavigationFor(sess.Role),
	})
}

// CreateUser registers a new user account.
func (uh *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		config.RespondBadRequest(w, "Missing required fields", "Username, email and password are required")
		return
	}
	if !validRole(req.Role) {
		config.RespondBadRequest(w, "Invalid role", req.Role)
		return
	}
	if err := security.CheckPasswordStrength(req.Password); err != nil {
		config.RespondBadRequest(w, "Weak password", err.Error())
		return
	}

	if _, err := uh.h.Store.GetUserByUsername(r.Context(), req.Username); err == nil {
		config.RespondConflict(w, "Username already exists", req.Username)
		return
	}
	if _, err := uh.h.Store.GetUserByEmail(r.Context(), req.Email); err == nil {
		config.RespondConflict(w, "Email already exists", req.Email)
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}

	user, err := uh.h.Store.CreateUser(r.Context(), store.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		FullName:     req.FullName,
		Active:       true,
	})
	if err != nil {
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}

	uh.h.Logger.Info("user created", "user_id", user.ID, "username", user.Username, "role", user.Role)
	config.RespondJSON(w, http.StatusCreated, user)
}

// GetUser retrieves a user by ID.
func (uh *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid user ID", err.Error())
		return
	}

	user, err := uh.h.Store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "User not found")
			return
		}
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, user)
}

// ListUsers lists user accounts, optionally filtered by role.
func (uh *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	role := r.URL.Query().Get("role")
	if role != "" && !validRole(role) {
		config.RespondBadRequest(w, "Invalid role filter", role)
		return
	}

	page := middlewares.GetPagination(r.Context())
	users, err := uh.h.Store.ListUsers(r.Context(), role, page.Limit, page.Offset)
	if err != nil {
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}

	config.RespondJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"page":  page.Page,
		"limit": page.Limit,
	})
}

// UpdateUser applies a partial update to a user. Deactivating or
// changing the role also revokes the user's open sessions.
func (uh *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		config.RespondBadRequest(w, "Invalid user ID", err.Error())
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}

	user, err := uh.h.Store.GetUser(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			config.RespondNotFound(w, "User not found")
			return
		}
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}

	revoke := false
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		if !validRole(*req.Role) {
			config.RespondBadRequest(w, "Invalid role", *req.Role)
			return
		}
		if user.Role != *req.Role {
			revoke = true
		}
		user.Role = *req.Role
	}
	if req.FullName != nil {
		user.FullName = req.FullName
	}
	if req.Active != nil {
		if user.Active && !*req.Active {
			revoke = true
		}
		user.Active = *req.Active
	}

	if err := uh.h.Store.UpdateUser(r.Context(), user); err != nil {
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}

	if revoke {
		if err := uh.h.Sessions.RevokeUser(r.Context(), user.ID); err != nil {
			uh.h.Logger.Warn("failed to revoke sessions", "user_id", user.ID, "error", err)
		}
	}

	config.RespondJSON(w, http.StatusOK, user)
}

// ChangePassword lets the authenticated user rotate their password.
func (uh *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	sess := middlewares.GetSession(r.Context())
	if sess == nil {
		config.RespondUnauthorized(w, "Authentication required")
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.RespondBadRequest(w, "Invalid request payload", err.Error())
		return
	}
	if err := security.CheckPasswordStrength(req.NewPassword); err != nil {
		config.RespondBadRequest(w, "Weak password", err.Error())
		return
	}

	user, err := uh.h.Store.GetUser(r.Context(), sess.UserID)
	if err != nil {
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}

	ok, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		config.RespondUnauthorized(w, "Current password is incorrect")
		return
	}

	hash, err := security.HashPassword(req.NewPassword)
	if err != nil {
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}
	if err := uh.h.Store.UpdateUserPassword(r.Context(), user.ID, hash); err != nil {
		config.RespondInternalError(w, err, uh.h.Logger)
		return
	}

	uh.h.Logger.Info("password changed", "user_id", user.ID)
	config.RespondSuccess(w, http.StatusOK, "Password updated", nil)
}
