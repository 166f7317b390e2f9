package middlewares

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"contracting_system/internal/cache"
	"contracting_system/internal/security"
)

// Cookie sessions signed with HMAC, session state in the cache. The token a
// client holds is "<session id>.<signature>"; the signature stops a guessed
// session id from being usable even if the cache is exposed.

const sessionKeyPrefix = "session:"

var (
	ErrNoSession      = errors.New("no session")
	ErrInvalidSession = errors.New("invalid session")
)

// Session identifies the authenticated caller for the rest of the request.
type Session struct {
	ID        string    `json:"id"`
	UserID    int32     `json:"user_id"`
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	IPAddress string    `json:"ip_address"`
}

type sessionContextKey struct{}

// SessionManager issues, validates and revokes sessions.
type SessionManager struct {
	cache        cache.Cache
	secret       []byte
	ttl          time.Duration
	cookieName   string
	cookieSecure bool
	logger       *slog.Logger
}

type SessionManagerConfig struct {
	Cache        cache.Cache
	Secret       string
	TTL          time.Duration
	CookieName   string
	CookieSecure bool
	Logger       *slog.Logger
}

func NewSessionManager(config SessionManagerConfig) *SessionManager {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cookieName := config.CookieName
	if cookieName == "" {
		cookieName = "session_token"
	}
	ttl := config.TTL
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &SessionManager{
		cache:        config.Cache,
		secret:       []byte(config.Secret),
		ttl:          ttl,
		cookieName:   cookieName,
		cookieSecure: config.CookieSecure,
		logger:       logger,
	}
}

// Create registers a session and returns the signed token.
func (sm *SessionManager) Create(ctx context.Context, userID int32, username, role, clientIP string) (string, error) {
	now := time.Now()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Username:  username,
		Role:      role,
		CreatedAt: now,
		ExpiresAt: now.Add(sm.ttl),
		IPAddress: clientIP,
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", err
	}
	if err := sm.cache.Set(ctx, sessionKeyPrefix+sess.ID, data, sm.ttl); err != nil {
		return "", err
	}

	return sess.ID + "." + sm.sign(sess.ID), nil
}

// Resolve validates a token and loads the session behind it.
func (sm *SessionManager) Resolve(ctx context.Context, token string) (*Session, error) {
	id, sig, ok := strings.Cut(token, ".")
	if !ok || !hmac.Equal([]byte(sig), []byte(sm.sign(id))) {
		return nil, ErrInvalidSession
	}

	data, err := sm.cache.Get(ctx, sessionKeyPrefix+id)
	if err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, ErrInvalidSession
	}
	if time.Now().After(sess.ExpiresAt) {
		_ = sm.cache.Delete(ctx, sessionKeyPrefix+id)
		return nil, ErrInvalidSession
	}
	return &sess, nil
}

// Destroy removes the session behind a token. Invalid tokens are a no-op.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	id, _, ok := strings.Cut(token, ".")
	if !ok {
		return nil
	}
	return sm.cache.Delete(ctx, sessionKeyPrefix+id)
}

// RevokeUser deletes every live session belonging to a user. Called when an
// account is deactivated or its role changes.
func (sm *SessionManager) RevokeUser(ctx context.Context, userID int32) error {
	keys, err := sm.cache.Keys(ctx, sessionKeyPrefix+"*")
	if err != nil {
		return err
	}
	var revoke []string
	for _, key := range keys {
		data, err := sm.cache.Get(ctx, key)
		if err != nil {
			continue
		}
		var sess Session
		if err := json.Unmarshal(data, &sess); err != nil {
			continue
		}
		if sess.UserID == userID {
			revoke = append(revoke, key)
		}
	}
	return sm.cache.DeleteMulti(ctx, revoke)
}

// SetCookie writes the session cookie on a login response.
func (sm *SessionManager) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sm.ttl.Seconds()),
		HttpOnly: true,
		Secure:   sm.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on logout.
func (sm *SessionManager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   sm.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest reads the token from the cookie, falling back to a
// Bearer header for non-browser clients.
func (sm *SessionManager) TokenFromRequest(r *http.Request) (string, error) {
	if c, err := r.Cookie(sm.cookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer "), nil
	}
	return "", ErrNoSession
}

func (sm *SessionManager) sign(id string) string {
	mac := hmac.New(sha256.New, sm.secret)
	mac.Write([]byte(id))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// RequireAuth rejects unauthenticated requests and stores the session in
// the request context for the handler.
func RequireAuth(sm *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := sm.TokenFromRequest(r)
			if err != nil {
				respondAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			sess, err := sm.Resolve(r.Context(), token)
			if err != nil {
				if !errors.Is(err, ErrInvalidSession) {
					sm.logger.Error("session lookup failed", "error", err)
					respondAuthError(w, http.StatusInternalServerError, "session lookup failed")
					return
				}
				respondAuthError(w, http.StatusUnauthorized, "invalid or expired session")
				return
			}
			ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole allows only the named roles. Must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil {
				respondAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			for _, role := range roles {
				if sess.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			respondAuthError(w, http.StatusForbidden, "insufficient role")
		})
	}
}

// RequirePermission gates a route on the permission table. Must run after
// RequireAuth.
func RequirePermission(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := GetSession(r.Context())
			if sess == nil {
				respondAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			if !security.RoleHasPermission(sess.Role, permission) {
				respondAuthError(w, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetSession returns the authenticated session, or nil outside RequireAuth.
func GetSession(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

func respondAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"message": message,
	})
}
