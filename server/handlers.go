package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"songclub/cache"
	"songclub/config"
	"songclub/core/auth"
	"songclub/logger"
	"songclub/repository"
)

// BlobStore is the slice of the storage layer the handlers use, so tests can
// substitute a fake.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Remove(ctx context.Context, key string) error
	PublicURL(key string) string
	KeyFromURL(url string) string
}

// TokenDenylist tracks revoked session tokens. Logout revokes through it and
// the auth middlewares consult it on every bearer token.
type TokenDenylist interface {
	Revoke(ctx context.Context, token string, ttl time.Duration) error
	Revoked(ctx context.Context, token string) (bool, error)
}

// APIHandler handles all API requests.
type APIHandler struct {
	userRepo     repository.UserRepository
	trackRepo    repository.TrackRepository
	commentRepo  repository.CommentRepository
	themeRepo    repository.ThemeRepository
	reactionRepo repository.ReactionRepository
	store        BlobStore
	themeCache   *cache.ThemeCache
	tokens       *auth.TokenManager
	resetTokens  *auth.ResetTokenStore
	denylist     TokenDenylist
	cfg          *config.Config

	// now is injectable so rate-limit windows are testable.
	now func() time.Time
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	userRepo repository.UserRepository,
	trackRepo repository.TrackRepository,
	commentRepo repository.CommentRepository,
	themeRepo repository.ThemeRepository,
	reactionRepo repository.ReactionRepository,
	store BlobStore,
	themeCache *cache.ThemeCache,
	tokens *auth.TokenManager,
	resetTokens *auth.ResetTokenStore,
	denylist TokenDenylist,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		userRepo:     userRepo,
		trackRepo:    trackRepo,
		commentRepo:  commentRepo,
		themeRepo:    themeRepo,
		reactionRepo: reactionRepo,
		store:        store,
		themeCache:   themeCache,
		tokens:       tokens,
		resetTokens:  resetTokens,
		denylist:     denylist,
		cfg:          cfg,
		now:          time.Now,
	}
}

type contextKey int

const (
	ctxKeyUserID contextKey = iota
	ctxKeyUsername
)

// AuthMiddleware checks for a valid bearer token and puts the caller's
// identity into the request context.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := h.bearerClaims(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
		ctx = context.WithValue(ctx, ctxKeyUsername, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// OptionalAuthMiddleware resolves the caller's identity when a valid bearer
// token is present but lets anonymous requests through.
func (h *APIHandler) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if claims, ok := h.bearerClaims(r); ok {
			ctx := context.WithValue(r.Context(), ctxKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ctxKeyUsername, claims.Username)
			r = r.WithContext(ctx)
		}
		next.ServeHTTP(w, r)
	}
}

// bearerToken extracts the raw token from the Authorization header.
func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}

func (h *APIHandler) bearerClaims(r *http.Request) (*auth.Claims, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return nil, false
	}
	claims, err := h.tokens.Parse(token)
	if err != nil {
		return nil, false
	}
	if h.denylist != nil {
		revoked, err := h.denylist.Revoked(r.Context(), token)
		if err != nil {
			// Fail closed: a token that can't be checked is not accepted.
			logger.Error("Failed to check token revocation", logger.ErrorField(err))
			return nil, false
		}
		if revoked {
			return nil, false
		}
	}
	return claims, true
}

// GetUserIDFromContext returns the authenticated user's ID.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(ctxKeyUserID).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// writeJSON writes a JSON response body.
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error("Failed to encode response body", logger.ErrorField(err))
	}
}

// writeError writes a structured {"error": ...} body with the given status.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// corsMiddleware answers preflight requests and sets permissive CORS headers
// on everything else.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoveryMiddleware converts panics into a generic 500 so stack traces never
// leak to clients.
func recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("Panic while handling request",
					logger.String("path", r.URL.Path),
					logger.Any("panic", rec))
				writeError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
