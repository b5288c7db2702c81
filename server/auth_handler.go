package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"songclub/core/auth"
	"songclub/logger"
	"songclub/model"
	"songclub/repository"
)

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login. Login is the email
// address or the username.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RegisterHandler handles user registration. The public profile is implicit:
// it is the public subset of the created user.
func (h *APIHandler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username, email and password are required")
		return
	}
	if !strings.Contains(req.Email, "@") {
		writeError(w, http.StatusBadRequest, "Invalid email address")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("[Register] Failed to hash password", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hashedPassword,
	}

	userID, err := h.userRepo.CreateUser(user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			logger.Warn("[Register] Username or email already exists",
				logger.String("username", req.Username))
			writeError(w, http.StatusConflict, "Username or email already exists")
			return
		}
		logger.Error("[Register] Failed to create user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Failed to create user")
		return
	}
	user.ID = userID

	token, err := h.tokens.Generate(userID, user.Username)
	if err != nil {
		logger.Error("[Register] Failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Register] User created",
		logger.Int64("userId", userID),
		logger.String("username", user.Username))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// LoginHandler handles user login with email or username.
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Login == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Login and password are required")
		return
	}

	var user *model.User
	var err error
	if strings.Contains(req.Login, "@") {
		user, err = h.userRepo.GetUserByEmail(req.Login)
	} else {
		user, err = h.userRepo.GetUserByUsername(req.Login)
	}
	if err != nil {
		logger.Error("[Login] Failed to look up user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	// The same message for an unknown account and a wrong password, so
	// logins don't leak which accounts exist.
	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		logger.Warn("[Login] Invalid credentials", logger.String("login", req.Login))
		writeError(w, http.StatusUnauthorized, "Invalid login or password")
		return
	}

	token, err := h.tokens.Generate(user.ID, user.Username)
	if err != nil {
		logger.Error("[Login] Failed to generate token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Login] Login successful", logger.String("username", user.Username))

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// LogoutHandler handles POST /api/auth/logout. Session tokens are stateless,
// so logout revokes the presented token until its natural expiry; the auth
// middleware rejects revoked tokens from then on.
func (h *APIHandler) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	claims, err := h.tokens.Parse(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ttl := h.cfg.JWTExpiry
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if h.denylist != nil {
		if err := h.denylist.Revoke(r.Context(), token, ttl); err != nil {
			logger.Error("[Logout] Failed to revoke token", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
	}

	logger.Info("[Logout] Token revoked", logger.Int64("userId", claims.UserID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// MeHandler handles GET /api/auth/me.
func (h *APIHandler) MeHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := h.userRepo.GetUserByID(userID)
	if err != nil {
		logger.Error("[Auth] Failed to look up user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// ResetRequestRequest is the body of POST /api/auth/reset-request.
type ResetRequestRequest struct {
	Email string `json:"email"`
}

// ResetRequestHandler issues a password-recovery token. The response is 200
// whether or not the account exists, so the endpoint can't be used to probe
// for accounts. Mail delivery is out of scope; the recovery token is logged
// where the original's auth provider would have mailed a link.
func (h *APIHandler) ResetRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req ResetRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := h.userRepo.GetUserByEmail(req.Email)
	if err != nil {
		logger.Error("[Reset] Failed to look up user", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if user != nil {
		token, err := h.resetTokens.Issue(r.Context(), user.ID)
		if err != nil {
			logger.Error("[Reset] Failed to issue recovery token", logger.ErrorField(err))
			writeError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		logger.Info("[Reset] Recovery token issued",
			logger.Int64("userId", user.ID),
			logger.String("token", token))
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": "If the account exists, a recovery link has been sent",
	})
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// ResetPasswordHandler consumes a recovery token and sets a new password.
func (h *APIHandler) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "Token is required")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	userID, err := h.resetTokens.Consume(r.Context(), req.Token)
	if err != nil {
		if errors.Is(err, auth.ErrResetTokenInvalid) {
			writeError(w, http.StatusBadRequest, "Invalid or expired recovery token")
			return
		}
		logger.Error("[Reset] Failed to consume recovery token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Error("[Reset] Failed to hash password", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.userRepo.UpdatePassword(userID, hashedPassword); err != nil {
		logger.Error("[Reset] Failed to update password", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info("[Reset] Password updated", logger.Int64("userId", userID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "Password updated"})
}
