package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/sentinelops/incidentdesk/internal/model"
	"github.com/sentinelops/incidentdesk/internal/server/middleware"
	"github.com/sentinelops/incidentdesk/internal/service"
)

// AuthHandler serves admin signup, login and token endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	Admin        *model.Admin `json:"admin"`
	Message      string       `json:"message"`
}

type profileRequest struct {
	Token string `json:"token"`
}

type profileResponse struct {
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
	Message     string `json:"message"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type refreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// Login authenticates an admin by username and password.
// POST /login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	res, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logFailure(r, "login failed", req.Username, err)
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Admin:        res.Admin,
		Message:      "Login successful",
	})
}

// Signup creates an admin account and logs it in.
// POST /signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "Username and password are required")
		return
	}

	res, err := h.auth.Signup(r.Context(), req.Username, req.Password)
	if err != nil {
		h.logFailure(r, "signup failed", req.Username, err)
		writeAuthError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "admin created", "admin_id", res.Admin.ID, "username", res.Admin.Username)
	writeJSON(w, http.StatusCreated, authResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		Admin:        res.Admin,
		Message:      "Admin created successfully",
	})
}

// Profile resolves an access token to its admin and returns a fresh one.
// POST /profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "Token is required")
		return
	}

	res, err := h.auth.GetProfile(r.Context(), req.Token)
	if err != nil {
		writeAuthError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Username:    res.Username,
		AccessToken: res.AccessToken,
		Message:     "Profile fetched successfully",
	})
}

// RefreshToken exchanges the current refresh token for a new access token.
// POST /refresh-token
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "Refresh token is required")
		return
	}

	access, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{AccessToken: access})
}

// Logout revokes the caller's refresh token. Requires authentication.
// POST /logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if err := h.auth.Logout(r.Context(), principal.AdminID); err != nil {
		writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Logged out"})
}

func (h *AuthHandler) logFailure(r *http.Request, msg, username string, err error) {
	level := slog.LevelWarn
	if errors.Is(err, service.ErrInternal) {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, msg, "username", username, "error", err)
}
