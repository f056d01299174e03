package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"wellmind/internal/auth"
	"wellmind/internal/config"
	"wellmind/internal/logger"
	"wellmind/internal/session"
	"wellmind/internal/users"
)

// ErrorResponse is the standardized JSON error body
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// sendError sends a standardized JSON error response
func sendError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	errResp := ErrorResponse{
		Code:    status,
		Message: message,
	}
	if err != nil {
		errResp.Error = err.Error()
	}
	json.NewEncoder(w).Encode(errResp)
}

func sendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// AuthHandlers exposes the session manager over HTTP
type AuthHandlers struct {
	sessions *session.Manager
	authCfg  *config.AuthConfig
}

// NewAuthHandlers creates the auth handler set
func NewAuthHandlers(sessions *session.Manager, authCfg *config.AuthConfig) *AuthHandlers {
	return &AuthHandlers{
		sessions: sessions,
		authCfg:  authCfg,
	}
}

type RegisterRequest struct {
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the API bearer token and the signed-in user
type AuthResponse struct {
	Token string      `json:"token"`
	User  *users.User `json:"user"`
}

// Register creates a new account and signs it in
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.sessions.SignUp(req.Email, req.Password, req.ConfirmPassword, req.FirstName, req.LastName); err != nil {
		sendError(w, registerStatus(err), err.Error(), nil)
		return
	}

	state := h.sessions.State()
	token, err := auth.GenerateToken(state.User.ID, h.authCfg.JWTSecret, h.authCfg.TokenExpiration)
	if err != nil {
		logger.Log.WithError(err).Error("Error generating token")
		sendError(w, http.StatusInternalServerError, "Error generating token", err)
		return
	}

	sendJSON(w, http.StatusCreated, AuthResponse{Token: token, User: state.User})
}

// Login verifies credentials and returns a bearer token
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.Email == "" || req.Password == "" {
		sendError(w, http.StatusBadRequest, "Email and password are required", nil)
		return
	}

	if err := h.sessions.SignIn(req.Email, req.Password); err != nil {
		// Wrong email and wrong password are indistinguishable on the wire;
		// the precise reason lives in the session state only.
		if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrIncorrectPassword) {
			sendError(w, http.StatusUnauthorized, "Invalid credentials", nil)
			return
		}
		sendError(w, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	state := h.sessions.State()
	token, err := auth.GenerateToken(state.User.ID, h.authCfg.JWTSecret, h.authCfg.TokenExpiration)
	if err != nil {
		logger.Log.WithError(err).Error("Error generating token")
		sendError(w, http.StatusInternalServerError, "Error generating token", err)
		return
	}

	sendJSON(w, http.StatusOK, AuthResponse{Token: token, User: state.User})
}

// Logout clears the persisted session
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(); err != nil {
		sendError(w, http.StatusInternalServerError, "Error signing out", err)
		return
	}
	sendJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func registerStatus(err error) int {
	switch {
	case errors.Is(err, auth.ErrUserAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, session.ErrPasswordMismatch),
		errors.Is(err, session.ErrMissingFields):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
