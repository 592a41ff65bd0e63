package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/invoiceregistry/apiserver/internal/services"
)

// AuthHandler provides the registration and login endpoints.
type AuthHandler struct {
	auth *services.AuthService
}

func NewAuthHandler(auth *services.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// AuthRouter registers auth routes on the given router. Both routes are
// open; they are how a client obtains credentials in the first place.
func AuthRouter(r chi.Router, auth *services.AuthService) {
	handler := NewAuthHandler(auth)

	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// LoginResponse is the login body contract: the token, the fixed scheme
// name, and a single representative role (null when the user has none).
type LoginResponse struct {
	AccessToken string  `json:"accessToken"`
	TokenType   string  `json:"tokenType"`
	Role        *string `json:"role"`
}

// Register creates a new user account with the default role.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeValid(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid registration details")
		return
	}

	confirmation, err := h.auth.Register(r.Context(), req.Name, req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDuplicateUsername):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Username %s is already in use", req.Username))
		case errors.Is(err, services.ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Email %s is already in use", req.Email))
		case errors.Is(err, services.ErrRoleSeedMissing):
			writeError(w, http.StatusInternalServerError, "registration is unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "failed to register user")
		}
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: confirmation})
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeValid(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid login details")
		return
	}

	result, err := h.auth.Login(r.Context(), req.UsernameOrEmail, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrBadCredentials) {
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: result.AccessToken,
		TokenType:   "Bearer",
		Role:        result.Role,
	})
}
