package user_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"gba-rental/internal/auth"
	"gba-rental/internal/logger"
	"gba-rental/internal/models"
	"gba-rental/internal/user"
	userdb "gba-rental/internal/user/db"
)

type Handler struct {
	UserService *user.UserService
	Logger      *logger.Logger

	validate *validator.Validate
}

func NewHandler(service *user.UserService, log *logger.Logger) *Handler {
	return &Handler{
		UserService: service,
		Logger:      log,
		validate:    validator.New(),
	}
}

// Register creates an account and returns a token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid registration: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.UserService.Register(req)
	if err != nil {
		if errors.Is(err, userdb.ErrEmailTaken) {
			http.Error(w, "Email already registered", http.StatusConflict)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("Register: failed: %v", err))
		http.Error(w, "Registration failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Register: failed to encode response: %v", err))
	}
}

// Login verifies credentials and returns a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		http.Error(w, "Invalid login: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := h.UserService.Login(req)
	if err != nil {
		if errors.Is(err, user.ErrInvalidCredentials) {
			http.Error(w, "Invalid email or password", http.StatusUnauthorized)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("Login: failed: %v", err))
		http.Error(w, "Login failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Login: failed to encode response: %v", err))
	}
}

// Me returns the authenticated user's own profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	profile, err := h.UserService.GetProfile(auth.UserID(r.Context()))
	if err != nil {
		if errors.Is(err, userdb.ErrUserNotFound) {
			http.Error(w, "User not found", http.StatusNotFound)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("Me: failed: %v", err))
		http.Error(w, "Failed to fetch profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(profile); err != nil {
		h.Logger.Error("API", fmt.Sprintf("Me: failed to encode response: %v", err))
	}
}
