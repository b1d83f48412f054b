package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"carspace-backend/internal/config"
	"carspace-backend/internal/dto"
	"carspace-backend/internal/middleware"
	"carspace-backend/internal/models"
	"carspace-backend/internal/store"
	"carspace-backend/internal/utils"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	users  store.UserStore
	config *config.Config
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(users store.UserStore, cfg *config.Config) *AuthHandler {
	return &AuthHandler{users: users, config: cfg}
}

func toUserResponse(user *models.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID.String(),
		Username:  user.Username,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
}

// Signup handles user registration
// @Summary Register a new user
// @Description Create a new user account with username and password
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.SignupRequest true "User registration data"
// @Success 201 {object} dto.AuthResponse "User created successfully"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 409 {object} dto.ErrorResponse "Username already taken"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/users/signup [post]
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.SignupRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return // Error already handled by DecodeJSONRequest
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "username and password are required")
		return
	}

	// Hash password; plaintext is never persisted
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("signup: hash password: %v", err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to create user")
		return
	}

	now := time.Now()
	user := &models.User{
		ID:           uuid.New(),
		Username:     req.Username,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			utils.WriteErrorResponse(w, http.StatusConflict, "Conflict", "Username already taken")
			return
		}
		log.Printf("signup: create user %q: %v", req.Username, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to create user")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, &h.config.JWT)
	if err != nil {
		log.Printf("signup: generate token for %s: %v", user.ID, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to generate token")
		return
	}

	utils.WriteJSONResponse(w, http.StatusCreated, dto.AuthResponse{
		User:  toUserResponse(user),
		Token: token,
	})
}

// Login handles user login
// @Summary Login user
// @Description Authenticate with username and password, returning a bearer token
// @Tags users
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse "Login successful"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Invalid credentials"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/users/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req dto.LoginRequest
	if err := utils.DecodeJSONRequest(w, r, &req); err != nil {
		return
	}

	if req.Username == "" || req.Password == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Validation error", "username and password are required")
		return
	}

	// Unknown user and wrong password respond identically
	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("login: lookup %q: %v", req.Username, err)
		}
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid credentials", "Username or password is incorrect")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid credentials", "Username or password is incorrect")
		return
	}

	token, err := middleware.GenerateToken(user.ID, user.Username, &h.config.JWT)
	if err != nil {
		log.Printf("login: generate token for %s: %v", user.ID, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to generate token")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, dto.AuthResponse{
		User:  toUserResponse(user),
		Token: token,
	})
}

// Me returns the current user's profile
// @Summary Get current user
// @Description Get the authenticated user's profile information
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.UserResponse "User profile"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "User not found"
// @Router /api/users/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	userID, ok := utils.GetUserIDFromContext(r.Context())
	if !ok {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "User not authenticated")
		return
	}

	user, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.WriteErrorResponse(w, http.StatusNotFound, "Not found", "User not found")
			return
		}
		log.Printf("me: lookup %s: %v", userID, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to load user")
		return
	}

	utils.WriteJSONResponse(w, http.StatusOK, toUserResponse(user))
}
