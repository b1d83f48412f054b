package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	googleOAuth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"

	"carspace-backend/internal/config"
	"carspace-backend/internal/dto"
	"carspace-backend/internal/middleware"
	"carspace-backend/internal/models"
	"carspace-backend/internal/store"
	"carspace-backend/internal/utils"
)

// GoogleAuthHandler handles Google OAuth authentication
type GoogleAuthHandler struct {
	users        store.UserStore
	oauth2Config *oauth2.Config
	config       *config.Config
}

// NewGoogleAuthHandler creates a new GoogleAuthHandler instance
func NewGoogleAuthHandler(users store.UserStore, cfg *config.Config) *GoogleAuthHandler {
	oauth2Config := &oauth2.Config{
		ClientID:     cfg.GoogleOAuth.ClientID,
		ClientSecret: cfg.GoogleOAuth.ClientSecret,
		RedirectURL:  cfg.GoogleOAuth.RedirectURL,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}

	return &GoogleAuthHandler{
		users:        users,
		oauth2Config: oauth2Config,
		config:       cfg,
	}
}

// GoogleLogin initiates Google OAuth login
// @Summary Google OAuth login
// @Description Initiate Google OAuth login flow
// @Tags users
// @Produce json
// @Success 200 {object} map[string]string "Google OAuth URL"
// @Router /api/auth/google/login [get]
func (h *GoogleAuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// State parameter for CSRF protection
	state := uuid.New().String()
	authURL := h.oauth2Config.AuthCodeURL(state, oauth2.AccessTypeOffline)

	utils.WriteJSONResponse(w, http.StatusOK, map[string]string{
		"auth_url": authURL,
		"state":    state,
	})
}

// GoogleCallback handles Google OAuth callback
// @Summary Google OAuth callback
// @Description Exchange the authorization code, find or create the local user, and redirect to the frontend with a bearer token
// @Tags users
// @Produce json
// @Param code query string true "Authorization code from Google"
// @Param state query string false "State parameter for CSRF protection"
// @Success 302 "Redirect to frontend with token"
// @Failure 400 {object} dto.ErrorResponse "Missing authorization code"
// @Failure 401 {object} dto.ErrorResponse "Invalid authorization code"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /api/auth/google/callback [get]
func (h *GoogleAuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, "Missing authorization code", "Authorization code is required")
		return
	}

	token, err := h.oauth2Config.Exchange(r.Context(), code)
	if err != nil {
		utils.WriteErrorResponse(w, http.StatusUnauthorized, "Invalid authorization code", "Code exchange failed")
		return
	}

	userInfo, err := h.getGoogleUserInfo(r, token.AccessToken)
	if err != nil {
		log.Printf("google callback: userinfo: %v", err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to get user info")
		return
	}

	user, err := h.findOrCreateUser(r, userInfo)
	if err != nil {
		log.Printf("google callback: find or create user %q: %v", userInfo.Email, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to create user")
		return
	}

	jwtToken, err := middleware.GenerateToken(user.ID, user.Username, &h.config.JWT)
	if err != nil {
		log.Printf("google callback: generate token for %s: %v", user.ID, err)
		utils.WriteErrorResponse(w, http.StatusInternalServerError, "Server error", "Failed to generate token")
		return
	}

	redirectURL := fmt.Sprintf("%s?token=%s&user_id=%s&username=%s&provider=google",
		h.config.GoogleOAuth.FrontendCallbackURL,
		url.QueryEscape(jwtToken),
		user.ID.String(),
		url.QueryEscape(user.Username))

	http.Redirect(w, r, redirectURL, http.StatusFound)
}

// getGoogleUserInfo fetches user information from Google
func (h *GoogleAuthHandler) getGoogleUserInfo(r *http.Request, accessToken string) (*dto.GoogleUserInfo, error) {
	service, err := googleOAuth2.NewService(r.Context(), option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
	})))
	if err != nil {
		return nil, err
	}

	userInfo, err := service.Userinfo.Get().Do()
	if err != nil {
		return nil, err
	}

	verified := false
	if userInfo.VerifiedEmail != nil {
		verified = *userInfo.VerifiedEmail
	}

	return &dto.GoogleUserInfo{
		ID:       userInfo.Id,
		Email:    userInfo.Email,
		Name:     userInfo.Name,
		Picture:  userInfo.Picture,
		Verified: verified,
	}, nil
}

// findOrCreateUser resolves the local account for a Google profile. The
// username is derived from the email local part; Google-created accounts get
// an unguessable password hash so password login stays closed for them.
func (h *GoogleAuthHandler) findOrCreateUser(r *http.Request, googleUser *dto.GoogleUserInfo) (*models.User, error) {
	username := googleUser.Email
	if at := strings.Index(username, "@"); at > 0 {
		username = username[:at]
	}
	if len(username) > 50 {
		username = username[:50]
	}

	user, err := h.users.GetByUsername(r.Context(), username)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	randomSecret, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user = &models.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(randomSecret),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		return nil, err
	}

	return user, nil
}
