package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"carspace-backend/internal/config"
	"carspace-backend/internal/utils"
)

// TokenCookieName is the cookie used as an alternative bearer token transport
const TokenCookieName = "token"

// JWTClaims represents the claims in the JWT token
type JWTClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	jwt.RegisteredClaims
}

// GenerateToken generates a JWT token for the given user
func GenerateToken(userID uuid.UUID, username string, cfg *config.JWTConfig) (string, error) {
	claims := JWTClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(cfg.AccessTokenTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}

// ValidateToken validates a JWT token and returns the claims. Malformed,
// tampered, and expired tokens all fail the same way.
func ValidateToken(tokenString string, cfg *config.JWTConfig) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.Secret), nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenMalformed
}

// extractToken pulls the bearer token from the Authorization header, falling
// back to the token cookie set by the frontend.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) == 2 && tokenParts[0] == "Bearer" {
			return tokenParts[1]
		}
		return ""
	}

	if cookie, err := r.Cookie(TokenCookieName); err == nil {
		return cookie.Value
	}

	return ""
}

// AuthMiddleware validates JWT tokens on protected routes and injects the
// verified identity into the request context
func AuthMiddleware(next http.HandlerFunc, cfg *config.JWTConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := extractToken(r)
		if tokenString == "" {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Bearer token required")
			return
		}

		claims, err := ValidateToken(tokenString, cfg)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusUnauthorized, "Unauthorized", "Invalid token")
			return
		}

		ctx := utils.WithUser(r.Context(), claims.UserID, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}
