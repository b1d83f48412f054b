package routes

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"carspace-backend/internal/config"
	"carspace-backend/internal/handlers"
	"carspace-backend/internal/middleware"
)

// SetupRoutes configures all application routes
func SetupRoutes(
	authHandler *handlers.AuthHandler,
	carsHandler *handlers.CarsHandler,
	healthHandler *handlers.HealthHandler,
	googleAuthHandler *handlers.GoogleAuthHandler,
	cfg *config.Config,
) {
	// Health check routes
	http.HandleFunc("/healthz", healthHandler.HealthCheck)
	http.HandleFunc("/livez", healthHandler.LivenessCheck)
	http.HandleFunc("/readyz", healthHandler.ReadinessCheck)

	// User routes
	http.HandleFunc("/api/users/signup", authHandler.Signup)
	http.HandleFunc("/api/users/login", authHandler.Login)
	http.HandleFunc("/api/users/me", middleware.AuthMiddleware(authHandler.Me, &cfg.JWT))

	// Google OAuth routes
	http.HandleFunc("/api/auth/google/login", googleAuthHandler.GoogleLogin)
	http.HandleFunc("/api/auth/google/callback", googleAuthHandler.GoogleCallback)

	// Car routes; auth is applied per method inside the handler since list
	// and detail reads are public
	http.HandleFunc("/api/cars", carsHandler.Cars)
	http.HandleFunc("/api/cars/", carsHandler.CarByID)

	// API documentation
	http.Handle("/api/docs/", httpSwagger.Handler(
		httpSwagger.URL("/api/docs/doc.json"),
	))

	// Root route
	http.HandleFunc("/", rootHandler)
}

func rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("HealthCheck OK"))
}
