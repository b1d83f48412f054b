// @title Carspace Backend API
// @version 1.0
// @description REST backend for the Carspace car-listing application

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/cors"

	_ "carspace-backend/docs" // This is required for swagger
	"carspace-backend/internal/config"
	"carspace-backend/internal/handlers"
	"carspace-backend/internal/routes"
	"carspace-backend/internal/storage"
	"carspace-backend/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	dsn := cfg.GetDSN()

	// pgxpool + simple protocol (needed when going through PgBouncer)
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		log.Fatalf("parse dsn: %v", err)
	}
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol
	poolCfg.ConnConfig.RuntimeParams["application_name"] = "carspace-backend"
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxLifetime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolCfg)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnTimeout)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			log.Fatalf("ping: %v", err)
		}
	}

	// Apply schema migrations at boot
	if err := store.RunMigrations(context.Background(), dsn); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// --- Dependency wiring ---

	userStore := store.NewPostgresUserStore(pool)
	carStore := store.NewPostgresCarStore(pool)

	uploader, err := storage.NewS3Uploader(context.Background(), &cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}

	authHandler := handlers.NewAuthHandler(userStore, cfg)
	carsHandler := handlers.NewCarsHandler(carStore, uploader, cfg)
	healthHandler := handlers.NewHealthHandler(pool)
	googleAuthHandler := handlers.NewGoogleAuthHandler(userStore, cfg)

	routes.SetupRoutes(authHandler, carsHandler, healthHandler, googleAuthHandler, cfg)

	// --- HTTP Server + Graceful Shutdown ---

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.Handler(http.DefaultServeMux),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped.")
}
