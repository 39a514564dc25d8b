package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"usage-dashboard/auth"
	"usage-dashboard/cache"
	"usage-dashboard/config"
	"usage-dashboard/dashboard"
	"usage-dashboard/handler"
	appLogger "usage-dashboard/logger"
	"usage-dashboard/middleware"
	redisClient "usage-dashboard/redis"
	"usage-dashboard/session"
)

// @title Usage Dashboard API
// @version 1.0
// @description Feature-usage analytics dashboard with cookie-based session authentication and shareable filtered views.

// @host localhost:8080
// @BasePath /
// @schemes http https

// @tag.name Authentication
// @tag.description Signup, login, logout and the session check

// @tag.name Dashboard
// @tag.description Filtered feature-usage aggregates over the remote CSV feed

// @tag.name Views
// @tag.description Shareable snapshots of a dashboard filter state

func main() {
	// Initialize logger
	appLogger.Initialize()

	// Load configuration
	cfg := config.MustLoadConfig()
	log.Info().Msg("Configuration loaded successfully")

	// Initialize Redis client
	rdb := redisClient.NewClient(cfg.Redis)

	// Initialize dataset cache (if enabled)
	var cacheClient *cache.Cache
	if cfg.Cache.Enabled {
		var err error
		cacheClient, err = cache.New(cfg.Cache)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize cache")
		}
	} else {
		log.Info().Msg("Cache disabled in configuration")
	}

	// Token codec and session cookie store
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenTTL)*time.Second)
	cookieStore := session.NewCookieStore(cfg.WebServer.Scheme == "https")

	// Dashboard pipeline over the remote usage feed
	pipeline := dashboard.NewPipeline(cfg.Dataset.Features)
	source := dashboard.NewSource(
		cfg.Dataset.CSVURL,
		time.Duration(cfg.Dataset.FetchTimeout)*time.Second,
		cacheClient,
		pipeline,
	)
	log.Info().
		Str("csv_url", cfg.Dataset.CSVURL).
		Strs("features", cfg.Dataset.Features).
		Msg("Dataset source initialized")

	// Create handlers with dependency injection
	authHandler := handler.NewAuthHandler(tokenManager, cookieStore)
	dashboardHandler := handler.NewDashboardHandler(source, pipeline)
	viewHandler := handler.NewViewHandler(rdb, cfg)

	// Set up router
	r := mux.NewRouter()

	// Apply global middleware
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	r.Use(middleware.CORS)
	r.Use(middleware.RequestLogger)
	r.Use(rateLimiter.Limit)

	// Auth routes
	r.HandleFunc("/api/auth/me", authHandler.Me).Methods("GET")
	r.HandleFunc("/api/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/api/signup", authHandler.Signup).Methods("POST")
	r.HandleFunc("/api/logout", authHandler.Logout).Methods("GET")

	// Dashboard routes
	r.HandleFunc("/api/dashboard/summary", dashboardHandler.Summary).Methods("GET")
	r.HandleFunc("/api/dashboard/reset", dashboardHandler.Reset).Methods("GET")

	// Shared view routes
	r.HandleFunc("/api/views", viewHandler.CreateView).Methods("POST")
	r.HandleFunc("/api/views/{id}", viewHandler.GetView).Methods("GET")
	r.HandleFunc("/api/views/{id}", viewHandler.DeleteView).Methods("DELETE")
	r.HandleFunc("/api/views/{id}/qr", viewHandler.ViewQR).Methods("GET")

	// Configure HTTP server
	serverAddress := fmt.Sprintf("%s:%s", cfg.WebServer.IP, cfg.WebServer.Port)
	server := &http.Server{
		Addr:         serverAddress,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.WebServer.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WebServer.WriteTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("address", serverAddress).
			Str("scheme", cfg.WebServer.Scheme).
			Msg("Starting server")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.WebServer.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Close cache
	if cacheClient != nil {
		cacheClient.Close()
	}

	// Close Redis connection
	if err := rdb.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close Redis connection")
	}

	log.Info().Msg("Server stopped gracefully")
}
