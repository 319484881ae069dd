package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/questhaven/gamevault/internal/database"
	"github.com/questhaven/gamevault/internal/handlers"
	"github.com/questhaven/gamevault/internal/middleware"
	"github.com/questhaven/gamevault/internal/services"
	"github.com/questhaven/gamevault/pkg/cache"
	"github.com/questhaven/gamevault/pkg/config"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().
		Str("env", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Msg("Starting gamevault")

	// Initialize MongoDB
	mongoDB, err := database.NewMongoDB(&cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoDB.Close()

	// Initialize Redis
	redisDB, err := database.NewRedisDB(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer redisDB.Close()

	// Initialize cache (nil disables lookup caching everywhere)
	var cacheInstance *cache.Cache
	if cfg.Cache.Enabled {
		cacheInstance = cache.NewCache(redisDB.Client())
	}

	// Initialize services
	tokenService := services.NewTokenService(&cfg.JWT)
	accountService := services.NewAccountService(mongoDB, &services.LogMailer{})
	redirectService := services.NewRedirectService(mongoDB, cacheInstance, cfg.Cache.RedirectTTL)
	analyticsService := services.NewAnalyticsService(mongoDB)
	scraperService := services.NewScraperService(&cfg.Scraper)

	// Initialize handlers
	isProduction := cfg.IsProduction()
	authHandler := handlers.NewAuthHandler(accountService, tokenService, mongoDB, isProduction)
	setupHandler := handlers.NewSetupHandler(mongoDB)
	userHandler := handlers.NewUserHandler(mongoDB, accountService)
	gameHandler := handlers.NewGameHandler(mongoDB)
	postHandler := handlers.NewPostHandler(mongoDB)
	redirectHandler := handlers.NewRedirectHandler(redirectService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	settingsHandler := handlers.NewSettingsHandler(mongoDB, cacheInstance, cfg.Cache.SettingsTTL)
	seoHandler := handlers.NewSEOHandler(mongoDB, cacheInstance, cfg.Cache.SettingsTTL)
	scraperHandler := handlers.NewScraperHandler(scraperService, mongoDB)
	healthHandler := handlers.NewHealthHandler(mongoDB, redisDB)

	// Initialize middleware
	rateLimiter := middleware.NewRateLimiter(redisDB, cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.WindowDuration)
	gate := middleware.NewGate(tokenService, redirectService, cfg.Server.AdminLogin)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recoverer())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(chimiddleware.Compress(5))
	r.Use(chimiddleware.Timeout(60 * time.Second))
	r.Use(gate.Handler)

	// Operational endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)
	r.Handle("/metrics", middleware.MetricsHandler())

	// Public storefront API
	r.Get("/api/catalog", gameHandler.Catalog)
	r.Get("/api/blog", postHandler.Blog)
	r.Post("/api/analytics/track", analyticsHandler.Track)
	r.Post("/api/setup/admin", setupHandler.CreateSuperAdmin)

	// Auth
	r.Route("/api/auth", func(r chi.Router) {
		r.With(rateLimiter.Limit("login")).Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// Back-office API (the gate already requires an admin session here)
	r.Route("/api/users", func(r chi.Router) {
		r.Get("/", userHandler.List)
		r.Post("/", userHandler.Create)
		r.Get("/roles", userHandler.Roles)
		r.Post("/change-request", userHandler.ChangeRequest)
		r.Post("/change-confirm", userHandler.ChangeConfirm)
		r.Get("/{id}", userHandler.Get)
		r.Patch("/{id}", userHandler.Update)
		r.Delete("/{id}", userHandler.Delete)
	})

	r.Route("/api/games", func(r chi.Router) {
		r.Get("/", gameHandler.List)
		r.Post("/", gameHandler.Create)
		r.Post("/bulk", gameHandler.Bulk)
		r.Get("/{id}", gameHandler.Get)
		r.Patch("/{id}", gameHandler.Update)
		r.Delete("/{id}", gameHandler.Delete)
	})

	r.Route("/api/posts", func(r chi.Router) {
		r.Get("/", postHandler.List)
		r.Post("/", postHandler.Create)
		r.Get("/{id}", postHandler.Get)
		r.Patch("/{id}", postHandler.Update)
		r.Delete("/{id}", postHandler.Delete)
	})

	r.Route("/api/redirects", func(r chi.Router) {
		r.Get("/", redirectHandler.List)
		r.Post("/", redirectHandler.Create)
		r.Patch("/{id}", redirectHandler.Update)
		r.Delete("/{id}", redirectHandler.Delete)
	})

	r.Get("/api/analytics/stats", analyticsHandler.Stats)

	r.Route("/api/settings", func(r chi.Router) {
		r.Get("/", settingsHandler.Get)
		r.Post("/", settingsHandler.Save)
	})

	r.Route("/api/seo", func(r chi.Router) {
		r.Get("/", seoHandler.List)
		r.Get("/entry", seoHandler.Get)
		r.Post("/", seoHandler.Save)
		r.Delete("/", seoHandler.Delete)
	})

	r.Route("/api/scraper", func(r chi.Router) {
		r.With(rateLimiter.Limit("scraper")).Post("/", scraperHandler.Scrape)
		r.Post("/import", scraperHandler.Import)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", server.Addr).Msg("Server started")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped gracefully")
}
