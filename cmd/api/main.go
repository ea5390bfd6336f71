package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/offerhub/offer-portal/internal/config"
	"github.com/offerhub/offer-portal/internal/handler"
	"github.com/offerhub/offer-portal/internal/notifier"
	"github.com/offerhub/offer-portal/internal/repository"
	"github.com/offerhub/offer-portal/internal/service"
	"github.com/offerhub/offer-portal/internal/session"
	"github.com/offerhub/offer-portal/internal/validator"
	"github.com/offerhub/offer-portal/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), 5)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.ApplySchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database schema")
	}

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Offer Portal",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	// Initialize validator
	validate := validator.New()

	// Repositories
	userRepo := repository.NewUserRepository(pool)
	vendorRepo := repository.NewVendorRepository(pool)
	offerRepo := repository.NewOfferRepository(pool)
	redemptionRepo := repository.NewRedemptionRepository(pool)
	favoriteRepo := repository.NewFavoriteRepository(pool)
	categoryRepo := repository.NewCategoryRepository(pool)

	if err := seed(ctx, userRepo, categoryRepo); err != nil {
		log.Fatal().Err(err).Msg("failed to seed database")
	}

	// Services
	otpAuth := service.NewOTPAuthenticator(cfg.Auth.OTPTTL)
	tokens := service.NewTokenService(cfg.Auth.QRSecret, cfg.Auth.TokenTTL)
	otpNotifier := notifier.New(cfg.SMTP)
	authService := service.NewAuthService(userRepo, vendorRepo, otpAuth, otpNotifier)
	offerService := service.NewOfferService(offerRepo, categoryRepo, favoriteRepo)
	redemptionService := service.NewRedemptionService(pool, offerRepo, redemptionRepo, tokens)
	vendorService := service.NewVendorService(vendorRepo, offerRepo, redemptionRepo)

	// Sessions and handlers
	sessions := session.NewManager(cfg.Auth.SessionTTL)
	mw := handler.NewSessionMiddleware(sessions, cfg.Auth.AdminUsername)
	authHandler := handler.NewAuthHandler(authService, sessions, validate)
	storeHandler := handler.NewStoreHandler(offerService, redemptionService, validate)
	vendorHandler := handler.NewVendorHandler(vendorService, offerService, redemptionService, validate)
	adminHandler := handler.NewAdminHandler(vendorService, offerService)

	// Health handler
	healthHandler := handler.NewHealthHandler(pool)
	app.Get("/health", healthHandler.Check)

	app.Use(mw.Load)

	// Auth routes
	app.Post("/api/auth/login", authHandler.Login)
	app.Post("/api/auth/verify-otp", authHandler.VerifyOTP)
	app.Post("/api/auth/resend-otp", authHandler.ResendOTP)
	app.Post("/api/auth/logout", authHandler.Logout)
	app.Get("/api/auth/me", authHandler.Me)

	// Public catalog routes
	app.Get("/api/categories", storeHandler.Categories)
	app.Get("/api/offers", storeHandler.Browse)
	app.Get("/api/offers/:id", storeHandler.Detail)

	// Employee routes
	app.Post("/api/offers/:id/qr", mw.RequireUser, storeHandler.MintToken)
	app.Post("/api/redeem", mw.RequireUser, storeHandler.Redeem)
	app.Get("/api/redemptions", mw.RequireUser, storeHandler.History)
	app.Post("/api/offers/:id/favorite", mw.RequireUser, storeHandler.AddFavorite)
	app.Delete("/api/offers/:id/favorite", mw.RequireUser, storeHandler.RemoveFavorite)
	app.Get("/api/favorites", mw.RequireUser, storeHandler.Favorites)

	// Vendor routes
	app.Post("/api/vendor/register", vendorHandler.Register)
	app.Post("/api/vendor/login", authHandler.VendorLogin)
	app.Get("/api/vendor/dashboard", mw.RequireVendor, vendorHandler.Dashboard)
	app.Get("/api/vendor/offers", mw.RequireVendor, vendorHandler.ListOffers)
	app.Post("/api/vendor/offers", mw.RequireVendor, vendorHandler.CreateOffer)
	app.Put("/api/vendor/offers/:id", mw.RequireVendor, vendorHandler.UpdateOffer)
	app.Get("/api/vendor/redemptions", mw.RequireVendor, vendorHandler.Redemptions)

	// Admin routes
	admin := app.Group("/api/admin", mw.RequireAdmin)
	admin.Get("/dashboard", adminHandler.Dashboard)
	admin.Get("/vendors", adminHandler.ListVendors)
	admin.Post("/vendors/:id/approve", adminHandler.ApproveVendor)
	admin.Post("/vendors/:id/reject", adminHandler.RejectVendor)
	admin.Post("/vendors/:id/toggle-block", adminHandler.ToggleVendorBlock)
	admin.Get("/offers/pending", adminHandler.PendingOffers)
	admin.Post("/offers/:id/approve", adminHandler.ApproveOffer)
	admin.Post("/offers/:id/reject", adminHandler.RejectOffer)
	admin.Post("/offers/:id/disable", adminHandler.DisableOffer)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close database pool AFTER server shutdown (even if shutdown timed out)
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
