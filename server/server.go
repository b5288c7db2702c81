package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"songclub/cache"
	"songclub/config"
	"songclub/core/auth"
	"songclub/db"
	"songclub/logger"
	"songclub/repository"
	"songclub/storage"

	"github.com/gorilla/mux"
)

// Router builds the HTTP router for an API handler. Split out from Start so
// tests can drive the full routing table.
func Router(h *APIHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(corsMiddleware)
	router.Use(recoveryMiddleware)

	// The two hardened endpoints keep the paths the original client called.
	router.HandleFunc("/functions/v1/upload-track", h.AuthMiddleware(h.UploadTrackHandler)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/functions/v1/create-comment", h.AuthMiddleware(h.CreateCommentHandler)).Methods(http.MethodPost, http.MethodOptions)

	// Auth.
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/auth/logout", h.AuthMiddleware(h.LogoutHandler)).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/auth/me", h.AuthMiddleware(h.MeHandler)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/auth/reset-request", h.ResetRequestHandler).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/api/auth/reset-password", h.ResetPasswordHandler).Methods(http.MethodPost, http.MethodOptions)

	// Track feed, detail and owner mutations.
	router.HandleFunc("/api/tracks", h.GetTracksHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/tracks/{id}", h.GetTrackHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/tracks/{id}", h.AuthMiddleware(h.UpdateTrackHandler)).Methods(http.MethodPut, http.MethodOptions)
	router.HandleFunc("/api/tracks/{id}", h.AuthMiddleware(h.DeleteTrackHandler)).Methods(http.MethodDelete, http.MethodOptions)

	// Comments.
	router.HandleFunc("/api/tracks/{id}/comments", h.GetTrackCommentsHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/comments/{id}", h.AuthMiddleware(h.UpdateCommentHandler)).Methods(http.MethodPut, http.MethodOptions)
	router.HandleFunc("/api/comments/{id}", h.AuthMiddleware(h.DeleteCommentHandler)).Methods(http.MethodDelete, http.MethodOptions)

	// Reactions.
	router.HandleFunc("/api/tracks/{id}/reactions", h.OptionalAuthMiddleware(h.GetReactionsHandler)).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/tracks/{id}/reactions", h.AuthMiddleware(h.ToggleReactionHandler)).Methods(http.MethodPost, http.MethodOptions)

	// Profiles and themes.
	router.HandleFunc("/api/users/{id}", h.GetProfileHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/users/{id}/tracks", h.GetUserTracksHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/themes", h.GetThemesHandler).Methods(http.MethodGet, http.MethodOptions)
	router.HandleFunc("/api/themes/{id}/tracks", h.GetThemeTracksHandler).Methods(http.MethodGet, http.MethodOptions)

	return router
}

// Start initializes dependencies and runs the HTTP server until interrupted.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     30,
		Compress:   true,
	})

	store, err := storage.NewStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.MigrateGormModels(); err != nil {
		logger.Fatal("Failed to migrate GORM models", logger.ErrorField(err))
	}

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	userRepo := repository.NewMySQLUserRepository(db.DB)
	trackRepo := repository.NewMySQLTrackRepository(db.DB)
	commentRepo := repository.NewMySQLCommentRepository(db.DB)
	themeRepo := repository.NewGormThemeRepository(db.GormDB)
	reactionRepo := repository.NewGormReactionRepository(db.GormDB)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	resetTokens := auth.NewResetTokenStore(db.RedisClient, cfg.ResetTokenTTL)
	denylist := auth.NewTokenDenylist(db.RedisClient)
	themeCache := cache.NewThemeCache(db.RedisClient)

	apiHandler := NewAPIHandler(userRepo, trackRepo, commentRepo, themeRepo, reactionRepo,
		store, themeCache, tokens, resetTokens, denylist, cfg)

	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      Router(apiHandler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
