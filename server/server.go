package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/mattislub/Timed-Audio-Queue/cache"
	"github.com/mattislub/Timed-Audio-Queue/config"
	"github.com/mattislub/Timed-Audio-Queue/core/auth"
	"github.com/mattislub/Timed-Audio-Queue/db"
	"github.com/mattislub/Timed-Audio-Queue/logger"
	"github.com/mattislub/Timed-Audio-Queue/repository"
	"github.com/mattislub/Timed-Audio-Queue/storage"
)

// Start initializes dependencies and runs the HTTP server until it
// receives an interrupt.
func Start(cfg *config.Config) {
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := cache.ConnectRedis(cfg); err != nil {
		logger.Fatal("failed to connect to Redis", logger.ErrorField(err))
	}
	defer cache.CloseRedis()

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database schema", logger.ErrorField(err))
	}

	auth.Init(cfg.JWTSecret)

	recordingRepo := repository.NewMySQLRecordingRepository(db.DB)
	userRepo := repository.NewMySQLUserRepository(db.DB)
	shareRepo := repository.NewGormShareRepository(db.GormDB)

	hub := NewNotifyHub()
	apiHandler := NewAPIHandler(recordingRepo, shareRepo, userRepo, hub, cfg)

	router := mux.NewRouter()
	router.Use(corsMiddleware)

	// Auth
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	// Recordings
	router.HandleFunc("/api/recordings", apiHandler.AuthMiddleware(apiHandler.ListRecordingsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/recordings", apiHandler.AuthMiddleware(apiHandler.UploadRecordingHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/recordings/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteRecordingHandler)).Methods(http.MethodDelete)

	// Shares
	router.HandleFunc("/api/recordings/{id}/shares", apiHandler.AuthMiddleware(apiHandler.CreateShareHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/recordings/{id}/shares", apiHandler.AuthMiddleware(apiHandler.ListSharesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/shares/{token}", apiHandler.ResolveShareHandler).Methods(http.MethodGet)

	// Repeat configuration
	router.HandleFunc("/api/repeat-config", apiHandler.AuthMiddleware(apiHandler.GetRepeatConfigHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/repeat-config", apiHandler.AuthMiddleware(apiHandler.UpdateRepeatConfigHandler)).Methods(http.MethodPut)

	// Audio bytes and change notifications
	router.HandleFunc("/audio/{id}", apiHandler.StreamAudioHandler).Methods(http.MethodGet)
	router.HandleFunc("/ws/notify", hub.ServeWS)

	server.Handler = router

	reaperCtx, cancelReaper := context.WithCancel(context.Background())
	defer cancelReaper()
	reaper := NewReaper(recordingRepo, shareRepo, hub, cfg.RecordingTTL)
	go reaper.Run(reaperCtx)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ServerAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")
	cancelReaper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}
	logger.Info("server stopped")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
