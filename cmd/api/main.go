package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Dan9191/card-service/internal/auth"
	"github.com/Dan9191/card-service/internal/cards"
	"github.com/Dan9191/card-service/internal/config"
	"github.com/Dan9191/card-service/internal/crypto"
	"github.com/Dan9191/card-service/internal/handler"
	"github.com/Dan9191/card-service/internal/middleware"
	"github.com/Dan9191/card-service/internal/repository"
	"github.com/Dan9191/card-service/internal/utils/email"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/gorilla/mux"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	_ = godotenv.Load()
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	encryptor, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		logger.Fatalf("Failed to initialize encryptor: %v", err)
	}
	cardRepo := repository.NewCardRepository(db)
	userRepo := repository.NewUserRepository(db)
	rules := cards.NewRules(cardRepo, logger)
	lifecycle := cards.NewLifecycleService(cardRepo, userRepo, rules, encryptor, logger)
	transfers := cards.NewTransferService(cardRepo, userRepo, rules, logger)
	authSvc := auth.NewService(userRepo, logger, cfg)
	h := handler.NewHandler(authSvc, lifecycle, transfers, logger)

	var notifier cards.Notifier
	if cfg.SMTPEnabled() {
		notifier = email.NewSender(cfg, userRepo, logger)
	}
	sweeper := cards.NewSweeper(cardRepo, notifier, logger)

	// Schedule the daily expiration sweep at midnight
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("0 0 * * *", func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if err := sweeper.Sweep(ctx); err != nil {
			logger.Errorf("Expiration sweep failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule expiration sweep: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.Auth(cfg))
	authRouter.HandleFunc("/cards", h.ListMyCards).Methods("GET")
	authRouter.HandleFunc("/cards/{id}", h.GetCard).Methods("GET")
	authRouter.HandleFunc("/cards/{id}/block", h.BlockCard).Methods("POST")
	authRouter.HandleFunc("/transfer", h.Transfer).Methods("POST")
	// Admin routes
	adminRouter := authRouter.PathPrefix("/admin").Subrouter()
	adminRouter.Use(middleware.RequireAdmin)
	adminRouter.HandleFunc("/cards", h.AdminCreateCard).Methods("POST")
	adminRouter.HandleFunc("/cards", h.AdminListCards).Methods("GET")
	adminRouter.HandleFunc("/cards/{id}", h.AdminGetCard).Methods("GET")
	adminRouter.HandleFunc("/cards/{id}", h.AdminDeleteCard).Methods("DELETE")
	adminRouter.HandleFunc("/cards/{id}/block", h.AdminBlockCard).Methods("POST")
	adminRouter.HandleFunc("/cards/{id}/activate", h.AdminActivateCard).Methods("POST")
	adminRouter.HandleFunc("/cards/{id}/topup", h.AdminTopUpCard).Methods("POST")
	adminRouter.HandleFunc("/cards/{id}/number", h.AdminRevealCardNumber).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
