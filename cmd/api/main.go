package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	"github.com/hwg121/taskmanagement/internal/config"
	"github.com/hwg121/taskmanagement/internal/handler"
	"github.com/hwg121/taskmanagement/internal/middleware"
	"github.com/hwg121/taskmanagement/internal/models"
	"github.com/hwg121/taskmanagement/internal/repository"
	"github.com/hwg121/taskmanagement/internal/service"
	"github.com/hwg121/taskmanagement/internal/stats"
	"github.com/hwg121/taskmanagement/internal/utils/email"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
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
	repo := repository.NewRepository(db)
	if err := repo.InitSchema(); err != nil {
		logger.Fatalf("Failed to initialize schema: %v", err)
	}

	// Resume the stats simulation from the last persisted snapshot.
	var initial models.SystemStats
	if saved, err := repo.GetSystemStats(); err == nil {
		initial = *saved
	}
	sim := stats.New(initial)

	mailer := email.NewSender(cfg, logger)
	svc := service.NewService(repo, logger, cfg, sim, mailer)
	if err := svc.EnsureAdmin(); err != nil {
		logger.Fatalf("Failed to seed admin account: %v", err)
	}
	h := handler.NewHandler(svc, logger, repo)

	// Refresh the simulated stats every 2 seconds; persist the
	// snapshot once a minute so restarts resume smoothly.
	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc("*/2 * * * * *", func() { sim.Tick() }); err != nil {
		logger.Fatalf("Failed to schedule stats refresh: %v", err)
	}
	if _, err := scheduler.AddFunc("0 * * * * *", func() {
		snapshot := sim.Current()
		if err := repo.SaveSystemStats(&snapshot); err != nil {
			logger.Errorf("Failed to persist system stats: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule stats persistence: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.RequestLogger(logger))

	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/health", h.Health).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/logout", h.Logout).Methods("POST")
	authRouter.HandleFunc("/tasks", h.ListTasks).Methods("GET")
	authRouter.HandleFunc("/tasks", h.CreateTask).Methods("POST")
	authRouter.HandleFunc("/tasks/{id}", h.GetTask).Methods("GET")
	authRouter.HandleFunc("/tasks/{id}", h.UpdateTask).Methods("PATCH")
	authRouter.HandleFunc("/tasks/{id}", h.DeleteTask).Methods("DELETE")
	authRouter.HandleFunc("/users/{id}", h.GetUser).Methods("GET")
	authRouter.HandleFunc("/users/{id}", h.UpdateUser).Methods("PATCH")
	authRouter.HandleFunc("/activities", h.LogActivity).Methods("POST")
	authRouter.HandleFunc("/system-stats", h.GetSystemStats).Methods("GET")

	// Admin-only routes
	adminRouter := r.PathPrefix("/").Subrouter()
	adminRouter.Use(middleware.AuthMiddleware(cfg), middleware.AdminOnly)
	adminRouter.HandleFunc("/users", h.ListUsers).Methods("GET")
	adminRouter.HandleFunc("/users", h.CreateUser).Methods("POST")
	adminRouter.HandleFunc("/users/{id}", h.DeleteUser).Methods("DELETE")
	adminRouter.HandleFunc("/activities", h.ListActivities).Methods("GET")
	adminRouter.HandleFunc("/activities/export", h.ExportActivities).Methods("GET")
	adminRouter.HandleFunc("/system-stats", h.OverrideSystemStats).Methods("POST")

	// CORS for the browser frontend
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      c.Handler(r),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
	logger.Info("Server stopped")
}
