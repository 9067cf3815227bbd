package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"corpdesk-backend/internal/config"
	"corpdesk-backend/internal/cron"
	"corpdesk-backend/internal/database"
	"corpdesk-backend/internal/handlers"
	"corpdesk-backend/internal/middleware"
	"corpdesk-backend/internal/storage"
)

func main() {
	// 1. Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Connect to PostgreSQL
	db := database.New(&cfg.DB)
	defer db.Close()

	// 3. Initialize file storage (R2 when configured, local disk otherwise)
	var fileStore storage.Store
	if cfg.R2.AccountID != "" {
		fileStore, err = storage.NewR2Store(
			cfg.R2.AccountID, cfg.R2.AccessKey, cfg.R2.SecretKey,
			cfg.R2.Bucket, cfg.R2.PublicURL,
		)
		if err != nil {
			log.Fatalf("Failed to initialize R2 storage: %v", err)
		}
		log.Println("File storage: Cloudflare R2")
	} else {
		fileStore, err = storage.NewLocalStore(cfg.Upload.Dir, cfg.Upload.BaseURL)
		if err != nil {
			log.Fatalf("Failed to initialize file storage: %v", err)
		}
		log.Println("File storage: local disk")
	}

	// 4. Set up router with global middleware
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "http://localhost:3001"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 5. Initialize handlers with their dependencies
	authHandler := handlers.NewAuthHandler(db, cfg.JWTSecret)
	contactHandler := handlers.NewContactHandler(db)
	documentHandler := handlers.NewDocumentHandler(db)
	dashboardHandler := handlers.NewDashboardHandler(db)
	notificationHandler := handlers.NewNotificationHandler(db)
	userHandler := handlers.NewUserManagementHandler(db)
	uploadHandler := handlers.NewUploadHandler(fileStore)

	// Start background cron jobs
	cron.StartNotifier(db)

	// 6. Public routes (no authentication required)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("CorpDesk API"))
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(db.Health())
	})

	// Auth routes — public, with login rate-limited per IP
	r.Post("/api/auth/register", authHandler.Register)
	r.With(middleware.RateLimit(rate.Every(12*time.Second), 5)).
		Post("/api/auth/login", authHandler.Login)

	// Serve uploaded files (redirects to CDN when R2 is configured)
	r.Get("/api/files/*", uploadHandler.ServeFile)

	// 7. Protected routes (require valid JWT)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.InjectClientScope(db.GetPool()))

		// Current user profile
		r.Get("/api/auth/me", authHandler.GetMe)

		// File upload
		r.Post("/api/upload", uploadHandler.Upload)

		// Dashboard (read-only — accessible to all authenticated users)
		r.Get("/api/dashboard/metrics", dashboardHandler.GetMetrics)
		r.Get("/api/dashboard/expiring", dashboardHandler.GetExpiryAlerts)
		r.Get("/api/dashboard/tax-deadlines", dashboardHandler.GetTaxDeadlines)
		r.Get("/api/dashboard/compliance", dashboardHandler.GetComplianceOverview)

		// Notifications (user-scoped, all authenticated users)
		r.Get("/api/notifications", notificationHandler.List)
		r.Get("/api/notifications/count", notificationHandler.UnreadCount)
		r.Patch("/api/notifications/read-all", notificationHandler.MarkAllRead)
		r.Patch("/api/notifications/{id}/read", notificationHandler.MarkRead)

		// Read-only contact & document endpoints — accessible to viewers
		r.Get("/api/contacts", contactHandler.List)
		r.Route("/api/contacts/{id}", func(r chi.Router) {
			r.Get("/", contactHandler.GetByID)
			r.Get("/tax-summary", contactHandler.TaxSummary)
			r.Get("/documents", documentHandler.ListByContact)
		})
		r.Get("/api/documents/{id}", documentHandler.GetByID)

		// Write operations restricted to staff and above
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("staff"))

			// Contact write operations
			r.Post("/api/contacts", contactHandler.Create)
			r.Put("/api/contacts/{id}", contactHandler.Update)
			r.Patch("/api/contacts/{id}/tax", contactHandler.UpdateTaxProfile)

			// Document write operations (nested under contact for create)
			r.Post("/api/contacts/{contactId}/documents", documentHandler.Create)
			r.Route("/api/documents/{id}", func(r chi.Router) {
				r.Put("/", documentHandler.Update)
				r.Post("/renew", documentHandler.Renew)
			})
		})

		// Destructive operations restricted to admin role
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireMinRole("admin"))

			r.Delete("/api/contacts/{id}", contactHandler.Delete)
			r.Post("/api/contacts/batch-delete", contactHandler.BatchDelete)
			r.Delete("/api/documents/{id}", documentHandler.Delete)
			r.Post("/api/documents/batch-delete", documentHandler.BatchDelete)

			// User administration
			r.Get("/api/users", userHandler.List)
			r.Patch("/api/users/{id}/role", userHandler.UpdateRole)
			r.Delete("/api/users/{id}", userHandler.Delete)
			r.Get("/api/users/{id}/clients", userHandler.GetUserClients)
			r.Put("/api/users/{id}/clients", userHandler.SetUserClients)
		})
	})

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server started on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-done
	log.Println("Server stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited properly")
}
