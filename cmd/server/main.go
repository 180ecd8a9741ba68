package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"equishare/internal/config"
	"equishare/internal/database"
	"equishare/internal/handlers"
	"equishare/internal/repository"
	"equishare/internal/security"
	"equishare/internal/service"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database with config (supports sqlite, postgres, mysql)
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	log.Printf("Database connection established (type: %s)", cfg.DatabaseType)

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Migrations completed successfully")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	inviteRepo := repository.NewInviteRepository(db)
	expenseRepo := repository.NewExpenseRepository(db)

	// Initialize services
	emailService, err := service.NewEmailService(cfg.AWSRegion, cfg.SESFromEmail, cfg.SESFromName, cfg.AppBaseURL, cfg.EmailDebug)
	if err != nil {
		log.Fatalf("Failed to initialize email service: %v", err)
	}
	authService := service.NewAuthService(userRepo, emailService, cfg.SessionDuration)
	groupService := service.NewGroupService(groupRepo)
	inviteService := service.NewInviteService(inviteRepo, groupService, cfg.AppBaseURL)
	expenseService := service.NewExpenseService(expenseRepo, groupRepo)

	oauthProviders := map[string]handlers.OAuthProvider{
		"google": {
			Name:  "google",
			Label: "Google",
			Config: &oauth2.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				Endpoint:     google.Endpoint,
				Scopes:       []string{"openid", "email", "profile"},
			},
			UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		},
		"apple": {
			Name:  "apple",
			Label: "Apple",
			Config: &oauth2.Config{
				ClientID:     cfg.AppleClientID,
				ClientSecret: cfg.AppleClientSecret,
				Endpoint: oauth2.Endpoint{
					AuthURL:  "https://appleid.apple.com/auth/authorize",
					TokenURL: "https://appleid.apple.com/auth/token",
				},
				Scopes: []string{"name", "email"},
			},
			AuthParams: map[string]string{
				"response_mode": "query",
			},
		},
	}

	// Initialize handlers
	csrf := security.NewCSRFGenerator(cfg.SessionSecret)
	rateLimiter := security.NewRateLimiter(10, time.Minute)
	middleware := handlers.NewMiddleware(authService, csrf, rateLimiter)
	authHandler := handlers.NewAuthHandler(authService, csrf, oauthProviders, cfg.OAuthRedirectBaseURL)
	groupHandler := handlers.NewGroupHandler(groupService)
	inviteHandler := handlers.NewInviteHandler(inviteService, groupService, emailService)
	expenseHandler := handlers.NewExpenseHandler(expenseService)

	// Setup routes
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("POST /api/register", middleware.RateLimit(authHandler.Register))
	mux.HandleFunc("POST /api/login", middleware.RateLimit(authHandler.Login))
	mux.HandleFunc("POST /api/logout", authHandler.Logout)
	mux.HandleFunc("POST /api/forgot-password", middleware.RateLimit(authHandler.ForgotPassword))
	mux.HandleFunc("POST /api/reset-password", middleware.RateLimit(authHandler.ResetPassword))
	mux.HandleFunc("GET /auth/{provider}/start", authHandler.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", authHandler.OAuthCallback)

	// Invite landing page details are public so visitors can see what they
	// were invited to before signing in
	mux.HandleFunc("GET /api/invites/{token}", inviteHandler.GetInvite)

	// Protected routes
	mux.HandleFunc("GET /api/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("POST /api/groups", middleware.RequireAuth(middleware.CSRFProtect(groupHandler.CreateGroup)))
	mux.HandleFunc("GET /api/groups", middleware.RequireAuth(groupHandler.ListGroups))
	mux.HandleFunc("GET /api/groups/{id}", middleware.RequireAuth(groupHandler.GetGroup))
	mux.HandleFunc("POST /api/groups/{id}/leave", middleware.RequireAuth(middleware.CSRFProtect(groupHandler.LeaveGroup)))
	mux.HandleFunc("POST /api/groups/{id}/invites", middleware.RequireAuth(middleware.CSRFProtect(middleware.RateLimit(inviteHandler.CreateInvite))))
	mux.HandleFunc("GET /api/groups/{id}/invites", middleware.RequireAuth(inviteHandler.ListGroupInvites))
	mux.HandleFunc("POST /api/invites/{token}/accept", middleware.RequireAuth(middleware.CSRFProtect(inviteHandler.AcceptInvite)))
	mux.HandleFunc("POST /api/groups/{id}/expenses", middleware.RequireAuth(middleware.CSRFProtect(expenseHandler.CreateExpense)))
	mux.HandleFunc("GET /api/groups/{id}/expenses", middleware.RequireAuth(expenseHandler.ListGroupExpenses))
	mux.HandleFunc("GET /api/groups/{id}/balances", middleware.RequireAuth(expenseHandler.GetGroupBalances))

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlers.Logging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine so we can handle shutdown signals
	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
