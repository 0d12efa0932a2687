package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/b2wmke/miletracker-backend/internal/api/handlers"
	"github.com/b2wmke/miletracker-backend/internal/api/middleware"
	"github.com/b2wmke/miletracker-backend/internal/config"
	"github.com/b2wmke/miletracker-backend/internal/cron"
	"github.com/b2wmke/miletracker-backend/internal/db"
	"github.com/b2wmke/miletracker-backend/internal/identity"
	"github.com/b2wmke/miletracker-backend/internal/repository"
	"github.com/b2wmke/miletracker-backend/internal/seed"
	"github.com/b2wmke/miletracker-backend/internal/service"
	"github.com/b2wmke/miletracker-backend/internal/socket"
)

func main() {
	// ============================================
	// Load environment variables
	// ============================================
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, using environment variables")
	}

	cfg := config.Load()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	// ============================================
	// Run Database Migrations
	// ============================================
	migrationsPath := "./internal/db/migrations"
	if err := db.RunMigrations(cfg.DatabaseURL, migrationsPath); err != nil {
		logrus.WithError(err).Fatal("migration failed")
	}
	logrus.Info("database migrations completed")

	// ============================================
	// Initialize PostgreSQL
	// ============================================
	pg, err := db.NewPostgresDB(cfg.DatabaseURL)
	if err != nil {
		logrus.WithError(err).Fatal("failed to connect to PostgreSQL")
	}
	defer pg.Close()

	repos := repository.NewRepositories(pg.Pool)
	identityProvider := identity.NewLocalProvider(pg.Pool)

	// ============================================
	// Initialize Redis (optional)
	// ============================================
	var redisDB *db.RedisDB
	if cfg.RedisURL != "" {
		redisDB, err = db.NewRedisDB(cfg.RedisURL)
		if err != nil {
			logrus.WithError(err).Warn("failed to connect to Redis, continuing without cache")
			redisDB = nil
		} else {
			defer redisDB.Close()
			logrus.Info("redis cache enabled")
		}
	}

	// ============================================
	// Initialize WebSocket Hub
	// ============================================
	hub := socket.NewHub()
	go hub.Run()
	broadcaster := socket.NewBroadcaster(hub)
	wsHandler := socket.NewHandler(hub, cfg.JWTSecret)

	// ============================================
	// Seed Data (for development)
	// ============================================
	if cfg.Environment != "production" {
		seed.SeedData(repos, identityProvider)
	}

	// ============================================
	// Initialize Services and Handlers
	// ============================================
	services := service.NewServices(&service.ServiceDeps{
		Config:      cfg,
		Repos:       repos,
		Identity:    identityProvider,
		Redis:       redisDB,
		Broadcaster: broadcaster,
	})
	h := handlers.NewHandlers(services)

	// ============================================
	// Initialize Cron Scheduler
	// ============================================
	cronScheduler := cron.NewScheduler(services, repos.OperationLogRepo)
	cronScheduler.Start()
	defer cronScheduler.Stop()

	// ============================================
	// Create Gin Router
	// ============================================
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL, "http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
		})
	})

	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/invitation", h.Auth.CheckInvitation)
		}
		api.GET("/users/check-username", h.User.CheckUserName)
		api.GET("/teams/leaderboard", h.Team.Leaderboard)

		// WebSocket route
		api.GET("/ws", wsHandler.HandleWebSocket)

		// Protected routes
		protected := api.Group("")
		protected.Use(middleware.AuthMiddleware(services.Auth))
		{
			users := protected.Group("/users")
			{
				users.GET("/me", h.User.GetCurrentUser)
				users.GET("/:id", h.User.GetUser)
				users.POST("/me/leave-team", h.User.LeaveTeam)
			}

			teams := protected.Group("/teams")
			{
				teams.GET("", h.Team.ListTeams)
				teams.GET("/:id", h.Team.GetTeam)
				teams.PUT("/:id", h.Team.UpdateTeam)
				teams.GET("/:id/members", h.Team.GetMembers)
				teams.GET("/:id/activity", h.Team.GetTeamActivity)
				teams.GET("/:id/invitations", h.Team.GetPendingInvitations)
				teams.DELETE("/:id/members/:userId", h.Team.RemoveMember)
				teams.PATCH("/:id/members/:userId/role", h.Team.ChangeMemberRole)
			}

			invitations := protected.Group("/invitations")
			{
				invitations.POST("", h.Invitation.Create)
				invitations.DELETE("/:email", h.Invitation.Cancel)
			}

			activity := protected.Group("/activity")
			{
				activity.POST("", h.Activity.LogMiles)
				activity.GET("", h.Activity.GetHistory)
			}

			admin := protected.Group("/admin")
			admin.Use(middleware.RequireAppAdmin(services.User))
			{
				admin.GET("/stats", h.Admin.GetStats)
				admin.GET("/users", h.Admin.ListUsers)
				admin.GET("/invitations", h.Admin.ListAdminInvitations)
				admin.POST("/invitations", h.Invitation.Create)
				admin.PATCH("/users/:id/role", h.Admin.ChangeUserRole)
			}
		}
	}

	// ============================================
	// Start Server with Graceful Shutdown
	// ============================================
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	go func() {
		logrus.WithField("port", cfg.Port).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithError(err).Fatal("forced shutdown")
	}
	logrus.Info("server exited")
}
