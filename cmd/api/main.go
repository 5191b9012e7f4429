package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"quarterdeck/internal/config"
	"quarterdeck/internal/database"
	_ "quarterdeck/internal/docs" // Import swagger docs
	"quarterdeck/internal/events"
	"quarterdeck/internal/handlers"
	"quarterdeck/internal/logger"
	"quarterdeck/internal/middleware"
	"quarterdeck/internal/models"
	"quarterdeck/internal/pagination"
	"quarterdeck/internal/resources"
	"quarterdeck/internal/services"
	"quarterdeck/internal/validator"
)

// @title           Quarterdeck API
// @version         1.0
// @description     Quarterdeck is a homelab operations dashboard backend with a full audit trail: every mutation is recorded, deletions can be restored, updates can be reverted, and open sessions receive live change events.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Custom binding validators
	validator.Register()

	// Initialize services
	db := dbManager.DB()
	auditService := services.NewAuditService(db)
	userService := services.NewUserService(db)
	serviceService := services.NewServiceService(db)
	hostService := services.NewHostService(db)
	sshHostService := services.NewSSHHostService(db)
	categoryService := services.NewCategoryService(db)

	// Seed the first admin so a fresh install can log in. There is no open
	// registration endpoint.
	if err := seedAdmin(userService, appConfig); err != nil {
		return fmt.Errorf("failed to seed admin account: %w", err)
	}

	// Register the store adapters the undo engines drive
	registry := resources.NewRegistry()
	registry.Register(serviceService)
	registry.Register(hostService)
	registry.Register(sshHostService)
	registry.Register(categoryService)
	registry.Register(userService)

	hub := events.NewHub()
	undoService := services.NewUndoService(auditService, registry, hub)

	// Initialize handlers
	trail := handlers.NewTrail(auditService, hub)
	authHandler := handlers.NewAuthHandler(userService, auditService)
	serviceHandler := handlers.NewServiceHandler(serviceService, trail)
	hostHandler := handlers.NewHostHandler(hostService, trail)
	sshHostHandler := handlers.NewSSHHostHandler(sshHostService, trail)
	categoryHandler := handlers.NewCategoryHandler(categoryService, trail)
	userHandler := handlers.NewUserHandler(userService, trail)
	auditHandler := handlers.NewAuditHandler(auditService, undoService, hub)
	eventsHandler := handlers.NewEventsHandler(hub)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// Live change events
	protected.GET("/events", eventsHandler.Stream)

	// Service routes
	svc := protected.Group("/services")
	svc.POST("", serviceHandler.CreateService)
	svc.GET("", serviceHandler.GetServices)
	svc.GET("/:id", serviceHandler.GetService)
	svc.PUT("/:id", serviceHandler.UpdateService)
	svc.DELETE("/:id", serviceHandler.DeleteService)

	// Host routes
	hosts := protected.Group("/hosts")
	hosts.POST("", hostHandler.CreateHost)
	hosts.GET("", hostHandler.GetHosts)
	hosts.GET("/:id", hostHandler.GetHost)
	hosts.PUT("/:id", hostHandler.UpdateHost)
	hosts.DELETE("/:id", hostHandler.DeleteHost)
	hosts.POST("/:id/wake", hostHandler.WakeHost)

	// SSH host routes
	sshHosts := protected.Group("/ssh-hosts")
	sshHosts.POST("", sshHostHandler.CreateSSHHost)
	sshHosts.GET("", sshHostHandler.GetSSHHosts)
	sshHosts.GET("/:id", sshHostHandler.GetSSHHost)
	sshHosts.PUT("/:id", sshHostHandler.UpdateSSHHost)
	sshHosts.DELETE("/:id", sshHostHandler.DeleteSSHHost)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	// Audit trail routes
	auditGroup := protected.Group("/audit")
	auditGroup.GET("", auditHandler.GetAuditRecords)
	auditGroup.POST("/restore/:type/:id", auditHandler.RestoreRecord)
	auditGroup.POST("/revert/:type/:id", auditHandler.RevertRecord)
	auditGroup.DELETE("", middleware.RequireAdmin(), auditHandler.PurgeRecords)

	// User administration routes (admin only)
	users := protected.Group("/users")
	users.Use(middleware.RequireAdmin())
	users.POST("", userHandler.CreateUser)
	users.GET("", userHandler.GetUsers)
	users.GET("/:id", userHandler.GetUser)
	users.PUT("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	log.Infof("Starting Quarterdeck backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}

// seedAdmin creates the initial admin account when no users exist yet.
func seedAdmin(userService services.UserServicer, cfg *config.Config) error {
	result, err := userService.GetUsers(pagination.PageRequest{Page: 1, PageSize: 1})
	if err != nil {
		return err
	}
	if result.TotalItems > 0 {
		return nil
	}

	user, err := userService.CreateUser(cfg.AdminUsername, cfg.AdminPassword, models.RoleAdmin)
	if err != nil {
		return err
	}
	logger.Get().Infow("seeded initial admin account",
		"username", user.Username,
		"user_id", user.ID,
	)
	return nil
}
