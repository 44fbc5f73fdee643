package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/random"

	"taskhive/internal/caching"
	"taskhive/internal/handlers"
	"taskhive/internal/jobs/background"
	"taskhive/internal/middleware"
	"taskhive/internal/repositories"
	"taskhive/internal/services"
	"taskhive/pkg/database"
)

const version = "1.0.0"

func main() {
	// Database connection
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := database.NewPool(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Static usage tables are checked before anything can consume them
	if err := services.ValidateUsageTables(); err != nil {
		log.Fatalf("Usage table validation failed: %v", err)
	}

	// JWT configuration
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = random.String(32) // Generate random secret for development
		log.Printf("WARNING: Using generated JWT secret")
	}
	tokenTTL := 24 * time.Hour
	if ttlStr := os.Getenv("TOKEN_TTL_HOURS"); ttlStr != "" {
		if hours, err := strconv.Atoi(ttlStr); err == nil && hours > 0 {
			tokenTTL = time.Duration(hours) * time.Hour
		}
	}

	// Redis configuration
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379" // Default Redis address
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0 // Default DB
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		if db, err := strconv.Atoi(redisDBStr); err == nil {
			redisDB = db
		}
	}

	// MinIO configuration
	minioEndpoint := os.Getenv("MINIO_ENDPOINT")
	if minioEndpoint == "" {
		minioEndpoint = "localhost:9000" // Default MinIO endpoint
	}
	minioAccessKey := os.Getenv("MINIO_ACCESS_KEY")
	if minioAccessKey == "" {
		minioAccessKey = "minioadmin" // Default for development
	}
	minioSecretKey := os.Getenv("MINIO_SECRET_KEY")
	if minioSecretKey == "" {
		minioSecretKey = "minioadmin" // Default for development
	}
	minioBucket := os.Getenv("MINIO_BUCKET")
	if minioBucket == "" {
		minioBucket = "taskhive-attachments"
	}
	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	// Billing provider configuration
	billingAPIKey := os.Getenv("BILLING_API_KEY")
	billingAPISecret := os.Getenv("BILLING_API_SECRET")
	billingWebhookSecret := os.Getenv("BILLING_WEBHOOK_SECRET")
	billingBaseURL := os.Getenv("BILLING_BASE_URL")
	if billingBaseURL == "" {
		billingBaseURL = "https://api.billing.example.com/v1"
	}

	// Create repositories
	userRepo := repositories.NewUserRepository(pool)
	planRepo := repositories.NewPlanRepository(pool)
	subscriptionRepo := repositories.NewSubscriptionRepository(pool)
	freeUsageRepo := repositories.NewFreeUsageRepository(pool)
	projectRepo := repositories.NewProjectRepository(pool)
	teamRepo := repositories.NewTeamRepository(pool)
	taskRepo := repositories.NewTaskRepository(pool)
	attachmentRepo := repositories.NewAttachmentRepository(pool)
	notificationRepo := repositories.NewNotificationRepository(pool)

	// Create cache service
	cacheSvc := caching.NewRedisCacheService(redisAddr, redisPassword, redisDB)

	// Create services
	usageSvc := services.NewUsageService(subscriptionRepo, planRepo, freeUsageRepo, notificationRepo, cacheSvc)
	authSvc := services.NewAuthService(userRepo, freeUsageRepo, cacheSvc, jwtSecret, tokenTTL)
	billingSvc := services.NewBillingService(billingAPIKey, billingAPISecret, billingWebhookSecret, billingBaseURL)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo, planRepo, userRepo, notificationRepo, billingSvc, cacheSvc)
	planSvc := services.NewPlanService(planRepo, cacheSvc)
	projectSvc := services.NewProjectService(projectRepo, usageSvc)
	teamSvc := services.NewTeamService(teamRepo, notificationRepo, usageSvc)
	taskSvc := services.NewTaskService(taskRepo, projectRepo)
	notificationSvc := services.NewNotificationService(notificationRepo)

	storageSvc, err := services.NewStorageService(minioEndpoint, minioAccessKey, minioSecretKey, minioBucket, useSSL, attachmentRepo, usageSvc)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}
	if err := storageSvc.EnsureBucket(context.Background()); err != nil {
		log.Printf("WARN: Attachment bucket check failed: %v", err)
	}

	// Create handlers
	authHandlers := handlers.NewAuthHandlers(authSvc)
	planHandlers := handlers.NewPlanHandlers(planSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc)
	usageHandlers := handlers.NewUsageHandlers(usageSvc)
	projectHandlers := handlers.NewProjectHandlers(projectSvc)
	teamHandlers := handlers.NewTeamHandlers(teamSvc)
	taskHandlers := handlers.NewTaskHandlers(taskSvc)
	aiHandlers := handlers.NewAIHandlers(usageSvc)
	attachmentHandlers := handlers.NewAttachmentHandlers(storageSvc)
	webhookHandlers := handlers.NewWebhookHandlers(billingSvc, subscriptionSvc)
	notificationHandlers := handlers.NewNotificationHandlers(notificationSvc)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, storageSvc)

	// Background jobs
	jobScheduler := background.NewJobScheduler(usageSvc, subscriptionSvc, planSvc)
	if err := jobScheduler.Start(); err != nil {
		log.Fatalf("Failed to start job scheduler: %v", err)
	}
	defer jobScheduler.Stop()

	// Create Echo instance
	e := echo.New()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.RemoveTrailingSlash())

	// Version middleware
	versionMiddleware := middleware.NewVersionMiddleware()
	e.Use(versionMiddleware.APIVersionResolver())

	// Health endpoints (no auth required)
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)

	// Billing webhooks (signature-verified, no JWT)
	e.POST("/webhooks/billing", webhookHandlers.HandleBillingWebhook)

	// API routes
	v1 := e.Group("/v1")
	v1.Use(versionMiddleware.VersionHeader("v1"))

	// Authentication routes (no JWT required for signup/login)
	auth := v1.Group("/auth")
	auth.POST("/register", authHandlers.Register)
	auth.POST("/login", authHandlers.Login)

	// Public plan catalog
	v1.GET("/plans", planHandlers.ListPlans)
	v1.GET("/plans/:id", planHandlers.GetPlan)

	// Protected routes (require JWT)
	protected := v1.Group("")
	protected.Use(echojwt.WithConfig(middleware.JWTConfig(authSvc)))

	protected.GET("/me", authHandlers.Me)

	// Subscription and usage
	protected.POST("/subscription", subscriptionHandlers.Subscribe)
	protected.GET("/subscription", subscriptionHandlers.GetMine)
	protected.DELETE("/subscription", subscriptionHandlers.Cancel)
	protected.GET("/usage", usageHandlers.GetUsage)
	protected.POST("/usage/check", usageHandlers.CheckLimit)
	protected.POST("/usage/track", usageHandlers.TrackUsage)

	// Projects
	protected.GET("/projects", projectHandlers.ListProjects)
	protected.POST("/projects", projectHandlers.CreateProject)
	protected.GET("/projects/:id", projectHandlers.GetProject)
	protected.PUT("/projects/:id", projectHandlers.UpdateProject)
	protected.DELETE("/projects/:id", projectHandlers.DeleteProject)

	// Tasks
	protected.GET("/projects/:projectId/tasks", taskHandlers.ListTasks)
	protected.POST("/projects/:projectId/tasks", taskHandlers.CreateTask)
	protected.GET("/tasks/:id", taskHandlers.GetTask)
	protected.PUT("/tasks/:id", taskHandlers.UpdateTask)
	protected.DELETE("/tasks/:id", taskHandlers.DeleteTask)
	protected.POST("/tasks/:id/ai-assist", taskHandlers.AIAssist,
		middleware.QuotaMiddleware(usageSvc, services.OpAITask))

	// Teams
	protected.GET("/teams", teamHandlers.ListTeams)
	protected.POST("/teams", teamHandlers.CreateTeam)
	protected.GET("/teams/:id", teamHandlers.GetTeam)
	protected.DELETE("/teams/:id", teamHandlers.DeleteTeam)
	protected.GET("/teams/:id/members", teamHandlers.ListMembers)
	protected.POST("/teams/:id/members", teamHandlers.InviteMember)
	protected.DELETE("/teams/:id/members/:userId", teamHandlers.RemoveMember)

	// AI endpoints behind quota consumption
	protected.POST("/ai/chat", aiHandlers.Chat,
		middleware.QuotaMiddleware(usageSvc, services.OpAIChat))
	protected.POST("/ai/workflows/:id/run", aiHandlers.RunWorkflow,
		middleware.QuotaMiddleware(usageSvc, services.OpAIWorkflowRuns))

	// Attachments
	protected.GET("/projects/:projectId/attachments", attachmentHandlers.List)
	protected.POST("/projects/:projectId/attachments", attachmentHandlers.Upload)
	protected.GET("/attachments/:id/url", attachmentHandlers.Download)
	protected.DELETE("/attachments/:id", attachmentHandlers.Delete)

	// Notifications
	protected.GET("/notifications", notificationHandlers.List)
	protected.POST("/notifications/:id/read", notificationHandlers.MarkRead)

	// Admin console
	admin := protected.Group("/admin")
	admin.Use(middleware.AdminOnly())
	admin.POST("/plans", planHandlers.CreatePlan)
	admin.PUT("/plans/:id", planHandlers.UpdatePlan)
	admin.DELETE("/plans/:id", planHandlers.DeletePlan)
	admin.GET("/subscriptions", subscriptionHandlers.ListAll)

	// Start server
	portStr := os.Getenv("PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		log.Fatalf("Invalid port %s: %v", portStr, err)
	}

	log.Printf("Taskhive server v%s starting on port %d", version, port)

	e.Logger.Fatal(e.Start(fmt.Sprintf(":%d", port)))
}
