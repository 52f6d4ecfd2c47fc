package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"famledger/internal/clock"
	"famledger/internal/config"
	"famledger/internal/database"
	"famledger/internal/email"
	"famledger/internal/handlers"
	"famledger/internal/logger"
	"famledger/internal/middleware"
	"famledger/internal/scheduler"
	"famledger/internal/services"
	"famledger/internal/validator"

	_ "famledger/internal/docs" // Import swagger docs
)

// @title           Famledger API
// @version         1.0
// @description     Famledger is a household budgeting service for families: guardians schedule allowances, review money requests and chores, and set spending limits on child accounts.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description Shared key for maintenance endpoints.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Services
	db := dbManager.DB()
	clk := clock.System{}
	mailer := email.NewClient(appConfig.EmailServerToken, appConfig.EmailFrom, appConfig.EmailBaseURL)

	userService := services.NewUserService(db, clk)
	householdService := services.NewHouseholdService(db)
	notificationService := services.NewNotificationService(db, mailer, clk)
	childAccountService := services.NewChildAccountService(db, householdService, clk)
	choreService := services.NewChoreService(db, householdService, notificationService, clk)
	allowanceService := services.NewAllowanceService(db, householdService, childAccountService, choreService, notificationService, clk)
	moneyRequestService := services.NewMoneyRequestService(db, householdService, childAccountService, notificationService, clk)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	householdHandler := handlers.NewHouseholdHandler(householdService, auditService)
	childAccountHandler := handlers.NewChildAccountHandler(childAccountService, householdService, auditService)
	allowanceHandler := handlers.NewAllowanceHandler(allowanceService, householdService, auditService)
	moneyRequestHandler := handlers.NewMoneyRequestHandler(moneyRequestService, auditService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	choreHandler := handlers.NewChoreHandler(choreService, householdService, auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")

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

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	// Household routes
	households := protected.Group("/households")
	households.POST("", householdHandler.CreateHousehold)
	households.GET("/:id", householdHandler.GetHousehold)
	households.POST("/:id/members", householdHandler.AddMember)
	households.GET("/:id/members", householdHandler.GetMembers)

	// Child account routes
	households.POST("/:id/accounts", childAccountHandler.EnrollChild)
	households.GET("/:id/accounts/:childId", childAccountHandler.GetAccount)
	households.PUT("/:id/accounts/:childId/limits", childAccountHandler.UpdateLimits)
	households.GET("/:id/accounts/:childId/totals", childAccountHandler.GetSpendTotals)
	households.POST("/:id/accounts/:childId/spend/preview", childAccountHandler.PreviewSpend)
	households.POST("/:id/spend", childAccountHandler.Spend)

	// Allowance routes
	households.POST("/:id/allowances", allowanceHandler.CreateAllowance)
	households.GET("/:id/allowances", allowanceHandler.GetHouseholdAllowances)
	allowances := protected.Group("/allowances")
	allowances.PUT("/:allowanceId", allowanceHandler.UpdateAllowance)
	allowances.DELETE("/:allowanceId", allowanceHandler.DeactivateAllowance)
	allowances.GET("/:allowanceId/payments", allowanceHandler.GetPaymentHistory)

	// Money request routes
	households.POST("/:id/requests", moneyRequestHandler.CreateRequest)
	households.GET("/:id/requests/mine", moneyRequestHandler.GetMyRequests)
	households.GET("/:id/requests/queue", moneyRequestHandler.GetApprovalQueue)
	requests := protected.Group("/requests")
	requests.POST("/:requestId/approve", moneyRequestHandler.ApproveRequest)
	requests.POST("/:requestId/reject", moneyRequestHandler.RejectRequest)

	// Chore routes
	households.POST("/:id/chores", choreHandler.CreateChore)
	households.GET("/:id/chores", choreHandler.GetChores)
	chores := protected.Group("/chores")
	chores.POST("/:choreId/complete", choreHandler.MarkComplete)
	completions := protected.Group("/completions")
	completions.POST("/:completionId/review", choreHandler.ReviewCompletion)

	// Notification routes
	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.GET("/unread-count", notificationHandler.GetUnreadCount)
	notifications.POST("/read-all", notificationHandler.MarkAllRead)
	notifications.POST("/:notificationId/read", notificationHandler.MarkRead)
	notifications.POST("/:notificationId/archive", notificationHandler.Archive)
	notifications.PUT("/preferences", notificationHandler.SetPreference)

	// Maintenance routes, guarded by the shared API key
	maintenance := v1.Group("/maintenance")
	maintenance.Use(middleware.MaintenanceAuthMiddleware(appConfig.MaintenanceAPIKey))
	maintenance.POST("/allowances/process", allowanceHandler.ProcessDuePayments)
	maintenance.POST("/notifications/sweep", notificationHandler.SweepExpired)

	// Background scheduler
	sched := scheduler.New(allowanceService, notificationService, appConfig.SchedulerInterval)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	sched.Start(ctx)
	defer sched.Stop()

	log.Infof("Starting Famledger backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
