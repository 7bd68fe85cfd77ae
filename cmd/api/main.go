package main

import (
	"log"

	_ "github.com/hungle-gif/operisbe/api/swagger" // swagger docs
	"github.com/hungle-gif/operisbe/internal/config"
	"github.com/hungle-gif/operisbe/internal/database"
	"github.com/hungle-gif/operisbe/internal/handler"
	"github.com/hungle-gif/operisbe/internal/middleware"
	"github.com/hungle-gif/operisbe/internal/qr"
	"github.com/hungle-gif/operisbe/internal/repository"
	"github.com/hungle-gif/operisbe/internal/service"
	"github.com/hungle-gif/operisbe/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           Operis Portal API
// @version         1.0
// @description     Management portal for software projects: proposals, payments, chat and service catalog.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg := config.Load()

	db, err := database.NewConnection(cfg.DSN)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Set up dependencies (Repository -> Service -> Handler)
	txm := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	proposalRepo := repository.NewProposalRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	chatRepo := repository.NewChatRepository(db)
	feedbackRepo := repository.NewFeedbackRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	qrAccount := qr.Account{
		BankCode: cfg.QRBankCode,
		Number:   cfg.QRAccountNo,
		Name:     cfg.QRAccountName,
	}

	authService := service.NewAuthService(userRepo, txm)
	userService := service.NewUserService(userRepo, txm)
	projectService := service.NewProjectService(projectRepo, userRepo)
	proposalService := service.NewProposalService(proposalRepo, projectRepo, transactionRepo, txm, projectService, wsHub, qrAccount)
	chatService := service.NewChatService(chatRepo, projectService, wsHub)
	feedbackService := service.NewFeedbackService(feedbackRepo, projectRepo, txm, projectService, wsHub)
	catalogService := service.NewCatalogService(catalogRepo, projectRepo, userRepo, chatRepo, txm, projectService)
	templateService := service.NewTemplateService(templateRepo)
	financeService := service.NewFinanceService(transactionRepo, proposalRepo, projectService)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)
	projectHandler := handler.NewProjectHandler(projectService, financeService)
	proposalHandler := handler.NewProposalHandler(proposalService)
	chatHandler := handler.NewChatHandler(chatService)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService)
	serviceHandler := handler.NewServiceHandler(catalogService)
	templateHandler := handler.NewTemplateHandler(templateService)
	transactionHandler := handler.NewTransactionHandler(financeService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, middleware.GetJWTSecret())
	})

	// Register API Routes
	authHandler.RegisterRoutes(router.Group(""))
	userHandler.RegisterRoutes(router.Group(""))
	projectHandler.RegisterRoutes(router.Group(""))
	proposalHandler.RegisterRoutes(router.Group(""))
	chatHandler.RegisterRoutes(router.Group(""))
	feedbackHandler.RegisterRoutes(router.Group(""))
	serviceHandler.RegisterRoutes(router.Group(""))
	templateHandler.RegisterRoutes(router.Group(""))
	transactionHandler.RegisterRoutes(router.Group(""))

	log.Printf("Server listening on :%s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
