package main

import (
	"context"
	"log"
	"os"
	"strconv"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/api/swagger" // swagger docs
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/database"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/handler"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/middleware"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/notify"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/payment"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/repository"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/service"
	"github.com/GrimonprezAlexis/dev4com-gen-invoice-sub000/internal/websocket"
)

// @title           Quoting & Invoicing API
// @version         1.0
// @description     Quotes, billing invoices and the client-facing validation/payment workflow.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	dbHost := envOr("DB_HOST", "localhost")
	dbPort := envOr("DB_PORT", "5432")
	dbUser := envOr("DB_USER", "postgres")
	dbPassword := envOr("DB_PASSWORD", "postgres")
	dbName := envOr("DB_NAME", "postgres")
	dbSslMode := envOr("DB_SSLMODE", "disable")

	dsn := "postgres://" + dbUser + ":" + dbPassword + "@" + dbHost + ":" + dbPort + "/" + dbName + "?sslmode=" + dbSslMode

	db, err := database.NewConnection(dsn)
	if err != nil {
		log.Fatalf("Database connection failed: %v", err)
	}
	log.Println("Connected to PostgreSQL successfully.")

	// Set up WebSocket Hub for the owner dashboard
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Email outbox: persisted messages drained by a background worker
	smtpPort, _ := strconv.Atoi(envOr("SMTP_PORT", "587"))
	mailer := notify.NewSMTPMailer(
		envOr("SMTP_HOST", "localhost"),
		smtpPort,
		os.Getenv("SMTP_USERNAME"),
		os.Getenv("SMTP_PASSWORD"),
		envOr("SMTP_FROM", "no-reply@localhost"),
	)
	outboxRepo := repository.NewOutboxRepository(db)
	outbox := notify.NewOutbox(outboxRepo, mailer)
	go outbox.Run(context.Background())

	// Hosted checkout
	checkout := payment.NewStripeCheckout(os.Getenv("STRIPE_SECRET_KEY"))

	appBaseURL := envOr("APP_BASE_URL", "http://localhost:5173")

	// Set up dependencies (Repository -> Service -> Handler)
	userRepo := repository.NewUserRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	txManager := repository.NewTransactionManager(db)

	authService := service.NewAuthService(userRepo, middleware.GetJWTSecret())
	documentService := service.NewDocumentService(docRepo, userRepo, outbox, txManager, appBaseURL)
	validationService := service.NewValidationService(docRepo, checkout, outbox, wsHub, appBaseURL)

	// Initialize Handlers
	authHandler := handler.NewAuthHandler(authService)
	documentHandler := handler.NewDocumentHandler(documentService)
	validationHandler := handler.NewValidationHandler(validationService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{appBaseURL, "http://localhost:5173", "http://127.0.0.1:5173"}
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
	documentHandler.RegisterRoutes(router.Group(""))
	validationHandler.RegisterRoutes(router.Group(""))

	port := envOr("PORT", "8080")

	log.Printf("Server listening on :%s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
