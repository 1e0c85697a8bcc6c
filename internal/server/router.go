// Package server assembles the HTTP router.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"smsledger/internal/handlers"
	"smsledger/internal/middleware"
	"smsledger/internal/services"

	_ "smsledger/internal/docs" // Import swagger docs
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Options configures the router.
type Options struct {
	CORSOrigin   string
	JWTSecret    []byte
	TokenTTL     time.Duration
	IngestAPIKey string
	StoreBackend string

	// RateLimit requests per RateWindow per client IP on /api. Zero disables it.
	RateLimit  int
	RateWindow time.Duration
}

// Services are the dependencies the handlers call.
type Services struct {
	SMS          services.SMSServicer
	Transactions services.TransactionServicer
	Audit        services.AuditServicer
}

// NewRouter builds the gin engine with every API route registered.
func NewRouter(opts Options, svc Services) *gin.Engine {
	deviceHandler := handlers.NewDeviceHandler(opts.JWTSecret, opts.TokenTTL, svc.Audit)
	smsHandler := handlers.NewSMSHandler(svc.SMS, svc.Audit)
	transactionHandler := handlers.NewTransactionHandler(svc.Transactions, svc.Audit)

	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.CORS(opts.CORSOrigin))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "SMS Ledger API",
			"version": Version,
			"endpoints": gin.H{
				"health":       "/api/health",
				"devices":      "/api/v1/devices/token",
				"sms":          "/api/v1/sms",
				"transactions": "/api/v1/transactions",
				"docs":         "/swagger/index.html",
			},
		})
	})

	api := router.Group("/api")
	if opts.RateLimit > 0 {
		api.Use(middleware.NewRateLimiter(opts.RateLimit, opts.RateWindow).Middleware())
	}

	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"store":     opts.StoreBackend,
		})
	})

	v1 := api.Group("/v1")
	v1.Use(middleware.DeviceIdentity(opts.JWTSecret))

	v1.POST("/devices/token", deviceHandler.IssueToken)

	sms := v1.Group("/sms")
	sms.POST("/parse", smsHandler.ParseSMS)
	sms.POST("/validate", smsHandler.ValidateSMS)
	sms.POST("/batch", middleware.IngestAuthMiddleware(opts.IngestAPIKey), middleware.RequireDevice(), smsHandler.BatchSMS)

	transactions := v1.Group("/transactions")
	transactions.Use(middleware.RequireDevice())
	transactions.GET("", transactionHandler.ListTransactions)
	transactions.GET("/summary", transactionHandler.GetSummary)
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	return router
}
