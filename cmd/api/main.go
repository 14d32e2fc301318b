package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	_ "inventory-api/api/swagger" // swagger docs
	"inventory-api/internal/config"
	"inventory-api/internal/database"
	"inventory-api/internal/handler"
	"inventory-api/internal/logger"
	"inventory-api/internal/middleware"
	"inventory-api/internal/repository"
	"inventory-api/internal/service"
	"inventory-api/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// @title           Supplement Inventory API
// @version         1.0
// @description     Products with serialized units, orders, sales analytics and stock alerts.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Config load failed", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(logger.New(os.Stdout, cfg.Log.Level, cfg.Log.Format))
	gin.SetMode(cfg.App.GinMode)
	decimal.MarshalJSONWithoutQuotes = true

	db, err := database.NewConnection(cfg)
	if err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			slog.Warn("closing database failed", "error", err)
		}
	}()
	slog.Info("Connected to PostgreSQL successfully.")

	if err := os.MkdirAll(cfg.App.UploadDir, 0o755); err != nil {
		slog.Error("Upload directory unavailable", "dir", cfg.App.UploadDir, "error", err)
		os.Exit(1)
	}

	// Set up WebSocket Hub
	done := make(chan struct{})
	wsHub := websocket.NewHub()
	go wsHub.Run(done)

	router := setupRouter(cfg, db, wsHub)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.App.Port),
		Handler: router,
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}
	close(done)
}

func setupRouter(cfg *config.Config, db *gorm.DB, wsHub *websocket.Hub) *gin.Engine {
	secret := []byte(cfg.Auth.JWTSecret)
	settings := service.Settings{
		LowStockThreshold: cfg.Inventory.LowStockThreshold,
		NearExpiryMonths:  cfg.Inventory.NearExpiryMonths,
	}

	// Set up dependencies (Repository -> Service -> Handler)
	txManager := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	salesRepo := repository.NewSalesRepository(db)
	metadataRepo := repository.NewMetadataRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	userRepo := repository.NewUserRepository(db)

	productService := service.NewProductService(productRepo, metadataRepo, movementRepo, auditRepo, txManager, wsHub, settings)
	orderService := service.NewOrderService(productRepo, orderRepo, salesRepo, movementRepo, auditRepo, txManager, wsHub, settings)
	inventoryService := service.NewInventoryService(productRepo, movementRepo, auditRepo, txManager, wsHub, settings)
	analyticsService := service.NewAnalyticsService(productRepo, orderRepo, salesRepo, settings)
	metadataService := service.NewMetadataService(metadataRepo)
	userService := service.NewUserService(userRepo, service.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL))
	auditService := service.NewAuditService(auditRepo)

	// Initialize Handlers
	uploader := handler.NewUploader(cfg.App.UploadDir)
	requireAuth := middleware.RequireAuth(secret)
	productHandler := handler.NewProductHandler(productService, uploader)
	orderHandler := handler.NewOrderHandler(orderService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	inventoryHandler := handler.NewInventoryHandler(inventoryService)
	metadataHandler := handler.NewMetadataHandler(metadataService, uploader)
	userHandler := handler.NewUserHandler(userService, uploader, requireAuth)
	auditHandler := handler.NewAuditHandler(auditService, requireAuth)
	healthHandler := handler.NewHealthHandler(func(ctx context.Context) error {
		return database.Ping(ctx, db)
	})

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.App.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))
	router.Use(middleware.ErrorHandler())

	router.Static("/uploads/images", cfg.App.UploadDir)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	healthHandler.RegisterRoutes(router)

	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, secret)
	})

	api := router.Group("/api", middleware.OptionalAuth(secret))
	productHandler.RegisterRoutes(api)
	orderHandler.RegisterRoutes(api)
	analyticsHandler.RegisterRoutes(api)
	inventoryHandler.RegisterRoutes(api)
	metadataHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)
	auditHandler.RegisterRoutes(api)

	router.NoRoute(middleware.NoRoute)

	return router
}
