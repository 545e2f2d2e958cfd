package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/bsm/redislock"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"channel-bridge-service/internal/config"
	"channel-bridge-service/internal/database"
	"channel-bridge-service/internal/encryption"
	"channel-bridge-service/internal/handlers"
	"channel-bridge-service/internal/middleware"
	"channel-bridge-service/internal/models"
	"channel-bridge-service/internal/platform"
	"channel-bridge-service/internal/platform/shopify"
	"channel-bridge-service/internal/repository"
	"channel-bridge-service/internal/secrets"
	"channel-bridge-service/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL, cfg.Environment)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate models
	if err := db.AutoMigrate(
		&models.Platform{},
		&models.Shop{},
		&models.Channel{},
		&models.Link{},
		&models.ShopItem{},
		&models.ChannelItem{},
		&models.Match{},
		&models.Order{},
		&models.LineItem{},
		&models.CartItem{},
		&models.TrackingDetail{},
		&models.TrackingDispatch{},
		&models.OrderEvent{},
		&models.MatchDrift{},
	); err != nil {
		log.Printf("Warning: Auto-migration failed: %v", err)
	}
	log.Println("Database models migrated")

	// Initialize GCP Secret Manager
	var secretStore services.SecretStore
	if cfg.GCPProjectID != "" {
		manager, err := secrets.NewGCPSecretManager(context.Background(), cfg.GCPProjectID)
		if err != nil {
			log.Printf("Warning: Failed to initialize GCP Secret Manager: %v", err)
		} else {
			log.Println("GCP Secret Manager initialized")
			secretStore = manager
		}
	}

	// Token encryption fallback
	var encryptor *encryption.TokenEncryptor
	if cfg.TokenEncryptionKey != "" {
		encryptor, err = encryption.NewTokenEncryptor(cfg.TokenEncryptionKey)
		if err != nil {
			log.Fatalf("Failed to initialize token encryptor: %v", err)
		}
	}

	// Redis lock client for match materialization
	var locker *redislock.Client
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		locker = redislock.New(redisClient)
		log.Println("Redis match locking enabled")
	}

	// Local adapter registry
	registry := platform.NewRegistry()
	shopifyAdapter := shopify.New()
	registry.Register(shopifyAdapter)

	dispatcher := platform.NewDispatcher(registry, cfg.AdapterTimeout)

	// Tracking notifiers, keyed by platform type
	notifiers := services.NewNotifierRegistry()
	notifiers.Register(models.PlatformShopify, shopifyAdapter.NotifyTracking)

	// Initialize repositories
	platformRepo := repository.NewPlatformRepository(db)
	matchRepo := repository.NewMatchRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	trackingRepo := repository.NewTrackingRepository(db)

	// Initialize services
	credentialService := services.NewCredentialService(secretStore, encryptor)
	matcherService := services.NewMatcherService(orderRepo, matchRepo, credentialService, dispatcher, locker)

	var placer services.OrderPlacer
	if cfg.PlacementServiceURL != "" {
		placer = services.NewHTTPOrderPlacer(cfg.PlacementServiceURL)
	}
	lifecycleService := services.NewLifecycleService(orderRepo, platformRepo, matcherService, placer)
	trackingService := services.NewTrackingService(trackingRepo, orderRepo, credentialService, notifiers)
	connectionService := services.NewConnectionService(platformRepo, registry, credentialService, dispatcher)
	webhookService := services.NewWebhookService(platformRepo, orderRepo, credentialService, dispatcher, lifecycleService, cfg.WebhookBaseURL)
	driftService := services.NewDriftService(
		matchRepo,
		credentialService,
		dispatcher,
		services.DriftThresholds{
			Price:    decimal.NewFromFloat(cfg.DriftPriceThreshold),
			Quantity: cfg.DriftQuantityThreshold,
			Percent:  cfg.DriftPercentThreshold,
		},
		services.NewChannelSemaphore(nil),
	)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	orderHandler := handlers.NewOrderHandler(lifecycleService)
	matchHandler := handlers.NewMatchHandler(matchRepo, matcherService)
	connectionHandler := handlers.NewConnectionHandler(connectionService, platformRepo, webhookService)
	trackingHandler := handlers.NewTrackingHandler(trackingService)
	driftHandler := handlers.NewDriftHandler(driftService, platformRepo)
	webhookHandler := handlers.NewWebhookHandler(webhookService)

	// Setup router
	router := setupRouter(cfg, healthHandler, orderHandler, matchHandler, connectionHandler, trackingHandler, driftHandler, webhookHandler)

	// Start server
	log.Printf("Channel Bridge Service starting on port %s (env: %s)", cfg.Port, cfg.Environment)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter configures the HTTP router
func setupRouter(
	cfg *config.Config,
	healthHandler *handlers.HealthHandler,
	orderHandler *handlers.OrderHandler,
	matchHandler *handlers.MatchHandler,
	connectionHandler *handlers.ConnectionHandler,
	trackingHandler *handlers.TrackingHandler,
	driftHandler *handlers.DriftHandler,
	webhookHandler *handlers.WebhookHandler,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	// Security headers middleware
	router.Use(middleware.SecurityHeaders())

	// CORS middleware
	allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
	var origins []string
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	} else {
		origins = []string{"http://localhost:3000"}
	}
	router.Use(middleware.CORS(origins))
	router.Use(middleware.SessionMiddleware())

	// Health endpoints
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)

	// Inbound platform webhooks, no user auth
	webhooks := router.Group("/api/v1/webhooks")
	{
		webhooks.POST("/orders/created", webhookHandler.OrderCreated)
		webhooks.POST("/orders/cancelled", webhookHandler.OrderCancelled)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.RequireUser())
	{
		platforms := api.Group("/platforms")
		{
			platforms.POST("", connectionHandler.CreatePlatform)
			platforms.GET("", connectionHandler.ListPlatforms)
			platforms.PUT("/:id", connectionHandler.UpdatePlatform)
		}

		shops := api.Group("/shops")
		{
			shops.POST("", connectionHandler.CreateShop)
			shops.GET("", connectionHandler.ListShops)
			shops.GET("/:id", connectionHandler.GetShop)
			shops.DELETE("/:id", connectionHandler.DeleteShop)
			shops.POST("/:id/oauth", connectionHandler.StartOAuth)
			shops.POST("/:id/oauth/callback", connectionHandler.CompleteOAuth)
			shops.POST("/:id/webhooks", connectionHandler.RegisterWebhooks)
			shops.GET("/:id/webhooks", connectionHandler.ListWebhooks)
			shops.DELETE("/:id/webhooks/:webhookId", connectionHandler.DeleteWebhook)
		}

		channels := api.Group("/channels")
		{
			channels.POST("", connectionHandler.CreateChannel)
			channels.GET("", connectionHandler.ListChannels)
		}

		links := api.Group("/links")
		{
			links.POST("", connectionHandler.CreateLink)
			links.GET("", connectionHandler.ListLinks)
			links.DELETE("/:id", connectionHandler.DeleteLink)
		}

		items := api.Group("/items")
		{
			items.POST("/shop", matchHandler.CreateShopItem)
			items.GET("/shop", matchHandler.ListShopItems)
			items.POST("/channel", matchHandler.CreateChannelItem)
			items.GET("/channel", matchHandler.ListChannelItems)
		}

		matches := api.Group("/matches")
		{
			matches.POST("", matchHandler.CreateMatch)
			matches.GET("", matchHandler.ListMatches)
			matches.GET("/:id", matchHandler.GetMatch)
			matches.DELETE("/:id", matchHandler.DeleteMatch)
			matches.POST("/resolve/:orderId", matchHandler.Resolve)
		}

		orders := api.Group("/orders")
		{
			orders.POST("", orderHandler.Create)
			orders.GET("", orderHandler.List)
			orders.GET("/:id", orderHandler.Get)
			orders.POST("/:id/cancel", orderHandler.Cancel)
			orders.DELETE("/:id", orderHandler.Delete)
			orders.GET("/:id/events", orderHandler.Events)
		}

		tracking := api.Group("/tracking")
		{
			tracking.POST("", trackingHandler.Create)
			tracking.GET("", trackingHandler.List)
			tracking.GET("/:id", trackingHandler.Get)
			tracking.DELETE("/:id", trackingHandler.Delete)
		}

		drifts := api.Group("/drifts")
		{
			drifts.GET("", driftHandler.List)
			drifts.POST("/sweep/:channelId", driftHandler.Sweep)
			drifts.POST("/:id/acknowledge", driftHandler.Acknowledge)
			drifts.POST("/:id/resolve", driftHandler.Resolve)
			drifts.POST("/:id/ignore", driftHandler.Ignore)
			drifts.POST("/:id/correct", driftHandler.PushCorrection)
		}
	}

	return router
}
