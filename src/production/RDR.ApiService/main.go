package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/controllers"
	"gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/health"
	"gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/implementation/broadcast"
	commandservice "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/implementation/command"
	syncservice "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/implementation/sync"
	"gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.ApiService/middleware"
	container "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Container"
	implementation "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Implementation"
	interfaces "gitlab.com/maplesense1/rdr.radar_server/src/production/RDR.Repository/Interfaces"
)

func main() {
	// Initialize dependency injection container
	ctr, err := container.NewContainer()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize container: %v", err))
	}
	defer ctr.Shutdown(context.Background())

	logger := ctr.GetLogger()
	logger.Info("Starting Radar Sync Service")

	config := ctr.GetConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Create repositories for the configured storage mode
	var (
		trackingRepo interfaces.TrackingRepository
		shadowRepo   interfaces.ShadowRepository
		commandRepo  interfaces.CommandRepository
		guardRepo    interfaces.GuardEventRepository
	)

	var healthChecker *health.HealthChecker

	if config.StorageMode == "memory" {
		logger.Warn("STORAGE_MODE=memory: nothing will be persisted")
		trackingRepo = implementation.NewMemoryTrackingRepository()
		shadowRepo = implementation.NewMemoryShadowRepository()
		commandRepo = implementation.NewMemoryCommandRepository()
		guardRepo = implementation.NewMemoryGuardEventRepository()
		healthChecker = health.NewHealthChecker(nil, nil)
	} else {
		if err := ctr.InitializeDatabase(ctx); err != nil {
			logger.FatalWithError(err, "Failed to initialize database")
		}

		db, err := ctr.GetDatabase()
		if err != nil {
			logger.FatalWithError(err, "Failed to get database connection")
		}

		coll, err := ctr.GetTrackingCollection()
		if err != nil {
			logger.FatalWithError(err, "Failed to get tracking collection")
		}
		mongoClient, err := ctr.GetMongoClient()
		if err != nil {
			logger.FatalWithError(err, "Failed to get mongo client")
		}

		mongoTracking := implementation.NewMongoTrackingRepository(coll)
		if err := mongoTracking.EnsureIndexes(ctx); err != nil {
			logger.FatalWithError(err, "Failed to create tracking indexes")
		}

		trackingRepo = mongoTracking
		shadowRepo = implementation.NewPostgresShadowRepository(db)
		commandRepo = implementation.NewPostgresCommandRepository(db)
		guardRepo = implementation.NewPostgresGuardEventRepository(db)
		healthChecker = health.NewHealthChecker(db, mongoClient)
	}

	// Broadcast fan-out: always the websocket hub, plus the MQTT bridge
	// when enabled
	hub := broadcast.NewHub(shadowRepo, logger.WithComponent("broadcast"))
	publishers := []broadcast.Publisher{hub}
	if config.MQTT.Enabled {
		bridge, err := broadcast.NewMQTTPublisher(config, logger.WithComponent("mqtt_bridge"))
		if err != nil {
			logger.FatalWithError(err, "Failed to connect MQTT bridge")
		}
		ctr.AddCleanupFunc(func() error {
			bridge.Close()
			return nil
		})
		publishers = append(publishers, bridge)
	}
	publisher := broadcast.NewMultiPublisher(publishers...)

	// Core services
	commandService := commandservice.NewService(commandRepo)
	syncService := syncservice.NewService(trackingRepo, shadowRepo, commandService, publisher, logger.WithComponent("sync"), config.Sync.NextInterval)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())

	// Configure CORS from config
	corsConfig := cors.Config{
		AllowOrigins:     config.CORS.AllowedOrigins,
		AllowMethods:     config.CORS.AllowedMethods,
		AllowHeaders:     config.CORS.AllowedHeaders,
		ExposeHeaders:    config.CORS.ExposedHeaders,
		AllowCredentials: config.CORS.AllowCredentials,
		MaxAge:           time.Duration(config.CORS.MaxAge) * time.Second,
	}
	router.Use(cors.New(corsConfig))

	// Create controllers and register routes
	syncController := controllers.NewSyncController(syncService, logger)
	deviceController := controllers.NewDeviceController(shadowRepo, commandService, config.Sync, logger)
	historyController := controllers.NewHistoryController(trackingRepo, guardRepo, config.Sync, logger)
	wsController := controllers.NewWebSocketController(hub, logger)
	healthController := controllers.NewHealthController(healthChecker)

	syncController.RegisterRoutes(router)
	deviceController.RegisterRoutes(router)
	historyController.RegisterRoutes(router)
	wsController.RegisterRoutes(router)
	healthController.RegisterRoutes(router)

	// Get port from configuration
	port := config.Server.Port

	// Create HTTP server with timeouts
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
		IdleTimeout:  config.Server.IdleTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		logger.Info("HTTP server starting on port " + port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithError(err, "Failed to start HTTP server")
		}
	}()

	logger.Info("Radar sync service running... press Ctrl+C to stop")

	// Wait for shutdown signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorWithError(err, "Server forced to shutdown")
	}
}
