package main

import (
	"log"
	"pokerroom/config"
	"pokerroom/handlers"
	"pokerroom/middleware"
	"pokerroom/models"
	"pokerroom/routes"
	"pokerroom/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Room{},
		&models.Player{},
		&models.Round{},
		&models.RoundScore{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize services
	authService := services.NewAuthService(db, cfg.JWTSecret, cfg.TokenTTL)
	roomService := services.NewRoomService(db, redisClient, cfg.SnapshotTTL)
	statsService := services.NewStatsService(db)

	// Initialize WebSocket hub
	hub := services.NewHub(roomService)
	go hub.Run()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	roomHandler := handlers.NewRoomHandler(roomService, authService, hub)
	gameHandler := handlers.NewGameHandler(roomService, hub)
	statsHandler := handlers.NewStatsHandler(statsService)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, authHandler, roomHandler, gameHandler, statsHandler, hub, roomService, cfg.JWTSecret)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
