package routes

import (
	"log"
	"net/http"

	"pokerroom/handlers"
	"pokerroom/middleware"
	"pokerroom/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	authHandler *handlers.AuthHandler,
	roomHandler *handlers.RoomHandler,
	gameHandler *handlers.GameHandler,
	statsHandler *handlers.StatsHandler,
	hub *services.Hub,
	roomService *services.RoomService,
	jwtSecret string,
) {
	// API routes
	api := router.Group("/api")
	{
		// Auth routes (public)
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware(jwtSecret))
		{
			protected.GET("/auth/me", authHandler.GetProfile)

			// Room lifecycle
			rooms := protected.Group("/rooms")
			{
				rooms.POST("", roomHandler.CreateRoom)
				rooms.POST("/join", roomHandler.JoinRoom)
				rooms.GET("/:id", roomHandler.GetRoom)
				rooms.POST("/:id/start", roomHandler.StartRoom)
				rooms.POST("/:id/leave", roomHandler.LeaveRoom)
				rooms.GET("/:id/settlement", roomHandler.GetSettlement)
			}

			// Round play
			games := protected.Group("/games")
			{
				games.POST("/:id/round", gameHandler.SubmitRound)
				games.POST("/:id/undo-last-round", gameHandler.UndoLastRound)
				games.POST("/:id/finish", gameHandler.FinishRoom)
				games.GET("/:id/rounds", gameHandler.GetRounds)
			}

			// Player history
			users := protected.Group("/users")
			{
				users.GET("/:id/stats", statsHandler.GetUserStats)
				users.GET("/:id/recent-games", statsHandler.GetRecentGames)
			}
		}
	}

	// WebSocket endpoint for live room updates. The token rides in a query
	// parameter because browser websocket clients cannot set headers.
	router.GET("/ws/:roomCode/:userId", func(c *gin.Context) {
		roomCode := c.Param("roomCode")
		userID := c.Param("userId")

		token := c.Query("token")
		if token != "" {
			tokenUserID, err := middleware.ParseUserID(token, jwtSecret)
			if err != nil || tokenUserID != userID {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
				return
			}
		}

		room, err := roomService.GetRoomByCode(roomCode)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}

		member, ok := room.Member(userID)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "User not in room"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for room %s, user %s: %v", roomCode, userID, err)
			return
		}

		hub.RegisterClient(conn, room.ID, userID, member.Nickname)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
