package handlers

import (
	"errors"
	"log"
	"net/http"

	"pokerroom/game"
	"pokerroom/services"

	"github.com/gin-gonic/gin"
)

// respondError maps core errors onto HTTP statuses. The core only returns
// typed errors; any human-facing wording happens here.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrNotHost):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrAlreadyMember),
		errors.Is(err, game.ErrWinnerConflict),
		errors.Is(err, game.ErrInvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, game.ErrInsufficientPlayers),
		errors.Is(err, game.ErrInvalidScore):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// resolveRoomID accepts either a room id or a join code in the path.
// Join codes are short and numeric; everything else is treated as an id.
func resolveRoomID(roomService *services.RoomService, param string) (string, error) {
	if len(param) == services.RoomCodeLength && isDigits(param) {
		room, err := roomService.GetRoomByCode(param)
		if err != nil {
			return "", err
		}
		return room.ID, nil
	}
	return param, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

// callerID pulls the authenticated user id set by the auth middleware.
func callerID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return "", false
	}
	return userID.(string), true
}
