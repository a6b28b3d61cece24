package handlers

import (
	"net/http"

	"pokerroom/services"

	"github.com/gin-gonic/gin"
)

type GameHandler struct {
	roomService *services.RoomService
	hub         *services.Hub
}

func NewGameHandler(roomService *services.RoomService, hub *services.Hub) *GameHandler {
	return &GameHandler{
		roomService: roomService,
		hub:         hub,
	}
}

// SubmitRound records the caller's result for the current round. Losers post
// the magnitude of their loss; the winner posts is_winner with no score. The
// response carries the room as it stands, complete round or not.
func (h *GameHandler) SubmitRound(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	roomID, err := resolveRoomID(h.roomService, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	var req services.SubmitRoundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, result, err := h.roomService.SubmitRound(roomID, userID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastToRoom(room.ID, "room_update", room)
		if result.Completed {
			h.hub.BroadcastToRoom(room.ID, "round_complete", result.Round)
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": room, "round_complete": result.Completed})
}

func (h *GameHandler) UndoLastRound(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	roomID, err := resolveRoomID(h.roomService, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	room, err := h.roomService.UndoLastRound(roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastToRoom(room.ID, "room_update", room)
	}

	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (h *GameHandler) FinishRoom(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	roomID, err := resolveRoomID(h.roomService, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	room, err := h.roomService.FinishRoom(roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastToRoom(room.ID, "room_update", room)
	}

	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (h *GameHandler) GetRounds(c *gin.Context) {
	roomID, err := resolveRoomID(h.roomService, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	rounds, err := h.roomService.RoundHistory(roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"rounds": rounds}})
}
