package handlers

import (
	"net/http"

	"pokerroom/services"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService *services.RoomService
	authService *services.AuthService
	hub         *services.Hub
}

func NewRoomHandler(roomService *services.RoomService, authService *services.AuthService, hub *services.Hub) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		authService: authService,
		hub:         hub,
	}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	room, err := h.roomService.CreateRoom(user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": room})
}

// JoinRoom adds the caller to the room with the posted join code. A repeated
// join from the same user is answered with the existing room state instead of
// an error, so client retries land back in the room.
func (h *RoomHandler) JoinRoom(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	var req services.JoinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.GetUserByID(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	room, alreadyMember, err := h.roomService.JoinRoom(user, req.RoomCode)
	if err != nil {
		respondError(c, err)
		return
	}

	if !alreadyMember && h.hub != nil {
		h.hub.BroadcastToRoom(room.ID, "room_update", room)
	}

	c.JSON(http.StatusOK, gin.H{"data": room, "already_member": alreadyMember})
}

func (h *RoomHandler) GetRoom(c *gin.Context) {
	roomID, err := resolveRoomID(h.roomService, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	room, err := h.roomService.GetRoom(roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (h *RoomHandler) StartRoom(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	roomID, err := resolveRoomID(h.roomService, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	room, err := h.roomService.StartRoom(roomID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	if h.hub != nil {
		h.hub.BroadcastToRoom(room.ID, "room_update", room)
	}

	c.JSON(http.StatusOK, gin.H{"data": room})
}

func (h *RoomHandler) LeaveRoom(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		return
	}

	roomID, err := resolveRoomID(h.roomService, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.roomService.LeaveRoom(roomID, userID); err != nil {
		respondError(c, err)
		return
	}

	if h.hub != nil {
		if room, err := h.roomService.GetRoom(roomID); err == nil {
			h.hub.BroadcastToRoom(roomID, "room_update", room)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left room"})
}

func (h *RoomHandler) GetSettlement(c *gin.Context) {
	roomID, err := resolveRoomID(h.roomService, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	settlement, err := h.roomService.Settlement(roomID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": settlement})
}
