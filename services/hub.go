package services

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Hub fans room snapshots out to connected clients. Push is an optimization
// on top of polling: every room mutation remains readable through GET, so a
// dropped connection only delays convergence.
type Hub struct {
	clients     map[*Client]bool
	register    chan *Client
	unregister  chan *Client
	mutex       sync.RWMutex
	roomService *RoomService
}

type Client struct {
	hub      *Hub
	id       string
	socket   *websocket.Conn
	send     chan []byte
	roomID   string
	userID   string
	nickname string
}

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

func NewHub(roomService *RoomService) *Hub {
	return &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		roomService: roomService,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client %s connected to room %s (user %s: %s)", client.id, client.roomID, client.userID, client.nickname)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("Client %s disconnected from room %s (user %s)", client.id, client.roomID, client.userID)
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastToRoom sends an event to every client connected to the room.
// Clients whose send buffer is full are dropped; they reconnect and resync.
func (h *Hub) BroadcastToRoom(roomID string, messageType string, payload interface{}) {
	data, err := json.Marshal(Message{Type: messageType, Payload: payload})
	if err != nil {
		log.Printf("Error marshaling %s message for room %s: %v", messageType, roomID, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()
	for client := range h.clients {
		if client.roomID != roomID {
			continue
		}
		select {
		case client.send <- data:
		default:
			close(client.send)
			delete(h.clients, client)
		}
	}
}

// sendRoomSync pushes the current room snapshot to a single client, typically
// right after it connects or asks to resync.
func (h *Hub) sendRoomSync(client *Client) {
	room, err := h.roomService.GetRoom(client.roomID)
	if err != nil {
		log.Printf("Error loading room %s for sync to client %s: %v", client.roomID, client.id, err)
		return
	}

	data, err := json.Marshal(Message{Type: "room_sync", Payload: room})
	if err != nil {
		log.Printf("Error marshaling room sync for client %s: %v", client.id, err)
		return
	}

	select {
	case client.send <- data:
	default:
		log.Printf("Client %s send buffer full, skipping room sync", client.id)
	}
}

// ConnectedUsers lists the user ids currently connected to a room.
func (h *Hub) ConnectedUsers(roomID string) []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	var userIDs []string
	for client := range h.clients {
		if client.roomID == roomID {
			userIDs = append(userIDs, client.userID)
		}
	}
	return userIDs
}

func (h *Hub) RegisterClient(conn *websocket.Conn, roomID, userID, nickname string) *Client {
	client := &Client{
		hub:      h,
		id:       uuid.NewString(),
		socket:   conn,
		send:     make(chan []byte, 256),
		roomID:   roomID,
		userID:   userID,
		nickname: nickname,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()

	return client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

func (c *Client) readPump() {
	defer func() {
		c.hub.UnregisterClient(c)
		c.socket.Close()
	}()

	for {
		_, message, err := c.socket.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket read error: %v", err)
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Error unmarshaling message from client %s: %v", c.id, err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	defer c.socket.Close()

	for message := range c.send {
		w, err := c.socket.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.socket.WriteMessage(websocket.CloseMessage, []byte{})
}

func (c *Client) handleMessage(msg Message) {
	switch msg.Type {
	case "ping":
		data, _ := json.Marshal(Message{Type: "pong", Payload: "pong"})
		c.send <- data

	case "request_room_state":
		c.hub.sendRoomSync(c)

	default:
		log.Printf("Unknown message type %q from user %s in room %s", msg.Type, c.userID, c.roomID)
	}
}
