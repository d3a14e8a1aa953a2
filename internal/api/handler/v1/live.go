package v1

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/gatherhub/gatherhub-api/internal/domain"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust this for production!
	},
}

type Client struct {
	conn *websocket.Conn
	send chan []byte
}

// frame is the JSON envelope every live message travels in.
type frame struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type attendancePayload struct {
	EventID        string   `json:"eventId"`
	AttendingCount int      `json:"attendingCount"`
	Attendees      []string `json:"attendees"`
}

type eventRemovedPayload struct {
	EventID string `json:"eventId"`
}

// LiveHandler fans out state changes to every connected client. Delivery is
// best-effort and at-most-once: nothing is persisted or replayed, and a
// client whose send buffer is full gets dropped. Clients resynchronize by
// re-fetching full state on (re)connect.
type LiveHandler struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
}

func NewLiveHandler() *LiveHandler {
	return &LiveHandler{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run owns the clients map; all membership changes and fan-out go through
// its channels.
func (h *LiveHandler) Run() {
	for {
		select {
		case client := <-h.register:
			h.clients[client] = true
		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
		case message := <-h.broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
		}
	}
}

// HandleRoot serves the server root: WebSocket handshakes are upgraded into
// live-update subscriptions, anything else gets the healthcheck.
func (h *LiveHandler) HandleRoot(c *gin.Context) {
	if !websocket.IsWebSocketUpgrade(c.Request) {
		HandleHealthcheck(c)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		zap.L().Error("websocket upgrade failed", zap.Error(err))
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
	}
	h.register <- client

	go client.writePump()
	go client.readPump(h)
}

func (h *LiveHandler) BroadcastAttendanceUpdate(eventID string, attendingCount int, attendees []string) {
	if attendees == nil {
		attendees = []string{}
	}
	h.emit("attendance_update", attendancePayload{
		EventID:        eventID,
		AttendingCount: attendingCount,
		Attendees:      attendees,
	})
}

func (h *LiveHandler) BroadcastEventUpdate(event domain.EventAttendance) {
	if event.Attendees == nil {
		event.Attendees = []string{}
	}
	h.emit("event_update", event)
}

func (h *LiveHandler) BroadcastEventRemoved(eventID string) {
	h.emit("event_removed", eventRemovedPayload{EventID: eventID})
}

func (h *LiveHandler) emit(frameType string, payload any) {
	data, err := json.Marshal(frame{Type: frameType, Payload: payload})
	if err != nil {
		zap.L().Error("failed to marshal live frame", zap.String("type", frameType), zap.Error(err))
		return
	}

	h.broadcast <- data
}

func (c *Client) writePump() {
	defer func() {
		c.conn.Close()
	}()
	for message := range c.send {
		w, err := c.conn.NextWriter(websocket.TextMessage)
		if err != nil {
			return
		}
		w.Write(message)
		if err := w.Close(); err != nil {
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump drains the connection; clients only listen, so inbound frames are
// discarded. Its real job is detecting the close.
func (c *Client) readPump(h *LiveHandler) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				zap.L().Debug("websocket read error", zap.Error(err))
			}
			break
		}
	}
}
