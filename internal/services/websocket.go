package services

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// NotificationMessage is the wire shape pushed to connected clients.
type NotificationMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

type notificationClient struct {
	id     string
	userID string
	conn   *websocket.Conn
	send   chan NotificationMessage
	hub    *NotificationHub
}

// NotificationHub fans notifications out to the websocket connections of a
// user. A user may hold several connections (tabs, devices); pushing to a
// user with none connected is a no-op.
type NotificationHub struct {
	clients    map[string]map[*notificationClient]bool // keyed by user id
	register   chan *notificationClient
	unregister chan *notificationClient
	mutex      sync.RWMutex
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin checks belong to the reverse proxy in production
	},
}

func NewNotificationHub() *NotificationHub {
	return &NotificationHub{
		clients:    make(map[string]map[*notificationClient]bool),
		register:   make(chan *notificationClient),
		unregister: make(chan *notificationClient),
	}
}

func (h *NotificationHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			if h.clients[client.userID] == nil {
				h.clients[client.userID] = make(map[*notificationClient]bool)
			}
			h.clients[client.userID][client] = true
			h.mutex.Unlock()
			logrus.Infof("Notification client %s connected for user %s", client.id, client.userID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if conns, ok := h.clients[client.userID]; ok && conns[client] {
				delete(conns, client)
				if len(conns) == 0 {
					delete(h.clients, client.userID)
				}
				close(client.send)
				logrus.Infof("Notification client %s disconnected", client.id)
			}
			h.mutex.Unlock()
		}
	}
}

// Push sends a message to every connection of the user. Slow connections are
// dropped rather than blocked on.
func (h *NotificationHub) Push(userID string, data interface{}) {
	msg := NotificationMessage{Type: "notification", Data: data, Timestamp: time.Now()}
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- msg:
		default:
			logrus.Warnf("Notification client %s send buffer full, dropping", client.id)
		}
	}
}

// ConnectedUsers returns how many distinct users hold open connections.
func (h *NotificationHub) ConnectedUsers() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the request and binds the connection to the
// authenticated user.
func (h *NotificationHub) HandleWebSocket(c *gin.Context, userID string) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Errorf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &notificationClient{
		id:     uuid.NewString(),
		userID: userID,
		conn:   conn,
		send:   make(chan NotificationMessage, 64),
		hub:    h,
	}

	h.register <- client

	go client.writePump()
	go client.readPump()
}

func (c *notificationClient) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			logrus.Debugf("Notification write failed for %s: %v", c.id, err)
			return
		}
	}
}

// readPump drains the connection so pings and close frames are processed;
// clients never send application messages.
func (c *notificationClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
