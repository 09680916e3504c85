package websocket

import (
	"encoding/json"
	"hash/fnv"
	"sync"

	"inboxhub/internal/shared"

	"github.com/sirupsen/logrus"
)

// Hub tracks the live connections of this process, grouped by user.
// A user may hold several connections (tabs, devices); each gets every event.
type Hub struct {
	clients map[string]map[*Client]struct{} // userID -> connections
	mu      sync.RWMutex
	logger  logrus.FieldLogger

	// presence writes of one user always take the same stripe
	presence [presenceStripes]sync.Mutex
}

const presenceStripes = 64

func NewHub(logger logrus.FieldLogger) *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a connection. first reports whether it is the user's only one.
func (h *Hub) Register(c *Client) (first bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}

	h.logger.WithFields(logrus.Fields{
		"client_id":   c.ID,
		"user_id":     c.UserID,
		"connections": len(set),
	}).Info("ws_client_registered")
	return len(set) == 1
}

// Unregister removes a connection and closes its send channel. last reports
// whether the user has no connection left, which is also the case for a
// client already dropped by CloseAll. Unknown clients are otherwise ignored.
func (h *Hub) Unregister(c *Client) (last bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.UserID]
	if !ok {
		return true
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	close(c.Send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}

	h.logger.WithFields(logrus.Fields{
		"client_id":   c.ID,
		"user_id":     c.UserID,
		"connections": len(set),
	}).Info("ws_client_unregistered")
	return len(set) == 0
}

// Deliver pushes each event to the connections of its user. A client whose
// buffer is full misses the event; the inbox still has it.
func (h *Hub) Deliver(events []shared.DeliveryEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, event := range events {
		set := h.clients[event.UserID]
		if len(set) == 0 {
			continue
		}
		payload, err := json.Marshal(event)
		if err != nil {
			h.logger.WithError(err).WithField("user_id", event.UserID).Error("ws_event_encode_failed")
			continue
		}
		for c := range set {
			select {
			case c.Send <- payload:
			default:
				h.logger.WithFields(logrus.Fields{
					"client_id":       c.ID,
					"user_id":         c.UserID,
					"notification_id": event.Notification.ID,
				}).Warn("ws_send_buffer_full")
			}
		}
	}
}

// IsOnline reports whether the user has a connection on this process.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

// ConnectionCount returns the number of open connections across all users.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// CloseAll drops every connection, used on shutdown. It returns the users
// that were connected.
func (h *Hub) CloseAll() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	users := make([]string, 0, len(h.clients))
	for userID, set := range h.clients {
		for c := range set {
			close(c.Send)
		}
		delete(h.clients, userID)
		users = append(users, userID)
	}
	h.logger.WithField("users", len(users)).Info("ws_hub_closed")
	return users
}

// SyncPresence calls write with the user's current connection state. Calls
// for the same user are serialized, so the last write matches the hub even
// when a disconnect and a reconnect race.
func (h *Hub) SyncPresence(userID string, write func(online bool)) {
	hash := fnv.New32a()
	_, _ = hash.Write([]byte(userID))
	mu := &h.presence[hash.Sum32()%presenceStripes]

	mu.Lock()
	defer mu.Unlock()
	write(h.IsOnline(userID))
}
