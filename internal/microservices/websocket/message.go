package websocket

import (
	"encoding/json"
	"time"

	"inboxhub/internal/shared"
)

// Message protocol definitions
// server -> client only, delivery events are sent as shared.DeliveryEvent

type MessageType string

const (
	TypeConnected    MessageType = "connected"    // sent once after the upgrade
	TypeNotification MessageType = shared.EventNotification
)

// Message is a control frame that is not tied to a notification.
type Message struct {
	Type      MessageType `json:"type"`
	UserID    string      `json:"user_id"`
	Content   string      `json:"content,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewConnectedMessage(userID string) *Message {
	return &Message{
		Type:      TypeConnected,
		UserID:    userID,
		Content:   "listening for notifications",
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON: marshal Message struct to JSON
func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// EventFromJSON decodes a delivery event received from the broker.
func EventFromJSON(data []byte) (*shared.DeliveryEvent, error) {
	var event shared.DeliveryEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, err
	}
	return &event, nil
}
