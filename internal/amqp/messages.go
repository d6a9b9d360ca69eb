package amqp

import (
	"encoding/json"
	"time"
)

// RefreshMessage asks workers to drop and re-load the readings behind a view.
// An empty View means every view.
type RefreshMessage struct {
	View      string    `json:"view"`
	Paths     []string  `json:"paths"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRefreshMessage stamps a refresh request with the current time.
func NewRefreshMessage(view string, paths []string, reason string) *RefreshMessage {
	return &RefreshMessage{
		View:      view,
		Paths:     paths,
		Reason:    reason,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RefreshMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RefreshMessageFromJSON decodes a delivery body.
func RefreshMessageFromJSON(data []byte) (*RefreshMessage, error) {
	var msg RefreshMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
