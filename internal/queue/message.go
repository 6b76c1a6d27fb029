package queue

import (
	"encoding/json"
	"fmt"
)

const currentVersion = 1

// Message announces that a review reached a terminal state.
type Message struct {
	ReviewID    string `json:"reviewId"`
	UserID      string `json:"userId"`
	RequestID   string `json:"requestId,omitempty"`
	Status      string `json:"status"`
	Score       *int   `json:"score,omitempty"`
	CompletedAt string `json:"completedAt"`
	Version     int    `json:"version"`
}

// RoutingKey is the topic a message is published under, e.g.
// review.completed.
func (m Message) RoutingKey() string {
	return "review." + m.Status
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Version == 0 {
		msg.Version = currentVersion
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.ReviewID == "" {
		return Message{}, fmt.Errorf("decode message: reviewId missing")
	}
	return msg, nil
}
