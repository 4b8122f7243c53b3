package model

import "time"

// Chat message delivery states
const (
	ChatStatusSending = "sending"
	ChatStatusSent    = "sent"
	ChatStatusError   = "error"
)

// ChatMessage is one entry in the custom-analysis chat transcript
type ChatMessage struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	IsBot     bool      `json:"isBot"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}
