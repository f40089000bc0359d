package models

import "time"

// MessageStatus tracks delivery of a chat message.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// Message is a chat message between two identities.
type Message struct {
	ID             string        `db:"id" bson:"_id" json:"id"`
	ConversationID string        `db:"conversation_id" bson:"conversation_id" json:"conversation_id"`
	SenderID       string        `db:"sender_id" bson:"sender_id" json:"sender_id"`
	ReceiverID     *string       `db:"receiver_id" bson:"receiver_id,omitempty" json:"receiver_id,omitempty"`
	Text           string        `db:"text" bson:"text" json:"text"`
	Type           string        `db:"type" bson:"type" json:"type"`
	Status         MessageStatus `db:"status" bson:"status" json:"status"`
	IsSynced       bool          `db:"is_synced" bson:"is_synced" json:"is_synced"`
	Timestamp      time.Time     `db:"timestamp" bson:"timestamp" json:"timestamp"`
	DeliveredAt    *time.Time    `db:"delivered_at" bson:"delivered_at,omitempty" json:"delivered_at,omitempty"`
	ReadAt         *time.Time    `db:"read_at" bson:"read_at,omitempty" json:"read_at,omitempty"`
}

// SendMessageRequest is the payload for sending a message over HTTP.
type SendMessageRequest struct {
	ReceiverID     string `json:"receiver_id" validate:"required,uuid"`
	ConversationID string `json:"conversation_id" validate:"omitempty,max=100"`
	Text           string `json:"text" validate:"required,max=4000"`
}
