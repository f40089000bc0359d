package models

// Real-time event names exchanged over websocket connections.
const (
	EventJoinPrefix      = "join:"
	EventJoinChat        = "join:chat"
	EventMessageSend     = "message:send"
	EventMessageTyping   = "message:typing"
	EventTaskUpdate      = "task:update"
	EventTaskCreate      = "task:create"
	EventMessageReceived = "message:received"
	EventMessageSent     = "message:sent"
	EventMessageRead     = "message:read"
	EventUserTyping      = "user:typing"
	EventUserJoined      = "user:joined"
	EventUserStatus      = "user:status"
	EventTaskUpdated     = "task:updated"
	EventTaskAssigned    = "task:assigned"
	EventError           = "error"
)

// UserStatusPayload announces an identity going online or offline.
type UserStatusPayload struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

// MessageReceivedPayload is pushed to the receiver of a chat message.
type MessageReceivedPayload struct {
	SenderID string      `json:"senderId"`
	Message  interface{} `json:"message"`
}

// MessageSentPayload acknowledges a message:send to the sender.
type MessageSentPayload struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
}

// MessageReadPayload announces that a message was read.
type MessageReadPayload struct {
	MessageID string `json:"messageId"`
	ReadByID  string `json:"readById"`
}

// UserTypingPayload relays typing indicators.
type UserTypingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// UserJoinedPayload is sent to room members when someone joins.
type UserJoinedPayload struct {
	UserID         string `json:"userId"`
	ConversationID string `json:"conversationId"`
}

// TaskUpdatedPayload carries a task change.
type TaskUpdatedPayload struct {
	TaskID string      `json:"taskId"`
	Update interface{} `json:"update"`
}

// TaskAssignedPayload notifies an assignee.
type TaskAssignedPayload struct {
	TaskID       string      `json:"taskId"`
	AssignedByID string      `json:"assignedById"`
	Task         interface{} `json:"task,omitempty"`
}

// ErrorPayload reports a rejected inbound event.
type ErrorPayload struct {
	Message string `json:"message"`
}
