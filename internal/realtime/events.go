package realtime

import (
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/life-ease-api/internal/models"
)

// Frame is the JSON envelope of every websocket message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encodeFrame(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Data: data})
}

type joinPayload struct {
	ConversationID string `json:"conversationId"`
	ID             string `json:"id"`
}

type messageSendPayload struct {
	ReceiverID string          `json:"receiverId"`
	Message    json.RawMessage `json:"message"`
}

type typingPayload struct {
	ReceiverID string `json:"receiverId"`
	IsTyping   bool   `json:"isTyping"`
}

type taskUpdatePayload struct {
	TaskID string          `json:"taskId"`
	Update json.RawMessage `json:"update"`
}

type taskCreatePayload struct {
	Task       json.RawMessage `json:"task"`
	AssigneeID string          `json:"assigneeId"`
}

// Dispatch handles one inbound frame from c.
func (r *Router) Dispatch(c Conn, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		r.reply(c, models.EventError, models.ErrorPayload{Message: "Invalid frame"})
		return
	}
	r.metrics.ObserveEvent("in", frame.Event)

	switch {
	case strings.HasPrefix(frame.Event, models.EventJoinPrefix):
		r.handleJoin(c, strings.TrimPrefix(frame.Event, models.EventJoinPrefix), frame.Data)
	case frame.Event == models.EventMessageSend:
		r.handleMessageSend(c, frame.Data)
	case frame.Event == models.EventMessageTyping:
		r.handleTyping(c, frame.Data)
	case frame.Event == models.EventTaskUpdate:
		r.handleTaskUpdate(c, frame.Data)
	case frame.Event == models.EventTaskCreate:
		r.handleTaskCreate(c, frame.Data)
	default:
		r.reply(c, models.EventError, models.ErrorPayload{Message: "Unknown event: " + frame.Event})
	}
}

func (r *Router) handleJoin(c Conn, scope string, data json.RawMessage) {
	var p joinPayload
	if scope == "" || !decode(data, &p) {
		r.reply(c, models.EventError, models.ErrorPayload{Message: "Invalid join payload"})
		return
	}
	key := p.ConversationID
	if key == "" {
		key = p.ID
	}
	if key == "" {
		r.reply(c, models.EventError, models.ErrorPayload{Message: "Invalid join payload"})
		return
	}

	room := scope + ":" + key
	if !r.JoinRoom(c.ID(), room) {
		return
	}
	if scope == "chat" {
		r.SendToRoom(room, models.EventUserJoined, models.UserJoinedPayload{UserID: c.IdentityID(), ConversationID: key}, c.ID())
	}
}

func (r *Router) handleMessageSend(c Conn, data json.RawMessage) {
	var p messageSendPayload
	if !decode(data, &p) || p.ReceiverID == "" || len(p.Message) == 0 {
		r.reply(c, models.EventError, models.ErrorPayload{Message: "Failed to send message"})
		return
	}

	r.SendToIdentity(p.ReceiverID, models.EventMessageReceived, models.MessageReceivedPayload{
		SenderID: c.IdentityID(),
		Message:  p.Message,
	})

	var ref struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(p.Message, &ref)
	r.reply(c, models.EventMessageSent, models.MessageSentPayload{Success: true, MessageID: ref.ID})
}

func (r *Router) handleTyping(c Conn, data json.RawMessage) {
	var p typingPayload
	if !decode(data, &p) || p.ReceiverID == "" {
		r.reply(c, models.EventError, models.ErrorPayload{Message: "Invalid typing payload"})
		return
	}
	r.SendToIdentity(p.ReceiverID, models.EventUserTyping, models.UserTypingPayload{UserID: c.IdentityID(), IsTyping: p.IsTyping})
}

func (r *Router) handleTaskUpdate(c Conn, data json.RawMessage) {
	var p taskUpdatePayload
	if !decode(data, &p) || p.TaskID == "" {
		r.reply(c, models.EventError, models.ErrorPayload{Message: "Invalid task update payload"})
		return
	}
	r.Broadcast(models.EventTaskUpdated, models.TaskUpdatedPayload{TaskID: p.TaskID, Update: p.Update})
}

func (r *Router) handleTaskCreate(c Conn, data json.RawMessage) {
	var p taskCreatePayload
	if !decode(data, &p) || p.AssigneeID == "" {
		r.reply(c, models.EventError, models.ErrorPayload{Message: "Invalid task create payload"})
		return
	}
	var ref struct {
		ID string `json:"id"`
	}
	_ = json.Unmarshal(p.Task, &ref)
	r.SendToIdentity(p.AssigneeID, models.EventTaskAssigned, models.TaskAssignedPayload{
		TaskID:       ref.ID,
		AssignedByID: c.IdentityID(),
		Task:         p.Task,
	})
}

func (r *Router) reply(c Conn, event string, payload interface{}) {
	frame, err := encodeFrame(event, payload)
	if err != nil {
		r.logger.Error("encode frame", zap.String("event", event), zap.Error(err))
		return
	}
	if c.Send(frame) {
		r.metrics.ObserveEvent("out", event)
	} else {
		r.metrics.ObserveDroppedFrame()
	}
}

func decode(data json.RawMessage, dest interface{}) bool {
	if len(data) == 0 {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}
