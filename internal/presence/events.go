package presence

import (
	"encoding/json"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

// Event names pushed to websocket clients.
const (
	EventMessageNew     = "message:new"
	EventGroupMessage   = "group:message"
	EventPresenceUpdate = "presence:update"
	EventNotification   = "notification:new"
)

// Event is a push addressed to a room, or to every client when Room is empty.
type Event struct {
	Name    string          `json:"event"`
	Room    string          `json:"room,omitempty"`
	Payload json.RawMessage `json:"data"`
}

// UserRoom is the personal room a client joins with the join event.
func UserRoom(userID string) string { return "user:" + userID }

// GroupRoom is the room a client joins with the join-group event.
func GroupRoom(groupID string) string { return "group:" + groupID }

// Frame is the wire form delivered to clients.
func (e Event) Frame() []byte {
	b, _ := json.Marshal(struct {
		Name    string          `json:"event"`
		Payload json.RawMessage `json:"data"`
	}{e.Name, e.Payload})
	return b
}

func newEvent(name, room string, payload any) Event {
	b, err := json.Marshal(payload)
	if err != nil {
		b = []byte("null")
	}
	return Event{Name: name, Room: room, Payload: b}
}

// MessageEvent addresses a decrypted message to its recipient's room or to
// its group's room.
func MessageEvent(m *domain.MessageView) Event {
	if m.Group != "" {
		return newEvent(EventGroupMessage, GroupRoom(m.Group), m)
	}
	return newEvent(EventMessageNew, UserRoom(m.To), m)
}

// NotificationEvent addresses a notification to its owner's room.
func NotificationEvent(n *domain.Notification) Event {
	return newEvent(EventNotification, UserRoom(n.UserID), n)
}

// PresenceUpdate is broadcast to everyone.
type PresenceUpdate struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

// PresenceEvent builds the broadcast for an online or offline edge.
func PresenceEvent(userID string, online bool) Event {
	return newEvent(EventPresenceUpdate, "", PresenceUpdate{UserID: userID, Online: online})
}
