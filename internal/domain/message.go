package domain

import (
	"context"
	"time"
)

// HistoryLimit caps conversation history reads.
const HistoryLimit = 200

// Envelope is the at-rest form of message text: hex-encoded AES-GCM nonce,
// ciphertext and authentication tag.
type Envelope struct {
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	Tag        string `json:"tag"`
}

// AttachmentKind classifies message attachments.
type AttachmentKind string

const (
	AttachmentImage    AttachmentKind = "image"
	AttachmentVoice    AttachmentKind = "voice"
	AttachmentDocument AttachmentKind = "document"
)

// Valid reports whether k is a known attachment kind.
func (k AttachmentKind) Valid() bool {
	return k == AttachmentImage || k == AttachmentVoice || k == AttachmentDocument
}

// Attachment references uploaded media.
type Attachment struct {
	URL  string         `json:"url"`
	Kind AttachmentKind `json:"kind"`
	Name string         `json:"name,omitempty"`
}

// Message is stored encrypted. Exactly one of RecipientID and GroupID is set.
type Message struct {
	ID          string
	SenderID    string
	RecipientID string
	GroupID     string
	Envelope    *Envelope
	Attachment  *Attachment
	ReadBy      []string
	CreatedAt   time.Time
}

// IsDirect reports whether the message is addressed to a single user.
func (m *Message) IsDirect() bool { return m.RecipientID != "" }

// MessageView is the decrypted form handed to clients.
type MessageView struct {
	ID         string      `json:"id"`
	SenderID   string      `json:"senderId"`
	To         string      `json:"to,omitempty"`
	Group      string      `json:"group,omitempty"`
	Text       string      `json:"text"`
	Attachment *Attachment `json:"attachment,omitempty"`
	ReadBy     []string    `json:"readBy"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// MessageRepository defines data access for messages. List operations
// return the most recent limit entries in chronological order.
type MessageRepository interface {
	Create(ctx context.Context, msg *Message) error
	GetByID(ctx context.Context, id string) (*Message, error)
	ListDirect(ctx context.Context, userA, userB string, limit int) ([]*Message, error)
	ListGroup(ctx context.Context, groupID string, limit int) ([]*Message, error)
	HasConversation(ctx context.Context, userA, userB string) (bool, error)
	MarkRead(ctx context.Context, messageID, readerID string) error
}
