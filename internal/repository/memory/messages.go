package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

type MessageRepository struct{ s *Store }

func cloneMessage(m *domain.Message) *domain.Message {
	c := *m
	if m.Envelope != nil {
		env := *m.Envelope
		c.Envelope = &env
	}
	if m.Attachment != nil {
		att := *m.Attachment
		c.Attachment = &att
	}
	c.ReadBy = cloneStrings(m.ReadBy)
	return &c
}

func (r *MessageRepository) Create(_ context.Context, m *domain.Message) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	r.s.messages = append(r.s.messages, cloneMessage(m))
	return nil
}

func (r *MessageRepository) GetByID(_ context.Context, id string) (*domain.Message, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.messages {
		if m.ID == id {
			return cloneMessage(m), nil
		}
	}
	return nil, domain.ErrMessageNotFound
}

func isBetween(m *domain.Message, a, b string) bool {
	return (m.SenderID == a && m.RecipientID == b) || (m.SenderID == b && m.RecipientID == a)
}

// tail returns the last limit matches in insertion order.
func (r *MessageRepository) tail(limit int, match func(*domain.Message) bool) []*domain.Message {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Message{}
	for i := len(r.s.messages) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if match(r.s.messages[i]) {
			out = append(out, cloneMessage(r.s.messages[i]))
		}
	}
	slices.Reverse(out)
	return out
}

func (r *MessageRepository) ListDirect(_ context.Context, a, b string, limit int) ([]*domain.Message, error) {
	return r.tail(limit, func(m *domain.Message) bool { return isBetween(m, a, b) }), nil
}

func (r *MessageRepository) ListGroup(_ context.Context, groupID string, limit int) ([]*domain.Message, error) {
	return r.tail(limit, func(m *domain.Message) bool { return m.GroupID == groupID }), nil
}

func (r *MessageRepository) HasConversation(_ context.Context, a, b string) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.messages {
		if isBetween(m, a, b) {
			return true, nil
		}
	}
	return false, nil
}

func (r *MessageRepository) MarkRead(_ context.Context, messageID, readerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, m := range r.s.messages {
		if m.ID == messageID {
			if !slices.Contains(m.ReadBy, readerID) {
				m.ReadBy = append(m.ReadBy, readerID)
			}
			return nil
		}
	}
	return domain.ErrMessageNotFound
}
