package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

type PageRepository struct{ s *Store }

func clonePage(p *domain.Page) *domain.Page {
	c := *p
	c.Admins = cloneStrings(p.Admins)
	c.Moderators = cloneStrings(p.Moderators)
	return &c
}

func (r *PageRepository) Create(_ context.Context, p *domain.Page) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	r.s.pages = append(r.s.pages, clonePage(p))
	return nil
}

// List returns the newest pages first.
func (r *PageRepository) List(_ context.Context) ([]*domain.Page, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Page, 0, len(r.s.pages))
	for i := len(r.s.pages) - 1; i >= 0; i-- {
		out = append(out, clonePage(r.s.pages[i]))
	}
	return out, nil
}

type NotificationRepository struct{ s *Store }

func cloneNotification(n *domain.Notification) *domain.Notification {
	c := *n
	if n.Data != nil {
		c.Data = make(map[string]string, len(n.Data))
		for k, v := range n.Data {
			c.Data[k] = v
		}
	}
	return &c
}

func (r *NotificationRepository) Create(_ context.Context, n *domain.Notification) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = time.Now().UTC()
	r.s.notifications = append(r.s.notifications, cloneNotification(n))
	return nil
}

func (r *NotificationRepository) ListForUser(_ context.Context, userID string, limit int) ([]*domain.Notification, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Notification{}
	for i := len(r.s.notifications) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if n := r.s.notifications[i]; n.UserID == userID {
			out = append(out, cloneNotification(n))
		}
	}
	return out, nil
}

func (r *NotificationRepository) MarkAllRead(_ context.Context, userID string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	changed := 0
	for _, n := range r.s.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			changed++
		}
	}
	return changed, nil
}
