package memory

import (
	"context"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

type PostRepository struct{ s *Store }

func clonePost(p *domain.Post) *domain.Post {
	c := *p
	c.Media = append([]domain.Media{}, p.Media...)
	c.Likes = cloneStrings(p.Likes)
	return &c
}

// post returns the stored post. Callers hold the lock.
func (s *Store) post(id string) (*domain.Post, int) {
	for i, p := range s.posts {
		if p.ID == id {
			return p, i
		}
	}
	return nil, -1
}

func (r *PostRepository) Create(_ context.Context, p *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt
	r.s.posts = append(r.s.posts, clonePost(p))
	return nil
}

func (r *PostRepository) GetByID(_ context.Context, id string) (*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, _ := r.s.post(id)
	if p == nil {
		return nil, domain.ErrPostNotFound
	}
	return clonePost(p), nil
}

// newest walks posts from the most recent insert back.
func (s *Store) newest(keep func(*domain.Post) bool) []*domain.Post {
	out := []*domain.Post{}
	for i := len(s.posts) - 1; i >= 0; i-- {
		if keep(s.posts[i]) {
			out = append(out, clonePost(s.posts[i]))
		}
	}
	return out
}

func (r *PostRepository) List(_ context.Context, f domain.PostFilter) ([]*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.newest(func(p *domain.Post) bool {
		if f.OfficialOnly && !p.IsOfficialNotice {
			return false
		}
		return f.Category == "" || p.Category == f.Category
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].IsPinned && !out[j].IsPinned })
	return page(out, f.Offset, f.Limit), nil
}

func (r *PostRepository) ListByAuthor(_ context.Context, authorID string, limit int) ([]*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := r.s.newest(func(p *domain.Post) bool { return p.AuthorID == authorID })
	return page(out, 0, limit), nil
}

func (r *PostRepository) ToggleLike(_ context.Context, id, userID string) (*domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, _ := r.s.post(id)
	if p == nil {
		return nil, domain.ErrPostNotFound
	}
	if i := slices.Index(p.Likes, userID); i >= 0 {
		p.Likes = slices.Delete(p.Likes, i, i+1)
	} else {
		p.Likes = append(p.Likes, userID)
	}
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

func (r *PostRepository) Pin(_ context.Context, id string) (*domain.Post, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, _ := r.s.post(id)
	if p == nil {
		return nil, domain.ErrPostNotFound
	}
	p.IsPinned = true
	p.UpdatedAt = time.Now().UTC()
	return clonePost(p), nil
}

// Delete removes the post and its comments.
func (r *PostRepository) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	_, i := r.s.post(id)
	if i < 0 {
		return domain.ErrPostNotFound
	}
	r.s.posts = slices.Delete(r.s.posts, i, i+1)
	r.s.comments = slices.DeleteFunc(r.s.comments, func(c *domain.Comment) bool { return c.PostID == id })
	return nil
}

type CommentRepository struct{ s *Store }

func (r *CommentRepository) Create(_ context.Context, c *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p, _ := r.s.post(c.PostID); p == nil {
		return domain.ErrPostNotFound
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()
	stored := *c
	r.s.comments = append(r.s.comments, &stored)
	return nil
}

// ListByPost returns the newest comments first.
func (r *CommentRepository) ListByPost(_ context.Context, postID string) ([]*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []*domain.Comment{}
	for i := len(r.s.comments) - 1; i >= 0; i-- {
		if c := r.s.comments[i]; c.PostID == postID {
			cc := *c
			out = append(out, &cc)
		}
	}
	return out, nil
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}
