package memory

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

type PollRepository struct{ s *Store }

func clonePoll(p *domain.Poll) *domain.Poll {
	c := *p
	c.Options = make([]domain.PollOption, len(p.Options))
	for i, o := range p.Options {
		c.Options[i] = domain.PollOption{Label: o.Label, Voters: cloneStrings(o.Voters)}
	}
	if p.ClosesAt != nil {
		at := *p.ClosesAt
		c.ClosesAt = &at
	}
	return &c
}

func (r *PollRepository) Create(_ context.Context, p *domain.Poll) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	r.s.polls[p.ID] = clonePoll(p)
	return nil
}

func (r *PollRepository) GetByID(_ context.Context, id string) (*domain.Poll, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return clonePoll(p), nil
}

func (r *PollRepository) List(_ context.Context) ([]*domain.Poll, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]*domain.Poll, 0, len(r.s.polls))
	for _, p := range r.s.polls {
		out = append(out, clonePoll(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *PollRepository) AddVote(_ context.Context, pollID string, option int, voterID string, _ time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.polls[pollID]
	if !ok {
		return domain.ErrPollNotFound
	}
	if option < 0 || option >= len(p.Options) {
		return domain.ErrOptionNotFound
	}
	if p.Status != domain.PollOpen {
		return domain.ErrPollClosed
	}
	if p.HasVoted(voterID) {
		return domain.ErrAlreadyVoted
	}
	p.Options[option].Voters = append(p.Options[option].Voters, voterID)
	return nil
}

func (r *PollRepository) Close(_ context.Context, id string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.polls[id]
	if !ok {
		return false, domain.ErrPollNotFound
	}
	if p.Status == domain.PollClosed {
		return false, nil
	}
	p.Status = domain.PollClosed
	return true, nil
}

func (r *PollRepository) CloseDue(_ context.Context, now time.Time) ([]string, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	closed := []string{}
	for id, p := range r.s.polls {
		if p.Status == domain.PollOpen && p.ClosesAt != nil && !p.ClosesAt.After(now) {
			p.Status = domain.PollClosed
			closed = append(closed, id)
		}
	}
	sort.Strings(closed)
	return closed, nil
}
