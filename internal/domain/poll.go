package domain

import (
	"context"
	"time"
)

// PollStatus moves one way: open to closed.
type PollStatus string

const (
	PollOpen   PollStatus = "open"
	PollClosed PollStatus = "closed"
)

// PollOption is one choice with the ids of its voters.
type PollOption struct {
	Label  string   `json:"label"`
	Voters []string `json:"voters"`
}

// Poll is a welfare decision poll.
type Poll struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Options     []PollOption `json:"options"`
	Status      PollStatus   `json:"status"`
	CreatedBy   string       `json:"createdBy"`
	ClosesAt    *time.Time   `json:"closesAt,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// HasVoted reports whether userID voted for any option.
func (p *Poll) HasVoted(userID string) bool {
	for _, o := range p.Options {
		if contains(o.Voters, userID) {
			return true
		}
	}
	return false
}

// Tally is the per-option count and the strict leader, if any.
type Tally struct {
	Counts []int `json:"counts"`
	Total  int   `json:"total"`
	// Leader is the index of the single option with the most votes. Nil on
	// any tie at the maximum, including a poll with no votes.
	Leader *int `json:"leader"`
}

// Tally counts votes per option.
func (p *Poll) Tally() Tally {
	t := Tally{Counts: make([]int, len(p.Options))}
	best, leader, tied := 0, -1, false
	for i, o := range p.Options {
		n := len(o.Voters)
		t.Counts[i] = n
		t.Total += n
		switch {
		case n > best:
			best, leader, tied = n, i, false
		case n == best:
			tied = true
		}
	}
	if leader >= 0 && !tied {
		t.Leader = &leader
	}
	return t
}

// PollRepository defines data access for welfare polls
type PollRepository interface {
	Create(ctx context.Context, poll *Poll) error
	GetByID(ctx context.Context, id string) (*Poll, error)
	List(ctx context.Context) ([]*Poll, error)
	// AddVote records a vote. It returns ErrPollNotFound, ErrPollClosed,
	// ErrOptionNotFound or ErrAlreadyVoted; the store enforces one vote per
	// voter per poll.
	AddVote(ctx context.Context, pollID string, option int, voterID string, at time.Time) error
	// Close marks the poll closed. changed is false if it was already closed.
	Close(ctx context.Context, id string) (changed bool, err error)
	// CloseDue closes open polls whose closing time is at or before now and
	// returns their ids.
	CloseDue(ctx context.Context, now time.Time) ([]string, error)
}
