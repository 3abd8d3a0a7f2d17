package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
	"github.com/aryan0dhankhar/wardenlink/internal/observability/metrics"
	"github.com/aryan0dhankhar/wardenlink/internal/security/audit"
)

const maxPollOptions = 20

// PollService runs welfare decision polls
type PollService struct {
	polls  domain.PollRepository
	audit  *audit.Logger
	logger *slog.Logger
	now    func() time.Time
}

func NewPollService(polls domain.PollRepository, auditLog *audit.Logger, logger *slog.Logger) *PollService {
	if logger == nil {
		logger = slog.Default()
	}
	return &PollService{polls: polls, audit: auditLog, logger: logger, now: utcNow}
}

// CreatePollInput is the body of POST /api/welfare/polls
type CreatePollInput struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Options     []string   `json:"options"`
	ClosesAt    *time.Time `json:"closesAt"`
}

// PollView is a poll with its tally and the caller's vote state.
type PollView struct {
	*domain.Poll
	Tally    domain.Tally `json:"tally"`
	HasVoted bool         `json:"hasVoted"`
}

func newPollView(p *domain.Poll, viewerID string) *PollView {
	return &PollView{Poll: p, Tally: p.Tally(), HasVoted: p.HasVoted(viewerID)}
}

func (s *PollService) Create(ctx context.Context, actorID string, in CreatePollInput) (*PollView, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.Invalid("poll title is required")
	}
	options := make([]domain.PollOption, 0, len(in.Options))
	for _, label := range in.Options {
		if label = strings.TrimSpace(label); label != "" {
			options = append(options, domain.PollOption{Label: label, Voters: []string{}})
		}
	}
	if len(options) < 2 {
		return nil, domain.Invalid("a poll needs at least two options")
	}
	if len(options) > maxPollOptions {
		return nil, domain.Invalid("too many poll options")
	}
	if in.ClosesAt != nil && !in.ClosesAt.After(s.now()) {
		return nil, domain.Invalid("closesAt must be in the future")
	}

	p := &domain.Poll{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Options:     options,
		Status:      domain.PollOpen,
		CreatedBy:   actorID,
		ClosesAt:    in.ClosesAt,
	}
	if err := s.polls.Create(ctx, p); err != nil {
		return nil, err
	}
	s.audit.LogAction(ctx, actorID, domain.ActionPollCreate, p.ID, map[string]any{"options": len(options)})
	return newPollView(p, actorID), nil
}

func (s *PollService) List(ctx context.Context, viewerID string) ([]*PollView, error) {
	polls, err := s.polls.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*PollView, 0, len(polls))
	for _, p := range polls {
		out = append(out, newPollView(p, viewerID))
	}
	return out, nil
}

func (s *PollService) Get(ctx context.Context, id, viewerID string) (*PollView, error) {
	p, err := s.polls.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return newPollView(p, viewerID), nil
}

// Vote records voterID's choice. A poll past its closing time refuses votes
// even before the sweeper has closed it.
func (s *PollService) Vote(ctx context.Context, pollID, voterID string, option int) (*PollView, error) {
	p, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		metrics.ObserveVote(metrics.Result(err))
		return nil, err
	}
	if option < 0 || option >= len(p.Options) {
		metrics.ObserveVote(metrics.Result(domain.ErrOptionNotFound))
		return nil, domain.ErrOptionNotFound
	}
	now := s.now()
	if p.ClosesAt != nil && !p.ClosesAt.After(now) {
		metrics.ObserveVote("closed")
		return nil, domain.ErrPollClosed
	}

	err = s.polls.AddVote(ctx, pollID, option, voterID, now)
	metrics.ObserveVote(voteResult(err))
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, pollID, voterID)
}

func voteResult(err error) string {
	switch {
	case err == nil:
		return "recorded"
	case errors.Is(err, domain.ErrAlreadyVoted):
		return "duplicate"
	case errors.Is(err, domain.ErrPollClosed):
		return "closed"
	default:
		return metrics.Result(err)
	}
}

// Close closes the poll. Closing an already closed poll is a no-op.
func (s *PollService) Close(ctx context.Context, actorID, id string) (*PollView, error) {
	changed, err := s.polls.Close(ctx, id)
	if err != nil {
		return nil, err
	}
	if changed {
		s.audit.LogAction(ctx, actorID, domain.ActionPollClose, id, nil)
		metrics.ObservePollsClosed("manual", 1)
	}
	return s.Get(ctx, id, actorID)
}

// CloseDue closes every open poll whose closing time has passed.
func (s *PollService) CloseDue(ctx context.Context) (int, error) {
	ids, err := s.polls.CloseDue(ctx, s.now())
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		s.audit.LogAction(ctx, "", domain.ActionPollClose, id, map[string]any{"source": "schedule"})
	}
	if len(ids) > 0 {
		metrics.ObservePollsClosed("schedule", len(ids))
		s.logger.Info("closed due polls", slog.Int("count", len(ids)))
	}
	return len(ids), nil
}
