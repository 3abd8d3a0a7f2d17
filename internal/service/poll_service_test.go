package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/wardenlink/internal/domain"
)

func newPoll(t *testing.T, f *fixture, closesAt *time.Time) *PollView {
	t.Helper()
	p, err := f.polls.Create(context.Background(), "admin-1", CreatePollInput{
		Title:    "Eid support",
		Options:  []string{"Food packs", " ", "Cash grant", "School fees"},
		ClosesAt: closesAt,
	})
	require.NoError(t, err)
	return p
}

func TestCreatePoll(t *testing.T) {
	f := newFixture(t)
	p := newPoll(t, f, nil)
	require.Len(t, p.Options, 3)
	assert.Equal(t, domain.PollOpen, p.Status)
	assert.Equal(t, []int{0, 0, 0}, p.Tally.Counts)
	assert.Nil(t, p.Tally.Leader)

	_, err := f.polls.Create(context.Background(), "a", CreatePollInput{Title: "x", Options: []string{"only"}})
	assert.ErrorIs(t, err, domain.ErrValidation)
	past := time.Now().Add(-time.Minute)
	_, err = f.polls.Create(context.Background(), "a", CreatePollInput{Title: "x", Options: []string{"a", "b"}, ClosesAt: &past})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestVote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := newPoll(t, f, nil)

	v, err := f.polls.Vote(ctx, p.ID, "u1", 1)
	require.NoError(t, err)
	assert.True(t, v.HasVoted)
	require.NotNil(t, v.Tally.Leader)
	assert.Equal(t, 1, *v.Tally.Leader)

	_, err = f.polls.Vote(ctx, p.ID, "u1", 0)
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)
	_, err = f.polls.Vote(ctx, p.ID, "u2", 7)
	assert.ErrorIs(t, err, domain.ErrOptionNotFound)
	_, err = f.polls.Vote(ctx, "missing", "u2", 0)
	assert.ErrorIs(t, err, domain.ErrPollNotFound)

	v, err = f.polls.Vote(ctx, p.ID, "u2", 0)
	require.NoError(t, err)
	assert.Nil(t, v.Tally.Leader, "a tie has no leader")
	assert.Equal(t, 2, v.Tally.Total)
}

func TestVote_ConcurrentSameVoter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := newPoll(t, f, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(option int) {
			defer wg.Done()
			_, _ = f.polls.Vote(ctx, p.ID, "u1", option%3)
		}(i)
	}
	wg.Wait()

	got, err := f.polls.Get(ctx, p.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Tally.Total)
}

func TestClosePoll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := newPoll(t, f, nil)

	closed, err := f.polls.Close(ctx, "admin-1", p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PollClosed, closed.Status)

	_, err = f.polls.Close(ctx, "admin-1", p.ID)
	require.NoError(t, err)

	count := 0
	for _, a := range f.auditActions(t) {
		if a == domain.ActionPollClose {
			count++
		}
	}
	assert.Equal(t, 1, count)

	_, err = f.polls.Vote(ctx, p.ID, "u1", 0)
	assert.ErrorIs(t, err, domain.ErrPollClosed)
	_, err = f.polls.Vote(ctx, p.ID, "u1", -1)
	assert.ErrorIs(t, err, domain.ErrOptionNotFound)
}

func TestCloseDue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	f.polls.now = func() time.Time { return now }

	soon := now.Add(time.Hour)
	later := now.Add(48 * time.Hour)
	due := newPoll(t, f, &soon)
	open := newPoll(t, f, &later)

	f.polls.now = func() time.Time { return soon }
	_, err := f.polls.Vote(ctx, due.ID, "u1", 0)
	assert.ErrorIs(t, err, domain.ErrPollClosed, "past closing time refuses votes before the sweep")
	_, err = f.polls.Vote(ctx, due.ID, "u1", 9)
	assert.ErrorIs(t, err, domain.ErrOptionNotFound, "an unknown option is reported before the closing time")

	n, err := f.polls.CloseDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := f.polls.Get(ctx, due.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.PollClosed, got.Status)
	got, err = f.polls.Get(ctx, open.ID, "")
	require.NoError(t, err)
	assert.Equal(t, domain.PollOpen, got.Status)

	n, err = f.polls.CloseDue(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}
