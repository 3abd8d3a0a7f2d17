package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pollWithCounts(counts ...int) *Poll {
	p := &Poll{}
	voter := 0
	for _, n := range counts {
		opt := PollOption{Label: "opt"}
		for i := 0; i < n; i++ {
			voter++
			opt.Voters = append(opt.Voters, string(rune('a'+voter)))
		}
		p.Options = append(p.Options, opt)
	}
	return p
}

func TestTallyLeader(t *testing.T) {
	cases := []struct {
		name   string
		counts []int
		leader int
	}{
		{"single winner", []int{3, 1, 0}, 0},
		{"winner last", []int{0, 1, 2}, 2},
		{"tie at max", []int{2, 2, 1}, -1},
		{"three way tie", []int{1, 1, 1}, -1},
		{"no votes", []int{0, 0, 0}, -1},
		{"single option no votes", []int{0}, -1},
		{"tie broken later", []int{2, 2, 3}, 2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tally := pollWithCounts(tc.counts...).Tally()
			assert.Equal(t, tc.counts, tally.Counts)
			if tc.leader < 0 {
				assert.Nil(t, tally.Leader)
				return
			}
			require.NotNil(t, tally.Leader)
			assert.Equal(t, tc.leader, *tally.Leader)
		})
	}
}

func TestTallyTotal(t *testing.T) {
	tally := pollWithCounts(4, 1).Tally()
	assert.Equal(t, 5, tally.Total)
}

func TestUserStatusTransitions(t *testing.T) {
	assert.True(t, UserPending.CanTransition(UserActive))
	assert.True(t, UserPending.CanTransition(UserBlocked))
	assert.True(t, UserActive.CanTransition(UserBlocked))
	assert.True(t, UserBlocked.CanTransition(UserActive))
	assert.False(t, UserActive.CanTransition(UserPending))
	assert.False(t, UserBlocked.CanTransition(UserPending))
	assert.False(t, UserActive.CanTransition(UserActive))
}

func TestCNICLast4(t *testing.T) {
	assert.Equal(t, "1111", CNICLast4("11111-1111111-1"))
	assert.Equal(t, "4567", CNICLast4("3520212345674567"))
	assert.Equal(t, "12", CNICLast4("12"))
}

func TestInviteCheck(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	inv := &Invite{ExpiresAt: now.Add(time.Hour)}
	assert.NoError(t, inv.Check(now))

	assert.ErrorIs(t, inv.Check(now.Add(time.Hour)), ErrInviteExpired, "expiry instant is already expired")

	used := now
	inv.UsedAt = &used
	err := inv.Check(now)
	assert.ErrorIs(t, err, ErrInviteUsed)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestErrorKinds(t *testing.T) {
	assert.ErrorIs(t, Invalid("bad"), ErrValidation)
	assert.ErrorIs(t, ErrAlreadyVoted, ErrConflict)
	assert.ErrorIs(t, ErrPollNotFound, ErrNotFound)
	assert.Equal(t, "bad", Invalid("bad").Error())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]*Transaction{
		{Type: TransactionIncome, Amount: 5000},
		{Type: TransactionExpense, Amount: 1200},
		{Type: TransactionIncome, Amount: 300},
	})
	assert.Equal(t, int64(5300), s.TotalIncome)
	assert.Equal(t, int64(1200), s.TotalExpense)
	assert.Equal(t, int64(4100), s.Balance)

	empty := Summarize(nil)
	assert.NotNil(t, empty.Transactions)
	assert.Zero(t, empty.Balance)
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, "invite already used", ErrorText(ErrInviteUsed))
	assert.Equal(t, "invite already used", ErrorText(fmt.Errorf("redeem: %w", ErrInviteUsed)))
	assert.Empty(t, ErrorText(errors.New("boom")))

	// The error helper and the message entity share the package.
	var m Message
	assert.Empty(t, m.ID)
}
