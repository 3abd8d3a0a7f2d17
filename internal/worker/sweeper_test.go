package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeCloser struct {
	calls atomic.Int32
	fail  int32
	n     int
}

func (f *fakeCloser) CloseDue(context.Context) (int, error) {
	if f.calls.Add(1) <= f.fail {
		return 0, errors.New("database unavailable")
	}
	return f.n, nil
}

type fakeOnline struct{ called bool }

func (f *fakeOnline) OnlineUserIDs(context.Context) ([]string, error) {
	f.called = true
	return []string{"a", "b"}, nil
}

func newTestSweeper(polls PollCloser, online OnlineLister) *Sweeper {
	w := NewSweeper(polls, online, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Millisecond)
	w.backoff = func(int) time.Duration { return 0 }
	return w
}

func TestRunOnceClosesPolls(t *testing.T) {
	polls := &fakeCloser{n: 2}
	online := &fakeOnline{}
	newTestSweeper(polls, online).RunOnce(context.Background())

	assert.Equal(t, int32(1), polls.calls.Load())
	assert.True(t, online.called)
}

func TestRunOnceRetries(t *testing.T) {
	polls := &fakeCloser{fail: 2}
	newTestSweeper(polls, nil).RunOnce(context.Background())
	assert.Equal(t, int32(3), polls.calls.Load())

	polls = &fakeCloser{fail: 10}
	newTestSweeper(polls, nil).RunOnce(context.Background())
	assert.Equal(t, int32(3), polls.calls.Load())
}

func TestStartStopsOnCancel(t *testing.T) {
	polls := &fakeCloser{}
	w := newTestSweeper(polls, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return polls.calls.Load() > 0 }, time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}
