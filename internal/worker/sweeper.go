package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/aryan0dhankhar/wardenlink/internal/observability/metrics"
)

// PollCloser closes every open poll whose deadline has passed.
type PollCloser interface {
	CloseDue(ctx context.Context) (int, error)
}

// OnlineLister reports who currently has a live connection.
type OnlineLister interface {
	OnlineUserIDs(ctx context.Context) ([]string, error)
}

// Sweeper periodically closes due welfare polls and refreshes the online
// users gauge.
type Sweeper struct {
	polls      PollCloser
	online     OnlineLister
	logger     *slog.Logger
	interval   time.Duration
	maxRetries int
	backoff    func(attempt int) time.Duration
}

// NewSweeper creates a sweeper. online may be nil.
func NewSweeper(polls PollCloser, online OnlineLister, logger *slog.Logger, interval time.Duration) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		polls:      polls,
		online:     online,
		logger:     logger,
		interval:   interval,
		maxRetries: 3,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
	}
}

// Start runs the sweep loop until ctx is cancelled.
func (w *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("sweeper started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("sweeper stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep.
func (w *Sweeper) RunOnce(ctx context.Context) {
	w.closeDuePolls(ctx)
	w.refreshOnline(ctx)
}

func (w *Sweeper) closeDuePolls(ctx context.Context) {
	for attempt := 1; attempt <= w.maxRetries; attempt++ {
		if attempt > 1 {
			backoff := w.backoff(attempt)
			w.logger.Warn("retrying poll sweep", slog.Int("attempt", attempt), slog.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
		}

		n, err := w.polls.CloseDue(ctx)
		if err == nil {
			if n > 0 {
				w.logger.Info("closed due polls", slog.Int("count", n))
			}
			return
		}
		w.logger.Error("poll sweep failed", slog.Int("attempt", attempt), slog.String("error", err.Error()))
	}

	w.logger.Error("poll sweep failed after retries", slog.Int("max_retries", w.maxRetries))
}

func (w *Sweeper) refreshOnline(ctx context.Context) {
	if w.online == nil {
		return
	}
	ids, err := w.online.OnlineUserIDs(ctx)
	if err != nil {
		w.logger.Warn("failed to count online users", slog.String("error", err.Error()))
		return
	}
	metrics.SetOnlineUsers(len(ids))
}
