package presence

import (
	"context"
	"log/slog"
)

// Publisher delivers events to connected clients.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Tracker turns session connects and disconnects into presence broadcasts.
// Only the 0->1 and 1->0 edges are broadcast.
type Tracker struct {
	counter Counter
	out     Publisher
	logger  *slog.Logger
}

func NewTracker(counter Counter, out Publisher, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{counter: counter, out: out, logger: logger}
}

// Connect records a new session for userID.
func (t *Tracker) Connect(ctx context.Context, userID string) error {
	n, err := t.counter.Increment(ctx, userID)
	if err != nil {
		return err
	}
	if n == 1 {
		t.logger.Debug("user online", slog.String("user_id", userID))
		t.out.Publish(ctx, PresenceEvent(userID, true))
	}
	return nil
}

// Disconnect ends one session for userID.
func (t *Tracker) Disconnect(ctx context.Context, userID string) error {
	n, err := t.counter.Decrement(ctx, userID)
	if err != nil {
		return err
	}
	if n == 0 {
		t.logger.Debug("user offline", slog.String("user_id", userID))
		t.out.Publish(ctx, PresenceEvent(userID, false))
	}
	return nil
}

// OnlineUserIDs returns the users with at least one open session.
func (t *Tracker) OnlineUserIDs(ctx context.Context) ([]string, error) {
	return t.counter.Online(ctx)
}
