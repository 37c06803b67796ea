package watchdog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State - Quiet or Stale
type State int

const (
	Quiet State = iota
	Stale
)

// String - "quiet" or "stale"
func (s State) String() string {
	if s == Stale {
		return "stale"
	}
	return "quiet"
}

// NudgeFunc - Post the reminder to the monitored channel
type NudgeFunc func(ctx context.Context) error

// Watchdog - Idle clock for one channel
type Watchdog struct {
	mu           sync.Mutex
	threshold    time.Duration
	botID        func() string
	lastActivity time.Time
	lastActor    string

	nudge  NudgeFunc
	now    func() time.Time
	logger *zap.Logger
}

// New - Start the idle clock at start with no known actor. botID is consulted on
// every check, the bot's identity is only known once connected.
func New(threshold time.Duration, botID func() string, start time.Time, nudge NudgeFunc, logger *zap.Logger) *Watchdog {
	return &Watchdog{
		threshold:    threshold,
		botID:        botID,
		lastActivity: start,
		nudge:        nudge,
		now:          time.Now,
		logger:       logger,
	}
}

// Touch - Record a message on the monitored channel, always resets the clock
func (w *Watchdog) Touch(at time.Time, actorID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastActivity = at
	w.lastActor = actorID
}

// State - Quiet or Stale at now
func (w *Watchdog) State(now time.Time) State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state(now)
}

func (w *Watchdog) state(now time.Time) State {
	if now.Sub(w.lastActivity) >= w.threshold {
		return Stale
	}
	return Quiet
}

func (w *Watchdog) isBot(actorID string) bool {
	if w.botID == nil || actorID == "" {
		return false
	}
	return actorID == w.botID()
}

// Check - Nudge when the channel is stale and the last speaker was not the bot.
// The clock is reset before sending so a slow or failed send cannot fire twice.
func (w *Watchdog) Check(ctx context.Context, now time.Time) bool {
	w.mu.Lock()
	if w.state(now) != Stale || w.isBot(w.lastActor) {
		w.mu.Unlock()
		return false
	}
	idle := now.Sub(w.lastActivity)
	w.lastActivity = now
	w.mu.Unlock()

	w.logger.Info("channel idle, sending nudge", zap.Duration("idle", idle))
	if err := w.nudge(ctx); err != nil {
		w.logger.Warn("failed to send nudge", zap.Error(err))
	}
	return true
}

// Run - Check every threshold/2 until ctx is done
func (w *Watchdog) Run(ctx context.Context) error {
	interval := w.threshold / 2
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.Check(ctx, w.now())
		}
	}
}
