package watchdog

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

var t0 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func sec(n int) time.Time {
	return t0.Add(time.Duration(n) * time.Second)
}

func botID() string { return "BOT" }

func counter() (*int32, NudgeFunc) {
	var n int32
	return &n, func(ctx context.Context) error {
		atomic.AddInt32(&n, 1)
		return nil
	}
}

func TestWatchdogScenario(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	n, nudge := counter()

	w := New(time.Hour, botID, t0, nudge, zap.NewNop())
	w.Touch(sec(0), "human")

	assert.False(w.Check(ctx, sec(1800)))
	assert.Equal(Stale, w.State(sec(3600)))
	assert.True(w.Check(ctx, sec(3600)))
	assert.Equal(Quiet, w.State(sec(3600)))
	assert.False(w.Check(ctx, sec(5400)))
	assert.True(w.Check(ctx, sec(7200)))
	assert.Equal(int32(2), atomic.LoadInt32(n))
}

func TestWatchdogOneNudgePerIdleInterval(t *testing.T) {
	n, nudge := counter()
	w := New(time.Hour, botID, t0, nudge, zap.NewNop())

	for s := 3600; s < 7200; s += 60 {
		w.Check(context.Background(), sec(s))
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(n))
}

func TestWatchdogIgnoresOwnMessages(t *testing.T) {
	n, nudge := counter()
	w := New(time.Hour, botID, t0, nudge, zap.NewNop())

	w.Touch(sec(0), "BOT")
	assert.False(t, w.Check(context.Background(), sec(10000)))

	w.Touch(sec(10000), "human")
	assert.False(t, w.Check(context.Background(), sec(12000)))
	assert.True(t, w.Check(context.Background(), sec(13600)))
	assert.Equal(t, int32(1), atomic.LoadInt32(n))
}

func TestWatchdogTouchResets(t *testing.T) {
	assert := assert.New(t)
	_, nudge := counter()
	w := New(time.Hour, botID, t0, nudge, zap.NewNop())

	assert.Equal(Stale, w.State(sec(4000)))
	w.Touch(sec(4000), "human")
	assert.Equal(Quiet, w.State(sec(4000)))
	assert.False(w.Check(context.Background(), sec(7599)))
}

func TestWatchdogResetsEvenWhenSendFails(t *testing.T) {
	var calls int32
	w := New(time.Hour, botID, t0, func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return errors.New("missing access")
	}, zap.NewNop())

	assert.True(t, w.Check(context.Background(), sec(3600)))
	assert.False(t, w.Check(context.Background(), sec(3601)))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWatchdogRun(t *testing.T) {
	var calls int32
	w := New(20*time.Millisecond, botID, time.Now().Add(-time.Hour), func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		return nil
	}, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.NoError(t, w.Run(ctx))
	assert.GreaterOrEqual(t, atomic.LoadInt32(&calls), int32(1))
}
