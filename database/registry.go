package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"go.uber.org/zap"
)

// Registry - Set of anchor message IDs whose reactions grant roles.
// The set only grows. Lookups hit the in-memory index; the Log is the durability record
// replayed on startup.
type Registry struct {
	mu      sync.RWMutex
	index   map[string]struct{}
	log     Log
	timeout time.Duration
	logger  *zap.Logger
}

// NewRegistry - Replay the log into a fresh index. A failed replay leaves the index empty
// (every lookup reads as not found) but the registry still accepts writes.
func NewRegistry(log Log, timeout time.Duration, logger *zap.Logger) *Registry {
	r := &Registry{
		index:   make(map[string]struct{}),
		log:     log,
		timeout: timeout,
		logger:  logger,
	}

	ids, err := log.Load()
	if err != nil {
		logger.Warn("failed to replay anchor registry", zap.Error(err))
		return r
	}
	for _, id := range ids {
		r.index[id] = struct{}{}
	}
	logger.Info("anchor registry loaded", zap.Int("anchors", len(r.index)))
	return r
}

// Register - Durably record an anchor, then make it visible to Contains.
// Failures wrap ErrStorage. A write that completes after the timeout still indexes the
// anchor, so the index never lags behind what a restart would replay.
func (r *Registry) Register(ctx context.Context, id string) error {
	if r.Contains(id) {
		return nil
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	err := retry.Do(
		func() error {
			return r.appendOnce(ctx, id)
		},
		retry.Attempts(3),
		retry.Delay(100*time.Millisecond),
		retry.Context(ctx),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Debug("retrying anchor write", zap.String("message_id", id), zap.Uint("attempt", n), zap.Error(err))
		}),
	)
	if err != nil {
		return fmt.Errorf("%w: append anchor %s: %v", ErrStorage, id, err)
	}

	r.add(id)
	return nil
}

func (r *Registry) add(id string) {
	r.mu.Lock()
	r.index[id] = struct{}{}
	r.mu.Unlock()
}

func (r *Registry) appendOnce(ctx context.Context, id string) error {
	done := make(chan error, 1)
	go func() {
		err := r.log.Append(id)
		if err == nil && ctx.Err() != nil {
			// Register already gave up on this write
			r.add(id)
			r.logger.Info("anchor write completed after timeout", zap.String("message_id", id))
		}
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Contains - Check if a message is a registered anchor
func (r *Registry) Contains(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.index[id]
	return ok
}

// Len - Number of registered anchors
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.index)
}

// Close - Close the underlying log
func (r *Registry) Close() error {
	return r.log.Close()
}
