package handlers

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/cufee/botto-hare/config"
	"github.com/cufee/botto-hare/roles"
	"go.uber.org/zap"
)

// RotatePresence - Set a random "<verb> the <role>" status every interval
func (b *Bot) RotatePresence(ctx context.Context, setStatus func(string) error, interval time.Duration) error {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			status := presenceText(rng, b.Catalog().Entries())
			if status == "" {
				continue
			}
			if err := setStatus(status); err != nil {
				b.Logger.Debug("failed to update status", zap.Error(err))
			}
		}
	}
}

func presenceText(rng *rand.Rand, entries []roles.Entry) string {
	if len(entries) == 0 {
		return ""
	}
	verb := config.PresenceVerbs[rng.Intn(len(config.PresenceVerbs))]
	return fmt.Sprintf("%s the %s", verb, entries[rng.Intn(len(entries))].Name)
}
