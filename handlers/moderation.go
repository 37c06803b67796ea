package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/codeGROOVE-dev/retry"
	"github.com/cufee/botto-hare/config"
	"github.com/cufee/botto-hare/discord"
	"github.com/cufee/botto-hare/spam"
	"go.uber.org/zap"
)

// moderate - Alert moderators about a flagged burst and delete every tracked copy
func (b *Bot) moderate(ctx context.Context, m *discordgo.Message, occurrences []spam.Occurrence) {
	spamFlagged.Inc()
	logger := b.Logger.With(zap.String("author_id", m.Author.ID), zap.Int("occurrences", len(occurrences)))
	logger.Warn("possible spam detected")

	if b.Config.ModChannel != "" {
		alert := fmt.Sprintf(config.SpamAlertFormat, m.Author.Mention(), b.Config.ModPing, m.Content)
		if err := b.sendWithRetry(ctx, b.Config.ModChannel, alert); err != nil {
			logPlatformError(logger, "failed to alert moderators", err)
		}
		for _, a := range m.Attachments {
			if err := b.sendWithRetry(ctx, b.Config.ModChannel, a.URL); err != nil {
				logPlatformError(logger, "failed to forward attachment", err)
			}
		}
	}

	for _, o := range occurrences {
		err := b.Platform.DeleteMessage(o.ChannelID, o.MessageID)
		switch {
		case err == nil:
			spamDeletes.WithLabelValues("ok").Inc()
		case errors.Is(err, discord.ErrPermissionDenied):
			spamDeletes.WithLabelValues("forbidden").Inc()
			logger.Debug("no permission to delete spam", zap.String("channel_id", o.ChannelID), zap.String("message_id", o.MessageID))
		case errors.Is(err, discord.ErrNotFound):
			spamDeletes.WithLabelValues("gone").Inc()
		default:
			spamDeletes.WithLabelValues("error").Inc()
			logger.Error("failed to delete spam", zap.String("channel_id", o.ChannelID), zap.String("message_id", o.MessageID), zap.Error(err))
		}
	}
}

// sendWithRetry - Retry transient send failures, refusals are returned right away
func (b *Bot) sendWithRetry(ctx context.Context, channelID, content string) error {
	return retry.Do(
		func() error {
			_, err := b.Platform.SendMessage(channelID, content, false)
			return err
		},
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, discord.ErrPermissionDenied) && !errors.Is(err, discord.ErrNotFound)
		}),
	)
}

// SweepSpam - Periodically drop buckets whose occurrences all aged out
func (b *Bot) SweepSpam(ctx context.Context) error {
	ticker := time.NewTicker(b.Config.SpamTimeframe)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := b.Tracker.Sweep(b.now()); n > 0 {
				b.Logger.Debug("swept idle spam buckets", zap.Int("buckets", n))
			}
		}
	}
}
