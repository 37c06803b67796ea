package handlers

import (
	"context"
	"fmt"

	"github.com/cufee/botto-hare/config"
	"go.uber.org/zap"
)

// SendWelcome - DM the welcome text to a user, reactions on it subscribe to roles
func (b *Bot) SendWelcome(ctx context.Context, userID string) error {
	msg, err := b.Platform.SendDirect(userID, config.WelcomeText)
	if err != nil {
		return fmt.Errorf("send welcome to %s: %w", userID, err)
	}
	b.attachRoleReactions(ctx, msg.ChannelID, msg.ID)
	return nil
}

// PostRolePrompt - Post the role prompt to a channel
func (b *Bot) PostRolePrompt(ctx context.Context, channelID string) error {
	msg, err := b.Platform.SendMessage(channelID, config.RolePromptText, false)
	if err != nil {
		return fmt.Errorf("send role prompt to %s: %w", channelID, err)
	}
	b.attachRoleReactions(ctx, msg.ChannelID, msg.ID)
	return nil
}

// attachRoleReactions - Register the message as an anchor, then seed one reaction per role.
// A failed registration only disables roles for this message.
func (b *Bot) attachRoleReactions(ctx context.Context, channelID, messageID string) {
	logger := b.Logger.With(zap.String("channel_id", channelID), zap.String("message_id", messageID))

	if err := b.Registry.Register(ctx, messageID); err != nil {
		anchorsRegistered.WithLabelValues("error").Inc()
		logger.Warn("failed to register anchor message", zap.Error(err))
	} else {
		anchorsRegistered.WithLabelValues("ok").Inc()
	}

	for _, role := range b.Catalog().Entries() {
		if err := b.Platform.AddReaction(channelID, messageID, role.Emoji.APIName()); err != nil {
			logPlatformError(logger.With(zap.String("role", role.Name)), "failed to add role reaction", err)
		}
	}
}

// Nudge - Post the idle reminder to the monitored channel without notifying anyone
func (b *Bot) Nudge(ctx context.Context) error {
	return b.NudgeChannel(ctx, b.Config.MonitoredChannel)
}

// NudgeChannel - Post the idle reminder to any channel, used by !ui
func (b *Bot) NudgeChannel(ctx context.Context, channelID string) error {
	if _, err := b.Platform.SendMessage(channelID, b.Config.NudgeText, true); err != nil {
		return fmt.Errorf("send nudge to %s: %w", channelID, err)
	}
	nudgesSent.Inc()
	return nil
}
