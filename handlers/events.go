package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Necroforger/dgrouter/exrouter"
	"github.com/bwmarrin/discordgo"
	"github.com/cufee/botto-hare/config"
	db "github.com/cufee/botto-hare/database"
	"github.com/cufee/botto-hare/discord"
	"github.com/cufee/botto-hare/roles"
	"github.com/cufee/botto-hare/spam"
	"github.com/cufee/botto-hare/watchdog"
	"go.uber.org/zap"
)

// Bot - Event handlers and the state they share
type Bot struct {
	Config   *config.Config
	Platform Platform
	Registry *db.Registry
	Tracker  *spam.Tracker
	Watchdog *watchdog.Watchdog // nil when no channel is monitored
	Logger   *zap.Logger
	Now      func() time.Time

	catalog atomic.Pointer[roles.Catalog]
	router  *exrouter.Route
}

// SetCatalog - Install the role catalog once it has been resolved
func (b *Bot) SetCatalog(c *roles.Catalog) {
	b.catalog.Store(c)
}

// Catalog - Current role catalog, empty until resolved
func (b *Bot) Catalog() *roles.Catalog {
	if c := b.catalog.Load(); c != nil {
		return c
	}
	return &roles.Catalog{}
}

func (b *Bot) now() time.Time {
	if b.Now != nil {
		return b.Now()
	}
	return time.Now()
}

// Register - Attach event handlers to a session
func (b *Bot) Register(s *discordgo.Session) {
	b.router = b.Router()
	s.AddHandler(b.Ready)
	s.AddHandler(b.MessageCreate)
	s.AddHandler(b.MessageReactionAdd)
	s.AddHandler(b.MessageReactionRemove)
}

// Ready - Resolve the role catalog the first time the session is ready.
// Custom emoji names need a live guild lookup, so this cannot happen earlier.
func (b *Bot) Ready(s *discordgo.Session, r *discordgo.Ready) {
	b.Logger.Info("discord ready", zap.String("user", r.User.Username))
	if b.catalog.Load() != nil {
		return
	}
	session := discord.Wrap(s)
	lookup := func(emojiID string) (string, error) {
		return session.EmojiName(b.Config.GuildID, emojiID)
	}
	b.SetCatalog(roles.Resolve(b.Config.Roles, lookup, b.Logger.Named("roles")))
}

// MessageCreate - Feed every message to the spam tracker / watchdog, then dispatch commands
func (b *Bot) MessageCreate(s *discordgo.Session, e *discordgo.MessageCreate) {
	if e.Message == nil || e.Author == nil {
		return
	}
	b.HandleMessage(context.Background(), e.Message)

	if b.router != nil && strings.HasPrefix(e.Content, b.Config.Prefix) {
		if err := b.router.FindAndExecute(s, b.Config.Prefix, s.State.User.ID, e.Message); err != nil {
			b.Logger.Debug("no command matched", zap.String("content", e.Content), zap.Error(err))
		}
	}
}

// HandleMessage - Spam tracking, idle clock and landing channel welcome for one message
func (b *Bot) HandleMessage(ctx context.Context, m *discordgo.Message) {
	now := b.now()

	names := make([]string, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		names = append(names, a.Filename)
	}
	fp := spam.NewFingerprint(m.Content, names)
	decision := b.Tracker.Observe(fp, spam.Occurrence{
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		AuthorID:  m.Author.ID,
		Time:      now,
	})
	messagesObserved.Inc()
	if decision.Flagged {
		b.moderate(ctx, m, decision.Occurrences)
	}

	if b.Watchdog != nil && m.ChannelID == b.Config.MonitoredChannel {
		b.Watchdog.Touch(now, m.Author.ID)
	}

	if b.isJoinNotice(m) {
		b.Logger.Info("welcoming member", zap.String("user_id", m.Author.ID), zap.String("user", m.Author.Username))
		if err := b.SendWelcome(ctx, m.Author.ID); err != nil {
			b.Logger.Warn("failed to welcome member", zap.String("user_id", m.Author.ID), zap.Error(err))
		}
	}
}

// isJoinNotice - Empty, sticker-less message in the landing channel
func (b *Bot) isJoinNotice(m *discordgo.Message) bool {
	if b.Config.LandingChannel == "" || m.ChannelID != b.Config.LandingChannel {
		return false
	}
	if m.Author.ID == b.Platform.BotID() {
		return false
	}
	return strings.TrimSpace(m.Content) == "" && len(m.StickerItems) == 0
}

// MessageReactionAdd - Grant a role for a reaction on an anchor message
func (b *Bot) MessageReactionAdd(s *discordgo.Session, e *discordgo.MessageReactionAdd) {
	b.OnReactionAdded(e.UserID, e.MessageID, e.Emoji.Name)
}

// MessageReactionRemove - Revoke a role when the reaction is taken back
func (b *Bot) MessageReactionRemove(s *discordgo.Session, e *discordgo.MessageReactionRemove) {
	b.OnReactionRemoved(e.UserID, e.MessageID, e.Emoji.Name)
}

// OnReactionAdded - Returns true if a role was granted
func (b *Bot) OnReactionAdded(userID, messageID, emojiLabel string) bool {
	return b.applyReaction(userID, messageID, emojiLabel, true)
}

// OnReactionRemoved - Returns true if a role was revoked
func (b *Bot) OnReactionRemoved(userID, messageID, emojiLabel string) bool {
	return b.applyReaction(userID, messageID, emojiLabel, false)
}

func (b *Bot) applyReaction(userID, messageID, emojiLabel string, grant bool) bool {
	// Ignore self
	if userID == b.Platform.BotID() {
		return false
	}
	if !b.Registry.Contains(messageID) {
		return false
	}
	role, ok := b.Catalog().Match(emojiLabel)
	if !ok {
		return false
	}

	action, notice := "grant", config.SubscribedFormat
	if !grant {
		action, notice = "revoke", config.UnsubscribedFormat
	}
	logger := b.Logger.With(
		zap.String("user_id", userID),
		zap.String("message_id", messageID),
		zap.String("role", role.Name),
		zap.String("action", action),
	)

	// Get member obj
	if _, err := b.Platform.FetchMember(b.Config.GuildID, userID); err != nil {
		roleChanges.WithLabelValues(action, "member_error").Inc()
		logPlatformError(logger, "failed to fetch member", err)
		return false
	}

	var err error
	if grant {
		err = b.Platform.GrantRole(b.Config.GuildID, userID, role.RoleID)
	} else {
		err = b.Platform.RevokeRole(b.Config.GuildID, userID, role.RoleID)
	}
	if err != nil {
		roleChanges.WithLabelValues(action, "error").Inc()
		logPlatformError(logger, "failed to update member role", err)
		return false
	}
	roleChanges.WithLabelValues(action, "ok").Inc()
	logger.Info("member role updated")

	// DM user
	if _, err := b.Platform.SendDirect(userID, fmt.Sprintf(notice, role.Name)); err != nil {
		logPlatformError(logger, "failed to send role notice", err)
	}
	return true
}

// logPlatformError - Expected refusals are warnings, anything else is an error
func logPlatformError(logger *zap.Logger, msg string, err error) {
	if errors.Is(err, discord.ErrPermissionDenied) || errors.Is(err, discord.ErrNotFound) {
		logger.Warn(msg, zap.Error(err))
		return
	}
	logger.Error(msg, zap.Error(err))
}
