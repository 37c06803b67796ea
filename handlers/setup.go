package handlers

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Necroforger/dgrouter/exrouter"
	"github.com/bwmarrin/discordgo"
	"github.com/cufee/botto-hare/config"
	"go.uber.org/zap"
)

var mentionChars = regexp.MustCompile(`[<@!>]`)

// errUsage - Malformed command arguments, answered with the usage line
var errUsage = errors.New("invalid arguments")

// Router - Chat commands, roles / welcome / rolecount / say are admin only
func (b *Bot) Router() *exrouter.Route {
	router := exrouter.New()
	router.On("roles", b.RolesHandler).Desc("post a role subscription prompt in this channel")
	router.On("welcome", b.WelcomeHandler).Desc("DM the welcome message to a user")
	router.On("rolecount", b.RoleCountHandler).Desc("count members of each subscribable role")
	router.On("ui", b.UIHandler).Desc("post the Mainsail/Fluidd update reminder")
	router.On("code", b.CodeHandler).Desc("explain how to post configs and logs in code fences")
	router.On("say", b.SayHandler).Desc("post a message as the bot")
	return router
}

// RolesHandler - !roles
func (b *Bot) RolesHandler(ctx *exrouter.Context) {
	if !b.Config.IsAdmin(ctx.Msg.Author.ID) {
		return
	}
	b.deleteCommand(ctx.Msg)

	if err := b.PostRolePrompt(context.Background(), ctx.Msg.ChannelID); err != nil {
		logPlatformError(b.Logger, "failed to post role prompt", err)
		replyDel(ctx, "Failed to post the role prompt.", 15)
	}
}

// WelcomeHandler - !welcome @user
func (b *Bot) WelcomeHandler(ctx *exrouter.Context) {
	if !b.Config.IsAdmin(ctx.Msg.Author.ID) {
		return
	}

	userID := welcomeTarget(ctx.Msg.Mentions, ctx.Args.Get(1))
	if userID == "" {
		replyDel(ctx, "Please include a user mention or ID.", 15)
		return
	}
	b.deleteCommand(ctx.Msg)

	b.Logger.Info("welcoming member on request", zap.String("user_id", userID), zap.String("admin_id", ctx.Msg.Author.ID))
	if err := b.SendWelcome(context.Background(), userID); err != nil {
		logPlatformError(b.Logger, "failed to welcome member", err)
		replyDel(ctx, fmt.Sprintf("Failed to welcome <@%s>, their DMs may be closed.", userID), 15)
	}
}

// RoleCountHandler - !rolecount
func (b *Bot) RoleCountHandler(ctx *exrouter.Context) {
	if !b.Config.IsAdmin(ctx.Msg.Author.ID) {
		return
	}
	ctx.Reply("Counting role users")
	for _, line := range b.RoleCounts() {
		ctx.Reply(line)
	}
}

// RoleCounts - "name: count" per catalog role
func (b *Bot) RoleCounts() []string {
	var lines []string
	for _, role := range b.Catalog().Entries() {
		count, err := b.Platform.CountMembersWithRole(b.Config.GuildID, role.RoleID)
		if err != nil {
			logPlatformError(b.Logger.With(zap.String("role", role.Name)), "failed to count role members", err)
			lines = append(lines, fmt.Sprintf("%s: unavailable", role.Name))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d", role.Name, count))
	}
	return lines
}

// UIHandler - !ui [#channel]
func (b *Bot) UIHandler(ctx *exrouter.Context) {
	if err := b.uiCommand(context.Background(), ctx.Msg); err != nil {
		b.commandFailed(ctx, "ui [#channel]", err)
	}
}

// CodeHandler - !code [#channel] [@user]
func (b *Bot) CodeHandler(ctx *exrouter.Context) {
	if err := b.codeCommand(ctx.Msg); err != nil {
		b.commandFailed(ctx, "code [#channel] [@user]", err)
	}
}

// SayHandler - !say [#channel] <text>
func (b *Bot) SayHandler(ctx *exrouter.Context) {
	if !b.Config.IsAdmin(ctx.Msg.Author.ID) {
		return
	}
	if err := b.sayCommand(ctx.Msg); err != nil {
		b.commandFailed(ctx, "say [#channel] <text>", err)
	}
}

// uiCommand - Post the nudge to the command's channel or the one given
func (b *Bot) uiCommand(ctx context.Context, m *discordgo.Message) error {
	channelID := m.ChannelID
	if args := commandArgs(m.Content); len(args) > 0 {
		id, ok := channelArg(args[0])
		if !ok || len(args) > 1 {
			return fmt.Errorf("%w: %v", errUsage, args)
		}
		channelID = id
	}
	b.deleteCommand(m)
	return b.NudgeChannel(ctx, channelID)
}

// codeMessage - Code fence instructions, addressed to userID when set
func codeMessage(userID string) string {
	if userID == "" {
		return config.CodeText
	}
	return fmt.Sprintf("<@%s>\n\n%s", userID, config.CodeText)
}

// codeCommand - Arguments may name a channel, a user, or both in any order
func (b *Bot) codeCommand(m *discordgo.Message) error {
	channelID, userID := m.ChannelID, ""
	for _, arg := range commandArgs(m.Content) {
		if id, ok := channelArg(arg); ok {
			channelID = id
			continue
		}
		if id, ok := userArg(arg); ok {
			userID = id
			continue
		}
		return fmt.Errorf("%w: unexpected %q", errUsage, arg)
	}
	b.deleteCommand(m)

	if _, err := b.Platform.SendMessage(channelID, codeMessage(userID), false); err != nil {
		return fmt.Errorf("send code instructions to %s: %w", channelID, err)
	}
	return nil
}

func (b *Bot) sayCommand(m *discordgo.Message) error {
	channelID, text := sayArgs(m.Content)
	if text == "" {
		return fmt.Errorf("%w: nothing to say", errUsage)
	}
	if channelID == "" {
		channelID = m.ChannelID
	}
	b.deleteCommand(m)

	b.Logger.Info("posting on request", zap.String("channel_id", channelID), zap.String("admin_id", m.Author.ID))
	if _, err := b.Platform.SendMessage(channelID, text, false); err != nil {
		return fmt.Errorf("send message to %s: %w", channelID, err)
	}
	return nil
}

// commandFailed - Usage errors get a short-lived reply, platform errors are logged
func (b *Bot) commandFailed(ctx *exrouter.Context, usage string, err error) {
	if errors.Is(err, errUsage) {
		replyDel(ctx, "Usage: "+b.Config.Prefix+usage, 15)
		return
	}
	logPlatformError(b.Logger.With(zap.String("command", ctx.Msg.Content)), "command failed", err)
}

func (b *Bot) deleteCommand(m *discordgo.Message) {
	if err := b.Platform.DeleteMessage(m.ChannelID, m.ID); err != nil {
		logPlatformError(b.Logger, "failed to delete command message", err)
	}
}
