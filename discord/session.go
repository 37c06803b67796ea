package discord

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

var (
	// ErrPermissionDenied - The platform refused the action
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNotFound - Stale channel/message/member/role identifier
	ErrNotFound = errors.New("not found")
)

// Intents - Gateway intents the bot needs
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsGuildMessageReactions |
	discordgo.IntentsDirectMessages |
	discordgo.IntentsDirectMessageReactions |
	discordgo.IntentsMessageContent

// Session - Thin wrapper around discordgo
type Session struct {
	discord *discordgo.Session
}

// New - Create a session, it is not connected until Open
func New(token string) (*Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	dg.Identify.Intents = Intents
	return &Session{discord: dg}, nil
}

// Wrap - Use an existing discordgo session
func Wrap(dg *discordgo.Session) *Session {
	return &Session{discord: dg}
}

// Discord - Underlying discordgo session
func (s *Session) Discord() *discordgo.Session {
	return s.discord
}

// Open - Connect the websocket
func (s *Session) Open() error {
	if err := s.discord.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	return nil
}

// Close - Disconnect the websocket
func (s *Session) Close() error {
	return s.discord.Close()
}

// BotID - Own user ID, empty before the session is ready
func (s *Session) BotID() string {
	if s.discord.State == nil || s.discord.State.User == nil {
		return ""
	}
	return s.discord.State.User.ID
}

// SendMessage - Post to a channel, silent messages suppress push notifications
func (s *Session) SendMessage(channelID, content string, silent bool) (*discordgo.Message, error) {
	m, err := s.discord.ChannelMessageSendComplex(channelID, messageSend(content, silent))
	return m, Classify(err)
}

func messageSend(content string, silent bool) *discordgo.MessageSend {
	msg := &discordgo.MessageSend{Content: content}
	if silent {
		msg.Flags = discordgo.MessageFlagsSuppressNotifications
	}
	return msg
}

// SendDirect - Open a DM channel with the user and post to it
func (s *Session) SendDirect(userID, content string) (*discordgo.Message, error) {
	ch, err := s.discord.UserChannelCreate(userID)
	if err != nil {
		return nil, Classify(err)
	}
	m, err := s.discord.ChannelMessageSend(ch.ID, content)
	return m, Classify(err)
}

// DeleteMessage - Delete a message
func (s *Session) DeleteMessage(channelID, messageID string) error {
	return Classify(s.discord.ChannelMessageDelete(channelID, messageID))
}

// AddReaction - React with a unicode emoji or "name:id"
func (s *Session) AddReaction(channelID, messageID, emoji string) error {
	return Classify(s.discord.MessageReactionAdd(channelID, messageID, emoji))
}

// FetchMember - Get a guild member, cached state first
func (s *Session) FetchMember(guildID, userID string) (*discordgo.Member, error) {
	if s.discord.State != nil {
		if m, err := s.discord.State.Member(guildID, userID); err == nil {
			return m, nil
		}
	}
	m, err := s.discord.GuildMember(guildID, userID)
	return m, Classify(err)
}

// GrantRole - Add a role to a member
func (s *Session) GrantRole(guildID, userID, roleID string) error {
	return Classify(s.discord.GuildMemberRoleAdd(guildID, userID, roleID))
}

// RevokeRole - Remove a role from a member
func (s *Session) RevokeRole(guildID, userID, roleID string) error {
	return Classify(s.discord.GuildMemberRoleRemove(guildID, userID, roleID))
}

// EmojiName - Display name of a guild custom emoji
func (s *Session) EmojiName(guildID, emojiID string) (string, error) {
	if s.discord.State != nil {
		if e, err := s.discord.State.Emoji(guildID, emojiID); err == nil {
			return e.Name, nil
		}
	}
	emojis, err := s.discord.GuildEmojis(guildID)
	if err != nil {
		return "", Classify(err)
	}
	for _, e := range emojis {
		if e.ID == emojiID {
			return e.Name, nil
		}
	}
	return "", fmt.Errorf("emoji %s: %w", emojiID, ErrNotFound)
}

// CountMembersWithRole - Page through all guild members
func (s *Session) CountMembersWithRole(guildID, roleID string) (int, error) {
	count := 0
	after := ""
	for {
		members, err := s.discord.GuildMembers(guildID, after, 1000)
		if err != nil {
			return count, Classify(err)
		}
		for _, m := range members {
			for _, r := range m.Roles {
				if r == roleID {
					count++
					break
				}
			}
		}
		if len(members) < 1000 {
			return count, nil
		}
		after = members[len(members)-1].User.ID
	}
}

// SetStatus - Update the "playing" status
func (s *Session) SetStatus(text string) error {
	return s.discord.UpdateGameStatus(0, text)
}

// Classify - Wrap REST failures with ErrPermissionDenied / ErrNotFound
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var rest *discordgo.RESTError
	if !errors.As(err, &rest) {
		return err
	}
	if rest.Message != nil {
		switch rest.Message.Code {
		case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		case discordgo.ErrCodeUnknownChannel,
			discordgo.ErrCodeUnknownMember,
			discordgo.ErrCodeUnknownMessage,
			discordgo.ErrCodeUnknownRole,
			discordgo.ErrCodeUnknownUser:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	if rest.Response != nil {
		switch rest.Response.StatusCode {
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return err
}
