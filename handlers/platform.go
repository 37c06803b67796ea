package handlers

import (
	"github.com/bwmarrin/discordgo"
)

// Platform - Chat platform calls the bot makes, implemented by discord.Session
type Platform interface {
	BotID() string
	SendMessage(channelID, content string, silent bool) (*discordgo.Message, error)
	SendDirect(userID, content string) (*discordgo.Message, error)
	DeleteMessage(channelID, messageID string) error
	AddReaction(channelID, messageID, emoji string) error
	FetchMember(guildID, userID string) (*discordgo.Member, error)
	GrantRole(guildID, userID, roleID string) error
	RevokeRole(guildID, userID, roleID string) error
	CountMembersWithRole(guildID, roleID string) (int, error)
}
