package handlers

import (
	"strings"
	"time"
	"unicode"

	"github.com/Necroforger/dgrouter/exrouter"
	"github.com/bwmarrin/discordgo"
)

// welcomeTarget - First mentioned user, or the raw argument with mention syntax stripped
func welcomeTarget(mentions []*discordgo.User, arg string) string {
	if len(mentions) > 0 {
		return mentions[0].ID
	}
	id := mentionChars.ReplaceAllString(arg, "")
	if !isID(id) {
		return ""
	}
	return id
}

// channelArg - Channel ID from "#123" or "<#123>"
func channelArg(arg string) (string, bool) {
	switch {
	case strings.HasPrefix(arg, "<#") && strings.HasSuffix(arg, ">"):
		arg = arg[2 : len(arg)-1]
	case strings.HasPrefix(arg, "#"):
		arg = arg[1:]
	default:
		return "", false
	}
	if !isID(arg) {
		return "", false
	}
	return arg, true
}

// userArg - User ID from "@123", "<@123>" or "<@!123>"
func userArg(arg string) (string, bool) {
	switch {
	case strings.HasPrefix(arg, "<@") && strings.HasSuffix(arg, ">"):
		arg = strings.TrimPrefix(arg[2:len(arg)-1], "!")
	case strings.HasPrefix(arg, "@"):
		arg = arg[1:]
	default:
		return "", false
	}
	if !isID(arg) {
		return "", false
	}
	return arg, true
}

func isID(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// commandArgs - Whitespace separated words after the command name
func commandArgs(content string) []string {
	fields := strings.Fields(content)
	if len(fields) == 0 {
		return nil
	}
	return fields[1:]
}

// cutField - Split off the first word, the rest keeps its inner spacing
func cutField(s string) (string, string) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimSpace(s[i:])
}

// sayArgs - Optional leading channel and the text to post
func sayArgs(content string) (channelID, text string) {
	_, rest := cutField(content)
	first, after := cutField(rest)
	if id, ok := channelArg(first); ok {
		return id, after
	}
	return "", rest
}

// replyDel - Reply and delete the reply after timer seconds
func replyDel(ctx *exrouter.Context, msg string, timer time.Duration) {
	newMsg, err := ctx.Reply(msg)
	if err != nil {
		return
	}
	go func() {
		time.Sleep(time.Second * timer)
		ctx.Ses.ChannelMessageDelete(newMsg.ChannelID, newMsg.ID)
	}()
}
