package roles

import (
	"fmt"
	"strings"

	"github.com/cufee/botto-hare/config"
	"go.uber.org/zap"
)

// EmojiKind - Unicode literal or guild custom emoji
type EmojiKind int

const (
	Unicode EmojiKind = iota
	Custom
)

// EmojiRef - Reaction emoji, Text is set for Unicode, ID and Name for Custom
type EmojiRef struct {
	Kind EmojiKind
	Text string
	ID   string
	Name string
}

// UnicodeEmoji - Emoji from a unicode literal
func UnicodeEmoji(text string) EmojiRef {
	return EmojiRef{Kind: Unicode, Text: text}
}

// CustomEmoji - Guild emoji by ID and display name
func CustomEmoji(id, name string) EmojiRef {
	return EmojiRef{Kind: Custom, ID: id, Name: name}
}

// Matches - Compare a reaction label against the literal, or the display name for custom emojis
func (e EmojiRef) Matches(label string) bool {
	switch e.Kind {
	case Unicode:
		return e.Text == label
	case Custom:
		return e.Name == label
	}
	return false
}

// APIName - Form expected when adding a reaction
func (e EmojiRef) APIName() string {
	if e.Kind == Custom {
		return e.Name + ":" + e.ID
	}
	return e.Text
}

// String - Emoji as written inside message text
func (e EmojiRef) String() string {
	if e.Kind == Custom {
		return fmt.Sprintf("<:%s:%s>", e.Name, e.ID)
	}
	return e.Text
}

// Entry - Subscribable role and its trigger emoji
type Entry struct {
	Name   string
	Emoji  EmojiRef
	RoleID string
}

// Catalog - Immutable once resolved, safe for concurrent reads
type Catalog struct {
	entries []Entry
}

// EmojiLookup - Display name of a guild custom emoji
type EmojiLookup func(emojiID string) (string, error)

// Resolve - Build the catalog. All-digit emojis are custom emoji IDs looked up against
// guild state, so this must run after the session is connected. "name:id" is taken as a
// custom emoji without a lookup, anything else is a unicode literal.
// Entries whose emoji cannot be resolved are dropped.
func Resolve(specs []config.RoleSpec, lookup EmojiLookup, logger *zap.Logger) *Catalog {
	c := &Catalog{}
	for _, spec := range specs {
		emoji, err := parseEmoji(spec.Emoji, lookup)
		if err != nil {
			logger.Warn("dropping role trigger", zap.String("role", spec.Name), zap.String("emoji", spec.Emoji), zap.Error(err))
			continue
		}
		c.entries = append(c.entries, Entry{Name: spec.Name, Emoji: emoji, RoleID: spec.RoleID})
	}
	logger.Info("role catalog resolved", zap.Int("roles", len(c.entries)))
	return c
}

func parseEmoji(raw string, lookup EmojiLookup) (EmojiRef, error) {
	raw = strings.Trim(raw, "<>")
	if isSnowflake(raw) {
		if lookup == nil {
			return EmojiRef{}, fmt.Errorf("no emoji lookup available for %s", raw)
		}
		name, err := lookup(raw)
		if err != nil {
			return EmojiRef{}, fmt.Errorf("lookup emoji %s: %w", raw, err)
		}
		return CustomEmoji(raw, name), nil
	}
	if i := strings.LastIndex(raw, ":"); i > 0 && isSnowflake(raw[i+1:]) {
		name := strings.TrimPrefix(raw[:i], ":")
		name = strings.TrimPrefix(name, "a:")
		return CustomEmoji(raw[i+1:], name), nil
	}
	return UnicodeEmoji(raw), nil
}

func isSnowflake(s string) bool {
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

// Match - Role triggered by a reaction label, unknown labels are not an error
func (c *Catalog) Match(label string) (Entry, bool) {
	for _, e := range c.entries {
		if e.Emoji.Matches(label) {
			return e, true
		}
	}
	return Entry{}, false
}

// Entries - Roles in configuration order
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len - Number of resolved roles
func (c *Catalog) Len() int {
	return len(c.entries)
}
