package config

import (
	"fmt"
	"strings"
	"time"
)

// RolePromptText - Body of the message posted by !roles
const RolePromptText string = "React to this message to subscribe to notifications for your MMU!"

// DefaultNudgeText - Message posted to the monitored channel after a period of silence
const DefaultNudgeText string = "You can now update Mainsail/Fluidd to the latest version to view the MMU panel! :tada:"

// WelcomeText - DM sent to new members, reactions on it are role triggers
const WelcomeText string = `
## Welcome to the Happy Hare Discord server!

Here are a few quick things to know:

🌐 To view the MMU panel for Happy Hare in Mainsail/Fluidd, simply update your Mainsail/Fluidd version to the latest version!

🛠️ Explore the various MMU channels in the "MMU Systems" section.

📜 Have fun, and remember: this is a family-friendly server.

❤️ React to this message with the emojis for your favorite MMU's to receive update notifications from their designers.
`

// CodeText - Posted by !code, optionally below a user mention
const CodeText string = "When posting configs or logs, please surround with code fences (\\`\\`\\`) so that Discord formats them correctly. Example:\n" +
	"\\`\\`\\`ini\n[mcu]\nserial: /dev/serial/by-id/usb-klipper-12345-if00\n\\`\\`\\`\n" +
	"```ini\n[mcu]\nserial: /dev/serial/by-id/usb-klipper-12345-if00\n```"

// SpamAlertFormat - Moderation channel alert, author mention / mod ping / content
const SpamAlertFormat string = "🚨 Possible spam detected from %s in multiple channels:\n%s\n\nMessage:\n%s"

// SubscribedFormat - DM sent after a role was granted
const SubscribedFormat string = "You have successfully subscribed to %s."

// UnsubscribedFormat - DM sent after a role was revoked
const UnsubscribedFormat string = "You have successfully unsubscribed from %s."

// PresenceVerbs - Status rotation verbs
var PresenceVerbs []string = []string{"Printing with", "Tinkering with", "Calibrating", "Building", "Fixing", "Screaming at"}

// Registry backends
const (
	BackendFile = "file"
	BackendBolt = "bolt"
)

// Config - Runtime settings, populated from flags / environment
type Config struct {
	Token   string
	GuildID string
	Prefix  string
	Debug   bool

	SpamThreshold int
	SpamTimeframe time.Duration

	SilenceThreshold  time.Duration
	MonitoredChannel  string
	NudgeText         string
	ModChannel        string
	ModPing           string
	LandingChannel    string
	AdminIDs          []string
	Roles             []RoleSpec
	PresenceInterval  time.Duration
	RegistryBackend   string
	RegistryPath      string
	RegistryTimeout   time.Duration
	MetricsListenAddr string
}

// RoleSpec - Unresolved role catalog entry
type RoleSpec struct {
	Name   string
	Emoji  string
	RoleID string
}

// DefaultConfig - Config with the documented defaults applied
func DefaultConfig() *Config {
	return &Config{
		Prefix:           "!",
		SpamThreshold:    5,
		SpamTimeframe:    60 * time.Second,
		SilenceThreshold: time.Hour,
		NudgeText:        DefaultNudgeText,
		PresenceInterval: 10 * time.Second,
		RegistryBackend:  BackendFile,
		RegistryPath:     "messages.txt",
		RegistryTimeout:  5 * time.Second,
	}
}

// Validate - Check settings before connecting
func (c *Config) Validate() error {
	if c.Token == "" {
		return fmt.Errorf("discord token is required")
	}
	if c.GuildID == "" {
		return fmt.Errorf("guild id is required")
	}
	if c.SpamThreshold < 1 {
		return fmt.Errorf("spam threshold must be positive, got %d", c.SpamThreshold)
	}
	if c.SpamTimeframe <= 0 {
		return fmt.Errorf("spam timeframe must be positive, got %s", c.SpamTimeframe)
	}
	if c.SilenceThreshold <= 0 {
		return fmt.Errorf("silence threshold must be positive, got %s", c.SilenceThreshold)
	}
	switch c.RegistryBackend {
	case BackendFile, BackendBolt:
	default:
		return fmt.Errorf("unknown registry backend %q", c.RegistryBackend)
	}
	if c.RegistryPath == "" {
		return fmt.Errorf("registry path is required")
	}
	seen := make(map[string]bool)
	for _, r := range c.Roles {
		if seen[r.Name] {
			return fmt.Errorf("duplicate role %q", r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}

// IsAdmin - Check if a user is on the admin list
func (c *Config) IsAdmin(userID string) bool {
	for _, id := range c.AdminIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ParseIDList - Split a comma separated identifier list, blanks are dropped
func ParseIDList(raw string) []string {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

// ParseRoleSpecs - Parse "name|emoji|roleID;name|emoji|roleID"
func ParseRoleSpecs(raw string) ([]RoleSpec, error) {
	var specs []RoleSpec
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("role entry %q: expected name|emoji|roleID", entry)
		}
		spec := RoleSpec{
			Name:   strings.TrimSpace(parts[0]),
			Emoji:  strings.TrimSpace(parts[1]),
			RoleID: strings.TrimSpace(parts[2]),
		}
		if spec.Name == "" || spec.Emoji == "" || spec.RoleID == "" {
			return nil, fmt.Errorf("role entry %q: empty field", entry)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
