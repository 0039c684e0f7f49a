package types

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
)

// Permission is a capability a command requires from the context it is invoked in.
type Permission string

const (
	// Usable in guild channels and direct messages.
	Both Permission = "both"
	// Rejected in direct messages.
	GuildOnly Permission = "guild"
	// Rejected in guild channels.
	DMOnly Permission = "dm"
	// Additionally requires nsfw.enabled in the config.
	NSFW Permission = "nsfw"
)

// The category assigned to commands registered without one.
const DefaultCategory = "general"

// Handler executes a command. A returned *UserError is shown to the invoker as is,
// any other error is logged and answered with a generic failure message.
type Handler func(ctx context.Context, inv *Invocation) error

// Command describes a single chat command. Commands are immutable once loaded into a registry.
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Category    string
	// Cooldown in seconds per invoking user, 0 disables it.
	Cooldown    int
	Permissions []Permission
	Handler     Handler
}

// Reports whether the command lists p in its permissions.
func (c *Command) Has(p Permission) bool {
	for _, perm := range c.Permissions {
		if perm == p {
			return true
		}
	}
	return false
}

func (c *Command) CooldownDuration() time.Duration {
	return time.Duration(c.Cooldown) * time.Second
}

// Client is the part of the platform session commands and handlers talk to.
//
// *discordgo.Session implements it.
type Client interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
	Request(method, urlStr string, data interface{}, options ...discordgo.RequestOption) ([]byte, error)
	UpdateStatusComplex(usd discordgo.UpdateStatusData) error
	ChannelVoiceJoin(gID, cID string, mute, deaf bool) (*discordgo.VoiceConnection, error)
	HeartbeatLatency() time.Duration
}

// Invocation is a single command call. Commands must not retain it.
type Invocation struct {
	Client  Client
	Message *discordgo.Message
	Command *Command
	// Args are the tokens following the command name.
	Args   []string
	Prefix string
}

// Whether the invocation happened in a direct message.
func (inv *Invocation) InDM() bool {
	return inv.Message.GuildID == ""
}

// Sends content to the channel the command was invoked in.
func (inv *Invocation) Reply(content string) error {
	_, err := inv.Client.ChannelMessageSend(inv.Message.ChannelID, content)
	return err
}

func (inv *Invocation) ReplyEmbed(embed *discordgo.MessageEmbed) error {
	_, err := inv.Client.ChannelMessageSendEmbed(inv.Message.ChannelID, embed)
	return err
}

// Returns the i-th argument or def if there are not enough arguments.
func (inv *Invocation) Arg(i int, def string) string {
	if i < len(inv.Args) {
		return inv.Args[i]
	}
	return def
}

// Usage error for the invoked command.
func (inv *Invocation) UsageError() error {
	return UserErrorf("Usage: %s%s", inv.Prefix, inv.Command.Usage)
}

// UserError is an input error caused by the invoker. It is replied, never logged as a failure.
type UserError struct {
	Message string
}

func (e *UserError) Error() string {
	return e.Message
}

func UserErrorf(format string, args ...interface{}) error {
	return &UserError{Message: fmt.Sprintf(format, args...)}
}
