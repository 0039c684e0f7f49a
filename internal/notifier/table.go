package notifier

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/devusSs/kraken-selfbot/internal/utils"
)

type Tag string

const (
	FriendRequestSent      Tag = "friend_request_sent"
	FriendRequestReceived  Tag = "friend_request_received"
	FriendRequestCancelled Tag = "friend_request_cancelled"
	FriendRequestWithdrawn Tag = "friend_request_withdrawn"
	FriendAdded            Tag = "friend_added"
	FriendRemoved          Tag = "friend_removed"
	UserBlocked            Tag = "user_blocked"
	UserUnblocked          Tag = "user_unblocked"
	StatusChange           Tag = "status_change"
	ActivityChange         Tag = "activity_change"
	UsernameChange         Tag = "username_change"
	AvatarChange           Tag = "avatar_change"
	GuildJoin              Tag = "guild_join"
	GuildLeave             Tag = "guild_leave"
)

// Data is the payload of a relationship event. Unused fields stay empty.
type Data struct {
	UserID    string
	Username  string
	Before    string
	After     string
	GuildID   string
	GuildName string
	AvatarURL string
}

// Rendered holds the three representations of one event.
type Rendered struct {
	Console string
	File    string
	Embed   *discordgo.MessageEmbed
}

type format struct {
	title string
	color int
	line  func(d Data) string
}

const (
	colorGreen  = 0x57f287
	colorRed    = 0xed4245
	colorYellow = 0xfee75c
	colorBlue   = 0x5865f2
	colorGrey   = 0x99aab5
)

// Embed limits of the API.
const (
	maxDescriptionLen = 4096
	maxFieldLen       = 1024
)

var formats = map[Tag]format{
	FriendRequestSent: {"Friend Request Sent", colorBlue, func(d Data) string {
		return fmt.Sprintf("Sent a friend request to %s", user(d))
	}},
	FriendRequestReceived: {"Friend Request Received", colorBlue, func(d Data) string {
		return fmt.Sprintf("Received a friend request from %s", user(d))
	}},
	FriendRequestCancelled: {"Friend Request Cancelled", colorGrey, func(d Data) string {
		return fmt.Sprintf("Incoming friend request from %s was cancelled", user(d))
	}},
	FriendRequestWithdrawn: {"Friend Request Withdrawn", colorGrey, func(d Data) string {
		return fmt.Sprintf("Outgoing friend request to %s was withdrawn", user(d))
	}},
	FriendAdded: {"Friend Added", colorGreen, func(d Data) string {
		return fmt.Sprintf("%s is now your friend", user(d))
	}},
	FriendRemoved: {"Friend Removed", colorRed, func(d Data) string {
		return fmt.Sprintf("%s is no longer your friend", user(d))
	}},
	UserBlocked: {"User Blocked", colorRed, func(d Data) string {
		return fmt.Sprintf("Blocked %s", user(d))
	}},
	UserUnblocked: {"User Unblocked", colorGreen, func(d Data) string {
		return fmt.Sprintf("Unblocked %s", user(d))
	}},
	StatusChange: {"Status Changed", colorYellow, func(d Data) string {
		return fmt.Sprintf("%s changed status: %s -> %s", user(d), orNone(d.Before), orNone(d.After))
	}},
	ActivityChange: {"Activity Changed", colorYellow, func(d Data) string {
		return fmt.Sprintf("%s changed activity: %s -> %s", user(d), orNone(d.Before), orNone(d.After))
	}},
	UsernameChange: {"Username Changed", colorYellow, func(d Data) string {
		return fmt.Sprintf("%s changed username: %s -> %s", d.UserID, orNone(d.Before), orNone(d.After))
	}},
	AvatarChange: {"Avatar Changed", colorYellow, func(d Data) string {
		return fmt.Sprintf("%s changed avatar", user(d))
	}},
	GuildJoin: {"Joined Server", colorGreen, func(d Data) string {
		return fmt.Sprintf("Joined server %s", guild(d))
	}},
	GuildLeave: {"Left Server", colorRed, func(d Data) string {
		return fmt.Sprintf("Left server %s", guild(d))
	}},
}

// Render produces the console line, file line and embed for an event.
// Unknown tags fall back to a generic representation.
func Render(tag Tag, d Data, at time.Time) Rendered {
	f, ok := formats[tag]
	if !ok {
		f = format{
			title: "Relationship Event",
			color: colorGrey,
			line: func(d Data) string {
				return fmt.Sprintf("%s event for %s", tag, user(d))
			},
		}
	}

	line := f.line(d)

	embed := &discordgo.MessageEmbed{
		Title:       f.title,
		Description: utils.Truncate(line, maxDescriptionLen),
		Color:       f.color,
		Timestamp:   at.UTC().Format(time.RFC3339),
		Footer:      &discordgo.MessageEmbedFooter{Text: string(tag)},
	}
	if d.UserID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "User", Value: user(d), Inline: true})
	}
	if d.Before != "" || d.After != "" {
		embed.Fields = append(embed.Fields,
			&discordgo.MessageEmbedField{Name: "Before", Value: utils.Truncate(orNone(d.Before), maxFieldLen), Inline: true},
			&discordgo.MessageEmbedField{Name: "After", Value: utils.Truncate(orNone(d.After), maxFieldLen), Inline: true},
		)
	}
	if d.GuildID != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: "Server", Value: guild(d), Inline: true})
	}
	if d.AvatarURL != "" {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: d.AvatarURL}
	}

	return Rendered{
		Console: fmt.Sprintf("[%s] %s", f.title, line),
		File:    fmt.Sprintf("[%s] %s %s", at.Format("2006-01-02 15:04:05"), strings.ToUpper(string(tag)), line),
		Embed:   embed,
	}
}

func user(d Data) string {
	switch {
	case d.Username != "" && d.UserID != "":
		return fmt.Sprintf("%s (%s)", d.Username, d.UserID)
	case d.UserID != "":
		return d.UserID
	case d.Username != "":
		return d.Username
	default:
		return "unknown user"
	}
}

func guild(d Data) string {
	if d.GuildName == "" {
		return d.GuildID
	}
	return fmt.Sprintf("%s (%s)", d.GuildName, d.GuildID)
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}
