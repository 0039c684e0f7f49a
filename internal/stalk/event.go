package stalk

import (
	"fmt"
	"strings"
	"time"
)

type EventType string

const (
	MessageSent    EventType = "MESSAGE_SENT"
	MessageEdited  EventType = "MESSAGE_EDITED"
	MessageDeleted EventType = "MESSAGE_DELETED"
	VoiceJoin      EventType = "VOICE_JOIN"
	VoiceLeave     EventType = "VOICE_LEAVE"
	VoiceMove      EventType = "VOICE_MOVE"
	StatusChange   EventType = "STATUS_CHANGE"
	ActivityChange EventType = "ACTIVITY_CHANGE"
)

// EventTypes lists every type in the order stats are displayed.
var EventTypes = []EventType{
	MessageSent, MessageEdited, MessageDeleted,
	VoiceJoin, VoiceLeave, VoiceMove,
	StatusChange, ActivityChange,
}

func (t EventType) Valid() bool {
	for _, et := range EventTypes {
		if et == t {
			return true
		}
	}
	return false
}

// Event is one observed action of a stalked user. Which fields are written depends on Type.
type Event struct {
	Type      EventType
	GuildID   string
	ChannelID string
	MessageID string
	Content   string
	// Before and After hold the old and new value of edits, status and activity changes.
	Before string
	After  string
	// From and To are the channels of a voice move.
	From string
	To   string
}

type field struct {
	name, value string
}

func (e Event) fields() []field {
	guild := e.GuildID
	if guild == "" {
		guild = "DM"
	}

	switch e.Type {
	case MessageSent, MessageDeleted:
		return []field{{"Guild", guild}, {"Channel", e.ChannelID}, {"Message", e.MessageID}, {"Content", e.Content}}
	case MessageEdited:
		return []field{{"Guild", guild}, {"Channel", e.ChannelID}, {"Message", e.MessageID}, {"Before", e.Before}, {"After", e.After}}
	case VoiceJoin, VoiceLeave:
		return []field{{"Guild", guild}, {"Channel", e.ChannelID}}
	case VoiceMove:
		return []field{{"Guild", guild}, {"From", e.From}, {"To", e.To}}
	case StatusChange, ActivityChange:
		return []field{{"Before", e.Before}, {"After", e.After}}
	default:
		return []field{{"Details", e.Content}}
	}
}

func (e Event) format(at time.Time) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s\n", at.Format(timeLayout), e.Type)
	for _, f := range e.fields() {
		value := f.value
		if value == "" {
			value = "(none)"
		}
		fmt.Fprintf(&sb, "  %s: %s\n", f.name, indent(value))
	}
	sb.WriteString("\n")
	return sb.String()
}

// indent keeps continuation lines of multi-line values inside their entry.
func indent(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	return strings.ReplaceAll(s, "\n", "\n    ")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
