package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/devusSs/kraken-selfbot/internal/bot/dispatcher"
	"github.com/devusSs/kraken-selfbot/internal/bot/registry"
	"github.com/devusSs/kraken-selfbot/internal/logging"
	"github.com/devusSs/kraken-selfbot/internal/notifier"
	"github.com/devusSs/kraken-selfbot/internal/stalk"
)

// Relationship types sent by the gateway.
const (
	relationshipFriend   = 1
	relationshipBlocked  = 2
	relationshipIncoming = 3
	relationshipOutgoing = 4
)

// General function to setup handlers for all Discord gateway events.
func (b *SelfBot) SetupHandleFuncs() int {
	n := b.Events.Load(b.Session, b.events()...)
	logging.WriteSuccess(fmt.Sprintf("Setup %d handle functions for Discord events", n))
	return n
}

func (b *SelfBot) events() []registry.Event {
	return []registry.Event{
		registry.On("ready", b.onReady),
		registry.Once("ready", b.onFirstReady),
		registry.On("resumed", func(s *discordgo.Session, r *discordgo.Resumed) {
			logging.WriteInfo("Resumed gateway session")
		}),
		registry.On("disconnect", func(s *discordgo.Session, d *discordgo.Disconnect) {
			logging.WriteWarn("Disconnected from gateway, reconnecting...")
		}),
		registry.On("messageCreate", b.onMessageCreate),
		registry.On("messageUpdate", b.onMessageUpdate),
		registry.On("messageDelete", b.onMessageDelete),
		registry.On("voiceStateUpdate", b.onVoiceStateUpdate),
		registry.On("presenceUpdate", b.onPresenceUpdate),
		registry.On("relationshipAdd", b.onRelationshipAdd),
		registry.On("relationshipRemove", b.onRelationshipRemove),
		registry.On("guildCreate", b.onGuildCreate),
		registry.On("guildDelete", b.onGuildDelete),
	}
}

// Fills the guild set before publishing the self id, guildCreate only reports
// joins once the self id is known.
func (b *SelfBot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		b.guilds.add(g.ID)
	}

	if r.User == nil {
		logging.WriteError("Ready event without user")
		return
	}

	b.setSelf(r.User.ID)
}

func (b *SelfBot) onFirstReady(s *discordgo.Session, r *discordgo.Ready) {
	if r.User == nil {
		return
	}
	logging.WriteSuccess(fmt.Sprintf("Logged in as %s (%s) in %d guilds", dispatcher.Tag(r.User), r.User.ID, len(r.Guilds)))
	logging.WriteInfo(fmt.Sprintf("Command prefix is %q", b.Dispatcher.Prefix()))
}

func (b *SelfBot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Message == nil || m.Author == nil {
		return
	}

	b.Dispatcher.Handle(b.ctx, s, m.Message)

	if b.Sniper != nil && m.Author.ID != b.SelfID() {
		b.Sniper.Handle(s, m.Message)
	}

	b.logStalk(m.Author.ID, stalk.Event{
		Type:      stalk.MessageSent,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Content:   m.Content,
	})
}

func (b *SelfBot) onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Message == nil {
		return
	}

	author := m.Author
	before := ""
	if m.BeforeUpdate != nil {
		if author == nil {
			author = m.BeforeUpdate.Author
		}
		before = m.BeforeUpdate.Content
		// embed resolution, not an edit
		if before == m.Content {
			return
		}
	}
	if author == nil {
		return
	}

	b.logStalk(author.ID, stalk.Event{
		Type:      stalk.MessageEdited,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Before:    before,
		After:     m.Content,
	})
}

func (b *SelfBot) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	// Only cached messages can be attributed to an author.
	if m.BeforeDelete == nil || m.BeforeDelete.Author == nil {
		return
	}

	b.logStalk(m.BeforeDelete.Author.ID, stalk.Event{
		Type:      stalk.MessageDeleted,
		GuildID:   m.GuildID,
		ChannelID: m.ChannelID,
		MessageID: m.ID,
		Content:   m.BeforeDelete.Content,
	})
}

func (b *SelfBot) onVoiceStateUpdate(s *discordgo.Session, vs *discordgo.VoiceStateUpdate) {
	if vs.VoiceState == nil {
		return
	}

	before := ""
	if vs.BeforeUpdate != nil {
		before = vs.BeforeUpdate.ChannelID
	}
	after := vs.ChannelID

	if vs.UserID == b.SelfID() && after == "" {
		b.Voice.Dropped(b.ctx, s, vs.GuildID)
	}

	ev := stalk.Event{GuildID: vs.GuildID}
	switch {
	case before == after:
		// mute, deafen or stream changes
		return
	case before == "":
		ev.Type, ev.ChannelID = stalk.VoiceJoin, after
	case after == "":
		ev.Type, ev.ChannelID = stalk.VoiceLeave, before
	default:
		ev.Type, ev.From, ev.To = stalk.VoiceMove, before, after
	}

	b.logStalk(vs.UserID, ev)
}

func (b *SelfBot) onPresenceUpdate(s *discordgo.Session, p *discordgo.PresenceUpdate) {
	if p.User == nil || p.User.ID == "" {
		return
	}

	prev, next, known := b.users.update(&p.Presence)
	if !known {
		return
	}

	id := p.User.ID
	tracked := b.config().TracksUser(id)
	notify := func(tag notifier.Tag, before, after string) {
		if tracked {
			b.Notifier.Notify(tag, notifier.Data{UserID: id, Username: next.username, Before: before, After: after})
		}
	}

	if prev.status != next.status {
		b.logStalk(id, stalk.Event{Type: stalk.StatusChange, GuildID: p.GuildID, Before: prev.status, After: next.status})
		notify(notifier.StatusChange, prev.status, next.status)
	}

	if prev.activity != next.activity {
		b.logStalk(id, stalk.Event{Type: stalk.ActivityChange, GuildID: p.GuildID, Before: prev.activity, After: next.activity})
		notify(notifier.ActivityChange, prev.activity, next.activity)
	}

	if prev.username != "" && prev.username != next.username {
		notify(notifier.UsernameChange, prev.username, next.username)
	}

	if prev.avatar != "" && prev.avatar != next.avatar && tracked {
		b.Notifier.Notify(notifier.AvatarChange, notifier.Data{
			UserID:    id,
			Username:  next.username,
			AvatarURL: discordgo.EndpointUserAvatar(id, next.avatar),
		})
	}
}

// Maps a relationship type to its notifier tag. Removals of the same type map to the opposite event.
func relationshipTag(typ int, added bool) (notifier.Tag, bool) {
	switch typ {
	case relationshipFriend:
		if added {
			return notifier.FriendAdded, true
		}
		return notifier.FriendRemoved, true
	case relationshipBlocked:
		if added {
			return notifier.UserBlocked, true
		}
		return notifier.UserUnblocked, true
	case relationshipIncoming:
		if added {
			return notifier.FriendRequestReceived, true
		}
		return notifier.FriendRequestCancelled, true
	case relationshipOutgoing:
		if added {
			return notifier.FriendRequestSent, true
		}
		return notifier.FriendRequestWithdrawn, true
	}
	return "", false
}

func (b *SelfBot) onRelationshipAdd(s *discordgo.Session, r *discordgo.RelationshipAdd) {
	b.relationshipChanged(r.Relationship, true)
}

func (b *SelfBot) onRelationshipRemove(s *discordgo.Session, r *discordgo.RelationshipRemove) {
	b.relationshipChanged(r.Relationship, false)
}

func (b *SelfBot) relationshipChanged(r *discordgo.Relationship, added bool) {
	if r == nil {
		return
	}

	tag, ok := relationshipTag(r.Type, added)
	if !ok {
		logging.WriteDebug(fmt.Sprintf("Ignoring relationship type %d for %s", r.Type, r.ID))
		return
	}

	data := notifier.Data{UserID: r.ID}
	if r.User != nil {
		data.UserID = r.User.ID
		data.Username = dispatcher.Tag(r.User)
	}
	b.Notifier.Notify(tag, data)
}

func (b *SelfBot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Guild == nil || g.Unavailable {
		return
	}
	if b.guilds.add(g.ID) && b.SelfID() != "" {
		b.Notifier.Notify(notifier.GuildJoin, notifier.Data{GuildID: g.ID, GuildName: g.Name})
	}
}

func (b *SelfBot) onGuildDelete(s *discordgo.Session, g *discordgo.GuildDelete) {
	// Unavailable guilds are outages, not leaves.
	if g.Guild == nil || g.Unavailable {
		return
	}
	if !b.guilds.remove(g.ID) {
		return
	}

	name := g.Name
	if g.BeforeDelete != nil && name == "" {
		name = g.BeforeDelete.Name
	}
	b.Notifier.Notify(notifier.GuildLeave, notifier.Data{GuildID: g.ID, GuildName: name})
}

func (b *SelfBot) logStalk(userID string, ev stalk.Event) {
	if b.Stalk == nil || userID == "" {
		return
	}
	if err := b.Stalk.LogEvent(userID, ev); err != nil {
		logging.WriteError(fmt.Sprintf("Writing stalk log for %s: %s", userID, err.Error()))
	}
}
