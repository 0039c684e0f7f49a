package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/devusSs/kraken-selfbot/internal/bot/types"
	"github.com/devusSs/kraken-selfbot/internal/sniper"
	"github.com/devusSs/kraken-selfbot/internal/stalk"
	"github.com/devusSs/kraken-selfbot/internal/utils"
)

var statuses = map[string]discordgo.Status{
	"online":    discordgo.StatusOnline,
	"idle":      discordgo.StatusIdle,
	"dnd":       discordgo.StatusDoNotDisturb,
	"invisible": discordgo.StatusInvisible,
}

func (d *Deps) utility() []types.Command {
	return []types.Command{
		{
			Name:        "stalk",
			Description: "Records a user's activity to a log file.",
			Usage:       "stalk start|stop|stats <user> | stalk list",
			Cooldown:    2,
			Permissions: both,
			Handler:     d.stalk,
		},
		{
			Name:        "status",
			Aliases:     []string{"presence"},
			Description: "Sets the account status and an optional custom status text.",
			Usage:       "status online|idle|dnd|invisible [text]",
			Cooldown:    5,
			Permissions: both,
			Handler:     status,
		},
		{
			Name:        "sniper",
			Description: "Controls the nitro sniper.",
			Usage:       "sniper on|off|stats|reload | sniper webhook <url>",
			Cooldown:    2,
			Permissions: both,
			Handler:     d.sniper,
		},
		{
			Name:        "vc",
			Aliases:     []string{"voice"},
			Description: "Joins or leaves a voice channel.",
			Usage:       "vc join <channel> [guild] | vc leave",
			Cooldown:    5,
			Permissions: both,
			Handler:     d.vc,
		},
	}
}

func (d *Deps) stalk(ctx context.Context, inv *types.Invocation) error {
	if d.Stalk == nil {
		return types.UserErrorf("Stalking is not available.")
	}

	sub := strings.ToLower(inv.Arg(0, ""))
	if sub == "list" {
		return d.stalkList(inv)
	}

	target := userArg(inv.Arg(1, ""))
	if target == "" {
		return inv.UsageError()
	}

	switch sub {
	case "start":
		sess, err := d.Stalk.Start(target, stalk.Info{Tag: mentionedTag(inv.Message, target)})
		if err != nil {
			return stalkError(err, target)
		}
		return inv.Reply(fmt.Sprintf("Started stalking %s (session %s).", sess.Tag, sess.SessionID))
	case "stop":
		dur, err := d.Stalk.Stop(target)
		if err != nil {
			return stalkError(err, target)
		}
		return inv.Reply(fmt.Sprintf("Stopped stalking %s after %s.", target, utils.FormatDuration(dur)))
	case "stats":
		st, err := d.Stalk.Stats(target)
		if err != nil {
			return stalkError(err, target)
		}
		return inv.ReplyEmbed(stalkStatsEmbed(target, st, d.Stalk.IsActive(target)))
	default:
		return inv.UsageError()
	}
}

func (d *Deps) stalkList(inv *types.Invocation) error {
	active := d.Stalk.Active()
	if len(active) == 0 {
		return inv.Reply("No active stalk sessions.")
	}

	lines := make([]string, 0, len(active))
	for _, s := range active {
		lines = append(lines, fmt.Sprintf("%s (%s), since %s", s.Tag, s.UserID, utils.FormatDuration(time.Since(s.Started))))
	}
	return inv.Reply(utils.Truncate("Active stalk sessions:\n"+strings.Join(lines, "\n"), maxMessageLen))
}

func stalkError(err error, target string) error {
	switch {
	case errors.Is(err, stalk.ErrInvalidUser):
		return types.UserErrorf("%s is not a valid user.", target)
	case errors.Is(err, stalk.ErrSelfTarget):
		return types.UserErrorf("You cannot stalk yourself.")
	case errors.Is(err, stalk.ErrSessionActive):
		return types.UserErrorf("Already stalking %s.", target)
	case errors.Is(err, stalk.ErrSessionInactive):
		return types.UserErrorf("Not stalking %s.", target)
	case errors.Is(err, stalk.ErrNoLog):
		return types.UserErrorf("No stalk log for %s.", target)
	}
	return err
}

func mentionedTag(msg *discordgo.Message, userID string) string {
	for _, u := range msg.Mentions {
		if u != nil && u.ID == userID {
			return u.Username
		}
	}
	return userID
}

func stalkStatsEmbed(userID string, st stalk.Stats, active bool) *discordgo.MessageEmbed {
	names := make([]string, 0, len(st.Counts))
	for t := range st.Counts {
		names = append(names, string(t))
	}
	sort.Strings(names)

	embed := &discordgo.MessageEmbed{
		Title:       "Stalk stats for " + userID,
		Description: fmt.Sprintf("%d events across %d sessions, active: %t", st.TotalEvents, st.Sessions, active),
	}
	for _, t := range names {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   t,
			Value:  fmt.Sprintf("%d", st.Counts[stalk.EventType(t)]),
			Inline: true,
		})
	}
	return embed
}

// Body of the user settings PATCH. A nil custom status clears it.
type statusSettings struct {
	Status       string        `json:"status"`
	CustomStatus *customStatus `json:"custom_status"`
}

type customStatus struct {
	Text string `json:"text"`
}

func status(ctx context.Context, inv *types.Invocation) error {
	st, ok := statuses[strings.ToLower(inv.Arg(0, ""))]
	if !ok {
		return inv.UsageError()
	}

	usd := discordgo.UpdateStatusData{Status: string(st)}
	text := strings.Join(inv.Args[1:], " ")
	if text != "" {
		usd.Activities = []*discordgo.Activity{{
			Name:  "Custom Status",
			Type:  discordgo.ActivityTypeCustom,
			State: text,
		}}
	}

	settings := statusSettings{Status: string(st)}
	if text != "" {
		settings.CustomStatus = &customStatus{Text: text}
	}

	// The settings endpoint persists the status on the account, the gateway
	// update applies it to the running session right away.
	if _, err := inv.Client.Request(http.MethodPatch, discordgo.EndpointUser("@me")+"/settings", settings); err != nil {
		return fmt.Errorf("saving status settings: %w", err)
	}

	if err := inv.Client.UpdateStatusComplex(usd); err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	if text == "" {
		return inv.Reply(fmt.Sprintf("Status set to %s.", st))
	}
	return inv.Reply(fmt.Sprintf("Status set to %s with text %q.", st, text))
}

func (d *Deps) sniper(ctx context.Context, inv *types.Invocation) error {
	if d.Sniper == nil {
		return types.UserErrorf("The nitro sniper is disabled in the config.")
	}
	store := d.Sniper.Store()

	switch strings.ToLower(inv.Arg(0, "")) {
	case "on", "off":
		on := strings.EqualFold(inv.Args[0], "on")
		if err := store.Update(func(c *sniper.Config) { c.Enabled = on }); err != nil {
			return fmt.Errorf("saving sniper config: %w", err)
		}
		return inv.Reply(fmt.Sprintf("Nitro sniper enabled: %t.", on))
	case "stats":
		return inv.ReplyEmbed(sniperStatsEmbed(store.Get()))
	case "webhook":
		url := inv.Arg(1, "")
		if url != "" && !strings.HasPrefix(url, "https://") {
			return types.UserErrorf("Webhook url must use https.")
		}
		if err := store.Update(func(c *sniper.Config) { c.WebhookURL = url }); err != nil {
			return fmt.Errorf("saving sniper config: %w", err)
		}
		if url == "" {
			return inv.Reply("Sniper webhook removed.")
		}
		return inv.Reply("Sniper webhook set.")
	case "reload":
		if err := store.Reload(); err != nil {
			return fmt.Errorf("reloading sniper config: %w", err)
		}
		return inv.Reply("Sniper config reloaded.")
	default:
		return inv.UsageError()
	}
}

func sniperStatsEmbed(c sniper.Config) *discordgo.MessageEmbed {
	last := "never"
	if !c.LastAttempt.IsZero() {
		last = c.LastAttempt.Format(time.RFC1123)
	}

	field := func(name string, v int) *discordgo.MessageEmbedField {
		return &discordgo.MessageEmbedField{Name: name, Value: fmt.Sprintf("%d", v), Inline: true}
	}

	return &discordgo.MessageEmbed{
		Title:       "Nitro sniper",
		Description: fmt.Sprintf("Enabled: %t\nCooldown: %dms\nLast attempt: %s", c.Enabled, c.CooldownMS, last),
		Fields: []*discordgo.MessageEmbedField{
			field("Attempts", c.Stats.Attempts),
			field("Redeemed", c.Stats.Redeemed),
			field("Failed", c.Stats.Failed),
			field("Invalid", c.Stats.Invalid),
			field("Duplicates", c.Stats.Duplicates),
		},
	}
}
