package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/devusSs/kraken-selfbot/internal/bot/types"
	"github.com/devusSs/kraken-selfbot/internal/utils"
)

func (d *Deps) general() []types.Command {
	return []types.Command{
		{
			Name:        "help",
			Aliases:     []string{"h", "commands"},
			Description: "Lists all commands or shows details of one.",
			Usage:       "help [command]",
			Cooldown:    3,
			Permissions: both,
			Handler:     d.help,
		},
		{
			Name:        "ping",
			Aliases:     []string{"latency"},
			Description: "Shows gateway and REST latency.",
			Usage:       "ping",
			Cooldown:    5,
			Permissions: both,
			Handler:     d.ping,
		},
		{
			Name:        "reload",
			Description: "Reloads the config and all commands.",
			Usage:       "reload",
			Cooldown:    10,
			Permissions: both,
			Handler:     d.reload,
		},
	}
}

func (d *Deps) help(ctx context.Context, inv *types.Invocation) error {
	if name := inv.Arg(0, ""); name != "" {
		cmd, ok := d.Commands.Lookup(strings.TrimPrefix(name, inv.Prefix))
		if !ok {
			return types.UserErrorf("Unknown command %s.", name)
		}
		return inv.ReplyEmbed(commandEmbed(inv.Prefix, cmd))
	}

	categories := d.Commands.Categories()
	names := make([]string, 0, len(categories))
	for c := range categories {
		names = append(names, c)
	}
	sort.Strings(names)

	embed := &discordgo.MessageEmbed{
		Title:       "Commands",
		Description: fmt.Sprintf("Use `%shelp <command>` for details.", inv.Prefix),
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d commands, up %s", d.Commands.Len(), utils.FormatDuration(time.Since(d.Started)))},
	}
	for _, c := range names {
		cmds := make([]string, 0, len(categories[c]))
		for _, cmd := range categories[c] {
			cmds = append(cmds, "`"+cmd.Name+"`")
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  strings.ToUpper(c[:1]) + c[1:],
			Value: strings.Join(cmds, " "),
		})
	}

	return inv.ReplyEmbed(embed)
}

func commandEmbed(prefix string, cmd *types.Command) *discordgo.MessageEmbed {
	aliases := "none"
	if len(cmd.Aliases) > 0 {
		aliases = strings.Join(cmd.Aliases, ", ")
	}
	perms := make([]string, 0, len(cmd.Permissions))
	for _, p := range cmd.Permissions {
		perms = append(perms, string(p))
	}
	// The gatekeeper treats commands without permissions as usable everywhere.
	if len(perms) == 0 {
		perms = append(perms, string(types.Both))
	}
	usage := cmd.Usage
	if usage == "" {
		usage = cmd.Name
	}
	category := cmd.Category
	if category == "" {
		category = "general"
	}

	return &discordgo.MessageEmbed{
		Title:       prefix + cmd.Name,
		Description: cmd.Description,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Usage", Value: "`" + prefix + usage + "`"},
			{Name: "Aliases", Value: aliases, Inline: true},
			{Name: "Category", Value: category, Inline: true},
			{Name: "Cooldown", Value: fmt.Sprintf("%ds", cmd.Cooldown), Inline: true},
			{Name: "Permissions", Value: strings.Join(perms, ", "), Inline: true},
		},
	}
}

func (d *Deps) ping(ctx context.Context, inv *types.Invocation) error {
	start := time.Now()
	if err := inv.Reply("Pinging..."); err != nil {
		return err
	}
	rest := time.Since(start)

	return inv.Reply(fmt.Sprintf("Pong! Gateway %dms, REST %dms.",
		inv.Client.HeartbeatLatency().Milliseconds(), rest.Milliseconds()))
}

func (d *Deps) reload(ctx context.Context, inv *types.Invocation) error {
	if d.Reload == nil {
		return types.UserErrorf("Reloading is not available.")
	}

	n, err := d.Reload()
	if err != nil {
		return fmt.Errorf("reloading: %w", err)
	}

	return inv.Reply(fmt.Sprintf("Reloaded %d commands.", n))
}
