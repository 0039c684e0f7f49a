package gatekeeper

import (
	"github.com/devusSs/kraken-selfbot/internal/bot/types"
)

type Result int

type Reason string

const (
	Allowed Result = iota
	RejectGuildOnly
	RejectDMOnly
	RejectNSFW
	RejectDMDisabled

	NoneReason       Reason = ""
	GuildOnlyReason  Reason = "This command can only be used in a server."
	DMOnlyReason     Reason = "This command can only be used in direct messages."
	NSFWReason       Reason = "NSFW commands are disabled in the config."
	DMDisabledReason Reason = "Commands are disabled in direct messages."
)

// Checks the capabilities required by cmd against the invocation context.
//
// Commands without any location permission behave like "both".
func (g *GateKeeper) Check(cmd *types.Command, inDM bool) (Result, Reason) {
	if inDM && !g.setting("allow_dm") {
		return RejectDMDisabled, DMDisabledReason
	}

	if !cmd.Has(types.Both) {
		if inDM && cmd.Has(types.GuildOnly) && !cmd.Has(types.DMOnly) {
			return RejectGuildOnly, GuildOnlyReason
		}

		if !inDM && cmd.Has(types.DMOnly) && !cmd.Has(types.GuildOnly) {
			return RejectDMOnly, DMOnlyReason
		}
	}

	if cmd.Has(types.NSFW) && !g.setting("nsfw_enabled") {
		return RejectNSFW, NSFWReason
	}

	return Allowed, NoneReason
}
