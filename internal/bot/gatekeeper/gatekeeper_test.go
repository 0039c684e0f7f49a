package gatekeeper

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/devusSs/kraken-selfbot/internal/bot/types"
	"github.com/devusSs/kraken-selfbot/internal/config"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name  string
		perms []types.Permission
		inDM  bool
		nsfw  bool
		want  Result
	}{
		{"both in dm", []types.Permission{types.Both}, true, false, Allowed},
		{"both in guild", []types.Permission{types.Both}, false, false, Allowed},
		{"no perms in dm", nil, true, false, Allowed},
		{"guild only in dm", []types.Permission{types.GuildOnly}, true, false, RejectGuildOnly},
		{"guild only in guild", []types.Permission{types.GuildOnly}, false, false, Allowed},
		{"dm only in guild", []types.Permission{types.DMOnly}, false, false, RejectDMOnly},
		{"dm only in dm", []types.Permission{types.DMOnly}, true, false, Allowed},
		{"nsfw disabled", []types.Permission{types.Both, types.NSFW}, false, false, RejectNSFW},
		{"nsfw enabled", []types.Permission{types.Both, types.NSFW}, false, true, Allowed},
		{"guild only checked before nsfw", []types.Permission{types.GuildOnly, types.NSFW}, true, false, RejectGuildOnly},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := InitGateKeeper()
			cfg := &config.Config{}
			cfg.NSFW.Enabled = tt.nsfw
			g.LoadSettingsFromConfig(cfg)

			res, reason := g.Check(&types.Command{Name: "x", Permissions: tt.perms}, tt.inDM)
			assert.Equal(t, tt.want, res)
			if tt.want == Allowed {
				assert.Equal(t, NoneReason, reason)
			} else {
				assert.NotEmpty(t, reason)
			}
		})
	}
}

func TestSet(t *testing.T) {
	g := InitGateKeeper()
	assert.True(t, g.Set("allow_dm", false))
	assert.False(t, g.Set("does_not_exist", true))

	res, reason := g.Check(&types.Command{Name: "x"}, true)
	assert.Equal(t, RejectDMDisabled, res)
	assert.Equal(t, DMDisabledReason, reason)
}
