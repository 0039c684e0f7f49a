package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
selfbot:
  token: "abc.def.ghi"
  prefix: "."
nsfw:
  enabled: true
relationship_logs:
  enabled: true
  webhook_url: "https://discord.com/api/webhooks/1/x"
  track_all_users: false
  special_users: ["111", "222"]
debug_mode:
  enabled: true
vc_command:
  auto_reconnect: true
  max_attempts: 5
  reconnect_delay: 2
nitro_sniper:
  enabled: true
client_properties:
  browser: "Discord Android"
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(TokenEnv, "")

	cfg, err := LoadConfig(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "abc.def.ghi", cfg.Selfbot.Token)
	assert.Equal(t, ".", cfg.Selfbot.Prefix)
	assert.True(t, cfg.NSFW.Enabled)
	assert.True(t, cfg.RelationshipLogs.Enabled)
	assert.Equal(t, []string{"111", "222"}, cfg.RelationshipLogs.SpecialUsers)
	assert.True(t, cfg.DebugMode.Enabled)
	assert.Equal(t, 5, cfg.VCCommand.MaxAttempts)
	assert.Equal(t, 2, cfg.VCCommand.ReconnectDelay)
	assert.True(t, cfg.NitroSniper.Enabled)
	assert.Equal(t, "Discord Android", cfg.ClientProperties.Browser)

	// defaults
	assert.Equal(t, "./files/sniper.json", cfg.NitroSniper.ConfigPath)
	assert.Equal(t, "./files/stalk", cfg.Stalk.Directory)

	require.NoError(t, cfg.CheckConfig())
}

func TestLoadConfigTokenFromEnv(t *testing.T) {
	t.Setenv(TokenEnv, "from.env.token")

	cfg, err := LoadConfig(writeConfig(t, "selfbot:\n  prefix: \"!\"\n"))
	require.NoError(t, err)
	assert.Equal(t, "from.env.token", cfg.Selfbot.Token)
}

func TestLoadConfigMalformed(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "selfbot: [unterminated"))
	require.Error(t, err)
}

func TestCheckConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "missing token",
			mutate:  func(c *Config) { c.Selfbot.Token = "" },
			wantErr: "missing key: selfbot token",
		},
		{
			name:    "bot token",
			mutate:  func(c *Config) { c.Selfbot.Token = "Bot abc" },
			wantErr: "must be a user token",
		},
		{
			name:    "plain http webhook",
			mutate:  func(c *Config) { c.RelationshipLogs.WebhookURL = "http://example.com" },
			wantErr: "must use https",
		},
		{
			name: "database enabled without host",
			mutate: func(c *Config) {
				c.Database.Enabled = true
			},
			wantErr: "missing key: database host",
		},
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			c.Selfbot.Token = "abc.def"
			c.applyDefaults()
			tt.mutate(c)

			err := c.CheckConfig()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTracksUser(t *testing.T) {
	c := &Config{}
	c.RelationshipLogs.SpecialUsers = []string{"42"}

	assert.True(t, c.TracksUser("42"))
	assert.False(t, c.TracksUser("7"))

	c.RelationshipLogs.TrackAllUsers = true
	assert.True(t, c.TracksUser("7"))
}
