package bot

import (
	"fmt"

	"github.com/devusSs/kraken-selfbot/internal/bot/registry"
	"github.com/devusSs/kraken-selfbot/internal/commands"
	"github.com/devusSs/kraken-selfbot/internal/config"
	"github.com/devusSs/kraken-selfbot/internal/logging"
)

func (b *SelfBot) initCommands() {
	deps := &commands.Deps{
		Reload: b.Reload,
		Stalk:  b.Stalk,
		Sniper: b.Sniper,
		Voice:  b.Voice,
	}
	b.Commands = registry.NewCommands(commands.Groups(deps))
	deps.Commands = b.Commands
}

// Loads all built-in commands into the registry.
func (b *SelfBot) LoadCommands() int {
	n := b.Commands.Load()
	logging.WriteSuccess(fmt.Sprintf("Loaded %d commands", n))
	return n
}

// Reload re-reads the config file, applies prefix, gatekeeper, relationship log
// and debug settings, reloads the sniper state and the command registry.
//
// The token and client properties only take effect on the next start.
func (b *SelfBot) Reload() (int, error) {
	if b.cfgPath != "" {
		cfg, err := config.LoadConfig(b.cfgPath)
		if err != nil {
			return 0, err
		}
		if err := cfg.CheckConfig(); err != nil {
			return 0, err
		}

		b.cfgMu.Lock()
		b.cfg = cfg
		b.cfgMu.Unlock()

		b.Dispatcher.SetPrefix(cfg.Selfbot.Prefix)
		b.GateKeeper.LoadSettingsFromConfig(cfg)
		b.Notifier.Configure(cfg.RelationshipLogs.Enabled, cfg.RelationshipLogs.WebhookURL)
		logging.SetDebug(cfg.DebugMode.Enabled)
	}

	if b.Sniper != nil {
		if err := b.Sniper.Store().Reload(); err != nil {
			return 0, err
		}
	}

	return b.LoadCommands(), nil
}
