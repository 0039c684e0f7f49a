package bot

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/bwmarrin/discordgo"

	"github.com/devusSs/kraken-selfbot/internal/bot/cooldown"
	"github.com/devusSs/kraken-selfbot/internal/bot/dispatcher"
	"github.com/devusSs/kraken-selfbot/internal/bot/gatekeeper"
	"github.com/devusSs/kraken-selfbot/internal/bot/registry"
	"github.com/devusSs/kraken-selfbot/internal/commands"
	"github.com/devusSs/kraken-selfbot/internal/config"
	"github.com/devusSs/kraken-selfbot/internal/database"
	"github.com/devusSs/kraken-selfbot/internal/logging"
	"github.com/devusSs/kraken-selfbot/internal/notifier"
	"github.com/devusSs/kraken-selfbot/internal/sniper"
	"github.com/devusSs/kraken-selfbot/internal/stalk"
)

// Services the bot forwards events to. Sniper may be nil.
type Options struct {
	ConfigPath string
	Service    database.Service
	Notifier   *notifier.Notifier
	Sniper     *sniper.Sniper
	Stalk      *stalk.Store
}

type SelfBot struct {
	Session *discordgo.Session

	Commands   *registry.Commands
	Events     *registry.Events
	Dispatcher *dispatcher.Dispatcher
	GateKeeper *gatekeeper.GateKeeper
	Cooldowns  *cooldown.Tracker
	Voice      *commands.Voice

	Service  database.Service
	Notifier *notifier.Notifier
	Sniper   *sniper.Sniper
	Stalk    *stalk.Store

	cfgPath string
	cfgMu   sync.RWMutex
	cfg     *config.Config

	selfMu sync.RWMutex
	selfID string

	users  *userCache
	guilds *guildSet

	ctx    context.Context
	cancel context.CancelFunc
}

// Inits a new session with the user token and all bot services. Does not connect yet.
func New(cfg *config.Config, opts Options) (*SelfBot, error) {
	session, err := discordgo.New(cfg.Selfbot.Token)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	session.Identify.Properties.Browser = cfg.ClientProperties.Browser
	session.Identify.Intents = discordgo.IntentsAll
	session.State.MaxMessageCount = 500

	return newSelfBot(session, cfg, opts), nil
}

func newSelfBot(session *discordgo.Session, cfg *config.Config, opts Options) *SelfBot {
	if opts.Service == nil {
		opts.Service = database.Discard{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notifier.New(notifier.Options{})
	}

	ctx, cancel := context.WithCancel(context.Background())

	b := &SelfBot{
		Session:    session,
		Events:     registry.NewEvents(),
		GateKeeper: gatekeeper.InitGateKeeper(),
		Cooldowns:  cooldown.New(),
		Voice:      commands.NewVoice(cfg.VCCommand.AutoReconnect, cfg.VCCommand.MaxAttempts, cfg.ReconnectDelay()),
		Service:    opts.Service,
		Notifier:   opts.Notifier,
		Sniper:     opts.Sniper,
		Stalk:      opts.Stalk,
		cfgPath:    opts.ConfigPath,
		cfg:        cfg,
		users:      newUserCache(),
		guilds:     newGuildSet(),
		ctx:        ctx,
		cancel:     cancel,
	}

	b.GateKeeper.LoadSettingsFromConfig(cfg)
	b.initCommands()
	b.Dispatcher = dispatcher.New(cfg.Selfbot.Prefix, b.Commands, b.Cooldowns, b.GateKeeper,
		dispatcher.WithAudit(b.Service),
		dispatcher.WithLocator(b.guildName),
	)

	return b
}

func (b *SelfBot) config() *config.Config {
	b.cfgMu.RLock()
	defer b.cfgMu.RUnlock()
	return b.cfg
}

// SelfID is the id of the controlled account, empty until ready.
func (b *SelfBot) SelfID() string {
	b.selfMu.RLock()
	defer b.selfMu.RUnlock()
	return b.selfID
}

func (b *SelfBot) setSelf(id string) {
	b.selfMu.Lock()
	b.selfID = id
	b.selfMu.Unlock()

	b.Dispatcher.SetSelf(id)
	if b.Stalk != nil {
		b.Stalk.SetSelf(id)
	}
}

func (b *SelfBot) guildName(guildID string) string {
	if b.Session != nil && b.Session.State != nil {
		if g, err := b.Session.State.Guild(guildID); err == nil && g.Name != "" {
			return "guild " + g.Name
		}
	}
	return "guild " + guildID
}

// Opens the gateway connection.
func (b *SelfBot) Connect() error {
	return b.Session.Open()
}

// This function will block further execution until SIGINT, SIGTERM or SIGQUIT is received.
//
// # NOTE: This function will NOT disconnect the bot. Use the default function Disconnect() for that.
func (b *SelfBot) AwaitCancel() os.Signal {
	done := make(chan os.Signal, 1)
	signal.Notify(done, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(done)
	sig := <-done
	fmt.Println("")
	return sig
}

// Unregisters all handlers, leaves voice, ends stalk sessions and closes the gateway connection.
func (b *SelfBot) Disconnect() error {
	b.cancel()
	b.Events.Clear()

	_ = b.Voice.Leave()

	if b.Stalk != nil {
		if err := b.Stalk.StopAll(); err != nil {
			logging.WriteError(fmt.Sprintf("Ending stalk sessions: %s", err.Error()))
		}
	}

	b.Cooldowns.Reset()

	return b.Session.Close()
}
