// Package dispatcher turns incoming messages into command executions.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/devusSs/kraken-selfbot/internal/bot/cooldown"
	"github.com/devusSs/kraken-selfbot/internal/bot/gatekeeper"
	"github.com/devusSs/kraken-selfbot/internal/bot/registry"
	"github.com/devusSs/kraken-selfbot/internal/bot/types"
	"github.com/devusSs/kraken-selfbot/internal/database"
	"github.com/devusSs/kraken-selfbot/internal/logging"
)

// Outcome is what happened to a message passed to Handle.
type Outcome int

const (
	// Not a command for us: wrong author, no prefix, bot account.
	Ignored Outcome = iota
	// Prefixed, but no command or alias matched.
	Unknown
	// Dropped silently inside the grace window of the previous invocation.
	CooldownSuppressed
	// Answered with the remaining cooldown.
	OnCooldown
	// Rejected by the gatekeeper.
	Rejected
	// The handler returned a *types.UserError.
	UserErrored
	// The handler returned an error or panicked.
	Failed
	Executed
)

// Default time after a successful invocation in which further cooldown hits are not answered.
const DefaultGraceWindow = 3 * time.Second

const genericFailure = "Something went wrong while executing that command."

// Dispatcher filters, parses, resolves, rate limits, gates and executes commands.
type Dispatcher struct {
	commands  *registry.Commands
	cooldowns *cooldown.Tracker
	gate      *gatekeeper.GateKeeper
	audit     database.Service

	mu     sync.RWMutex
	prefix string
	selfID string

	grace  time.Duration
	now    func() time.Time
	locate func(guildID string) string
}

type Option func(*Dispatcher)

// Sets the grace window, 0 answers every cooldown hit.
func WithGraceWindow(d time.Duration) Option {
	return func(dp *Dispatcher) { dp.grace = d }
}

func WithClock(now func() time.Time) Option {
	return func(dp *Dispatcher) { dp.now = now }
}

func WithAudit(svc database.Service) Option {
	return func(dp *Dispatcher) { dp.audit = svc }
}

// Sets how a guild id is rendered in logs, e.g. with its name from the state cache.
func WithLocator(locate func(guildID string) string) Option {
	return func(dp *Dispatcher) { dp.locate = locate }
}

func New(prefix string, commands *registry.Commands, cooldowns *cooldown.Tracker, gate *gatekeeper.GateKeeper, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		commands:  commands,
		cooldowns: cooldowns,
		gate:      gate,
		audit:     database.Discard{},
		prefix:    prefix,
		grace:     DefaultGraceWindow,
		now:       time.Now,
		locate:    func(guildID string) string { return "guild " + guildID },
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SetSelf sets the id of the controlled account. Until it is set every message is ignored.
func (d *Dispatcher) SetSelf(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.selfID = id
}

func (d *Dispatcher) SetPrefix(prefix string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prefix = prefix
}

func (d *Dispatcher) Prefix() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.prefix
}

// Handle runs the full pipeline for msg. It never panics and never returns an error;
// everything the invoker should see is replied through client.
func (d *Dispatcher) Handle(ctx context.Context, client types.Client, msg *discordgo.Message) Outcome {
	d.mu.RLock()
	prefix, selfID := d.prefix, d.selfID
	d.mu.RUnlock()

	if msg == nil || msg.Author == nil || msg.Author.Bot {
		return Ignored
	}

	// Only the controlled account may trigger commands, even in shared channels.
	if selfID == "" || msg.Author.ID != selfID {
		return Ignored
	}

	name, args, ok := Parse(prefix, msg.Content)
	if !ok {
		return Ignored
	}

	cmd, ok := d.commands.Lookup(name)
	if !ok {
		logging.WriteDebug(fmt.Sprintf("Unknown command %q", name))
		return Unknown
	}

	now := d.now()
	invoker := msg.Author.ID

	// Checked and reserved in one step, concurrent invocations cannot both pass.
	left, last, free := d.cooldowns.Acquire(cmd.Name, invoker, now, cmd.CooldownDuration())
	if !free {
		if now.Sub(last) < d.grace {
			return CooldownSuppressed
		}
		secs := int(left / time.Second)
		if secs >= cmd.Cooldown {
			secs = cmd.Cooldown - 1
		}
		d.reply(client, msg, fmt.Sprintf("Command %s is on cooldown for another %ds.", cmd.Name, secs))
		return OnCooldown
	}

	if res, reason := d.gate.Check(cmd, msg.GuildID == ""); res != gatekeeper.Allowed {
		// Rejected invocations do not start a cooldown.
		d.cooldowns.Release(cmd.Name, invoker, now)
		d.reply(client, msg, string(reason))
		return Rejected
	}

	inv := &types.Invocation{
		Client:  client,
		Message: msg,
		Command: cmd,
		Args:    args,
		Prefix:  prefix,
	}

	start := time.Now()
	err := d.execute(ctx, inv)
	elapsed := time.Since(start)

	location := "DM"
	if msg.GuildID != "" {
		location = fmt.Sprintf("%s (%s)", d.locate(msg.GuildID), msg.GuildID)
	}

	outcome := Executed
	var userErr *types.UserError
	switch {
	case err == nil:
		logging.WriteInfo(fmt.Sprintf("Command %s executed by %s (%s) in %s, took %dms",
			cmd.Name, Tag(msg.Author), invoker, location, elapsed.Milliseconds()))
	case errors.As(err, &userErr):
		outcome = UserErrored
		logging.WriteInfo(fmt.Sprintf("Command %s rejected input: %s", cmd.Name, userErr.Message))
		d.reply(client, msg, userErr.Message)
	default:
		outcome = Failed
		logging.WriteError(fmt.Sprintf("Command %s failed in %s: %s", cmd.Name, location, err.Error()))
		d.reply(client, msg, genericFailure)
	}

	_, auditErr := d.audit.AddCommandEvent(database.CommandEvent{
		Issuer:    invoker,
		Command:   cmd.Name,
		Location:  location,
		ElapsedMS: elapsed.Milliseconds(),
		Failed:    outcome == Failed,
		Executed:  now,
	})
	if auditErr != nil {
		logging.WriteError(fmt.Sprintf("Storing command event: %s", auditErr.Error()))
	}

	return outcome
}

func (d *Dispatcher) execute(ctx context.Context, inv *types.Invocation) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logging.WritePanic("command "+inv.Command.Name, r, debug.Stack())
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return inv.Command.Handler(ctx, inv)
}

func (d *Dispatcher) reply(client types.Client, msg *discordgo.Message, content string) {
	if _, err := client.ChannelMessageSend(msg.ChannelID, content); err != nil {
		logging.WriteError(fmt.Sprintf("Replying in channel %s: %s", msg.ChannelID, err.Error()))
	}
}

// Tag renders a user as "name" or "name#1234" for legacy discriminators.
func Tag(u *discordgo.User) string {
	if u == nil {
		return "unknown"
	}
	if u.Discriminator == "" || u.Discriminator == "0" {
		return u.Username
	}
	return u.Username + "#" + u.Discriminator
}
