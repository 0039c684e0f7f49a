package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/devusSs/kraken-selfbot/internal/bot/types"
	"github.com/devusSs/kraken-selfbot/internal/logging"
)

var ErrNotConnected = errors.New("not connected to a voice channel")

// Joiner is the part of the session needed to join voice channels.
type Joiner interface {
	ChannelVoiceJoin(gID, cID string, mute, deaf bool) (*discordgo.VoiceConnection, error)
}

// Voice keeps the single voice connection of the account and reconnects it
// when it drops, if enabled.
type Voice struct {
	autoReconnect bool
	maxAttempts   int
	delay         time.Duration

	mu        sync.Mutex
	conn      *discordgo.VoiceConnection
	guildID   string
	channelID string
	// set while the account is meant to be connected
	wanted bool

	disconnect func(*discordgo.VoiceConnection) error
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewVoice(autoReconnect bool, maxAttempts int, delay time.Duration) *Voice {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Voice{
		autoReconnect: autoReconnect,
		maxAttempts:   maxAttempts,
		delay:         delay,
		disconnect:    func(vc *discordgo.VoiceConnection) error { return vc.Disconnect() },
		sleep:         sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Join connects to channelID in guildID, leaving any previous channel first.
// With auto reconnect enabled it retries up to the configured attempts.
func (v *Voice) Join(ctx context.Context, client Joiner, guildID, channelID string) error {
	_ = v.Leave()

	attempts := 1
	if v.autoReconnect {
		attempts = v.maxAttempts
	}

	var err error
	for i := 1; i <= attempts; i++ {
		var conn *discordgo.VoiceConnection
		conn, err = client.ChannelVoiceJoin(guildID, channelID, false, true)
		if err == nil {
			v.mu.Lock()
			v.conn, v.guildID, v.channelID, v.wanted = conn, guildID, channelID, true
			v.mu.Unlock()
			return nil
		}

		logging.WriteWarn(fmt.Sprintf("Joining voice channel %s failed (attempt %d/%d): %s", channelID, i, attempts, err.Error()))
		if i == attempts {
			break
		}
		if serr := v.sleep(ctx, v.delay); serr != nil {
			return serr
		}
	}

	return fmt.Errorf("joining voice channel %s: %w", channelID, err)
}

// Leave disconnects the current voice connection, if any.
func (v *Voice) Leave() error {
	v.mu.Lock()
	conn := v.conn
	v.conn, v.guildID, v.channelID, v.wanted = nil, "", "", false
	v.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	return v.disconnect(conn)
}

// Channel returns the guild and channel the account is meant to be in.
func (v *Voice) Channel() (guildID, channelID string, ok bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.guildID, v.channelID, v.wanted
}

// Dropped is called when the account's voice state shows it left the channel
// without Leave. It rejoins in the background if auto reconnect is enabled.
func (v *Voice) Dropped(ctx context.Context, client Joiner, guildID string) {
	v.mu.Lock()
	wanted, gID, cID := v.wanted, v.guildID, v.channelID
	v.mu.Unlock()

	if !wanted || !v.autoReconnect || gID != guildID {
		return
	}

	logging.WriteWarn(fmt.Sprintf("Voice connection to %s dropped, reconnecting", cID))
	go func() {
		if err := v.sleep(ctx, v.delay); err != nil {
			return
		}
		if err := v.Join(ctx, client, gID, cID); err != nil {
			logging.WriteError(fmt.Sprintf("Reconnecting voice: %s", err.Error()))
		}
	}()
}

func (d *Deps) vc(ctx context.Context, inv *types.Invocation) error {
	if d.Voice == nil {
		return types.UserErrorf("Voice is not available.")
	}

	switch strings.ToLower(inv.Arg(0, "")) {
	case "join":
		channelID := inv.Arg(1, "")
		guildID := inv.Arg(2, inv.Message.GuildID)
		if channelID == "" || guildID == "" {
			return inv.UsageError()
		}
		if err := d.Voice.Join(ctx, inv.Client, guildID, channelID); err != nil {
			return types.UserErrorf("Could not join voice channel %s.", channelID)
		}
		return inv.Reply(fmt.Sprintf("Joined voice channel <#%s>.", channelID))
	case "leave":
		err := d.Voice.Leave()
		if errors.Is(err, ErrNotConnected) {
			return types.UserErrorf("Not connected to a voice channel.")
		}
		if err != nil {
			return fmt.Errorf("leaving voice: %w", err)
		}
		return inv.Reply("Left the voice channel.")
	default:
		return inv.UsageError()
	}
}
