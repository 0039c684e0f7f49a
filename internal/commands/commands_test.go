package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devusSs/kraken-selfbot/internal/bot/cooldown"
	"github.com/devusSs/kraken-selfbot/internal/bot/dispatcher"
	"github.com/devusSs/kraken-selfbot/internal/bot/gatekeeper"
	"github.com/devusSs/kraken-selfbot/internal/bot/registry"
	"github.com/devusSs/kraken-selfbot/internal/bot/types"
	"github.com/devusSs/kraken-selfbot/internal/sniper"
	"github.com/devusSs/kraken-selfbot/internal/stalk"
	"github.com/devusSs/kraken-selfbot/internal/testutils"
)

const self = "1000"

type harness struct {
	deps   *Deps
	reg    *registry.Commands
	disp   *dispatcher.Dispatcher
	client *testutils.FakeClient
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	st, err := stalk.New(filepath.Join(t.TempDir(), "stalk"))
	require.NoError(t, err)
	st.SetSelf(self)

	store, err := sniper.Open(filepath.Join(t.TempDir(), "sniper.json"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	voice := NewVoice(true, 3, time.Millisecond)
	voice.disconnect = func(*discordgo.VoiceConnection) error { return nil }
	voice.sleep = func(context.Context, time.Duration) error { return nil }

	h := &harness{client: testutils.NewFakeClient()}
	h.deps = &Deps{
		Stalk:  st,
		Sniper: sniper.New(store),
		Voice:  voice,
	}
	h.reg = registry.NewCommands(Groups(h.deps))
	h.deps.Commands = h.reg
	h.deps.Reload = func() (int, error) { return h.reg.Load(), nil }
	require.Equal(t, 10, h.reg.Load())

	h.disp = dispatcher.New("!", h.reg, cooldown.New(), gatekeeper.InitGateKeeper())
	h.disp.SetSelf(self)

	return h
}

// run dispatches content as the controlled account in a guild channel, with a fresh cooldown tracker.
func (h *harness) run(t *testing.T, content string) dispatcher.Outcome {
	t.Helper()
	h.disp = dispatcher.New("!", h.reg, cooldown.New(), gatekeeper.InitGateKeeper())
	h.disp.SetSelf(self)
	return h.disp.Handle(context.Background(), h.client, testutils.Message(self, "c1", "g1", content))
}

func (h *harness) last(t *testing.T) string {
	t.Helper()
	msgs := h.client.Messages()
	require.NotEmpty(t, msgs)
	return msgs[len(msgs)-1]
}

func TestGroupsCategories(t *testing.T) {
	h := newHarness(t)

	cats := h.reg.Categories()
	assert.Len(t, cats["general"], 3)
	assert.Len(t, cats["fun"], 3)
	assert.Len(t, cats["utility"], 4)

	cmd, ok := h.reg.Lookup("roll")
	require.True(t, ok)
	assert.Equal(t, "dice", cmd.Name)
}

func TestDiceEndToEnd(t *testing.T) {
	h := newHarness(t)
	re := regexp.MustCompile(`You rolled a (\d+) \(1-20\)`)

	for i := 0; i < 50; i++ {
		require.Equal(t, dispatcher.Executed, h.run(t, "!dice 20"))
		m := re.FindStringSubmatch(h.last(t))
		require.NotNil(t, m, h.last(t))
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 20)
	}
}

func TestDiceInvalidSides(t *testing.T) {
	h := newHarness(t)

	for _, arg := range []string{"1", "abc", "1001"} {
		assert.Equal(t, dispatcher.UserErrored, h.run(t, "!dice "+arg))
		assert.Contains(t, h.last(t), "Sides must be a number between 2 and 1000.")
	}
}

func TestCoinflip(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, dispatcher.Executed, h.run(t, "!flip"))
	assert.Regexp(t, `(Heads|Tails)!$`, h.last(t))
}

func TestHelp(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, dispatcher.Executed, h.run(t, "!help"))
	require.Len(t, h.client.Embeds, 1)
	embed := h.client.Embeds[0]
	assert.Equal(t, "Commands", embed.Title)
	require.Len(t, embed.Fields, 3)
	assert.Equal(t, "Fun", embed.Fields[0].Name)
	assert.Contains(t, embed.Fields[0].Value, "`dice`")

	require.Equal(t, dispatcher.Executed, h.run(t, "!help roll"))
	require.Len(t, h.client.Embeds, 2)
	assert.Equal(t, "!dice", h.client.Embeds[1].Title)

	assert.Equal(t, dispatcher.UserErrored, h.run(t, "!help nope"))
	assert.Equal(t, "Unknown command nope.", h.last(t))
}

func TestCommandEmbedNoEmptyFields(t *testing.T) {
	embed := commandEmbed("!", &types.Command{Name: "x"})

	for _, f := range embed.Fields {
		assert.NotEmpty(t, f.Value, "field %s", f.Name)
	}
	assert.Equal(t, "both", embed.Fields[4].Value)
	assert.Equal(t, "`!x`", embed.Fields[0].Value)
}

func TestPing(t *testing.T) {
	h := newHarness(t)
	h.client.Latency = 42 * time.Millisecond

	require.Equal(t, dispatcher.Executed, h.run(t, "!ping"))
	assert.Regexp(t, `^Pong! Gateway 42ms, REST \d+ms\.$`, h.last(t))
}

func TestReload(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, dispatcher.Executed, h.run(t, "!reload"))
	assert.Equal(t, "Reloaded 10 commands.", h.last(t))

	h.deps.Reload = func() (int, error) { return 0, testutils.ErrFake }
	assert.Equal(t, dispatcher.Failed, h.run(t, "!reload"))
}

func TestFact(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","text":"Gophers are rodents."}`))
	}))
	defer srv.Close()

	h := newHarness(t)
	h.deps.HTTP = srv.Client()
	h.deps.FactURL = srv.URL

	require.Equal(t, dispatcher.Executed, h.run(t, "!fact"))
	assert.Equal(t, "💡 Gophers are rodents.", h.last(t))
}

func TestFactBadResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x"}`))
	}))
	defer srv.Close()

	h := newHarness(t)
	h.deps.HTTP = srv.Client()
	h.deps.FactURL = srv.URL

	assert.Equal(t, dispatcher.Failed, h.run(t, "!fact"))
}

func TestStalkCommand(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, dispatcher.Executed, h.run(t, "!stalk start <@!42>"))
	assert.Contains(t, h.last(t), "Started stalking 42")
	assert.True(t, h.deps.Stalk.IsActive("42"))

	assert.Equal(t, dispatcher.UserErrored, h.run(t, "!stalk start 42"))
	assert.Equal(t, "Already stalking 42.", h.last(t))

	assert.Equal(t, dispatcher.UserErrored, h.run(t, "!stalk start "+self))
	assert.Equal(t, "You cannot stalk yourself.", h.last(t))

	assert.Equal(t, dispatcher.UserErrored, h.run(t, "!stalk start ../etc"))

	require.Equal(t, dispatcher.Executed, h.run(t, "!stalk list"))
	assert.Contains(t, h.last(t), "42 (42)")

	require.NoError(t, h.deps.Stalk.LogEvent("42", stalk.Event{Type: stalk.MessageSent, ChannelID: "c", Content: "hi"}))
	require.Equal(t, dispatcher.Executed, h.run(t, "!stalk stats 42"))
	embed := h.client.Embeds[len(h.client.Embeds)-1]
	assert.Contains(t, embed.Description, "1 events across 1 sessions, active: true")

	require.Equal(t, dispatcher.Executed, h.run(t, "!stalk stop 42"))
	assert.Contains(t, h.last(t), "Stopped stalking 42 after")

	assert.Equal(t, dispatcher.UserErrored, h.run(t, "!stalk stop 42"))
	assert.Equal(t, "Not stalking 42.", h.last(t))

	assert.Equal(t, dispatcher.UserErrored, h.run(t, "!stalk"))
	assert.Contains(t, h.last(t), "Usage: !stalk")
}

func TestStalkMentionTag(t *testing.T) {
	h := newHarness(t)
	msg := testutils.Message(self, "c1", "g1", "!stalk start <@42>")
	msg.Mentions = []*discordgo.User{{ID: "42", Username: "alice"}}

	require.Equal(t, dispatcher.Executed, h.disp.Handle(context.Background(), h.client, msg))
	assert.Contains(t, h.last(t), "Started stalking alice")
}

func TestStatus(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, dispatcher.Executed, h.run(t, `!status dnd "busy coding"`))
	require.Len(t, h.client.Statuses, 1)
	usd := h.client.Statuses[0]
	assert.Equal(t, "dnd", usd.Status)
	require.Len(t, usd.Activities, 1)
	assert.Equal(t, "busy coding", usd.Activities[0].State)
	assert.Equal(t, discordgo.ActivityTypeCustom, usd.Activities[0].Type)

	require.Len(t, h.client.Requests, 1)
	req := h.client.Requests[0]
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, discordgo.EndpointAPI+"users/@me/settings", req.URL)
	body, err := json.Marshal(req.Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"dnd","custom_status":{"text":"busy coding"}}`, string(body))

	require.Equal(t, dispatcher.Executed, h.run(t, "!status idle"))
	assert.Empty(t, h.client.Statuses[1].Activities)
	assert.Equal(t, "Status set to idle.", h.last(t))
	require.Len(t, h.client.Requests, 2)
	body, err = json.Marshal(h.client.Requests[1].Data)
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"idle","custom_status":null}`, string(body))

	assert.Equal(t, dispatcher.UserErrored, h.run(t, "!status away"))
	assert.Len(t, h.client.Requests, 2)
}

func TestStatusSettingsFailure(t *testing.T) {
	h := newHarness(t)
	h.client.RequestErr = testutils.ErrFake

	assert.Equal(t, dispatcher.Failed, h.run(t, "!status online"))
	assert.Empty(t, h.client.Statuses)
}

func TestSniperCommand(t *testing.T) {
	h := newHarness(t)
	store := h.deps.Sniper.Store()

	require.Equal(t, dispatcher.Executed, h.run(t, "!sniper on"))
	assert.True(t, store.Get().Enabled)

	assert.Equal(t, dispatcher.UserErrored, h.run(t, "!sniper webhook http://insecure"))

	require.Equal(t, dispatcher.Executed, h.run(t, "!sniper webhook https://discord.com/api/webhooks/1/x"))
	assert.Equal(t, "https://discord.com/api/webhooks/1/x", store.Get().WebhookURL)

	require.Equal(t, dispatcher.Executed, h.run(t, "!sniper stats"))
	embed := h.client.Embeds[len(h.client.Embeds)-1]
	assert.Equal(t, "Nitro sniper", embed.Title)
	assert.Len(t, embed.Fields, 5)

	require.Equal(t, dispatcher.Executed, h.run(t, "!sniper off"))
	assert.False(t, store.Get().Enabled)

	require.Equal(t, dispatcher.Executed, h.run(t, "!sniper reload"))

	h.deps.Sniper = nil
	assert.Equal(t, dispatcher.UserErrored, h.run(t, "!sniper on"))
}

func TestVoiceJoinLeave(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, dispatcher.Executed, h.run(t, "!vc join 555"))
	assert.Equal(t, []string{"g1/555"}, h.client.Joins)
	g, c, ok := h.deps.Voice.Channel()
	assert.True(t, ok)
	assert.Equal(t, "g1", g)
	assert.Equal(t, "555", c)

	require.Equal(t, dispatcher.Executed, h.run(t, "!vc leave"))
	_, _, ok = h.deps.Voice.Channel()
	assert.False(t, ok)

	assert.Equal(t, dispatcher.UserErrored, h.run(t, "!vc leave"))
	assert.Equal(t, "Not connected to a voice channel.", h.last(t))
}

func TestVoiceRetries(t *testing.T) {
	h := newHarness(t)
	h.client.JoinErrs = []error{testutils.ErrFake, testutils.ErrFake}

	require.Equal(t, dispatcher.Executed, h.run(t, "!vc join 555"))
	assert.Len(t, h.client.Joins, 3)

	h.client.JoinErrs = []error{testutils.ErrFake, testutils.ErrFake, testutils.ErrFake}
	assert.Equal(t, dispatcher.UserErrored, h.run(t, "!vc join 556"))
	assert.Len(t, h.client.Joins, 6)
}

func TestVoiceNoReconnect(t *testing.T) {
	v := NewVoice(false, 5, 0)
	client := testutils.NewFakeClient()
	client.JoinErrs = []error{testutils.ErrFake}

	err := v.Join(context.Background(), client, "g", "c")
	require.Error(t, err)
	assert.Len(t, client.Joins, 1)
}

func TestVoiceDroppedRejoins(t *testing.T) {
	v := NewVoice(true, 2, 0)
	v.disconnect = func(*discordgo.VoiceConnection) error { return nil }
	slept := make(chan struct{}, 4)
	v.sleep = func(context.Context, time.Duration) error {
		slept <- struct{}{}
		return nil
	}
	client := testutils.NewFakeClient()

	require.NoError(t, v.Join(context.Background(), client, "g", "c"))
	v.Dropped(context.Background(), client, "other")
	v.Dropped(context.Background(), client, "g")

	<-slept
	assert.Eventually(t, func() bool { return client.JoinCount() == 2 }, time.Second, 5*time.Millisecond)
}

func TestUserArg(t *testing.T) {
	for in, want := range map[string]string{
		"<@123>":  "123",
		"<@!123>": "123",
		"123":     "123",
		"<#123>":  "<#123>",
	} {
		assert.Equal(t, want, userArg(in), fmt.Sprintf("input %s", in))
	}
}
