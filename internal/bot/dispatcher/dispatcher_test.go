package dispatcher

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devusSs/kraken-selfbot/internal/bot/cooldown"
	"github.com/devusSs/kraken-selfbot/internal/bot/gatekeeper"
	"github.com/devusSs/kraken-selfbot/internal/bot/registry"
	"github.com/devusSs/kraken-selfbot/internal/bot/types"
	"github.com/devusSs/kraken-selfbot/internal/database"
	"github.com/devusSs/kraken-selfbot/internal/testutils"
)

const self = "1000"

type recordingAudit struct {
	database.Discard
	events []database.CommandEvent
}

func (r *recordingAudit) AddCommandEvent(e database.CommandEvent) (database.CommandEvent, error) {
	r.events = append(r.events, e)
	return e, nil
}

type fixture struct {
	d      *Dispatcher
	client *testutils.FakeClient
	now    time.Time
	audit  *recordingAudit
	calls  map[string][][]string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		client: testutils.NewFakeClient(),
		now:    time.Unix(1_700_000_000, 0),
		audit:  &recordingAudit{},
		calls:  make(map[string][][]string),
	}

	record := func(ctx context.Context, inv *types.Invocation) error {
		f.calls[inv.Command.Name] = append(f.calls[inv.Command.Name], inv.Args)
		return nil
	}

	cmds := registry.NewCommands(func() []registry.Group {
		return []registry.Group{{
			Category: "test",
			Commands: []types.Command{
				{Name: "echo", Aliases: []string{"say"}, Handler: record},
				{Name: "slow", Cooldown: 10, Handler: record},
				{Name: "guildy", Permissions: []types.Permission{types.GuildOnly}, Cooldown: 10, Handler: record},
				{Name: "boom", Handler: func(ctx context.Context, inv *types.Invocation) error { panic("kaboom") }},
				{Name: "fail", Handler: func(ctx context.Context, inv *types.Invocation) error { return errors.New("internal detail") }},
				{Name: "bad", Handler: func(ctx context.Context, inv *types.Invocation) error {
					return types.UserErrorf("Usage: %sbad <n>", inv.Prefix)
				}},
			},
		}}
	})
	require.Equal(t, 6, cmds.Load())

	f.d = New("!", cmds, cooldown.New(), gatekeeper.InitGateKeeper(),
		WithClock(func() time.Time { return f.now }),
		WithAudit(f.audit),
	)
	f.d.SetSelf(self)
	return f
}

func (f *fixture) send(author, guild, content string) Outcome {
	return f.d.Handle(context.Background(), f.client, testutils.Message(author, "chan", guild, content))
}

func TestFilter(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, Ignored, f.send("2000", "g", "!echo hi"), "other users may not trigger commands")
	assert.Equal(t, Ignored, f.send(self, "g", "echo hi"), "missing prefix")
	assert.Equal(t, Ignored, f.send(self, "g", "!"), "prefix only")

	msg := testutils.Message(self, "chan", "g", "!echo hi")
	msg.Author.Bot = true
	assert.Equal(t, Ignored, f.d.Handle(context.Background(), f.client, msg))

	assert.Empty(t, f.calls)
	assert.Empty(t, f.client.Sent)
}

func TestIgnoredUntilSelfKnown(t *testing.T) {
	f := newFixture(t)
	f.d.SetSelf("")
	assert.Equal(t, Ignored, f.send(self, "g", "!echo hi"))
}

func TestUnknownIsSilent(t *testing.T) {
	f := newFixture(t)

	for _, content := range []string{"!nope", "!ech", "!sayy x", "!ECHOO"} {
		assert.Equal(t, Unknown, f.send(self, "g", content), content)
	}
	assert.Empty(t, f.client.Sent)
	assert.Empty(t, f.calls)
	assert.Empty(t, f.audit.events)
}

func TestExecuteWithAliasAndArgs(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, Executed, f.send(self, "g", `!SAY hello "big world" x`))
	require.Len(t, f.calls["echo"], 1)
	assert.Equal(t, []string{"hello", "big world", "x"}, f.calls["echo"][0])

	require.Len(t, f.audit.events, 1)
	assert.Equal(t, "echo", f.audit.events[0].Command)
	assert.Equal(t, "guild g (g)", f.audit.events[0].Location)
	assert.False(t, f.audit.events[0].Failed)
}

func TestCooldown(t *testing.T) {
	f := newFixture(t)
	start := f.now

	require.Equal(t, Executed, f.send(self, "g", "!slow"))

	// inside the grace window: silent
	f.now = start.Add(2 * time.Second)
	assert.Equal(t, CooldownSuppressed, f.send(self, "g", "!slow"))
	assert.Empty(t, f.client.Sent)

	// outside the grace window: remaining time is reported
	f.now = start.Add(4 * time.Second)
	assert.Equal(t, OnCooldown, f.send(self, "g", "!slow"))
	require.Len(t, f.client.Sent, 1)
	assert.Equal(t, "Command slow is on cooldown for another 6s.", f.client.Sent[0].Content)

	// the cooldown only applies to the command that ran
	assert.Equal(t, Executed, f.send(self, "g", "!echo"))

	f.now = start.Add(10 * time.Second)
	assert.Equal(t, Executed, f.send(self, "g", "!slow"))
	assert.Len(t, f.calls["slow"], 2)
}

func TestCooldownRemainingBounds(t *testing.T) {
	f := newFixture(t)
	f.d.grace = 0
	start := f.now
	re := regexp.MustCompile(`another (\d+)s`)

	require.Equal(t, Executed, f.send(self, "g", "!slow"))
	for ms := 0; ms < 10_000; ms += 700 {
		f.now = start.Add(time.Duration(ms) * time.Millisecond)
		require.Equal(t, OnCooldown, f.send(self, "g", "!slow"))

		last := f.client.Sent[len(f.client.Sent)-1].Content
		m := re.FindStringSubmatch(last)
		require.Len(t, m, 2, last)
		secs, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, secs, 0)
		assert.Less(t, secs, 10)
	}
}

func TestCooldownConcurrentInvocations(t *testing.T) {
	var runs atomic.Int32
	cmds := registry.NewCommands(func() []registry.Group {
		return []registry.Group{{Commands: []types.Command{{
			Name:     "slow",
			Cooldown: 60,
			Handler: func(ctx context.Context, inv *types.Invocation) error {
				runs.Add(1)
				return nil
			},
		}}}}
	})
	require.Equal(t, 1, cmds.Load())

	now := time.Unix(1_700_000_000, 0)
	d := New("!", cmds, cooldown.New(), gatekeeper.InitGateKeeper(), WithClock(func() time.Time { return now }))
	d.SetSelf(self)
	client := testutils.NewFakeClient()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.Handle(context.Background(), client, testutils.Message(self, "chan", "g", "!slow"))
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), runs.Load())
}

func TestPermissionGate(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, Rejected, f.send(self, "", "!guildy"))
	require.Len(t, f.client.Sent, 1)
	assert.Equal(t, string(gatekeeper.GuildOnlyReason), f.client.Sent[0].Content)
	assert.Empty(t, f.calls["guildy"])

	// rejected invocations do not start a cooldown
	assert.Equal(t, Executed, f.send(self, "g", "!guildy"))
}

func TestHandlerFailures(t *testing.T) {
	f := newFixture(t)

	assert.NotPanics(t, func() {
		assert.Equal(t, Failed, f.send(self, "", "!boom"))
	})
	assert.Equal(t, Failed, f.send(self, "", "!fail"))
	assert.Equal(t, UserErrored, f.send(self, "", "!bad"))

	msgs := f.client.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, genericFailure, msgs[0])
	assert.Equal(t, genericFailure, msgs[1])
	assert.NotContains(t, msgs[1], "internal detail")
	assert.Equal(t, "Usage: !bad <n>", msgs[2])

	require.Len(t, f.audit.events, 3)
	assert.True(t, f.audit.events[0].Failed)
	assert.Equal(t, "DM", f.audit.events[0].Location)
	assert.False(t, f.audit.events[2].Failed)
}

func TestReplyFailureDoesNotPanic(t *testing.T) {
	f := newFixture(t)
	f.client.SendErr = testutils.ErrFake
	assert.Equal(t, Failed, f.send(self, "", "!fail"))
}

func TestSetPrefix(t *testing.T) {
	f := newFixture(t)
	f.d.SetPrefix(">>")
	assert.Equal(t, ">>", f.d.Prefix())
	assert.Equal(t, Ignored, f.send(self, "g", "!echo"))
	assert.Equal(t, Executed, f.send(self, "g", ">>echo"))
}

func TestTag(t *testing.T) {
	msg := testutils.Message("1", "c", "", "")
	assert.Equal(t, "user1", Tag(msg.Author))
	msg.Author.Discriminator = "0420"
	assert.True(t, strings.HasSuffix(Tag(msg.Author), "#0420"))
	assert.Equal(t, "unknown", Tag(nil))
}
