package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devusSs/kraken-selfbot/internal/bot/types"
)

func noop(ctx context.Context, inv *types.Invocation) error { return nil }

func testGroups() []Group {
	return []Group{
		{
			Category: "Fun",
			Commands: []types.Command{
				{Name: "dice", Aliases: []string{"roll", "ROLL2"}, Handler: noop},
				{Name: "coinflip", Aliases: []string{"flip"}, Handler: noop},
			},
		},
		{
			Commands: []types.Command{
				{Name: "Help", Aliases: []string{"h", "roll"}, Handler: noop},
				{Name: "broken"},
				{Name: "", Handler: noop},
				{Name: "neg", Cooldown: -1, Handler: noop},
				{Name: "dice", Handler: noop},
			},
		},
	}
}

func TestLoad(t *testing.T) {
	r := NewCommands(testGroups)
	n := r.Load()
	assert.Equal(t, 3, n)
	assert.Equal(t, 3, r.Len())

	dice, ok := r.Lookup("dice")
	require.True(t, ok)
	assert.Equal(t, "fun", dice.Category)
	assert.Equal(t, []string{"roll", "roll2"}, dice.Aliases)

	help, ok := r.Lookup("HELP")
	require.True(t, ok)
	assert.Equal(t, types.DefaultCategory, help.Category)
	// "roll" was already owned by dice
	assert.Equal(t, []string{"h"}, help.Aliases)

	_, ok = r.Lookup("broken")
	assert.False(t, ok)
	_, ok = r.Lookup("neg")
	assert.False(t, ok)
}

func TestLookupAlias(t *testing.T) {
	r := NewCommands(testGroups)
	r.Load()

	cmd, ok := r.Lookup("roll")
	require.True(t, ok)
	assert.Equal(t, "dice", cmd.Name)

	cmd, ok = r.Lookup("Roll2")
	require.True(t, ok)
	assert.Equal(t, "dice", cmd.Name)

	_, ok = r.Lookup("rol")
	assert.False(t, ok)
	_, ok = r.Lookup("")
	assert.False(t, ok)
}

func TestReloadReplaces(t *testing.T) {
	groups := testGroups()
	r := NewCommands(func() []Group { return groups })
	require.Equal(t, 3, r.Load())

	groups = []Group{{Category: "x", Commands: []types.Command{{Name: "only", Handler: noop}}}}
	require.Equal(t, 1, r.Load())

	_, ok := r.Lookup("dice")
	assert.False(t, ok)
	_, ok = r.Lookup("roll")
	assert.False(t, ok)
	_, ok = r.Lookup("only")
	assert.True(t, ok)
}

func TestAllAndCategories(t *testing.T) {
	r := NewCommands(testGroups)
	r.Load()

	var names []string
	for _, c := range r.All() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"coinflip", "dice", "help"}, names)

	cats := r.Categories()
	assert.Len(t, cats["fun"], 2)
	assert.Len(t, cats["general"], 1)
}
