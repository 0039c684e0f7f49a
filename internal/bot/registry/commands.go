// Package registry holds the command and event registries of the selfbot.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/devusSs/kraken-selfbot/internal/bot/types"
	"github.com/devusSs/kraken-selfbot/internal/logging"
)

// Group is a set of commands sharing a category, e.g. everything in "fun".
type Group struct {
	Category string
	Commands []types.Command
}

// Source produces the command groups to load. It is called on every (re)load.
type Source func() []Group

// Commands maps command names and aliases to command descriptors.
type Commands struct {
	source Source

	mu      sync.RWMutex
	byName  map[string]*types.Command
	aliases map[string]string
}

func NewCommands(source Source) *Commands {
	return &Commands{
		source:  source,
		byName:  make(map[string]*types.Command),
		aliases: make(map[string]string),
	}
}

// Load clears the registry and populates it from the source.
//
// Invalid commands are logged and skipped. Returns the number of loaded commands.
func (r *Commands) Load() int {
	byName := make(map[string]*types.Command)
	aliases := make(map[string]string)

	for _, group := range r.source() {
		category := strings.ToLower(strings.TrimSpace(group.Category))
		if category == "" {
			category = types.DefaultCategory
		}

		for i := range group.Commands {
			cmd := group.Commands[i]
			cmd.Name = strings.ToLower(strings.TrimSpace(cmd.Name))
			if cmd.Category == "" {
				cmd.Category = category
			}

			if err := validate(&cmd); err != nil {
				logging.WriteWarn(fmt.Sprintf("Skipping command in category %s: %s", category, err.Error()))
				continue
			}

			if _, ok := byName[cmd.Name]; ok {
				logging.WriteWarn(fmt.Sprintf("Skipping duplicate command %s", cmd.Name))
				continue
			}
			if owner, ok := aliases[cmd.Name]; ok {
				logging.WriteWarn(fmt.Sprintf("Command %s shadows an alias of %s, alias dropped", cmd.Name, owner))
				delete(aliases, cmd.Name)
			}

			kept := make([]string, 0, len(cmd.Aliases))
			for _, alias := range cmd.Aliases {
				alias = strings.ToLower(strings.TrimSpace(alias))
				if alias == "" || alias == cmd.Name {
					continue
				}
				if _, ok := byName[alias]; ok {
					logging.WriteWarn(fmt.Sprintf("Alias %s of %s collides with a command, dropped", alias, cmd.Name))
					continue
				}
				if owner, ok := aliases[alias]; ok {
					logging.WriteWarn(fmt.Sprintf("Alias %s of %s already used by %s, dropped", alias, cmd.Name, owner))
					continue
				}
				aliases[alias] = cmd.Name
				kept = append(kept, alias)
			}
			cmd.Aliases = kept

			byName[cmd.Name] = &cmd
		}
	}

	r.mu.Lock()
	r.byName = byName
	r.aliases = aliases
	r.mu.Unlock()

	return len(byName)
}

func validate(cmd *types.Command) error {
	switch {
	case cmd.Name == "":
		return fmt.Errorf("missing name")
	case strings.ContainsAny(cmd.Name, " \t\n"):
		return fmt.Errorf("name %q contains whitespace", cmd.Name)
	case cmd.Handler == nil:
		return fmt.Errorf("command %s has no handler", cmd.Name)
	case cmd.Cooldown < 0:
		return fmt.Errorf("command %s has negative cooldown %d", cmd.Name, cmd.Cooldown)
	}
	return nil
}

// Lookup resolves name by exact match first, then through the alias index.
func (r *Commands) Lookup(name string) (*types.Command, bool) {
	name = strings.ToLower(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if cmd, ok := r.byName[name]; ok {
		return cmd, true
	}
	if target, ok := r.aliases[name]; ok {
		cmd, ok := r.byName[target]
		return cmd, ok
	}
	return nil, false
}

// All returns every command sorted by category, then name.
func (r *Commands) All() []*types.Command {
	r.mu.RLock()
	cmds := make([]*types.Command, 0, len(r.byName))
	for _, cmd := range r.byName {
		cmds = append(cmds, cmd)
	}
	r.mu.RUnlock()

	sort.Slice(cmds, func(i, j int) bool {
		if cmds[i].Category != cmds[j].Category {
			return cmds[i].Category < cmds[j].Category
		}
		return cmds[i].Name < cmds[j].Name
	})
	return cmds
}

// Categories groups all commands by their category.
func (r *Commands) Categories() map[string][]*types.Command {
	res := make(map[string][]*types.Command)
	for _, cmd := range r.All() {
		res[cmd.Category] = append(res[cmd.Category], cmd)
	}
	return res
}

func (r *Commands) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byName)
}
