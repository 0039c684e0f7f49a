package bot

import (
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Last known presence and profile of a user, used to turn presence updates into changes.
type userState struct {
	status   string
	activity string
	username string
	avatar   string
}

type userCache struct {
	mu    sync.Mutex
	users map[string]userState
}

func newUserCache() *userCache {
	return &userCache{users: make(map[string]userState)}
}

// Applies a presence update and returns the state before it.
// known is false for the first update of a user, nothing is reported as changed then.
//
// Presence updates are partial: empty username / avatar fields keep the cached value.
func (c *userCache) update(p *discordgo.Presence) (prev, next userState, known bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prev, known = c.users[p.User.ID]
	next = prev
	next.status = string(p.Status)
	next.activity = activityString(p.Activities)
	if p.User.Username != "" {
		next.username = p.User.Username
	}
	if p.User.Avatar != "" {
		next.avatar = p.User.Avatar
	}
	c.users[p.User.ID] = next

	return prev, next, known
}

func (c *userCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.users)
}

// Renders the most relevant activity, e.g. "Playing Minecraft" or a custom status text.
func activityString(activities []*discordgo.Activity) string {
	var custom string
	for _, a := range activities {
		if a == nil {
			continue
		}
		switch a.Type {
		case discordgo.ActivityTypeGame:
			return "Playing " + a.Name
		case discordgo.ActivityTypeStreaming:
			return "Streaming " + a.Name
		case discordgo.ActivityTypeListening:
			if a.Details != "" {
				return fmt.Sprintf("Listening to %s by %s", a.Details, a.State)
			}
			return "Listening to " + a.Name
		case discordgo.ActivityTypeWatching:
			return "Watching " + a.Name
		case discordgo.ActivityTypeCompeting:
			return "Competing in " + a.Name
		case discordgo.ActivityTypeCustom:
			custom = strings.TrimSpace(a.State)
		}
	}
	return custom
}

// Guilds the account is a member of, to tell joins from the lazy guild creates after ready.
type guildSet struct {
	mu     sync.Mutex
	guilds map[string]struct{}
}

func newGuildSet() *guildSet {
	return &guildSet{guilds: make(map[string]struct{})}
}

// Adds id and reports whether it was new.
func (g *guildSet) add(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.guilds[id]; ok {
		return false
	}
	g.guilds[id] = struct{}{}
	return true
}

// Removes id and reports whether it was present.
func (g *guildSet) remove(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.guilds[id]; !ok {
		return false
	}
	delete(g.guilds, id)
	return true
}
