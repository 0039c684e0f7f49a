package gatekeeper

import (
	"sync"

	"github.com/devusSs/kraken-selfbot/internal/config"
)

// GateKeeper "Engine".
//
// Decides whether a resolved command may run in the context it was invoked in.
type GateKeeper struct {
	mu       sync.RWMutex
	settings map[string]bool
}

// Init a new GateKeeper instance.
//
// # Will load default settings initially, load custom settings via LoadSettingsFromConfig().
func InitGateKeeper() *GateKeeper {
	g := GateKeeper{}

	g.settings = make(map[string]bool)
	g.settings["nsfw_enabled"] = false
	g.settings["allow_dm"] = true

	return &g
}

// Loads settings from the config, overriding the defaults.
func (g *GateKeeper) LoadSettingsFromConfig(cfg *config.Config) {
	g.Set("nsfw_enabled", cfg.NSFW.Enabled)
}

// Changes a single setting at runtime. Unknown keys are ignored and reported as false.
func (g *GateKeeper) Set(key string, value bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.settings[key]; !ok {
		return false
	}
	g.settings[key] = value
	return true
}

func (g *GateKeeper) setting(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.settings[key]
}
