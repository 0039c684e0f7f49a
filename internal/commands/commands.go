// Package commands contains the built-in chat commands of the selfbot.
package commands

import (
	"net/http"
	"regexp"
	"time"

	"github.com/devusSs/kraken-selfbot/internal/bot/registry"
	"github.com/devusSs/kraken-selfbot/internal/bot/types"
	"github.com/devusSs/kraken-selfbot/internal/sniper"
	"github.com/devusSs/kraken-selfbot/internal/stalk"
)

const DefaultFactURL = "https://uselessfacts.jsph.pl/api/v2/facts/random?language=en"

// Longest message content the API accepts.
const maxMessageLen = 2000

// Deps are the services commands operate on. Optional fields may be nil,
// the commands using them then answer that the feature is disabled.
type Deps struct {
	Commands *registry.Commands
	// Reload re-reads the config and reloads the command registry,
	// returning the number of loaded commands.
	Reload func() (int, error)
	Stalk  *stalk.Store
	Sniper *sniper.Sniper
	Voice  *Voice

	HTTP    *http.Client
	FactURL string
	Started time.Time
}

// Groups returns the command source for the registry.
func Groups(d *Deps) registry.Source {
	if d.HTTP == nil {
		d.HTTP = &http.Client{Timeout: 10 * time.Second}
	}
	if d.FactURL == "" {
		d.FactURL = DefaultFactURL
	}
	if d.Started.IsZero() {
		d.Started = time.Now()
	}

	return func() []registry.Group {
		return []registry.Group{
			{Category: "general", Commands: d.general()},
			{Category: "fun", Commands: d.fun()},
			{Category: "utility", Commands: d.utility()},
		}
	}
}

var mention = regexp.MustCompile(`^<@!?(\d+)>$`)

// userArg accepts a mention or a raw id.
func userArg(arg string) string {
	if m := mention.FindStringSubmatch(arg); m != nil {
		return m[1]
	}
	return arg
}

var both = []types.Permission{types.Both}
