package commands

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/devusSs/kraken-selfbot/internal/bot/types"
	"github.com/devusSs/kraken-selfbot/internal/utils"
)

const (
	defaultSides = 6
	maxSides     = 1000
)

func (d *Deps) fun() []types.Command {
	return []types.Command{
		{
			Name:        "dice",
			Aliases:     []string{"roll"},
			Description: "Rolls a dice.",
			Usage:       "dice [sides]",
			Cooldown:    3,
			Permissions: both,
			Handler:     dice,
		},
		{
			Name:        "coinflip",
			Aliases:     []string{"flip", "coin"},
			Description: "Flips a coin.",
			Usage:       "coinflip",
			Cooldown:    3,
			Permissions: both,
			Handler:     coinflip,
		},
		{
			Name:        "fact",
			Description: "Posts a random fact.",
			Usage:       "fact",
			Cooldown:    10,
			Permissions: both,
			Handler:     d.fact,
		},
	}
}

func dice(ctx context.Context, inv *types.Invocation) error {
	sides := defaultSides
	if arg := inv.Arg(0, ""); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil || n < 2 || n > maxSides {
			return types.UserErrorf("Sides must be a number between 2 and %d.", maxSides)
		}
		sides = n
	}

	return inv.Reply(fmt.Sprintf("🎲 You rolled a %d (1-%d).", utils.RandomInt(sides)+1, sides))
}

func coinflip(ctx context.Context, inv *types.Invocation) error {
	side := "Heads"
	if utils.RandomInt(2) == 1 {
		side = "Tails"
	}
	return inv.Reply(fmt.Sprintf("🪙 %s!", side))
}

func (d *Deps) fact(ctx context.Context, inv *types.Invocation) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.FactURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	res, err := d.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("fetching fact: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("fetching fact: unexpected status %s", res.Status)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("reading fact: %w", err)
	}

	text := gjson.GetBytes(body, "text").String()
	if text == "" {
		return fmt.Errorf("fact response has no text")
	}

	return inv.Reply("💡 " + text)
}
