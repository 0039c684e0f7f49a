// Package sniper detects gift codes in incoming messages and tries to redeem them.
package sniper

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/devusSs/kraken-selfbot/internal/logging"
	"github.com/devusSs/kraken-selfbot/internal/notifier"
)

var giftPattern = regexp.MustCompile(`(?i)(?:discord\.gift|discord(?:app)?\.com/gifts)/([a-z0-9]{16,24})\b`)

const unknownGiftCode = 10038

type Result string

const (
	Redeemed  Result = "redeemed"
	Failed    Result = "failed"
	Invalid   Result = "invalid"
	Duplicate Result = "duplicate"
	Skipped   Result = "skipped"
	Disabled  Result = "disabled"
)

// Requester performs REST calls with the account's credentials.
type Requester interface {
	Request(method, urlStr string, data interface{}, options ...discordgo.RequestOption) ([]byte, error)
}

// Attempt is the outcome for one detected code.
type Attempt struct {
	Code    string
	Result  Result
	Message string
}

// Detect returns the distinct gift codes in content, in order of appearance.
func Detect(content string) []string {
	matches := giftPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		codes = append(codes, m[1])
	}
	return codes
}

func RedeemEndpoint(code string) string {
	return discordgo.EndpointAPI + "entitlements/gift-codes/" + code + "/redeem"
}

type Sniper struct {
	store *Store

	mu   sync.Mutex
	seen map[string]struct{}

	http    *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func New(store *Store) *Sniper {
	return &Sniper{
		store:   store,
		seen:    make(map[string]struct{}),
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Every(time.Second), 2),
		now:     time.Now,
	}
}

func (s *Sniper) Store() *Store {
	return s.store
}

// Handle tries every gift code found in msg.
func (s *Sniper) Handle(client Requester, msg *discordgo.Message) []Attempt {
	if msg == nil || !s.store.Get().Enabled {
		return nil
	}

	codes := Detect(msg.Content)
	attempts := make([]Attempt, 0, len(codes))
	for _, code := range codes {
		attempts = append(attempts, s.Try(client, code, msg.ChannelID))
	}
	return attempts
}

// Try redeems code unless it was seen before or the cooldown has not passed.
func (s *Sniper) Try(client Requester, code, channelID string) Attempt {
	if !s.store.Get().Enabled {
		return Attempt{Code: code, Result: Disabled}
	}

	if res, ok := s.reserve(code); !ok {
		return Attempt{Code: code, Result: res}
	}

	attempt := s.redeem(client, code, channelID)

	err := s.store.Update(func(c *Config) {
		switch attempt.Result {
		case Redeemed:
			c.Stats.Redeemed++
		case Invalid:
			c.Stats.Invalid++
		default:
			c.Stats.Failed++
		}
	})
	if err != nil {
		logging.WriteError(fmt.Sprintf("Saving sniper stats: %s", err.Error()))
	}

	switch attempt.Result {
	case Redeemed:
		logging.WriteSuccess(fmt.Sprintf("Sniped gift code %s", code))
	default:
		logging.WriteWarn(fmt.Sprintf("Gift code %s %s: %s", code, attempt.Result, attempt.Message))
	}

	s.notice(attempt)

	return attempt
}

// reserve marks code as seen and records the attempt, all under one lock so
// two messages carrying the same code cannot both pass.
func (s *Sniper) reserve(code string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seen[code]; ok {
		if err := s.store.Update(func(c *Config) { c.Stats.Duplicates++ }); err != nil {
			logging.WriteError(fmt.Sprintf("Saving sniper stats: %s", err.Error()))
		}
		return Duplicate, false
	}

	now := s.now()
	cfg := s.store.Get()
	if !cfg.LastAttempt.IsZero() && now.Sub(cfg.LastAttempt) < cfg.Cooldown() {
		logging.WriteDebug(fmt.Sprintf("Skipping gift code %s, sniper on cooldown", code))
		return Skipped, false
	}

	s.seen[code] = struct{}{}
	err := s.store.Update(func(c *Config) {
		c.LastAttempt = now
		c.Stats.Attempts++
	})
	if err != nil {
		logging.WriteError(fmt.Sprintf("Saving sniper stats: %s", err.Error()))
	}

	return "", true
}

func (s *Sniper) redeem(client Requester, code, channelID string) Attempt {
	body, err := client.Request(http.MethodPost, RedeemEndpoint(code), map[string]interface{}{
		"channel_id":        channelID,
		"payment_source_id": nil,
	})
	if err == nil {
		return Attempt{Code: code, Result: Redeemed, Message: gjson.GetBytes(body, "message").String()}
	}

	var restErr *discordgo.RESTError
	if errors.As(err, &restErr) {
		res := gjson.ParseBytes(restErr.ResponseBody)
		msg := res.Get("message").String()
		if res.Get("code").Int() == unknownGiftCode {
			return Attempt{Code: code, Result: Invalid, Message: msg}
		}
		return Attempt{Code: code, Result: Failed, Message: msg}
	}

	return Attempt{Code: code, Result: Failed, Message: err.Error()}
}

func (s *Sniper) notice(a Attempt) {
	cfg := s.store.Get()
	if cfg.WebhookURL == "" {
		return
	}

	var color int
	switch {
	case a.Result == Redeemed && cfg.NotifyOnSuccess:
		color = 0x57f287
	case a.Result == Invalid && cfg.NotifyOnInvalid:
		color = 0xfee75c
	case a.Result == Failed && cfg.NotifyOnFailure:
		color = 0xed4245
	default:
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Gift code %s", a.Result),
		Description: fmt.Sprintf("`%s`", a.Code),
		Color:       color,
		Timestamp:   s.now().UTC().Format(time.RFC3339),
	}
	if a.Message != "" {
		embed.Fields = []*discordgo.MessageEmbedField{{Name: "Response", Value: a.Message}}
	}

	err := notifier.PostWebhook(s.http, s.limiter, cfg.WebhookURL, notifier.WebhookPayload{Embeds: []*discordgo.MessageEmbed{embed}})
	if err != nil {
		logging.WriteWarn(fmt.Sprintf("Sniper webhook delivery failed: %s", err.Error()))
	}
}
