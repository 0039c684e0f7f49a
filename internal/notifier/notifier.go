// Package notifier forwards relationship and presence changes to the console,
// a log file and an optional webhook.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gammazero/workerpool"
	"golang.org/x/time/rate"

	"github.com/devusSs/kraken-selfbot/internal/bot/types"
	"github.com/devusSs/kraken-selfbot/internal/database"
	"github.com/devusSs/kraken-selfbot/internal/logging"
	"github.com/devusSs/kraken-selfbot/internal/utils"
)

// Discord allows 5 webhook posts per 2 seconds.
const (
	webhookRate  = rate.Limit(2.5)
	webhookBurst = 5
	postTimeout  = 10 * time.Second
)

type Options struct {
	Enabled    bool
	WebhookURL string
	// File receives one line per event, may be nil.
	File       io.Writer
	HTTPClient *http.Client
	Audit      database.Service
}

type Notifier struct {
	mu         sync.RWMutex
	enabled    bool
	webhookURL string

	fileMu sync.Mutex
	file   io.Writer

	client  *http.Client
	pool    *workerpool.WorkerPool
	limiter *rate.Limiter
	audit   database.Service
	now     func() time.Time
}

func New(opts Options) *Notifier {
	n := &Notifier{
		enabled:    opts.Enabled,
		webhookURL: opts.WebhookURL,
		file:       opts.File,
		client:     opts.HTTPClient,
		pool:       workerpool.New(1),
		limiter:    rate.NewLimiter(webhookRate, webhookBurst),
		audit:      opts.Audit,
		now:        time.Now,
	}
	if n.client == nil {
		n.client = &http.Client{Timeout: postTimeout}
	}
	if n.audit == nil {
		n.audit = database.Discard{}
	}
	return n
}

func (n *Notifier) Enabled() bool {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled
}

// Configure swaps the enabled flag and webhook url, used on config reloads.
// Posts already queued keep the url they were queued with.
func (n *Notifier) Configure(enabled bool, webhookURL string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
	n.webhookURL = webhookURL
}

// Notify writes the event to the console and file sinks and queues the webhook post.
// It never fails; sink errors are logged.
func (n *Notifier) Notify(tag Tag, d Data) {
	n.mu.RLock()
	enabled, webhookURL := n.enabled, n.webhookURL
	n.mu.RUnlock()

	if !enabled {
		return
	}

	at := n.now()
	r := Render(tag, d, at)

	logging.WriteInfo(r.Console)

	if n.file != nil {
		n.fileMu.Lock()
		_, err := fmt.Fprintln(n.file, r.File)
		n.fileMu.Unlock()
		if err != nil {
			logging.WriteError(fmt.Sprintf("Writing relationship log: %s", err.Error()))
		}
	}

	data, err := utils.MarshalStruct(types.RelationshipEvent{Tag: string(tag), UserID: d.UserID, Detail: r.File})
	if err == nil {
		_, err = n.audit.AddAuthEvent(database.AuthEvent{Type: types.RelationshipChanged, Data: data, Timestamp: at})
	}
	if err != nil {
		logging.WriteError(fmt.Sprintf("Storing relationship event: %s", err.Error()))
	}

	if webhookURL != "" {
		embed := r.Embed
		n.pool.Submit(func() {
			if err := n.post(webhookURL, embed); err != nil {
				logging.WriteWarn(fmt.Sprintf("Relationship webhook delivery failed: %s", err.Error()))
			}
		})
	}
}

// Close waits for queued webhook posts to finish.
func (n *Notifier) Close() {
	n.pool.StopWait()
}

func (n *Notifier) post(url string, embed *discordgo.MessageEmbed) error {
	return PostWebhook(n.client, n.limiter, url, WebhookPayload{Embeds: []*discordgo.MessageEmbed{embed}})
}

// WebhookPayload is the JSON body of an execute-webhook call.
type WebhookPayload struct {
	Content string                    `json:"content,omitempty"`
	Embeds  []*discordgo.MessageEmbed `json:"embeds,omitempty"`
}

// PostWebhook sends payload to url, waiting for limiter first if it is not nil.
func PostWebhook(client *http.Client, limiter *rate.Limiter, url string, payload WebhookPayload) error {
	ctx, cancel := context.WithTimeout(context.Background(), postTimeout)
	defer cancel()

	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return fmt.Errorf("webhook responded %s: %s", res.Status, msg)
	}

	return nil
}
