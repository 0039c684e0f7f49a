package database

import (
	"time"

	"github.com/devusSs/kraken-selfbot/internal/bot/types"
)

// Service layer for the audit store.
type Service interface {
	Ping() error
	Close() error
	Migrate() error

	AddAuthEvent(AuthEvent) (AuthEvent, error)
	AddCommandEvent(CommandEvent) (CommandEvent, error)
}

// Model for audit events like relationship changes.
//
// Check the internal/bot/types/event.go file for more information.
type AuthEvent struct {
	ID        int             `db:"id"`
	Type      types.EventType `db:"event_type"`
	Data      string          `db:"event_data"`
	Timestamp time.Time       `db:"event_time"`
}

// Model for executed commands. Logs EVERY command invocation passing the gate.
type CommandEvent struct {
	ID        int       `db:"id"`
	Issuer    string    `db:"issuer"`
	Command   string    `db:"command"`
	Location  string    `db:"location"`
	ElapsedMS int64     `db:"elapsed_ms"`
	Failed    bool      `db:"failed"`
	Executed  time.Time `db:"executed"`
}

// Service used when the audit store is disabled. Every call succeeds without doing anything.
type Discard struct{}

func (Discard) Ping() error    { return nil }
func (Discard) Close() error   { return nil }
func (Discard) Migrate() error { return nil }

func (Discard) AddAuthEvent(e AuthEvent) (AuthEvent, error) { return e, nil }

func (Discard) AddCommandEvent(e CommandEvent) (CommandEvent, error) { return e, nil }
