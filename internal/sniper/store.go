package sniper

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

type Stats struct {
	Attempts   int `json:"attempts"`
	Redeemed   int `json:"redeemed"`
	Failed     int `json:"failed"`
	Invalid    int `json:"invalid"`
	Duplicates int `json:"duplicates"`
}

// Config is the persisted sniper state. It lives in its own JSON file so it
// can be changed from chat without touching the YAML config.
type Config struct {
	Enabled         bool      `json:"enabled"`
	WebhookURL      string    `json:"webhook_url"`
	NotifyOnSuccess bool      `json:"notify_on_success"`
	NotifyOnFailure bool      `json:"notify_on_failure"`
	NotifyOnInvalid bool      `json:"notify_on_invalid"`
	CooldownMS      int64     `json:"cooldown_ms"`
	LastAttempt     time.Time `json:"last_attempt"`
	Stats           Stats     `json:"stats"`
}

func DefaultConfig() Config {
	return Config{
		NotifyOnSuccess: true,
		NotifyOnFailure: true,
		CooldownMS:      1000,
	}
}

func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownMS) * time.Millisecond
}

var ErrLocked = errors.New("sniper config is in use by another process")

// Store keeps the sniper config in memory and writes it back after every mutation.
type Store struct {
	mu   sync.RWMutex
	path string
	lock *flock.Flock
	cfg  Config
}

type Option func(*Store)

// WithDefaults sets the state written when no config file exists yet.
// An existing file always wins.
func WithDefaults(cfg Config) Option {
	return func(s *Store) {
		s.cfg = cfg
	}
}

// Open loads the config at path, creating it with defaults if missing,
// and takes a process lock next to it.
func Open(path string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating sniper config directory: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking sniper config: %w", err)
	}
	if !locked {
		return nil, ErrLocked
	}

	s := &Store{path: path, lock: lock, cfg: DefaultConfig()}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Reload(); err != nil {
		_ = lock.Unlock()
		return nil, err
	}

	return s, nil
}

// Reload re-reads the file. A missing file is written with the current state.
func (s *Store) Reload() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return s.saveLocked()
	}
	if err != nil {
		return fmt.Errorf("reading sniper config: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parsing sniper config: %w", err)
	}
	if cfg.CooldownMS < 0 {
		cfg.CooldownMS = 0
	}
	s.cfg = cfg

	return nil
}

// Get returns a copy of the current config.
func (s *Store) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Update applies fn and persists the result. On a write error the
// in-memory state keeps the change.
func (s *Store) Update(fn func(c *Config)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.cfg)
	return s.saveLocked()
}

func (s *Store) Path() string {
	return s.path
}

// Close releases the process lock.
func (s *Store) Close() error {
	if err := s.lock.Unlock(); err != nil {
		return fmt.Errorf("unlocking sniper config: %w", err)
	}
	if err := os.Remove(s.lock.Path()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing sniper lock file: %w", err)
	}
	return nil
}

func (s *Store) saveLocked() error {
	data, err := json.MarshalIndent(s.cfg, "", "    ")
	if err != nil {
		return fmt.Errorf("marshaling sniper config: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing sniper config: %w", err)
	}
	return os.Rename(tmp, s.path)
}
