// Package stalk records the observable activity of selected users to append-only text logs.
package stalk

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/devusSs/kraken-selfbot/internal/utils"
)

var (
	ErrSessionActive   = errors.New("stalk session already active")
	ErrSessionInactive = errors.New("no active stalk session")
	ErrSelfTarget      = errors.New("cannot stalk the controlled account")
	ErrInvalidUser     = errors.New("invalid user id")
	ErrNoLog           = errors.New("no stalk log for user")
)

const (
	timeLayout = "2006-01-02 15:04:05"
	rule       = "=================================================="
)

var (
	snowflake = regexp.MustCompile(`^\d{1,20}$`)
	entryLine = regexp.MustCompile(`^\[[^\]]+\] ([A-Z_]+)$`)
)

// Info describes the target when a session starts.
type Info struct {
	Tag string
}

// Session is an active stalk session.
type Session struct {
	UserID    string
	Tag       string
	SessionID string
	Started   time.Time
	Path      string
}

// Stats are derived from the whole log file of a user, across all of its sessions.
type Stats struct {
	Counts      map[EventType]int
	TotalEvents int
	Sessions    int
}

// Store owns the active sessions and their log files.
type Store struct {
	dir string
	now func() time.Time

	mu       sync.Mutex
	selfID   string
	sessions map[string]*Session
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New creates the log directory if needed.
func New(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating stalk directory: %w", err)
	}
	s := &Store{
		dir:      dir,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetSelf sets the controlled account, which can never be a target.
func (s *Store) SetSelf(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selfID = id
}

// Path returns the log file of userID.
func (s *Store) Path(userID string) string {
	return filepath.Join(s.dir, userID+".log")
}

// Start opens a session for userID and appends its header block.
func (s *Store) Start(userID string, info Info) (*Session, error) {
	if !snowflake.MatchString(userID) {
		return nil, ErrInvalidUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if userID == s.selfID {
		return nil, ErrSelfTarget
	}
	if _, ok := s.sessions[userID]; ok {
		return nil, ErrSessionActive
	}

	now := s.now()
	sess := &Session{
		UserID:    userID,
		Tag:       info.Tag,
		SessionID: ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Started:   now,
		Path:      s.Path(userID),
	}
	if sess.Tag == "" {
		sess.Tag = userID
	}

	header := fmt.Sprintf("%s\nSTALK SESSION STARTED\nTarget: %s (%s)\nSession ID: %s\nStarted: %s\n%s\n\n",
		rule, oneLine(sess.Tag), userID, sess.SessionID, now.Format(timeLayout), rule)
	if err := appendFile(sess.Path, header); err != nil {
		return nil, err
	}

	s.sessions[userID] = sess
	cp := *sess
	return &cp, nil
}

// Stop appends the footer block and ends the session. The log file stays on disk.
//
// Returns how long the session ran.
func (s *Store) Stop(userID string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return 0, ErrSessionInactive
	}

	return s.stopLocked(sess)
}

func (s *Store) stopLocked(sess *Session) (time.Duration, error) {
	now := s.now()
	dur := now.Sub(sess.Started)

	footer := fmt.Sprintf("%s\nSTALK SESSION ENDED\nSession ID: %s\nEnded: %s\nDuration: %s\n%s\n\n",
		rule, sess.SessionID, now.Format(timeLayout), utils.FormatDuration(dur), rule)
	if err := appendFile(sess.Path, footer); err != nil {
		return 0, err
	}

	delete(s.sessions, sess.UserID)
	return dur, nil
}

// StopAll ends every active session, used on shutdown.
func (s *Store) StopAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, sess := range s.sessions {
		if _, err := s.stopLocked(sess); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogEvent appends one entry for userID. It does nothing if no session is active.
func (s *Store) LogEvent(userID string, ev Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}

	return appendFile(sess.Path, ev.format(s.now()))
}

func (s *Store) IsActive(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[userID]
	return ok
}

// Active returns a copy of all active sessions, oldest first.
func (s *Store) Active() []Session {
	s.mu.Lock()
	res := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		res = append(res, *sess)
	}
	s.mu.Unlock()

	sort.Slice(res, func(i, j int) bool { return res[i].Started.Before(res[j].Started) })
	return res
}

// Stats re-reads the log file of userID and counts its entries by type.
func (s *Store) Stats(userID string) (Stats, error) {
	if !snowflake.MatchString(userID) {
		return Stats{}, ErrInvalidUser
	}

	f, err := os.Open(s.Path(userID))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Stats{}, ErrNoLog
		}
		return Stats{}, err
	}
	defer f.Close()

	st := Stats{Counts: make(map[EventType]int)}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "STALK SESSION STARTED" {
			st.Sessions++
			continue
		}
		m := entryLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		t := EventType(m[1])
		if !t.Valid() {
			continue
		}
		st.Counts[t]++
		st.TotalEvents++
	}
	if err := scanner.Err(); err != nil {
		return Stats{}, err
	}

	return st, nil
}

func appendFile(path, content string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening stalk log: %w", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return fmt.Errorf("writing stalk log: %w", err)
	}
	return f.Close()
}
