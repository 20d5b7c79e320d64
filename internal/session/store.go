// Package session keeps one widget controller per browser session.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/faqdesk/internal/widget"
)

// Session is a browser session and the widget it drives.
type Session struct {
	mu sync.Mutex

	ID         string
	Controller *widget.Controller
	CreatedAt  time.Time
	lastSeen   time.Time
}

// Touch marks the session as used now.
func (s *Session) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = time.Now()
}

// LastSeen returns the time of the last Touch.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Factory builds the controller for a new session.
type Factory func(id string) (*widget.Controller, error)

// Store is a thread-safe in-memory session registry with TTL eviction.
// Evicted sessions have their controllers closed.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	factory  Factory
	log      *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStore(ttl time.Duration, factory Factory, log *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		factory:  factory,
		log:      log,
	}
}

// Get returns a live session and touches it, or nil.
func (s *Store) Get(id string) *Session {
	s.mu.Lock()
	sess := s.sessions[id]
	s.mu.Unlock()
	if sess == nil || s.expired(sess, time.Now()) {
		return nil
	}
	sess.Touch()
	return sess
}

// GetOrCreate returns the session for id, creating a new one under a fresh
// id when id is unknown or expired. created reports which happened.
func (s *Store) GetOrCreate(id string) (sess *Session, created bool, err error) {
	if id != "" {
		if sess := s.Get(id); sess != nil {
			return sess, false, nil
		}
	}
	sess, err = s.Create()
	return sess, err == nil, err
}

// Create starts a new session.
func (s *Store) Create() (*Session, error) {
	id := uuid.NewString()
	ctrl, err := s.factory(id)
	if err != nil {
		return nil, fmt.Errorf("create widget: %w", err)
	}
	now := time.Now()
	sess := &Session{ID: id, Controller: ctrl, CreatedAt: now, lastSeen: now}

	s.mu.Lock()
	s.sessions[id] = sess
	n := len(s.sessions)
	s.mu.Unlock()

	s.log.Info("session created", "session", id, "active", n)
	return sess, nil
}

// Len returns the number of sessions held, expired ones included until the
// next Cleanup.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.LastSeen()) > s.ttl
}

// Cleanup removes expired sessions and returns how many were evicted.
func (s *Store) Cleanup() int {
	now := time.Now()
	var evicted []*Session

	s.mu.Lock()
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			evicted = append(evicted, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range evicted {
		sess.Controller.Close()
		s.log.Info("session expired", "session", sess.ID)
	}
	return len(evicted)
}

// Start runs Cleanup periodically until Stop.
func (s *Store) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	interval := min(s.ttl/2, 5*time.Minute)
	if interval < time.Second {
		interval = time.Second
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Cleanup()
			}
		}
	}()
}

// Stop ends the cleanup goroutine and closes every session.
func (s *Store) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()

	s.mu.Lock()
	all := make([]*Session, 0, len(s.sessions))
	for id, sess := range s.sessions {
		all = append(all, sess)
		delete(s.sessions, id)
	}
	s.mu.Unlock()

	for _, sess := range all {
		sess.Controller.Close()
	}
}
