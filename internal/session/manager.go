// Package session owns the per-browser ledgers. A ledger lives as long as
// its session: it is created on the first request and dropped after an idle
// period or an explicit end.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"mayfinance/internal/ledger"
	"mayfinance/internal/services"
)

const CookieName = "mf_session"

// StoreFactory opens the ledger store of one session.
type StoreFactory func(ctx context.Context, sessionID string) (ledger.Store, error)

// PendingScan is an uploaded receipt waiting for the user to pick an amount.
type PendingScan struct {
	Image       []byte
	ContentType string
	Text        string
	Candidates  []string
	Status      services.ScanStatus
}

type Session struct {
	ID     string
	Ledger *services.LedgerService

	store    ledger.Store
	mu       sync.Mutex
	lastSeen time.Time
	pending  *PendingScan
}

// SetPending replaces the pending scan.
func (s *Session) SetPending(p *PendingScan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = p
}

func (s *Session) Pending() *PendingScan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

// TakePending returns the pending scan and clears it.
func (s *Session) TakePending() *PendingScan {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	return p
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

type Config struct {
	TTL             time.Duration
	CleanupInterval time.Duration
	SecureCookie    bool
	// MaxSessions bounds the live sessions. Creating one more discards the
	// least recently used.
	MaxSessions int
}

func DefaultConfig() Config {
	return Config{
		TTL:             2 * time.Hour,
		CleanupInterval: 5 * time.Minute,
		MaxSessions:     10000,
	}
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	newStore StoreFactory
	deps     services.Deps
	cfg      Config
	now      func() time.Time

	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

// NewManager starts the idle-session janitor. Call Stop to end it.
func NewManager(newStore StoreFactory, deps services.Deps, cfg Config) *Manager {
	def := DefaultConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = def.MaxSessions
	}
	m := &Manager{
		sessions:    make(map[string]*Session),
		newStore:    newStore,
		deps:        deps,
		cfg:         cfg,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	go m.startCleanup()
	return m
}

// Resolve returns the session named by the request cookie, creating one
// (and setting the cookie) when it is missing, malformed or expired.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if c, err := r.Cookie(CookieName); err == nil {
		if s := m.Get(c.Value); s != nil {
			return s, nil
		}
	}

	s, err := m.Create(r.Context())
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	return s, nil
}

// Get returns a live session and marks it as used, or nil.
func (m *Manager) Get(id string) *Session {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	m.mu.Lock()
	s := m.sessions[id]
	m.mu.Unlock()
	if s == nil {
		return nil
	}
	s.touch(m.now())
	return s
}

// Create starts a session with an empty ledger.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	id := uuid.NewString()
	store, err := m.newStore(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("open ledger for session: %w", err)
	}
	s := &Session{
		ID:       id,
		Ledger:   services.NewLedgerService(id, store, m.deps),
		store:    store,
		lastSeen: m.now(),
	}

	m.mu.Lock()
	var evicted *Session
	if len(m.sessions) >= m.cfg.MaxSessions {
		evicted = m.leastRecentLocked()
		delete(m.sessions, evicted.ID)
	}
	m.sessions[id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	if evicted != nil {
		m.discard(ctx, evicted)
		slog.WarnContext(ctx, "Session limit reached, discarded least recently used session",
			"session_id", evicted.ID, "max_sessions", m.cfg.MaxSessions)
	}
	slog.InfoContext(ctx, "Session started", "session_id", id, "active_sessions", count)
	return s, nil
}

// leastRecentLocked returns the session idle the longest. m.mu must be held
// and the map must not be empty.
func (m *Manager) leastRecentLocked() *Session {
	var oldest *Session
	for _, s := range m.sessions {
		if oldest == nil || s.idleSince().Before(oldest.idleSince()) {
			oldest = s
		}
	}
	return oldest
}

// End drops the session and discards its ledger.
func (m *Manager) End(ctx context.Context, id string) {
	m.mu.Lock()
	s := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if s != nil {
		m.discard(ctx, s)
	}
}

func (m *Manager) discard(ctx context.Context, s *Session) {
	s.SetPending(nil)
	if err := s.store.Reset(ctx); err != nil {
		slog.WarnContext(ctx, "Failed to discard session ledger", "session_id", s.ID, "error", err)
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) startCleanup() {
	ticker := time.NewTicker(m.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanupExpired(context.Background())
		case <-m.stopCleanup:
			return
		}
	}
}

// cleanupExpired ends sessions idle for longer than the TTL.
func (m *Manager) cleanupExpired(ctx context.Context) int {
	cutoff := m.now().Add(-m.cfg.TTL)

	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		m.discard(ctx, s)
	}
	if len(expired) > 0 {
		slog.InfoContext(ctx, "Expired idle sessions", "count", len(expired))
	}
	return len(expired)
}

// Stop ends the janitor and discards every session.
func (m *Manager) Stop() {
	m.shutdownOnce.Do(func() {
		close(m.stopCleanup)

		m.mu.Lock()
		all := make([]*Session, 0, len(m.sessions))
		for _, s := range m.sessions {
			all = append(all, s)
		}
		m.sessions = make(map[string]*Session)
		m.mu.Unlock()

		for _, s := range all {
			m.discard(context.Background(), s)
		}
	})
}
