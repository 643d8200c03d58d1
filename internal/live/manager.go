// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package live

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/qrpulse/internal/logging"
	"github.com/tomtom215/qrpulse/internal/metrics"
)

// ErrNoUser is returned when a caller has no authenticated user id.
var ErrNoUser = errors.New("live: user id required")

// Publisher receives poller updates, typically to push them to WebSocket
// clients.
type Publisher func(State)

// ManagerConfig tunes a Manager.
type ManagerConfig struct {
	Poller PollerConfig

	// IdleTimeout is how long a poller with no subscribers survives after
	// its last access.
	IdleTimeout time.Duration

	// SweepInterval is how often idle pollers are reaped.
	SweepInterval time.Duration

	// Backing persists notification read and cleared state. Nil keeps it in
	// memory for the life of the Manager.
	Backing NotificationBacking
}

type session struct {
	poller     *Poller
	refs       int
	lastAccess time.Time
}

// Manager owns one Poller per active user.
//
// A poller is started on first use. WebSocket subscribers hold a reference
// through Acquire/Release; REST callers only Touch. A poller with no
// references is stopped once it has been idle for IdleTimeout. The user's
// NotificationStore is kept across pollers, so read and cleared state
// survives an idle sweep.
type Manager struct {
	fetcher FeedFetcher
	cfg     ManagerConfig
	now     func() time.Time

	mu        sync.Mutex
	sessions  map[string]*session
	notes     map[string]*NotificationStore
	publisher Publisher
	baseCtx   context.Context
}

// NewManager returns a Manager with no pollers. Zero durations fall back to a
// 5 minute idle timeout swept every minute.
func NewManager(fetcher FeedFetcher, cfg ManagerConfig) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = 5 * time.Minute
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Manager{
		fetcher:  fetcher,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*session),
		notes:    make(map[string]*NotificationStore),
		baseCtx:  context.Background(),
	}
}

// SetPublisher installs the update sink. It applies to pollers started
// afterwards and to updates of existing pollers.
func (m *Manager) SetPublisher(p Publisher) {
	m.mu.Lock()
	m.publisher = p
	m.mu.Unlock()
}

func (m *Manager) publish(st State) {
	m.mu.Lock()
	pub := m.publisher
	m.mu.Unlock()
	if pub != nil {
		pub(st)
	}
}

// Touch returns the user's poller, starting it if needed, and refreshes its
// idle timer.
func (m *Manager) Touch(userID string) (*Poller, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sessions[userID]
	if s == nil {
		s = &session{poller: newPoller(m.fetcher, m.cfg.Poller, m.notesLocked(userID), m.publish)}
		m.sessions[userID] = s
		s.poller.Start(m.baseCtx, userID)
		metrics.ActivePollers.Inc()
	}
	s.lastAccess = m.now()
	return s.poller, nil
}

// notesLocked returns userID's notification store, loading persisted state
// the first time. Callers hold mu.
func (m *Manager) notesLocked(userID string) *NotificationStore {
	if n, ok := m.notes[userID]; ok {
		return n
	}
	n, err := OpenNotificationStore(userID, m.cfg.Backing)
	if err != nil {
		logging.Warn().Err(err).Str("user_id", userID).Msg("failed to load notification state")
	}
	m.notes[userID] = n
	return n
}

// Notifications returns userID's notification store without starting a
// poller.
func (m *Manager) Notifications(userID string) (*NotificationStore, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.notesLocked(userID), nil
}

// Acquire is Touch plus a reference that keeps the poller alive until the
// matching Release.
func (m *Manager) Acquire(userID string) (*Poller, error) {
	p, err := m.Touch(userID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	if s := m.sessions[userID]; s != nil {
		s.refs++
	}
	m.mu.Unlock()
	return p, nil
}

// Release drops a reference taken by Acquire.
func (m *Manager) Release(userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.sessions[userID]; s != nil && s.refs > 0 {
		s.refs--
		s.lastAccess = m.now()
	}
}

// Lookup returns the user's poller without starting one.
func (m *Manager) Lookup(userID string) (*Poller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, false
	}
	return s.poller, true
}

// View returns the user's current state, waiting up to wait for the first
// poll when the poller was just started.
func (m *Manager) View(ctx context.Context, userID string, wait time.Duration) (State, error) {
	p, err := m.Touch(userID)
	if err != nil {
		return State{}, err
	}
	if wait > 0 {
		wctx, cancel := context.WithTimeout(ctx, wait)
		p.WaitFirstPoll(wctx)
		cancel()
	}
	return p.State(), nil
}

// Active returns the number of running pollers.
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// sweep stops pollers with no references that have been idle too long.
func (m *Manager) sweep() int {
	now := m.now()
	var idle []*Poller

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.refs == 0 && now.Sub(s.lastAccess) >= m.cfg.IdleTimeout {
			idle = append(idle, s.poller)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, p := range idle {
		p.Stop()
		metrics.ActivePollers.Dec()
	}
	return len(idle)
}

func (m *Manager) stopAll() {
	m.mu.Lock()
	all := make([]*Poller, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s.poller)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, p := range all {
		p.Stop()
		metrics.ActivePollers.Dec()
	}
}

// Serve implements suture.Service. Pollers started after Serve begins are
// bound to its context; all pollers are stopped when it returns.
func (m *Manager) Serve(ctx context.Context) error {
	m.mu.Lock()
	m.baseCtx = ctx
	m.mu.Unlock()

	log := logging.WithComponent("live")
	log.Info().Dur("idle_timeout", m.cfg.IdleTimeout).Msg("live manager started")

	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.stopAll()
			log.Info().Msg("live manager stopped")
			return ctx.Err()
		case <-ticker.C:
			if n := m.sweep(); n > 0 {
				log.Debug().Int("stopped", n).Int("active", m.Active()).Msg("reaped idle pollers")
			}
		}
	}
}

// String names the service in supervisor logs.
func (m *Manager) String() string {
	return "live-manager"
}
