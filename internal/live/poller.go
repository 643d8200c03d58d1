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

	"github.com/rs/zerolog"

	"github.com/tomtom215/qrpulse/internal/backend"
	"github.com/tomtom215/qrpulse/internal/logging"
	"github.com/tomtom215/qrpulse/internal/metrics"
	"github.com/tomtom215/qrpulse/internal/models"
)

// FeedFetcher is the slice of the platform client a poller needs.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, userID, since string) (*backend.FeedResult, error)
}

// PollerConfig tunes a Poller.
type PollerConfig struct {
	Interval         time.Duration
	FetchTimeout     time.Duration
	FailureThreshold int
	Retention        time.Duration
	MaxBuffer        int
}

// DefaultPollerConfig returns a 5s interval, 8s fetch timeout, three strikes
// before disconnect, 24h retention and 500 buffered scans.
func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Interval:         5 * time.Second,
		FetchTimeout:     8 * time.Second,
		FailureThreshold: 3,
		Retention:        24 * time.Hour,
		MaxBuffer:        500,
	}
}

// State is what subscribers receive after each poll.
type State struct {
	UserID              string                `json:"userId"`
	Connected           bool                  `json:"connected"`
	ConsecutiveFailures int                   `json:"consecutiveFailures"`
	LastSuccess         time.Time             `json:"lastSuccess"`
	Snapshot            *Snapshot             `json:"-"`
	Notifications       []models.Notification `json:"notifications"`
	UnreadCount         int                   `json:"unreadCount"`
}

// Poller polls the live feed for one user.
type Poller struct {
	fetcher  FeedFetcher
	cfg      PollerConfig
	onUpdate func(State)
	now      func() time.Time
	log      zerolog.Logger

	buffer *Buffer
	notes  *NotificationStore

	mu          sync.Mutex
	userID      string
	running     bool
	stopCh      chan struct{}
	firstPoll   chan struct{}
	wg          sync.WaitGroup
	cursor      string
	failures    int
	connected   bool
	lastSuccess time.Time
}

// NewPoller creates a stopped poller with an in-memory notification store.
// onUpdate may be nil; it is called from the polling goroutine and must not
// block for long.
func NewPoller(fetcher FeedFetcher, cfg PollerConfig, onUpdate func(State)) *Poller {
	return newPoller(fetcher, cfg, NewNotificationStore(), onUpdate)
}

// newPoller shares notes with whoever owns them, so notification state
// outlives the poller.
func newPoller(fetcher FeedFetcher, cfg PollerConfig, notes *NotificationStore, onUpdate func(State)) *Poller {
	def := DefaultPollerConfig()
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = def.FetchTimeout
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = def.FailureThreshold
	}
	return &Poller{
		fetcher:   fetcher,
		cfg:       cfg,
		onUpdate:  onUpdate,
		now:       time.Now,
		log:       logging.WithComponent("live"),
		buffer:    NewBuffer(BufferConfig{MaxSize: cfg.MaxBuffer, Retention: cfg.Retention}),
		notes:     notes,
		connected: true,
		stopCh:    make(chan struct{}),
		firstPoll: make(chan struct{}),
	}
}

// Start begins polling for userID. It is a no-op when userID is empty or the
// poller is already running; callers gate on authentication.
func (p *Poller) Start(ctx context.Context, userID string) {
	if userID == "" {
		return
	}
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.userID = userID
	stop := make(chan struct{})
	p.stopCh = stop
	p.wg.Add(1)
	p.mu.Unlock()

	p.log.Debug().Str("user_id", userID).Dur("interval", p.cfg.Interval).Msg("starting live poller")
	go p.loop(ctx, userID, stop)
}

// Stop halts polling and waits for an in-flight poll to finish. No update is
// published after Stop returns.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
	p.log.Debug().Str("user_id", p.UserID()).Msg("live poller stopped")
}

// IsRunning reports whether the polling goroutine is active.
func (p *Poller) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// UserID is the user the poller was last started for.
func (p *Poller) UserID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.userID
}

// IsConnected is false after FailureThreshold consecutive failed polls.
func (p *Poller) IsConnected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected
}

// Snapshot returns the current immutable buffer snapshot.
func (p *Poller) Snapshot() *Snapshot {
	return p.buffer.Snapshot()
}

// Notifications returns the user's notification store.
func (p *Poller) Notifications() *NotificationStore {
	return p.notes
}

// WaitFirstPoll blocks until the first poll attempt has finished or ctx is
// done.
func (p *Poller) WaitFirstPoll(ctx context.Context) {
	select {
	case <-p.firstPoll:
	case <-ctx.Done():
	}
}

// State assembles the current state for a subscriber.
func (p *Poller) State() State {
	p.mu.Lock()
	st := State{
		UserID:              p.userID,
		Connected:           p.connected,
		ConsecutiveFailures: p.failures,
		LastSuccess:         p.lastSuccess,
	}
	p.mu.Unlock()

	st.Snapshot = p.buffer.Snapshot()
	st.Notifications = p.notes.List()
	st.UnreadCount = p.notes.UnreadCount()
	return st
}

func (p *Poller) loop(ctx context.Context, userID string, stop chan struct{}) {
	defer p.wg.Done()
	defer p.exited(stop)

	p.poll(ctx, userID, stop)
	p.markFirstPoll()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			p.poll(ctx, userID, stop)
		}
	}
}

// exited resets run state when the loop owning stop returns, whether through
// Stop or because ctx ended, so a later Start polls again.
func (p *Poller) exited(stop chan struct{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopCh == stop {
		p.running = false
	}
	if !p.connected {
		metrics.DisconnectedPollers.Dec()
		p.connected = true
		p.failures = 0
	}
}

func (p *Poller) markFirstPoll() {
	select {
	case <-p.firstPoll:
	default:
		close(p.firstPoll)
	}
}

// poll runs one fetch-merge-publish cycle.
func (p *Poller) poll(ctx context.Context, userID string, stop <-chan struct{}) {
	ctx = logging.ContextWithNewCorrelationID(ctx)

	p.mu.Lock()
	since := p.cursor
	p.mu.Unlock()

	fetchCtx, cancel := context.WithTimeout(ctx, p.cfg.FetchTimeout)
	start := time.Now()
	res, err := p.fetcher.FetchFeed(fetchCtx, userID, since)
	cancel()
	metrics.RecordPoll(time.Since(start), err)

	if stopping(ctx, stop) {
		return
	}

	if err != nil {
		p.recordFailure(ctx, userID, err, stop)
		return
	}

	now := p.now()
	p.buffer.Merge(res.Scans, now, FeedMeta{TotalScans: res.TotalScans, QRCodeCount: res.QRCodeCount})
	p.notes.Merge(res.Notifications)

	p.mu.Lock()
	if res.Cursor != "" {
		p.cursor = res.Cursor
	}
	wasConnected := p.connected
	p.failures = 0
	p.connected = true
	p.lastSuccess = now
	p.mu.Unlock()

	if !wasConnected {
		metrics.DisconnectedPollers.Dec()
		logging.Ctx(ctx).Info().Str("user_id", userID).Msg("live feed reconnected")
	}
	p.publish(stop)
}

func (p *Poller) recordFailure(ctx context.Context, userID string, err error, stop <-chan struct{}) {
	p.mu.Lock()
	p.failures++
	failures := p.failures
	tripped := p.connected && failures >= p.cfg.FailureThreshold
	if tripped {
		p.connected = false
	}
	p.mu.Unlock()

	l := logging.Ctx(ctx)
	if !tripped {
		l.Debug().Err(err).Str("user_id", userID).Int("consecutive_failures", failures).Msg("live feed poll failed")
		return
	}

	metrics.DisconnectedPollers.Inc()
	ev := l.Warn()
	if errors.Is(err, backend.ErrCircuitOpen) {
		ev = l.Info()
	}
	ev.Err(err).Str("user_id", userID).Int("consecutive_failures", failures).Msg("live feed marked disconnected")
	p.publish(stop)
}

func (p *Poller) publish(stop <-chan struct{}) {
	if p.onUpdate == nil {
		return
	}
	select {
	case <-stop:
		return
	default:
	}
	p.onUpdate(p.State())
}

func stopping(ctx context.Context, stop <-chan struct{}) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
