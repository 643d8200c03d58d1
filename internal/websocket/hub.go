// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/qrpulse/internal/logging"
	"github.com/tomtom215/qrpulse/internal/metrics"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types
const (
	MessageTypeLiveUpdate   = "live_update"
	MessageTypeNotification = "notification"
	MessageTypeMarkRead     = "mark_read"
	MessageTypeMarkAllRead  = "mark_all_read"
	MessageTypeError        = "error"
	MessageTypePing         = "ping"
	MessageTypePong         = "pong"
)

// Message is the envelope for every frame in either direction.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Inbound is a client frame with its payload left undecoded.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Render builds a message for one client. Returning false skips the client.
type Render func(c *Client) (Message, bool)

type outbound struct {
	userID string // empty for every client
	msg    Message
	render Render
}

// Hooks are called from the hub goroutine and must not block.
type Hooks struct {
	OnConnect    func(c *Client)
	OnDisconnect func(c *Client)
	// OnMessage receives client frames other than ping, from the client's
	// read goroutine.
	OnMessage func(c *Client, in Inbound)
}

// Hub tracks connected clients per user and fans messages out to them.
type Hub struct {
	clients    map[*Client]struct{}
	users      map[string]map[*Client]struct{}
	outbound   chan outbound
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex

	hooksMu sync.RWMutex
	hooks   Hooks

	stopMu  sync.Mutex
	stopped chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		users:      make(map[string]map[*Client]struct{}),
		outbound:   make(chan outbound, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		stopped:    make(chan struct{}),
	}
}

// done is closed while the hub is not running after a shutdown.
func (h *Hub) done() <-chan struct{} {
	h.stopMu.Lock()
	defer h.stopMu.Unlock()
	return h.stopped
}

// Attach registers c unless the hub has shut down.
func (h *Hub) Attach(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done():
		return false
	}
}

// Detach unregisters c unless the hub has shut down.
func (h *Hub) Detach(c *Client) {
	select {
	case h.Unregister <- c:
	case <-h.done():
	}
}

// SetHooks replaces the lifecycle hooks.
func (h *Hub) SetHooks(hooks Hooks) {
	h.hooksMu.Lock()
	h.hooks = hooks
	h.hooksMu.Unlock()
}

func (h *Hub) getHooks() Hooks {
	h.hooksMu.RLock()
	defer h.hooksMu.RUnlock()
	return h.hooks
}

// RunWithContext runs the hub until ctx is done, then closes every client.
// Shutdown is checked first, then registrations, then outbound messages, so
// a client registered before a broadcast always receives it.
func (h *Hub) RunWithContext(ctx context.Context) error {
	h.stopMu.Lock()
	select {
	case <-h.stopped:
		h.stopped = make(chan struct{})
	default:
	}
	h.stopMu.Unlock()

	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.Register:
			h.add(c)
			continue
		case c := <-h.Unregister:
			h.remove(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case c := <-h.Register:
			h.add(c)
		case c := <-h.Unregister:
			h.remove(c)
		case out := <-h.outbound:
			h.deliver(out)
		}
	}
}

// Serve implements suture.Service.
func (h *Hub) Serve(ctx context.Context) error {
	return h.RunWithContext(ctx)
}

func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	set := h.users[c.userID]
	if set == nil {
		set = make(map[*Client]struct{})
		h.users[c.userID] = set
	}
	set[c] = struct{}{}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Debug().Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client connected")

	if fn := h.getHooks().OnConnect; fn != nil {
		fn(c)
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	ok := h.detach(c)
	total := len(h.clients)
	h.mu.Unlock()
	if !ok {
		return
	}
	h.disconnected(c, total)
}

// detach drops c from both indexes and closes its send channel. Callers
// hold mu.
func (h *Hub) detach(c *Client) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	if set := h.users[c.userID]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(h.users, c.userID)
		}
	}
	c.closeSend()
	return true
}

func (h *Hub) disconnected(c *Client, total int) {
	metrics.WSConnections.Dec()
	logging.Debug().Str("user_id", c.userID).Int("total_clients", total).Msg("websocket client disconnected")
	if fn := h.getHooks().OnDisconnect; fn != nil {
		fn(c)
	}
}

// sortedTargets returns the recipients of out ordered by client id.
func (h *Hub) sortedTargets(userID string) []*Client {
	var src map[*Client]struct{}
	if userID == "" {
		src = h.clients
	} else {
		src = h.users[userID]
	}
	out := make([]*Client, 0, len(src))
	for c := range src {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// deliver sends out to its recipients. Clients whose buffers are full are
// dropped.
func (h *Hub) deliver(out outbound) {
	h.mu.Lock()
	targets := h.sortedTargets(out.userID)

	var dropped []*Client
	for _, c := range targets {
		msg := out.msg
		if out.render != nil {
			var ok bool
			if msg, ok = out.render(c); !ok {
				continue
			}
		}
		if !c.Send(msg) {
			dropped = append(dropped, c)
		}
	}
	for _, c := range dropped {
		h.detach(c)
	}
	total := len(h.clients)
	h.mu.Unlock()

	for _, c := range dropped {
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("user_id", c.userID).Uint64("client_id", c.id).Msg("websocket client too slow, disconnecting")
		h.disconnected(c, total)
	}
}

func (h *Hub) enqueue(out outbound) bool {
	select {
	case h.outbound <- out:
		return true
	default:
		metrics.WSMessagesDropped.Inc()
		logging.Warn().Str("message_type", out.msg.Type).Str("user_id", out.userID).Msg("hub queue full, dropping message")
		return false
	}
}

// BroadcastToUser queues msg for every client of userID.
func (h *Hub) BroadcastToUser(userID string, msg Message) bool {
	if userID == "" {
		return false
	}
	return h.enqueue(outbound{userID: userID, msg: msg})
}

// RenderToUser queues a per-client message for every client of userID.
func (h *Hub) RenderToUser(userID string, render Render) bool {
	if userID == "" || render == nil {
		return false
	}
	return h.enqueue(outbound{userID: userID, render: render})
}

// Broadcast queues msg for every client.
func (h *Hub) Broadcast(msg Message) bool {
	return h.enqueue(outbound{msg: msg})
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserClientCount returns the number of connections userID holds.
func (h *Hub) UserClientCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

func (h *Hub) shutdown(ctx context.Context) {
	h.stopMu.Lock()
	close(h.stopped)
	h.stopMu.Unlock()

	h.mu.Lock()
	all := h.sortedTargets("")
	for _, c := range all {
		h.detach(c)
	}
	h.mu.Unlock()

	for _, c := range all {
		h.disconnected(c, 0)
	}

	reason := ShutdownReasonContextCanceled
	if ctx.Err() == context.DeadlineExceeded {
		reason = ShutdownReasonContextDeadline
	}
	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(reason)).
		Int("clients_closed", len(all)).
		Msg("websocket hub stopped")
}

// MarshalMessage encodes msg as sent on the wire.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
