// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/qrpulse/internal/auth"
	"github.com/tomtom215/qrpulse/internal/dashboard"
	"github.com/tomtom215/qrpulse/internal/live"
	"github.com/tomtom215/qrpulse/internal/logging"
	ws "github.com/tomtom215/qrpulse/internal/websocket"
)

// snapshotWait bounds how long a snapshot request waits for a freshly
// started poller's first poll when no fetch timeout is configured.
const snapshotWait = 5 * time.Second

// counterAnimation is the per-client counter animation length.
const counterAnimation = dashboard.DefaultCounterDuration

// LiveSnapshot is the response of GET /api/v1/live/snapshot.
type LiveSnapshot struct {
	Connected           bool            `json:"connected"`
	ConsecutiveFailures int             `json:"consecutiveFailures"`
	LastSuccess         time.Time       `json:"lastSuccess"`
	Snapshot            *live.Snapshot  `json:"snapshot,omitempty"`
	Panel               dashboard.Panel `json:"panel"`
}

// clientSession is the per-connection state kept in ws.Client.Meta.
type clientSession struct {
	plan     dashboard.Plan
	counters *dashboard.Counters
	acquired bool
}

func planFrom(r *http.Request) dashboard.Plan {
	if c, ok := auth.ClaimsFromContext(r.Context()); ok {
		return dashboard.ParsePlan(c.Plan)
	}
	return dashboard.PlanFree
}

// LiveSnapshot returns the buffer, the aggregate view and the dashboard
// view-model. Without ?mounted=true the view is the non-interactive first
// render: no current-hour highlight, no relative times, no retention cut.
func (h *Handler) LiveSnapshot(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	userID := auth.UserIDFromContext(r.Context())
	plan := planFrom(r)

	mounted, _ := strconv.ParseBool(r.URL.Query().Get("mounted"))
	rc := dashboard.RenderContext{Mounted: mounted, Plan: plan}
	if mounted {
		rc.Now = h.now()
	}

	if !dashboard.Allowed(plan, dashboard.FeatureLiveAnalytics) {
		rw.Success(LiveSnapshot{Panel: dashboard.Live(live.State{}, rc, h.panelOptions(nil))})
		return
	}

	wait := h.config.Live.FetchTimeout
	if wait <= 0 {
		wait = snapshotWait
	}
	st, err := h.live.View(r.Context(), userID, wait)
	if errors.Is(err, live.ErrNoUser) {
		WriteError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	if err != nil {
		rw.InternalError(err)
		return
	}

	rw.Success(LiveSnapshot{
		Connected:           st.Connected,
		ConsecutiveFailures: st.ConsecutiveFailures,
		LastSuccess:         st.LastSuccess,
		Snapshot:            st.Snapshot,
		Panel:               dashboard.Live(st, rc, h.panelOptions(nil)),
	})
}

// LiveWebSocket upgrades to a per-user push channel carrying live_update
// messages after every poll.
func (h *Handler) LiveWebSocket(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		WriteError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	sess := &clientSession{
		plan:     planFrom(r),
		counters: dashboard.NewCounters(counterAnimation),
	}
	if err := ws.ServeWS(h.hub, w, r, userID, sess); err != nil {
		// the upgrader has already written the HTTP error
		logging.Ctx(r.Context()).Debug().Err(err).Msg("websocket upgrade failed")
	}
}

func (h *Handler) liveMessage(st live.State, sess *clientSession) ws.Message {
	rc := dashboard.RenderContext{Mounted: true, Now: h.now(), Plan: sess.plan}
	return ws.Message{
		Type: ws.MessageTypeLiveUpdate,
		Data: dashboard.Live(st, rc, h.panelOptions(sess.counters)),
	}
}

// render builds one live_update per client from a shared state.
func (h *Handler) render(st live.State) ws.Render {
	return func(c *ws.Client) (ws.Message, bool) {
		sess, ok := c.Meta.(*clientSession)
		if !ok || !sess.acquired {
			return ws.Message{}, false
		}
		return h.liveMessage(st, sess), true
	}
}

// publish is the live.Manager publisher.
func (h *Handler) publish(st live.State) {
	h.hub.RenderToUser(st.UserID, h.render(st))
}

// pushState republishes the user's current state after a local change such
// as marking notifications read.
func (h *Handler) pushState(userID string) {
	if p, ok := h.live.Lookup(userID); ok {
		h.publish(p.State())
	}
}

func (h *Handler) onConnect(c *ws.Client) {
	sess, ok := c.Meta.(*clientSession)
	if !ok {
		return
	}
	if !dashboard.Allowed(sess.plan, dashboard.FeatureLiveAnalytics) {
		c.Send(h.liveMessage(live.State{}, sess))
		return
	}
	p, err := h.live.Acquire(c.UserID())
	if err != nil {
		logging.Warn().Err(err).Msg("live subscription rejected")
		return
	}
	sess.acquired = true
	c.Send(h.liveMessage(p.State(), sess))
}

func (h *Handler) onDisconnect(c *ws.Client) {
	if sess, ok := c.Meta.(*clientSession); ok && sess.acquired {
		h.live.Release(c.UserID())
	}
}

type notificationRef struct {
	ID string `json:"id"`
}

func (h *Handler) onMessage(c *ws.Client, in ws.Inbound) {
	switch in.Type {
	case ws.MessageTypeMarkRead:
		var ref notificationRef
		if err := json.Unmarshal(in.Data, &ref); err != nil || ref.ID == "" {
			c.Send(ws.Message{Type: ws.MessageTypeError, Data: map[string]string{"message": "mark_read requires an id"}})
			return
		}
		if store, err := h.live.Notifications(c.UserID()); err == nil && store.MarkRead(ref.ID) {
			h.pushState(c.UserID())
		}
	case ws.MessageTypeMarkAllRead:
		if store, err := h.live.Notifications(c.UserID()); err == nil && store.MarkAllRead() > 0 {
			h.pushState(c.UserID())
		}
	default:
		c.Send(ws.Message{Type: ws.MessageTypeError, Data: map[string]string{"message": "unknown message type: " + in.Type}})
	}
}
