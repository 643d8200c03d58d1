// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package dashboard

import (
	"time"

	"github.com/tomtom215/qrpulse/internal/analytics"
	"github.com/tomtom215/qrpulse/internal/live"
	"github.com/tomtom215/qrpulse/internal/models"
)

// Panel states.
const (
	StateReady   = "ready"
	StateLoading = "loading"
	StateUpsell  = "upsell"
)

// Counter names.
const (
	CounterTotalScans     = "totalScans"
	CounterScansToday     = "scansToday"
	CounterScansThisHour  = "scansThisHour"
	CounterUniqueVisitors = "uniqueVisitors"
)

// PanelOptions tune Live.
type PanelOptions struct {
	FeedItems    int
	TopCountries int
	Retention    time.Duration

	// Counters carries animation state between renders for one consumer.
	// Nil renders every counter as a single frame.
	Counters *Counters
}

// Panel is the complete live dashboard view-model.
type Panel struct {
	State string `json:"state"`
	Gate  *Gate  `json:"gate,omitempty"`

	Connected  bool      `json:"connected"`
	LastUpdate time.Time `json:"lastUpdate,omitempty"`

	View          *models.LiveAggregateView `json:"view,omitempty"`
	Counters      []CounterView             `json:"counters,omitempty"`
	Hourly        *Chart                    `json:"hourly,omitempty"`
	Weekly        *Chart                    `json:"weekly,omitempty"`
	Devices       []Row                     `json:"devices,omitempty"`
	Countries     []Row                     `json:"countries,omitempty"`
	Browsers      []Row                     `json:"browsers,omitempty"`
	TopCodes      []Row                     `json:"topCodes,omitempty"`
	Feed          *Feed                     `json:"feed,omitempty"`
	Notifications *Tray                     `json:"notifications,omitempty"`
}

// Live builds the dashboard for a poller state. Plans without live analytics
// get the upsell state; a state with no snapshot yet renders as loading.
func Live(st live.State, rc RenderContext, opts PanelOptions) Panel {
	if g := CheckGate(rc.Plan, FeatureLiveAnalytics); !g.Allowed {
		return Panel{State: StateUpsell, Gate: &g}
	}

	p := Panel{State: StateLoading, Connected: st.Connected, LastUpdate: st.LastSuccess}
	tray := NotificationTray(st.Notifications)
	p.Notifications = &tray
	if st.Snapshot == nil {
		return p
	}
	p.State = StateReady

	now := rc.Now
	if now.IsZero() {
		now = st.Snapshot.UpdatedAt
	}
	retention := opts.Retention
	if retention <= 0 {
		retention = analytics.DefaultRetention
	}
	view := analytics.Aggregate(st.Snapshot.Scans, now, analytics.Options{
		Mounted:     rc.Mounted,
		ServerTotal: st.Snapshot.TotalScans,
		TopN:        opts.TopCountries,
		Retention:   retention,
	})
	p.View = &view

	t := view.Totals
	p.Counters = []CounterView{
		opts.Counters.Set(CounterTotalScans, t.TotalScans, rc),
		opts.Counters.Set(CounterScansToday, int64(t.ScansToday), rc),
		opts.Counters.Set(CounterScansThisHour, int64(t.ScansThisHour), rc),
		opts.Counters.Set(CounterUniqueVisitors, int64(t.UniqueVisitors), rc),
	}

	hourly := HourlyChart(&view, rc)
	weekly := WeeklyChart(&view)
	p.Hourly, p.Weekly = &hourly, &weekly

	// shares are of the buffered scans the breakdowns were counted from
	buffered := int64(view.BufferedScans)
	p.Devices = Breakdown(view.Devices, buffered)
	p.Countries = Breakdown(view.Countries, buffered)
	p.Browsers = Breakdown(view.Browsers, buffered)
	p.TopCodes = Breakdown(view.TopCodes, buffered)

	feed := ActivityFeed(st.Snapshot, opts.FeedItems, rc)
	p.Feed = &feed
	return p
}
