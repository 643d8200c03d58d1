// QRPulse - QR Code Scan Analytics and Rendering
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/qrpulse

package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/tomtom215/qrpulse/internal/models"
)

const (
	DefaultTopCountries = 8
	DefaultTopCodes     = 5
	DefaultRetention    = 24 * time.Hour
)

// Options tune a single aggregation pass.
type Options struct {
	// Mounted enables current-hour highlighting. Unmounted renders must not
	// depend on the caller's wall clock.
	Mounted bool

	// ServerTotal, when set, replaces the buffer length as TotalScans.
	ServerTotal *int64

	// TopN caps the country breakdown. Zero means DefaultTopCountries.
	TopN int

	// Retention excludes older events from the hourly and daily histograms.
	// Zero disables the cutoff.
	Retention time.Duration
}

// DefaultOptions returns the settings used by the live dashboard.
func DefaultOptions() Options {
	return Options{TopN: DefaultTopCountries, Retention: DefaultRetention}
}

// Aggregate computes the live view for events as of now. Hour and day
// boundaries are taken in now's location. Repeated ids are counted once.
func Aggregate(events []models.ScanEvent, now time.Time, opts Options) models.LiveAggregateView {
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopCountries
	}

	view := models.LiveAggregateView{
		CurrentHour: -1,
		GeneratedAt: now,
	}
	if opts.Mounted {
		view.CurrentHour = now.Hour()
	}

	loc := now.Location()
	nowY, nowM, nowD := now.Date()
	nowH := now.Hour()

	devices := make(map[string]int)
	countries := make(map[string]int)
	browsers := make(map[string]int)
	codes := make(map[string]int)
	codeNames := make(map[string]string)
	visitors := make(map[string]struct{})
	seen := make(map[string]struct{}, len(events))

	for i := range events {
		e := &events[i]
		if e.ID != "" {
			if _, dup := seen[e.ID]; dup {
				continue
			}
			seen[e.ID] = struct{}{}
		}
		view.BufferedScans++

		devices[string(e.Device.Type)]++
		countries[e.Location.Country]++
		browsers[e.Device.Browser]++
		codes[e.QRCodeID]++
		if _, ok := codeNames[e.QRCodeID]; !ok {
			codeNames[e.QRCodeID] = e.QRCodeName
		}
		visitors[VisitorKey(e)] = struct{}{}

		if !e.HasTimestamp() {
			continue
		}
		if opts.Retention > 0 && now.Sub(e.Timestamp) > opts.Retention {
			continue
		}

		ts := e.Timestamp.In(loc)
		view.Hourly[ts.Hour()]++
		view.Daily[ts.Weekday()]++

		y, m, d := ts.Date()
		if y == nowY && m == nowM && d == nowD {
			view.Totals.ScansToday++
			if ts.Hour() == nowH {
				view.Totals.ScansThisHour++
			}
		}
	}

	view.Devices = SortCounts(devices, 0)
	view.Countries = SortCounts(countries, topN)
	view.Browsers = SortCounts(browsers, 0)
	view.TopCodes = SortCounts(codes, DefaultTopCodes)
	for i := range view.TopCodes {
		view.TopCodes[i].Label = codeNames[view.TopCodes[i].Key]
	}

	view.Totals.UniqueVisitors = len(visitors)
	view.Totals.TotalScans = int64(view.BufferedScans)
	if opts.ServerTotal != nil {
		view.Totals.TotalScans = *opts.ServerTotal
		view.ServerAuthoritative = true
	}
	return view
}

// VisitorKey is the identity used for unique-visitor counting.
func VisitorKey(e *models.ScanEvent) string {
	if e.VisitorID != "" {
		return e.VisitorID
	}
	return models.DeviceFingerprint(e.Device, e.Location)
}

// SortCounts orders by count descending, then key ascending, and keeps at
// most limit rows when limit > 0.
func SortCounts(m map[string]int, limit int) []models.Count {
	out := make([]models.Count, 0, len(m))
	for k, n := range m {
		out = append(out, models.Count{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key < out[j].Key
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Percent returns part/total as a percentage rounded to one decimal place.
// A non-positive total yields 0.
func Percent(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)*1000/float64(total)) / 10
}

// SumBuckets adds up a histogram.
func SumBuckets(b []int) int {
	n := 0
	for _, v := range b {
		n += v
	}
	return n
}
